package thermalref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
)

func diskFrame(cx, cy, r int, bg, fg float32) []float32 {
	px := make([]float32, frame.Width*frame.Height)
	for i := range px {
		px[i] = bg
	}
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && x >= 0 && y >= 0 && x < frame.Width && y < frame.Height {
				px[y*frame.Width+x] = fg
			}
		}
	}
	return px
}

func TestMidpointCircle(t *testing.T) {
	t.Parallel()

	for _, r := range []int{1, 3, 6, 12} {
		pts := midpointCircle(r)
		seen := make(map[offset]bool)
		for _, o := range pts {
			assert.False(t, seen[o], "duplicate offset %v", o)
			seen[o] = true
			d2 := o.dx*o.dx + o.dy*o.dy
			assert.InDelta(t, float64(r*r), float64(d2), float64(2*r+1), "r=%d offset %v", r, o)
		}
		assert.True(t, seen[offset{r, 0}])
		assert.True(t, seen[offset{0, -r}])
	}
	assert.Equal(t, []offset{{0, 0}}, midpointCircle(0))
}

func TestEdgeMap(t *testing.T) {
	t.Parallel()

	src := []float32{
		0, 0, 0,
		0, 100, 0,
		0, 0, 0,
	}
	edges := EdgeMap(src, 3, 3, 40)
	assert.Equal(t, float32(360), edges[4])
	assert.Equal(t, float32(0), edges[0])

	flat := EdgeMap([]float32{5, 5, 5, 5, 5, 5, 5, 5, 5}, 3, 3, 40)
	assert.Equal(t, float32(0), flat[4])
}

func TestDetect_FindsDisk(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig())
	px := diskFrame(100, 30, 6, 20, 120)

	roi := d.Detect(px, px, nil, frame.Width, frame.Height)
	require.NotNil(t, roi)

	cx, cy := roi.Center()
	assert.InDelta(t, 100, cx, 1)
	assert.InDelta(t, 30, cy, 1)
	assert.Greater(t, roi.Radius, 4)
	assert.Less(t, roi.Radius, 8)
	assert.Equal(t, 20, roi.SensorMissing)
	assert.Greater(t, roi.SensorValue, float32(100))
	assert.Positive(t, roi.Score)
}

func TestDetect_RejectsOutOfBandRadius(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig())
	px := diskFrame(60, 60, 11, 20, 120)
	assert.Nil(t, d.Detect(px, px, nil, frame.Width, frame.Height))

	blank := diskFrame(0, 0, 0, 20, 20)
	assert.Nil(t, d.Detect(blank, blank, nil, frame.Width, frame.Height))
}

func TestDetect_Persistence(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig())
	px := diskFrame(100, 30, 6, 20, 120)

	first := d.Detect(px, px, nil, frame.Width, frame.Height)
	require.NotNil(t, first)

	// Confirmed on the next frame at the same place.
	second := d.Detect(px, px, first, frame.Width, frame.Height)
	require.NotNil(t, second)
	assert.Equal(t, first.Radius, second.Radius)
	assert.Equal(t, first.X0, second.X0)
	assert.Equal(t, 20, second.SensorMissing, "clamped at the maximum")

	// A partially recovered counter climbs back by one.
	weak := *first
	weak.SensorMissing = 7
	third := d.Detect(px, px, &weak, frame.Width, frame.Height)
	require.NotNil(t, third)
	assert.Equal(t, 8, third.SensorMissing)
}

func TestDetect_HysteresisHoldsThenDrops(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig())
	px := diskFrame(100, 30, 6, 20, 120)
	occluded := diskFrame(0, 0, 0, 20, 20)

	roi := d.Detect(px, px, nil, frame.Width, frame.Height)
	require.NotNil(t, roi)
	start := *roi

	held := 0
	for roi != nil {
		roi = d.Detect(occluded, occluded, roi, frame.Width, frame.Height)
		if roi != nil {
			held++
			assert.Equal(t, start.X0, roi.X0)
			assert.Equal(t, start.Radius, roi.Radius)
			assert.Equal(t, start.SensorMissing-held, roi.SensorMissing)
		}
		require.Less(t, held, 100)
	}
	assert.Equal(t, 19, held)

	// The previous ROI is never modified.
	assert.Equal(t, 20, start.SensorMissing)
}

func TestDetect_ReacquiresAfterMove(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig())
	here := diskFrame(100, 30, 6, 20, 120)
	there := diskFrame(20, 130, 6, 20, 120)

	roi := d.Detect(here, here, nil, frame.Width, frame.Height)
	require.NotNil(t, roi)
	roi.SensorMissing = 1

	moved := d.Detect(there, there, roi, frame.Width, frame.Height)
	require.NotNil(t, moved)
	cx, cy := moved.Center()
	assert.InDelta(t, 20, cx, 1)
	assert.InDelta(t, 130, cy, 1)
	assert.Equal(t, 20, moved.SensorMissing)
}

func TestROI_Geometry(t *testing.T) {
	t.Parallel()

	roi := &ROI{X0: 10, Y0: 20, X1: 22, Y1: 32}
	box := roi.Box()
	assert.Equal(t, 10.0, box.Min.X)
	assert.Equal(t, 33.0, box.Max.Y)
	c := roi.Corners()
	assert.Equal(t, box.Min, c[0])
	assert.Equal(t, box.Max, c[2])
}
