package regions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
	"github.com/banshee-data/thermal.screen/internal/thermal/thermalref"
)

const w, h = frame.Width, frame.Height

// fillEllipse sets every pixel whose centre is inside the ellipse and whose
// row lies in [yMin, yMax].
func fillEllipse(mask []uint8, cx, cy, a, b float64, yMin, yMax int) {
	for y := max(yMin, 0); y <= min(yMax, h-1); y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - cx) / a
			dy := (float64(y) + 0.5 - cy) / b
			if dx*dx+dy*dy <= 1 {
				mask[y*w+x] |= frame.BitThreshold
			}
		}
	}
}

func fillRect(mask []uint8, x0, x1, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x < x1; x++ {
			mask[y*w+x] |= frame.BitThreshold
		}
	}
}

func classify(t *testing.T, mask []uint8, ref *thermalref.ROI) Result {
	t.Helper()
	c := NewClassifier(DefaultConfig())
	return c.Classify(shape.Extract(mask, w, h, frame.BitThreshold), ref)
}

func TestClassify_SingleEllipseBody(t *testing.T) {
	t.Parallel()

	mask := make([]uint8, w*h)
	fillEllipse(mask, 60, 100, 20, 45, 0, h-1)

	res := classify(t, mask, nil)
	require.Len(t, res.Shapes, 1)
	assert.False(t, res.DidMerge)
	assert.InEpsilon(t, 2827, res.Shapes[0].Area(), 0.1)
}

func TestClassify_MergesGlassesSplitHead(t *testing.T) {
	t.Parallel()

	mask := make([]uint8, w*h)
	fillEllipse(mask, 60, 42, 11, 24, 20, 58)
	fillEllipse(mask, 60, 110, 20, 55, 61, h-1)
	require.Len(t, shape.Extract(mask, w, h, frame.BitThreshold), 2)

	res := classify(t, mask, nil)
	require.True(t, res.DidMerge)
	require.Len(t, res.Shapes, 1)

	merged := res.Shapes[0]
	b := merged.Bounds()
	assert.Equal(t, 20, b.Y0)
	assert.Equal(t, h-1, b.Y1)
	assert.Len(t, merged, h-20, "rows are contiguous across the seam")

	t.Run("idempotent", func(t *testing.T) {
		again := NewClassifier(DefaultConfig()).ClassifyShapes(res.Shapes, nil)
		assert.False(t, again.DidMerge)
		if diff := cmp.Diff(res.Shapes, again.Shapes); diff != "" {
			t.Errorf("re-classification changed shapes (-first +second):\n%s", diff)
		}
	})
}

func TestClassify_SideBySideShapesDoNotMerge(t *testing.T) {
	t.Parallel()

	mask := make([]uint8, w*h)
	fillEllipse(mask, 30, 100, 15, 45, 0, h-1)
	fillEllipse(mask, 90, 100, 15, 40, 0, h-1)

	res := classify(t, mask, nil)
	assert.False(t, res.DidMerge)
	assert.Len(t, res.Shapes, 2)
}

func TestClassify_ExcludesThermalReference(t *testing.T) {
	t.Parallel()

	mask := make([]uint8, w*h)
	fillEllipse(mask, 40, 100, 20, 45, 0, h-1)
	// A large disk so that it would pass the area filter on its own.
	fillEllipse(mask, 100.5, 20.5, 15, 15, 0, h-1)

	res := classify(t, mask, nil)
	require.Len(t, res.Shapes, 2)

	raw := shape.Extract(mask, w, h, frame.BitThreshold)
	var disk shape.Bounds
	for _, r := range raw {
		if b := r.Solidify().Bounds(); b.Y0 < 50 {
			disk = b
		}
	}
	ref := &thermalref.ROI{X0: disk.X0 + 1, Y0: disk.Y0 - 1, X1: disk.X1 - 1, Y1: disk.Y1 + 2}

	res = classify(t, mask, ref)
	require.Len(t, res.Shapes, 1)
	assert.Greater(t, res.Shapes[0].Bounds().Y0, 50)

	// A reference far from the disk excludes nothing.
	far := &thermalref.ROI{X0: 0, Y0: 0, X1: 10, Y1: 10}
	assert.Len(t, classify(t, mask, far).Shapes, 2)
}

func TestClassify_RejectsCeilingHeat(t *testing.T) {
	t.Parallel()

	mask := make([]uint8, w*h)
	fillRect(mask, 5, 115, 0, 29)
	fillEllipse(mask, 60, 110, 20, 40, 40, h-1)

	res := classify(t, mask, nil)
	require.Len(t, res.Shapes, 1)
	assert.Equal(t, 70, res.Shapes[0].Bounds().Y0)

	t.Run("tall warm region is kept", func(t *testing.T) {
		tall := make([]uint8, w*h)
		fillRect(tall, 5, 115, 0, 99)
		assert.Len(t, classify(t, tall, nil).Shapes, 1)
	})
}

func TestClassify_SmallBodyRescue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fill func(mask []uint8)
		want int
	}{
		{
			name: "partial body at left edge",
			fill: func(m []uint8) { fillRect(m, 0, 10, 60, 84) },
			want: 1,
		},
		{
			name: "small blob in the middle",
			fill: func(m []uint8) { fillRect(m, 50, 60, 60, 84) },
			want: 0,
		},
		{
			name: "circular blob at the edge",
			fill: func(m []uint8) { fillRect(m, 0, 15, 60, 74) },
			want: 0,
		},
		{
			name: "medium shape blocks the rescue",
			fill: func(m []uint8) {
				fillRect(m, 0, 10, 60, 84)
				fillRect(m, 50, 70, 10, 29)
			},
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mask := make([]uint8, w*h)
			tc.fill(mask)
			assert.Len(t, classify(t, mask, nil).Shapes, tc.want)
		})
	}
}

func TestClassify_Empty(t *testing.T) {
	t.Parallel()

	res := classify(t, make([]uint8, w*h), nil)
	assert.Empty(t, res.Shapes)
	assert.False(t, res.DidMerge)
}
