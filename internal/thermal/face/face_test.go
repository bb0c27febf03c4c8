package face

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
	"github.com/banshee-data/thermal.screen/internal/thermal/synth"
)

func renderPerson(t *testing.T, p synth.Person) (*frame.Frame, shape.Shape) {
	t.Helper()
	scene := synth.Scene{Background: synth.BackgroundTemp, Person: &p}
	fr := scene.Render(0, time.Time{}, nil)
	raw := shape.Extract(fr.Mask, fr.Width, fr.Height, frame.BitThreshold)
	require.NotEmpty(t, raw)
	body := shape.Largest(shape.SolidifyAll(raw)).FillVerticalCracks(3).ExtendToBottom(fr.Height)
	return fr, body
}

func TestReconstruct_FrontOnPerson(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	fr, body := renderPerson(t, synth.DefaultPerson())

	info := r.Reconstruct(body, fr, false)
	require.NotNil(t, info)

	assert.Equal(t, 1.0, info.HeadLock)
	assert.InDelta(t, 0.5, info.HalfwayRatio, 1e-9)
	assert.InDelta(t, 0, info.SymmetryScore, 1e-9)

	assert.InDelta(t, 60, info.Vertical.A.X, 1e-9)
	assert.InDelta(t, 80.5, info.Vertical.A.Y, 1e-9)
	assert.Less(t, info.Vertical.B.Y, info.Vertical.A.Y, "head is above the neck")
	assert.InDelta(t, 51, info.LeftNeck.X, 1e-9)
	assert.InDelta(t, 69, info.RightNeck.X, 1e-9)
	assert.NotZero(t, info.LeftNeckSpan.Flags&shape.FlagNarrowest)

	assert.InDelta(t, 40*54, info.Area(), 1e-6)

	// Corners are ordered top-left, top-right, bottom-right, bottom-left.
	h := info.Head
	assert.Less(t, h[0].X, h[1].X)
	assert.Less(t, h[0].Y, h[3].Y)
	assert.Less(t, h[3].X, h[2].X)

	for _, p := range info.Forehead {
		assert.True(t, geom.PointInPolygon(p, h[:]), "forehead corner %v outside head", p)
	}
	assert.Less(t, info.Forehead[0].Y, info.Forehead[3].Y)
	assert.Less(t, info.Horizontal.A.X, info.Horizontal.B.X)
}

func TestReconstruct_NoseCorrection(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	p := synth.DefaultPerson()
	p.NoseDX = 4
	fr, body := renderPerson(t, p)

	corrected := r.Reconstruct(body, fr, false)
	require.NotNil(t, corrected)
	assert.InDelta(t, 63, corrected.Vertical.A.X, 1e-9)

	glasses := r.Reconstruct(body, fr, true)
	require.NotNil(t, glasses)
	assert.InDelta(t, 60, glasses.Vertical.A.X, 1e-9)
}

func TestReconstruct_NoFace(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	fr := frame.New(frame.Width, frame.Height)

	assert.Nil(t, r.Reconstruct(nil, fr, false))
	assert.Nil(t, r.Reconstruct(shape.Shape{{X0: 1, X1: 5, Y: 0}}, fr, false))

	// A plain block has no head above its neck line.
	var block shape.Shape
	for y := 60; y < frame.Height; y++ {
		block = append(block, shape.Span{X0: 40, X1: 80, Y: y})
	}
	assert.Nil(t, r.Reconstruct(block, fr, false))

	// A tiny head on wide shoulders fails the proportion check.
	far := synth.DefaultPerson()
	far.HeadA, far.HeadB = 20, 6
	far.HeadCY = 70
	ffr, fbody := renderPerson(t, far)
	assert.Nil(t, r.Reconstruct(fbody, ffr, false))
}

func TestNarrowestSlanted_AvoidsFrameEdge(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	body := shape.Shape{
		{X0: 0, X1: 8, Y: 10}, // narrowest, but touches the left edge
		{X0: 30, X1: 50, Y: 11},
		{X0: 30, X1: 52, Y: 12},
	}
	n, ok := r.narrowestSlanted(body, 1)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(30, 11.5), n.left)
	assert.Equal(t, geom.Pt(50, 11.5), n.right)

	edgeOnly := shape.Shape{{X0: 0, X1: 8, Y: 10}}
	n, ok = r.narrowestSlanted(edgeOnly, 0)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0, 10.5), n.left)
}

func TestNarrowestSlanted_PicksShortestPair(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	body := shape.Shape{
		{X0: 30, X1: 50, Y: 20},
		{X0: 30, X1: 50, Y: 21},
		{X0: 31, X1: 49, Y: 22}, // shortest pair
		{X0: 30, X1: 50, Y: 23},
	}
	n, ok := r.narrowestSlanted(body, 1)
	require.True(t, ok)
	assert.Equal(t, 22, n.leftSpan.Y)
	assert.Equal(t, 22, n.rightSpan.Y)
}

func TestFindNeck_FallbackSearchesAllRowsAbove(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	var body shape.Shape
	for i := 0; i < 30; i++ {
		sp := shape.Span{X0: 40, X1: 70, Y: 50 + i}
		switch i {
		case 1:
			sp.X0, sp.X1 = 44, 66
		case 25:
			sp.X0, sp.X1 = 35, 75
		}
		body = append(body, sp)
	}

	// No row is half as wide as the widest, so the narrowest row above it
	// is taken even though it sits near the top of the shape.
	n, ok := r.findNeck(body)
	require.True(t, ok)
	assert.Equal(t, 51, n.leftSpan.Y)
	assert.Equal(t, geom.Pt(44, 51.5), n.left)
	assert.Equal(t, geom.Pt(66, 51.5), n.right)
}

func TestHeadLock(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	profile := func(left, right []float64, lastLeft, lastRight int) marchResult {
		m := marchResult{steps: len(left), left: left, right: right, lastLeft: lastLeft, lastRight: lastRight}
		for i := range left {
			m.maxLeft = max(m.maxLeft, left[i])
			m.maxRight = max(m.maxRight, right[i])
		}
		return m
	}
	repeat := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	cases := []struct {
		name string
		m    marchResult
		want float64
	}{
		{
			name: "symmetric",
			m:    profile(repeat(10, 20), repeat(10, 20), 19, 19),
			want: 1,
		},
		{
			name: "tilted",
			m:    profile(repeat(10, 20), repeat(10, 20), 19, 10),
			want: 0,
		},
		{
			name: "lopsided with large area difference",
			m:    profile(append(repeat(5, 10), repeat(20, 10)...), append(repeat(20, 10), repeat(5, 10)...), 19, 19),
			want: 0.5,
		},
		{
			name: "lopsided with small area difference",
			m:    profile(append(repeat(1, 10), repeat(8, 10)...), append(repeat(2, 10), repeat(2, 10)...), 19, 19),
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sym := r.symmetry(tc.m)
			assert.Equal(t, tc.want, sym.headLock, "score=%.2f areaDiff=%.1f halfway=%.2f", sym.score, sym.areaDiff, sym.halfway)
		})
	}
}

func TestHottestSpot(t *testing.T) {
	t.Parallel()

	r := NewReconstructor(DefaultConfig())
	fr, body := renderPerson(t, synth.DefaultPerson())
	info := r.Reconstruct(body, fr, false)
	require.NotNil(t, info)

	s, ok := r.HottestSpot(info, fr, fr.Stats.Threshold)
	require.True(t, ok)
	assert.Equal(t, float32(synth.SkinTemp), s.Value)
	assert.True(t, geom.PointInPolygon(geom.Pt(float64(s.X)+0.5, float64(s.Y)+0.5), info.Forehead[:]))

	// Nearer the bottom edge of the forehead than the top.
	top := geom.Midpoint(info.Forehead[0], info.Forehead[1])
	bottom := geom.Midpoint(info.Forehead[3], info.Forehead[2])
	c := geom.Pt(float64(s.X)+0.5, float64(s.Y)+0.5)
	assert.Less(t, geom.Distance(c, bottom), geom.Distance(c, top))

	_, ok = r.HottestSpot(info, fr, synth.SkinTemp+1)
	assert.False(t, ok)
	_, ok = r.HottestSpot(nil, fr, 0)
	assert.False(t, ok)
}
