// Package face reconstructs head geometry from a body silhouette by
// ray-marching up from the neck and scoring left/right symmetry.
package face

import (
	"github.com/banshee-data/thermal.screen/internal/config"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
)

// neckOffset is how far above the neck line the march starts.
const neckOffset = 3

// Config holds the reconstructor tunables.
type Config struct {
	Width, Height int

	NeckWindow    int
	ProbeReach    int
	NoseHeight    float64
	ForeheadLow   float64
	ForeheadHigh  float64
	ForeheadInset float64
	HeadTiltMax   float64
	SymmetryLock  float64
	SymmetryLoose float64
	AreaDiffLimit float64
	HalfwayMin    float64
	HalfwayMax    float64
	HottestSpot   float64
}

// DefaultConfig returns the reconstructor configuration for the standard
// sensor size.
func DefaultConfig() Config {
	return ConfigFromTuning(config.DefaultTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Width:         frame.Width,
		Height:        frame.Height,
		NeckWindow:    cfg.GetNeckWindow(),
		ProbeReach:    cfg.GetProbeReach(),
		NoseHeight:    cfg.GetNoseHeight(),
		ForeheadLow:   cfg.GetForeheadLow(),
		ForeheadHigh:  cfg.GetForeheadHigh(),
		ForeheadInset: cfg.GetForeheadInset(),
		HeadTiltMax:   cfg.GetHeadTiltMax(),
		SymmetryLock:  cfg.GetSymmetryLock(),
		SymmetryLoose: cfg.GetSymmetryLoose(),
		AreaDiffLimit: cfg.GetAreaDiffLimit(),
		HalfwayMin:    cfg.GetHalfwayMin(),
		HalfwayMax:    cfg.GetHalfwayMax(),
		HottestSpot:   cfg.GetHottestSpotFraction(),
	}
}

// Segment is a directed line segment.
type Segment struct {
	A, B geom.Point
}

// Info describes the head found in one frame. It is never modified after
// construction.
type Info struct {
	// Head and Forehead are ordered top-left, top-right, bottom-right,
	// bottom-left.
	Head     geom.Quad
	Forehead geom.Quad

	// Vertical runs from the neck midpoint to the top of the head.
	Vertical Segment
	// Horizontal spans the widest row of the head.
	Horizontal Segment

	// HeadLock is 0, 0.5 or 1. Only 1 is front-on enough to sample.
	HeadLock      float64
	HalfwayRatio  float64
	SymmetryScore float64
	AreaDiff      float64

	LeftNeck, RightNeck         geom.Point
	LeftNeckSpan, RightNeckSpan shape.Span
}

// Area returns the area of the head quad.
func (i *Info) Area() float64 { return i.Head.Area() }

// Reconstructor derives face geometry from body shapes.
type Reconstructor struct {
	cfg Config
}

func NewReconstructor(cfg Config) *Reconstructor {
	return &Reconstructor{cfg: cfg}
}

// Reconstruct returns the face on body, or nil when the body has no neck or
// the head fails the proportion check. body should already be crack-filled
// and extended to the bottom of the frame. maybeHasGlasses skips the nose
// correction.
func (r *Reconstructor) Reconstruct(body shape.Shape, fr *frame.Frame, maybeHasGlasses bool) *Info {
	if len(body) < 3 {
		return nil
	}
	neck, ok := r.findNeck(body)
	if !ok {
		return nil
	}
	basis, ok := newBasis(neck.left, neck.right)
	if !ok {
		return nil
	}

	m := r.march(body, basis)
	if !maybeHasGlasses && fr != nil && m.steps > 0 {
		if shift, ok := r.noseShift(body, fr, basis, m); ok && shift != 0 {
			basis = basis.shifted(shift)
			m = r.march(body, basis)
		}
	}

	headHeight := float64(m.steps)
	headWidth := m.maxLeft + m.maxRight
	if headHeight <= headWidth || headWidth/headHeight <= 0.5 {
		monitoring.Tracef("[Face] Rejected head %.0fx%.0f", headWidth, headHeight)
		return nil
	}

	sym := r.symmetry(m)
	info := r.build(basis, m, sym)
	info.LeftNeck, info.RightNeck = neck.left, neck.right
	info.LeftNeckSpan, info.RightNeckSpan = neck.leftSpan, neck.rightSpan
	return info
}

// build lays out the head and forehead quads in the neck basis.
func (r *Reconstructor) build(b basis, m marchResult, sym symmetryResult) *Info {
	length := float64(neckOffset + m.steps)
	top := b.at(length, 0)
	left, right := m.maxLeft, m.maxRight

	head := geom.Quad{
		b.at(length, -left),
		b.at(length, right),
		b.at(0, right),
		b.at(0, -left),
	}

	inset := 1 - r.cfg.ForeheadInset
	hi := r.cfg.ForeheadHigh * length
	lo := r.cfg.ForeheadLow * length
	forehead := geom.Quad{
		b.at(hi, -left*inset),
		b.at(hi, right*inset),
		b.at(lo, right*inset),
		b.at(lo, -left*inset),
	}

	wideUp := float64(neckOffset + m.widestStep)
	return &Info{
		Head:          head,
		Forehead:      forehead,
		Vertical:      Segment{A: b.origin, B: top},
		Horizontal:    Segment{A: b.at(wideUp, -m.left[m.widestStep]), B: b.at(wideUp, m.right[m.widestStep])},
		HeadLock:      sym.headLock,
		HalfwayRatio:  sym.halfway,
		SymmetryScore: sym.score,
		AreaDiff:      sym.areaDiff,
	}
}

// basis is the local frame at the neck: origin on the neck midpoint, across
// pointing from the left neck point to the right one and up perpendicular
// to it towards the head.
type basis struct {
	origin geom.Point
	across geom.Vec
	up     geom.Vec
}

func newBasis(left, right geom.Point) (basis, bool) {
	across, ok := geom.Normalise(geom.Sub(right, left))
	if !ok {
		return basis{}, false
	}
	up := geom.Perp(across)
	if up.Y > 0 {
		up = geom.Scale(up, -1)
	}
	return basis{origin: geom.Midpoint(left, right), across: across, up: up}, true
}

// at returns the point u units up and v units across from the origin.
func (b basis) at(u, v float64) geom.Point {
	return geom.Add(b.origin, geom.Add(geom.Scale(b.up, u), geom.Scale(b.across, v)))
}

func (b basis) shifted(v float64) basis {
	b.origin = b.at(0, v)
	return b
}
