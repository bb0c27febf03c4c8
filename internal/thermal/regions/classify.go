// Package regions turns the threshold shapes of a frame into candidate
// bodies. It removes the calibration disk, rejoins heads split by glasses
// glare and drops ceiling heat.
package regions

import (
	"math"

	"github.com/banshee-data/thermal.screen/internal/config"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
	"github.com/banshee-data/thermal.screen/internal/thermal/thermalref"
)

// Config holds the classifier tunables.
type Config struct {
	Width, Height int

	CornerTolerance      float64
	MergeMinArea         int
	MergeDistanceFactor  float64
	MergeOffsetDivisor   float64
	BodyMinArea          int
	SmallBodyMaxArea     int
	CircularTolerance    int
	CeilingMaxRows       int
	CeilingWidthFraction float64
}

// DefaultConfig returns the classifier configuration for the standard
// sensor size.
func DefaultConfig() Config {
	return ConfigFromTuning(config.DefaultTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Width:                frame.Width,
		Height:               frame.Height,
		CornerTolerance:      float64(cfg.GetRefCornerTolerance()),
		MergeMinArea:         cfg.GetMergeMinArea(),
		MergeDistanceFactor:  cfg.GetMergeDistanceFactor(),
		MergeOffsetDivisor:   cfg.GetMergeOffsetDivisor(),
		BodyMinArea:          cfg.GetBodyMinArea(),
		SmallBodyMaxArea:     cfg.GetSmallBodyMaxArea(),
		CircularTolerance:    cfg.GetCircularTolerance(),
		CeilingMaxRows:       cfg.GetCeilingMaxRows(),
		CeilingWidthFraction: cfg.GetCeilingWidthFraction(),
	}
}

// Result is the outcome of classifying one frame.
type Result struct {
	Shapes []shape.Shape
	// DidMerge is set when head fragments were joined. The face
	// reconstructor treats it as a hint that glasses may be present.
	DidMerge bool
}

// Classifier filters and merges candidate body shapes.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify solidifies raw and classifies the result.
func (c *Classifier) Classify(raw []shape.RawShape, ref *thermalref.ROI) Result {
	return c.ClassifyShapes(shape.SolidifyAll(raw), ref)
}

// ClassifyShapes excludes the reference disk, merges head fragments and
// applies the final body filter. The input is not modified.
//
// Ceiling heat is set aside before merging as well as after, so a heater
// strip is never bridged onto a person standing below it.
func (c *Classifier) ClassifyShapes(shapes []shape.Shape, ref *thermalref.ROI) Result {
	candidates := c.excludeReference(shapes, ref)
	candidates = c.dropCeiling(candidates)
	merged, didMerge := c.mergeFragments(candidates)
	return Result{Shapes: c.dropCeiling(c.filter(merged)), DidMerge: didMerge}
}

// excludeReference drops shapes whose bounding box matches the ROI corner
// for corner.
func (c *Classifier) excludeReference(shapes []shape.Shape, ref *thermalref.ROI) []shape.Shape {
	out := make([]shape.Shape, 0, len(shapes))
	if ref == nil {
		for _, s := range shapes {
			if len(s) > 0 {
				out = append(out, s)
			}
		}
		return out
	}
	refCorners := ref.Corners()
	tol2 := c.cfg.CornerTolerance * c.cfg.CornerTolerance
	for _, s := range shapes {
		if len(s) == 0 {
			continue
		}
		corners := s.Bounds().Corners()
		matches := true
		for i := range corners {
			if geom.DistanceSquared(corners[i], refCorners[i]) > tol2 {
				matches = false
				break
			}
		}
		if matches {
			monitoring.Tracef("[Regions] Excluded thermal reference shape at (%v, %v)", corners[0].X, corners[0].Y)
			continue
		}
		out = append(out, s)
	}
	return out
}

// filter keeps large bodies, or rescues one small partial body at the frame
// side.
func (c *Classifier) filter(shapes []shape.Shape) []shape.Shape {
	var kept []shape.Shape
	anyMedium := false
	for _, s := range shapes {
		a := s.Area()
		if a > c.cfg.SmallBodyMaxArea {
			anyMedium = true
		}
		if a > c.cfg.BodyMinArea {
			kept = append(kept, s)
		}
	}
	if !anyMedium && len(kept) == 0 && len(shapes) > 0 {
		if l := shape.Largest(shapes); c.touchesSide(l) && !c.circular(l) {
			kept = append(kept, l)
		}
	}
	return kept
}

func (c *Classifier) dropCeiling(shapes []shape.Shape) []shape.Shape {
	out := make([]shape.Shape, 0, len(shapes))
	for _, s := range shapes {
		if c.isCeiling(s) {
			monitoring.Diagf("[Regions] Dropped ceiling heat region %+v", s.Bounds())
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *Classifier) touchesSide(s shape.Shape) bool {
	b := s.Bounds()
	return b.X0 <= 0 || b.X1 >= c.cfg.Width || b.Y1 >= c.cfg.Height-1
}

func (c *Classifier) circular(s shape.Shape) bool {
	b := s.Bounds()
	d := b.Width() - b.Height()
	return d <= c.cfg.CircularTolerance && d >= -c.cfg.CircularTolerance
}

func (c *Classifier) isCeiling(s shape.Shape) bool {
	b := s.Bounds()
	return b.Y0 == 0 &&
		b.Height() < c.cfg.CeilingMaxRows &&
		float64(b.Width()) > c.cfg.CeilingWidthFraction*float64(c.cfg.Width)
}

// frameCorners returns the frame corners top-left, top-right, bottom-right,
// bottom-left.
func (c *Classifier) frameCorners() geom.Quad {
	w, h := float64(c.cfg.Width), float64(c.cfg.Height)
	return geom.Quad{geom.Pt(0, 0), geom.Pt(w, 0), geom.Pt(w, h), geom.Pt(0, h)}
}

// hullCorners returns the hull points of s nearest each frame corner.
func (c *Classifier) hullCorners(s shape.Shape) geom.Quad {
	hull := geom.FastHull(s.Points())
	var q geom.Quad
	for i, fc := range c.frameCorners() {
		q[i], _ = geom.ClosestPoint(hull, fc)
	}
	return q
}

func midX(a, b geom.Point) float64 { return (a.X + b.X) / 2 }

// canJoin reports whether the bottom corners of upper face the top corners
// of lower closely enough for a shape of secondaryArea pixels.
func (c *Classifier) canJoin(upper, lower geom.Quad, secondaryArea int) bool {
	limit := c.cfg.MergeDistanceFactor * float64(secondaryArea)
	if geom.DistanceSquared(upper[3], lower[0]) >= limit ||
		geom.DistanceSquared(upper[2], lower[1]) >= limit {
		return false
	}
	offset := math.Abs(midX(upper[3], upper[2]) - midX(lower[0], lower[1]))
	return offset < float64(secondaryArea)/c.cfg.MergeOffsetDivisor
}
