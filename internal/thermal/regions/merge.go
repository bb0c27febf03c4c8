package regions

import (
	"slices"

	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
)

// mergeFragments joins secondary shapes lying wholly above or below the
// largest shape when their facing hull corners line up. Joining repeats
// until no pair qualifies, so the result is a fixed point.
func (c *Classifier) mergeFragments(shapes []shape.Shape) ([]shape.Shape, bool) {
	if len(shapes) < 2 {
		return shapes, false
	}
	shapes = slices.Clone(shapes)
	didMerge := false

	for {
		li := largestIndex(shapes)
		main := c.hullCorners(shapes[li])
		joined := false

		for i, s := range shapes {
			area := s.Area()
			if i == li || area <= c.cfg.MergeMinArea {
				continue
			}
			other := c.hullCorners(s)
			sb, lb := s.Bounds(), shapes[li].Bounds()

			var bridge geom.Quad
			switch {
			case sb.Y1 < lb.Y0 && c.canJoin(other, main, area):
				bridge = geom.Quad{other[3], other[2], main[1], main[0]}
			case sb.Y0 > lb.Y1 && c.canJoin(main, other, area):
				bridge = geom.Quad{main[3], main[2], other[1], other[0]}
			default:
				continue
			}

			merged := c.join(shapes[li], s, bridge)
			monitoring.Diagf("[Regions] Merged fragment area=%d into body area=%d", area, shapes[li].Area())

			shapes[li] = merged
			shapes = slices.Delete(shapes, i, i+1)
			joined, didMerge = true, true
			break
		}
		if !joined {
			return shapes, didMerge
		}
	}
}

// join unions a, b and the solidified pixels of the bridge quad between
// them.
func (c *Classifier) join(a, b shape.Shape, bridge geom.Quad) shape.Shape {
	mask := shape.RasterizeQuad(bridge, c.cfg.Width, c.cfg.Height)
	parts := []shape.Shape{a, b}
	for _, raw := range shape.Extract(mask, c.cfg.Width, c.cfg.Height, 1) {
		parts = append(parts, raw.Solidify())
	}
	return shape.Merge(parts...)
}

func largestIndex(shapes []shape.Shape) int {
	best, bestArea := 0, -1
	for i, s := range shapes {
		if a := s.Area(); a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}
