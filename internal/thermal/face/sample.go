package face

import (
	"math"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
)

// Sample is a temperature reading at one pixel.
type Sample struct {
	X, Y  int
	Value float32
}

// HottestSpot picks the forehead pixel to measure. Among pixels inside the
// forehead quad warmer than threshold it returns the one nearest the point
// HottestSpot of the way from the top edge to the bottom edge, which keeps
// the sample clear of the hairline. It reports false when no pixel
// qualifies.
func (r *Reconstructor) HottestSpot(info *Info, fr *frame.Frame, threshold float32) (Sample, bool) {
	if info == nil || fr == nil {
		return Sample{}, false
	}
	q := info.Forehead
	top := geom.Midpoint(q[0], q[1])
	bottom := geom.Midpoint(q[3], q[2])
	target := geom.Lerp(top, bottom, r.cfg.HottestSpot)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	var best Sample
	bestD := math.Inf(1)
	for y := max(int(minY), 0); y <= min(int(maxY), fr.Height-1); y++ {
		for x := max(int(minX), 0); x <= min(int(maxX), fr.Width-1); x++ {
			c := geom.Pt(float64(x)+0.5, float64(y)+0.5)
			if !geom.PointInPolygon(c, q[:]) {
				continue
			}
			v := fr.At(x, y)
			if v <= threshold {
				continue
			}
			if d := geom.DistanceSquared(c, target); d < bestD {
				best, bestD = Sample{X: x, Y: y, Value: v}, d
			}
		}
	}
	return best, !math.IsInf(bestD, 1)
}
