package shape

import (
	"math"

	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
)

// Rasterize paints shapes into a width×height mask with value 1. Spans are
// clipped to the frame. Malformed spans are reported and skipped.
func Rasterize(shapes []Shape, width, height int) []uint8 {
	mask := make([]uint8, width*height)
	for _, s := range shapes {
		for _, sp := range s {
			if !sp.Valid() {
				monitoring.Opsf("[Shape] Skipping malformed span y=%d x0=%d x1=%d", sp.Y, sp.X0, sp.X1)
				continue
			}
			if sp.Y < 0 || sp.Y >= height {
				continue
			}
			x0, x1 := max(sp.X0, 0), min(sp.X1, width)
			row := mask[sp.Y*width : (sp.Y+1)*width]
			for x := x0; x < x1; x++ {
				row[x] = 1
			}
		}
	}
	return mask
}

// RasterizeQuad paints every pixel whose centre lies inside q.
func RasterizeQuad(q geom.Quad, width, height int) []uint8 {
	mask := make([]uint8, width*height)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	x0 := max(int(math.Floor(minX)), 0)
	x1 := min(int(math.Ceil(maxX)), width)
	y0 := max(int(math.Floor(minY)), 0)
	y1 := min(int(math.Ceil(maxY)), height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if geom.PointInPolygon(geom.Pt(float64(x)+0.5, float64(y)+0.5), q[:]) {
				mask[y*width+x] = 1
			}
		}
	}
	return mask
}
