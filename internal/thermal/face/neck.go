package face

import (
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
)

type neckResult struct {
	left, right         geom.Point
	leftSpan, rightSpan shape.Span
}

// findNeck takes the widest span in the lower two thirds of body and walks
// up towards the head to the first span at most half as wide. The neck line
// is then refined with a slanted pair search around that row. Without such
// a row the narrowest span anywhere above the widest one is used.
func (r *Reconstructor) findNeck(body shape.Shape) (neckResult, bool) {
	wi, ok := body.Widest(len(body)/3, len(body))
	if !ok {
		return neckResult{}, false
	}
	widest := body[wi].Width()

	candidate := -1
	for i := wi - 1; i >= 0; i-- {
		if body[i].Width()*2 <= widest {
			candidate = i
			break
		}
	}
	if candidate >= 0 {
		if n, ok := r.narrowestSlanted(body, candidate); ok {
			return n, true
		}
	}

	ni, ok := body.Narrowest(0, wi, r.cfg.Width)
	if !ok {
		return neckResult{}, false
	}
	sp := body[ni]
	y := float64(sp.Y) + 0.5
	return neckResult{
		left:     geom.Pt(float64(sp.X0), y),
		right:    geom.Pt(float64(sp.X1), y),
		leftSpan: sp, rightSpan: sp,
	}, true
}

// narrowestSlanted pairs the left edge of one row with the right edge of
// another within NeckWindow rows of center and keeps the shortest pair.
// Ties prefer the pair with the smaller row skew. Pairs touching the left
// or right frame edge only win when nothing else qualifies.
func (r *Reconstructor) narrowestSlanted(body shape.Shape, center int) (neckResult, bool) {
	from := max(center-r.cfg.NeckWindow, 0)
	to := min(center+r.cfg.NeckWindow, len(body)-1)

	type pick struct {
		i, j   int
		d2     float64
		skew   int
		onEdge bool
	}
	var best pick
	found := false
	better := func(c pick) bool {
		if !found {
			return true
		}
		if c.onEdge != best.onEdge {
			return !c.onEdge
		}
		if c.d2 != best.d2 {
			return c.d2 < best.d2
		}
		return c.skew < best.skew
	}

	for i := from; i <= to; i++ {
		ls := body[i]
		lp := geom.Pt(float64(ls.X0), float64(ls.Y)+0.5)
		for j := from; j <= to; j++ {
			rs := body[j]
			if rs.X1 <= ls.X0 {
				continue
			}
			rp := geom.Pt(float64(rs.X1), float64(rs.Y)+0.5)
			c := pick{
				i:      i,
				j:      j,
				d2:     geom.DistanceSquared(lp, rp),
				skew:   abs(rs.Y - ls.Y),
				onEdge: ls.X0 <= 0 || rs.X1 >= r.cfg.Width,
			}
			if better(c) {
				best, found = c, true
			}
		}
	}
	if !found {
		return neckResult{}, false
	}
	ls, rs := body[best.i], body[best.j]
	ls.Flags |= shape.FlagNarrowest
	rs.Flags |= shape.FlagNarrowest
	return neckResult{
		left:      geom.Pt(float64(ls.X0), float64(ls.Y)+0.5),
		right:     geom.Pt(float64(rs.X1), float64(rs.Y)+0.5),
		leftSpan:  ls,
		rightSpan: rs,
	}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
