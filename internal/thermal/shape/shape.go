package shape

import (
	"slices"
	"sort"

	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
)

// Shape is a silhouette with at most one span per row, ordered by Y.
// Operations return new shapes; a Shape is never shared between owners.
type Shape []Span

// Bounds is the bounding box of a shape. X1 is exclusive, Y1 is the last
// row.
type Bounds struct {
	X0, X1 int
	Y0, Y1 int
}

func (b Bounds) Width() int  { return b.X1 - b.X0 }
func (b Bounds) Height() int { return b.Y1 - b.Y0 + 1 }

// Box returns the bounds as a pixel-edge rectangle.
func (b Bounds) Box() geom.Box {
	return geom.Box{
		Min: geom.Pt(float64(b.X0), float64(b.Y0)),
		Max: geom.Pt(float64(b.X1), float64(b.Y1+1)),
	}
}

// Corners returns the pixel-edge corners top-left, top-right, bottom-right,
// bottom-left.
func (b Bounds) Corners() geom.Quad {
	x0, x1 := float64(b.X0), float64(b.X1)
	y0, y1 := float64(b.Y0), float64(b.Y1+1)
	return geom.Quad{geom.Pt(x0, y0), geom.Pt(x1, y0), geom.Pt(x1, y1), geom.Pt(x0, y1)}
}

// Area returns the number of pixels covered.
func (s Shape) Area() int {
	n := 0
	for _, sp := range s {
		n += sp.Width()
	}
	return n
}

// Bounds returns the bounding box. An empty shape has zero bounds.
func (s Shape) Bounds() Bounds {
	if len(s) == 0 {
		return Bounds{}
	}
	b := Bounds{X0: s[0].X0, X1: s[0].X1, Y0: s[0].Y, Y1: s[len(s)-1].Y}
	for _, sp := range s[1:] {
		b.X0 = min(b.X0, sp.X0)
		b.X1 = max(b.X1, sp.X1)
	}
	return b
}

func (s Shape) Clone() Shape { return slices.Clone(s) }

// SpanAt returns the span on row y.
func (s Shape) SpanAt(y int) (Span, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Y >= y })
	if i < len(s) && s[i].Y == y {
		return s[i], true
	}
	return Span{}, false
}

// Contains reports whether pixel (x, y) is covered.
func (s Shape) Contains(x, y int) bool {
	sp, ok := s.SpanAt(y)
	return ok && x >= sp.X0 && x < sp.X1
}

// ContainsPoint reports whether the pixel holding p is covered.
func (s Shape) ContainsPoint(p geom.Point) bool {
	if p.X < 0 || p.Y < 0 {
		return false
	}
	return s.Contains(int(p.X), int(p.Y))
}

// Offset returns s translated by (dx, dy).
func (s Shape) Offset(dx, dy int) Shape {
	out := make(Shape, len(s))
	for i, sp := range s {
		out[i] = Span{X0: sp.X0 + dx, X1: sp.X1 + dx, Y: sp.Y + dy, Flags: sp.Flags}
	}
	return out
}

// Widest returns the index of the widest span in s[from:to]. Ties keep the
// topmost row. It reports false for an empty range.
func (s Shape) Widest(from, to int) (int, bool) {
	from = max(from, 0)
	to = min(to, len(s))
	if from >= to {
		return 0, false
	}
	best := from
	for i := from + 1; i < to; i++ {
		if s[i].Width() > s[best].Width() {
			best = i
		}
	}
	return best, true
}

// Narrowest returns the index of the narrowest span in s[from:to] whose
// row does not touch either side of a frame of the given width. Ties keep
// the topmost row.
func (s Shape) Narrowest(from, to, frameWidth int) (int, bool) {
	from = max(from, 0)
	to = min(to, len(s))
	best, found := 0, false
	for i := from; i < to; i++ {
		if s[i].X0 <= 0 || s[i].X1 >= frameWidth {
			continue
		}
		if !found || s[i].Width() < s[best].Width() {
			best, found = i, true
		}
	}
	return best, found
}

// Points returns the pixel-edge corners of every span. The convex hull of
// these points encloses every covered pixel.
func (s Shape) Points() []geom.Point {
	pts := make([]geom.Point, 0, 4*len(s))
	for _, sp := range s {
		x0, x1 := float64(sp.X0), float64(sp.X1)
		y0, y1 := float64(sp.Y), float64(sp.Y+1)
		pts = append(pts, geom.Pt(x0, y0), geom.Pt(x1, y0), geom.Pt(x0, y1), geom.Pt(x1, y1))
	}
	return pts
}

// Largest returns the shape with the greatest area, or nil for no shapes.
// Ties keep the earliest shape.
func Largest(shapes []Shape) Shape {
	var best Shape
	bestArea := -1
	for _, s := range shapes {
		if a := s.Area(); a > bestArea {
			best, bestArea = s, a
		}
	}
	return best
}

// Merge unions shapes row by row, taking the leftmost start and rightmost
// end on each row.
func Merge(shapes ...Shape) Shape {
	rows := make(map[int]Span)
	for _, s := range shapes {
		for _, sp := range s {
			if cur, ok := rows[sp.Y]; ok {
				rows[sp.Y] = cur.Union(sp)
			} else {
				rows[sp.Y] = sp
			}
		}
	}
	out := make(Shape, 0, len(rows))
	for _, sp := range rows {
		out = append(out, sp)
	}
	slices.SortFunc(out, func(a, b Span) int { return a.Y - b.Y })
	return out
}

// Overlaps reports whether a and b share a pixel.
func Overlaps(a, b Shape) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Y < b[j].Y:
			i++
		case a[i].Y > b[j].Y:
			j++
		default:
			if a[i].OverlapsX(b[j]) {
				return true
			}
			i++
			j++
		}
	}
	return false
}

// FillVerticalCracks returns a copy of s where runs of at most maxRows rows
// narrower than half of the row above them, followed by a row that
// recovers, are widened to cover the rows on either side. Widths never
// decrease and the bounding box is unchanged.
func (s Shape) FillVerticalCracks(maxRows int) Shape {
	out := s.Clone()
	for i := 0; i < len(out)-2; i++ {
		anchor := out[i]
		aw := anchor.Width()

		j := i + 1
		for j < len(out) && j-i-1 < maxRows &&
			out[j].Y == out[j-1].Y+1 && out[j].Width()*2 < aw {
			j++
		}
		if j == i+1 || j >= len(out) {
			continue
		}
		recovery := out[j]
		if recovery.Y != out[j-1].Y+1 || recovery.Width()*2 < aw {
			continue
		}

		fill := anchor.Union(recovery)
		for k := i + 1; k < j; k++ {
			out[k].X0 = min(out[k].X0, fill.X0)
			out[k].X1 = max(out[k].X1, fill.X1)
		}
		i = j - 1
	}
	return out
}

// ExtendToBottom returns a copy of s continued down to the last row of a
// frame of the given height. Below the middle row no span may narrow by
// more than one pixel per side relative to the row above. Missing rows are
// filled from the row above and new rows repeat the last span.
func (s Shape) ExtendToBottom(height int) Shape {
	if len(s) == 0 {
		return nil
	}
	mid := len(s) / 2
	out := make(Shape, 0, max(len(s), height-s[0].Y))
	for i, sp := range s {
		if i > 0 {
			prev := out[len(out)-1]
			for y := prev.Y + 1; y < sp.Y; y++ {
				out = append(out, Span{X0: prev.X0, X1: prev.X1, Y: y, Flags: FlagSynthetic})
			}
			if i > mid {
				prev = out[len(out)-1]
				sp.X0 = min(sp.X0, prev.X0+1)
				sp.X1 = max(sp.X1, prev.X1-1)
			}
		}
		out = append(out, sp)
	}
	last := out[len(out)-1]
	for y := last.Y + 1; y < height; y++ {
		out = append(out, Span{X0: last.X0, X1: last.X1, Y: y, Flags: FlagSynthetic})
	}
	return out
}
