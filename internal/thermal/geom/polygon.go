package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Quad is a four-cornered polygon. Face quads are ordered top-left,
// top-right, bottom-right, bottom-left.
type Quad [4]Point

// Points returns the corners as a slice.
func (q Quad) Points() []Point { return q[:] }

// Center returns the mean of the four corners.
func (q Quad) Center() Point {
	var c Point
	for _, p := range q {
		c = r2.Add(c, p)
	}
	return r2.Scale(0.25, c)
}

// Area returns the unsigned area of the quad.
func (q Quad) Area() float64 { return math.Abs(PolygonArea(q[:])) }

// Box is an axis-aligned rectangle with Min <= Max.
type Box = r2.Box

// PointInPolygon reports whether p lies inside poly using the even-odd rule.
// The polygon is closed implicitly and may be concave.
func PointInPolygon(p Point, poly []Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// PointInQuad reports whether p lies strictly inside all four edge
// half-planes of q. Either winding is accepted; points on an edge are
// outside.
func PointInQuad(p Point, q Quad) bool {
	pos, neg := 0, 0
	for i := range q {
		a, b := q[i], q[(i+1)%4]
		switch OrientSign(a.X, a.Y, b.X, b.Y, p.X, p.Y) {
		case 1:
			pos++
		case -1:
			neg++
		default:
			return false
		}
	}
	return pos == 4 || neg == 4
}

// SegmentsIntersect reports whether the closed segments p1-p2 and q1-q2
// share at least one point.
func SegmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := OrientSign(q1.X, q1.Y, q2.X, q2.Y, p1.X, p1.Y)
	d2 := OrientSign(q1.X, q1.Y, q2.X, q2.Y, p2.X, p2.Y)
	d3 := OrientSign(p1.X, p1.Y, p2.X, p2.Y, q1.X, q1.Y)
	d4 := OrientSign(p1.X, p1.Y, p2.X, p2.Y, q2.X, q2.Y)

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// onSegment assumes p is collinear with a-b.
func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func boxContains(b Box, p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// QuadIntersectsBox reports whether q and the closed box b overlap: a corner
// of either lies within the other, or an edge of q crosses an edge of b.
func QuadIntersectsBox(q Quad, b Box) bool {
	for _, p := range q {
		if boxContains(b, p) {
			return true
		}
	}
	corners := [4]Point{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
	}
	for _, c := range corners {
		if PointInPolygon(c, q[:]) {
			return true
		}
	}
	for i := range q {
		a1, a2 := q[i], q[(i+1)%4]
		for j := range corners {
			if SegmentsIntersect(a1, a2, corners[j], corners[(j+1)%4]) {
				return true
			}
		}
	}
	return false
}

// PolygonArea returns the signed shoelace area of poly. The sign follows
// Orient: positive for a counter-clockwise winding on screen.
func PolygonArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		sum += a.Y*b.X - a.X*b.Y
	}
	return sum / 2
}
