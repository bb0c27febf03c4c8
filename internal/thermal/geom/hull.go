package geom

import (
	"cmp"
	"slices"
)

// Hull returns the convex hull of points using the monotone chain method.
// Vertices come out with a consistent positive Orient winding, the first
// vertex is not repeated and collinear boundary points are dropped.
// Empty input yields an empty hull, a single distinct point a one-point hull
// and collinear input its two extremes.
func Hull(points []Point) []Point {
	pts := sortedUnique(points)
	if len(pts) < 3 {
		return pts
	}

	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		hull = pushHull(hull, p, 0)
	}
	lowerLen := len(hull)
	for i := len(pts) - 2; i >= 0; i-- {
		hull = pushHull(hull, pts[i], lowerLen)
	}
	// The last point closes the loop back onto pts[0].
	return hull[:len(hull)-1]
}

// pushHull appends p after popping every trailing vertex that does not make
// a strict turn. Vertices below floor belong to a finished chain.
func pushHull(hull []Point, p Point, floor int) []Point {
	need := floor + 2
	if floor > 0 {
		need = floor + 1
	}
	for len(hull) >= need {
		a, b := hull[len(hull)-2], hull[len(hull)-1]
		if Orient(a.X, a.Y, b.X, b.Y, p.X, p.Y) > 0 {
			break
		}
		hull = hull[:len(hull)-1]
	}
	return append(hull, p)
}

// FastHull returns the same hull as Hull but first discards every point
// strictly inside the quad formed by the four axis extremes. Those points
// cannot be hull vertices.
func FastHull(points []Point) []Point {
	if len(points) < 8 {
		return Hull(points)
	}
	minX, maxX, minY, maxY := points[0], points[0], points[0], points[0]
	for _, p := range points[1:] {
		if p.X < minX.X || (p.X == minX.X && p.Y < minX.Y) {
			minX = p
		}
		if p.X > maxX.X || (p.X == maxX.X && p.Y > maxX.Y) {
			maxX = p
		}
		if p.Y < minY.Y || (p.Y == minY.Y && p.X > minY.X) {
			minY = p
		}
		if p.Y > maxY.Y || (p.Y == maxY.Y && p.X < maxY.X) {
			maxY = p
		}
	}
	// Walking left, top, right, bottom keeps the quad cyclic.
	quad := Quad{minX, minY, maxX, maxY}

	survivors := make([]Point, 0, len(points)/4+4)
	survivors = append(survivors, quad[:]...)
	for _, p := range points {
		if !PointInQuad(p, quad) {
			survivors = append(survivors, p)
		}
	}
	return Hull(survivors)
}

func sortedUnique(points []Point) []Point {
	pts := slices.Clone(points)
	slices.SortFunc(pts, func(a, b Point) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})
	return slices.Compact(pts)
}
