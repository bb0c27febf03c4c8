package geom

import "math"

// epsilon is half an ulp of 1.0 for float64 (2^-53).
const epsilon = 1.0 / (1 << 53)

// orientErrBound bounds the relative error of the naive determinant.
// Shewchuk's ccwerrboundA.
const orientErrBound = (3.0 + 16.0*epsilon) * epsilon

// Orient returns a value whose sign tells on which side of the directed line
// a→b the point c lies:
//
//	(ay-cy)*(bx-cx) - (ax-cx)*(by-cy)
//
// In sensor coordinates (y grows downward) a positive result is a
// counter-clockwise turn a→b→c as seen on screen, negative is clockwise and
// zero means the three points are exactly collinear. The sign is always
// exact; the magnitude only approximates twice the triangle area.
//
// The naive determinant is returned when it clears a forward error bound.
// Otherwise the determinant is re-derived as an exact floating-point
// expansion built from error-free products and sums.
func Orient(ax, ay, bx, by, cx, cy float64) float64 {
	detLeft := (ay - cy) * (bx - cx)
	detRight := (ax - cx) * (by - cy)
	det := detLeft - detRight

	var detSum float64
	switch {
	case detLeft > 0:
		if detRight <= 0 {
			return det
		}
		detSum = detLeft + detRight
	case detLeft < 0:
		if detRight >= 0 {
			return det
		}
		detSum = -detLeft - detRight
	default:
		return det
	}

	if math.Abs(det) >= orientErrBound*detSum {
		return det
	}
	return orientExact(ax, ay, bx, by, cx, cy)
}

// OrientSign returns -1, 0 or +1 according to the sign of Orient.
func OrientSign(ax, ay, bx, by, cx, cy float64) int {
	d := Orient(ax, ay, bx, by, cx, cy)
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}

// OrientPoints is Orient over Points.
func OrientPoints(a, b, c Point) float64 {
	return Orient(a.X, a.Y, b.X, b.Y, c.X, c.Y)
}

// orientExact expands the determinant into six products with the shared
// c.x*c.y terms cancelled:
//
//	ay*bx - ax*by + ax*cy - ay*cx + by*cx - bx*cy
//
// Each product is split exactly into a head and tail, and all twelve terms
// are accumulated into a non-overlapping expansion. The most significant
// non-zero component of that expansion carries the sign of the exact sum.
func orientExact(ax, ay, bx, by, cx, cy float64) float64 {
	var terms [12]float64
	terms[0], terms[1] = twoProduct(ay, bx)
	terms[2], terms[3] = twoProduct(-ax, by)
	terms[4], terms[5] = twoProduct(ax, cy)
	terms[6], terms[7] = twoProduct(-ay, cx)
	terms[8], terms[9] = twoProduct(by, cx)
	terms[10], terms[11] = twoProduct(-bx, cy)

	expansion := make([]float64, 0, len(terms)+1)
	for _, t := range terms {
		expansion = growExpansion(expansion, t)
	}

	for i := len(expansion) - 1; i >= 0; i-- {
		if expansion[i] != 0 {
			return expansion[i]
		}
	}
	return 0
}

// twoProduct returns p = fl(a*b) and the exact rounding error e, so that
// a*b = p + e exactly.
func twoProduct(a, b float64) (p, e float64) {
	p = a * b
	e = math.FMA(a, b, -p)
	return p, e
}

// twoSum returns s = fl(a+b) and the exact rounding error e (Knuth).
func twoSum(a, b float64) (s, e float64) {
	s = a + b
	bv := s - a
	av := s - bv
	br := b - bv
	ar := a - av
	return s, ar + br
}

// growExpansion adds b to the non-overlapping expansion e (components in
// increasing magnitude) and returns the grown expansion. Zero components
// are dropped.
func growExpansion(e []float64, b float64) []float64 {
	q := b
	out := e[:0]
	for _, component := range e {
		var h float64
		q, h = twoSum(q, component)
		if h != 0 {
			out = append(out, h)
		}
	}
	if q != 0 {
		out = append(out, q)
	}
	return out
}
