// Package geom holds the planar primitives shared by the thermal pipeline:
// a robust orientation predicate, vector helpers, polygon tests and convex
// hulls. Coordinates are sensor pixels with y growing downward.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in sensor-pixel space.
type Point = r2.Vec

// Vec is a direction or delta in sensor-pixel space.
type Vec = r2.Vec

// Pt is shorthand for building a Point.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func Add(a, b Vec) Vec { return r2.Add(a, b) }

func Sub(a, b Vec) Vec { return r2.Sub(a, b) }

func Scale(v Vec, k float64) Vec { return r2.Scale(k, v) }

// Magnitude returns the Euclidean length of v.
func Magnitude(v Vec) float64 { return r2.Norm(v) }

// Normalise returns v scaled to unit length. The second result is false when
// v has zero (or non-finite) length, in which case the zero vector is
// returned instead of a NaN vector.
func Normalise(v Vec) (Vec, bool) {
	m := r2.Norm(v)
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return Vec{}, false
	}
	return r2.Scale(1/m, v), true
}

// Perp rotates v by +90°.
func Perp(v Vec) Vec { return Vec{X: -v.Y, Y: v.X} }

func DistanceSquared(a, b Point) float64 { return r2.Norm2(r2.Sub(a, b)) }

func Distance(a, b Point) float64 { return r2.Norm(r2.Sub(a, b)) }

// Lerp returns the point a fraction t of the way from a to b.
func Lerp(a, b Point, t float64) Point {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point { return Lerp(a, b, 0.5) }

// ClosestPoint returns the member of points nearest to target. It reports
// false for an empty set. Ties keep the earliest point.
func ClosestPoint(points []Point, target Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	best := points[0]
	bestD := DistanceSquared(best, target)
	for _, p := range points[1:] {
		if d := DistanceSquared(p, target); d < bestD {
			best, bestD = p, d
		}
	}
	return best, true
}
