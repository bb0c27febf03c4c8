// Package shape converts mask bitmaps into run-length silhouettes and
// provides the algebra the classifier and face reconstructor use on them.
package shape

// SpanFlags annotate spans for debugging. They never affect geometry.
type SpanFlags uint8

const (
	FlagWidest SpanFlags = 1 << iota
	FlagNarrowest
	FlagSynthetic
)

// Span is a run of set pixels on row Y covering columns [X0, X1).
type Span struct {
	X0, X1 int
	Y      int
	Flags  SpanFlags
}

func (s Span) Width() int { return s.X1 - s.X0 }

// Valid reports whether the span covers at least one pixel.
func (s Span) Valid() bool { return s.X0 < s.X1 }

// OverlapsX reports whether the column ranges of s and o intersect.
func (s Span) OverlapsX(o Span) bool { return s.X0 < o.X1 && o.X0 < s.X1 }

// Mid returns the horizontal centre of the span.
func (s Span) Mid() float64 { return float64(s.X0+s.X1) / 2 }

// Union returns the smallest span covering s and o, on the row of s.
func (s Span) Union(o Span) Span {
	return Span{X0: min(s.X0, o.X0), X1: max(s.X1, o.X1), Y: s.Y, Flags: s.Flags | o.Flags}
}
