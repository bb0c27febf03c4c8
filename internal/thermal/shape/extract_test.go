package shape

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// floodFill labels 4-connected components of pixels with bit set. Each
// component is returned as its sorted list of pixel indices.
func floodFill(mask []uint8, width, height int, bit uint8) [][]int {
	seen := make([]bool, len(mask))
	var comps [][]int
	for start := range mask {
		if seen[start] || mask[start]&bit == 0 {
			continue
		}
		var comp []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, p)
			x, y := p%width, p/width
			for _, n := range [][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= width || n[1] >= height {
					continue
				}
				q := n[1]*width + n[0]
				if !seen[q] && mask[q]&bit != 0 {
					seen[q] = true
					stack = append(stack, q)
				}
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}
	return comps
}

func rawPixels(r RawShape, width int) []int {
	var px []int
	r.Each(func(s Span) {
		for x := s.X0; x < s.X1; x++ {
			px = append(px, s.Y*width+x)
		}
	})
	slices.Sort(px)
	return px
}

func TestExtract_MatchesFloodFill(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 60; trial++ {
		width, height := 5+rng.Intn(40), 5+rng.Intn(40)
		density := 0.2 + rng.Float64()*0.5
		mask := make([]uint8, width*height)
		for i := range mask {
			var m uint8
			if rng.Float64() < density {
				m |= 1 << 0
			}
			if rng.Float64() < density {
				m |= 1 << 1
			}
			if rng.Float64() < density {
				m |= 1 << 2
			}
			mask[i] = m
		}

		for _, bit := range []uint8{1 << 0, 1 << 1, 1 << 2} {
			want := floodFill(mask, width, height, bit)
			raw := Extract(mask, width, height, bit)

			got := make([][]int, len(raw))
			for i, r := range raw {
				got[i] = rawPixels(r, width)
			}
			// Both lists are ordered by each component's first pixel.
			slices.SortFunc(want, func(a, b []int) int { return a[0] - b[0] })
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("trial %d bit %d: components mismatch (-flood +extract):\n%s", trial, bit, diff)
			}
		}
	}
}

func TestExtract_RowAdjacencyInvariant(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(9))
	width, height := 30, 30
	mask := make([]uint8, width*height)
	for i := range mask {
		if rng.Float64() < 0.55 {
			mask[i] = 1
		}
	}
	for _, r := range Extract(mask, width, height, 1) {
		for i := 1; i < len(r.Rows); i++ {
			require.NotEmpty(t, r.Rows[i])
			linked := false
			for _, a := range r.Rows[i-1] {
				for _, b := range r.Rows[i] {
					linked = linked || a.OverlapsX(b)
				}
			}
			assert.True(t, linked, "rows %d and %d of shape at y=%d are not linked", i-1, i, r.Y0)
		}
	}
}

func TestExtract_UShapeJoins(t *testing.T) {
	t.Parallel()

	// Two arms joined only at the bottom row.
	grid := []string{
		"#...#",
		"#...#",
		"#####",
	}
	width, height := 5, 3
	mask := make([]uint8, width*height)
	for y, row := range grid {
		for x, c := range row {
			if c == '#' {
				mask[y*width+x] = 1
			}
		}
	}
	raw := Extract(mask, width, height, 1)
	require.Len(t, raw, 1)
	assert.Equal(t, 0, raw[0].Y0)
	assert.Equal(t, 9, raw[0].Area())
	assert.Len(t, raw[0].Rows[0], 2)

	solid := raw[0].Solidify()
	assert.Equal(t, Shape{{X0: 0, X1: 5, Y: 0}, {X0: 0, X1: 5, Y: 1}, {X0: 0, X1: 5, Y: 2}}, solid)
}

func TestExtract_DiagonalIsNotConnected(t *testing.T) {
	t.Parallel()

	mask := []uint8{
		1, 0,
		0, 1,
	}
	raw := Extract(mask, 2, 2, 1)
	require.Len(t, raw, 2)
	assert.Equal(t, 0, raw[0].Y0)
	assert.Equal(t, 1, raw[1].Y0)
}

func TestExtract_InvalidInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Extract(nil, 4, 4, 1))
	assert.Nil(t, Extract(make([]uint8, 4), 0, 4, 1))
	assert.Empty(t, Extract(make([]uint8, 16), 4, 4, 1))
}
