package shape

// RawShape is a connected region as extracted from a mask. Rows[i] holds
// the spans of row Y0+i in ascending column order.
type RawShape struct {
	Y0   int
	Rows [][]Span
}

// Each calls fn for every span, top to bottom and left to right.
func (r RawShape) Each(fn func(Span)) {
	for _, row := range r.Rows {
		for _, s := range row {
			fn(s)
		}
	}
}

// Area returns the number of pixels in the region.
func (r RawShape) Area() int {
	n := 0
	r.Each(func(s Span) { n += s.Width() })
	return n
}

// Solidify collapses each row into one span from the leftmost start to the
// rightmost end. Interior horizontal gaps are filled.
func (r RawShape) Solidify() Shape {
	out := make(Shape, 0, len(r.Rows))
	for _, row := range r.Rows {
		if len(row) == 0 {
			continue
		}
		s := row[0]
		for _, o := range row[1:] {
			s = s.Union(o)
		}
		out = append(out, s)
	}
	return out
}

// SolidifyAll solidifies every raw shape.
func SolidifyAll(raw []RawShape) []Shape {
	out := make([]Shape, len(raw))
	for i, r := range raw {
		out[i] = r.Solidify()
	}
	return out
}

// Extract returns the 4-connected regions of mask pixels with bit set.
//
// The mask is run-length encoded row by row. Each span is linked to the
// overlapping spans of the previous row with a two-pointer sweep, then the
// links are resolved with a disjoint set. Regions are ordered by their
// first row, then first column.
func Extract(mask []uint8, width, height int, bit uint8) []RawShape {
	if width <= 0 || height <= 0 || len(mask) < width*height {
		return nil
	}

	// Phase 1: spans and overlap links.
	var spans []Span
	var links [][2]int
	prevStart, prevEnd := 0, 0
	for y := 0; y < height; y++ {
		rowStart := len(spans)
		row := mask[y*width : (y+1)*width]
		for x := 0; x < width; {
			if row[x]&bit == 0 {
				x++
				continue
			}
			x0 := x
			for x < width && row[x]&bit != 0 {
				x++
			}
			spans = append(spans, Span{X0: x0, X1: x, Y: y})
		}
		rowEnd := len(spans)

		j := prevStart
		for i := rowStart; i < rowEnd; i++ {
			cur := spans[i]
			for j < prevEnd && spans[j].X1 <= cur.X0 {
				j++
			}
			for k := j; k < prevEnd && spans[k].X0 < cur.X1; k++ {
				links = append(links, [2]int{k, i})
			}
		}
		prevStart, prevEnd = rowStart, rowEnd
	}

	// Phase 2: union.
	ds := newDisjointSet(len(spans))
	for _, l := range links {
		ds.union(l[0], l[1])
	}

	// Spans are visited in scan order, so the first span of each root fixes
	// the output order.
	index := make(map[int]int)
	var out []RawShape
	for i, s := range spans {
		root := ds.find(i)
		n, ok := index[root]
		if !ok {
			n = len(out)
			index[root] = n
			out = append(out, RawShape{Y0: s.Y})
		}
		r := &out[n]
		rowIdx := s.Y - r.Y0
		for len(r.Rows) <= rowIdx {
			r.Rows = append(r.Rows, nil)
		}
		r.Rows[rowIdx] = append(r.Rows[rowIdx], s)
	}
	return out
}

// disjointSet is a union-find forest with path halving and union by size.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if d.size[ra] < d.size[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	d.size[ra] += d.size[rb]
}
