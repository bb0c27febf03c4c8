package thermalref

// EdgeMap returns max(0, 4c - N - S - E - W - threshold) for every interior
// pixel. Border pixels are zero.
func EdgeMap(src []float32, width, height int, threshold float32) []float32 {
	out := make([]float32, width*height)
	for y := 1; y < height-1; y++ {
		row := y * width
		for x := 1; x < width-1; x++ {
			i := row + x
			v := 4*src[i] - src[i-width] - src[i+width] - src[i-1] - src[i+1] - threshold
			if v > 0 {
				out[i] = v
			}
		}
	}
	return out
}

type offset struct{ dx, dy int }

// window is a half-open pixel rectangle of accumulator cells.
type window struct{ x0, y0, x1, y1 int }

// midpointCircle returns the distinct outline offsets of a Bresenham
// midpoint circle of radius r.
func midpointCircle(r int) []offset {
	if r <= 0 {
		return []offset{{0, 0}}
	}
	seen := make(map[offset]struct{}, 8*r)
	var out []offset
	add := func(dx, dy int) {
		o := offset{dx, dy}
		if _, ok := seen[o]; ok {
			return
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	x, y := r, 0
	err := 1 - r
	for x >= y {
		add(x, y)
		add(y, x)
		add(-y, x)
		add(-x, y)
		add(-x, -y)
		add(-y, -x)
		add(y, -x)
		add(x, -y)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
	return out
}

func (d *Detector) circle(r int) []offset {
	if c, ok := d.circles[r]; ok {
		return c
	}
	return midpointCircle(r)
}

// vote accumulates weighted circle outlines of radius r centred on every
// edge pixel that can reach a cell of win. It returns the peak value and
// its cell. Ties keep the first cell in scan order.
func (d *Detector) vote(edges []float32, width, height, r int, win window) (peak float32, px, py int) {
	ww, wh := win.x1-win.x0, win.y1-win.y0
	if ww <= 0 || wh <= 0 {
		return 0, 0, 0
	}
	acc := make([]float32, ww*wh)
	circle := d.circle(r)

	for y := max(win.y0-r, 0); y < min(win.y1+r, height); y++ {
		for x := max(win.x0-r, 0); x < min(win.x1+r, width); x++ {
			e := edges[y*width+x]
			if e <= 0 {
				continue
			}
			for _, o := range circle {
				cx, cy := x+o.dx-win.x0, y+o.dy-win.y0
				if cx < 0 || cy < 0 || cx >= ww || cy >= wh {
					continue
				}
				acc[cy*ww+cx] += e
			}
		}
	}

	for i, v := range acc {
		if v > peak {
			peak = v
			px, py = win.x0+i%ww, win.y0+i/ww
		}
	}
	return peak, px, py
}
