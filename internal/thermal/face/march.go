package face

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
)

// marchResult is the width profile of the head. left[i] and right[i] are
// the reaches at step i measured from the midline.
type marchResult struct {
	steps      int
	left       []float64
	right      []float64
	maxLeft    float64
	maxRight   float64
	widestStep int
	// lastLeft and lastRight are the final steps where each side still
	// touched the body.
	lastLeft, lastRight int
}

// march steps up the midline one pixel at a time and probes sideways at
// each step. It stops once the midline and both probes are outside body,
// or after the frame diagonal.
func (r *Reconstructor) march(body shape.Shape, b basis) marchResult {
	limit := int(math.Hypot(float64(r.cfg.Width), float64(r.cfg.Height)))
	var m marchResult
	for t := 0; t < limit; t++ {
		u := float64(neckOffset + t)
		l := r.probe(body, b, u, -1)
		rr := r.probe(body, b, u, 1)
		if l == 0 && rr == 0 && !body.ContainsPoint(b.at(u, 0)) {
			break
		}
		m.left = append(m.left, l)
		m.right = append(m.right, rr)
		if l > 0 {
			m.lastLeft = t
		}
		if rr > 0 {
			m.lastRight = t
		}
	}
	m.steps = len(m.left)
	if m.steps == 0 {
		return m
	}
	m.maxLeft = floats.Max(m.left)
	m.maxRight = floats.Max(m.right)

	widths := make([]float64, m.steps)
	floats.AddTo(widths, m.left, m.right)
	m.widestStep = floats.MaxIdx(widths)
	return m
}

// probe counts the contiguous in-body pixel centres from the midline at
// height u in direction side (-1 left, +1 right), up to ProbeReach.
func (r *Reconstructor) probe(body shape.Shape, b basis, u float64, side float64) float64 {
	n := 0
	for k := 0; k < r.cfg.ProbeReach; k++ {
		if !body.ContainsPoint(b.at(u, side*(float64(k)+0.5))) {
			break
		}
		n++
	}
	return float64(n)
}

// noseShift finds the coldest in-body pixel across the head at NoseHeight
// and returns its offset along the neck line. Equal temperatures resolve to
// the offset nearest the current midline.
func (r *Reconstructor) noseShift(body shape.Shape, fr *frame.Frame, b basis, m marchResult) (float64, bool) {
	u := float64(neckOffset) + r.cfg.NoseHeight*float64(m.steps)
	coldest := float32(math.MaxFloat32)
	shift, found := 0.0, false
	for k := -int(m.maxLeft); k < int(m.maxRight); k++ {
		v := float64(k) + 0.5
		p := b.at(u, v)
		if !body.ContainsPoint(p) {
			continue
		}
		x, y := int(p.X), int(p.Y)
		if !fr.In(x, y) {
			continue
		}
		t := fr.At(x, y)
		if t < coldest || (t == coldest && math.Abs(v) < math.Abs(shift)) {
			coldest, shift, found = t, v, true
		}
	}
	if !found {
		return 0, false
	}
	// Offsets are measured to pixel centres; the midline sits on an edge.
	if shift > 0 {
		shift -= 0.5
	} else {
		shift += 0.5
	}
	return shift, true
}
