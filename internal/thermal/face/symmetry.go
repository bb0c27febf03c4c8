package face

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type symmetryResult struct {
	score    float64
	areaDiff float64
	halfway  float64
	headLock float64
}

// symmetry compares the normalised left and right reaches over the lower
// half of the march. Hair above that skews the profile and is ignored.
func (r *Reconstructor) symmetry(m marchResult) symmetryResult {
	half := m.steps / 2
	var res symmetryResult
	for i := 0; i < half; i++ {
		res.score += math.Abs(ratio(m.left[i], m.maxLeft) - ratio(m.right[i], m.maxRight))
	}
	res.areaDiff = math.Abs(floats.Sum(m.left[:half]) - floats.Sum(m.right[:half]))

	res.halfway = 0.5
	if l, rr := m.left[half], m.right[half]; l+rr > 0 {
		res.halfway = l / (l + rr)
	}

	res.headLock = r.headLock(m, res)
	return res
}

func ratio(v, of float64) float64 {
	if of == 0 {
		return 0
	}
	return v / of
}

// headLock rates how front-on the head is. The tilt check compares the
// last march step reached on each side.
func (r *Reconstructor) headLock(m marchResult, s symmetryResult) float64 {
	tilt := math.Abs(float64(m.lastLeft - m.lastRight))
	switch {
	case tilt > r.cfg.HeadTiltMax:
		return 0
	case s.score < r.cfg.SymmetryLock,
		s.score < r.cfg.SymmetryLoose && s.areaDiff < r.cfg.AreaDiffLimit,
		s.halfway >= r.cfg.HalfwayMin && s.halfway <= r.cfg.HalfwayMax:
		return 1
	case s.areaDiff >= r.cfg.AreaDiffLimit:
		return 0.5
	}
	return 0
}
