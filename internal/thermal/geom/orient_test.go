package geom

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// exactOrientSign evaluates the determinant in rational arithmetic.
func exactOrientSign(ax, ay, bx, by, cx, cy float64) int {
	r := func(v float64) *big.Rat { return new(big.Rat).SetFloat64(v) }
	left := new(big.Rat).Mul(new(big.Rat).Sub(r(ay), r(cy)), new(big.Rat).Sub(r(bx), r(cx)))
	right := new(big.Rat).Mul(new(big.Rat).Sub(r(ax), r(cx)), new(big.Rat).Sub(r(by), r(cy)))
	return new(big.Rat).Sub(left, right).Sign()
}

func TestOrient_SimpleTurns(t *testing.T) {
	t.Parallel()

	// y grows downward: (0,0) → (1,0) → (0,1) turns clockwise on screen.
	assert.Equal(t, -1, OrientSign(0, 0, 1, 0, 0, 1))
	assert.Equal(t, 1, OrientSign(0, 0, 0, 1, 1, 0))
	assert.Equal(t, 0, OrientSign(0, 0, 1, 1, 2, 2))
	assert.Equal(t, 0, OrientSign(3, 3, 3, 3, 3, 3))
}

func TestOrient_NearCollinear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                   string
		ax, ay, bx, by, cx, cy float64
	}{
		{"large offsets", 0, 0, 1e10, 1, 2e10, 2 + 1e-9},
		{"tiny skew", 0.5, 0.5, 12, 12, 24, 24.000000000000004},
		{"shifted diagonal", 1e-8, 1e-8, 0.5 + 1e-16, 0.5, 1, 1},
		{"pixel grid", 119.5, 159.5, 0.5, 0.5, 60, 80.00000000000001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := exactOrientSign(tc.ax, tc.ay, tc.bx, tc.by, tc.cx, tc.cy)
			got := OrientSign(tc.ax, tc.ay, tc.bx, tc.by, tc.cx, tc.cy)
			assert.Equal(t, want, got)
		})
	}
}

func TestOrient_MatchesRationalReference(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	disagreements := 0
	for i := 0; i < 20000; i++ {
		ax, ay := rng.Float64()*160, rng.Float64()*160
		bx, by := rng.Float64()*160, rng.Float64()*160
		// Place c on the line a→b, then nudge it by a few ulps.
		t0 := rng.Float64()*4 - 1.5
		cx := ax + t0*(bx-ax)
		cy := ay + t0*(by-ay)
		for n := rng.Intn(3); n > 0; n-- {
			cx = math.Nextafter(cx, math.Inf(1))
		}
		for n := rng.Intn(3); n > 0; n-- {
			cy = math.Nextafter(cy, math.Inf(-1))
		}

		naive := (ay-cy)*(bx-cx) - (ax-cx)*(by-cy)
		want := exactOrientSign(ax, ay, bx, by, cx, cy)
		if sign(naive) != want {
			disagreements++
		}
		if got := OrientSign(ax, ay, bx, by, cx, cy); got != want {
			t.Fatalf("orient(%v,%v,%v,%v,%v,%v) = %d, want %d", ax, ay, bx, by, cx, cy, got, want)
		}
	}
	t.Logf("naive determinant had the wrong sign in %d cases", disagreements)
}

func TestOrient_ExactPathAgreesWithFastPath(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		ax, ay := rng.NormFloat64()*50, rng.NormFloat64()*50
		bx, by := rng.NormFloat64()*50, rng.NormFloat64()*50
		cx, cy := rng.NormFloat64()*50, rng.NormFloat64()*50
		assert.Equal(t,
			sign(Orient(ax, ay, bx, by, cx, cy)),
			sign(orientExact(ax, ay, bx, by, cx, cy)))
	}
}

func TestTwoProduct_IsExact(t *testing.T) {
	t.Parallel()

	a, b := 1.0+math.Pow(2, -30), 1.0-math.Pow(2, -30)
	p, e := twoProduct(a, b)
	want := new(big.Rat).Mul(new(big.Rat).SetFloat64(a), new(big.Rat).SetFloat64(b))
	got := new(big.Rat).Add(new(big.Rat).SetFloat64(p), new(big.Rat).SetFloat64(e))
	assert.Zero(t, want.Cmp(got))
	assert.NotZero(t, e)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
