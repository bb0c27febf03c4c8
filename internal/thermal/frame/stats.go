package frame

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ComputeStats returns min, max and an adaptive threshold of
// mean + sigma·stddev over values. Empty input yields zero stats.
func ComputeStats(values []float32, sigma float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return Stats{
		Min:       float32(floats.Min(xs)),
		Max:       float32(floats.Max(xs)),
		Threshold: float32(mean + sigma*std),
	}
}

// Zero reports whether all statistics are unset.
func (s Stats) Zero() bool {
	return s.Min == 0 && s.Max == 0 && s.Threshold == 0
}
