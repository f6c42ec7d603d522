package scorer

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleStd returns the sample standard deviation (n-1 denominator). It is
// 0 when fewer than two values are given.
func SampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// ZScores standardizes xs as (x - mean) / (std + eps). A constant column
// (std exactly 0) standardizes to all zeros.
func ZScores(xs []float64, eps float64) (z []float64, mean, std float64) {
	z = make([]float64, len(xs))
	mean = Mean(xs)
	std = SampleStd(xs)
	if std == 0 {
		return z, mean, std
	}
	for i, x := range xs {
		z[i] = (x - mean) / (std + eps)
	}
	return z, mean, std
}

// Rescale maps xs linearly onto [0, 100] using the batch minimum and
// maximum. The minimum maps to exactly 0 and the maximum to exactly 100.
// When the spread is within eps every value maps to 0.
func Rescale(xs []float64, eps float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	span := hi - lo
	if span <= eps {
		return out
	}
	for i, x := range xs {
		v := (x - lo) / span * 100
		out[i] = math.Max(0, math.Min(100, v))
	}
	return out
}
