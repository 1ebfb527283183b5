package mathutil

import (
	"math"
	"sort"
)

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// Median returns the median of xs without modifying it.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// Variance returns the population variance of xs.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	s := 0.0
	for _, x := range xs {
		d := x - m
		s += d * d
	}
	return s / float64(len(xs))
}

// Stdev returns the population standard deviation of xs.
func Stdev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// NPVI returns the normalized Pairwise Variability Index of successive
// values: 100/(n-1) * sum |d_k - d_{k+1}| / ((d_k + d_{k+1}) / 2).
// It is 0 when fewer than two values are given.
func NPVI(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s := 0.0
	for i := 0; i+1 < len(xs); i++ {
		den := (xs[i] + xs[i+1]) / 2.0
		if den == 0 {
			continue
		}
		s += math.Abs(xs[i]-xs[i+1]) / den
	}
	return 100.0 * s / float64(len(xs)-1)
}

// LinearRegression fits y = intercept + slope*x by least squares.
// With fewer than two points, or when all x are equal, the slope is 0 and
// the intercept is the mean of ys.
func LinearRegression(xs, ys []float64) (intercept, slope float64) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0, 0
	}
	mx := Mean(xs)
	my := Mean(ys)
	var sxy, sxx float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return my, 0
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	return intercept, slope
}
