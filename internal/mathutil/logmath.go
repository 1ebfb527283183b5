package mathutil

import "math"

// LogZero represents log(0), used as negative infinity in log-domain arithmetic.
const LogZero = -1e30

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way.
// The smaller value is skipped when it contributes less than float64
// precision (exp(-36) ≈ 2.3e-16).
func LogAdd(a, b float64) float64 {
	if a > b {
		if b == LogZero {
			return a
		}
		d := b - a
		if d < -36.0 {
			return a
		}
		return a + math.Log1p(math.Exp(d))
	}
	if a == LogZero {
		return b
	}
	d := a - b
	if d < -36.0 {
		return b
	}
	return b + math.Log1p(math.Exp(d))
}

// Log10 returns log10(x), or LogZero when x is not positive.
func Log10(x float64) float64 {
	if x <= 0 {
		return LogZero
	}
	return math.Log10(x)
}

// Lerp returns gamma*a + (1-gamma)*b.
func Lerp(a, b, gamma float64) float64 {
	return gamma*a + (1.0-gamma)*b
}

// LerpVec stores gamma*a + (1-gamma)*b in dst. All slices must have the same length.
func LerpVec(dst, a, b []float64, gamma float64) {
	for i := range dst {
		dst[i] = gamma*a[i] + (1.0-gamma)*b[i]
	}
}
