package prob

import "math"

// Eps bounds probabilities away from 0 and 1 so logit stays finite.
const Eps = 1e-12

// Clamp01 clamps p into the open interval (0, 1).
func Clamp01(p float64) float64 {
	if p < Eps {
		return Eps
	}
	if p > 1.0-Eps {
		return 1.0 - Eps
	}
	return p
}

// Clamp clamps x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Logit returns ln(p/(1-p)) with p clamped into (0, 1).
func Logit(p float64) float64 {
	p = Clamp01(p)
	return math.Log(p / (1.0 - p))
}

// Sigmoid is the numerically stable inverse of Logit.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1.0 / (1.0 + z)
	}
	z := math.Exp(x)
	return z / (1.0 + z)
}
