package util

import "math"

// Smooth returns the exponentially weighted average of oldValue and newValue
// using the given smoothingFactor.
func Smooth(oldValue, newValue, smoothingFactor float64) float64 {
	return oldValue*(1-smoothingFactor) + newValue*smoothingFactor
}

// Lerp linearly interpolates between a and b by the ratio t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// IsFinite returns whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
