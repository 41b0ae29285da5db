package util

// RollingTrend maintains a fixed-size window of values and computes the slope
// of the least-squares regression line through them, updated in O(1) per
// added value. A positive slope means the series is trending up.
//
// This type is not concurrency safe.
type RollingTrend struct {
	samples []float64
	index   int
	count   int
	sumY    float64
	sumXY   float64
}

func NewRollingTrend(windowSize int) *RollingTrend {
	return &RollingTrend{
		samples: make([]float64, windowSize),
	}
}

// Add adds a value to the window and returns the updated slope. Returns 0
// until at least two values have been added.
func (r *RollingTrend) Add(y float64) float64 {
	if r.count == len(r.samples) {
		// Remove the oldest value
		r.sumY -= r.samples[r.index]

		// Shift remaining values left via a telescoping series
		r.sumXY -= r.sumY

		// Add the new value at the end
		r.sumXY += float64(r.count-1) * y
	} else {
		r.sumXY += float64(r.count) * y
		r.count++
	}

	r.samples[r.index] = y
	r.sumY += y
	r.index = (r.index + 1) % len(r.samples)

	return r.Slope()
}

// Slope returns the current slope, else 0 if fewer than two values have been
// added.
func (r *RollingTrend) Slope() float64 {
	if r.count < 2 {
		return 0
	}

	// Least squares over the fixed x positions 0..count-1
	n := float64(r.count)
	sumX := n * (n - 1) / 2
	sumXSquared := n * (n - 1) * (2*n - 1) / 6
	return (n*r.sumXY - sumX*r.sumY) / (n*sumXSquared - sumX*sumX)
}

// Reset clears the window.
func (r *RollingTrend) Reset() {
	r.index = 0
	r.count = 0
	r.sumY = 0
	r.sumXY = 0
}
