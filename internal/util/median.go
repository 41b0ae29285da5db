package util

import (
	"slices"
)

// MedianFilter computes a running median over a fixed-size window of values.
// Until the window has filled, added values are returned unfiltered since a
// median over a partial window is not yet meaningful.
//
// This type is not concurrency safe.
type MedianFilter struct {
	values []float64
	sorted []float64
	index  int
	size   int
}

func NewMedianFilter(size int) *MedianFilter {
	return &MedianFilter{
		values: make([]float64, size),
		sorted: make([]float64, size),
	}
}

// Add adds a value to the window and returns the current median, else the
// value itself if the window is not yet full.
func (f *MedianFilter) Add(value float64) float64 {
	f.values[f.index] = value
	f.index = (f.index + 1) % len(f.values)

	if f.size < len(f.values) {
		f.size++
		if f.size < len(f.values) {
			return value
		}
	}

	copy(f.sorted, f.values)
	slices.Sort(f.sorted)
	return f.Median()
}

// Median returns the median of the current window, else 0 if the window is
// not yet full.
func (f *MedianFilter) Median() float64 {
	if f.size < len(f.values) {
		return 0
	}
	return f.sorted[len(f.sorted)/2]
}

// Reset clears the window.
func (f *MedianFilter) Reset() {
	f.index = 0
	f.size = 0
}
