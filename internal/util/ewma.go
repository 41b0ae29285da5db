package util

// Ewma is an exponentially weighted moving average with an optional warmup
// period, during which a plain average is used instead of exponential decay.
//
// This type is not concurrency safe.
type Ewma struct {
	warmupSamples   uint8
	smoothingFactor float64

	// Mutable state
	count uint8
	value float64
	sum   float64
}

// NewEwma creates a new Ewma for the given age and warmupSamples. The age
// controls how far back the average effectively "remembers" - smaller ages
// adapt faster to recent values, while larger ages retain influence from
// older values longer. warmupSamples controls how many values must be added
// before exponential decay begins.
func NewEwma(age uint, warmupSamples uint8) *Ewma {
	return &Ewma{
		warmupSamples:   warmupSamples,
		smoothingFactor: 2 / (float64(age) + 1),
	}
}

// Add adds a value and returns the updated average. After warmup, the value
// decays via (oldValue * (1 - smoothingFactor)) + (newValue * smoothingFactor).
func (e *Ewma) Add(newValue float64) float64 {
	switch {
	case e.count < e.warmupSamples:
		e.count++
		e.sum += newValue
		e.value = e.sum / float64(e.count)
	default:
		e.value = Smooth(e.value, newValue, e.smoothingFactor)
	}
	return e.value
}

// Value returns the current average.
func (e *Ewma) Value() float64 {
	return e.value
}

// Reset clears the average and requires a new warmup if one was configured.
func (e *Ewma) Reset() {
	e.count = 0
	e.value = 0
	e.sum = 0
}
