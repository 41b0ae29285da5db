package gazeline

// sampleBuffer is a capacity-bounded, append-only store of session samples.
// When an append exceeds the capacity, the oldest tenth of the buffer is
// dropped in one batch and every cursor is shifted by the dropped count, so
// no cursor ever points before index 0 or skips unprocessed samples.
//
// This type is not concurrency safe and must be guarded externally.
type sampleBuffer struct {
	samples  []Sample
	capacity int

	// processedTo counts the samples already interpolated and smoothed.
	// consumedTo counts the samples already handed out by drain.
	// unitStart is the index where the current content unit begins.
	processedTo int
	consumedTo  int
	unitStart   int
}

func newSampleBuffer(capacity int) *sampleBuffer {
	return &sampleBuffer{
		samples:  make([]Sample, 0, 128),
		capacity: capacity,
	}
}

// add appends a sample, trimming the oldest tenth if the buffer exceeds its
// capacity, and returns the number of samples trimmed.
func (b *sampleBuffer) add(s Sample) (trimmed int) {
	b.samples = append(b.samples, s)
	if len(b.samples) > b.capacity {
		trimmed = b.trim()
	}
	return trimmed
}

// trim drops the oldest tenth of the buffer, at least one sample, and shifts
// all cursors by the dropped count.
func (b *sampleBuffer) trim() int {
	n := len(b.samples) / 10
	if n < 1 {
		n = 1
	}
	b.samples = b.samples[:copy(b.samples, b.samples[n:])]
	b.processedTo = max(b.processedTo-n, 0)
	b.consumedTo = max(b.consumedTo-n, 0)
	b.unitStart = max(b.unitStart-n, 0)
	return n
}

func (b *sampleBuffer) len() int {
	return len(b.samples)
}

// tail returns copies of the most recent max samples, else all samples if
// max is not positive or exceeds the buffer length.
func (b *sampleBuffer) tail(max int) []Sample {
	from := 0
	if max > 0 && max < len(b.samples) {
		from = len(b.samples) - max
	}
	out := make([]Sample, len(b.samples)-from)
	copy(out, b.samples[from:])
	return out
}

// unitTail returns copies of up to max of the most recent samples without
// reaching back past the start of the current content unit.
func (b *sampleBuffer) unitTail(max int) []Sample {
	from := b.unitStart
	if max > 0 && len(b.samples)-max > from {
		from = len(b.samples) - max
	}
	out := make([]Sample, len(b.samples)-from)
	copy(out, b.samples[from:])
	return out
}

// drain returns copies of the samples appended since the previous drain and
// advances the consumption cursor past them.
func (b *sampleBuffer) drain() []Sample {
	out := make([]Sample, len(b.samples)-b.consumedTo)
	copy(out, b.samples[b.consumedTo:])
	b.consumedTo = len(b.samples)
	return out
}

// startUnit moves the unit boundary to the current end of the buffer.
func (b *sampleBuffer) startUnit() {
	b.unitStart = len(b.samples)
}

// clear drops all buffered samples and rewinds every cursor. The session
// time origin is owned by the processor and is unaffected.
func (b *sampleBuffer) clear() {
	b.samples = b.samples[:0]
	b.processedTo = 0
	b.consumedTo = 0
	b.unitStart = 0
}
