package gazeline

import "github.com/bits-and-blooms/bitset"

// signalStats tracks gaze signal quality over a sliding window of the most
// recent ingested samples, recording each as tracked or dropped. A dropout is
// a sample whose raw coordinates were missing on arrival, before
// interpolation fills them in.
//
// This type is not concurrency safe and must be guarded externally.
type signalStats struct {
	bitSet *bitset.BitSet
	size   uint

	// Index to write the next entry to
	nextIndex uint
	occupied  uint
	dropouts  uint
}

func newSignalStats(size uint) *signalStats {
	return &signalStats{
		bitSet: bitset.New(size),
		size:   size,
	}
}

func (s *signalStats) recordTracked() {
	s.setNext(false)
}

func (s *signalStats) recordDropout() {
	s.setNext(true)
}

// setNext sets the value of the next bit in the bitset, removing the entry it
// overwrites from the running dropout count once the window is full.
func (s *signalStats) setNext(dropout bool) {
	if s.occupied < s.size {
		s.occupied++
	} else if s.bitSet.Test(s.nextIndex) {
		s.dropouts--
	}
	s.bitSet.SetTo(s.nextIndex, dropout)
	if dropout {
		s.dropouts++
	}
	s.nextIndex = (s.nextIndex + 1) % s.size
}

func (s *signalStats) sampleCount() uint {
	return s.occupied
}

func (s *signalStats) dropoutCount() uint {
	return s.dropouts
}

// dropoutRate returns the fraction of windowed samples that were dropouts,
// or 0 for an empty window.
func (s *signalStats) dropoutRate() float64 {
	if s.occupied == 0 {
		return 0
	}
	return float64(s.dropouts) / float64(s.occupied)
}

func (s *signalStats) reset() {
	s.bitSet.ClearAll()
	s.nextIndex = 0
	s.occupied = 0
	s.dropouts = 0
}
