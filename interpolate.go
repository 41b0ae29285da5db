package gazeline

import (
	"github.com/gazeline-go/gazeline-go/internal/util"
)

// missing reports whether a position is a sensor dropout: a non-finite
// coordinate, or the (0, 0) sentinel some sensors emit when the gaze is lost.
func missing(x, y float64) bool {
	return !util.IsFinite(x) || !util.IsFinite(y) || (x == 0 && y == 0)
}

// interpolateGaps fills the positions of dropout samples in samples[from:]
// by linear interpolation, by time ratio, between the nearest non-dropout
// neighbors. A dropout with a valid neighbor on one side only holds that
// neighbor's position rather than extrapolating past the edge. A dropout
// with no valid neighbor on either side is left as reported.
//
// Dropout samples are recomputed on every pass that covers them, so a
// one-sided hold written while the gap was still open is replaced by the
// two-sided interpolation once a forward neighbor arrives. A hold older
// than the reprocessed range keeps its value.
func interpolateGaps(samples []Sample, from int) {
	for i := from; i < len(samples); i++ {
		s := &samples[i]
		if !s.Dropout {
			continue
		}
		prev := prevValid(samples, i)
		next := nextValid(samples, i)
		switch {
		case prev >= 0 && next >= 0:
			p, n := &samples[prev], &samples[next]
			ratio := 0.5
			if n.Time != p.Time {
				ratio = float64(s.Time-p.Time) / float64(n.Time-p.Time)
			}
			s.X = util.Lerp(p.X, n.X, ratio)
			s.Y = util.Lerp(p.Y, n.Y, ratio)
		case prev >= 0:
			s.X, s.Y = samples[prev].X, samples[prev].Y
		case next >= 0:
			s.X, s.Y = samples[next].X, samples[next].Y
		}
	}
}

func prevValid(samples []Sample, i int) int {
	for j := i - 1; j >= 0; j-- {
		if !samples[j].Dropout {
			return j
		}
	}
	return -1
}

func nextValid(samples []Sample, i int) int {
	for j := i + 1; j < len(samples); j++ {
		if !samples[j].Dropout {
			return j
		}
	}
	return -1
}
