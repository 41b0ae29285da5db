package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gazeline-go/gazeline-go"
)

// SweepInputs returns a short forward drift followed by a fast leftward
// return, one sample per 33 ms from start.
func SweepInputs(start int64) []gazeline.Input {
	return inputs(start, []float64{100, 150, 200, 40, 35})
}

// DwellSweepInputs returns a right-margin dwell followed by a return
// sweep, the shape a reader produces between two consecutive lines.
func DwellSweepInputs(start int64) []gazeline.Input {
	return inputs(start, []float64{100, 150, 200, 198, 201, 197, 40, 35})
}

// FeedSweep ingests a sweep whose last two samples carry the given line
// annotation and whose lead-in carries the line above it.
func FeedSweep(t *testing.T, p gazeline.Processor, start int64, line int) {
	t.Helper()
	feed(t, p, SweepInputs(start), line)
}

// FeedDwellSweep ingests a dwell-then-sweep block annotated like FeedSweep.
func FeedDwellSweep(t *testing.T, p gazeline.Processor, start int64, line int) {
	t.Helper()
	feed(t, p, DwellSweepInputs(start), line)
}

func feed(t *testing.T, p gazeline.Processor, ins []gazeline.Input, line int) {
	for i, in := range ins {
		l := line - 1
		if i >= len(ins)-2 {
			l = line
		}
		p.SetContext(gazeline.Context{Line: gazeline.Ptr(l)})
		require.NoError(t, p.Ingest(in))
	}
}

func inputs(start int64, xs []float64) []gazeline.Input {
	ins := make([]gazeline.Input, len(xs))
	for i, x := range xs {
		ins[i] = gazeline.Input{Timestamp: start + int64(i)*33, X: x, Y: 50}
	}
	return ins
}
