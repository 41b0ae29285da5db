package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazeline-go/gazeline-go"
	"github.com/gazeline-go/gazeline-go/internal/testutil"
)

// TestLongSessionBounded reads fifty lines through a small buffer and checks
// that trimming never loses events or upsets the cursors.
func TestLongSessionBounded(t *testing.T) {
	// Given
	var events []gazeline.LineAdvanceEvent
	p := gazeline.Builder().
		WithCapacity(200).
		OnLineAdvance(func(ev gazeline.LineAdvanceEvent) { events = append(events, ev) }).
		Build()

	// When
	for line := 1; line <= 50; line++ {
		testutil.FeedDwellSweep(t, p, int64(line-1)*660, line)
	}

	// Then every sweep fired despite the buffer wrapping many times.
	require.Len(t, events, 50)
	for i, ev := range events {
		assert.Equal(t, i, ev.Line)
		assert.Equal(t, int64(i)*660+231, ev.Time)
	}

	m := p.Metrics()
	assert.Equal(t, uint64(400), m.Ingested)
	assert.Equal(t, 200, m.Buffered)
	assert.Equal(t, uint64(200), m.Trimmed)
	assert.Equal(t, uint64(50), m.Events)
	assert.Equal(t, uint(50), m.SweepCount)
	assert.Equal(t, 0.0, m.DropoutRate)
	assert.Equal(t, 33.0, m.JitterMs)
	assert.Less(t, m.FastestSweep, gazeline.DefaultValleyDepth)
	assert.Less(t, m.MedianSweep, gazeline.DefaultValleyDepth)

	assert.Len(t, p.Samples(0), 200)
	assert.Len(t, p.EventLog(), 50)
}
