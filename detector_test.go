package gazeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorFiresOnCascade(t *testing.T) {
	d := newTestDetector()
	samples := sweepPattern(0, Ptr(1))

	events := drive(d, samples)

	require.Len(t, events, 1)
	assert.Equal(t, int64(132), events[0].Time)
	assert.Equal(t, 0, events[0].Line)
	assert.Equal(t, TriggerCascade, events[0].Trigger)
	assert.Equal(t, -2.4, events[0].Velocity)
	assert.True(t, samples[4].Fired)
	assert.Equal(t, 1, d.maxLine)
	assert.Equal(t, int64(132), d.lastEventTime)
	assert.Equal(t, int64(0), d.lastPeakTime)
}

func TestDetectorPlateauPeak(t *testing.T) {
	// The smoothed position never forms a 3-point maximum, but velocity
	// crossing from zero to negative still records the peak.
	samples := []Sample{
		{Time: 0, GX: 200, VX: 0.1, Processed: true, Line: Ptr(1)},
		{Time: 33, GX: 195, VX: 0, Processed: true, Line: Ptr(1)},
		{Time: 66, GX: 195, VX: -0.5, Processed: true, Line: Ptr(1)},
		{Time: 99, GX: 195, VX: -0.2, Processed: true, Line: Ptr(1)},
	}
	d := newTestDetector()

	events := drive(d, samples)

	require.Len(t, events, 1)
	assert.Equal(t, int64(99), events[0].Time)
	assert.Equal(t, -0.5, events[0].Velocity)
}

func TestDetectorValleyDepth(t *testing.T) {
	samples := sweepPattern(0, Ptr(1))
	samples[3].VX = -0.35
	samples[4].VX = -0.1

	t.Run("shallow valley does not fire", func(t *testing.T) {
		d := newTestDetector()
		assert.Empty(t, drive(d, samples))
	})

	t.Run("configured depth admits it", func(t *testing.T) {
		d := newSweepDetector(Builder().WithValleyDepth(-0.3).(*processorConfig))
		events := drive(d, samples)
		require.Len(t, events, 1)
		assert.Equal(t, -0.35, events[0].Velocity)
	})
}

func TestDetectorLineZeroNeverFires(t *testing.T) {
	d := newTestDetector()
	assert.Empty(t, drive(d, sweepPattern(0, Ptr(0))))
}

func TestDetectorMonotonicLineGuard(t *testing.T) {
	d := newTestDetector()

	events := drive(d, sweepPattern(0, Ptr(2)))
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Line)

	// Re-sweeping the same or an earlier line stays silent.
	assert.Empty(t, drive(d, sweepPattern(660, Ptr(2))))
	assert.Empty(t, drive(d, sweepPattern(1320, Ptr(1))))

	events = drive(d, sweepPattern(1980, Ptr(3)))
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Line)
}

func TestDetectorCooldown(t *testing.T) {
	d := newTestDetector()

	require.Len(t, drive(d, sweepPattern(0, Ptr(1))), 1)

	// A second qualifying cascade 300 ms after the first event is rejected.
	assert.Empty(t, drive(d, sweepPattern(300, Ptr(2))))

	// Once the cooldown has passed it fires again.
	events := drive(d, sweepPattern(700, Ptr(2)))
	require.Len(t, events, 1)
	assert.Equal(t, int64(832), events[0].Time)
	assert.Equal(t, 1, events[0].Line)
}

func TestDetectorCascadeWindow(t *testing.T) {
	t.Run("valley too long after the peak does not fire", func(t *testing.T) {
		samples := []Sample{
			{Time: 0, GX: 100, VX: 0.5, Processed: true, Line: Ptr(1)},
			{Time: 33, GX: 150, VX: 0.5, Processed: true, Line: Ptr(1)},
			{Time: 66, GX: 200, VX: 0.5, Processed: true, Line: Ptr(1)},
			{Time: 99, GX: 190, VX: -0.1, Processed: true, Line: Ptr(1)},
			{Time: 400, GX: 180, VX: -0.1, Processed: true, Line: Ptr(1)},
			{Time: 700, GX: 100, VX: -2.0, Processed: true, Line: Ptr(1)},
			{Time: 733, GX: 60, VX: -1.0, Processed: true, Line: Ptr(1)},
		}
		d := newTestDetector()
		assert.Empty(t, drive(d, samples))
		assert.Equal(t, int64(66), d.lastPeakTime)
	})

	t.Run("valley within the window fires", func(t *testing.T) {
		samples := []Sample{
			{Time: 0, GX: 100, VX: 0.5, Processed: true, Line: Ptr(1)},
			{Time: 33, GX: 150, VX: 0.5, Processed: true, Line: Ptr(1)},
			{Time: 66, GX: 200, VX: 0.5, Processed: true, Line: Ptr(1)},
			{Time: 99, GX: 190, VX: -0.1, Processed: true, Line: Ptr(1)},
			{Time: 300, GX: 180, VX: -0.1, Processed: true, Line: Ptr(1)},
			{Time: 500, GX: 100, VX: -2.0, Processed: true, Line: Ptr(1)},
			{Time: 533, GX: 60, VX: -1.0, Processed: true, Line: Ptr(1)},
		}
		d := newTestDetector()
		events := drive(d, samples)
		require.Len(t, events, 1)
		assert.Equal(t, int64(533), events[0].Time)
	})
}

func TestDetectorContentGate(t *testing.T) {
	d := newTestDetector()
	d.firstContentTime = 200

	// The sweep completes before content was shown.
	assert.Empty(t, drive(d, sweepPattern(0, Ptr(1))))

	events := drive(d, sweepPattern(660, Ptr(1)))
	require.Len(t, events, 1)
}

func TestDetectorPending(t *testing.T) {
	t.Run("queued when line is unknown", func(t *testing.T) {
		d := newTestDetector()
		assert.Empty(t, drive(d, sweepPattern(0, nil)))
		require.NotNil(t, d.pending)
		assert.Equal(t, int64(132), d.pending.time)
		assert.Equal(t, -2.4, d.pending.velocity)
	})

	t.Run("resolved on a line edge", func(t *testing.T) {
		d := newTestDetector()
		drive(d, sweepPattern(0, nil))

		resolution := []Sample{
			{Time: 132, Processed: true},
			{Time: 165, Processed: true, Line: Ptr(1)},
		}
		events := drive(d, resolution)

		require.Len(t, events, 1)
		assert.Equal(t, int64(165), events[0].Time)
		assert.Equal(t, 0, events[0].Line)
		assert.Equal(t, TriggerPending, events[0].Trigger)
		assert.Equal(t, -2.4, events[0].Velocity)
		assert.True(t, resolution[1].Fired)
		assert.Nil(t, d.pending)
	})

	t.Run("expired pending is dropped silently", func(t *testing.T) {
		d := newTestDetector()
		drive(d, sweepPattern(0, nil))

		late := []Sample{{Time: 1200, Processed: true, Line: Ptr(1)}}
		assert.Empty(t, drive(d, late))
		assert.Nil(t, d.pending)
	})

	t.Run("no resolution without an edge", func(t *testing.T) {
		d := newTestDetector()
		drive(d, sweepPattern(0, nil))

		flat := []Sample{
			{Time: 132, Processed: true, Line: Ptr(1)},
			{Time: 165, Processed: true, Line: Ptr(1)},
		}
		assert.Empty(t, drive(d, flat))
		assert.NotNil(t, d.pending)
	})

	t.Run("line guards apply on resolution", func(t *testing.T) {
		d := newTestDetector()
		drive(d, sweepPattern(0, nil))

		resolution := []Sample{
			{Time: 132, Processed: true},
			{Time: 165, Processed: true, Line: Ptr(0)},
		}
		assert.Empty(t, drive(d, resolution))
		// Consumed even though the guard rejected it.
		assert.Nil(t, d.pending)
	})

	t.Run("newer sweep replaces the pending one", func(t *testing.T) {
		d := newTestDetector()
		drive(d, sweepPattern(0, nil))
		drive(d, sweepPattern(660, nil))
		require.NotNil(t, d.pending)
		assert.Equal(t, int64(792), d.pending.time)
	})
}

func TestDetectorResetUnit(t *testing.T) {
	d := newTestDetector()
	events := drive(d, sweepPattern(0, Ptr(5)))
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Line)
	assert.Equal(t, 5, d.maxLine)

	d.resetUnit()
	assert.Equal(t, -1, d.maxLine)
	assert.Equal(t, int64(-1), d.lastEventTime)
	assert.Nil(t, d.pending)

	// A lower line fires again because the guard floor was reset.
	events = drive(d, sweepPattern(660, Ptr(2)))
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Line)
}

func TestDetectorReset(t *testing.T) {
	d := newTestDetector()
	d.firstContentTime = 400
	drive(d, sweepPattern(0, Ptr(3)))

	d.reset()
	assert.Equal(t, int64(0), d.firstContentTime)
	assert.Equal(t, -1, d.maxLine)
	assert.Equal(t, int64(-1), d.lastEventTime)
}

func newTestDetector() *sweepDetector {
	return newSweepDetector(Builder().(*processorConfig))
}

// sweepPattern returns five processed samples that rise to a position peak
// and then sweep sharply left, annotated with the given line.
func sweepPattern(start int64, line *int) []Sample {
	return []Sample{
		{Time: start, GX: 100, VX: 0.5, Processed: true, Line: line},
		{Time: start + 33, GX: 150, VX: 0.5, Processed: true, Line: line},
		{Time: start + 66, GX: 200, VX: 0.5, Processed: true, Line: line},
		{Time: start + 99, GX: 120, VX: -2.4, Processed: true, Line: line},
		{Time: start + 132, GX: 40, VX: -1.0, Processed: true, Line: line},
	}
}

func drive(d *sweepDetector, samples []Sample) []LineAdvanceEvent {
	var events []LineAdvanceEvent
	for i := range samples {
		if ev := d.observe(samples, i); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}
