package gazeline

// sweepDetector recognizes return sweeps: the position-peak to velocity-valley
// cascade of a gaze finishing one reading line and jumping back to the start
// of the next. A candidate cascade passes timing gates and reading-position
// guards before an event fires, so ordinary within-line saccades stay silent.
//
// This type is not concurrency safe and must be guarded externally.
type sweepDetector struct {
	valleyDepth   float64
	cascadeWindow int64
	cooldown      int64
	pendingWait   int64

	// Mutable state
	firstContentTime int64
	lastPeakTime     int64
	lastEventTime    int64
	maxLine          int
	pending          *pendingSweep
}

// pendingSweep is a qualifying sweep held while the reading position is
// unknown, waiting for line context to arrive.
type pendingSweep struct {
	time     int64
	velocity float64
}

func newSweepDetector(c *processorConfig) *sweepDetector {
	d := &sweepDetector{
		valleyDepth:   c.valleyDepth,
		cascadeWindow: c.cascadeWindow.Milliseconds(),
		cooldown:      c.cooldown.Milliseconds(),
		pendingWait:   c.pendingWait.Milliseconds(),
	}
	d.resetUnit()
	return d
}

// resetUnit clears the transient guard state for a new content unit: the peak
// and refractory timers, any pending sweep, and the monotonic line floor. The
// content gate stays in place.
// Requires external locking.
func (d *sweepDetector) resetUnit() {
	d.lastPeakTime = 0
	d.lastEventTime = -1
	d.maxLine = -1
	d.pending = nil
}

// reset additionally clears the content gate, for a full session reset.
// Requires external locking.
func (d *sweepDetector) reset() {
	d.resetUnit()
	d.firstContentTime = 0
}

// observe inspects the newest processed sample and returns the event it
// fired, if any. samples[i] and its predecessors must already carry smoothed
// values.
// Requires external locking.
func (d *sweepDetector) observe(samples []Sample, i int) *LineAdvanceEvent {
	if ev := d.resolvePending(samples, i); ev != nil {
		return ev
	}
	if i < 2 {
		return nil
	}
	s0, s1, s2 := &samples[i], &samples[i-1], &samples[i-2]

	// Position-peak candidate: a 3-point local maximum, or a velocity sign
	// change for the plateau peaks the 3-point test misses. Recorded before
	// the gates so a later valley can still pair with it.
	if (s1.GX >= s2.GX && s1.GX > s0.GX) || (s1.VX >= 0 && s0.VX < 0) {
		d.lastPeakTime = s1.Time
	}

	// Velocity-valley candidate with a minimum depth, so jitter alone cannot
	// trigger.
	if !(s2.VX > s1.VX && s1.VX < s0.VX && s1.VX < d.valleyDepth) {
		return nil
	}

	// Content and refractory gates.
	if s0.Time < d.firstContentTime {
		return nil
	}
	if d.lastEventTime >= 0 && s0.Time-d.lastEventTime < d.cooldown {
		return nil
	}

	// The valley must pair with a recent peak, not an unrelated dip.
	elapsed := s1.Time - d.lastPeakTime
	if elapsed < 0 {
		elapsed = -elapsed
	}
	if elapsed >= d.cascadeWindow {
		return nil
	}

	// Reading-position guards. With no line context the sweep is held as
	// pending until a line arrives or the wait expires. Line 0 never fires
	// since no line precedes the first, and lines at or below the floor are
	// re-sweeps of ground already covered.
	if s0.Line == nil {
		d.pending = &pendingSweep{time: s0.Time, velocity: s1.VX}
		return nil
	}
	line := *s0.Line
	if line == 0 || line <= d.maxLine {
		return nil
	}
	return d.fire(s0, line, TriggerCascade, s1.VX)
}

// resolvePending fires a held sweep once a sample carries a line that differs
// from its predecessor's, the rising edge out of the context-less gap. An
// expired pending sweep is dropped silently.
// Requires external locking.
func (d *sweepDetector) resolvePending(samples []Sample, i int) *LineAdvanceEvent {
	if d.pending == nil {
		return nil
	}
	s := &samples[i]
	if s.Time-d.pending.time >= d.pendingWait {
		d.pending = nil
		return nil
	}
	if s.Line == nil || i == 0 {
		return nil
	}
	if prev := samples[i-1].Line; prev != nil && *prev == *s.Line {
		return nil
	}
	p := d.pending
	d.pending = nil
	line := *s.Line
	if line == 0 || line <= d.maxLine {
		return nil
	}
	if d.lastEventTime >= 0 && s.Time-d.lastEventTime < d.cooldown {
		return nil
	}
	return d.fire(s, line, TriggerPending, p.velocity)
}

// fire emits the event for the line just completed, advances the monotonic
// line floor, and starts the refractory period.
// Requires external locking.
func (d *sweepDetector) fire(s *Sample, line int, kind TriggerKind, velocity float64) *LineAdvanceEvent {
	d.lastEventTime = s.Time
	d.maxLine = line
	d.lastPeakTime = 0
	s.Fired = true
	return &LineAdvanceEvent{
		Time:     s.Time,
		Line:     max(line-1, 0),
		Trigger:  kind,
		Velocity: velocity,
	}
}
