// Package gazeline turns a raw eye tracker sample stream into a cleaned,
// smoothed gaze series and discrete line-advance events for reading
// interfaces. Samples are buffered with a bounded capacity, repaired by gap
// interpolation, smoothed with a fixed Gaussian kernel, differentiated into
// velocities, and scanned for the position-peak to velocity-valley cascade of
// a return sweep.
package gazeline

import (
	"errors"
	"log/slog"
	"time"
)

// ErrBufferUnusable is returned by Ingest when the sample buffer faulted and
// could not be reinitialized.
var ErrBufferUnusable = errors.New("sample buffer unusable")

const (
	// DefaultCapacity is the default maximum number of buffered samples,
	// about five minutes of signal at 30 Hz.
	DefaultCapacity = 9000

	// DefaultValleyDepth is the default leftward velocity, in position units
	// per millisecond, that a return sweep must fall below.
	DefaultValleyDepth = -0.4

	// DefaultCascadeWindow is the default window after a position peak within
	// which a velocity valley still pairs with it.
	DefaultCascadeWindow = 600 * time.Millisecond

	// DefaultCooldown is the default refractory period after a fired event.
	DefaultCooldown = 500 * time.Millisecond

	// DefaultPendingWait is the default time a sweep that is waiting for line
	// context stays resolvable.
	DefaultPendingWait = time.Second

	// DefaultQualityWindow is the default size of the signal-quality window,
	// about ten seconds of signal at 30 Hz.
	DefaultQualityWindow uint = 300
)

// Processor ingests a stream of gaze samples and maintains a bounded
// in-memory series of cleaned, smoothed samples together with the
// line-advance events detected in it.
//
// This type is concurrency safe.
type Processor interface {
	// Ingest appends one sensor sample to the series and runs the analysis
	// stages over the unprocessed tail. The first sample establishes the
	// session time origin; a sample timestamped before the origin resets the
	// origin and restarts the series. Missing coordinates are kept and
	// repaired by interpolation rather than rejected. Returns
	// ErrBufferUnusable only when the buffer faulted and could not be
	// reinitialized.
	Ingest(in Input) error

	// SetContext merges the non-nil fields of ctx into the persisted reading
	// context. Samples ingested afterwards carry the merged values.
	SetContext(ctx Context)

	// MarkContentShown gates detection to samples at or after the time of
	// the most recently ingested sample. Call it when readable content
	// appears, so sweeps over an earlier loading screen cannot fire.
	MarkContentShown()

	// ResetTriggers clears transient detection state and the event log for a
	// new content unit: the peak and refractory timers, any pending sweep,
	// and the monotonic line guard. Buffered samples, the time origin, and
	// cumulative metrics are preserved. The unit floor moves to the end of
	// the buffer so per-unit accessors exclude earlier content.
	ResetTriggers()

	// Reset restores the processor to its initial state and assigns a new
	// session ID. All samples, events, metrics, and the time origin are
	// discarded.
	Reset()

	// ClearBuffer discards buffered samples while keeping the time origin,
	// detection state, and cumulative metrics. Use it to release memory
	// between content units without restarting the session clock.
	ClearBuffer()

	// Subscribe registers a listener to be called synchronously for each
	// line-advance event. The returned function removes the listener.
	Subscribe(listener func(LineAdvanceEvent)) (cancel func())

	// Samples returns a copy of up to max of the most recent buffered
	// samples, oldest first. max <= 0 returns all buffered samples.
	Samples(max int) []Sample

	// UnitSamples is Samples restricted to the current content unit.
	UnitSamples(max int) []Sample

	// DrainNew returns a copy of the samples buffered since the previous
	// drain and advances the consumed cursor past them.
	DrainNew() []Sample

	// EventLog returns a copy of the events fired in the current content
	// unit, in firing order.
	EventLog() []LineAdvanceEvent

	// Metrics returns a snapshot of the session's health counters.
	Metrics() Metrics

	// SessionID returns the UUID assigned to the current session.
	SessionID() string
}

// Metrics is a point-in-time snapshot of a processor's health counters.
type Metrics struct {
	// Buffered is the number of samples currently held.
	Buffered int
	// Ingested is the total number of samples accepted this session.
	Ingested uint64
	// Trimmed is the total number of samples discarded by capacity trims.
	Trimmed uint64
	// Events is the total number of line-advance events fired this session.
	Events uint64
	// DropoutRate is the fraction of recent samples whose coordinates were
	// missing on arrival.
	DropoutRate float64
	// JitterMs is the median interval between recent samples, in
	// milliseconds, or 0 until enough samples have arrived.
	JitterMs float64
	// SweepCount is the number of sweep velocities recorded this session.
	SweepCount uint
	// FastestSweep is the most negative sweep velocity recorded, or 0 when
	// none has been.
	FastestSweep float64
	// MedianSweep is the estimated median sweep velocity, or 0 when none has
	// been recorded.
	MedianSweep float64
}

// ProcessorBuilder builds Processor instances.
//
// This type is not concurrency safe.
type ProcessorBuilder interface {
	// WithCapacity configures the maximum number of buffered samples before
	// the oldest tenth is trimmed.
	WithCapacity(capacity int) ProcessorBuilder

	// WithValleyDepth configures the leftward velocity a return sweep must
	// fall below, in position units per millisecond. Must be negative.
	WithValleyDepth(depth float64) ProcessorBuilder

	// WithCascadeWindow configures how long after a position peak a velocity
	// valley still pairs with it.
	WithCascadeWindow(window time.Duration) ProcessorBuilder

	// WithCooldown configures the refractory period after a fired event.
	WithCooldown(cooldown time.Duration) ProcessorBuilder

	// WithPendingWait configures how long a sweep that is waiting for line
	// context stays resolvable.
	WithPendingWait(wait time.Duration) ProcessorBuilder

	// WithQualityWindow configures how many recent samples the
	// signal-quality stats cover.
	WithQualityWindow(size uint) ProcessorBuilder

	// WithLogger configures a logger for diagnostics. A nil logger disables
	// logging.
	WithLogger(logger *slog.Logger) ProcessorBuilder

	// OnLineAdvance registers a listener to be called synchronously for each
	// line-advance event.
	OnLineAdvance(listener func(LineAdvanceEvent)) ProcessorBuilder

	// Build returns a new Processor using the builder's configuration.
	Build() Processor
}

type processorConfig struct {
	capacity      int
	valleyDepth   float64
	cascadeWindow time.Duration
	cooldown      time.Duration
	pendingWait   time.Duration
	qualityWindow uint
	logger        *slog.Logger
	listeners     []func(LineAdvanceEvent)
}

var _ ProcessorBuilder = &processorConfig{}

// OfDefaults returns a Processor with default settings.
func OfDefaults() Processor {
	return Builder().Build()
}

// Builder returns a ProcessorBuilder with default settings.
func Builder() ProcessorBuilder {
	return &processorConfig{
		capacity:      DefaultCapacity,
		valleyDepth:   DefaultValleyDepth,
		cascadeWindow: DefaultCascadeWindow,
		cooldown:      DefaultCooldown,
		pendingWait:   DefaultPendingWait,
		qualityWindow: DefaultQualityWindow,
	}
}

func (c *processorConfig) WithCapacity(capacity int) ProcessorBuilder {
	c.capacity = capacity
	return c
}

func (c *processorConfig) WithValleyDepth(depth float64) ProcessorBuilder {
	c.valleyDepth = depth
	return c
}

func (c *processorConfig) WithCascadeWindow(window time.Duration) ProcessorBuilder {
	c.cascadeWindow = window
	return c
}

func (c *processorConfig) WithCooldown(cooldown time.Duration) ProcessorBuilder {
	c.cooldown = cooldown
	return c
}

func (c *processorConfig) WithPendingWait(wait time.Duration) ProcessorBuilder {
	c.pendingWait = wait
	return c
}

func (c *processorConfig) WithQualityWindow(size uint) ProcessorBuilder {
	c.qualityWindow = size
	return c
}

func (c *processorConfig) WithLogger(logger *slog.Logger) ProcessorBuilder {
	c.logger = logger
	return c
}

func (c *processorConfig) OnLineAdvance(listener func(LineAdvanceEvent)) ProcessorBuilder {
	c.listeners = append(c.listeners, listener)
	return c
}

func (c *processorConfig) Build() Processor {
	return newProcessor(c)
}
