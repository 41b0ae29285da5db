// Package readingspeed maintains a words-per-minute estimate from the
// line-advance events a gaze processor fires. Updates run on a short timer
// after each event so the estimate never adds cost to the ingestion path.
package readingspeed

import (
	"log/slog"
	"time"

	"github.com/gazeline-go/gazeline-go"
)

const (
	// DefaultUpdateDelay is the default delay between a fired event and its
	// speed update.
	DefaultUpdateDelay = 100 * time.Millisecond

	// DefaultScanLimit is the default maximum number of samples searched
	// backwards for the start of a completed line.
	DefaultScanLimit = 800

	// DefaultMinDuration is the default shortest line duration counted
	// toward the estimate. Shorter durations are treated as timing noise.
	DefaultMinDuration = 100 * time.Millisecond
)

// History provides the buffered samples of the current content unit, oldest
// first. It is satisfied by gazeline.Processor.
type History interface {
	UnitSamples(max int) []gazeline.Sample
}

// WordCounter reports the number of words on a line of the displayed
// content.
type WordCounter func(line int) int

// LineSpeed is one completed line's contribution to the estimate.
type LineSpeed struct {
	// Line is the index of the completed line.
	Line int `json:"line"`
	// Words is the word count of the completed line.
	Words int `json:"words"`
	// DurationMs is how long the reader spent on the line, in milliseconds.
	DurationMs int64 `json:"durationMs"`
	// WPM is the words-per-minute speed of this line alone.
	WPM int `json:"wpm"`
}

// Update is delivered to OnUpdated listeners after a counted line.
type Update struct {
	// LineSpeed is the completed line's contribution.
	LineSpeed
	// SessionWPM is the cumulative estimate including this line.
	SessionWPM int `json:"sessionWpm"`
	// TrendWPM is the smoothed recent estimate including this line.
	TrendWPM float64 `json:"trendWpm"`
}

// Estimator accumulates words read and time spent over the session and
// derives a cumulative words-per-minute estimate.
//
// This type is concurrency safe.
type Estimator interface {
	// Observe schedules a speed update for a fired line-advance event. It
	// returns immediately; the update itself runs on a timer after the
	// configured delay. Updates are skipped for the first event after a unit
	// boundary, for line 0, and for durations under the configured minimum.
	Observe(ev gazeline.LineAdvanceEvent)

	// WPM returns the cumulative words-per-minute estimate, or 0 before the
	// first counted line.
	WPM() int

	// TrendWPM returns an exponentially smoothed estimate that follows
	// recent lines more closely than the cumulative figure.
	TrendWPM() float64

	// Slope returns the least-squares slope of the recent per-line speeds,
	// in words per minute per line. Positive means the reader is speeding
	// up.
	Slope() float64

	// Log returns a copy of the counted lines, in update order.
	Log() []LineSpeed

	// NewUnit marks a content-unit boundary. The next event is treated as a
	// warm-up and not counted; cumulative totals are preserved.
	NewUnit()

	// Reset clears all cumulative state.
	Reset()
}

// EstimatorBuilder builds Estimator instances.
//
// This type is not concurrency safe.
type EstimatorBuilder interface {
	// WithUpdateDelay configures the delay between a fired event and its
	// speed update.
	WithUpdateDelay(delay time.Duration) EstimatorBuilder

	// WithScanLimit configures the maximum number of samples searched
	// backwards for the start of a completed line.
	WithScanLimit(limit int) EstimatorBuilder

	// WithMinDuration configures the shortest line duration counted toward
	// the estimate.
	WithMinDuration(d time.Duration) EstimatorBuilder

	// WithLogger configures a logger for diagnostics. A nil logger disables
	// logging.
	WithLogger(logger *slog.Logger) EstimatorBuilder

	// OnUpdated registers a listener to be called after each counted line.
	OnUpdated(listener func(Update)) EstimatorBuilder

	// Build returns a new Estimator using the builder's configuration,
	// reading line timings from history.
	Build(history History) Estimator
}

type estimatorConfig struct {
	words       WordCounter
	updateDelay time.Duration
	scanLimit   int
	minDuration time.Duration
	logger      *slog.Logger
	listeners   []func(Update)
}

var _ EstimatorBuilder = &estimatorConfig{}

// With returns an Estimator with default settings for the words function,
// reading line timings from history. words must not be nil.
func With(words WordCounter, history History) Estimator {
	return Builder(words).Build(history)
}

// Builder returns an EstimatorBuilder for the words function, which reports
// the word count of each displayed line. words must not be nil.
func Builder(words WordCounter) EstimatorBuilder {
	return &estimatorConfig{
		words:       words,
		updateDelay: DefaultUpdateDelay,
		scanLimit:   DefaultScanLimit,
		minDuration: DefaultMinDuration,
	}
}

func (c *estimatorConfig) WithUpdateDelay(delay time.Duration) EstimatorBuilder {
	c.updateDelay = delay
	return c
}

func (c *estimatorConfig) WithScanLimit(limit int) EstimatorBuilder {
	c.scanLimit = limit
	return c
}

func (c *estimatorConfig) WithMinDuration(d time.Duration) EstimatorBuilder {
	c.minDuration = d
	return c
}

func (c *estimatorConfig) WithLogger(logger *slog.Logger) EstimatorBuilder {
	c.logger = logger
	return c
}

func (c *estimatorConfig) OnUpdated(listener func(Update)) EstimatorBuilder {
	c.listeners = append(c.listeners, listener)
	return c
}

func (c *estimatorConfig) Build(history History) Estimator {
	return newEstimator(c, history)
}
