package readingspeed

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gazeline-go/gazeline-go"
	"github.com/gazeline-go/gazeline-go/internal/util"
)

// trendAge is the number of counted lines the trend estimate decays over.
const trendAge = 5

// slopeWindow is the number of recent per-line speeds the slope covers.
const slopeWindow = 8

type estimator struct {
	config  *estimatorConfig
	history History
	mtx     sync.Mutex

	// Guarded by mtx
	warmup   bool
	lastLine int
	lastTime int64
	wordSum  int64
	timeSum  int64
	log      []LineSpeed
	trend    *util.Ewma
	slope    *util.RollingTrend
}

var _ Estimator = &estimator{}

func newEstimator(c *estimatorConfig, history History) *estimator {
	return &estimator{
		config:  c,
		history: history,
		warmup:  true,
		trend:   util.NewEwma(trendAge, 2),
		slope:   util.NewRollingTrend(slopeWindow),
	}
}

func (e *estimator) Observe(ev gazeline.LineAdvanceEvent) {
	time.AfterFunc(e.config.updateDelay, func() {
		e.update(ev)
	})
}

func (e *estimator) update(ev gazeline.LineAdvanceEvent) {
	e.mtx.Lock()
	update, counted := e.applyEvent(ev)
	e.mtx.Unlock()

	// The listener list is fixed at build time, so it is safe to call
	// outside the lock.
	if counted {
		for _, fn := range e.config.listeners {
			fn(update)
		}
	}
}

// applyEvent folds one event into the totals. The event's line and time are
// recorded even when it is skipped, so the O(1) duration path stays
// available for the event that follows it.
func (e *estimator) applyEvent(ev gazeline.LineAdvanceEvent) (Update, bool) {
	warmup := e.warmup
	prevLine, prevTime := e.lastLine, e.lastTime
	e.warmup = false
	e.lastLine = ev.Line
	e.lastTime = ev.Time

	if warmup || ev.Line == 0 {
		return Update{}, false
	}
	duration := e.lineDuration(ev, prevLine, prevTime)
	if duration < e.config.minDuration.Milliseconds() {
		return Update{}, false
	}

	words := e.config.words(ev.Line)
	e.wordSum += int64(words)
	e.timeSum += duration

	lineWPM := wpm(int64(words), duration)
	e.trend.Add(float64(lineWPM))
	e.slope.Add(float64(lineWPM))

	ls := LineSpeed{Line: ev.Line, Words: words, DurationMs: duration, WPM: lineWPM}
	e.log = append(e.log, ls)

	update := Update{
		LineSpeed:  ls,
		SessionWPM: wpm(e.wordSum, e.timeSum),
		TrendWPM:   e.trend.Value(),
	}
	if e.config.logger != nil && e.config.logger.Enabled(nil, slog.LevelDebug) {
		e.config.logger.Debug("line speed",
			"line", ls.Line,
			"words", ls.Words,
			"durationMs", ls.DurationMs,
			"lineWpm", ls.WPM,
			"sessionWpm", update.SessionWPM,
			"trendWpm", fmt.Sprintf("%.1f", update.TrendWPM))
	}
	return update, true
}

// lineDuration determines how long the reader spent on the completed line.
// When the previous event completed the immediately preceding line, its
// timestamp gives the duration directly. Otherwise the unit history is
// scanned backwards, up to the scan limit, for the earliest sample annotated
// with the completed line. Returns 0 when no such sample is found.
func (e *estimator) lineDuration(ev gazeline.LineAdvanceEvent, prevLine int, prevTime int64) int64 {
	if prevLine == ev.Line-1 && ev.Time > prevTime {
		return ev.Time - prevTime
	}
	samples := e.history.UnitSamples(e.config.scanLimit)
	start := int64(-1)
	for i := len(samples) - 1; i >= 0; i-- {
		line := samples[i].Line
		if line == nil {
			continue
		}
		if *line == ev.Line {
			start = samples[i].Time
			continue
		}
		if start >= 0 {
			// Walked past the start of the line's annotation run.
			break
		}
	}
	if start < 0 {
		return 0
	}
	return ev.Time - start
}

// wpm converts words over a duration in milliseconds to words per minute.
func wpm(words, durationMs int64) int {
	if durationMs <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / (float64(durationMs) / 60000.0)))
}

func (e *estimator) WPM() int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return wpm(e.wordSum, e.timeSum)
}

func (e *estimator) TrendWPM() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.trend.Value()
}

func (e *estimator) Slope() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.slope.Slope()
}

func (e *estimator) Log() []LineSpeed {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	out := make([]LineSpeed, len(e.log))
	copy(out, e.log)
	return out
}

func (e *estimator) NewUnit() {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	e.warmup = true
}

func (e *estimator) Reset() {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	e.warmup = true
	e.lastLine = 0
	e.lastTime = 0
	e.wordSum = 0
	e.timeSum = 0
	e.log = nil
	e.trend.Reset()
	e.slope.Reset()
}
