package gazeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/gazeline-go/gazeline-go/internal/util"
)

// processOverlap is the number of already-processed samples each analysis
// pass revisits so smoothing stays continuous across incremental batches.
const processOverlap = 2

// jitterWindow is the number of recent arrival intervals the jitter median
// covers.
const jitterWindow = 31

// logEvery is how many ingested samples pass between diagnostic log lines.
const logEvery = 1000

type processor struct {
	config *processorConfig
	mtx    sync.Mutex

	// Guarded by mtx
	sessionID  string
	buffer     *sampleBuffer
	detector   *sweepDetector
	context    Context
	origin     int64
	originSet  bool
	lastTime   int64
	ingested   uint64
	trimmed    uint64
	fired      uint64
	quality    *signalStats
	jitter     *util.MedianFilter
	sweeps     *util.VelocityDigest
	eventLog   []LineAdvanceEvent
	listeners  []subscription
	nextSubID  int
}

type subscription struct {
	id int
	fn func(LineAdvanceEvent)
}

var _ Processor = &processor{}

func newProcessor(c *processorConfig) *processor {
	p := &processor{
		config:    c,
		sessionID: uuid.NewString(),
		buffer:    newSampleBuffer(c.capacity),
		detector:  newSweepDetector(c),
		quality:   newSignalStats(c.qualityWindow),
		jitter:    util.NewMedianFilter(jitterWindow),
		sweeps:    util.NewVelocityDigest(),
	}
	for _, fn := range c.listeners {
		p.subscribe(fn)
	}
	return p
}

func (p *processor) Ingest(in Input) error {
	p.mtx.Lock()
	events, err := p.ingest(in)
	var notify []func(LineAdvanceEvent)
	if len(events) > 0 {
		notify = make([]func(LineAdvanceEvent), len(p.listeners))
		for i, sub := range p.listeners {
			notify[i] = sub.fn
		}
	}
	p.mtx.Unlock()

	// Listeners run outside the lock so they can call back into the
	// processor.
	for _, ev := range events {
		for _, fn := range notify {
			fn(ev)
		}
	}
	return err
}

func (p *processor) ingest(in Input) ([]LineAdvanceEvent, error) {
	if !p.originSet {
		p.origin = in.Timestamp
		p.originSet = true
	} else if in.Timestamp < p.origin {
		// The sensor clock moved back past the session origin, which signals
		// a restart. Re-pin the origin and keep the buffered history.
		if p.config.logger != nil {
			p.config.logger.Info("session origin reset",
				"sessionID", p.sessionID,
				"origin", p.origin,
				"timestamp", in.Timestamp)
		}
		p.origin = in.Timestamp
	}

	dropout := missing(in.X, in.Y)
	s := Sample{
		Time:      in.Timestamp - p.origin,
		X:         in.X,
		Y:         in.Y,
		Dropout:   dropout,
		Line:      p.context.Line,
		Paragraph: p.context.Paragraph,
		Word:      p.context.Word,
		Class:     classify(in.State),
	}
	if err := p.append(s); err != nil {
		return nil, err
	}

	if dropout {
		p.quality.recordDropout()
	} else {
		p.quality.recordTracked()
	}
	if p.ingested > 0 {
		p.jitter.Add(float64(s.Time - p.lastTime))
	}
	p.lastTime = s.Time
	p.ingested++

	events := p.analyze()
	p.logProgress()
	return events, nil
}

// append adds the sample to the buffer. A buffer fault is recovered by
// reinitializing the buffer and recording a minimal emergency entry; only a
// fault during that emergency append is surfaced to the caller.
func (p *processor) append(s Sample) error {
	if p.tryAppend(s) {
		return nil
	}
	if p.config.logger != nil {
		p.config.logger.Error("sample buffer fault, reinitializing",
			"sessionID", p.sessionID,
			"buffered", p.buffer.len())
	}
	p.buffer = newSampleBuffer(p.config.capacity)
	if p.tryAppend(Sample{Time: s.Time, X: s.X, Y: s.Y, Dropout: s.Dropout}) {
		return nil
	}
	return ErrBufferUnusable
}

func (p *processor) tryAppend(s Sample) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	p.trimmed += uint64(p.buffer.add(s))
	return true
}

// analyze runs interpolation, smoothing, velocity estimation, and detection
// over the unprocessed tail of the buffer, one sample at a time. A fault
// while analyzing a sample is recovered and logged, the raw sample is kept,
// and analysis resumes with the next sample.
func (p *processor) analyze() []LineAdvanceEvent {
	var events []LineAdvanceEvent
	for p.buffer.processedTo < p.buffer.len() {
		i := p.buffer.processedTo
		ev, ok := p.analyzeSample(i)
		if !ok {
			if p.config.logger != nil {
				p.config.logger.Error("analysis fault, sample kept raw",
					"sessionID", p.sessionID,
					"index", i)
			}
		} else if ev != nil {
			p.fired++
			p.sweeps.Add(ev.Velocity)
			p.eventLog = append(p.eventLog, *ev)
			events = append(events, *ev)
		}
		p.buffer.processedTo = i + 1
	}
	return events
}

func (p *processor) analyzeSample(i int) (ev *LineAdvanceEvent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ev, ok = nil, false
		}
	}()
	from := max(i-processOverlap, 0)
	samples := p.buffer.samples
	interpolateGaps(samples, from)
	smoothRange(samples, from)
	velocityRange(samples, from)
	return p.detector.observe(samples, i), true
}

func (p *processor) logProgress() {
	if p.ingested%logEvery != 0 {
		return
	}
	if p.config.logger != nil && p.config.logger.Enabled(nil, slog.LevelDebug) {
		p.config.logger.Debug("ingest progress",
			"sessionID", p.sessionID,
			"ingested", p.ingested,
			"buffered", p.buffer.len(),
			"trimmed", p.trimmed,
			"events", p.fired,
			"dropoutRate", fmt.Sprintf("%.3f", p.quality.dropoutRate()),
			"jitterMs", fmt.Sprintf("%.1f", p.jitter.Median()))
	}
}

func (p *processor) SetContext(ctx Context) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if ctx.Line != nil {
		p.context.Line = ctx.Line
	}
	if ctx.Paragraph != nil {
		p.context.Paragraph = ctx.Paragraph
	}
	if ctx.Word != nil {
		p.context.Word = ctx.Word
	}
}

func (p *processor) MarkContentShown() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.detector.firstContentTime = p.lastTime
}

func (p *processor) ResetTriggers() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.detector.resetUnit()
	p.buffer.startUnit()
	p.eventLog = nil
}

func (p *processor) Reset() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.sessionID = uuid.NewString()
	p.buffer = newSampleBuffer(p.config.capacity)
	p.detector.reset()
	p.context = Context{}
	p.origin = 0
	p.originSet = false
	p.lastTime = 0
	p.ingested = 0
	p.trimmed = 0
	p.fired = 0
	p.quality.reset()
	p.jitter.Reset()
	p.sweeps.Reset()
	p.eventLog = nil
}

func (p *processor) ClearBuffer() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.buffer.clear()
}

func (p *processor) Subscribe(listener func(LineAdvanceEvent)) func() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.subscribe(listener)
}

func (p *processor) subscribe(listener func(LineAdvanceEvent)) func() {
	id := p.nextSubID
	p.nextSubID++
	p.listeners = append(p.listeners, subscription{id: id, fn: listener})
	return func() {
		p.mtx.Lock()
		defer p.mtx.Unlock()
		for i, sub := range p.listeners {
			if sub.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

func (p *processor) Samples(max int) []Sample {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.buffer.tail(max)
}

func (p *processor) UnitSamples(max int) []Sample {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.buffer.unitTail(max)
}

func (p *processor) DrainNew() []Sample {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.buffer.drain()
}

func (p *processor) EventLog() []LineAdvanceEvent {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	out := make([]LineAdvanceEvent, len(p.eventLog))
	copy(out, p.eventLog)
	return out
}

func (p *processor) Metrics() Metrics {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	m := Metrics{
		Buffered:     p.buffer.len(),
		Ingested:     p.ingested,
		Trimmed:      p.trimmed,
		Events:       p.fired,
		DropoutRate:  p.quality.dropoutRate(),
		JitterMs:     p.jitter.Median(),
		SweepCount:   p.sweeps.Size,
		FastestSweep: p.sweeps.Fastest,
	}
	if p.sweeps.Size > 0 {
		m.MedianSweep = p.sweeps.Quantile(0.5)
	}
	return m
}

func (p *processor) SessionID() string {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.sessionID
}
