package job

import (
	"context"
	"sync"

	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
)

// ProgressSink receives the notifications of a run.
// Progress is called before each file is converted, Outcome after, and
// Finished exactly once when the run terminates.
type ProgressSink interface {
	Progress(ev model.ProgressEvent)
	Outcome(o model.ConversionOutcome)
	Finished(res model.RunResult)
}

// NoopSink ignores every notification.
const NoopSink = noopSink(0)

type noopSink int

func (noopSink) Progress(model.ProgressEvent)     {}
func (noopSink) Outcome(model.ConversionOutcome) {}
func (noopSink) Finished(model.RunResult)        {}

// MultiSink fans out notifications to multiple sinks in order.
type MultiSink []ProgressSink

func (m MultiSink) Progress(ev model.ProgressEvent) {
	for _, s := range m {
		s.Progress(ev)
	}
}

func (m MultiSink) Outcome(o model.ConversionOutcome) {
	for _, s := range m {
		s.Outcome(o)
	}
}

func (m MultiSink) Finished(res model.RunResult) {
	for _, s := range m {
		s.Finished(res)
	}
}

// NewLogSink returns a sink that writes the run notifications to the logger at debug level.
func NewLogSink(logger log.Logger) ProgressSink {
	if logger == nil {
		logger = log.Noop
	}
	return logSink{logger: logger.WithValues(log.Kv{"svc": "job.LogSink"})}
}

type logSink struct {
	logger log.Logger
}

func (l logSink) Progress(ev model.ProgressEvent) {
	l.logger.Debugf("Converting %s (%d/%d)", ev.FileName, ev.Processed, ev.Total)
}

func (l logSink) Outcome(o model.ConversionOutcome) {
	if o.IsFailed() {
		l.logger.Debugf("Could not convert %s: %s", o.InputPath, o.Reason)
		return
	}
	l.logger.Debugf("Saved %s", o.OutputPath)
}

func (l logSink) Finished(res model.RunResult) {
	l.logger.WithValues(log.Kv{"run-id": res.ID}).Debugf("Run %s with %d/%d files processed", res.State, res.Processed, res.Total)
}

// Dispatcher is a ProgressSink that queues the notifications and replays them,
// in order, on the goroutine executing Run. This moves the sink work out of the
// conversion worker into the context that owns the output (e.g. a terminal).
// Queuing never blocks the caller.
type Dispatcher struct {
	sink    ProgressSink
	mu      sync.Mutex
	pending []func()
	closed  bool
	signal  chan struct{}
}

// NewDispatcher returns a dispatcher that forwards to sink.
func NewDispatcher(sink ProgressSink) *Dispatcher {
	if sink == nil {
		sink = NoopSink
	}
	return &Dispatcher{
		sink:   sink,
		signal: make(chan struct{}, 1),
	}
}

func (d *Dispatcher) Progress(ev model.ProgressEvent) {
	d.enqueue(func() { d.sink.Progress(ev) })
}

func (d *Dispatcher) Outcome(o model.ConversionOutcome) {
	d.enqueue(func() { d.sink.Outcome(o) })
}

func (d *Dispatcher) Finished(res model.RunResult) {
	d.enqueue(func() { d.sink.Finished(res) })
}

// Run delivers queued notifications until the dispatcher is closed and drained,
// or the context is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		closed := d.closed
		d.mu.Unlock()

		for _, f := range batch {
			f()
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return nil
		}

		select {
		case <-d.signal:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops accepting notifications. Run returns once the queue is drained.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.notify()
}

func (d *Dispatcher) enqueue(f func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = append(d.pending, f)
	d.mu.Unlock()
	d.notify()
}

func (d *Dispatcher) notify() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}
