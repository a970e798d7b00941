package job

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/imgconv/internal/codec"
	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
)

// Command is a control message for an active run.
type Command int

const (
	CommandPause Command = iota
	CommandResume
	CommandTogglePause
	CommandStop
)

func (c Command) String() string {
	switch c {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandTogglePause:
		return "toggle-pause"
	case CommandStop:
		return "stop"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ControllerConfig is the configuration for the job controller.
type ControllerConfig struct {
	Codec codec.Codec
	Sink  ProgressSink
	// Now returns the current time, used for run timestamps.
	Now func() time.Time
	// NewID returns a new run ID.
	NewID  func() string
	Logger log.Logger
}

func (c *ControllerConfig) defaults() error {
	if c.Codec == nil {
		return fmt.Errorf("codec is required")
	}

	if c.Sink == nil {
		c.Sink = NoopSink
	}

	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}

	if c.NewID == nil {
		c.NewID = func() string { return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String() }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "job.Controller"})

	return nil
}

// run is a single execution of a conversion job.
type run struct {
	id     string
	done   chan struct{}
	result model.RunResult
}

// Controller runs conversion jobs one at a time on a background goroutine,
// and accepts pause, resume and stop commands while a run is active.
type Controller struct {
	codec  codec.Codec
	sink   ProgressSink
	now    func() time.Time
	newID  func() string
	logger log.Logger

	mu    sync.Mutex
	state model.RunState
	// wake is closed and replaced on every state change, waking a paused worker.
	wake    chan struct{}
	current *run
}

// NewController returns a new job controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Controller{
		codec:  cfg.Codec,
		sink:   cfg.Sink,
		now:    cfg.Now,
		newID:  cfg.NewID,
		logger: cfg.Logger,
		wake:   make(chan struct{}),
	}, nil
}

// Start validates the job, prepares the output directory and starts converting
// in the background. It returns the run ID.
// Cancelling ctx has the same effect as a stop command.
func (c *Controller) Start(ctx context.Context, job model.ConversionJob) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Running {
		return "", fmt.Errorf("a conversion is in progress: %w", model.ErrAlreadyRunning)
	}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create output directory %s: %s: %w", job.OutputDir, err, model.ErrFilesystem)
	}

	r := &run{
		id:   c.newID(),
		done: make(chan struct{}),
	}
	r.result = model.RunResult{
		ID:        r.id,
		Job:       job,
		Total:     len(job.Files),
		StartedAt: c.now(),
	}

	c.current = r
	c.state = model.RunState{Running: true}
	c.broadcastLocked()

	c.logger.Infof("Starting run %s: %d files to %s in %s", r.id, len(job.Files), job.Format, job.OutputDir)
	go c.loop(ctx, job, r)

	return r.id, nil
}

// Send applies a control command to the active run.
func (c *Controller) Send(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Running {
		return fmt.Errorf("can't %s: %w", cmd, model.ErrNotRunning)
	}

	switch cmd {
	case CommandPause:
		c.state.Paused = true
	case CommandResume:
		c.state.Paused = false
	case CommandTogglePause:
		c.state.Paused = !c.state.Paused
	case CommandStop:
		c.state.StopRequested = true
	default:
		return fmt.Errorf("unknown command %s: %w", cmd, model.ErrValidation)
	}

	c.logger.Debugf("Command %s applied (paused: %t, stop: %t)", cmd, c.state.Paused, c.state.StopRequested)
	c.broadcastLocked()

	return nil
}

// Pause suspends the run before the next file.
func (c *Controller) Pause() error { return c.Send(CommandPause) }

// Resume continues a paused run.
func (c *Controller) Resume() error { return c.Send(CommandResume) }

// TogglePause pauses a running run or resumes a paused one.
func (c *Controller) TogglePause() error { return c.Send(CommandTogglePause) }

// Stop requests the run to finish before the next file.
func (c *Controller) Stop() error { return c.Send(CommandStop) }

// State returns a snapshot of the run flags.
func (c *Controller) State() model.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until the last started run has finished and the terminal
// notification has been delivered to the sink, and returns its result.
func (c *Controller) Wait(ctx context.Context) (*model.RunResult, error) {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()

	if r == nil {
		return nil, fmt.Errorf("no run has been started: %w", model.ErrNotRunning)
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res := r.result
	return &res, nil
}

func (c *Controller) loop(ctx context.Context, job model.ConversionJob, r *run) {
	// A file in progress is always finished, cancellation is only observed between files.
	codecCtx := context.WithoutCancel(ctx)

	total := len(job.Files)
	processed := 0
	state := model.TerminalStateCompleted
	outcomes := make([]model.ConversionOutcome, 0, total)

	for _, path := range job.Files {
		if !c.waitReady(ctx) {
			state = model.TerminalStateStopped
			break
		}

		processed++
		c.sink.Progress(model.ProgressEvent{
			Processed: processed,
			Total:     total,
			FileName:  filepath.Base(path),
		})

		outcome := c.convert(codecCtx, job, path)
		if outcome.IsFailed() {
			c.logger.Warningf("Could not convert %s: %s", outcome.FileName, outcome.Reason)
		}
		outcomes = append(outcomes, outcome)
		c.sink.Outcome(outcome)
	}

	r.result.State = state
	r.result.Processed = processed
	r.result.Outcomes = outcomes
	r.result.EndedAt = c.now()

	c.mu.Lock()
	c.state = model.RunState{}
	c.broadcastLocked()
	c.mu.Unlock()

	c.logger.Infof("Run %s %s: %d/%d processed", r.id, state, processed, total)
	c.sink.Finished(r.result)
	close(r.done)
}

// waitReady blocks while the run is paused. It returns false if the run must stop.
func (c *Controller) waitReady(ctx context.Context) bool {
	for {
		c.mu.Lock()
		if ctx.Err() != nil {
			c.state.StopRequested = true
		}
		st := c.state
		wake := c.wake
		c.mu.Unlock()

		if st.StopRequested {
			return false
		}
		if !st.Paused {
			return true
		}

		c.logger.Debugf("Paused, waiting for resume or stop")
		select {
		case <-wake:
		case <-ctx.Done():
		}
	}
}

func (c *Controller) convert(ctx context.Context, job model.ConversionJob, path string) model.ConversionOutcome {
	img, err := c.codec.Open(ctx, path)
	if err != nil {
		return model.Failed(path, err)
	}

	img, err = codec.PrepareForFormat(c.codec, img, job.Format)
	if err != nil {
		return model.Failed(path, err)
	}

	out := job.OutputPath(path)
	if err := c.codec.Save(ctx, img, out, job.Format); err != nil {
		return model.Failed(path, err)
	}

	return model.Saved(path, out)
}

func (c *Controller) broadcastLocked() {
	close(c.wake)
	c.wake = make(chan struct{})
}
