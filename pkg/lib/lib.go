package lib

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/slok/imgconv/internal/app/convert"
	"github.com/slok/imgconv/internal/app/runinspect"
	"github.com/slok/imgconv/internal/app/runlist"
	"github.com/slok/imgconv/internal/codec"
	"github.com/slok/imgconv/internal/codec/fake"
	"github.com/slok/imgconv/internal/codec/native"
	"github.com/slok/imgconv/internal/conventions"
	"github.com/slok/imgconv/internal/job"
	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/storage"
	"github.com/slok/imgconv/internal/storage/memory"
	"github.com/slok/imgconv/internal/storage/sqlite"
)

// CodecType identifies the image codec implementation.
type CodecType string

const (
	// CodecNative decodes and encodes real image files.
	CodecNative CodecType = "native"
	// CodecFake works in memory without touching image files.
	// Use this for unit testing.
	CodecFake CodecType = "fake"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} records the history in
// ~/.imgconv/history.db and converts real files.
type Config struct {
	// DBPath is the SQLite history database path.
	// Default: ~/.imgconv/history.db.
	DBPath string
	// NoHistory keeps the history in memory, it's lost when the client is closed.
	NoHistory bool
	// Codec selects the codec implementation.
	// Default: [CodecNative].
	Codec CodecType
	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DBPath == "" && !c.NoHistory {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.HistoryDBPath(home)
	}

	if c.Codec == "" {
		c.Codec = CodecNative
	}
	if c.Codec != CodecNative && c.Codec != CodecFake {
		return fmt.Errorf("unsupported codec type %q: %w", c.Codec, ErrNotValid)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client runs one conversion at a time and is safe for concurrent use.
type Client struct {
	repo    storage.RunRepository
	codec   codec.Codec
	logger  log.Logger
	closeFn func() error

	mu      sync.Mutex
	running bool
}

// New creates a new SDK client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cdc codec.Codec
	var err error
	switch cfg.Codec {
	case CodecFake:
		cdc, err = fake.NewCodec(fake.CodecConfig{Logger: cfg.Logger})
	default:
		cdc, err = native.NewCodec(native.CodecConfig{Logger: cfg.Logger})
	}
	if err != nil {
		return nil, fmt.Errorf("could not create codec: %w", err)
	}

	c := &Client{
		codec:   cdc,
		logger:  cfg.Logger,
		closeFn: func() error { return nil },
	}

	if cfg.NoHistory {
		c.repo, err = memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		return c, nil
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}
	c.repo = repo
	c.closeFn = repo.Close

	return c, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	return c.closeFn()
}

// ConvertOpts are the options of a conversion.
type ConvertOpts struct {
	// Files are the input images. Unsupported or missing files are ignored
	// and duplicates are converted once.
	Files  []string
	Format Format
	// OutputDir is created if missing. Default: ./output.
	OutputDir string
	// OnProgress is called before each file is converted. Optional.
	OnProgress func(Progress)
	// OnOutcome is called after each file is converted. Optional.
	OnOutcome func(Outcome)
	// Commands control the conversion while it runs. Optional.
	Commands <-chan Command
}

// Convert converts the files and blocks until the run finishes, it returns the
// run report that is also stored in the history.
//
// Callbacks are called from a single goroutine, in order.
func (c *Client) Convert(ctx context.Context, opts ConvertOpts) (*Run, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, fmt.Errorf("a conversion is in progress: %w", ErrAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	outputDir := opts.OutputDir
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get working directory: %w", err)
		}
		outputDir = conventions.OutputDir(wd)
	}

	dispatcher := job.NewDispatcher(callbackSink{onProgress: opts.OnProgress, onOutcome: opts.OnOutcome})
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		_ = dispatcher.Run(context.WithoutCancel(ctx))
	}()
	defer func() {
		dispatcher.Close()
		<-dispatcherDone
	}()

	ctrl, err := job.NewController(job.ControllerConfig{
		Codec:  c.codec,
		Sink:   dispatcher,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create controller: %w", err)
	}

	svc, err := convert.NewService(convert.ServiceConfig{
		Controller: ctrl,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	res, err := svc.Run(ctx, convert.Request{
		Paths:     opts.Files,
		Format:    model.Format(opts.Format),
		OutputDir: outputDir,
		Commands:  translateCommands(cmdCtx, opts.Commands, c.logger),
	})
	if err != nil {
		return nil, mapError(err)
	}

	run := fromInternalRun(*res)
	return &run, nil
}

// ListRuns returns the history runs, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]Run, error) {
	svc, err := runlist.NewService(runlist.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.Run(ctx, runlist.Request{})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalRunList(runs), nil
}

// GetRun returns a history run by ID, unique ID prefix or "latest".
func (c *Client) GetRun(ctx context.Context, ref string) (*Run, error) {
	svc, err := runinspect.NewService(runinspect.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, runinspect.Request{Ref: ref})
	if err != nil {
		return nil, mapError(err)
	}

	run := fromInternalRun(*res)
	return &run, nil
}

// callbackSink adapts the user callbacks to a job.ProgressSink.
type callbackSink struct {
	onProgress func(Progress)
	onOutcome  func(Outcome)
}

func (s callbackSink) Progress(ev model.ProgressEvent) {
	if s.onProgress != nil {
		s.onProgress(Progress{Processed: ev.Processed, Total: ev.Total, FileName: ev.FileName})
	}
}

func (s callbackSink) Outcome(o model.ConversionOutcome) {
	if s.onOutcome != nil {
		s.onOutcome(fromInternalOutcome(o))
	}
}

func (s callbackSink) Finished(model.RunResult) {}

func translateCommands(ctx context.Context, in <-chan Command, logger log.Logger) <-chan job.Command {
	if in == nil {
		return nil
	}

	out := make(chan job.Command)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					return
				}
				cmd, ok := toInternalCommand(c)
				if !ok {
					logger.Warningf("Ignoring unknown command %q", c)
					continue
				}
				select {
				case out <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
