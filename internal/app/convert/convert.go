package convert

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slok/imgconv/internal/job"
	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/selection"
	"github.com/slok/imgconv/internal/storage"
)

// Controller runs conversion jobs.
type Controller interface {
	Start(ctx context.Context, j model.ConversionJob) (string, error)
	Send(cmd job.Command) error
	Wait(ctx context.Context) (*model.RunResult, error)
}

var _ Controller = &job.Controller{}

// ServiceConfig is the configuration for the convert service.
type ServiceConfig struct {
	Controller Controller
	Repository storage.RunRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Controller == nil {
		return fmt.Errorf("controller is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Convert"})
	return nil
}

// Service converts a batch of images and records the run in the history.
type Service struct {
	ctrl   Controller
	repo   storage.RunRepository
	logger log.Logger
}

// NewService creates a new convert service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		ctrl:   cfg.Controller,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the convert request parameters.
type Request struct {
	// Paths are the candidate input files, unsupported or missing ones are ignored.
	Paths     []string
	Format    model.Format
	OutputDir string
	// Commands are forwarded to the run while it is active. Optional.
	Commands <-chan job.Command
}

// Run converts the selected files and blocks until the run finishes.
// Cancelling ctx stops the run after the file in progress.
func (s *Service) Run(ctx context.Context, req Request) (*model.RunResult, error) {
	sel := selection.Select(req.Paths)
	for _, p := range sel.Dropped {
		s.logger.Debugf("Ignoring %s: not a supported image file", p)
	}
	if len(sel.Selected) == 0 {
		return nil, fmt.Errorf("no supported image files selected: %w", model.ErrValidation)
	}

	id, err := s.ctrl.Start(ctx, model.ConversionJob{
		Files:     sel.Selected,
		Format:    req.Format,
		OutputDir: req.OutputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start conversion: %w", err)
	}
	logger := s.logger.WithValues(log.Kv{"run": id})

	done := make(chan struct{})
	var wg sync.WaitGroup
	if req.Commands != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.forward(logger, req.Commands, done)
		}()
	}

	// The run always ends shortly after a cancellation, so it's waited without it.
	res, err := s.ctrl.Wait(context.WithoutCancel(ctx))
	close(done)
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("could not wait for conversion: %w", err)
	}

	if err := s.repo.CreateRun(context.WithoutCancel(ctx), *res); err != nil {
		logger.Errorf("Could not store run in history: %s", err)
	}

	logger.Infof("Run %s: %d saved, %d failed", res.State, res.Saved(), res.Failures())

	return res, nil
}

func (s *Service) forward(logger log.Logger, cmds <-chan job.Command, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			err := s.ctrl.Send(cmd)
			if err != nil && !errors.Is(err, model.ErrNotRunning) {
				logger.Warningf("Could not apply %s command: %s", cmd, err)
			}
		}
	}
}
