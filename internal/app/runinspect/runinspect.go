package runinspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/storage"
)

// LatestRun is the reference that selects the most recent run.
const LatestRun = "latest"

// ServiceConfig is the configuration for the run inspect service.
type ServiceConfig struct {
	Repository storage.RunRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.RunInspect"})

	return nil
}

// Service retrieves the report of a single run.
type Service struct {
	repo   storage.RunRepository
	logger log.Logger
}

// NewService creates a new run inspect service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the run inspect request parameters.
type Request struct {
	// Ref is the run ID, a unique ID prefix or LatestRun.
	Ref string
}

// Run retrieves a run by reference.
func (s *Service) Run(ctx context.Context, req Request) (*model.RunResult, error) {
	ref := strings.TrimSpace(req.Ref)
	if ref == "" {
		return nil, fmt.Errorf("run reference is required: %w", model.ErrValidation)
	}

	if ref == LatestRun {
		return s.latest(ctx)
	}

	run, err := s.repo.GetRun(ctx, ref)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	s.logger.Debugf("ID lookup failed, trying ID prefix %q", ref)
	return s.byPrefix(ctx, strings.ToUpper(ref))
}

func (s *Service) latest(ctx context.Context) (*model.RunResult, error) {
	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs in history: %w", model.ErrNotFound)
	}

	return &runs[0], nil
}

func (s *Service) byPrefix(ctx context.Context, prefix string) (*model.RunResult, error) {
	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	var found *model.RunResult
	for i := range runs {
		if !strings.HasPrefix(runs[i].ID, prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("run reference %q matches multiple runs: %w", prefix, model.ErrValidation)
		}
		found = &runs[i]
	}

	if found == nil {
		return nil, fmt.Errorf("run not found: %s: %w", prefix, model.ErrNotFound)
	}

	return found, nil
}
