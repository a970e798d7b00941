package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.RunRepository.
type Repository struct {
	runs   map[string]model.RunResult
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   make(map[string]model.RunResult),
		logger: cfg.Logger,
	}, nil
}

// CreateRun stores a finished run.
func (r *Repository) CreateRun(ctx context.Context, run model.RunResult) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("run %s: %w", run.ID, model.ErrAlreadyExists)
	}

	r.runs[run.ID] = copyRun(run)
	r.logger.Debugf("Created run in repository: %s", run.ID)

	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	runCopy := copyRun(run)
	return &runCopy, nil
}

// ListRuns returns all runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.RunResult, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, copyRun(run))
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})

	return runs, nil
}

func copyRun(r model.RunResult) model.RunResult {
	r.Job.Files = append([]string(nil), r.Job.Files...)
	r.Outcomes = append([]model.ConversionOutcome(nil), r.Outcomes...)
	return r
}
