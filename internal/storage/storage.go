package storage

import (
	"context"

	"github.com/slok/imgconv/internal/model"
)

// RunRepository is the interface for the finished runs history.
type RunRepository interface {
	CreateRun(ctx context.Context, r model.RunResult) error
	GetRun(ctx context.Context, id string) (*model.RunResult, error)
	// ListRuns returns the runs, newest first.
	ListRuns(ctx context.Context) ([]model.RunResult, error)
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name RunRepository --filename mocks.go
