package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/storage/memory"
)

func runFixture(id string, startedAt time.Time) model.RunResult {
	return model.RunResult{
		ID: id,
		Job: model.ConversionJob{
			Files:     []string{"/src/a.png", "/src/b.png"},
			Format:    model.FormatJPG,
			OutputDir: "/out",
		},
		State:     model.TerminalStateCompleted,
		Processed: 2,
		Total:     2,
		Outcomes: []model.ConversionOutcome{
			model.Saved("/src/a.png", "/out/a.jpg"),
			model.Saved("/src/b.png", "/out/b.jpg"),
		},
		StartedAt: startedAt,
		EndedAt:   startedAt.Add(time.Second),
	}
}

func TestRepository(t *testing.T) {
	t0 := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository)
	}{
		"Creating and getting a run should work.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateRun(ctx, runFixture("r1", t0)))

				got, err := repo.GetRun(ctx, "r1")
				require.NoError(t, err)
				assert.Equal(t, runFixture("r1", t0), *got)
			},
		},

		"Getting a missing run should fail with not found.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				_, err := repo.GetRun(ctx, "missing")
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},

		"Creating a duplicated run should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateRun(ctx, runFixture("r1", t0)))
				err := repo.CreateRun(ctx, runFixture("r1", t0))
				assert.ErrorIs(t, err, model.ErrAlreadyExists)
			},
		},

		"Creating a run without ID should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.CreateRun(ctx, runFixture("", t0))
				assert.ErrorIs(t, err, model.ErrValidation)
			},
		},

		"Listing should return newest runs first.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateRun(ctx, runFixture("r1", t0)))
				require.NoError(t, repo.CreateRun(ctx, runFixture("r3", t0.Add(2*time.Hour))))
				require.NoError(t, repo.CreateRun(ctx, runFixture("r2", t0.Add(time.Hour))))

				runs, err := repo.ListRuns(ctx)
				require.NoError(t, err)
				require.Len(t, runs, 3)
				assert.Equal(t, "r3", runs[0].ID)
				assert.Equal(t, "r2", runs[1].ID)
				assert.Equal(t, "r1", runs[2].ID)
			},
		},

		"Mutating a returned run should not change the stored one.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateRun(ctx, runFixture("r1", t0)))

				got, err := repo.GetRun(ctx, "r1")
				require.NoError(t, err)
				got.Job.Files[0] = "changed"

				again, err := repo.GetRun(ctx, "r1")
				require.NoError(t, err)
				assert.Equal(t, "/src/a.png", again.Job.Files[0])
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
			require.NoError(t, err)

			test.actions(context.Background(), t, repo)
		})
	}
}
