package lib

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/job"
	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
)

func TestTranslateCommands(t *testing.T) {
	in := make(chan Command, 5)
	in <- CommandPause
	in <- Command("dance")
	in <- CommandResume
	in <- CommandTogglePause
	in <- CommandStop
	close(in)

	var got []job.Command
	for cmd := range translateCommands(context.Background(), in, log.Noop) {
		got = append(got, cmd)
	}

	assert.Equal(t, []job.Command{job.CommandPause, job.CommandResume, job.CommandTogglePause, job.CommandStop}, got)
	assert.Nil(t, translateCommands(context.Background(), nil, log.Noop))
}

func TestTranslateCommandsContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := translateCommands(ctx, make(chan Command), log.Noop)
	cancel()

	require.Eventually(t, func() bool {
		_, ok := <-out
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestMapError(t *testing.T) {
	tests := map[string]struct {
		err   error
		expIs error
	}{
		"Validation errors should map to not valid.":        {err: model.ErrValidation, expIs: ErrNotValid},
		"Not found errors should map to not found.":         {err: model.ErrNotFound, expIs: ErrNotFound},
		"Running errors should map to already running.":     {err: model.ErrAlreadyRunning, expIs: ErrAlreadyRunning},
		"Filesystem errors should map to filesystem error.": {err: model.ErrFilesystem, expIs: ErrFilesystem},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := mapError(test.err)
			assert.ErrorIs(t, err, test.expIs)
			assert.ErrorIs(t, err, test.err)
		})
	}

	assert.NoError(t, mapError(nil))
}

func TestFromInternalRun(t *testing.T) {
	t0 := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	run := fromInternalRun(model.RunResult{
		ID:        "id1",
		Job:       model.ConversionJob{Files: []string{"/a.png"}, Format: model.FormatGIF, OutputDir: "/out"},
		State:     model.TerminalStateStopped,
		Processed: 1,
		Total:     2,
		Outcomes:  []model.ConversionOutcome{model.Saved("/a.png", "/out/a.gif")},
		StartedAt: t0,
		EndedAt:   t0.Add(time.Second),
	})

	assert.Equal(t, Run{
		ID:        "id1",
		Files:     []string{"/a.png"},
		Format:    FormatGIF,
		OutputDir: "/out",
		State:     RunStateStopped,
		Processed: 1,
		Total:     2,
		Outcomes:  []Outcome{{InputPath: "/a.png", OutputPath: "/out/a.gif"}},
		StartedAt: t0,
		EndedAt:   t0.Add(time.Second),
	}, run)
}
