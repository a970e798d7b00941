package job_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/job"
	logruslog "github.com/slok/imgconv/internal/log/logrus"
	"github.com/slok/imgconv/internal/model"
)

func TestDispatcherDeliversInOrderOnRunGoroutine(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	sink := &recorderSink{}
	d := job.NewDispatcher(sink)

	// Queue before anything consumes, the producer must not block.
	d.Progress(model.ProgressEvent{Processed: 1, Total: 2, FileName: "a.png"})
	d.Outcome(model.Saved("a.png", "out/a.jpg"))
	d.Progress(model.ProgressEvent{Processed: 2, Total: 2, FileName: "b.png"})
	d.Outcome(model.Saved("b.png", "out/b.jpg"))
	assert.Empty(sink.Progresses())

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(context.Background()) }()

	require.Eventually(func() bool { return len(sink.Outcomes()) == 2 }, time.Second, 5*time.Millisecond)
	d.Finished(model.RunResult{State: model.TerminalStateCompleted, Processed: 2, Total: 2})
	d.Close()

	select {
	case err := <-runErr:
		require.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after close")
	}

	assert.Equal([]model.ProgressEvent{
		{Processed: 1, Total: 2, FileName: "a.png"},
		{Processed: 2, Total: 2, FileName: "b.png"},
	}, sink.Progresses())
	require.Len(sink.Finishes(), 1)
	assert.Equal(model.TerminalStateCompleted, sink.Finishes()[0].State)

	// Closed dispatchers drop notifications.
	d.Finished(model.RunResult{})
	assert.Len(sink.Finishes(), 1)
}

func TestDispatcherStopsOnContextDone(t *testing.T) {
	d := job.NewDispatcher(nil)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()
	cancel()

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop on context cancel")
	}
}

func TestMultiSink(t *testing.T) {
	s1, s2 := &recorderSink{}, &recorderSink{}
	m := job.MultiSink{s1, s2}

	m.Progress(model.ProgressEvent{Processed: 1, Total: 1})
	m.Outcome(model.Saved("a.png", "a.jpg"))
	m.Finished(model.RunResult{State: model.TerminalStateStopped})

	for _, s := range []*recorderSink{s1, s2} {
		assert.Len(t, s.Progresses(), 1)
		assert.Len(t, s.Outcomes(), 1)
		assert.Len(t, s.Finishes(), 1)
	}
}

func TestLogSink(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	s := job.NewLogSink(logruslog.NewLogrus(logrus.NewEntry(l)))
	s.Progress(model.ProgressEvent{Processed: 0, Total: 2, FileName: "a.png"})
	s.Outcome(model.Failed("/src/a.png", errors.New("broken")))
	s.Outcome(model.Saved("/src/b.png", "/out/b.jpg"))
	s.Finished(model.RunResult{ID: "01TEST", State: model.TerminalStateCompleted, Processed: 2, Total: 2})

	out := buf.String()
	assert.Contains(out, "Converting a.png (0/2)")
	assert.Contains(out, "level=debug msg=\"Could not convert /src/a.png: broken\"")
	assert.Contains(out, "Saved /out/b.jpg")
	assert.Contains(out, "Run completed with 2/2 files processed")
	assert.Contains(out, "run-id=01TEST")
	assert.Contains(out, "svc=job.LogSink")
}

func TestLogSinkNilLogger(t *testing.T) {
	s := job.NewLogSink(nil)
	assert.NotPanics(t, func() {
		s.Outcome(model.Failed("a.png", errors.New("broken")))
		s.Finished(model.RunResult{})
	})
}
