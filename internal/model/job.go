package model

import (
	"fmt"
	"path/filepath"
	"time"
)

// ConversionJob is the batch that a single run converts.
type ConversionJob struct {
	// Files are the input paths, deduplicated and in insertion order.
	Files     []string
	Format    Format
	OutputDir string
}

// Validate validates the conversion job.
func (j ConversionJob) Validate() error {
	if len(j.Files) == 0 {
		return fmt.Errorf("no files selected: %w", ErrValidation)
	}

	if j.Format == "" {
		return fmt.Errorf("output format is required: %w", ErrValidation)
	}

	if !j.Format.Valid() {
		return fmt.Errorf("unsupported output format %q: %w", j.Format, ErrValidation)
	}

	if j.OutputDir == "" {
		return fmt.Errorf("output directory is required: %w", ErrValidation)
	}

	return nil
}

// OutputPath returns the path where the converted version of inputPath is written.
func (j ConversionJob) OutputPath(inputPath string) string {
	return filepath.Join(j.OutputDir, OutputFileName(inputPath, j.Format))
}

// RunState is a snapshot of the run control flags.
type RunState struct {
	Running       bool
	Paused        bool
	StopRequested bool
}

// ProgressEvent is emitted once per file, before the file is converted.
type ProgressEvent struct {
	Processed int
	Total     int
	FileName  string
}

// Fraction returns the progress as a value between 0 and 1.
func (p ProgressEvent) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total)
}

// OutcomeStatus is the result kind of a single file conversion.
type OutcomeStatus string

const (
	OutcomeStatusSaved  OutcomeStatus = "saved"
	OutcomeStatusFailed OutcomeStatus = "failed"
)

// ConversionOutcome is the result of converting a single file.
type ConversionOutcome struct {
	Status     OutcomeStatus
	InputPath  string
	FileName   string
	OutputPath string
	Reason     string
}

// Saved returns a successful outcome.
func Saved(inputPath, outputPath string) ConversionOutcome {
	return ConversionOutcome{
		Status:     OutcomeStatusSaved,
		InputPath:  inputPath,
		FileName:   filepath.Base(inputPath),
		OutputPath: outputPath,
	}
}

// Failed returns a failed outcome.
func Failed(inputPath string, reason error) ConversionOutcome {
	return ConversionOutcome{
		Status:    OutcomeStatusFailed,
		InputPath: inputPath,
		FileName:  filepath.Base(inputPath),
		Reason:    reason.Error(),
	}
}

// IsFailed returns true if the outcome is a failure.
func (o ConversionOutcome) IsFailed() bool { return o.Status == OutcomeStatusFailed }

// TerminalState is the way a run finished.
type TerminalState string

const (
	TerminalStateCompleted TerminalState = "completed"
	TerminalStateStopped   TerminalState = "stopped"
	TerminalStateFailed    TerminalState = "failed"
)

// RunResult is the summary of a finished run.
type RunResult struct {
	ID        string
	Job       ConversionJob
	State     TerminalState
	Processed int
	Total     int
	Outcomes  []ConversionOutcome
	StartedAt time.Time
	EndedAt   time.Time
}

// Failures returns the number of failed outcomes.
func (r RunResult) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.IsFailed() {
			n++
		}
	}
	return n
}

// Saved returns the number of saved outcomes.
func (r RunResult) Saved() int {
	return len(r.Outcomes) - r.Failures()
}

// Duration returns how long the run took.
func (r RunResult) Duration() time.Duration {
	if r.EndedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
