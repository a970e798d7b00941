package lib

import (
	"time"

	"github.com/slok/imgconv/internal/job"
	"github.com/slok/imgconv/internal/model"
)

// Format is an output image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
	FormatTIFF Format = "tiff"
	FormatICO  Format = "ico"
)

// Formats returns the supported output formats.
func Formats() []Format {
	fs := make([]Format, 0, len(model.Formats))
	for _, f := range model.Formats {
		fs = append(fs, Format(f))
	}
	return fs
}

// ParseFormat parses a format name case-insensitively, accepting aliases like "jpeg".
func ParseFormat(s string) (Format, error) {
	f, err := model.ParseFormat(s)
	if err != nil {
		return "", mapError(err)
	}
	return Format(f), nil
}

// RunState is the way a run finished.
type RunState string

const (
	// RunStateCompleted indicates every file was processed.
	RunStateCompleted RunState = "completed"
	// RunStateStopped indicates the run was stopped before processing every file.
	RunStateStopped RunState = "stopped"
	// RunStateFailed indicates the run could not start converting.
	RunStateFailed RunState = "failed"
)

// Command controls an active conversion.
type Command string

const (
	CommandPause       Command = "pause"
	CommandResume      Command = "resume"
	CommandTogglePause Command = "toggle-pause"
	CommandStop        Command = "stop"
)

// Progress is reported before each file is converted.
type Progress struct {
	// Processed is the 1-based position of the file.
	Processed int
	Total     int
	FileName  string
}

// Outcome is the result of converting a single file.
type Outcome struct {
	InputPath string
	// OutputPath is empty for failed files.
	OutputPath string
	Failed     bool
	// Reason is the failure description of failed files.
	Reason string
}

// Run is the report of a finished conversion run.
type Run struct {
	// ID is the unique identifier (ULID) of the run.
	ID        string
	Files     []string
	Format    Format
	OutputDir string
	State     RunState
	Processed int
	Total     int
	Outcomes  []Outcome
	StartedAt time.Time
	EndedAt   time.Time
}

func fromInternalRun(r model.RunResult) Run {
	run := Run{
		ID:        r.ID,
		Files:     append([]string{}, r.Job.Files...),
		Format:    Format(r.Job.Format),
		OutputDir: r.Job.OutputDir,
		State:     RunState(r.State),
		Processed: r.Processed,
		Total:     r.Total,
		Outcomes:  make([]Outcome, 0, len(r.Outcomes)),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
	for _, o := range r.Outcomes {
		run.Outcomes = append(run.Outcomes, fromInternalOutcome(o))
	}
	return run
}

func fromInternalRunList(rs []model.RunResult) []Run {
	runs := make([]Run, 0, len(rs))
	for _, r := range rs {
		runs = append(runs, fromInternalRun(r))
	}
	return runs
}

func fromInternalOutcome(o model.ConversionOutcome) Outcome {
	return Outcome{
		InputPath:  o.InputPath,
		OutputPath: o.OutputPath,
		Failed:     o.IsFailed(),
		Reason:     o.Reason,
	}
}

func toInternalCommand(c Command) (job.Command, bool) {
	switch c {
	case CommandPause:
		return job.CommandPause, true
	case CommandResume:
		return job.CommandResume, true
	case CommandTogglePause:
		return job.CommandTogglePause, true
	case CommandStop:
		return job.CommandStop, true
	}
	return 0, false
}
