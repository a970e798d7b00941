package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/imgconv/internal/model"
)

// JSONPrinter prints conversion information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a run in the list output (subset of fields).
type listItem struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Format    string    `json:"format"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
}

// runOutput represents the full run report output.
type runOutput struct {
	ID        string          `json:"id"`
	State     string          `json:"state"`
	Format    string          `json:"format"`
	OutputDir string          `json:"output_dir"`
	Files     []string        `json:"files"`
	Processed int             `json:"processed"`
	Total     int             `json:"total"`
	Outcomes  []outcomeOutput `json:"outcomes"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at"`
}

// outcomeOutput represents a single file conversion outcome.
type outcomeOutput struct {
	Status     string `json:"status"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// formatOutput represents a supported format.
type formatOutput struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintRunList prints runs in JSON format with a subset of fields.
func (j *JSONPrinter) PrintRunList(runs []model.RunResult) error {
	items := make([]listItem, len(runs))
	for i, r := range runs {
		items[i] = listItem{
			ID:        r.ID,
			State:     string(r.State),
			Format:    string(r.Job.Format),
			Processed: r.Processed,
			Total:     r.Total,
			Failed:    r.Failures(),
			StartedAt: r.StartedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintRun prints a detailed run report in JSON format.
func (j *JSONPrinter) PrintRun(run model.RunResult) error {
	output := runOutput{
		ID:        run.ID,
		State:     string(run.State),
		Format:    string(run.Job.Format),
		OutputDir: run.Job.OutputDir,
		Files:     run.Job.Files,
		Processed: run.Processed,
		Total:     run.Total,
		Outcomes:  make([]outcomeOutput, 0, len(run.Outcomes)),
		StartedAt: run.StartedAt.UTC(),
	}
	if output.Files == nil {
		output.Files = []string{}
	}

	for _, o := range run.Outcomes {
		output.Outcomes = append(output.Outcomes, outcomeOutput{
			Status:     string(o.Status),
			InputPath:  o.InputPath,
			OutputPath: o.OutputPath,
			Reason:     o.Reason,
		})
	}

	if !run.EndedAt.IsZero() {
		utcTime := run.EndedAt.UTC()
		output.EndedAt = &utcTime
	}

	return j.encode(output)
}

// PrintFormats prints the supported output formats in JSON format.
func (j *JSONPrinter) PrintFormats(formats []model.Format) error {
	items := make([]formatOutput, len(formats))
	for i, f := range formats {
		aliases := f.Aliases()
		if aliases == nil {
			aliases = []string{}
		}
		items[i] = formatOutput{Name: string(f), Aliases: aliases}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
