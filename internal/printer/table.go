package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/slok/imgconv/internal/model"
)

// TablePrinter prints conversion information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintRunList prints runs in a table format.
func (t *TablePrinter) PrintRunList(runs []model.RunResult) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tSTATE\tFORMAT\tPROCESSED\tFAILED\tSTARTED\tDURATION")

	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\t%s\n",
			r.ID,
			r.State,
			r.Job.Format,
			r.Processed,
			r.Total,
			r.Failures(),
			TimeAgo(r.StartedAt),
			FormatDuration(r.Duration()),
		)
	}

	return nil
}

// PrintRun prints a detailed run report.
func (t *TablePrinter) PrintRun(run model.RunResult) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", run.ID)
	fmt.Fprintf(t.writer, "State:      %s\n", run.State)
	fmt.Fprintf(t.writer, "Format:     %s\n", run.Job.Format)
	fmt.Fprintf(t.writer, "Output:     %s\n", run.Job.OutputDir)
	fmt.Fprintf(t.writer, "Processed:  %s/%s\n", humanize.Comma(int64(run.Processed)), humanize.Comma(int64(run.Total)))
	fmt.Fprintf(t.writer, "Saved:      %d\n", run.Saved())
	fmt.Fprintf(t.writer, "Failed:     %d\n", run.Failures())
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(run.StartedAt))
	fmt.Fprintf(t.writer, "Ended:      %s\n", FormatTimestamp(run.EndedAt))
	fmt.Fprintf(t.writer, "Duration:   %s\n", FormatDuration(run.Duration()))

	if len(run.Outcomes) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "FILE\tSTATUS\tDETAIL")
	for _, o := range run.Outcomes {
		detail := o.OutputPath
		if o.IsFailed() {
			detail = o.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.FileName, o.Status, detail)
	}

	return nil
}

// PrintFormats prints the supported output formats.
func (t *TablePrinter) PrintFormats(formats []model.Format) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "FORMAT\tALIASES")
	for _, f := range formats {
		aliases := "-"
		if a := f.Aliases(); len(a) > 0 {
			aliases = strings.Join(a, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\n", f, aliases)
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}
