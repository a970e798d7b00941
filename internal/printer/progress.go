package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize/english"

	"github.com/slok/imgconv/internal/model"
)

const (
	// MessageCompleted is printed when every file of a run has been processed.
	MessageCompleted = "all conversions completed"
	// MessageStopped is printed when a run ended before processing every file.
	MessageStopped = "conversion stopped"

	barWidth = 40
)

// ProgressBar renders run notifications on a terminal status writer.
// It's meant to be used as a job.ProgressSink.
type ProgressBar struct {
	w  io.Writer
	mu sync.Mutex
	// dirty is true when the last printed line is an unfinished bar line.
	dirty bool
}

// NewProgressBar returns a new progress bar that writes on w.
func NewProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{w: w}
}

// Progress redraws the bar with the file about to be converted.
func (p *ProgressBar) Progress(ev model.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := ev.Fraction() * 100
	filled := int(ev.Fraction() * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
	fmt.Fprintf(p.w, "\r\033[K  [%s] %3.0f%% %d/%d %s", bar, pct, ev.Processed, ev.Total, ev.FileName)
	p.dirty = true
}

// Outcome prints a line for failed files, saved files are only reflected on the bar.
func (p *ProgressBar) Outcome(o model.ConversionOutcome) {
	if !o.IsFailed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.breakLine()
	fmt.Fprintf(p.w, "%s: %s\n", o.FileName, o.Reason)
}

// Finished prints the terminal message of the run.
func (p *ProgressBar) Finished(res model.RunResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.breakLine()

	msg := MessageCompleted
	if res.State != model.TerminalStateCompleted {
		msg = MessageStopped
	}
	fmt.Fprintf(p.w, "%s (%s saved, %s failed, %d/%d processed)\n",
		msg,
		english.Plural(res.Saved(), "file", ""),
		english.Plural(res.Failures(), "file", ""),
		res.Processed,
		res.Total,
	)
}

func (p *ProgressBar) breakLine() {
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}
