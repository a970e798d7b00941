package printer

import "github.com/slok/imgconv/internal/model"

// Printer knows how to print conversion information in different formats.
type Printer interface {
	PrintRunList(runs []model.RunResult) error
	PrintRun(run model.RunResult) error
	PrintFormats(formats []model.Format) error
	PrintMessage(msg string) error
}
