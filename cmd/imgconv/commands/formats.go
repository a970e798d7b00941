package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/printer"
)

type FormatsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewFormatsCommand returns the formats command.
func NewFormatsCommand(rootCmd *RootCommand, app *kingpin.Application) *FormatsCommand {
	c := &FormatsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("formats", "List the supported output image formats.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c FormatsCommand) Name() string { return c.Cmd.FullCommand() }

func (c FormatsCommand) Run(ctx context.Context) error {
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintFormats(model.Formats); err != nil {
		return fmt.Errorf("could not print formats: %w", err)
	}

	return nil
}
