package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/imgconv/internal/app/runinspect"
	"github.com/slok/imgconv/internal/app/runlist"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/printer"
	"github.com/slok/imgconv/internal/storage/sqlite"
)

// NewHistoryCommand returns the parent command of the run history subcommands.
func NewHistoryCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("history", "Inspect the finished conversion runs.")
}

// HistoryListCommand lists the finished runs.
type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stateFilter string
	limit       int
	format      string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("list", "List the finished runs, newest first.")
	c.Cmd.Flag("state", "Filter by terminal state (completed, stopped, failed).").StringVar(&c.stateFilter)
	c.Cmd.Flag("limit", "Maximum number of runs to show (0 shows all).").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var stateFilter *model.TerminalState
	if c.stateFilter != "" {
		state := model.TerminalState(strings.ToLower(c.stateFilter))
		switch state {
		case model.TerminalStateCompleted, model.TerminalStateStopped, model.TerminalStateFailed:
			stateFilter = &state
		default:
			return fmt.Errorf("invalid state filter: %s (must be: completed, stopped, failed)", c.stateFilter)
		}
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := runlist.NewService(runlist.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.Run(ctx, runlist.Request{
		StateFilter: stateFilter,
		Limit:       c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd).PrintRunList(runs); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}

// HistoryShowCommand shows the report of a single run.
type HistoryShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ref    string
	format string
}

// NewHistoryShowCommand returns the history show command.
func NewHistoryShowCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryShowCommand {
	c := &HistoryShowCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("show", "Show the report of a finished run.")
	c.Cmd.Arg("run", "Run ID, unique ID prefix or 'latest'.").Default(runinspect.LatestRun).StringVar(&c.ref)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryShowCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := runinspect.NewService(runinspect.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	run, err := svc.Run(ctx, runinspect.Request{Ref: c.ref})
	if err != nil {
		return fmt.Errorf("could not get run: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd).PrintRun(*run); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}

func newPrinter(format string, rootCmd *RootCommand) printer.Printer {
	if format == "json" {
		return printer.NewJSONPrinter(rootCmd.Stdout)
	}
	return printer.NewTablePrinter(rootCmd.Stdout)
}
