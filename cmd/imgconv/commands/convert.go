package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/imgconv/internal/app/convert"
	"github.com/slok/imgconv/internal/codec/native"
	"github.com/slok/imgconv/internal/control"
	"github.com/slok/imgconv/internal/conventions"
	"github.com/slok/imgconv/internal/job"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/printer"
	"github.com/slok/imgconv/internal/storage"
	"github.com/slok/imgconv/internal/storage/io"
	"github.com/slok/imgconv/internal/storage/memory"
	"github.com/slok/imgconv/internal/storage/sqlite"
)

type ConvertCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	files      []string
	to         string
	outputDir  string
	jobFile    string
	noHistory  bool
	noControls bool
}

// NewConvertCommand returns the convert command.
func NewConvertCommand(rootCmd *RootCommand, app *kingpin.Application) *ConvertCommand {
	c := &ConvertCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("convert", "Convert a batch of images to a single output format.")
	c.Cmd.Arg("files", "Image files to convert, unsupported or missing files are ignored.").StringsVar(&c.files)
	c.Cmd.Flag("to", "Output image format (png, jpg, gif, bmp, webp, tiff, ico).").Short('t').StringVar(&c.to)
	c.Cmd.Flag("output-dir", "Directory where converted images are written (default: ./output).").Short('o').StringVar(&c.outputDir)
	c.Cmd.Flag("job-file", "Path to a YAML conversion job file.").Short('f').StringVar(&c.jobFile)
	c.Cmd.Flag("no-history", "Don't record the run in the history database.").BoolVar(&c.noHistory)
	c.Cmd.Flag("no-controls", "Don't read pause/resume/stop controls from standard input.").BoolVar(&c.noControls)

	return c
}

func (c ConvertCommand) Name() string { return c.Cmd.FullCommand() }

func (c ConvertCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	repo, closeRepo, err := c.repository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer closeRepo()

	cdc, err := native.NewCodec(native.CodecConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create codec: %w", err)
	}

	// Notifications are rendered on this goroutine, never on the conversion worker.
	dispatcher := job.NewDispatcher(job.MultiSink{
		printer.NewProgressBar(c.rootCmd.Stderr),
		job.NewLogSink(logger),
	})
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		_ = dispatcher.Run(context.WithoutCancel(ctx))
	}()
	defer func() {
		dispatcher.Close()
		<-dispatcherDone
	}()

	ctrl, err := job.NewController(job.ControllerConfig{
		Codec:  cdc,
		Sink:   dispatcher,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}

	svc, err := convert.NewService(convert.ServiceConfig{
		Controller: ctrl,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if !c.noControls {
		ctrlCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		req.Commands = control.ReadCommands(ctrlCtx, c.rootCmd.Stdin, logger)
		fmt.Fprintln(c.rootCmd.Stderr, control.Help)
	}

	res, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not convert images: %w", err)
	}

	// Wait for the terminal notification before printing the summary.
	dispatcher.Close()
	<-dispatcherDone

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	msg := fmt.Sprintf("Run %s %s: %d saved, %d failed, output in %s", res.ID, res.State, res.Saved(), res.Failures(), res.Job.OutputDir)
	if err := p.PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}

// request merges the job file and the command line, command line wins.
func (c ConvertCommand) request(ctx context.Context) (convert.Request, error) {
	var fileJob model.ConversionJob
	jobDir := ""
	if c.jobFile != "" {
		jobPath, err := filepath.Abs(c.jobFile)
		if err != nil {
			return convert.Request{}, fmt.Errorf("could not resolve job file path: %w", err)
		}
		jobDir = filepath.Dir(jobPath)

		jobRepo := io.NewJobYAMLRepository(os.DirFS(jobDir))
		fileJob, err = jobRepo.GetJob(ctx, filepath.Base(jobPath))
		if err != nil {
			return convert.Request{}, fmt.Errorf("could not load job file: %w", err)
		}
	}

	paths := make([]string, 0, len(fileJob.Files)+len(c.files))
	for _, p := range fileJob.Files {
		paths = append(paths, resolvePath(jobDir, p))
	}
	paths = append(paths, c.files...)

	format := fileJob.Format
	if c.to != "" || format == "" {
		f, err := model.ParseFormat(c.to)
		if err != nil {
			return convert.Request{}, fmt.Errorf("invalid output format: %w", err)
		}
		format = f
	}

	outputDir := c.outputDir
	if outputDir == "" && fileJob.OutputDir != "" {
		outputDir = resolvePath(jobDir, fileJob.OutputDir)
	}
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return convert.Request{}, fmt.Errorf("could not get working directory: %w", err)
		}
		outputDir = conventions.OutputDir(wd)
	}

	return convert.Request{
		Paths:     paths,
		Format:    format,
		OutputDir: outputDir,
	}, nil
}

func (c ConvertCommand) repository(ctx context.Context) (storage.RunRepository, func(), error) {
	if c.noHistory {
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: c.rootCmd.Logger})
		return repo, func() {}, err
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	return repo, func() { _ = repo.Close() }, nil
}

func resolvePath(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
