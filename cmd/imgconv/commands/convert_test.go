package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/model"
)

func TestConvertCommandRequest(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte("files: [a.png, /abs/b.png]\nformat: webp\noutput_dir: out\n"), 0o644))

	tests := map[string]struct {
		cmd          ConvertCommand
		expPaths     []string
		expFormat    model.Format
		expOutputDir string
		expErr       bool
	}{
		"Job file values should be resolved against the job file directory.": {
			cmd:          ConvertCommand{jobFile: jobPath},
			expPaths:     []string{filepath.Join(dir, "a.png"), "/abs/b.png"},
			expFormat:    model.FormatWebP,
			expOutputDir: filepath.Join(dir, "out"),
		},
		"Command line values should override the job file.": {
			cmd:          ConvertCommand{jobFile: jobPath, files: []string{"c.gif"}, to: "JPEG", outputDir: "/tmp/x"},
			expPaths:     []string{filepath.Join(dir, "a.png"), "/abs/b.png", "c.gif"},
			expFormat:    model.FormatJPG,
			expOutputDir: "/tmp/x",
		},
		"Without job file nor format the request should fail.": {
			cmd:    ConvertCommand{files: []string{"a.png"}},
			expErr: true,
		},
		"Missing job file should fail.": {
			cmd:    ConvertCommand{jobFile: filepath.Join(dir, "missing.yaml"), to: "png"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := test.cmd.request(context.Background())
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, test.expPaths, req.Paths)
			assert.Equal(t, test.expFormat, req.Format)
			assert.Equal(t, test.expOutputDir, req.OutputDir)
		})
	}
}

func TestConvertCommandDefaultOutputDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	req, err := ConvertCommand{files: []string{"a.png"}, to: "ico"}.request(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "output"), req.OutputDir)
	assert.Equal(t, model.FormatICO, req.Format)
}

func TestConvertCommandRequestRelativeJobFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "jobs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobs", "job.yaml"), []byte("files: [a.png]\nformat: gif\n"), 0o644))
	t.Chdir(dir)

	req, err := ConvertCommand{jobFile: filepath.Join("jobs", "job.yaml")}.request(context.Background())
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(wd, "jobs", "a.png")}, req.Paths)
	assert.Equal(t, model.FormatGIF, req.Format)
}
