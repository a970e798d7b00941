package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/model"
)

func TestJobYAMLRepository_GetJob(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expJob model.ConversionJob
		expErr bool
		errMsg string
	}{
		"Valid job should load successfully.": {
			fs: fstest.MapFS{
				"job.yaml": &fstest.MapFile{
					Data: []byte(`files:
  - /pics/a.png
  - /pics/b.gif
format: JPEG
output_dir: /out
`),
				},
			},
			path: "job.yaml",
			expJob: model.ConversionJob{
				Files:     []string{"/pics/a.png", "/pics/b.gif"},
				Format:    model.FormatJPG,
				OutputDir: "/out",
			},
		},
		"Job without output dir should leave it empty for the caller default.": {
			fs: fstest.MapFS{
				"job.yaml": &fstest.MapFile{
					Data: []byte(`files: [/pics/a.png]
format: webp
`),
				},
			},
			path: "job.yaml",
			expJob: model.ConversionJob{
				Files:  []string{"/pics/a.png"},
				Format: model.FormatWebP,
			},
		},
		"Relative paths should be kept as written.": {
			fs: fstest.MapFS{
				"jobs/job.yaml": &fstest.MapFile{
					Data: []byte(`files: [a.png, /abs/b.png]
format: ico
output_dir: out
`),
				},
			},
			path: "jobs/job.yaml",
			expJob: model.ConversionJob{
				Files:     []string{"a.png", "/abs/b.png"},
				Format:    model.FormatICO,
				OutputDir: "out",
			},
		},
		"Missing file should return error.": {
			fs:     fstest.MapFS{},
			path:   "nonexistent.yaml",
			expErr: true,
			errMsg: "reading job file",
		},
		"Invalid YAML should return error.": {
			fs: fstest.MapFS{
				"invalid.yaml": &fstest.MapFile{Data: []byte(`invalid: yaml: content: {}`)},
			},
			path:   "invalid.yaml",
			expErr: true,
			errMsg: "parsing YAML",
		},
		"Job without files should return error.": {
			fs: fstest.MapFS{
				"job.yaml": &fstest.MapFile{Data: []byte(`format: png`)},
			},
			path:   "job.yaml",
			expErr: true,
			errMsg: "files are required",
		},
		"Job without format should return error.": {
			fs: fstest.MapFS{
				"job.yaml": &fstest.MapFile{Data: []byte(`files: [a.png]`)},
			},
			path:   "job.yaml",
			expErr: true,
			errMsg: "output format is required",
		},
		"Job with unknown format should return error.": {
			fs: fstest.MapFS{
				"job.yaml": &fstest.MapFile{Data: []byte("files: [a.png]\nformat: psd\n")},
			},
			path:   "job.yaml",
			expErr: true,
			errMsg: "unsupported output format",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewJobYAMLRepository(tc.fs)
			job, err := repo.GetJob(context.Background(), tc.path)

			if tc.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expJob, job)
		})
	}
}

func TestJobYAMLRepository_GetJob_ContextCancellation(t *testing.T) {
	fs := fstest.MapFS{
		"job.yaml": &fstest.MapFile{Data: []byte("files: [a.png]\nformat: png\n")},
	}

	repo := NewJobYAMLRepository(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetJob(ctx, "job.yaml")
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestJobYAMLRepository_GetJob_ValidationSentinel(t *testing.T) {
	fs := fstest.MapFS{
		"job.yaml": &fstest.MapFile{Data: []byte("format: png\n")},
	}

	_, err := NewJobYAMLRepository(fs).GetJob(context.Background(), "job.yaml")
	assert.ErrorIs(t, err, model.ErrValidation)
}
