package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/imgconv/internal/model"
)

// JobYAMLRepository loads conversion jobs from YAML files.
type JobYAMLRepository struct {
	fs fs.FS
}

// NewJobYAMLRepository creates a new YAML job repository.
func NewJobYAMLRepository(filesystem fs.FS) *JobYAMLRepository {
	return &JobYAMLRepository{fs: filesystem}
}

// GetJob loads a conversion job from a YAML file.
// Paths are returned as written, the caller resolves relative ones and applies
// the selection rules.
func (r *JobYAMLRepository) GetJob(ctx context.Context, jobPath string) (model.ConversionJob, error) {
	data, err := fs.ReadFile(r.fs, jobPath)
	if err != nil {
		return model.ConversionJob{}, fmt.Errorf("reading job file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ConversionJob{}, ctx.Err()
	}

	var job JobFile
	if err := yaml.Unmarshal(data, &job); err != nil {
		return model.ConversionJob{}, fmt.Errorf("parsing YAML: %w", err)
	}

	mj, err := job.toModel()
	if err != nil {
		return model.ConversionJob{}, fmt.Errorf("invalid job: %w", err)
	}

	return mj, nil
}

// JobFile represents the YAML structure of a conversion job.
type JobFile struct {
	Files     []string `yaml:"files"`
	Format    string   `yaml:"format"`
	OutputDir string   `yaml:"output_dir"`
}

func (j JobFile) toModel() (model.ConversionJob, error) {
	if len(j.Files) == 0 {
		return model.ConversionJob{}, fmt.Errorf("files are required: %w", model.ErrValidation)
	}

	f, err := model.ParseFormat(j.Format)
	if err != nil {
		return model.ConversionJob{}, err
	}

	files := make([]string, 0, len(j.Files))
	for _, p := range j.Files {
		if p == "" {
			return model.ConversionJob{}, fmt.Errorf("empty file path: %w", model.ErrValidation)
		}
		files = append(files, p)
	}

	return model.ConversionJob{
		Files:     files,
		Format:    f,
		OutputDir: j.OutputDir,
	}, nil
}
