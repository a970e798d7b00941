package lib

import (
	"errors"

	"github.com/slok/imgconv/internal/model"
)

var (
	// ErrNotValid is returned when the conversion request is not valid
	// (e.g. no supported files or no output format).
	ErrNotValid = errors.New("not valid")
	// ErrNotFound is returned when a run is not in the history.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRunning is returned when a conversion is requested while another is active.
	ErrAlreadyRunning = errors.New("already running")
	// ErrFilesystem is returned when the output directory can't be prepared.
	ErrFilesystem = errors.New("filesystem error")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrValidation):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrAlreadyRunning):
		return joinErrors(err, ErrAlreadyRunning)
	case errors.Is(err, model.ErrFilesystem):
		return joinErrors(err, ErrFilesystem)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
