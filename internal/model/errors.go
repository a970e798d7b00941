package model

import "errors"

var (
	// ErrValidation is returned when the user input is not valid to start a run
	// (e.g no files selected or no format chosen).
	ErrValidation = errors.New("not valid")
	// ErrCodec is returned when a single image could not be decoded or encoded.
	ErrCodec = errors.New("codec error")
	// ErrFilesystem is returned when the output location can't be prepared.
	ErrFilesystem = errors.New("filesystem error")
	// ErrAlreadyRunning is returned when a run is requested while another one is active.
	ErrAlreadyRunning = errors.New("already running")
	// ErrNotRunning is returned when a control command is sent without an active run.
	ErrNotRunning = errors.New("not running")
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
)
