// Package lib provides a Go SDK to batch convert images programmatically.
//
// It runs the same conversion loop as the imgconv CLI: one file at a time, in
// order, with pause, resume and stop controls, and records every finished run
// in a history database.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	run, err := client.Convert(ctx, lib.ConvertOpts{
//	    Files:     []string{"a.png", "b.png"},
//	    Format:    lib.FormatJPG,
//	    OutputDir: "output",
//	})
//
// # Controls
//
// Send [Command] values on [ConvertOpts.Commands] to pause, resume or stop the
// run. A paused run waits before the next file, a stopped run keeps the files
// already written. Cancelling the context passed to [Client.Convert] stops the
// run too.
//
// # Errors
//
// Errors can be checked with [errors.Is] against [ErrNotValid], [ErrNotFound],
// [ErrAlreadyRunning] and [ErrFilesystem]. Single file failures don't return an
// error, they are reported as failed [Outcome] values in the [Run].
package lib
