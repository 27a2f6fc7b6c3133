package main

import (
	"errors"

	"github.com/aosc-dev/p-vector/internal/schedule"
)

// exitCodeFromError maps a RunE error to the exit code spec.md §6's
// table mandates, when the error identifies a specific condition.
// Everything else falls back to exitCodeFor's default (1).
func exitCodeFromError(err error) (int, bool) {
	var lockErr *schedule.LockContentionError
	if errors.As(err, &lockErr) {
		return schedule.ExitLockContention, true
	}
	var fatalErr *fatalRuntimeError
	if errors.As(err, &fatalErr) {
		return 3, true
	}
	return 0, false
}

// fatalRuntimeError marks an error as a fatal runtime failure (exit
// code 3) rather than a user/argument error (exit code 1), per
// spec.md §6.
type fatalRuntimeError struct {
	err error
}

func (e *fatalRuntimeError) Error() string { return e.err.Error() }
func (e *fatalRuntimeError) Unwrap() error { return e.err }

func fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalRuntimeError{err: err}
}
