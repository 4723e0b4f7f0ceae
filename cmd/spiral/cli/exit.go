// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ExitUsage is the exit code for requests rejected before any work is
// done, such as an unknown flag or an invalid transform description.
const ExitUsage = 2

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have written its own
// output already.
//
// A non-zero exit can be a valid outcome rather than a failure:
// "spiral resolve" exits 1 when no artifact matches the query.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to tell a handled non-zero exit from an error to
// display.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// UsageError marks a request the caller has to fix. It exits with
// [ExitUsage] so scripts can tell it from a request that was valid but
// could not be satisfied.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Usage wraps err in a [UsageError]. A nil err stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Err: err}
}

// Usagef is [Usage] over a formatted error.
func Usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Status maps an error returned by [Command.Execute] to the process
// exit code, and reports whether the error still needs printing.
func Status(err error) (code int, report bool) {
	if err == nil {
		return 0, false
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code, false
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage, true
	}
	return 1, true
}
