// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// level is shared by every command logger so that --verbose, parsed
// after the logger exists, still takes effect.
var level = new(slog.LevelVar)

// Verbosity is an embeddable struct that adds --verbose to a
// command's parameter struct. [Command.Execute] applies it after flag
// parsing.
type Verbosity struct {
	Verbose bool `json:"-" flag:"verbose,v" desc:"log at debug level"`
}

// SetVerbose lowers the level of every command logger to debug.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// NewCommandLogger creates a structured logger for CLI commands. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected it uses slog.JSONHandler
// so build logs from scripts and CI stay machine-parseable.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger().With("command", "verify", "transform", name)
func NewCommandLogger() *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
