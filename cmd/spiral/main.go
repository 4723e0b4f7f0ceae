// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command spiral inspects, resolves, builds and verifies precompiled
// FFT artifacts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own result (resolve with no match,
		// a failed verify) return an ExitError. Don't print a redundant
		// "error:" line for those.
		code, report := cli.Status(err)
		if report {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(code)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(cli.NewCommandLogger())
	return root().Execute(ctx, os.Args[1:])
}

func root() *cli.Command {
	return &cli.Command{
		Name: "spiral",
		Description: `Work with precompiled FFT artifacts.

Artifacts are shared libraries that carry a metadata region describing
the transforms they export. spiral scans the library directories for
them, resolves a transform description to an artifact, generates the
build script for a missing one, and checks artifact output against the
portable reference engine.`,
		Subcommands: []*cli.Command{
			metadataCommand(),
			resolveCommand(),
			nameCommand(),
			scriptCommand(),
			buildCommand(),
			verifyCommand(),
			capabilityCommand(),
			versionCommand(),
		},
	}
}
