// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/build"
	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/solver"
)

type buildParams struct {
	cli.Verbosity
	optionParams
	problemParams
	KeepTemp bool   `json:"-" flag:"keeptemp" desc:"keep the build work directory"`
	WorkDir  string `json:"-" flag:"workdir" desc:"parent of the build work directory (default $SP_WORKDIR or the system temporary directory)"`
}

// builder returns the build driver for options, running the
// configured generator and compiler.
func builder(options *config.Options, logger *slog.Logger) *build.Driver {
	toolchain := build.NewExecToolchain(options.Toolchain, options.Platform)
	return build.NewDriver(*options, toolchain, logger.With("component", "build"))
}

func buildCommand() *cli.Command {
	var params buildParams
	return &cli.Command{
		Name:    "build",
		Summary: "Generate, compile and install the artifact of a transform",
		Description: `Write the transform's generator script and metadata unit into a work
directory, run the generator and the native compiler, and install the
artifact into the standard library directory. The installed artifact
is checked to export the transform before it replaces anything.

The generator and compiler come from the toolchain section of the
options file; the defaults are "spiral" and cc, nvcc or hipcc.`,
		Examples: []cli.Example{
			{Command: "spiral build --kind MDPRDFT --dims 128,128,128 --single"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("build", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Usagef("unexpected argument: %s", args[0])
			}
			options, err := params.load()
			if err != nil {
				return err
			}
			if err := resolveGPU(options); err != nil {
				return err
			}
			if params.KeepTemp {
				options.KeepTemp = true
			}
			if params.WorkDir != "" {
				options.WorkDir = params.WorkDir
			}
			descriptor, err := params.descriptor(options)
			if err != nil {
				return err
			}
			job, err := solver.JobFor(descriptor, *options)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "build")
			path, err := builder(options, logger).Build(ctx, job)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout(ctx), path)
			return err
		},
	}
}
