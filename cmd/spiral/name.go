// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/atomicfile"
	"github.com/bureau-foundation/spiral/lib/solver"
)

type nameParams struct {
	cli.JSONOutput
	optionParams
	problemParams
}

func nameCommand() *cli.Command {
	var params nameParams
	return &cli.Command{
		Name:    "name",
		Summary: "Print the canonical artifact name of a transform",
		Description: `Print the canonical name of a transform: the exec symbol its artifact
exports and the stem of the artifact file. With --json, print the whole
metadata variant the artifact carries.`,
		Examples: []cli.Example{
			{Command: "spiral name --kind BATDFT --dims 64 --batch-dims 16 --write-stride Block"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("name", &params)
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
			descriptor, err := params.descriptor(options)
			if err != nil {
				return err
			}
			job, err := solver.JobFor(descriptor, *options)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(ctx, job.Variant); done {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout(ctx), job.Name)
			return err
		},
	}
}

type scriptParams struct {
	optionParams
	problemParams
	PrintRuleTree bool   `json:"-" flag:"printruletree" desc:"ask the generator to print its rule tree"`
	Output        string `json:"-" flag:"output,o" desc:"write the script to this file instead of stdout"`
}

func scriptCommand() *cli.Command {
	var params scriptParams
	return &cli.Command{
		Name:    "script",
		Summary: "Print the generator script of a transform",
		Description: `Print the script the code generator turns into the transform's source.
"spiral build" runs the same script through the configured toolchain.`,
		Examples: []cli.Example{
			{
				Description: "Script for a CUDA real convolution",
				Command:     "spiral script --platform CUDA --kind MDRCONV --dims 32,32,32",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("script", &params)
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
			if params.PrintRuleTree {
				options.PrintRuleTree = true
			}
			descriptor, err := params.descriptor(options)
			if err != nil {
				return err
			}
			job, err := solver.JobFor(descriptor, *options)
			if err != nil {
				return err
			}
			if params.Output != "" {
				return atomicfile.Write(params.Output, []byte(job.Script), 0o644)
			}
			_, err = fmt.Fprint(cli.Stdout(ctx), job.Script)
			return err
		},
	}
}
