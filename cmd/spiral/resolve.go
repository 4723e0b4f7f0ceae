// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/registry"
	"github.com/bureau-foundation/spiral/lib/solver"
)

type resolveParams struct {
	cli.JSONOutput
	cli.Verbosity
	optionParams
	problemParams
	Query string `json:"-" flag:"query" desc:"JSON query file (comments allowed) instead of the transform flags"`
}

func resolveCommand() *cli.Command {
	var params resolveParams
	return &cli.Command{
		Name:    "resolve",
		Summary: "Find the artifact that exports a transform",
		Description: `Resolve a transform to the first artifact, in scan order, whose metadata
lists a structurally identical variant. The transform is given either
by the transform flags or by a query file whose fields are those of a
metadata variant; fields the query leaves out match anything.

Exits 1 when no artifact matches and 2 when the request itself is
invalid.`,
		Examples: []cli.Example{
			{
				Description: "Find a double-precision 3-D complex transform",
				Command:     "spiral resolve --kind MDDFT --dims 64,64,64",
			},
			{
				Description: "Resolve a query file",
				Command:     "spiral resolve --query mdprdft.jsonc --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("resolve", &params)
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

			var query registry.Query
			if params.Query != "" {
				if err := readJSONC(params.Query, &query); err != nil {
					return err
				}
			} else {
				descriptor, err := params.descriptor(options)
				if err != nil {
					return err
				}
				job, err := solver.JobFor(descriptor, *options)
				if err != nil {
					return err
				}
				query = registry.QueryFor(job.Variant)
			}

			logger := cli.NewCommandLogger().With("command", "resolve")
			resolver := registry.NewResolver(params.scan(options, logger))
			match, ok := resolver.Resolve(query)
			if !ok {
				fmt.Fprintf(os.Stderr, "no artifact exports %v\n", query)
				return &cli.ExitError{Code: 1}
			}

			if done, err := params.EmitJSON(ctx, match); done {
				return err
			}
			_, err = fmt.Fprintf(cli.Stdout(ctx), "%s\t%s\t%s\n", match.Path, match.Names.Exec, describeVariant(match.Variant))
			return err
		},
	}
}
