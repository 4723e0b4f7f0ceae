// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/version"
)

func metadataCommand() *cli.Command {
	return &cli.Command{
		Name:    "metadata",
		Summary: "List, encode and decode artifact metadata",
		Subcommands: []*cli.Command{
			metadataListCommand(),
			metadataEncodeCommand(),
			metadataDecodeCommand(),
		},
	}
}

type metadataListParams struct {
	cli.JSONOutput
	cli.Verbosity
	optionParams
}

func metadataListCommand() *cli.Command {
	var params metadataListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List every artifact with metadata in the library directories",
		Description: `Scan the standard library directory and every directory on the library
path, in that order, and list each artifact that carries a metadata
region with the transforms it exports. The order of the listing is the
order in which "spiral resolve" considers artifacts. Artifacts built by
another version of the build driver are marked.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Usagef("unexpected argument: %s", args[0])
			}
			options, err := params.load()
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger().With("command", "metadata/list")
			records := params.scan(options, logger)

			if done, err := params.EmitJSON(ctx, records); done {
				return err
			}
			current := version.Current("", time.Now())
			writer := tabwriter.NewWriter(cli.Stdout(ctx), 2, 0, 2, ' ', 0)
			for _, record := range records {
				note := ""
				if built, ok := version.Parse(record.Document.BuildInfo); ok && built.Compare(current).Stale() {
					note = fmt.Sprintf("\tbuilt by %s (%s)", built.Version, built.Commit)
				}
				fmt.Fprintf(writer, "%s\t%s%s\n", record.Path, record.Digest.Short(), note)
				for _, variant := range record.Document.Transforms {
					fmt.Fprintf(writer, "  %s\t%s\n", variant.Names.Exec, describeVariant(variant))
				}
			}
			return writer.Flush()
		},
	}
}

// describeVariant is the one-line text form of a variant's structure.
func describeVariant(variant metadata.Variant) string {
	parts := []string{variant.TransformType, joinDims(variant.Dimensions)}
	for _, field := range []string{variant.Direction, variant.Precision, variant.Order, variant.Platform} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	if variant.BatchSize != 0 {
		parts = append(parts, fmt.Sprintf("batch=%d", variant.BatchSize))
	}
	if variant.ReadStride != "" || variant.WriteStride != "" {
		parts = append(parts, "strides="+variant.ReadStride+"/"+variant.WriteStride)
	}
	return strings.Join(parts, " ")
}

func joinDims(dims []int) string {
	text := make([]string, len(dims))
	for i, extent := range dims {
		text[i] = fmt.Sprint(extent)
	}
	return strings.Join(text, "x")
}

type metadataEncodeParams struct {
	Variable string `json:"-" flag:"variable" desc:"C variable name (default <exec name of the first transform>_metadata)"`
	Output   string `json:"-" flag:"output,o" desc:"write the C source to this file instead of stdout"`
}

func metadataEncodeCommand() *cli.Command {
	var params metadataEncodeParams
	return &cli.Command{
		Name:    "encode",
		Summary: "Encode a metadata document as a C source unit",
		Description: `Read a metadata document, JSON with optional comments, validate it and
print the C translation unit that embeds it as a metadata region.
Linking the unit into an artifact makes the artifact resolvable.`,
		Usage: "spiral metadata encode [flags] <document.json>",
		Examples: []cli.Example{
			{
				Description: "Write the metadata unit for a hand-built artifact",
				Command:     "spiral metadata encode -o zdft_fwd_16_meta.c zdft_fwd_16.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("encode", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: spiral metadata encode [flags] <document.json>")
			}
			var document metadata.Document
			if err := readJSONC(args[0], &document); err != nil {
				return err
			}
			if err := document.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			variable := params.Variable
			if variable == "" {
				if len(document.Transforms) == 0 {
					return fmt.Errorf("%s has no transforms; name the variable with --variable", args[0])
				}
				variable = document.Transforms[0].Names.Exec + metadata.VariableSuffix
			}

			if params.Output != "" {
				return metadata.WriteSourceFile(params.Output, document, variable)
			}
			source, err := metadata.Encode(document, variable)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cli.Stdout(ctx), source)
			return err
		},
	}
}

func metadataDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:    "decode",
		Summary: "Print the metadata region of a file as canonical JSON",
		Description: `Find the metadata region in an artifact or a metadata C source unit and
print it as JSON with sorted keys. Exits 1 when the file has no region.`,
		Usage: "spiral metadata decode <file>",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: spiral metadata decode <file>")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			// Decode into a generic value so that fields this version
			// does not know still appear in the output.
			var document any
			found, err := metadata.Decode(data, &document)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if !found {
				fmt.Fprintf(os.Stderr, "%s has no metadata region\n", args[0])
				return &cli.ExitError{Code: 1}
			}
			text, err := metadata.CanonicalJSON(document)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout(ctx), text)
			return err
		},
	}
}

// readJSONC decodes a JSON file that may carry comments and trailing
// commas. Unknown fields are an error.
func readJSONC(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return cli.Usage(fmt.Errorf("%s: %w", path, err))
	}
	return nil
}
