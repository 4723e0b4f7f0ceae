// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/cmplx"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/archive"
	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/native"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/registry"
	"github.com/bureau-foundation/spiral/lib/solver"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

type verifyParams struct {
	cli.JSONOutput
	cli.Verbosity
	optionParams
	problemParams
	Seed    int    `json:"-" flag:"seed" desc:"seed of the random test input" default:"1"`
	Build   bool   `json:"-" flag:"build" desc:"build the artifact when none resolves"`
	Save    string `json:"-" flag:"save" desc:"save the reference output to this snapshot file"`
	Compare string `json:"-" flag:"compare" desc:"compare the reference output with this snapshot file (use the seed it was saved with)"`
}

// check is the outcome of one comparison.
type check struct {
	Name      string  `json:"name"`
	MaxError  float64 `json:"max_error"`
	Tolerance float64 `json:"tolerance"`
	Passed    bool    `json:"passed"`
	Skipped   string  `json:"skipped,omitempty"`
	Detail    string  `json:"detail,omitempty"`
}

type verifyReport struct {
	Transform string  `json:"transform"`
	Platform  string  `json:"platform"`
	Artifact  string  `json:"artifact,omitempty"`
	Snapshot  string  `json:"snapshot,omitempty"`
	Checks    []check `json:"checks"`
	Passed    bool    `json:"passed"`
}

// compare records a check of got against want. A comparison that
// cannot be made (mismatched shapes) fails with the reason.
func (r *verifyReport) compare(name string, got, want *tensor.Tensor, tolerance float64) {
	result := check{Name: name, Tolerance: tolerance}
	difference, err := tensor.MaxAbsDiff(got, want)
	if err != nil {
		result.Detail = err.Error()
	} else {
		result.MaxError = difference
		result.Passed = difference <= tolerance
	}
	r.Checks = append(r.Checks, result)
}

func (r *verifyReport) skip(name, reason string) {
	r.Checks = append(r.Checks, check{Name: name, Passed: true, Skipped: reason})
}

func (r *verifyReport) fail(name, detail string) {
	r.Checks = append(r.Checks, check{Name: name, Detail: detail})
}

func verifyCommand() *cli.Command {
	var params verifyParams
	return &cli.Command{
		Name:    "verify",
		Summary: "Check a transform against the reference engine",
		Description: `Run a transform on random input with the portable reference engine and
check that the inverse transform recovers the input. Convolutions
instead check that an all-ones symbol leaves the input unchanged.

On the CPU platform, when an artifact for the transform resolves (or
--build builds one) and the binary can load native code, the artifact
runs on the same input and its output is compared with the reference
output. Device platforms only run the reference checks.

Exits 1 when any check fails.`,
		Examples: []cli.Example{
			{
				Description: "Verify a prebuilt artifact",
				Command:     "spiral verify --kind MDPRDFT --dims 32,32,32",
			},
			{
				Description: "Keep the reference output and check against it later",
				Command:     "spiral verify --kind DFT --dims 1024 --save dft1024.snap",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Usagef("unexpected argument: %s", args[0])
			}
			report, err := params.verify(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(ctx, report); done {
				if err != nil {
					return err
				}
			} else if err := printReport(ctx, report); err != nil {
				return err
			}
			if !report.Passed {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func (p *verifyParams) verify(ctx context.Context) (*verifyReport, error) {
	options, err := p.load()
	if err != nil {
		return nil, err
	}
	if err := options.ResolvePlatform(probe()); err != nil {
		return nil, err
	}
	descriptor, err := p.descriptor(options)
	if err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger().With("command", "verify", "transform", descriptor.Name())
	report := &verifyReport{Transform: descriptor.Name(), Platform: options.Platform}
	tolerance := tensor.Tolerance(descriptor.Precision().RealType())

	// The reference engine always runs on the host. Only a CPU solver
	// can also run an artifact, so only it gets a resolver.
	hostOptions := *options
	hostOptions.Platform = metadata.PlatformCPU
	environment := solver.Environment{Logger: logger}
	if options.Platform == metadata.PlatformCPU {
		environment.Resolver = registry.NewResolver(p.scan(options, logger))
		if p.Build {
			environment.Builder = builder(options, logger)
		}
	}
	reference, err := solver.New(descriptor, hostOptions, environment)
	if err != nil {
		return nil, err
	}
	defer reference.Close()

	rng := rand.New(rand.NewPCG(uint64(p.Seed), uint64(p.Seed)))
	source, symbol, err := reference.TestInput(rng)
	if err != nil {
		return nil, err
	}
	expected, err := reference.Reference(source, symbol)
	if err != nil {
		return nil, err
	}

	if err := selfCheck(report, reference, hostOptions, source, expected, tolerance); err != nil {
		return nil, err
	}

	if options.Platform != metadata.PlatformCPU {
		report.skip("artifact", "no device runtime in this binary")
	} else if err := artifactCheck(ctx, report, reference, source, symbol, expected, tolerance, logger); err != nil {
		return nil, err
	}

	if p.Compare != "" {
		report.Snapshot = p.Compare
		snapshot, err := archive.Load(p.Compare)
		if err != nil {
			return nil, err
		}
		if snapshot.Name != descriptor.Name() {
			report.fail("snapshot", fmt.Sprintf("%s holds %s, not %s", p.Compare, snapshot.Name, descriptor.Name()))
		} else {
			report.compare("snapshot", snapshot.Tensor, expected, scaledTolerance(tolerance, expected))
		}
	}
	if p.Save != "" {
		err := archive.Save(p.Save, archive.Snapshot{
			Name:    descriptor.Name(),
			Origin:  archive.OriginReference,
			Created: time.Now(),
			Tensor:  expected,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("saved reference snapshot", "path", p.Save)
	}

	report.Passed = true
	for _, result := range report.Checks {
		report.Passed = report.Passed && result.Passed
	}
	return report, nil
}

// selfCheck runs the reference engine against itself. The inverse of
// forward, the reference output, must give back source; a convolution
// with an all-ones symbol must too.
func selfCheck(report *verifyReport, reference *solver.Solver, options config.Options, source, forward *tensor.Tensor, tolerance float64) error {
	descriptor := reference.Descriptor()
	if descriptor.Kind().IsConvolution() {
		ones := make([]complex128, tensor.Count(reference.SymbolShape()))
		for i := range ones {
			ones[i] = 1
		}
		symbol, err := tensor.FromComplexValues(reference.SymbolShape(), tensor.RowMajor, descriptor.Precision().ComplexType(), ones)
		if err != nil {
			return err
		}
		result, err := reference.Reference(source, symbol)
		if err != nil {
			return err
		}
		report.compare("identity", result, source, tolerance)
		return nil
	}

	inverse, err := inverseOf(descriptor)
	if err != nil {
		return err
	}
	backward, err := solver.New(inverse, options, solver.Environment{})
	if err != nil {
		return err
	}
	defer backward.Close()

	result, err := backward.Reference(forward, nil)
	if err != nil {
		return err
	}
	if descriptor.Kind() == problem.MDPRDFT && descriptor.Direction() == problem.Inverse {
		// A random packed spectrum is not the spectrum of any real
		// box, so the real output is what must survive the trip.
		again, err := reference.Reference(result, nil)
		if err != nil {
			return err
		}
		report.compare("round trip", again, forward, tolerance)
		return nil
	}
	report.compare("round trip", result, source, tolerance)
	return nil
}

// inverseOf is the transform that undoes d: the opposite direction
// with the read and write layouts swapped.
func inverseOf(d problem.Descriptor) (problem.Descriptor, error) {
	return problem.New(problem.Params{
		Kind:        d.Kind(),
		Dimensions:  d.Dimensions(),
		Direction:   -d.Direction(),
		Precision:   d.Precision(),
		Order:       d.Order(),
		BatchDims:   d.BatchDims(),
		BatchSize:   d.BatchSize(),
		ReadStride:  d.WriteStride(),
		WriteStride: d.ReadStride(),
	})
}

// artifactCheck runs the solver's artifact on source when one can be
// bound. A missing artifact or a binary without native loading skips
// the check rather than failing it.
func artifactCheck(ctx context.Context, report *verifyReport, runner *solver.Solver, source, symbol, expected *tensor.Tensor, tolerance float64, logger *slog.Logger) error {
	err := runner.Bind(ctx)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		report.skip("artifact", "no artifact exports "+runner.Query().String())
		return nil
	case errors.Is(err, native.ErrUnsupported):
		report.skip("artifact", "this binary cannot load native artifacts")
		return nil
	case err != nil:
		return err
	}
	report.Artifact = runner.Path()
	logger.Debug("running artifact", "path", runner.Path())

	output, err := runner.SolveHost(ctx, source, symbol)
	if err != nil {
		return err
	}
	report.compare("artifact", output, expected, scaledTolerance(tolerance, expected))
	return nil
}

// scaledTolerance scales a unit-magnitude tolerance to the largest
// component magnitude of want, since unnormalized forward transforms
// grow with their size.
func scaledTolerance(tolerance float64, want *tensor.Tensor) float64 {
	largest := 1.0
	for _, value := range want.ComplexValues() {
		largest = max(largest, cmplx.Abs(value))
	}
	return tolerance * largest
}

func printReport(ctx context.Context, report *verifyReport) error {
	output := cli.Stdout(ctx)
	fmt.Fprintf(output, "%s on %s\n", report.Transform, report.Platform)
	if report.Artifact != "" {
		fmt.Fprintf(output, "artifact %s\n", report.Artifact)
	}
	writer := tabwriter.NewWriter(output, 2, 0, 2, ' ', 0)
	for _, result := range report.Checks {
		switch {
		case result.Skipped != "":
			fmt.Fprintf(writer, "  %s\t-\tskipped: %s\n", result.Name, result.Skipped)
		case result.Detail != "":
			fmt.Fprintf(writer, "  %s\t-\tFAILED: %s\n", result.Name, result.Detail)
		case result.Passed:
			fmt.Fprintf(writer, "  %s\t%.3g\tok (tolerance %.3g)\n", result.Name, result.MaxError, result.Tolerance)
		default:
			fmt.Fprintf(writer, "  %s\t%.3g\tFAILED (tolerance %.3g)\n", result.Name, result.MaxError, result.Tolerance)
		}
	}
	return writer.Flush()
}
