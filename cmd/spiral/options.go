// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/capability"
	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/registry"
)

// probe runs the capability probe at most once per process.
var probe = sync.OnceValue(capability.Probe)

// optionParams are the flags shared by every command that reads the
// options file or scans artifact directories. Set flags override the
// file and the environment.
type optionParams struct {
	Config      string `json:"-" flag:"config" desc:"YAML options file (default $SPIRAL_CONFIG)"`
	Platform    string `json:"-" flag:"platform" desc:"CPU, CUDA, HIP, or GPU for whichever accelerator is present"`
	LibDir      string `json:"-" flag:"libdir" desc:"standard artifact directory, scanned first"`
	LibraryPath string `json:"-" flag:"library-path" desc:"additional artifact directories, list-separated"`
	NoCache     bool   `json:"-" flag:"no-cache" desc:"scan without the persistent scan cache"`
	Concurrency int    `json:"-" flag:"concurrency" desc:"artifact directories scanned at once" default:"4"`
}

// load builds the options: defaults, the options file, the
// environment, then the flags.
func (p *optionParams) load() (*config.Options, error) {
	path := p.Config
	if path == "" {
		path = config.Var(config.EnvConfig)
	}
	options, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if p.Platform != "" {
		options.Platform = p.Platform
	}
	if p.LibDir != "" {
		options.LibDir = p.LibDir
	}
	if p.LibraryPath != "" {
		options.LibraryPath = p.LibraryPath
	}
	if err := options.Validate(); err != nil {
		return nil, cli.Usage(fmt.Errorf("invalid options: %w", err))
	}
	return options, nil
}

// resolveGPU replaces the GPU platform with the probed accelerator.
// Commands that only name or look up artifacts accept an explicit
// CUDA or HIP platform on a machine without that device.
func resolveGPU(options *config.Options) error {
	if options.Platform != config.PlatformGPU {
		return nil
	}
	return options.ResolvePlatform(probe())
}

// scan reads every artifact directory, through the scan cache unless
// --no-cache is set.
func (p *optionParams) scan(options *config.Options, logger *slog.Logger) []registry.Record {
	scanner := &registry.Scanner{Logger: logger, Concurrency: p.Concurrency}
	if !p.NoCache && options.CacheFile != "" {
		scanner.Cache = registry.OpenCache(options.CacheFile, logger)
	}
	records := scanner.Scan(options.Directories())
	if scanner.Cache != nil {
		if err := scanner.Cache.Save(); err != nil {
			logger.Warn("saving artifact scan cache", "path", options.CacheFile, "error", err)
		}
	}
	return records
}

// problemParams describe one transform on the command line.
type problemParams struct {
	Kind        string `json:"-" flag:"kind" desc:"transform family: DFT, BATDFT, MDDFT, BATMDDFT, MDPRDFT, MDRCONV, MDRFSCONV" default:"MDDFT"`
	Dims        []int  `json:"-" flag:"dims" desc:"transform dimensions, comma-separated"`
	Direction   string `json:"-" flag:"direction" desc:"forward or inverse" default:"forward"`
	Single      bool   `json:"-" flag:"single" desc:"single precision (realctype float)"`
	ColumnMajor bool   `json:"-" flag:"colmajor" desc:"column-major layout (MDDFT and MDPRDFT only)"`
	BatchDims   []int  `json:"-" flag:"batch-dims" desc:"batch dimensions of a BATDFT"`
	BatchSize   int    `json:"-" flag:"batch" desc:"batch count of a BATMDDFT"`
	ReadStride  string `json:"-" flag:"read-stride" desc:"BATDFT source layout: Unit or Block" default:"Unit"`
	WriteStride string `json:"-" flag:"write-stride" desc:"BATDFT destination layout: Unit or Block" default:"Unit"`
}

// params applies --single and --colmajor to options and returns the
// transform parameters they select.
func (p *problemParams) params(options *config.Options) (problem.Params, error) {
	if len(p.Dims) == 0 {
		return problem.Params{}, fmt.Errorf("--dims is required")
	}
	kind, err := problem.ParseKind(strings.ToUpper(p.Kind))
	if err != nil {
		return problem.Params{}, err
	}
	direction, err := problem.ParseDirection(p.Direction)
	if err != nil {
		return problem.Params{}, err
	}
	readStride, err := problem.ParseStrideMode(p.ReadStride)
	if err != nil {
		return problem.Params{}, fmt.Errorf("--read-stride: %w", err)
	}
	writeStride, err := problem.ParseStrideMode(p.WriteStride)
	if err != nil {
		return problem.Params{}, fmt.Errorf("--write-stride: %w", err)
	}

	if p.Single {
		options.RealCType = config.RealFloat
	}
	if p.ColumnMajor {
		options.ColumnMajor = true
	}
	return options.Apply(problem.Params{
		Kind:        kind,
		Dimensions:  p.Dims,
		Direction:   direction,
		BatchDims:   p.BatchDims,
		BatchSize:   p.BatchSize,
		ReadStride:  readStride,
		WriteStride: writeStride,
	}), nil
}

// descriptor is [problemParams.params] validated into a descriptor.
// Every failure is a usage error.
func (p *problemParams) descriptor(options *config.Options) (problem.Descriptor, error) {
	params, err := p.params(options)
	if err != nil {
		return problem.Descriptor{}, cli.Usage(err)
	}
	descriptor, err := problem.New(params)
	return descriptor, cli.Usage(err)
}
