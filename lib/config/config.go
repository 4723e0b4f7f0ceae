// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/spiral/lib/capability"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/registry"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// PlatformGPU asks for whichever accelerator platform the machine
// has. [Options.ResolvePlatform] replaces it with a concrete platform.
const PlatformGPU = "GPU"

// Real C types accepted by the realctype option.
const (
	RealDouble = "double"
	RealFloat  = "float"
)

// Options is the closed set of solver and build options.
type Options struct {
	// ColumnMajor builds and runs transforms in Fortran order. Only
	// MDDFT and MDPRDFT support it.
	ColumnMajor bool `yaml:"colmajor"`

	// KeepTemp keeps the build work directory after a build.
	KeepTemp bool `yaml:"keeptemp"`

	// Metadata embeds the metadata region in built artifacts. Every
	// family requires it; setting it false is rejected by the builder.
	Metadata bool `yaml:"metadata"`

	// MPI requests a distributed build. Not supported.
	MPI bool `yaml:"mpi"`

	// Platform is CPU, CUDA, HIP, or GPU before resolution.
	Platform string `yaml:"platform"`

	// PrintRuleTree asks the generator to print its rule tree.
	PrintRuleTree bool `yaml:"printruletree"`

	// RealCType is "double" or "float".
	RealCType string `yaml:"realctype"`

	// WorkDir is the parent of build work directories. Empty means
	// the system temporary directory.
	WorkDir string `yaml:"workdir"`

	// LibDir is the standard artifact directory: always scanned first
	// and the install target of the builder.
	LibDir string `yaml:"libdir"`

	// LibraryPath lists additional artifact directories, separated by
	// the platform's list separator.
	LibraryPath string `yaml:"library_path"`

	// CacheFile is the persistent scan cache. Empty disables it.
	CacheFile string `yaml:"cache_file"`

	Toolchain ToolchainConfig `yaml:"toolchain"`
}

// ToolchainConfig names the external generator and compiler. Empty
// fields select the per-platform defaults of the build driver.
type ToolchainConfig struct {
	Generator     string   `yaml:"generator"`
	Compiler      string   `yaml:"compiler"`
	CompilerFlags []string `yaml:"compiler_flags"`
}

// Default returns the built-in defaults.
func Default() *Options {
	homeDir, _ := os.UserHomeDir()
	shareDir := filepath.Join(homeDir, ".local", "share", "spiral")
	return &Options{
		Metadata:  true,
		Platform:  metadata.PlatformCPU,
		RealCType: RealDouble,
		LibDir:    filepath.Join(shareDir, ".libs"),
		CacheFile: filepath.Join(homeDir, ".cache", "spiral", "scan.cache"),
	}
}

// Load builds options from the defaults, the file named by
// SPIRAL_CONFIG when set, and the SP_* environment. Unlike a missing
// SPIRAL_CONFIG, a named file that cannot be read is an error.
func Load() (*Options, error) {
	return LoadFile(os.Getenv(EnvConfig))
}

// LoadFile is [Load] with an explicit file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Options, error) {
	options := Default()
	if path != "" {
		if err := options.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	options.expandVariables()
	options.applyEnvironment()
	return options, nil
}

func (o *Options) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	// An empty file has no document; the defaults stand.
	if err := decoder.Decode(o); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvironment overlays the SP_* variables.
func (o *Options) applyEnvironment() {
	o.KeepTemp = KeepTemp(o.KeepTemp)
	o.PrintRuleTree = PrintRuleTree(o.PrintRuleTree)
	if workDir := WorkDir(); workDir != "" {
		o.WorkDir = workDir
	}
	if libraryPath := LibraryPath(); libraryPath != "" {
		o.LibraryPath = libraryPath
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (o *Options) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	o.WorkDir = expandVars(o.WorkDir, vars)
	o.LibDir = expandVars(o.LibDir, vars)
	o.LibraryPath = expandVars(o.LibraryPath, vars)
	o.CacheFile = expandVars(o.CacheFile, vars)
	o.Toolchain.Generator = expandVars(o.Toolchain.Generator, vars)
	o.Toolchain.Compiler = expandVars(o.Toolchain.Compiler, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var platforms = []string{metadata.PlatformCPU, metadata.PlatformCUDA, metadata.PlatformHIP, PlatformGPU}

// Validate checks every option and reports all problems at once.
func (o *Options) Validate() error {
	var errs []error

	if !slices.Contains(platforms, o.Platform) {
		errs = append(errs, fmt.Errorf("platform must be one of %v, got %q", platforms, o.Platform))
	}
	if o.RealCType != RealDouble && o.RealCType != RealFloat {
		errs = append(errs, fmt.Errorf("realctype must be %q or %q, got %q", RealDouble, RealFloat, o.RealCType))
	}
	if o.MPI {
		errs = append(errs, fmt.Errorf("mpi builds are not supported"))
	}
	if o.LibDir == "" {
		errs = append(errs, fmt.Errorf("libdir is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Precision is the transform precision selected by realctype.
func (o *Options) Precision() problem.Precision {
	if o.RealCType == RealFloat {
		return problem.Single
	}
	return problem.Double
}

// Order is the memory layout selected by colmajor.
func (o *Options) Order() problem.Order {
	if o.ColumnMajor {
		return problem.ColumnMajor
	}
	return problem.RowMajor
}

// Apply fills the precision and order of params from the options.
func (o *Options) Apply(params problem.Params) problem.Params {
	params.Precision = o.Precision()
	params.Order = o.Order()
	return params
}

// Placement maps the platform to the placement of the buffers a
// solver works on. The platform must already be resolved.
func (o *Options) Placement() (tensor.Placement, error) {
	switch o.Platform {
	case metadata.PlatformCPU:
		return tensor.Host, nil
	case metadata.PlatformCUDA:
		return tensor.CUDA, nil
	case metadata.PlatformHIP:
		return tensor.HIP, nil
	default:
		return tensor.Host, fmt.Errorf("platform %q is not resolved", o.Platform)
	}
}

// ResolvePlatform replaces GPU with the accelerator platform report
// lists, or CPU when it lists none. An explicit CUDA or HIP platform
// that report does not list is an error.
func (o *Options) ResolvePlatform(report capability.Report) error {
	switch o.Platform {
	case PlatformGPU:
		switch {
		case report.Has(tensor.CUDA):
			o.Platform = metadata.PlatformCUDA
		case report.Has(tensor.HIP):
			o.Platform = metadata.PlatformHIP
		default:
			o.Platform = metadata.PlatformCPU
		}
	case metadata.PlatformCUDA:
		if !report.Has(tensor.CUDA) {
			return fmt.Errorf("platform CUDA requested but no CUDA device is available")
		}
	case metadata.PlatformHIP:
		if !report.Has(tensor.HIP) {
			return fmt.Errorf("platform HIP requested but no HIP device is available")
		}
	}
	return nil
}

// Directories is the artifact scan order: LibDir, then LibraryPath.
func (o *Options) Directories() []string {
	return registry.Directories(o.LibDir, o.LibraryPath)
}
