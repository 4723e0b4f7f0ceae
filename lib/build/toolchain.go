// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/metadata"
)

// Toolchain runs the external generator and native compiler. Both
// work inside dir, the build work directory.
type Toolchain interface {
	// Generate runs the generator on the script file, which writes the
	// transform source into dir.
	Generate(ctx context.Context, dir, script string) error

	// Compile links sources into the shared artifact output.
	Compile(ctx context.Context, dir string, sources []string, output string) error
}

// DefaultGenerator is the generator command when none is configured.
// It reads the script on standard input.
const DefaultGenerator = "spiral"

// ExecToolchain runs the generator and compiler as child processes.
type ExecToolchain struct {
	Generator     string
	Compiler      string
	CompilerFlags []string
}

// NewExecToolchain fills the empty fields of configured with the
// defaults for platform: cc for CPU, nvcc for CUDA and hipcc for HIP.
func NewExecToolchain(configured config.ToolchainConfig, platform string) *ExecToolchain {
	toolchain := &ExecToolchain{
		Generator:     configured.Generator,
		Compiler:      configured.Compiler,
		CompilerFlags: configured.CompilerFlags,
	}
	if toolchain.Generator == "" {
		toolchain.Generator = DefaultGenerator
	}
	if toolchain.Compiler == "" {
		toolchain.Compiler = defaultCompiler(platform)
	}
	if toolchain.CompilerFlags == nil {
		toolchain.CompilerFlags = defaultCompilerFlags(platform)
	}
	return toolchain
}

func defaultCompiler(platform string) string {
	switch platform {
	case metadata.PlatformCUDA:
		return "nvcc"
	case metadata.PlatformHIP:
		return "hipcc"
	default:
		return "cc"
	}
}

func defaultCompilerFlags(platform string) []string {
	if platform == metadata.PlatformCUDA {
		return []string{"-O3", "-shared", "-Xcompiler", "-fPIC"}
	}
	return []string{"-O3", "-shared", "-fPIC"}
}

func (t *ExecToolchain) Generate(ctx context.Context, dir, script string) error {
	input, err := os.Open(script)
	if err != nil {
		return err
	}
	defer input.Close()

	fields := strings.Fields(t.Generator)
	if len(fields) == 0 {
		return fmt.Errorf("no generator command")
	}
	command := exec.CommandContext(ctx, fields[0], fields[1:]...)
	command.Dir = dir
	command.Stdin = input
	return run(command)
}

func (t *ExecToolchain) Compile(ctx context.Context, dir string, sources []string, output string) error {
	args := append([]string{}, t.CompilerFlags...)
	args = append(args, "-o", output)
	args = append(args, sources...)
	command := exec.CommandContext(ctx, t.Compiler, args...)
	command.Dir = dir
	return run(command)
}

// run executes command, preferring its stderr over the bare exit
// status in the error.
func run(command *exec.Cmd) error {
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		commandString := strings.Join(command.Args, " ")
		if text := strings.TrimSpace(stderr.String()); text != "" {
			return fmt.Errorf("%s: %w: %s", commandString, err, text)
		}
		return fmt.Errorf("%s: %w", commandString, err)
	}
	return nil
}
