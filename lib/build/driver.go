// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bureau-foundation/spiral/lib/atomicfile"
	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/registry"
	"github.com/bureau-foundation/spiral/lib/version"
)

// ScriptSuffix is appended to the canonical name to form the script
// file name.
const ScriptSuffix = ".g"

// ErrMetadataDisabled is returned for builds with the metadata option
// off. An artifact without a metadata region can never be resolved.
var ErrMetadataDisabled = errors.New("metadata option is off; artifacts without metadata cannot be resolved")

// Driver turns jobs into installed artifacts.
type Driver struct {
	options   config.Options
	toolchain Toolchain
	logger    *slog.Logger
	now       func() time.Time
}

// NewDriver returns a driver that installs into options.LibDir. A nil
// logger means slog.Default().
func NewDriver(options config.Options, toolchain Toolchain, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{options: options, toolchain: toolchain, logger: logger, now: time.Now}
}

// Build writes the job's script and metadata unit into a fresh work
// directory, runs the toolchain, checks that the result carries the
// job's variant, and installs it into the library directory. It
// returns the installed path.
func (d *Driver) Build(ctx context.Context, job Job) (path string, err error) {
	if err := job.validate(); err != nil {
		return "", err
	}
	if !d.options.Metadata {
		return "", ErrMetadataDisabled
	}

	dir, err := os.MkdirTemp(d.options.WorkDir, "spiral-"+job.Name+"-")
	if err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	logger := d.logger.With("name", job.Name, "workdir", dir)
	defer func() {
		if d.options.KeepTemp {
			logger.Info("keeping build work directory")
			return
		}
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			logger.Warn("removing build work directory", "error", removeErr)
		}
	}()

	script := filepath.Join(dir, job.Name+ScriptSuffix)
	if err := os.WriteFile(script, []byte(job.Script), 0o644); err != nil {
		return "", fmt.Errorf("writing script: %w", err)
	}
	metadataSource := job.Name + metadata.SourceFileSuffix
	if err := d.writeMetadata(filepath.Join(dir, metadataSource), job); err != nil {
		return "", err
	}

	logger.Debug("running generator")
	if err := d.toolchain.Generate(ctx, dir, script); err != nil {
		return "", fmt.Errorf("generating %s: %w", job.Name, err)
	}
	if _, err := os.Stat(filepath.Join(dir, job.SourceFile())); err != nil {
		return "", fmt.Errorf("generator produced no %s: %w", job.SourceFile(), err)
	}

	artifact := job.ArtifactFile()
	logger.Debug("compiling", "artifact", artifact)
	if err := d.toolchain.Compile(ctx, dir, []string{job.SourceFile(), metadataSource}, artifact); err != nil {
		return "", fmt.Errorf("compiling %s: %w", job.Name, err)
	}

	path, err = d.install(filepath.Join(dir, artifact), job)
	if err != nil {
		return "", err
	}
	logger.Info("installed artifact", "path", path)
	return path, nil
}

func (d *Driver) writeMetadata(path string, job Job) error {
	document := metadata.Document{
		BuildInfo: version.Current(job.Variant.Platform, d.now()).Map(),
	}
	document.Add(job.Variant)
	if err := document.Validate(); err != nil {
		return fmt.Errorf("metadata for %s: %w", job.Name, err)
	}
	return metadata.WriteSourceFile(path, document, job.Name+metadata.VariableSuffix)
}

// install copies the built artifact into the library directory after
// checking that its metadata region exports the job's variant.
func (d *Driver) install(built string, job Job) (string, error) {
	data, err := os.ReadFile(built)
	if err != nil {
		return "", fmt.Errorf("reading built artifact: %w", err)
	}
	var document metadata.Document
	found, err := metadata.Decode(data, &document)
	if err != nil {
		return "", fmt.Errorf("built artifact %s: %w", built, err)
	}
	if !found {
		return "", fmt.Errorf("built artifact %s has no metadata region", built)
	}
	query := registry.QueryFor(job.Variant)
	if !slices.ContainsFunc(document.Transforms, query.Matches) {
		return "", fmt.Errorf("built artifact %s does not export %v", built, query)
	}

	installed := filepath.Join(d.options.LibDir, filepath.Base(built))
	if err := atomicfile.Write(installed, data, 0o755); err != nil {
		return "", fmt.Errorf("installing %s: %w", job.Name, err)
	}
	return installed, nil
}
