// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"fmt"

	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/registry"
)

// Job is everything the driver needs to produce one artifact.
type Job struct {
	// Name is the canonical name. It names the script, the generated
	// source, the metadata unit and the installed artifact.
	Name string

	// Script is the generator script text.
	Script string

	// Variant is the metadata entry embedded in the artifact.
	Variant metadata.Variant
}

// SourceFile is the file the generator writes for the variant's
// platform.
func (j Job) SourceFile() string {
	return j.Name + SourceExtension(j.Variant.Platform)
}

// SourceExtension is the generated source extension for a platform:
// .cu for CUDA, .cpp for HIP and .c otherwise.
func SourceExtension(platform string) string {
	switch platform {
	case metadata.PlatformCUDA:
		return ".cu"
	case metadata.PlatformHIP:
		return ".cpp"
	default:
		return ".c"
	}
}

// ArtifactFile is the installed file name of the job's artifact.
func (j Job) ArtifactFile() string {
	return registry.ArtifactFileName(j.Name, j.Variant.Platform)
}

func (j Job) validate() error {
	if j.Name == "" {
		return fmt.Errorf("build job has no name")
	}
	if j.Script == "" {
		return fmt.Errorf("build job %s has no script", j.Name)
	}
	if j.Variant.Names.Exec != j.Name {
		return fmt.Errorf("build job %s exports %q", j.Name, j.Variant.Names.Exec)
	}
	return nil
}
