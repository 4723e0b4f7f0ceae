// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package build produces artifacts for canonical names that no scanned
// directory provides.
//
// A [Job] carries the canonical name, the generator script and the
// metadata variant. The [Driver] writes the script and a metadata
// source unit (<name>_meta.c, defining <name>_metadata) into a work
// directory, runs the [Toolchain] generator and compiler there, checks
// that the compiled artifact carries the variant, and installs it into
// the library directory under [registry.ArtifactFileName]. The work
// directory lives under the workdir option (SP_WORKDIR) or the system
// temporary directory and is removed afterwards unless keeptemp is set.
//
// [ExecToolchain] runs real processes: the generator reads the script
// on standard input, and the compiler is cc, nvcc or hipcc by
// platform unless configured otherwise.
package build
