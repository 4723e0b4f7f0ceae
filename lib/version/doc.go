// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the spiral
// binary and the provenance block embedded in every artifact it
// builds.
//
// # Build information
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/spiral/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
//   - [GitCommit]: short SHA of the source tree
//   - [GitDirty]: "true" when the tree had local edits
//   - [BuildTime]: UTC build timestamp
//   - [Version]: release version, set by hand for tagged builds
//
// Without ldflags the variables keep their "unknown" and "0.1.0-dev"
// defaults. [Commit] then falls back to the vcs.revision recorded by
// the go toolchain, so a plain `go install` still identifies itself.
//
// # Provenance
//
// [Current] describes this binary as a [Provenance]; the build driver
// stores it under the SpiralBuildInfo key of each artifact's metadata.
// [Parse] reads it back from a scanned document, and
// [Provenance.Compare] tells a listing whether an artifact was built
// by a different driver.
package version
