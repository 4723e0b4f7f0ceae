// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads solver and build options.
//
// Options come from four layers, each overriding the one before: the
// built-in [Default], a YAML file named by SPIRAL_CONFIG or --config,
// the SP_* environment variables, and finally explicit command-line
// flags applied by the caller. Path fields in the file may use ${VAR}
// and ${VAR:-default}. Unknown keys in the file are an error.
//
// [Options.Validate] is called once, before any solver is built, and
// reports every problem together.
//
// Key exports:
//
//   - [Options] -- the closed option set
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Options.ResolvePlatform] -- turns "GPU" into a concrete platform
//     using a capability report
package config
