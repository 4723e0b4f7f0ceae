// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the spiral binary: a tree
// of [Command] values with pflag-based flags bound from tagged
// parameter structs, "did you mean" suggestions for mistyped commands
// and flags, --json output, and exit codes that carry no message.
//
// Commands write their results to [Stdout] of the context they run
// under and log through [NewCommandLogger]. Embedding [Verbosity] in
// a parameter struct adds --verbose, which lowers the log level of
// every command logger to debug.
package cli
