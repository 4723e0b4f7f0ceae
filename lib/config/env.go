// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bureau-foundation/spiral/lib/registry"
)

// Environment variables read by [Load].
const (
	EnvConfig        = "SPIRAL_CONFIG"
	EnvKeepTemp      = "SP_KEEPTEMP"
	EnvPrintRuleTree = "SP_PRINTRULETREE"
	EnvWorkDir       = "SP_WORKDIR"
	EnvLibraryPath   = registry.EnvLibraryPath
)

// Var returns an environment variable with surrounding whitespace and
// quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Bool reads a boolean variable. Unset returns fallback; a value that
// does not parse logs a warning and returns fallback.
func Bool(key string, fallback bool) bool {
	s := Var(key)
	if s == "" {
		return fallback
	}
	value, err := strconv.ParseBool(s)
	if err != nil {
		slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", fallback)
		return fallback
	}
	return value
}

// KeepTemp reads SP_KEEPTEMP.
func KeepTemp(fallback bool) bool { return Bool(EnvKeepTemp, fallback) }

// PrintRuleTree reads SP_PRINTRULETREE.
func PrintRuleTree(fallback bool) bool { return Bool(EnvPrintRuleTree, fallback) }

// WorkDir reads SP_WORKDIR.
func WorkDir() string { return Var(EnvWorkDir) }

// LibraryPath reads SP_LIBRARY_PATH. Whitespace inside the list is
// kept; [registry.Directories] trims each entry.
func LibraryPath() string { return os.Getenv(EnvLibraryPath) }

// EnvVar describes one recognized variable and its current value.
type EnvVar struct {
	Name        string
	Value       string
	Description string
}

// Describe lists every recognized variable, for diagnostics.
func Describe() []EnvVar {
	return []EnvVar{
		{EnvConfig, Var(EnvConfig), "YAML options file"},
		{EnvKeepTemp, Var(EnvKeepTemp), "Keep build work directories"},
		{EnvPrintRuleTree, Var(EnvPrintRuleTree), "Ask the generator to print its rule tree"},
		{EnvWorkDir, Var(EnvWorkDir), "Parent directory of build work directories"},
		{EnvLibraryPath, LibraryPath(), "Additional artifact directories"},
	}
}
