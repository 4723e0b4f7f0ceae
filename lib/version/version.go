// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info is the one-line form printed by "spiral version".
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit(), BuildTime)
}

// Full adds the Go toolchain and the host platform to [Info].
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Commit is GitCommit with a "-dirty" suffix for modified trees. A
// binary built without -ldflags reports the VCS revision the Go
// toolchain stamped into it, when there is one.
func Commit() string {
	return commit()
}

var commit = sync.OnceValue(func() string {
	revision, dirty := GitCommit, GitDirty == "true"
	if revision == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					revision = setting.Value[:min(len(setting.Value), 12)]
				case "vcs.modified":
					dirty = setting.Value == "true"
				}
			}
		}
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
})
