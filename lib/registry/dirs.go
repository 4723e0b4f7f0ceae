// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bureau-foundation/spiral/lib/metadata"
)

// EnvLibraryPath names the environment variable holding additional
// artifact directories, separated by the platform's list separator.
const EnvLibraryPath = "SP_LIBRARY_PATH"

// SharedLibrarySuffix is the file name suffix of loadable artifacts on
// this platform.
var SharedLibrarySuffix = sharedLibrarySuffix(runtime.GOOS)

func sharedLibrarySuffix(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// ArtifactFileName is the file name the build driver gives the
// artifact for a canonical name built for platform. Canonical names
// carry no platform, so device artifacts get a platform suffix on the
// file name to keep them from replacing the CPU build. Exported
// symbols are unaffected.
func ArtifactFileName(name, platform string) string {
	switch platform {
	case metadata.PlatformCUDA, metadata.PlatformHIP:
		name += "_" + strings.ToLower(platform)
	}
	if runtime.GOOS == "windows" {
		return name + SharedLibrarySuffix
	}
	return "lib" + name + SharedLibrarySuffix
}

// Directories returns the scan order: standard first, then each
// non-empty entry of pathList in declared order. Duplicates are kept;
// a directory listed twice is scanned twice and the earlier position
// wins resolution.
func Directories(standard, pathList string) []string {
	directories := []string{standard}
	for _, entry := range filepath.SplitList(pathList) {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			directories = append(directories, entry)
		}
	}
	return directories
}

// DirectoriesFromEnv is [Directories] with the path list read from
// [EnvLibraryPath].
func DirectoriesFromEnv(standard string) []string {
	return Directories(standard, os.Getenv(EnvLibraryPath))
}
