// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"time"
)

// Provenance records which driver built an artifact, where, and when.
type Provenance struct {
	Version   string
	Commit    string
	GoVersion string
	Host      string
	Platform  string
	Built     time.Time
}

// Build info keys. The generator may add its own keys alongside these;
// [Parse] ignores them.
const (
	keyVersion   = "DriverVersion"
	keyCommit    = "DriverCommit"
	keyGoVersion = "GoVersion"
	keyHost      = "Host"
	keyPlatform  = "Platform"
	keyBuilt     = "BuildTime"
)

// Current describes this binary building for platform at now.
func Current(platform string, now time.Time) Provenance {
	return Provenance{
		Version:   Version,
		Commit:    Commit(),
		GoVersion: runtime.Version(),
		Host:      runtime.GOOS + "/" + runtime.GOARCH,
		Platform:  platform,
		Built:     now.UTC().Truncate(time.Second),
	}
}

// Map renders the provenance as the free-form build info object of a
// metadata document.
func (p Provenance) Map() map[string]any {
	info := map[string]any{
		keyVersion:   p.Version,
		keyCommit:    p.Commit,
		keyGoVersion: p.GoVersion,
		keyHost:      p.Host,
		keyPlatform:  p.Platform,
	}
	if !p.Built.IsZero() {
		info[keyBuilt] = p.Built.Format(time.RFC3339)
	}
	return info
}

// Parse reads a provenance back from a build info object. The result
// is false when the object was not written by this driver.
func Parse(info map[string]any) (Provenance, bool) {
	text := func(key string) string {
		value, _ := info[key].(string)
		return value
	}
	provenance := Provenance{
		Version:   text(keyVersion),
		Commit:    text(keyCommit),
		GoVersion: text(keyGoVersion),
		Host:      text(keyHost),
		Platform:  text(keyPlatform),
	}
	if built, err := time.Parse(time.RFC3339, text(keyBuilt)); err == nil {
		provenance.Built = built
	}
	return provenance, provenance.Version != ""
}

// Diff describes how an artifact's provenance differs from another.
type Diff struct {
	// VersionChanged is true when the driver versions differ.
	VersionChanged bool

	// CommitChanged is true when the driver commits differ and both
	// are known.
	CommitChanged bool
}

// Stale reports whether any difference was found.
func (d Diff) Stale() bool {
	return d.VersionChanged || d.CommitChanged
}

// Compare reports how p differs from other.
func (p Provenance) Compare(other Provenance) Diff {
	known := func(commit string) bool { return commit != "" && commit != "unknown" }
	return Diff{
		VersionChanged: p.Version != other.Version,
		CommitChanged:  known(p.Commit) && known(other.Commit) && p.Commit != other.Commit,
	}
}
