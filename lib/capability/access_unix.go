// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package capability

import "golang.org/x/sys/unix"

// accessible reports whether the calling process may open path for
// reading and writing.
func accessible(path string) bool {
	return unix.Access(path, unix.R_OK|unix.W_OK) == nil
}
