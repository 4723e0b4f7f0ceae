// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package registry

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// readArtifact maps the file read-only. The returned slice is valid
// until release is called.
func readArtifact(path string, size int64) ([]byte, func(), error) {
	if size == 0 {
		return nil, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("memory-mapping %s: %w", path, err)
	}
	return data, func() { unix.Munmap(data) }, nil
}
