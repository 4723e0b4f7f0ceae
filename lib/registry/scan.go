// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/spiral/lib/digest"
	"github.com/bureau-foundation/spiral/lib/metadata"
)

// Scanner reads artifact metadata from a list of directories.
type Scanner struct {
	// Logger receives skipped-file warnings. Nil uses slog.Default().
	Logger *slog.Logger

	// Cache, when set, is consulted before reading a file and updated
	// with every file read. The caller saves it.
	Cache *Cache

	// Concurrency is the number of directories listed and read at
	// once. Values below 2 scan one directory at a time. Results are
	// identical either way.
	Concurrency int

	// Suffix selects candidate files. Empty means
	// [SharedLibrarySuffix].
	Suffix string
}

// scanned is the outcome for one candidate file.
type scanned struct {
	record Record
	// fromCache is set when no bytes were read.
	fromCache bool
	// hasMetadata is false for files without a region.
	hasMetadata bool
}

type directoryResult struct {
	listed bool
	files  []scanned
}

// Scan returns the records of every artifact with metadata in
// directories, ordered by directory position and then by file name.
// Unreadable directories and files are logged and skipped.
func (s *Scanner) Scan(directories []string) []Record {
	results := make([]directoryResult, len(directories))

	var group errgroup.Group
	group.SetLimit(max(s.Concurrency, 1))
	for i, directory := range directories {
		group.Go(func() error {
			results[i] = s.scanDirectory(directory)
			return nil
		})
	}
	// scanDirectory never fails; problems are logged per file.
	group.Wait()

	var records []Record
	for i, result := range results {
		if s.Cache != nil && result.listed {
			s.Cache.update(directories[i], result.files)
		}
		for _, file := range result.files {
			if file.hasMetadata {
				records = append(records, file.record)
			}
		}
	}
	return records
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Scanner) suffix() string {
	if s.Suffix != "" {
		return s.Suffix
	}
	return SharedLibrarySuffix
}

func (s *Scanner) scanDirectory(directory string) directoryResult {
	logger := s.logger()
	entries, err := os.ReadDir(directory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("artifact directory does not exist", "directory", directory)
		} else {
			logger.Warn("skipping unreadable artifact directory", "directory", directory, "error", err)
		}
		return directoryResult{}
	}

	result := directoryResult{listed: true}
	suffix := s.suffix()
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		path := filepath.Join(directory, entry.Name())
		file, ok := s.scanFile(path)
		if ok {
			result.files = append(result.files, file)
		}
	}
	return result
}

// scanFile returns false when the file should not appear in results
// at all, which includes malformed metadata: such files are retried on
// the next scan rather than cached.
func (s *Scanner) scanFile(path string) (scanned, bool) {
	logger := s.logger()

	// Stat follows symlinks, so linked artifacts are scanned.
	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("skipping unreadable artifact", "path", path, "error", err)
		return scanned{}, false
	}
	if !info.Mode().IsRegular() {
		return scanned{}, false
	}

	if s.Cache != nil {
		if entry, ok := s.Cache.lookup(path, info.Size(), info.ModTime()); ok {
			return scanned{record: entry.record(), fromCache: true, hasMetadata: entry.Document != nil}, true
		}
	}

	data, release, err := readArtifact(path, info.Size())
	if err != nil {
		logger.Warn("skipping unreadable artifact", "path", path, "error", err)
		return scanned{}, false
	}
	defer release()

	record := Record{Path: path, Size: info.Size(), Modified: info.ModTime()}
	var document metadata.Document
	found, err := inspect(data, &record.Digest, &document)
	if err != nil {
		var malformed *metadata.MalformedMetadataError
		if errors.As(err, &malformed) {
			malformed.Path = path
			logger.Warn("skipping artifact with malformed metadata", "path", path, "error", err)
		} else {
			logger.Warn("skipping unreadable artifact", "path", path, "error", err)
		}
		return scanned{}, false
	}
	if !found {
		return scanned{record: record}, true
	}
	if err := document.Validate(); err != nil {
		// The document still resolves deterministically, so it is
		// kept.
		logger.Warn("artifact metadata is inconsistent", "path", path, "error", err)
	}
	record.Document = &document
	return scanned{record: record, hasMetadata: true}, true
}

// inspect digests and decodes mapped artifact bytes. A file truncated
// underneath the mapping faults on access; the fault becomes an error
// instead of killing the process.
func inspect(data []byte, sum *digest.Digest, document *metadata.Document) (found bool, err error) {
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			found, err = false, fmt.Errorf("fault reading mapped artifact: %v", r)
		}
	}()
	*sum = digest.Artifact(data)
	return metadata.Decode(data, document)
}
