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
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/spiral/lib/atomicfile"
	"github.com/bureau-foundation/spiral/lib/codec"
	"github.com/bureau-foundation/spiral/lib/compress"
	"github.com/bureau-foundation/spiral/lib/digest"
	"github.com/bureau-foundation/spiral/lib/metadata"
)

// cacheVersion changes whenever cacheEntry changes shape. A file with
// any other version is discarded.
const cacheVersion = 1

// Cache persists scan results between processes. Entries are keyed by
// path and invalidated by any change in size or modification time.
//
// A missing, unreadable or corrupt cache file is never an error: the
// cache starts empty and the next scan reads every artifact.
type Cache struct {
	path    string
	entries map[string]cacheEntry
	dirty   bool
}

type cacheEntry struct {
	Path     string        `cbor:"path"`
	Size     int64         `cbor:"size"`
	Modified int64         `cbor:"modified"`
	Digest   digest.Digest `cbor:"digest"`
	// Document is nil for files that carry no metadata region.
	Document *metadata.Document `cbor:"document,omitempty"`
}

// cacheEnvelope is the file format: the entry list is CBOR-encoded,
// compressed, and wrapped with enough information to decompress it.
type cacheEnvelope struct {
	Version     int          `cbor:"version"`
	Compression compress.Tag `cbor:"compression"`
	Size        int          `cbor:"size"`
	Payload     []byte       `cbor:"payload"`
}

// OpenCache loads the cache stored at path.
func OpenCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	cache := &Cache{path: path, entries: make(map[string]cacheEntry)}

	entries, err := loadCache(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("discarding artifact scan cache", "path", path, "error", err)
		}
		return cache
	}
	for _, entry := range entries {
		cache.entries[entry.Path] = entry
	}
	return cache
}

func loadCache(path string) ([]cacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var envelope cacheEnvelope
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding cache envelope: %w", err)
	}
	if envelope.Version != cacheVersion {
		return nil, fmt.Errorf("cache version %d, want %d", envelope.Version, cacheVersion)
	}
	payload, err := compress.Decompress(envelope.Payload, envelope.Compression, envelope.Size)
	if err != nil {
		return nil, err
	}
	var entries []cacheEntry
	if err := codec.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("decoding cache entries: %w", err)
	}
	return entries, nil
}

// Len is the number of files the cache knows about.
func (c *Cache) Len() int { return len(c.entries) }

// Save writes the cache back if any scan changed it.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	entries := make([]cacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b cacheEntry) int { return strings.Compare(a.Path, b.Path) })

	payload, err := codec.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding cache entries: %w", err)
	}
	envelope := cacheEnvelope{Version: cacheVersion, Compression: compress.Zstd, Size: len(payload)}
	envelope.Payload, err = compress.Compress(payload, compress.Zstd)
	if errors.Is(err, compress.ErrIncompressible) {
		envelope.Compression, envelope.Payload = compress.None, payload
	} else if err != nil {
		return fmt.Errorf("compressing cache: %w", err)
	}

	data, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding cache envelope: %w", err)
	}
	if err := atomicfile.Write(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact scan cache: %w", err)
	}
	c.dirty = false
	return nil
}

// lookup is called concurrently from scan goroutines and must not
// write.
func (c *Cache) lookup(path string, size int64, modified time.Time) (cacheEntry, bool) {
	entry, ok := c.entries[path]
	if !ok || entry.Size != size || entry.Modified != modified.UnixNano() {
		return cacheEntry{}, false
	}
	return entry, true
}

// update records the files found in one fully listed directory and
// forgets cached files in that directory that are gone.
func (c *Cache) update(directory string, files []scanned) {
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		seen[file.record.Path] = true
		if file.fromCache {
			continue
		}
		c.entries[file.record.Path] = cacheEntry{
			Path:     file.record.Path,
			Size:     file.record.Size,
			Modified: file.record.Modified.UnixNano(),
			Digest:   file.record.Digest,
			Document: file.record.Document,
		}
		c.dirty = true
	}
	for path := range c.entries {
		if filepath.Dir(path) == filepath.Clean(directory) && !seen[path] {
			delete(c.entries, path)
			c.dirty = true
		}
	}
}

func (e cacheEntry) record() Record {
	return Record{
		Path:     e.Path,
		Size:     e.Size,
		Modified: time.Unix(0, e.Modified),
		Digest:   e.Digest,
		Document: e.Document,
	}
}
