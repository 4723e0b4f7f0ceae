// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry discovers compiled transform artifacts and resolves
// structural queries against the metadata they embed.
//
// Discovery is a scan over an ordered list of directories: the
// standard library directory first, then every entry of the
// SP_LIBRARY_PATH environment variable. Each shared library in a
// directory is searched for an embedded metadata region. Files without
// one are ignored, and files that cannot be read or whose region does
// not parse are logged and skipped; neither aborts the scan.
//
// Resolution walks the scanned records in directory priority order,
// then file name order, then variant declaration order, and returns the
// first variant whose fields equal every field the query sets. There is
// no closest match: a query that does not match exactly resolves to
// nothing, and the caller builds a new artifact.
//
// A [Cache] remembers what each file contained, keyed by path, size
// and modification time, so repeated scans of an unchanged library
// directory read no artifact bytes.
package registry
