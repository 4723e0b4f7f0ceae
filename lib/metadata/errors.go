// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import "fmt"

// MalformedMetadataError reports a metadata region whose start marker
// was found but whose interior could not be parsed. The file carrying
// it may still be a perfectly usable library; only the metadata step
// failed.
type MalformedMetadataError struct {
	// Path is the file the region was read from, when known.
	Path string

	// Offset is the byte offset of the start marker.
	Offset int

	Err error
}

func (e *MalformedMetadataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed metadata in %s at offset %d: %v", e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed metadata at offset %d: %v", e.Offset, e.Err)
}

func (e *MalformedMetadataError) Unwrap() error {
	return e.Err
}
