// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive stores tensors on disk as snapshots so that results
// from one run can be compared against a later one.
//
// A snapshot file is an 8-byte signature followed by a CBOR envelope.
// The envelope carries the canonical name and origin of the data, the
// tensor's shape, element type and order, and the element bytes
// compressed with the codec [compress.Auto] picks for the component
// width. A BLAKE3 digest of the uncompressed bytes is checked on load.
package archive
