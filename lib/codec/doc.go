// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by every on-disk
// binary format in this module.
//
// Two serialization formats are in use, with a fixed boundary:
//
//   - JSON for anything a person or another tool reads: the metadata
//     region embedded in artifacts, query files, and CLI --json output.
//   - CBOR for files this module writes for itself: the registry scan
//     cache and reference snapshots.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same value always produces the same bytes and digests over encoded
// data are stable.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types with only `json` tags encode the same field names in CBOR,
// because fxamacker/cbor falls back to `json` tags. Use `cbor` tags
// only on types that never appear as JSON, and never both on the same
// field.
package codec
