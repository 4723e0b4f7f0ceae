// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metadata embeds and recovers the self-describing metadata
// region carried by compiled transform artifacts.
//
// The build pipeline compiles a small C source unit into every shared
// library. That unit defines a single character array whose contents
// are a JSON document wrapped between two literal markers:
//
//	char *zmddft_fwd_4x4x4_metadata = "!!START_METADATA!!\
//	{\
//	  \"TransformTypes\": [\
//	...
//	}\
//	!!END_METADATA!!";
//
// After compilation the C preprocessor has removed the line
// continuations and the compiler has resolved the escapes, so the
// binary contains the markers around plain JSON. [Decode] accepts
// either form: the compiled bytes of an artifact, or the escaped
// source text produced by [Encode].
//
// [Encode] writes every '!' in the JSON as \u0021, so a string value
// that happens to contain a marker cannot cut the region short.
//
// A buffer without the start marker carries no metadata. That is
// reported as "not found" rather than as an error, because most files
// in a library directory are unrelated binaries. A start marker
// followed by an unparseable interior is a [MalformedMetadataError].
//
// [Document] and [Variant] give the metadata a typed shape. The codec
// itself is shape-agnostic: any JSON-representable value can be
// encoded and decoded.
package metadata
