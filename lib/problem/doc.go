// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package problem describes transform instances and derives their
// canonical names.
//
// A [Descriptor] is built once through [New], validated eagerly, and
// never changes afterwards. Changing the shape of a computation means
// building a new descriptor. [Descriptor.Name] turns a descriptor into
// the canonical base name shared by build scripts, generated sources,
// library files and exported symbols.
package problem
