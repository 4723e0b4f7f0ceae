// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package execute invokes bound transform functions against tensors.
//
// An [Adapter] is created for one compute placement and keeps it for
// its lifetime. [Adapter.Invoke] is the strict entry point: every
// buffer must already live on the adapter's placement and use the
// requested memory order, or the call fails with
// [PlacementMismatchError] or [LayoutMismatchError]. Nothing is copied
// or transposed to paper over a mismatch. [Adapter.Execute] is the
// convenience entry point for host callers: it stages host inputs onto
// the device, invokes, downloads the result and releases every
// temporary before returning.
//
// Inverse transforms are normalized here, after the bound function
// returns, by dividing the destination in place.
package execute
