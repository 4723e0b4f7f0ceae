// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tensor holds the dense buffers passed to transforms.
//
// Every [Tensor] carries its shape, element type, memory order and
// placement explicitly. Host tensors are backed by a typed Go slice;
// device tensors are backed by a [DeviceBuffer] owned by an
// accelerator runtime. Nothing in this package guesses placement from
// the type of the backing storage: callers check [Tensor.Placement].
package tensor
