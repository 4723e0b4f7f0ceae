// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package device abstracts accelerator memory.
//
// A [Runtime] allocates, frees and transfers device buffers for one
// placement. The real CUDA and HIP runtimes live outside this module;
// [Emulated] implements the same contract in host memory so that
// placement rules, buffer lifetimes and transfers can be exercised on
// machines without an accelerator.
package device
