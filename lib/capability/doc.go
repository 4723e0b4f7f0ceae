// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability reports which accelerator platforms this machine
// can run artifacts on. [Probe] is called once per process and its
// [Report] is threaded through configuration; nothing else asks the
// system whether an accelerator exists.
//
// Devices are enumerated from the DRM class in sysfs. A card bound to
// the proprietary nvidia driver counts as CUDA-capable when the
// /dev/nvidiactl control node is accessible; a card bound to amdgpu
// counts as HIP-capable when /dev/kfd is accessible. Cards on other
// drivers (nouveau, i915) are listed but enable no platform.
package capability
