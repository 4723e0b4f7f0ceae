// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// Device is one DRM card found during probing.
type Device struct {
	Card     string `json:"card"`
	Driver   string `json:"driver"`
	Vendor   string `json:"vendor,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	PCISlot  string `json:"pci_slot,omitempty"`

	// Platform is the artifact platform this card can run, or empty
	// when its driver or runtime is missing.
	Platform string `json:"platform,omitempty"`
}

// Report is the outcome of one probe.
type Report struct {
	Devices []Device `json:"devices"`
}

// Has reports whether placement is usable. Host always is.
func (r Report) Has(placement tensor.Placement) bool {
	if placement == tensor.Host {
		return true
	}
	platform := platformOf(placement)
	return slices.ContainsFunc(r.Devices, func(device Device) bool {
		return device.Platform == platform
	})
}

// Platforms lists the usable artifact platforms, CPU first.
func (r Report) Platforms() []string {
	platforms := []string{metadata.PlatformCPU}
	for _, placement := range []tensor.Placement{tensor.CUDA, tensor.HIP} {
		if r.Has(placement) {
			platforms = append(platforms, platformOf(placement))
		}
	}
	return platforms
}

func platformOf(placement tensor.Placement) string {
	switch placement {
	case tensor.CUDA:
		return metadata.PlatformCUDA
	case tensor.HIP:
		return metadata.PlatformHIP
	default:
		return metadata.PlatformCPU
	}
}

// Probe inspects the running system.
func Probe() Report {
	return newProber("/sys", "/dev").probe()
}

type prober struct {
	// sysRoot and devRoot default to /sys and /dev; tests point them
	// at synthetic trees.
	sysRoot string
	devRoot string
}

func newProber(sysRoot, devRoot string) *prober {
	return &prober{sysRoot: sysRoot, devRoot: devRoot}
}

func (p *prober) probe() Report {
	drmBase := filepath.Join(p.sysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return Report{}
	}

	var report Report
	for _, entry := range entries {
		name := entry.Name()
		if !isCardDevice(name) {
			continue
		}
		devicePath := filepath.Join(drmBase, name, "device")
		device := Device{Card: name, Driver: readDriverName(devicePath)}
		device.Vendor, device.DeviceID, device.PCISlot = parsePCIUevent(devicePath)
		device.Platform = p.platformFor(device.Driver)
		report.Devices = append(report.Devices, device)
	}
	return report
}

// platformFor maps a kernel driver to the platform its runtime
// provides, checking that the runtime's control node is usable.
func (p *prober) platformFor(driver string) string {
	switch driver {
	case "nvidia":
		if accessible(filepath.Join(p.devRoot, "nvidiactl")) {
			return metadata.PlatformCUDA
		}
	case "amdgpu":
		if accessible(filepath.Join(p.devRoot, "kfd")) {
			return metadata.PlatformHIP
		}
	}
	return ""
}
