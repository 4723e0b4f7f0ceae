// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// isCardDevice returns true for DRM card device names (card0, card1, ...)
// but not connectors (card0-DP-1) or render nodes (renderD128).
func isCardDevice(name string) bool {
	suffix, ok := strings.CutPrefix(name, "card")
	if !ok || suffix == "" {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// readDriverName returns the kernel driver of a PCI device: the
// basename of the "driver" symlink in its device directory.
func readDriverName(devicePath string) string {
	link, err := os.Readlink(filepath.Join(devicePath, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(link)
}

// parsePCIUevent extracts vendor name, device ID, and PCI slot from
// the device's uevent file. The uevent file contains lines like:
//
//	PCI_ID=1002:744A
//	PCI_SLOT_NAME=0000:c3:00.0
func parsePCIUevent(devicePath string) (vendor, deviceID, pciSlot string) {
	data, err := os.ReadFile(filepath.Join(devicePath, "uevent"))
	if err != nil {
		return "", "", ""
	}

	var rawVendorID, rawDeviceID string
	for line := range strings.SplitSeq(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "PCI_ID":
			if vendorPart, devicePart, ok := strings.Cut(value, ":"); ok {
				rawVendorID = strings.ToLower(vendorPart)
				rawDeviceID = strings.ToLower(devicePart)
			}
		case "PCI_SLOT_NAME":
			pciSlot = value
		}
	}

	vendor = pciVendorName(rawVendorID)
	if rawDeviceID != "" {
		deviceID = "0x" + rawDeviceID
	}
	return vendor, deviceID, pciSlot
}

// pciVendorName maps a PCI vendor ID to a human-readable name.
func pciVendorName(vendorID string) string {
	switch vendorID {
	case "1002":
		return "AMD"
	case "10de":
		return "NVIDIA"
	case "8086":
		return "Intel"
	case "":
		return ""
	default:
		return fmt.Sprintf("0x%s", vendorID)
	}
}
