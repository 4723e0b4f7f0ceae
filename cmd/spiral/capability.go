// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/capability"
)

type capabilityParams struct {
	cli.JSONOutput
}

type capabilityResult struct {
	Platforms []string            `json:"platforms"`
	Devices   []capability.Device `json:"devices"`
}

func capabilityCommand() *cli.Command {
	var params capabilityParams
	return &cli.Command{
		Name:    "capability",
		Summary: "Report the accelerator platforms this machine can run",
		Description: `Probe the DRM devices of this machine and report which artifact
platforms can run here. CPU is always available. The GPU platform
option resolves to the first accelerator platform listed.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("capability", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Usagef("unexpected argument: %s", args[0])
			}
			report := probe()
			result := capabilityResult{Platforms: report.Platforms(), Devices: report.Devices}
			if done, err := params.EmitJSON(ctx, result); done {
				return err
			}

			output := cli.Stdout(ctx)
			fmt.Fprintf(output, "platforms: %s\n", strings.Join(result.Platforms, ", "))
			for _, device := range result.Devices {
				platform := device.Platform
				if platform == "" {
					platform = "unusable"
				}
				fmt.Fprintf(output, "  %s\t%s\t%s %s\t%s\n", device.Card, device.Driver, device.Vendor, device.DeviceID, platform)
			}
			return nil
		},
	}
}
