// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

// Package cmd implements the CLI commands for Tide using cobra.
package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/we-are-mono/tide/client"
	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/wavemaker"
)

var (
	setMode       string
	setPower      int
	setPulseRatio float64
	setManual     bool
	setAuto       bool
	setManualDuty float64
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List wavemaker channels",
	Run:   runDevices,
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Inspect and control a single wavemaker channel",
}

var deviceGetCmd = &cobra.Command{
	Use:   "get <channel-id>",
	Short: "Show one channel's state",
	Args:  cobra.ExactArgs(1),
	Run:   runDeviceGet,
}

var deviceSetCmd = &cobra.Command{
	Use:   "set <channel-id>",
	Short: "Update a channel's pattern configuration",
	Long: `Update a channel's pattern configuration. Only the flags you pass change.

Examples:
  tide device set 0 --mode GYRE --power 60
  tide device set 2 --mode PULSE --ratio 0.3
  tide device set 1 --manual --duty 0.5
  tide device set 1 --auto`,
	Args: cobra.ExactArgs(1),
	Run:  runDeviceSet,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceGetCmd)
	deviceCmd.AddCommand(deviceSetCmd)

	deviceSetCmd.Flags().StringVar(&setMode, "mode", "", "Pattern mode (OFF, CONSTANT, PULSE, GYRE, RANDOM)")
	deviceSetCmd.Flags().IntVar(&setPower, "power", -1, "Target power percent [0, 100]")
	deviceSetCmd.Flags().Float64Var(&setPulseRatio, "ratio", -1, "Pulse on-ratio [0, 1]")
	deviceSetCmd.Flags().BoolVar(&setManual, "manual", false, "Switch the channel to manual control")
	deviceSetCmd.Flags().BoolVar(&setAuto, "auto", false, "Return the channel to pattern control")
	deviceSetCmd.Flags().Float64Var(&setManualDuty, "duty", -1, "Manual duty [0, 1] (implies --manual)")
}

func parseChannelID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil {
		log.Fatalf("[ERROR] invalid channel id %q", arg)
	}
	return id
}

func printChannel(ch types.ChannelStatus) {
	fmt.Printf("Channel %d: %s\n", ch.ID, ch.Name)
	fmt.Printf("  Mode:         %s\n", ch.Mode)
	fmt.Printf("  Manual:       %v\n", ch.Manual)
	fmt.Printf("  Target power: %d%%\n", ch.TargetPowerPct)
	fmt.Printf("  Pulse ratio:  %.2f\n", ch.PulseDutyRatio)
	fmt.Printf("  Output:       %.2fW (%.2fV / %.3fA)\n", ch.CurrentPowerW, ch.VoltageV, ch.CurrentA)
}

func runDevices(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "devices"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var channels []types.ChannelStatus
	if err := client.Decode(resp, &channels); err != nil {
		log.Fatalf("[ERROR] Unable to parse channel list: %v", err)
	}

	fmt.Printf("%-4s %-14s %-10s %-8s %-8s\n", "ID", "NAME", "MODE", "TARGET", "POWER")
	for _, ch := range channels {
		mode := ch.Mode
		if ch.Manual {
			mode = "MANUAL"
		}
		fmt.Printf("%-4d %-14s %-10s %-8s %-8s\n",
			ch.ID, ch.Name, mode,
			fmt.Sprintf("%d%%", ch.TargetPowerPct),
			fmt.Sprintf("%.2fW", ch.CurrentPowerW))
	}
}

func runDeviceGet(cmd *cobra.Command, args []string) {
	id := parseChannelID(args[0])
	resp, err := client.Send(daemon.Request{Command: "device-get", ChannelID: &id})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var ch types.ChannelStatus
	if err := client.Decode(resp, &ch); err != nil {
		log.Fatalf("[ERROR] Unable to parse channel: %v", err)
	}
	printChannel(ch)
}

func runDeviceSet(cmd *cobra.Command, args []string) {
	id := parseChannelID(args[0])

	update := wavemaker.Update{}
	if setMode != "" {
		update.Mode = &setMode
	}
	if setPower >= 0 {
		update.TargetPowerPct = &setPower
	}
	if setPulseRatio >= 0 {
		update.PulseDutyRatio = &setPulseRatio
	}
	manual := setManual
	if setManualDuty >= 0 {
		manual = true
		update.ManualDuty = &setManualDuty
	}
	if manual {
		update.Manual = &manual
	}
	if setAuto {
		auto := false
		update.Manual = &auto
	}

	resp, err := client.Send(daemon.Request{Command: "device-set", ChannelID: &id, Update: &update})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var ch types.ChannelStatus
	if err := client.Decode(resp, &ch); err != nil {
		log.Fatalf("[ERROR] Unable to parse channel: %v", err)
	}
	printChannel(ch)
}
