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

	"github.com/spf13/cobra"
	"github.com/we-are-mono/tide/client"
	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/types"
)

var (
	arrayMode    string
	arrayDuty    float64
	arrayEnable  bool
	arrayDisable bool
)

var arraysCmd = &cobra.Command{
	Use:   "arrays",
	Short: "List LED array stages",
	Run:   runArrays,
}

var arrayCmd = &cobra.Command{
	Use:   "array",
	Short: "Inspect and control a single array stage",
}

var arrayLEDsCmd = &cobra.Command{
	Use:   "leds <stage-id>",
	Short: "Show the loads on one array stage",
	Args:  cobra.ExactArgs(1),
	Run:   runArrayLEDs,
}

var arraySetCmd = &cobra.Command{
	Use:   "set <stage-id>",
	Short: "Set mode, duty or enable on one array stage",
	Long: `Set mode, duty or enable on one array stage. Only the flags you pass change.

Examples:
  tide array set Array-1 --mode MANUAL --duty 0.6
  tide array set Array-1 --disable`,
	Args: cobra.ExactArgs(1),
	Run:  runArraySet,
}

func init() {
	rootCmd.AddCommand(arraysCmd)
	rootCmd.AddCommand(arrayCmd)
	arrayCmd.AddCommand(arrayLEDsCmd)
	arrayCmd.AddCommand(arraySetCmd)

	arraySetCmd.Flags().StringVar(&arrayMode, "mode", "", "Stage mode (OFF, MANUAL, AUTO, REDUNDANT)")
	arraySetCmd.Flags().Float64Var(&arrayDuty, "duty", -1, "Stage duty [0, 1]")
	arraySetCmd.Flags().BoolVar(&arrayEnable, "enable", false, "Enable the stage")
	arraySetCmd.Flags().BoolVar(&arrayDisable, "disable", false, "Disable the stage")
}

func runArrays(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "arrays"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var stages []types.StageStatus
	if err := client.Decode(resp, &stages); err != nil {
		log.Fatalf("[ERROR] Unable to parse stage list: %v", err)
	}

	fmt.Printf("%-14s %-10s %-8s %s\n", "STAGE", "MODE", "ENABLED", "DUTY")
	for _, st := range stages {
		fmt.Printf("%-14s %-10s %-8v %.2f\n", st.StageID, st.Mode, st.Enabled, st.Duty)
	}
}

func runArrayLEDs(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "array-leds", StageID: args[0]})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var leds []types.LED
	if err := client.Decode(resp, &leds); err != nil {
		log.Fatalf("[ERROR] Unable to parse LED list: %v", err)
	}

	fmt.Printf("%-14s %-14s %-9s %-6s %-6s %s\n", "ID", "LABEL", "PRIORITY", "ON", "LIMIT", "INTENSITY")
	for _, led := range leds {
		fmt.Printf("%-14s %-14s %-9d %-6v %-6s %.1f%%\n",
			led.ID, led.Label, led.Priority, led.IsOn,
			fmt.Sprintf("%.0f%%", led.IntensityLimitPct), led.CurrentIntensityPct)
	}
}

func runArraySet(cmd *cobra.Command, args []string) {
	if arrayEnable && arrayDisable {
		log.Fatalf("[ERROR] --enable and --disable are mutually exclusive")
	}

	req := daemon.Request{Command: "array-control", StageID: args[0]}
	if arrayMode != "" {
		req.Mode = &arrayMode
	}
	if arrayDuty >= 0 {
		req.Duty = &arrayDuty
	}
	if arrayEnable {
		enable := true
		req.Enable = &enable
	}
	if arrayDisable {
		enable := false
		req.Enable = &enable
	}

	resp, err := client.Send(req)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}
