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

var verboseStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long:  `Displays system health, array telemetry and wavemaker channel state.`,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&verboseStatus, "verbose", "v", false, "Show detailed status")
}

func runStatus(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "status"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var snap types.Snapshot
	if err := client.Decode(resp, &snap); err != nil {
		log.Fatalf("[ERROR] Unable to parse status data: %v", err)
	}

	fmt.Println("Tide Aquarium Controller")
	fmt.Println("========================")
	fmt.Println()

	switch snap.Health.Status {
	case "ok":
		fmt.Println("[OK] Health:    All systems nominal")
	case "warning":
		fmt.Println("[WARN] Health:")
		for _, w := range snap.Health.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	case "error":
		fmt.Println("[ERROR] Health:")
		for _, e := range snap.Health.Errors {
			fmt.Printf("  - %s\n", e)
		}
		for _, w := range snap.Health.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	fmt.Println()

	fmt.Println("Stages:")
	for _, st := range snap.Stages {
		fmt.Printf("  %-12s %-10s in %5.1fV/%5.2fA  out %5.1fV/%5.2fA\n",
			st.StageID, st.Mode, st.VinV, st.IinA, st.VoutV, st.IoutA)
	}
	fmt.Println()

	fmt.Println("Channels:")
	for _, ch := range snap.Channels {
		line := fmt.Sprintf("  %d %-12s %-8s", ch.ID, ch.Name, ch.Mode)
		if ch.Manual {
			line += " [manual]"
		}
		fmt.Println(line)
		if verboseStatus {
			fmt.Printf("      target %d%%  pulse ratio %.2f  power %.2fW  %.2fV/%.3fA\n",
				ch.TargetPowerPct, ch.PulseDutyRatio, ch.CurrentPowerW, ch.VoltageV, ch.CurrentA)
		}
	}
}
