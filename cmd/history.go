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

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/we-are-mono/tide/client"
	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/types"
)

var historyWindowS float64

var historyCmd = &cobra.Command{
	Use:   "history <channel-id>",
	Short: "Plot a channel's recent power history",
	Long:  `Renders the channel's sampled output power as an ASCII graph.`,
	Args:  cobra.ExactArgs(1),
	Run:   runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Float64VarP(&historyWindowS, "window", "w", 900, "History window in seconds")
}

func runHistory(cmd *cobra.Command, args []string) {
	id := parseChannelID(args[0])
	resp, err := client.Send(daemon.Request{Command: "history", ChannelID: &id, WindowS: historyWindowS})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var points []types.HistoryPoint
	if err := client.Decode(resp, &points); err != nil {
		log.Fatalf("[ERROR] Unable to parse history: %v", err)
	}

	if len(points) == 0 {
		fmt.Println("No samples recorded yet")
		return
	}

	power := make([]float64, len(points))
	for i, p := range points {
		power[i] = p.PowerW
	}

	fmt.Printf("Channel %d power (W), last %.0fs, %d samples\n\n", id, historyWindowS, len(points))
	graph := asciigraph.Plot(power,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(""))
	fmt.Println(graph)
}
