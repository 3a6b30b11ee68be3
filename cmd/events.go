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

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent power events",
	Long:  `Displays shed, restore, warning and alert events, newest first.`,
	Run:   runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "Number of events to show (0 = all)")
}

func runEvents(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "events", Limit: eventsLimit})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var events []types.PowerEvent
	if err := client.Decode(resp, &events); err != nil {
		log.Fatalf("[ERROR] Unable to parse event list: %v", err)
	}

	if len(events) == 0 {
		fmt.Println("No events recorded")
		return
	}

	for _, ev := range events {
		target := ""
		if ev.ArrayID != "" {
			target = " " + ev.ArrayID
			if ev.LEDID != "" {
				target += "/" + ev.LEDID
			}
		}
		fmt.Printf("%s  %-8s%s  %s\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"), ev.EventType, target, ev.Message)
	}
}
