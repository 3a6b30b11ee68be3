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
)

var ledsCmd = &cobra.Command{
	Use:   "leds",
	Short: "List standalone LED devices",
	Run:   runLEDs,
}

var ledCmd = &cobra.Command{
	Use:   "led",
	Short: "Control a standalone LED device",
}

var ledSetCmd = &cobra.Command{
	Use:   "set <device-id> <intensity>",
	Short: "Drive a LED device manually (suspends its follow binding)",
	Args:  cobra.ExactArgs(2),
	Run:   runLEDSet,
}

var ledClearCmd = &cobra.Command{
	Use:   "clear <device-id>",
	Short: "Return a LED device to automatic control",
	Args:  cobra.ExactArgs(1),
	Run:   runLEDClear,
}

func init() {
	rootCmd.AddCommand(ledsCmd)
	rootCmd.AddCommand(ledCmd)
	ledCmd.AddCommand(ledSetCmd)
	ledCmd.AddCommand(ledClearCmd)
}

func runLEDs(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "led-list"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var ids []string
	if err := client.Decode(resp, &ids); err != nil {
		log.Fatalf("[ERROR] Unable to parse LED list: %v", err)
	}
	if len(ids) == 0 {
		fmt.Println("No LED devices configured")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func runLEDSet(cmd *cobra.Command, args []string) {
	intensity, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		log.Fatalf("[ERROR] invalid intensity %q", args[1])
	}

	resp, err := client.Send(daemon.Request{Command: "led-set", DeviceID: args[0], Intensity: &intensity})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}

func runLEDClear(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "led-clear", DeviceID: args[0]})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}
