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
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/we-are-mono/tide/client"
	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/types"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List flow presets",
	Run:   runPresets,
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage flow presets",
}

var presetGetCmd = &cobra.Command{
	Use:   "get <preset-id>",
	Short: "Show one preset's curves",
	Args:  cobra.ExactArgs(1),
	Run:   runPresetGet,
}

var presetCreateCmd = &cobra.Command{
	Use:   "create <file.json>",
	Short: "Create a preset from a JSON file",
	Args:  cobra.ExactArgs(1),
	Run:   runPresetCreate,
}

var presetUpdateCmd = &cobra.Command{
	Use:   "update <file.json>",
	Short: "Update a preset from a JSON file (matched by id)",
	Args:  cobra.ExactArgs(1),
	Run:   runPresetUpdate,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <preset-id>",
	Short: "Delete a user preset",
	Args:  cobra.ExactArgs(1),
	Run:   runPresetDelete,
}

var presetActivateCmd = &cobra.Command{
	Use:   "activate <preset-id>",
	Short: "Activate a preset across all channels",
	Args:  cobra.ExactArgs(1),
	Run:   runPresetActivate,
}

var presetDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Deactivate the active preset",
	Run:   runPresetDeactivate,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetGetCmd)
	presetCmd.AddCommand(presetCreateCmd)
	presetCmd.AddCommand(presetUpdateCmd)
	presetCmd.AddCommand(presetDeleteCmd)
	presetCmd.AddCommand(presetActivateCmd)
	presetCmd.AddCommand(presetDeactivateCmd)
}

func parsePresetID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		log.Fatalf("[ERROR] invalid preset id %q", arg)
	}
	return id
}

func readPresetFile(path string) *types.Preset {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	var p types.Preset
	if err := json.Unmarshal(data, &p); err != nil {
		log.Fatalf("[ERROR] invalid preset file: %v", err)
	}
	return &p
}

func runPresets(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "presets"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var presets []types.Preset
	if err := client.Decode(resp, &presets); err != nil {
		log.Fatalf("[ERROR] Unable to parse preset list: %v", err)
	}

	fmt.Printf("%-5s %-16s %-8s %-8s %s\n", "ID", "NAME", "CYCLE", "BUILTIN", "DESCRIPTION")
	for _, p := range presets {
		builtin := ""
		if p.IsBuiltIn {
			builtin = "yes"
		}
		fmt.Printf("%-5d %-16s %-8s %-8s %s\n",
			p.ID, p.Name, fmt.Sprintf("%.0fs", p.CycleDurationSec), builtin, p.Description)
	}
}

func runPresetGet(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "preset-get", PresetID: parsePresetID(args[0])})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var p types.Preset
	if err := client.Decode(resp, &p); err != nil {
		log.Fatalf("[ERROR] Unable to parse preset: %v", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	fmt.Println(string(data))
}

func runPresetCreate(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "preset-create", Preset: readPresetFile(args[0])})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}

func runPresetUpdate(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "preset-update", Preset: readPresetFile(args[0])})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}

func runPresetDelete(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "preset-delete", PresetID: parsePresetID(args[0])})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}

func runPresetActivate(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "preset-activate", PresetID: parsePresetID(args[0])})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}

func runPresetDeactivate(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "preset-deactivate"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}
	fmt.Println(resp.Message)
}
