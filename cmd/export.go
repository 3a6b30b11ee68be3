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

	"github.com/spf13/cobra"
	"github.com/we-are-mono/tide/client"
	"github.com/we-are-mono/tide/controller"
	"github.com/we-are-mono/tide/daemon"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Export pattern configuration and user presets",
	Args:  cobra.ExactArgs(1),
	Run:   runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a previously exported configuration",
	Args:  cobra.ExactArgs(1),
	Run:   runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	resp, err := client.Send(daemon.Request{Command: "export"})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var bundle controller.ExportBundle
	if err := client.Decode(resp, &bundle); err != nil {
		log.Fatalf("[ERROR] Unable to parse export data: %v", err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(args[0], data, 0600); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	fmt.Printf("Exported %d channels and %d presets to %s\n",
		len(bundle.Channels), len(bundle.Presets), args[0])
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	var bundle controller.ExportBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Fatalf("[ERROR] invalid export file: %v", err)
	}

	resp, err := client.Send(daemon.Request{Command: "import", Bundle: &bundle})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if !resp.Success {
		log.Fatalf("[ERROR] %s", resp.Error)
	}

	var result controller.ImportResult
	if err := client.Decode(resp, &result); err != nil {
		log.Fatalf("[ERROR] Unable to parse import result: %v", err)
	}
	fmt.Printf("Applied %d channels, created %d presets (%d skipped)\n",
		result.ChannelsApplied, result.PresetsCreated, result.PresetsSkipped)
}
