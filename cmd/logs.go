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
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/we-are-mono/tide/client"
	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/daemon/logger"
)

var (
	logsFollow    bool
	logsLines     int
	logsSince     string
	logsComponent string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Tide daemon logs",
	Long:  `Display logs from the Tide daemon using journalctl (systemd) or tail (non-systemd).`,
	Run:   runLogs,
}

var logsWatchCmd = &cobra.Command{
	Use:   "watch [level]",
	Short: "Watch logs in real-time from Tide daemon",
	Long:  `Stream logs from Tide daemon in real-time. Optionally filter by log level (debug, info, warn, error).`,
	Run:   runLogsWatch,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsWatchCmd)
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output in real-time")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since time (e.g., '1 hour ago', '2024-01-01')")

	logsWatchCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component name")
}

func runLogs(cmd *cobra.Command, args []string) {
	// Prefer the daemon's in-memory entries; fall back to journal or
	// file when the daemon is down or more history is wanted.
	if !logsFollow && logsSince == "" && runDaemonLogs() {
		return
	}
	if _, err := exec.LookPath("journalctl"); err == nil {
		runJournalctlLogs()
	} else {
		runTailLogs()
	}
}

func runDaemonLogs() bool {
	resp, err := client.Send(daemon.Request{Command: "logs-recent", Limit: logsLines})
	if err != nil || !resp.Success {
		return false
	}
	var entries []logger.Entry
	if err := client.Decode(resp, &entries); err != nil {
		return false
	}
	// Daemon returns newest first; print oldest first.
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Println(entries[i].ToText())
	}
	return true
}

func runJournalctlLogs() {
	jcmd := []string{"journalctl", "-u", "tide"}

	if logsFollow {
		jcmd = append(jcmd, "-f")
	}

	if logsLines > 0 && !logsFollow {
		jcmd = append(jcmd, "-n", fmt.Sprintf("%d", logsLines))
	}

	if logsSince != "" {
		jcmd = append(jcmd, "--since", logsSince)
	}

	// Add --no-pager to prevent paging when not following
	if !logsFollow {
		jcmd = append(jcmd, "--no-pager")
	}

	execCmd := exec.Command(jcmd[0], jcmd[1:]...) //nolint:gosec // Command built from hardcoded journalctl with validated flags
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin

	if err := execCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to run journalctl: %v\n", err)
		os.Exit(1)
	}
}

func runTailLogs() {
	logFile := "/var/log/tide/tide.log"

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "[ERROR] Log file not found: %s\n", logFile)
		fmt.Fprintf(os.Stderr, "[INFO] Make sure tide daemon is running or has been run at least once.\n")
		os.Exit(1)
	}

	tailCmd := []string{"tail"}

	if logsFollow {
		tailCmd = append(tailCmd, "-f")
	}

	if logsLines > 0 {
		tailCmd = append(tailCmd, "-n", fmt.Sprintf("%d", logsLines))
	}

	tailCmd = append(tailCmd, logFile)

	// Note: logsSince is not supported with tail
	if logsSince != "" {
		fmt.Fprintf(os.Stderr, "[WARN] --since flag is not supported without journalctl, ignoring\n")
	}

	execCmd := exec.Command(tailCmd[0], tailCmd[1:]...) //nolint:gosec // Command built from hardcoded tail with validated flags
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin

	if err := execCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to run tail: %v\n", err)
		os.Exit(1)
	}
}

func runLogsWatch(cmd *cobra.Command, args []string) {
	filter := &daemon.LogFilter{
		Component: logsComponent,
	}
	if len(args) > 0 {
		filter.Level = args[0]
	}

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		done <- client.StreamLogs(filter, func(entry *logger.Entry) bool {
			fmt.Printf("[%s] [%s] %s: %s\n",
				entry.Timestamp,
				entry.Level,
				entry.Component,
				entry.Message)
			return true
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
			os.Exit(1)
		}
	case <-sigChan:
		fmt.Println("\nStopping log stream...")
		return
	}
}
