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
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/we-are-mono/tide/config"
	"github.com/we-are-mono/tide/controller"
	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/daemon/logger"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run Tide as a daemon",
	Long:  `Starts the Tide daemon which drives the hardware and listens for commands on a Unix socket.`,
	Run:   runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	pidFile := os.Getenv("TIDE_PID_FILE")
	if pidFile == "" {
		pidFile = "/var/run/tide.pid"
	}
	lock, err := acquirePIDLock(pidFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	defer releasePIDLock(lock, pidFile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	if err := initializeLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctrl, err := controller.New(cfg)
	if err != nil {
		logger.Error("Failed to build controller", logger.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	server, err := daemon.NewServer(ctrl)
	if err != nil {
		logger.Error("Failed to create server", logger.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctrl.Start(ctx)

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		if err := server.Stop(); err != nil {
			logger.Error("Failed to stop server", logger.Field{Key: "error", Value: err.Error()})
		}
		cancel()
		ctrl.Stop()
		releasePIDLock(lock, pidFile)
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		logger.Error("Server failed", logger.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}

// acquirePIDLock opens the PID file, takes an exclusive flock on it and
// writes our PID. A second daemon fails at the flock, so stale PID
// files never block a restart.
func acquirePIDLock(pidFile string) (*os.File, error) {
	f, err := os.OpenFile(pidFile, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open PID file %s: %w", pidFile, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("daemon already running (could not lock %s)", pidFile)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to truncate PID file: %w", err)
	}
	if _, err := f.WriteAt([]byte(fmt.Sprintf("%d\n", os.Getpid())), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}
	return f, nil
}

func releasePIDLock(f *os.File, pidFile string) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	f.Close()
	os.Remove(pidFile)
}

// initializeLogger sets up the structured logger from configuration
func initializeLogger(cfg config.LoggingConfig) error {
	logConfig := logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
	}
	if logConfig.Level == "" {
		logConfig.Level = "info"
	}
	if logConfig.Format == "" {
		logConfig.Format = "json"
	}

	// Determine outputs: try journald first, fall back to file
	useJournald := false
	if _, err := exec.LookPath("systemd-cat"); err == nil {
		useJournald = true
	}

	var backends []logger.Backend
	emitter := logger.NewEmitter()

	if useJournald {
		journaldBackend, err := logger.NewJournaldBackend(logConfig.Format)
		if err != nil {
			log.Printf("[WARN] Could not initialize journald backend: %v, falling back to file", err)
			useJournald = false
		} else {
			backends = append(backends, journaldBackend)
		}
	}

	if !useJournald {
		logFile := cfg.FilePath
		if logFile == "" {
			logFile = "/var/log/tide/tide.log"
		}
		fileBackend, err := logger.NewFileBackend(logFile, logConfig.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize file backend: %w", err)
		}
		backends = append(backends, fileBackend)
	}

	logger.Init(logConfig, backends, emitter)

	if useJournald {
		logger.Info("Logging initialized",
			logger.Field{Key: "backend", Value: "journald"},
			logger.Field{Key: "format", Value: logConfig.Format})
	} else {
		logger.Info("Logging initialized",
			logger.Field{Key: "backend", Value: "file"},
			logger.Field{Key: "format", Value: logConfig.Format})
	}

	return nil
}
