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

package logger

import (
	"bytes"
	"fmt"
	"os/exec"
)

// syslogPriority maps entry levels to syslog priorities for the
// journal.
var syslogPriority = map[string]string{
	"debug": "7",
	"info":  "6",
	"warn":  "4",
	"error": "3",
}

// JournaldBackend forwards entries to the systemd journal through
// systemd-cat, tagged "tide". Per-entry priority requires one
// invocation per write.
type JournaldBackend struct {
	catPath string
	format  string
}

// NewJournaldBackend fails if systemd-cat is not on PATH, letting the
// caller fall back to a file backend.
func NewJournaldBackend(format string) (*JournaldBackend, error) {
	path, err := exec.LookPath("systemd-cat")
	if err != nil {
		return nil, fmt.Errorf("systemd-cat not found: %w", err)
	}
	return &JournaldBackend{catPath: path, format: format}, nil
}

// Write sends one rendered entry to the journal.
func (b *JournaldBackend) Write(entry *Entry) error {
	line, err := render(entry, b.format)
	if err != nil {
		return fmt.Errorf("rendering log entry: %w", err)
	}

	priority, ok := syslogPriority[entry.Level]
	if !ok {
		priority = "6"
	}
	cmd := exec.Command(b.catPath, "-t", "tide", "-p", priority)
	cmd.Stdin = bytes.NewReader(line)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("writing to journal: %w", err)
	}
	return nil
}

// Close is a no-op; each write is its own process.
func (b *JournaldBackend) Close() error {
	return nil
}
