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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRootCmdExists tests that root command is properly initialized
func TestRootCmdExists(t *testing.T) {
	assert.NotNil(t, rootCmd, "root command should exist")
	assert.Equal(t, "tide", rootCmd.Use)
	assert.Contains(t, rootCmd.Short, "Tide")
}

// TestRootCmdHasCommands tests that subcommands are registered
func TestRootCmdHasCommands(t *testing.T) {
	expectedCommands := []string{
		"status",
		"devices",
		"device",
		"leds",
		"led",
		"presets",
		"preset",
		"arrays",
		"array",
		"events",
		"history",
		"stop",
		"export",
		"import",
		"daemon",
		"logs",
	}

	commands := rootCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	for _, expected := range expectedCommands {
		assert.Contains(t, commandNames, expected, "command %s should be registered", expected)
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "2026-01-01")
	assert.Equal(t, "1.2.3", Version)
	assert.Equal(t, "1.2.3", rootCmd.Version)
}

func TestDeviceSubcommands(t *testing.T) {
	var names []string
	for _, c := range deviceCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "get")
	assert.Contains(t, names, "set")
}

func TestPresetSubcommands(t *testing.T) {
	var names []string
	for _, c := range presetCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"get", "create", "update", "delete", "activate", "deactivate"} {
		assert.Contains(t, names, want)
	}
}
