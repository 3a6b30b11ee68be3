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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/tide/types"
)

func TestGetConfigDirDefault(t *testing.T) {
	t.Setenv("TIDE_CONFIG_DIR", "")
	os.Unsetenv("TIDE_CONFIG_DIR")
	assert.Equal(t, "/etc/tide", GetConfigDir())
}

func TestGetConfigDirFromEnv(t *testing.T) {
	t.Setenv("TIDE_CONFIG_DIR", "/tmp/tide-test")
	assert.Equal(t, "/tmp/tide-test", GetConfigDir())
}

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	t.Setenv("TIDE_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Driver)
	assert.Len(t, cfg.Channels, 6)
	assert.Equal(t, 400.0, cfg.Budget.TargetWatts)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("TIDE_CONFIG_DIR", t.TempDir())

	cfg := Default()
	cfg.Driver = "pigpio"
	cfg.Budget.TargetWatts = 250
	cfg.Channels[0].Name = "Corner Pump"
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pigpio", loaded.Driver)
	assert.Equal(t, 250.0, loaded.Budget.TargetWatts)
	assert.Equal(t, "Corner Pump", loaded.Channels[0].Name)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TIDE_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("driver: [unterminated"), 0600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TIDE_CONFIG_DIR", t.TempDir())
	require.NoError(t, Save(Default()))

	t.Setenv("TIDE_DRIVER", "pigpio")
	t.Setenv("MQTT_BROKER_URL", "tcp://broker.local:1883")
	defer os.Unsetenv("TIDE_DRIVER")
	defer os.Unsetenv("MQTT_BROKER_URL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pigpio", cfg.Driver)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.BrokerURL)
}

func TestDotEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TIDE_CONFIG_DIR", dir)
	os.Unsetenv("TIDE_DATABASE_PATH")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TIDE_DATABASE_PATH=/tmp/other.db\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)

	os.Unsetenv("TIDE_DATABASE_PATH")
}

func TestValidateDuplicatePin(t *testing.T) {
	cfg := Default()
	cfg.Channels[1].Device.GPIOPin = cfg.Channels[0].Device.GPIOPin

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used")
}

func TestValidateDuplicateChannelID(t *testing.T) {
	cfg := Default()
	cfg.Channels[1].ID = cfg.Channels[0].ID

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate ID")
}

func TestValidateUnknownFollowTarget(t *testing.T) {
	cfg := Default()
	cfg.LEDDevices = append(cfg.LEDDevices, ledDevice("led-1", 26, "No Such Channel"))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown channel")
}

func TestValidateKnownFollowTarget(t *testing.T) {
	cfg := Default()
	cfg.LEDDevices = append(cfg.LEDDevices, ledDevice("led-1", 26, "Front Left"))

	require.NoError(t, cfg.Validate())
}

func TestSaveStateCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TIDE_CONFIG_DIR", dir)

	type payload struct {
		Value int `json:"value"`
	}
	require.NoError(t, SaveState("presets", payload{Value: 1}))
	require.NoError(t, SaveState("presets", payload{Value: 2}))

	var got payload
	require.NoError(t, LoadState("presets", &got))
	assert.Equal(t, 2, got.Value)

	matches, err := filepath.Glob(filepath.Join(dir, "presets.json.backup.*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestLoadStateReportsLineAndColumn(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TIDE_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{\n  \"a\": ,\n}"), 0600))

	var v map[string]interface{}
	err := LoadState("broken", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func ledDevice(id string, pin int, follow string) types.LEDDeviceConfig {
	dev := Default().Channels[0].Device
	dev.Name = id
	dev.GPIOPin = pin
	return types.LEDDeviceConfig{ID: id, Follow: follow, Device: dev}
}
