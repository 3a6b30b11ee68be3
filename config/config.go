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

// Package config loads the daemon configuration: a YAML file under the
// config directory, with a .env file and environment variables layered
// on top for deployment-specific secrets like broker credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/we-are-mono/tide/mqtt"
	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/validation"
)

const defaultConfigBasePath = "/etc/tide"

// GetConfigDir returns the configuration directory path.
// Checks TIDE_CONFIG_DIR environment variable, falls back to /etc/tide
func GetConfigDir() string {
	if dir := os.Getenv("TIDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return defaultConfigBasePath
}

// LoggingConfig mirrors the logger package's configuration with YAML
// tags.
type LoggingConfig struct {
	Level    string   `json:"level" yaml:"level"`
	Format   string   `json:"format" yaml:"format"`
	Outputs  []string `json:"outputs" yaml:"outputs"`
	FilePath string   `json:"file_path" yaml:"file_path"`
}

// Config is the full daemon configuration.
type Config struct {
	Driver       string                  `json:"driver" yaml:"driver"`
	DatabasePath string                  `json:"database_path" yaml:"database_path"`
	Channels     []types.ChannelConfig   `json:"channels" yaml:"channels"`
	Arrays       []types.ArrayConfig     `json:"arrays" yaml:"arrays"`
	LEDDevices   []types.LEDDeviceConfig `json:"led_devices" yaml:"led_devices"`
	Budget       types.BudgetConfig      `json:"power_budget" yaml:"power_budget"`
	Logging      LoggingConfig           `json:"logging" yaml:"logging"`
	MQTT         mqtt.Config             `json:"mqtt" yaml:"mqtt"`
}

// Default returns a runnable configuration: six wavemaker channels on
// the simulator, one LED array, and the stock power budget.
func Default() Config {
	names := []string{"Front Left", "Front Right", "Mid Left", "Mid Right", "Back Left", "Back Right"}
	var channels []types.ChannelConfig
	for i, name := range names {
		channels = append(channels, types.ChannelConfig{
			ID:   i,
			Name: name,
			Device: types.DeviceConfig{
				Name:         name,
				GPIOPin:      12 + i,
				PWMFreqHz:    500,
				MinIntensity: 0,
				MaxIntensity: 1,
				VoltsMin:     0,
				VoltsMax:     5,
			},
		})
	}

	return Config{
		Driver:       "sim",
		DatabasePath: "/var/lib/tide/tide.db",
		Channels:     channels,
		Arrays: []types.ArrayConfig{
			{
				ID:              "Array-1",
				Name:            "Main Array",
				Description:     "Display tank lighting",
				MaxCurrentA:     10,
				NominalVoltageV: 36,
				LEDs: []types.LEDConfig{
					{ID: "led-display", Label: "Display", IntensityLimitPct: 80, Priority: 5},
					{ID: "led-refugium", Label: "Refugium", IntensityLimitPct: 60, Priority: 1},
				},
			},
		},
		Budget: types.BudgetConfig{
			TargetWatts:          400,
			RestoreHysteresisPct: 10,
			RestoreDelayS:        10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"file"},
		},
		MQTT: mqtt.DefaultConfig(),
	}
}

// Load reads config.yaml from the config directory, after layering a
// .env file (if present) into the environment. A missing config file
// returns defaults.
func Load() (Config, error) {
	// Missing .env is fine; a bad one is not worth failing startup.
	_ = godotenv.Load(filepath.Join(GetConfigDir(), ".env"))

	cfg := Default()
	path := filepath.Join(GetConfigDir(), "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TIDE_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv("TIDE_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("TIDE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MQTT_BROKER_URL"); v != "" {
		cfg.MQTT.BrokerURL = v
	}
}

// Save writes the configuration back to config.yaml.
func Save(cfg Config) error {
	dir := GetConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Validate checks the whole configuration for consistency: valid
// device configs, unique IDs and pins, and LED follow targets that
// reference existing channels.
func (c *Config) Validate() error {
	ec := validation.NewCollector()

	pins := make(map[int]string)
	channelIDs := make(map[int]bool)
	channelNames := make(map[string]bool)
	for _, ch := range c.Channels {
		ec.Checkf(ch.Validate(), "channel %d", ch.ID)
		if channelIDs[ch.ID] {
			ec.Errorf("channel %d: duplicate ID", ch.ID)
		}
		channelIDs[ch.ID] = true
		channelNames[ch.Name] = true
		if owner, taken := pins[ch.Device.GPIOPin]; taken {
			ec.Errorf("channel %d: GPIO%d already used by %s", ch.ID, ch.Device.GPIOPin, owner)
		}
		pins[ch.Device.GPIOPin] = ch.Name
	}

	arrayIDs := make(map[string]bool)
	for _, arr := range c.Arrays {
		ec.Checkf(arr.Validate(), "array %s", arr.ID)
		if arrayIDs[arr.ID] {
			ec.Errorf("array %s: duplicate ID", arr.ID)
		}
		arrayIDs[arr.ID] = true
	}

	for _, led := range c.LEDDevices {
		ec.Checkf(led.Validate(), "led device %s", led.ID)
		if led.Follow != "" && !channelNames[led.Follow] {
			ec.Errorf("led device %s: follows unknown channel %q", led.ID, led.Follow)
		}
		if owner, taken := pins[led.Device.GPIOPin]; taken {
			ec.Errorf("led device %s: GPIO%d already used by %s", led.ID, led.Device.GPIOPin, owner)
		}
		pins[led.Device.GPIOPin] = led.ID
	}

	ec.Checkf(c.Budget.Validate(), "power_budget")
	return ec.Err()
}
