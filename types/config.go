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

// Package types defines the core data structures for Tide.
package types

import (
	"fmt"
)

// DeviceConfig is the hardware configuration for one PWM-driven device.
// Replacing a device's config (hot reload) swaps the hardware handle
// while keeping the device's logical identity.
type DeviceConfig struct {
	Name         string  `json:"name" yaml:"name"`
	GPIOPin      int     `json:"gpio_pin" yaml:"gpio_pin"`
	PWMFreqHz    int     `json:"pwm_freq_hz" yaml:"pwm_freq_hz"`
	MinIntensity float64 `json:"min_intensity" yaml:"min_intensity"`
	MaxIntensity float64 `json:"max_intensity" yaml:"max_intensity"`
	VoltsMin     float64 `json:"volts_min" yaml:"volts_min"`
	VoltsMax     float64 `json:"volts_max" yaml:"volts_max"`
}

// Validate rejects out-of-range hardware parameters before they reach a
// device registration.
func (c DeviceConfig) Validate() error {
	if c.GPIOPin < 0 || c.GPIOPin > 27 {
		return fmt.Errorf("gpio pin %d out of valid range [0, 27]", c.GPIOPin)
	}
	if c.PWMFreqHz <= 0 {
		return fmt.Errorf("pwm frequency %d must be positive", c.PWMFreqHz)
	}
	if c.MinIntensity < 0 || c.MaxIntensity > 1 {
		return fmt.Errorf("intensity range [%v, %v] must lie within [0, 1]", c.MinIntensity, c.MaxIntensity)
	}
	if c.MinIntensity >= c.MaxIntensity {
		return fmt.Errorf("min intensity %v must be below max intensity %v", c.MinIntensity, c.MaxIntensity)
	}
	if c.VoltsMin > c.VoltsMax {
		return fmt.Errorf("volts range [%v, %v] inverted", c.VoltsMin, c.VoltsMax)
	}
	return nil
}

// ChannelConfig binds a wavemaker channel index and display name to its
// hardware device.
type ChannelConfig struct {
	ID     int          `json:"id" yaml:"id"`
	Name   string       `json:"name" yaml:"name"`
	Device DeviceConfig `json:"device" yaml:"device"`
}

// Validate checks the channel binding and its device config.
func (c ChannelConfig) Validate() error {
	if c.ID < 0 {
		return fmt.Errorf("channel id %d must not be negative", c.ID)
	}
	if c.Name == "" {
		return fmt.Errorf("channel %d: name is required", c.ID)
	}
	return c.Device.Validate()
}

// LEDConfig describes one load on an array at configuration time.
type LEDConfig struct {
	ID                string  `json:"id" yaml:"id"`
	Label             string  `json:"label" yaml:"label"`
	IntensityLimitPct float64 `json:"intensity_limit_pct" yaml:"intensity_limit_pct"`
	Priority          int     `json:"priority" yaml:"priority"`
}

// Validate rejects out-of-range LED settings.
func (c LEDConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("led id is required")
	}
	if c.IntensityLimitPct < 0 || c.IntensityLimitPct > 100 {
		return fmt.Errorf("led %s: intensity limit %v out of range [0, 100]", c.ID, c.IntensityLimitPct)
	}
	if c.Priority < 0 {
		return fmt.Errorf("led %s: priority %d must not be negative", c.ID, c.Priority)
	}
	return nil
}

// ArrayConfig describes one LED array stage: its electrical rating and
// the loads it carries.
type ArrayConfig struct {
	ID              string      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	Description     string      `json:"description,omitempty" yaml:"description"`
	MaxCurrentA     float64     `json:"max_current_a" yaml:"max_current_a"`
	NominalVoltageV float64     `json:"nominal_voltage_v" yaml:"nominal_voltage_v"`
	LEDs            []LEDConfig `json:"leds" yaml:"leds"`
}

// Validate checks the array rating and every LED entry.
func (c ArrayConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("array id is required")
	}
	if c.MaxCurrentA <= 0 || c.NominalVoltageV <= 0 {
		return fmt.Errorf("array %s: rating %vA/%vV must be positive", c.ID, c.MaxCurrentA, c.NominalVoltageV)
	}
	for _, led := range c.LEDs {
		if err := led.Validate(); err != nil {
			return fmt.Errorf("array %s: %w", c.ID, err)
		}
	}
	return nil
}

// BudgetConfig holds the power-budget allocator parameters, read once at
// construction.
type BudgetConfig struct {
	TargetWatts          float64 `json:"target_watts" yaml:"target_watts"`
	RestoreHysteresisPct float64 `json:"restore_hysteresis_pct" yaml:"restore_hysteresis_pct"`
	RestoreDelayS        float64 `json:"restore_delay_s" yaml:"restore_delay_s"`
}

// Validate rejects a budget that could never shed or restore sanely.
func (c BudgetConfig) Validate() error {
	if c.TargetWatts <= 0 {
		return fmt.Errorf("target watts %v must be positive", c.TargetWatts)
	}
	if c.RestoreHysteresisPct < 0 || c.RestoreHysteresisPct > 100 {
		return fmt.Errorf("restore hysteresis %v out of range [0, 100]", c.RestoreHysteresisPct)
	}
	if c.RestoreDelayS < 0 {
		return fmt.Errorf("restore delay %v must not be negative", c.RestoreDelayS)
	}
	return nil
}

// LEDDeviceConfig registers a standalone PWM LED device. Follow, when
// set, names a wavemaker channel whose pattern value the LED mirrors.
type LEDDeviceConfig struct {
	ID     string       `json:"id" yaml:"id"`
	Device DeviceConfig `json:"device" yaml:"device"`
	Follow string       `json:"follow,omitempty" yaml:"follow"`
}

// Validate checks the LED device registration.
func (c LEDDeviceConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("led device id is required")
	}
	return c.Device.Validate()
}
