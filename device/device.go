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

// Package device implements the output model for PWM-driven hardware:
// a logical intensity in [0, 1] is clamped, mapped into the device's
// configured intensity window and written to the driver as a duty
// cycle.
package device

import (
	"fmt"
	"math"
	"sync"

	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/types"
)

// Device is one PWM-controlled output (wavemaker pump or LED channel).
type Device struct {
	mu     sync.Mutex
	cfg    types.DeviceConfig
	driver hw.Driver
	duty   float64
}

// New claims the configured pin on the driver and returns the device
// with its output at zero.
func New(cfg types.DeviceConfig, driver hw.Driver) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := driver.InitPWM(cfg.GPIOPin, cfg.PWMFreqHz); err != nil {
		return nil, fmt.Errorf("initializing %s on GPIO%d: %w", cfg.Name, cfg.GPIOPin, err)
	}
	return &Device{cfg: cfg, driver: driver}, nil
}

// Apply clamps intensity to [0, 1], maps it into the device's
// configured window and writes the resulting duty to the driver.
func (d *Device) Apply(intensity float64) error {
	intensity = math.Max(0, math.Min(1, intensity))

	d.mu.Lock()
	defer d.mu.Unlock()

	scaled := d.cfg.MinIntensity + intensity*(d.cfg.MaxIntensity-d.cfg.MinIntensity)
	if err := d.driver.SetDuty(d.cfg.GPIOPin, scaled); err != nil {
		return err
	}
	d.duty = scaled
	return nil
}

// SetFrequency retunes the PWM carrier.
func (d *Device) SetFrequency(freqHz int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.driver.SetFrequency(d.cfg.GPIOPin, freqHz); err != nil {
		return err
	}
	d.cfg.PWMFreqHz = freqHz
	return nil
}

// SetRange updates the intensity window applied by Apply.
func (d *Device) SetRange(min, max float64) error {
	if min < 0 || max > 1 || min >= max {
		return fmt.Errorf("intensity range [%v, %v] invalid", min, max)
	}
	d.mu.Lock()
	d.cfg.MinIntensity = min
	d.cfg.MaxIntensity = max
	d.mu.Unlock()
	return nil
}

// Stop zeroes the output. The pin stays claimed so the device can be
// driven again without reinitialization.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.driver.SetDuty(d.cfg.GPIOPin, 0); err != nil {
		return err
	}
	d.duty = 0
	return nil
}

// Close zeroes the output and releases the pin.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.driver.StopPWM(d.cfg.GPIOPin); err != nil {
		return err
	}
	d.duty = 0
	return nil
}

// Duty returns the last duty written to the driver.
func (d *Device) Duty() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duty
}

// Voltage approximates the output voltage from the current duty and
// the configured voltage range. Not a measurement.
func (d *Device) Voltage() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.VoltsMin + d.duty*(d.cfg.VoltsMax-d.cfg.VoltsMin)
}

// Config returns a copy of the device configuration.
func (d *Device) Config() types.DeviceConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// reconfigure re-acquires hardware under a new configuration while the
// logical device keeps its identity. Used by Registry.Reload.
func (d *Device) reconfigure(cfg types.DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.driver.StopPWM(d.cfg.GPIOPin); err != nil {
		return err
	}
	if err := d.driver.InitPWM(cfg.GPIOPin, cfg.PWMFreqHz); err != nil {
		return fmt.Errorf("reinitializing %s on GPIO%d: %w", cfg.Name, cfg.GPIOPin, err)
	}
	d.cfg = cfg
	d.duty = 0
	return nil
}
