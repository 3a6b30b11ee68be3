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

// Package hw defines the hardware driver boundary. Drivers run either
// in-process (the simulator) or as separate binaries spoken to over
// Hashicorp's go-plugin framework, which keeps GPIO crashes out of the
// daemon.
package hw

// Reading is one electrical sample from a power stage.
type Reading struct {
	VinV  float64 `json:"vin_v"`
	IinA  float64 `json:"iin_a"`
	VoutV float64 `json:"vout_v"`
	IoutA float64 `json:"iout_a"`
}

// Driver abstracts PWM output channels and stage sensors.
// Pin numbers are BCM GPIO numbers; duty is [0, 1].
type Driver interface {
	// InitPWM claims a pin and configures its carrier frequency.
	InitPWM(pin, freqHz int) error

	// SetDuty sets a pin's duty cycle. The pin must be initialized.
	SetDuty(pin int, duty float64) error

	// SetFrequency retunes an initialized pin's carrier frequency.
	SetFrequency(pin, freqHz int) error

	// ReadSensor samples a stage's electrical state. Duty and enabled
	// let simulated backends produce plausible values.
	ReadSensor(stageID string, duty float64, enabled bool) (Reading, error)

	// StopPWM drives a pin to zero and releases it.
	StopPWM(pin int) error

	// Close releases all pins and shuts the driver down.
	Close() error
}
