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

// Package validation provides reusable validation helpers for
// configuration and control-plane input.
package validation

import (
	"fmt"
)

// Percent validates that a value lies in [0, 100].
func Percent(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s must be between 0 and 100, got %v", name, v)
	}
	return nil
}

// Ratio validates that a value lies in [0, 1].
func Ratio(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
	}
	return nil
}

// Positive validates that a value is strictly greater than zero.
func Positive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, v)
	}
	return nil
}

// NonNegative validates that a value is zero or greater.
func NonNegative(name string, v float64) error {
	if v < 0 {
		return fmt.Errorf("%s must not be negative, got %v", name, v)
	}
	return nil
}

// GPIOPin validates a BCM pin number for the Raspberry Pi header.
func GPIOPin(name string, pin int) error {
	if pin < 0 || pin > 27 {
		return fmt.Errorf("%s must be a BCM pin between 0 and 27, got %d", name, pin)
	}
	return nil
}

// NotEmpty validates that a string is non-empty.
func NotEmpty(name, v string) error {
	if v == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	return nil
}
