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

// Package array manages the power stages: LED arrays carrying
// sheddable loads, plus the battery stage. It feeds telemetry to the
// snapshot pipeline and load views to the power budget allocator.
package array

import (
	"fmt"
	"math"
	"time"

	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/types"
)

// Stage is one power stage. LED stages carry loads; the battery stage
// carries none.
type Stage struct {
	ID          string
	Name        string
	Description string

	MaxCurrentA     float64
	NominalVoltageV float64

	Mode    string
	Enabled bool
	Duty    float64

	LEDs []*types.LED

	lastReading hw.Reading
}

func newLEDStage(cfg types.ArrayConfig) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Stage{
		ID:              cfg.ID,
		Name:            cfg.Name,
		Description:     cfg.Description,
		MaxCurrentA:     cfg.MaxCurrentA,
		NominalVoltageV: cfg.NominalVoltageV,
		Mode:            types.ModeOff,
		Enabled:         true,
	}
	for _, lc := range cfg.LEDs {
		s.LEDs = append(s.LEDs, &types.LED{
			ID:                lc.ID,
			Label:             lc.Label,
			IntensityLimitPct: lc.IntensityLimitPct,
			Priority:          lc.Priority,
			IsOn:              true,
		})
	}
	return s, nil
}

// BatteryStageID is the reserved stage ID for the battery.
const BatteryStageID = "Battery"

func newBatteryStage() *Stage {
	return &Stage{
		ID:      BatteryStageID,
		Name:    "Battery",
		Mode:    types.ModeOff,
		Enabled: true,
	}
}

// SetMode changes the stage's operating mode.
func (s *Stage) SetMode(mode string) error {
	switch mode {
	case types.ModeOff, types.ModeManual, types.ModeAuto, types.ModeRedundant:
		s.Mode = mode
		return nil
	default:
		return fmt.Errorf("invalid stage mode: %s", mode)
	}
}

// ApplyControl updates duty and enablement. A duty change cascades the
// intensity of every on LED proportionally to its configured limit.
func (s *Stage) ApplyControl(duty *float64, enable *bool) {
	if duty != nil {
		s.Duty = math.Max(0, math.Min(1, *duty))
	}
	if enable != nil {
		s.Enabled = *enable
	}

	for _, led := range s.LEDs {
		if led.IsOn {
			led.CurrentIntensityPct = led.IntensityLimitPct * s.Duty
		}
	}
}

// ReadTelemetry samples the stage's sensors.
func (s *Stage) ReadTelemetry(driver hw.Driver, now time.Time) (types.Telemetry, error) {
	r, err := driver.ReadSensor(s.ID, s.Duty, s.Enabled)
	if err != nil {
		return types.Telemetry{}, err
	}
	s.lastReading = r
	return types.Telemetry{
		StageID: s.ID,
		TS:      now,
		VinV:    r.VinV,
		IinA:    r.IinA,
		VoutV:   r.VoutV,
		IoutA:   r.IoutA,
		Mode:    s.Mode,
	}, nil
}

// Status converts the stage to its wire shape.
func (s *Stage) Status() types.StageStatus {
	return types.StageStatus{
		StageID: s.ID,
		Enabled: s.Enabled,
		Mode:    s.Mode,
		Duty:    s.Duty,
	}
}
