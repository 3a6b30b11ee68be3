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

package array

import (
	"fmt"
	"sync"
	"time"

	"github.com/we-are-mono/tide/daemon/logger"
	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/power"
	"github.com/we-are-mono/tide/types"
)

var log = logger.Component("array")

// Manager owns every power stage: the configured LED arrays plus the
// battery stage appended last.
type Manager struct {
	mu     sync.Mutex
	driver hw.Driver
	stages []*Stage
	byID   map[string]*Stage
}

// NewManager builds the stage set from configuration.
func NewManager(cfgs []types.ArrayConfig, driver hw.Driver) (*Manager, error) {
	m := &Manager{
		driver: driver,
		byID:   make(map[string]*Stage),
	}

	for _, cfg := range cfgs {
		if cfg.ID == BatteryStageID {
			return nil, fmt.Errorf("stage ID %q is reserved", BatteryStageID)
		}
		stage, err := newLEDStage(cfg)
		if err != nil {
			return nil, err
		}
		m.stages = append(m.stages, stage)
		m.byID[stage.ID] = stage
	}

	battery := newBatteryStage()
	m.stages = append(m.stages, battery)
	m.byID[battery.ID] = battery
	return m, nil
}

// ListStatus returns every stage's wire shape, arrays first.
func (m *Manager) ListStatus() []types.StageStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.StageStatus, 0, len(m.stages))
	for _, s := range m.stages {
		out = append(out, s.Status())
	}
	return out
}

// Control applies a mode/duty/enable change to one stage. Nil fields
// are left untouched.
func (m *Manager) Control(stageID string, mode *string, duty *float64, enable *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[stageID]
	if !ok {
		return fmt.Errorf("unknown stage: %s", stageID)
	}
	if mode != nil {
		if err := s.SetMode(*mode); err != nil {
			return err
		}
	}
	s.ApplyControl(duty, enable)
	log.Debug("Stage control applied", logger.Field{Key: "stage", Value: stageID})
	return nil
}

// Snapshot samples telemetry from every stage. A failed read skips
// the stage rather than aborting the snapshot.
func (m *Manager) Snapshot(now time.Time) []types.Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]types.Telemetry, 0, len(m.stages))
	for _, s := range m.stages {
		row, err := s.ReadTelemetry(m.driver, now)
		if err != nil {
			log.Warn("Stage telemetry read failed",
				logger.Field{Key: "stage", Value: s.ID},
				logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Allocate runs one allocator pass over the LED arrays. The pass runs
// under the manager's lock: the allocator flips LED state in place, and
// no reader may observe it half-applied.
func (m *Manager) Allocate(alloc *power.Allocator, pvW, batteryW float64) (shed, restored []power.Change) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return alloc.Allocate(m.loads(), pvW, batteryW)
}

// loads builds the allocator's view of the LED arrays. The returned
// structures share LED pointers with the stages, so allocator shed and
// restore decisions take effect directly. Callers hold m.mu.
func (m *Manager) loads() []*power.Array {
	var out []*power.Array
	for _, s := range m.stages {
		if s.ID == BatteryStageID {
			continue
		}
		out = append(out, &power.Array{
			ID:              s.ID,
			Name:            s.Name,
			Enabled:         s.Enabled,
			PowerW:          s.lastReading.VoutV * s.lastReading.IoutA,
			Duty:            s.Duty,
			MaxCurrentA:     s.MaxCurrentA,
			NominalVoltageV: s.NominalVoltageV,
			LEDs:            s.LEDs,
		})
	}
	return out
}

// Supply reports generation and battery state from the latest
// telemetry: total panel input watts across enabled arrays, the
// battery output voltage, and whether the battery is usable.
func (m *Manager) Supply() (pvW, batteryVoutV float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.stages {
		if s.ID == BatteryStageID {
			batteryVoutV = s.lastReading.VoutV
			continue
		}
		if s.Enabled {
			pvW += s.lastReading.VinV * s.lastReading.IinA
		}
	}
	return pvW, batteryVoutV
}

// LEDsForStage returns a stage's LED list, for status reporting.
func (m *Manager) LEDsForStage(stageID string) ([]types.LED, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[stageID]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", stageID)
	}
	out := make([]types.LED, len(s.LEDs))
	for i, led := range s.LEDs {
		out[i] = *led
	}
	return out, nil
}

// StageIDs returns the stage IDs in declaration order, battery last.
func (m *Manager) StageIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(m.stages))
	for i, s := range m.stages {
		ids[i] = s.ID
	}
	return ids
}
