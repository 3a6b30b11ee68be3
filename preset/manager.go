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

// Package preset manages named multi-channel flow programs: factory
// built-ins, user-defined presets, and the active-preset cycle clock.
package preset

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/validation"
	"github.com/we-are-mono/tide/waveform"
)

var (
	// ErrNotFound is returned when a preset ID resolves to nothing.
	ErrNotFound = errors.New("preset not found")
	// ErrBuiltIn is returned on attempts to modify a factory preset.
	ErrBuiltIn = errors.New("built-in presets cannot be modified")
)

// Store is the persistence boundary for presets.
type Store interface {
	ListPresets() ([]types.Preset, error)
	GetPreset(id int64) (*types.Preset, error)
	CreatePreset(p *types.Preset) (int64, error)
	UpdatePreset(p *types.Preset) error
	DeletePreset(id int64) error
}

// Manager owns the preset catalog and the active-preset cycle clock.
// When a preset is active, PowerLevels interpolates every channel's
// flow curve at the current position within the cycle.
type Manager struct {
	mu         sync.RWMutex
	store      Store
	activeID   int64 // 0 means no active preset
	cycleStart time.Time
}

// NewManager wraps a store, seeding the factory presets if the store
// is empty.
func NewManager(store Store) (*Manager, error) {
	existing, err := store.ListPresets()
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	if len(existing) == 0 {
		for _, p := range BuiltIns() {
			p := p
			if _, err := store.CreatePreset(&p); err != nil {
				return nil, fmt.Errorf("seeding preset %q: %w", p.Name, err)
			}
		}
	}
	return &Manager{store: store}, nil
}

// List returns all presets in the catalog.
func (m *Manager) List() ([]types.Preset, error) {
	return m.store.ListPresets()
}

// Get returns one preset by ID.
func (m *Manager) Get(id int64) (*types.Preset, error) {
	p, err := m.store.GetPreset(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return p, nil
}

// Create validates and persists a new user preset. The stored ID is
// written back into p.
func (m *Manager) Create(p *types.Preset) (int64, error) {
	if err := Validate(p); err != nil {
		return 0, err
	}
	p.IsBuiltIn = false
	id, err := m.store.CreatePreset(p)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// Update replaces a user preset. Built-ins are immutable.
func (m *Manager) Update(p *types.Preset) error {
	existing, err := m.Get(p.ID)
	if err != nil {
		return err
	}
	if existing.IsBuiltIn {
		return ErrBuiltIn
	}
	if err := Validate(p); err != nil {
		return err
	}
	p.IsBuiltIn = false
	return m.store.UpdatePreset(p)
}

// Delete removes a user preset. Built-ins are immutable. Deleting the
// active preset deactivates it.
func (m *Manager) Delete(id int64) error {
	existing, err := m.Get(id)
	if err != nil {
		return err
	}
	if existing.IsBuiltIn {
		return ErrBuiltIn
	}
	if err := m.store.DeletePreset(id); err != nil {
		return err
	}

	m.mu.Lock()
	if m.activeID == id {
		m.activeID = 0
	}
	m.mu.Unlock()
	return nil
}

// Activate makes a preset the active flow program and restarts the
// cycle clock at now.
func (m *Manager) Activate(id int64, now time.Time) error {
	if _, err := m.Get(id); err != nil {
		return err
	}

	m.mu.Lock()
	m.activeID = id
	m.cycleStart = now
	m.mu.Unlock()
	return nil
}

// Deactivate clears the active preset.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	m.activeID = 0
	m.mu.Unlock()
}

// Active returns the currently active preset, or nil if none is set or
// the active preset has disappeared from the store.
func (m *Manager) Active() *types.Preset {
	m.mu.RLock()
	id := m.activeID
	m.mu.RUnlock()

	if id == 0 {
		return nil
	}
	p, err := m.store.GetPreset(id)
	if err != nil || p == nil {
		return nil
	}
	return p
}

// PowerLevels interpolates all channel curves of the active preset at
// the current cycle position. The second return is false when no
// preset is active.
func (m *Manager) PowerLevels(now time.Time) (map[string]float64, bool) {
	m.mu.RLock()
	id := m.activeID
	start := m.cycleStart
	m.mu.RUnlock()

	if id == 0 {
		return nil, false
	}
	p, err := m.store.GetPreset(id)
	if err != nil || p == nil || p.CycleDurationSec <= 0 {
		return nil, false
	}

	elapsed := now.Sub(start).Seconds()
	posPct := math.Mod(elapsed, p.CycleDurationSec) / p.CycleDurationSec * 100

	levels := make(map[string]float64, len(p.FlowCurves))
	for key, curve := range p.FlowCurves {
		levels[key] = waveform.Interpolate(curve, posPct)
	}
	return levels, true
}

// Validate checks a preset's name, cycle duration and curve keyframes.
func Validate(p *types.Preset) error {
	ec := validation.NewCollector().In("preset %q", p.Name)
	ec.Check(validation.NotEmpty("name", p.Name))
	ec.Check(validation.Positive("cycle_duration_sec", p.CycleDurationSec))
	if len(p.FlowCurves) == 0 {
		ec.Errorf("flow_curves must not be empty")
	}
	for key, curve := range p.FlowCurves {
		for i, kf := range curve {
			ec.Checkf(validation.Percent("time", kf.Time), "%s[%d]", key, i)
			ec.Checkf(validation.Percent("power", kf.Power), "%s[%d]", key, i)
		}
	}
	return ec.Err()
}
