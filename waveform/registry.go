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

package waveform

import (
	"sync"
)

// Registry holds the per-device pattern generators. Configuration
// updates come from control commands; values are read by the update
// tick. A single lock keeps readers from observing a half-replaced
// generator.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]*Generator
}

// NewRegistry creates an empty pattern registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]*Generator),
	}
}

// Set creates or replaces the pattern for a device. Replacement resets
// the generator's time origin so the new pattern starts at phase 0.
func (r *Registry) Set(deviceID string, cfg Config, now float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.generators[deviceID]; ok {
		g.Reset(cfg, now)
		return
	}
	r.generators[deviceID] = NewGenerator(cfg, now)
}

// Update replaces the pattern config without restarting the phase.
// Used for parameter tweaks on a running pattern. Unknown devices are
// ignored.
func (r *Registry) Update(deviceID string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.generators[deviceID]; ok {
		g.Reconfigure(cfg)
	}
}

// Get returns the config for a device, if one is registered.
func (r *Registry) Get(deviceID string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[deviceID]
	if !ok {
		return Config{}, false
	}
	return g.Config(), true
}

// Remove drops the pattern for a device.
func (r *Registry) Remove(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.generators, deviceID)
}

// Value evaluates one device's pattern at time t.
func (r *Registry) Value(deviceID string, t float64) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generators[deviceID]
	if !ok {
		return 0, false
	}
	return g.Value(t), true
}

// Values evaluates every registered pattern at time t.
func (r *Registry) Values(t float64) map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]float64, len(r.generators))
	for id, g := range r.generators {
		out[id] = g.Value(t)
	}
	return out
}
