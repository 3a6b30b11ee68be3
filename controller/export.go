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

package controller

import (
	"fmt"
	"time"

	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/wavemaker"
)

// ChannelState is the portable pattern configuration of one channel.
type ChannelState struct {
	ID             int     `json:"id"`
	Mode           string  `json:"mode"`
	TargetPowerPct int     `json:"target_power_pct"`
	PulseDutyRatio float64 `json:"pulse_duty_ratio"`
}

// ExportBundle is the round-trippable system state: every channel's
// pattern configuration plus all user presets. Built-in presets are
// omitted since every installation seeds them.
type ExportBundle struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Channels   []ChannelState `json:"channels"`
	Presets    []types.Preset `json:"presets"`
}

// ImportResult reports what an import actually applied.
type ImportResult struct {
	ChannelsApplied int `json:"channels_applied"`
	PresetsCreated  int `json:"presets_created"`
	PresetsSkipped  int `json:"presets_skipped"`
}

// Export captures the current pattern configuration and user presets.
func (c *Controller) Export() (*ExportBundle, error) {
	bundle := &ExportBundle{Version: 1, ExportedAt: time.Now()}

	for _, ch := range c.wavemaker.Status() {
		bundle.Channels = append(bundle.Channels, ChannelState{
			ID:             ch.ID,
			Mode:           ch.Mode,
			TargetPowerPct: ch.TargetPowerPct,
			PulseDutyRatio: ch.PulseDutyRatio,
		})
	}

	presets, err := c.presets.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	for _, p := range presets {
		if !p.IsBuiltIn {
			bundle.Presets = append(bundle.Presets, p)
		}
	}
	return bundle, nil
}

// Import applies a bundle: channel states are applied in place, user
// presets are created unless a preset with the same name already
// exists. Unknown channel IDs fail the import before anything else is
// touched.
func (c *Controller) Import(bundle *ExportBundle) (*ImportResult, error) {
	if bundle.Version != 1 {
		return nil, fmt.Errorf("unsupported export version %d", bundle.Version)
	}
	for _, ch := range bundle.Channels {
		if _, err := c.wavemaker.ChannelStatus(ch.ID); err != nil {
			return nil, err
		}
	}

	result := &ImportResult{}
	now := time.Now()
	for _, ch := range bundle.Channels {
		mode := ch.Mode
		target := ch.TargetPowerPct
		ratio := ch.PulseDutyRatio
		u := wavemaker.Update{Mode: &mode, TargetPowerPct: &target, PulseDutyRatio: &ratio}
		if err := c.wavemaker.UpdateChannel(ch.ID, u, now); err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch.ID, err)
		}
		result.ChannelsApplied++
	}

	existing, err := c.presets.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	names := make(map[string]bool)
	for _, p := range existing {
		names[p.Name] = true
	}
	for i := range bundle.Presets {
		p := bundle.Presets[i]
		if names[p.Name] {
			result.PresetsSkipped++
			continue
		}
		p.ID = 0
		if _, err := c.presets.Create(&p); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		result.PresetsCreated++
	}
	return result, nil
}
