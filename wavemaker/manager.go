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

// Package wavemaker coordinates the flow pump channels: per-channel
// waveform patterns, preset override, manual override, telemetry
// sampling with bounded history, and emergency stop.
package wavemaker

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/we-are-mono/tide/daemon/logger"
	"github.com/we-are-mono/tide/device"
	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/preset"
	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/validation"
	"github.com/we-are-mono/tide/waveform"
)

var log = logger.Component("wavemaker")

const (
	// HistoryWindowS is the sliding telemetry window per channel.
	HistoryWindowS = 900
	// sampleMinInterval throttles telemetry to roughly 2 Hz.
	sampleMinInterval = 500 * time.Millisecond
)

// Channel is one wavemaker pump: a device, a waveform generator and
// the control state deciding which of them drives the output.
type Channel struct {
	id       int
	name     string
	curveKey string
	dev      *device.Device

	manual    bool
	targetPct int

	// last commanded logical intensity [0, 1]
	intensity float64

	voltageV float64
	currentA float64
	powerW   float64
}

// status converts the channel to its wire shape given its current
// pattern config.
func (c *Channel) status(cfg waveform.Config) types.ChannelStatus {
	return types.ChannelStatus{
		ID:             c.id,
		Name:           c.name,
		Mode:           cfg.Mode.String(),
		Manual:         c.manual,
		TargetPowerPct: c.targetPct,
		PulseDutyRatio: cfg.OnRatio,
		CurrentPowerW:  math.Round(c.powerW*100) / 100,
		VoltageV:       math.Round(c.voltageV*100) / 100,
		CurrentA:       math.Round(c.currentA*1000) / 1000,
	}
}

// Update is a partial control command for a channel. Nil fields keep
// their current value.
type Update struct {
	Mode           *string  `json:"mode,omitempty"`
	TargetPowerPct *int     `json:"target_power_pct,omitempty"`
	PulseDutyRatio *float64 `json:"pulse_duty_ratio,omitempty"`
	Manual         *bool    `json:"manual,omitempty"`
	ManualDuty     *float64 `json:"manual_duty,omitempty"`
}

// Manager owns the wavemaker channels, their pattern registry and
// their telemetry history.
type Manager struct {
	mu      sync.Mutex
	driver  hw.Driver
	presets *preset.Manager

	channels []*Channel
	patterns *waveform.Registry
	history  map[int][]types.HistoryPoint

	origin     time.Time
	lastSample time.Time
}

// NewManager registers one device per channel config and starts every
// channel off.
func NewManager(cfgs []types.ChannelConfig, reg *device.Registry, driver hw.Driver, presets *preset.Manager) (*Manager, error) {
	m := &Manager{
		driver:   driver,
		presets:  presets,
		patterns: waveform.NewRegistry(),
		history:  make(map[int][]types.HistoryPoint),
		origin:   time.Now(),
	}

	for _, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		dev, err := reg.RegisterWavemaker(deviceID(cfg.ID), cfg.Device)
		if err != nil {
			return nil, err
		}
		genCfg := waveform.DefaultConfig()
		genCfg.Mode = waveform.ModeOff
		m.patterns.Set(deviceID(cfg.ID), genCfg, 0)
		m.channels = append(m.channels, &Channel{
			id:       cfg.ID,
			name:     cfg.Name,
			curveKey: fmt.Sprintf("wavemaker_%d", cfg.ID+1),
			dev:      dev,
		})
	}
	return m, nil
}

func deviceID(channelID int) string {
	return fmt.Sprintf("WM%d", channelID+1)
}

func (m *Manager) elapsed(now time.Time) float64 {
	return now.Sub(m.origin).Seconds()
}

// UpdateAll recomputes and applies every channel's output. An active
// preset overrides pattern output; manual channels are skipped.
func (m *Manager) UpdateAll(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	levels, presetActive := map[string]float64(nil), false
	if m.presets != nil {
		levels, presetActive = m.presets.PowerLevels(now)
	}
	t := m.elapsed(now)

	for _, c := range m.channels {
		if c.manual {
			continue
		}

		var intensity float64
		switch {
		case presetActive:
			if pct, ok := levels[c.curveKey]; ok {
				intensity = pct / 100.0
			}
		default:
			v, _ := m.patterns.Value(deviceID(c.id), t)
			intensity = v * float64(c.targetPct) / 100.0
		}

		c.intensity = intensity
		if err := c.dev.Apply(intensity); err != nil {
			log.Error("Failed to apply channel output",
				logger.Field{Key: "channel", Value: c.id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

// SampleAll reads per-channel telemetry and appends history points,
// throttled so callers faster than 2 Hz are no-ops.
func (m *Manager) SampleAll(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSample) < sampleMinInterval {
		return
	}
	m.lastSample = now

	for _, c := range m.channels {
		cfg, _ := m.patterns.Get(deviceID(c.id))
		enabled := cfg.Mode != waveform.ModeOff || c.manual
		r, err := m.driver.ReadSensor(deviceID(c.id), c.dev.Duty(), enabled)
		if err != nil {
			log.Warn("Sensor read failed",
				logger.Field{Key: "channel", Value: c.id},
				logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		c.voltageV = r.VoutV
		c.currentA = r.IoutA
		c.powerW = r.VoutV * r.IoutA

		points := append(m.history[c.id], types.HistoryPoint{
			T:              now,
			PowerW:         c.powerW,
			DutyPct:        math.Round(c.dev.Duty()*1000) / 10,
			PulseDutyRatio: cfg.OnRatio,
		})
		cutoff := now.Add(-HistoryWindowS * time.Second)
		for len(points) > 0 && points[0].T.Before(cutoff) {
			points = points[1:]
		}
		m.history[c.id] = points
	}
}

// Status returns every channel's wire shape, ordered by channel ID.
func (m *Manager) Status() []types.ChannelStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.ChannelStatus, 0, len(m.channels))
	for _, c := range m.channels {
		cfg, _ := m.patterns.Get(deviceID(c.id))
		out = append(out, c.status(cfg))
	}
	return out
}

// ChannelStatus returns one channel's wire shape.
func (m *Manager) ChannelStatus(id int) (types.ChannelStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(id)
	if err != nil {
		return types.ChannelStatus{}, err
	}
	cfg, _ := m.patterns.Get(deviceID(c.id))
	return c.status(cfg), nil
}

func (m *Manager) channel(id int) (*Channel, error) {
	for _, c := range m.channels {
		if c.id == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("invalid channel ID: %d", id)
}

// UpdateChannel applies a partial control command. Switching the mode
// restarts the pattern phase; setting Manual with a ManualDuty drives
// the device directly and detaches it from pattern control.
func (m *Manager) UpdateChannel(id int, u Update, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(id)
	if err != nil {
		return err
	}

	cfg, _ := m.patterns.Get(deviceID(c.id))
	modeChanged := false
	if u.Mode != nil {
		mode, err := waveform.ParseMode(*u.Mode)
		if err != nil {
			return err
		}
		modeChanged = mode != cfg.Mode
		cfg.Mode = mode
	}
	if u.PulseDutyRatio != nil {
		if err := validation.Ratio("pulse_duty_ratio", *u.PulseDutyRatio); err != nil {
			return err
		}
		cfg.OnRatio = *u.PulseDutyRatio
	}
	if u.TargetPowerPct != nil {
		if err := validation.Percent("target_power_pct", float64(*u.TargetPowerPct)); err != nil {
			return err
		}
		c.targetPct = *u.TargetPowerPct
	}

	if modeChanged {
		m.patterns.Set(deviceID(c.id), cfg, m.elapsed(now))
	} else {
		m.patterns.Update(deviceID(c.id), cfg)
	}

	if u.Manual != nil {
		c.manual = *u.Manual
	}
	if c.manual && u.ManualDuty != nil {
		if err := validation.Ratio("manual_duty", *u.ManualDuty); err != nil {
			return err
		}
		c.intensity = *u.ManualDuty
		return c.dev.Apply(*u.ManualDuty)
	}
	return nil
}

// History returns a channel's samples inside the window, oldest first.
func (m *Manager) History(id int, window time.Duration) []types.HistoryPoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	points, ok := m.history[id]
	if !ok {
		return nil
	}
	cutoff := time.Now().Add(-window)
	out := make([]types.HistoryPoint, 0, len(points))
	for _, p := range points {
		if !p.T.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// PatternValue returns a channel's current raw waveform value in
// [0, 1]. Used by LED devices configured to follow a pump's pattern.
func (m *Manager) PatternValue(id int, now time.Time) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(id)
	if err != nil {
		return 0, false
	}
	return m.patterns.Value(deviceID(c.id), m.elapsed(now))
}

// EmergencyStop forces every channel OFF and zeroes all outputs. Safe
// to call at any time, including mid-tick.
func (m *Manager) EmergencyStop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Warn("EMERGENCY STOP - zeroing all wavemaker outputs")
	for _, c := range m.channels {
		cfg, _ := m.patterns.Get(deviceID(c.id))
		cfg.Mode = waveform.ModeOff
		m.patterns.Update(deviceID(c.id), cfg)
		c.manual = false
		c.targetPct = 0
		c.intensity = 0
		if err := c.dev.Stop(); err != nil {
			log.Error("Failed to stop channel",
				logger.Field{Key: "channel", Value: c.id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}
