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

// Package types defines the core data structures for Tide: channel and
// array status shapes, presets and their keyframe curves, power-budget
// events and telemetry rows. These are the wire shapes consumed by the
// CLI and any external API layer, so field names are stable.
package types

import "time"

// ChannelStatus is the externally visible state of one wavemaker channel.
type ChannelStatus struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Mode           string  `json:"mode"`
	Manual         bool    `json:"manual"`
	TargetPowerPct int     `json:"target_power_pct"`
	PulseDutyRatio float64 `json:"pulse_duty_ratio"`
	CurrentPowerW  float64 `json:"current_power_w"`
	VoltageV       float64 `json:"voltage_v"`
	CurrentA       float64 `json:"current_a"`
}

// HistoryPoint is one sample in a channel's bounded power history.
type HistoryPoint struct {
	T              time.Time `json:"t"`
	PowerW         float64   `json:"power_w"`
	DutyPct        float64   `json:"duty_pct"`
	PulseDutyRatio float64   `json:"pulse_duty_ratio"`
}

// Keyframe is one (time-position-percent, power-percent) anchor on a
// preset flow curve. Time positions fall inside [0, 100] but curves are
// not required to arrive sorted.
type Keyframe struct {
	Time  float64 `json:"time"`
	Power float64 `json:"power"`
}

// Preset is a named multi-channel waveform: a cycle duration and, per
// logical channel key (wavemaker_1..wavemaker_12), a keyframe curve.
// Built-in presets reject update and delete.
type Preset struct {
	ID               int64                 `json:"id"`
	Name             string                `json:"name"`
	Description      string                `json:"description"`
	CycleDurationSec float64               `json:"cycle_duration_sec"`
	IsBuiltIn        bool                  `json:"is_built_in"`
	FlowCurves       map[string][]Keyframe `json:"flow_curves"`
}

// Power event types emitted by the budget allocator and health checks.
const (
	EventShed    = "shed"
	EventRestore = "restore"
	EventAlert   = "alert"
	EventWarning = "warning"
)

// PowerEvent records one shed/restore/alert/warning occurrence.
type PowerEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	ArrayID   string                 `json:"array_id,omitempty"`
	LEDID     string                 `json:"led_id,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LED is one shiftable load on an array. Priority orders shedding:
// higher priority sheds last and restores first. The allocator is the
// only writer of IsOn and CurrentIntensityPct during operation.
type LED struct {
	ID                  string  `json:"id"`
	Label               string  `json:"label"`
	IntensityLimitPct   float64 `json:"intensity_limit_pct"`
	Priority            int     `json:"priority"`
	IsOn                bool    `json:"is_on"`
	CurrentIntensityPct float64 `json:"current_intensity_pct"`
}

// Stage operating modes.
const (
	ModeOff       = "OFF"
	ModeManual    = "MANUAL"
	ModeAuto      = "AUTO"
	ModeRedundant = "REDUNDANT"
)

// StageStatus is the externally visible state of one stage (LED array
// or battery).
type StageStatus struct {
	StageID string  `json:"stage_id"`
	Enabled bool    `json:"enabled"`
	Mode    string  `json:"mode"`
	Duty    float64 `json:"duty"`
}

// Telemetry is one sensor reading for a stage, persisted to storage and
// published in the snapshot.
type Telemetry struct {
	StageID string    `json:"stage_id"`
	TS      time.Time `json:"ts"`
	VinV    float64   `json:"vin_v"`
	IinA    float64   `json:"iin_a"`
	VoutV   float64   `json:"vout_v"`
	IoutA   float64   `json:"iout_a"`
	Mode    string    `json:"mode"`
}

// HealthReport summarizes system health derived from the latest snapshot.
type HealthReport struct {
	Status   string   `json:"status"` // ok, warning, error
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
}

// Snapshot is the shared "latest telemetry" value published atomically
// after each telemetry tick. Readers observe either the previous or the
// new snapshot, never a partial one.
type Snapshot struct {
	TS       time.Time       `json:"ts"`
	Stages   []Telemetry     `json:"stages"`
	Channels []ChannelStatus `json:"channels"`
	Health   HealthReport    `json:"health"`
}
