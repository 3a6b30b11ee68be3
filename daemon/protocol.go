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

// Package daemon implements the Tide daemon server and IPC protocol.
package daemon

import (
	"github.com/we-are-mono/tide/controller"
	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/wavemaker"
)

// LogFilter defines filtering criteria for log streaming
type LogFilter struct {
	Level     string `json:"level,omitempty"`     // Filter by log level (debug, info, warn, error)
	Component string `json:"component,omitempty"` // Filter by component name
}

// Request represents a command sent to the daemon
type Request struct {
	Command   string                   `json:"command"` // status, devices, device-get, device-set, led-list, led-set, led-clear, presets, preset-get, preset-create, preset-update, preset-delete, preset-activate, preset-deactivate, arrays, array-leds, array-control, events, history, emergency-stop, export, import, logs-subscribe
	ChannelID *int                     `json:"channel_id,omitempty"`
	DeviceID  string                   `json:"device_id,omitempty"`
	StageID   string                   `json:"stage_id,omitempty"`
	PresetID  int64                    `json:"preset_id,omitempty"`
	Limit     int                      `json:"limit,omitempty"`
	WindowS   float64                  `json:"window_s,omitempty"`
	Intensity *float64                 `json:"intensity,omitempty"`
	Mode      *string                  `json:"mode,omitempty"`
	Duty      *float64                 `json:"duty,omitempty"`
	Enable    *bool                    `json:"enable,omitempty"`
	Update    *wavemaker.Update        `json:"update,omitempty"`
	Preset    *types.Preset            `json:"preset,omitempty"`
	Bundle    *controller.ExportBundle `json:"bundle,omitempty"`
	LogFilter *LogFilter               `json:"log_filter,omitempty"`
}

// Response represents the daemon's response
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Success bool        `json:"success"`
}
