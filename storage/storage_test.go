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

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/tide/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tide.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPresetCRUD(t *testing.T) {
	s := openTestStore(t)

	p := types.Preset{
		Name:             "Night Calm",
		Description:      "Low flow after lights out",
		CycleDurationSec: 120,
		FlowCurves: map[string][]types.Keyframe{
			"wavemaker_1": {{Time: 0, Power: 10}, {Time: 100, Power: 10}},
		},
	}
	id, err := s.CreatePreset(&p)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.GetPreset(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Night Calm", got.Name)
	assert.Equal(t, p.FlowCurves, got.FlowCurves)
	assert.False(t, got.IsBuiltIn)

	got.CycleDurationSec = 300
	require.NoError(t, s.UpdatePreset(got))
	updated, err := s.GetPreset(id)
	require.NoError(t, err)
	assert.Equal(t, 300.0, updated.CycleDurationSec)

	all, err := s.ListPresets()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeletePreset(id))
	gone, err := s.GetPreset(id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTelemetryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := []types.Telemetry{
		{StageID: "Array-1", TS: base, VinV: 36.2, IinA: 1.1, VoutV: 29.8, IoutA: 1.0, Mode: types.ModeAuto},
		{StageID: "Array-1", TS: base.Add(time.Second), VinV: 36.0, IinA: 1.2, VoutV: 29.7, IoutA: 1.1, Mode: types.ModeAuto},
		{StageID: "Battery", TS: base, VinV: 0, IinA: 0, VoutV: 13.2, IoutA: 0.4, Mode: types.ModeOff},
	}
	require.NoError(t, s.AppendTelemetry(rows))

	got, err := s.QueryTelemetry("Array-1", base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows[0].VinV, got[0].VinV)
	assert.True(t, got[0].TS.Before(got[1].TS))

	// Cutoff excludes the first sample.
	later, err := s.QueryTelemetry("Array-1", base.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, later, 1)
}

func TestPruneTelemetry(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendTelemetry([]types.Telemetry{
		{StageID: "Array-1", TS: base, Mode: types.ModeAuto},
		{StageID: "Array-1", TS: base.Add(time.Hour), Mode: types.ModeAuto},
	}))

	n, err := s.PruneTelemetry(base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.QueryTelemetry("Array-1", base)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestEventsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendEvent(types.PowerEvent{
		Timestamp: base,
		EventType: types.EventShed,
		ArrayID:   "Array-1",
		LEDID:     "led-a",
		Message:   "Shed Main Array - Display",
		Details:   map[string]interface{}{"load_w": 450.0},
	}))
	require.NoError(t, s.AppendEvent(types.PowerEvent{
		Timestamp: base.Add(time.Minute),
		EventType: types.EventRestore,
		ArrayID:   "Array-1",
		LEDID:     "led-a",
		Message:   "Restored Main Array - Display",
	}))

	events, err := s.QueryEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventRestore, events[0].EventType)
	assert.Equal(t, types.EventShed, events[1].EventType)
	assert.Equal(t, 450.0, events[1].Details["load_w"])
	assert.Nil(t, events[0].Details)

	one, err := s.QueryEvents(1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tide.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Vacuum())
}
