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

package preset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/tide/types"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	presets map[int64]types.Preset
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{presets: make(map[int64]types.Preset), nextID: 1}
}

func (s *memStore) ListPresets() ([]types.Preset, error) {
	var out []types.Preset
	for _, p := range s.presets {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) GetPreset(id int64) (*types.Preset, error) {
	p, ok := s.presets[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) CreatePreset(p *types.Preset) (int64, error) {
	id := s.nextID
	s.nextID++
	p.ID = id
	s.presets[id] = *p
	return id, nil
}

func (s *memStore) UpdatePreset(p *types.Preset) error {
	s.presets[p.ID] = *p
	return nil
}

func (s *memStore) DeletePreset(id int64) error {
	delete(s.presets, id)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	m, err := NewManager(store)
	require.NoError(t, err)
	return m, store
}

func findByName(t *testing.T, m *Manager, name string) types.Preset {
	t.Helper()
	all, err := m.List()
	require.NoError(t, err)
	for _, p := range all {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("preset %q not found", name)
	return types.Preset{}
}

func TestSeedsBuiltIns(t *testing.T) {
	m, _ := newTestManager(t)

	all, err := m.List()
	require.NoError(t, err)
	assert.Len(t, all, 6)

	names := make(map[string]bool)
	for _, p := range all {
		assert.True(t, p.IsBuiltIn, "%s should be built-in", p.Name)
		assert.Len(t, p.FlowCurves, curveChannels, "%s curve count", p.Name)
		names[p.Name] = true
	}
	for _, want := range []string{
		"Gentle Flow", "Pulse", "Gyre Clockwise",
		"Gyre Counter-Clockwise", "Feed Mode", "Random Reef",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	store := newMemStore()
	_, err := NewManager(store)
	require.NoError(t, err)

	// A second manager over the same store must not re-seed.
	m, err := NewManager(store)
	require.NoError(t, err)
	all, err := m.List()
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestBuiltInImmutability(t *testing.T) {
	m, _ := newTestManager(t)
	gentle := findByName(t, m, "Gentle Flow")

	err := m.Update(&gentle)
	assert.ErrorIs(t, err, ErrBuiltIn)

	err = m.Delete(gentle.ID)
	assert.ErrorIs(t, err, ErrBuiltIn)
}

func TestUserPresetLifecycle(t *testing.T) {
	m, _ := newTestManager(t)

	p := types.Preset{
		Name:             "Night Calm",
		CycleDurationSec: 120,
		FlowCurves: map[string][]types.Keyframe{
			"wavemaker_1": {{Time: 0, Power: 10}, {Time: 100, Power: 10}},
		},
	}
	id, err := m.Create(&p)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Night Calm", got.Name)
	assert.False(t, got.IsBuiltIn)

	got.CycleDurationSec = 240
	require.NoError(t, m.Update(got))

	require.NoError(t, m.Delete(id))
	_, err = m.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsInvalid(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name   string
		preset types.Preset
	}{
		{"empty name", types.Preset{
			CycleDurationSec: 60,
			FlowCurves:       map[string][]types.Keyframe{"wavemaker_1": {{Time: 0, Power: 50}}},
		}},
		{"zero cycle", types.Preset{
			Name:       "x",
			FlowCurves: map[string][]types.Keyframe{"wavemaker_1": {{Time: 0, Power: 50}}},
		}},
		{"no curves", types.Preset{Name: "x", CycleDurationSec: 60}},
		{"power out of range", types.Preset{
			Name: "x", CycleDurationSec: 60,
			FlowCurves: map[string][]types.Keyframe{"wavemaker_1": {{Time: 0, Power: 150}}},
		}},
		{"time out of range", types.Preset{
			Name: "x", CycleDurationSec: 60,
			FlowCurves: map[string][]types.Keyframe{"wavemaker_1": {{Time: 120, Power: 50}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(&tt.preset)
			assert.Error(t, err)
		})
	}
}

func TestActivateAndPowerLevels(t *testing.T) {
	m, _ := newTestManager(t)
	pulse := findByName(t, m, "Pulse")
	start := time.Now()

	require.NoError(t, m.Activate(pulse.ID, start))
	require.NotNil(t, m.Active())

	// One second into the ten second cycle is 10% in: halfway up the
	// ramp from 20 to 80.
	levels, ok := m.PowerLevels(start.Add(1 * time.Second))
	require.True(t, ok)
	assert.InDelta(t, 50, levels["wavemaker_1"], 1e-9)

	// The cycle wraps: eleven seconds in matches one second in.
	wrapped, ok := m.PowerLevels(start.Add(11 * time.Second))
	require.True(t, ok)
	assert.InDelta(t, levels["wavemaker_1"], wrapped["wavemaker_1"], 1e-9)
}

func TestActivateUnknownPreset(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Activate(9999, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivate(t *testing.T) {
	m, _ := newTestManager(t)
	pulse := findByName(t, m, "Pulse")
	require.NoError(t, m.Activate(pulse.ID, time.Now()))

	m.Deactivate()
	assert.Nil(t, m.Active())
	_, ok := m.PowerLevels(time.Now())
	assert.False(t, ok)
}

func TestDeleteActivePresetDeactivates(t *testing.T) {
	m, _ := newTestManager(t)

	p := types.Preset{
		Name:             "Temp",
		CycleDurationSec: 60,
		FlowCurves: map[string][]types.Keyframe{
			"wavemaker_1": {{Time: 0, Power: 40}},
		},
	}
	id, err := m.Create(&p)
	require.NoError(t, err)
	require.NoError(t, m.Activate(id, time.Now()))

	require.NoError(t, m.Delete(id))
	assert.Nil(t, m.Active())
}

func TestGyrePresetsAreStaggered(t *testing.T) {
	m, _ := newTestManager(t)
	cw := findByName(t, m, "Gyre Clockwise")

	// Adjacent channels run the same wave shifted in time.
	c1 := cw.FlowCurves["wavemaker_1"]
	c2 := cw.FlowCurves["wavemaker_2"]
	require.Len(t, c1, 13)
	require.Len(t, c2, 13)
	assert.NotEqual(t, c1[0].Power, c2[0].Power)

	for _, curve := range cw.FlowCurves {
		for _, kf := range curve {
			assert.GreaterOrEqual(t, kf.Power, 19.0)
			assert.LessOrEqual(t, kf.Power, 80.0)
		}
	}
}
