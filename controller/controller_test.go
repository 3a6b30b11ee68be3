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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/tide/config"
	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/wavemaker"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "tide.db")
	cfg.MQTT.BrokerURL = ""
	return cfg
}

func newController(t *testing.T, cfg config.Config) *Controller {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.closeSubsystems() })
	return c
}

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Channels[1].Device.GPIOPin = cfg.Channels[0].Device.GPIOPin

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSnapshotBeforeFirstTick(t *testing.T) {
	c := newController(t, testConfig(t))

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Len(t, snap.Channels, 6)
	// One stage per configured array plus the battery.
	assert.Len(t, snap.Stages, 2)
}

func TestUpdateTickDrivesChannel(t *testing.T) {
	cfg := testConfig(t)
	c := newController(t, cfg)

	err := c.UpdateChannel(0, update(strPtr("CONSTANT"), intPtr(80), nil))
	require.NoError(t, err)
	c.updateTick(time.Now())

	sim := c.driver.(*hw.SimDriver)
	duty, _ := sim.Duty(cfg.Channels[0].Device.GPIOPin)
	assert.InDelta(t, 0.8, duty, 0.001)
}

func TestLEDFollowsChannelPattern(t *testing.T) {
	cfg := testConfig(t)
	cfg.LEDDevices = []types.LEDDeviceConfig{ledDeviceConfig("moonlight", 26, "Front Left")}
	c := newController(t, cfg)

	require.NoError(t, c.UpdateChannel(0, update(strPtr("CONSTANT"), intPtr(60), nil)))
	c.updateTick(time.Now())

	sim := c.driver.(*hw.SimDriver)
	duty, _ := sim.Duty(26)
	assert.InDelta(t, 0.6, duty, 0.001)
}

func TestManualLEDSuspendsFollow(t *testing.T) {
	cfg := testConfig(t)
	cfg.LEDDevices = []types.LEDDeviceConfig{ledDeviceConfig("moonlight", 26, "Front Left")}
	c := newController(t, cfg)

	require.NoError(t, c.UpdateChannel(0, update(strPtr("CONSTANT"), intPtr(60), nil)))
	require.NoError(t, c.SetLEDDuty("moonlight", 0.1))
	c.updateTick(time.Now())

	sim := c.driver.(*hw.SimDriver)
	duty, _ := sim.Duty(26)
	assert.InDelta(t, 0.1, duty, 0.001)

	require.NoError(t, c.ClearLEDManual("moonlight"))
	c.updateTick(time.Now())
	duty, _ = sim.Duty(26)
	assert.InDelta(t, 0.6, duty, 0.001)
}

func TestSetLEDDutyUnknownDevice(t *testing.T) {
	c := newController(t, testConfig(t))
	assert.Error(t, c.SetLEDDuty("nope", 0.5))
	assert.Error(t, c.ClearLEDManual("nope"))
}

func TestManualToggleConcurrentWithUpdateTick(t *testing.T) {
	cfg := testConfig(t)
	cfg.LEDDevices = []types.LEDDeviceConfig{ledDeviceConfig("moonlight", 26, "Front Left")}
	c := newController(t, cfg)

	require.NoError(t, c.UpdateChannel(0, update(strPtr("CONSTANT"), intPtr(60), nil)))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.updateTick(time.Now())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, c.SetLEDDuty("moonlight", 0.1))
			assert.NoError(t, c.ClearLEDManual("moonlight"))
		}
	}()
	wg.Wait()

	c.updateTick(time.Now())
	sim := c.driver.(*hw.SimDriver)
	duty, _ := sim.Duty(26)
	assert.InDelta(t, 0.6, duty, 0.001)
}

func TestTelemetryTickPublishesSnapshot(t *testing.T) {
	c := newController(t, testConfig(t))

	now := time.Now()
	c.telemetryTick(now)

	v := c.scheduler.Latest()
	require.NotNil(t, v)
	snap := v.(*types.Snapshot)
	assert.Equal(t, now, snap.TS)
	assert.Len(t, snap.Stages, 2)
	assert.NotEmpty(t, snap.Health.Status)
}

func TestTelemetryTickPersistsRows(t *testing.T) {
	c := newController(t, testConfig(t))

	c.telemetryTick(time.Now())

	rows, err := c.store.QueryTelemetry("Array-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}

func TestHealthEventOnlyOnStatusChange(t *testing.T) {
	c := newController(t, testConfig(t))

	c.reportHealth(types.HealthReport{Status: "warning", Warnings: []string{"battery low"}})
	c.reportHealth(types.HealthReport{Status: "warning", Warnings: []string{"battery low"}})
	c.reportHealth(types.HealthReport{Status: "error", Errors: []string{"battery critical"}})

	events := c.Events(0)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventAlert, events[0].EventType)
	assert.Equal(t, types.EventWarning, events[1].EventType)
}

func TestEmergencyStopZeroesEverything(t *testing.T) {
	cfg := testConfig(t)
	c := newController(t, cfg)

	require.NoError(t, c.UpdateChannel(0, update(strPtr("CONSTANT"), intPtr(100), nil)))
	c.updateTick(time.Now())
	sim := c.driver.(*hw.SimDriver)
	duty, _ := sim.Duty(cfg.Channels[0].Device.GPIOPin)
	require.Greater(t, duty, 0.0)

	c.EmergencyStop()
	duty, _ = sim.Duty(cfg.Channels[0].Device.GPIOPin)
	assert.Zero(t, duty)

	// The next fast tick must not revive the output.
	c.updateTick(time.Now().Add(time.Second))
	duty, _ = sim.Duty(cfg.Channels[0].Device.GPIOPin)
	assert.Zero(t, duty)

	events := c.Events(1)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventAlert, events[0].EventType)
}

func TestExportImportRoundTrip(t *testing.T) {
	c := newController(t, testConfig(t))

	require.NoError(t, c.UpdateChannel(2, update(strPtr("PULSE"), intPtr(70), f64Ptr(0.3))))
	_, err := c.Presets().Create(&types.Preset{
		Name:             "Night Flow",
		CycleDurationSec: 120,
		FlowCurves: map[string][]types.Keyframe{
			"wavemaker_1": {{Time: 0, Power: 10}, {Time: 100, Power: 10}},
		},
	})
	require.NoError(t, err)

	bundle, err := c.Export()
	require.NoError(t, err)
	assert.Len(t, bundle.Channels, 6)
	require.Len(t, bundle.Presets, 1)
	assert.Equal(t, "Night Flow", bundle.Presets[0].Name)

	other := newController(t, testConfig(t))
	result, err := other.Import(bundle)
	require.NoError(t, err)
	assert.Equal(t, 6, result.ChannelsApplied)
	assert.Equal(t, 1, result.PresetsCreated)

	ch, err := other.Channel(2)
	require.NoError(t, err)
	assert.Equal(t, "PULSE", ch.Mode)
	assert.Equal(t, 70, ch.TargetPowerPct)
	assert.InDelta(t, 0.3, ch.PulseDutyRatio, 0.001)

	// Re-importing skips the existing preset.
	result, err = other.Import(bundle)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PresetsSkipped)
}

func TestImportRejectsUnknownChannel(t *testing.T) {
	c := newController(t, testConfig(t))

	bundle := &ExportBundle{Version: 1, Channels: []ChannelState{{ID: 99, Mode: "OFF"}}}
	_, err := c.Import(bundle)
	assert.Error(t, err)
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	c := newController(t, testConfig(t))

	_, err := c.Import(&ExportBundle{Version: 2})
	assert.Error(t, err)
}

func update(mode *string, target *int, ratio *float64) wavemaker.Update {
	return wavemaker.Update{Mode: mode, TargetPowerPct: target, PulseDutyRatio: ratio}
}

func ledDeviceConfig(id string, pin int, follow string) types.LEDDeviceConfig {
	return types.LEDDeviceConfig{
		ID:     id,
		Follow: follow,
		Device: types.DeviceConfig{
			Name:         id,
			GPIOPin:      pin,
			PWMFreqHz:    800,
			MinIntensity: 0,
			MaxIntensity: 1,
			VoltsMin:     0,
			VoltsMax:     5,
		},
	}
}
