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

package hw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimPWMLifecycle(t *testing.T) {
	d := NewSimDriver(1)

	require.NoError(t, d.InitPWM(18, 500))
	require.NoError(t, d.SetDuty(18, 0.75))

	duty, ok := d.Duty(18)
	require.True(t, ok)
	assert.Equal(t, 0.75, duty)

	require.NoError(t, d.SetFrequency(18, 1000))
	require.NoError(t, d.StopPWM(18))
	_, ok = d.Duty(18)
	assert.False(t, ok)
}

func TestSimRejectsUninitializedPin(t *testing.T) {
	d := NewSimDriver(1)
	assert.Error(t, d.SetDuty(17, 0.5))
	assert.Error(t, d.SetFrequency(17, 500))
}

func TestSimClampsDuty(t *testing.T) {
	d := NewSimDriver(1)
	require.NoError(t, d.InitPWM(18, 500))

	require.NoError(t, d.SetDuty(18, 1.7))
	duty, _ := d.Duty(18)
	assert.Equal(t, 1.0, duty)

	require.NoError(t, d.SetDuty(18, -0.3))
	duty, _ = d.Duty(18)
	assert.Equal(t, 0.0, duty)
}

func TestSimReadings(t *testing.T) {
	d := NewSimDriver(42)

	t.Run("disabled stage draws nothing", func(t *testing.T) {
		r, err := d.ReadSensor("array", 0.8, false)
		require.NoError(t, err)
		assert.Zero(t, r.IoutA)
		assert.Less(t, r.IinA, 0.2)
		assert.InDelta(t, simBaseVinV, r.VinV, 1.5)
	})

	t.Run("current tracks duty", func(t *testing.T) {
		r, err := d.ReadSensor("array", 1.0, true)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, r.IoutA, 0.2)
		// Full load droops output voltage about 10%.
		assert.InDelta(t, simBaseVoutV*0.9, r.VoutV, 1.0)
		// Input current carries the converter loss.
		assert.Greater(t, r.IinA, r.IoutA)
	})

	t.Run("currents never go negative", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			r, err := d.ReadSensor("array", 0, true)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.IoutA, 0.0)
			assert.GreaterOrEqual(t, r.IinA, 0.0)
		}
	})
}
