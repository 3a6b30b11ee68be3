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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/we-are-mono/tide/types"
)

func TestInterpolate(t *testing.T) {
	curve := []types.Keyframe{
		{Time: 0, Power: 0},
		{Time: 20, Power: 100},
		{Time: 50, Power: 100},
		{Time: 70, Power: 0},
		{Time: 100, Power: 0},
	}

	t.Run("exact keyframes", func(t *testing.T) {
		for _, kf := range curve {
			assert.InDelta(t, kf.Power, Interpolate(curve, kf.Time), 1e-9, "time=%v", kf.Time)
		}
	})

	t.Run("linear between keyframes", func(t *testing.T) {
		assert.InDelta(t, 50, Interpolate(curve, 10), 1e-9)
		assert.InDelta(t, 100, Interpolate(curve, 35), 1e-9)
		assert.InDelta(t, 50, Interpolate(curve, 60), 1e-9)
	})

	t.Run("clamps outside the curve", func(t *testing.T) {
		assert.InDelta(t, 0, Interpolate(curve, -5), 1e-9)
		assert.InDelta(t, 0, Interpolate(curve, 130), 1e-9)
	})

	t.Run("empty curve", func(t *testing.T) {
		assert.Equal(t, 0.0, Interpolate(nil, 50))
	})

	t.Run("single keyframe", func(t *testing.T) {
		one := []types.Keyframe{{Time: 40, Power: 75}}
		assert.InDelta(t, 75, Interpolate(one, 0), 1e-9)
		assert.InDelta(t, 75, Interpolate(one, 40), 1e-9)
		assert.InDelta(t, 75, Interpolate(one, 99), 1e-9)
	})

	t.Run("coincident keyframes step not divide", func(t *testing.T) {
		step := []types.Keyframe{
			{Time: 0, Power: 10},
			{Time: 50, Power: 10},
			{Time: 50, Power: 90},
			{Time: 100, Power: 90},
		}
		assert.InDelta(t, 10, Interpolate(step, 50), 1e-9)
	})

	t.Run("unsorted input", func(t *testing.T) {
		shuffled := []types.Keyframe{
			{Time: 70, Power: 0},
			{Time: 0, Power: 0},
			{Time: 50, Power: 100},
			{Time: 100, Power: 0},
			{Time: 20, Power: 100},
		}
		assert.InDelta(t, 50, Interpolate(shuffled, 10), 1e-9)
		// The caller's slice is left untouched.
		assert.Equal(t, 70.0, shuffled[0].Time)
	})

	t.Run("pulse preset shape", func(t *testing.T) {
		pulse := []types.Keyframe{
			{Time: 0, Power: 0},
			{Time: 20, Power: 100},
			{Time: 40, Power: 100},
			{Time: 60, Power: 0},
			{Time: 100, Power: 0},
		}
		// One second into a ten second cycle is 10% of the way in.
		assert.InDelta(t, 50, Interpolate(pulse, 10), 1e-9)
	})

	t.Run("monotonic on a monotonic span", func(t *testing.T) {
		prev := Interpolate(curve, 0.0)
		for pct := 0.5; pct <= 20; pct += 0.5 {
			v := Interpolate(curve, pct)
			assert.GreaterOrEqual(t, v, prev, "pct=%v", pct)
			prev = v
		}
	})
}
