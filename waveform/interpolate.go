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
	"sort"

	"github.com/we-are-mono/tide/types"
)

// Interpolate returns the power percentage of a keyframe curve at the
// given cycle position (percent in [0, 100]). Keyframes need not arrive
// sorted. Positions before the first keyframe clamp to its power,
// positions after the last clamp to its power, and a zero-width
// interval returns the left keyframe's power. An empty curve is 0.
func Interpolate(curve []types.Keyframe, timePct float64) float64 {
	if len(curve) == 0 {
		return 0.0
	}

	sorted := make([]types.Keyframe, len(curve))
	copy(sorted, curve)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	if timePct <= sorted[0].Time {
		return sorted[0].Power
	}
	if timePct >= sorted[len(sorted)-1].Time {
		return sorted[len(sorted)-1].Power
	}

	for i := 0; i < len(sorted)-1; i++ {
		left, right := sorted[i], sorted[i+1]
		if timePct < left.Time || timePct > right.Time {
			continue
		}
		span := right.Time - left.Time
		if span == 0 {
			return left.Power
		}
		ratio := (timePct - left.Time) / span
		return left.Power + ratio*(right.Power-left.Power)
	}

	return sorted[len(sorted)-1].Power
}
