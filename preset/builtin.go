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
	"fmt"
	"math"
	"math/rand"

	"github.com/we-are-mono/tide/types"
)

// curveChannels is the number of logical channel keys carried by every
// built-in preset. Installations with fewer channels simply ignore the
// extra curves.
const curveChannels = 12

// BuiltIns returns the factory presets seeded into an empty store.
func BuiltIns() []types.Preset {
	return []types.Preset{
		gentleFlow(),
		pulse(),
		gyre("Gyre Clockwise", "Rotating flow pattern, clockwise", false),
		gyre("Gyre Counter-Clockwise", "Rotating flow pattern, counter-clockwise", true),
		feedMode(),
		randomReef(),
	}
}

func flatCurves(power float64) map[string][]types.Keyframe {
	curves := make(map[string][]types.Keyframe, curveChannels)
	for i := 1; i <= curveChannels; i++ {
		curves[channelKey(i)] = []types.Keyframe{
			{Time: 0, Power: power},
			{Time: 100, Power: power},
		}
	}
	return curves
}

func gentleFlow() types.Preset {
	return types.Preset{
		Name:             "Gentle Flow",
		Description:      "Calm, steady flow for sensitive corals",
		CycleDurationSec: 60,
		IsBuiltIn:        true,
		FlowCurves:       flatCurves(30),
	}
}

func pulse() types.Preset {
	curves := make(map[string][]types.Keyframe, curveChannels)
	for i := 1; i <= curveChannels; i++ {
		curves[channelKey(i)] = []types.Keyframe{
			{Time: 0, Power: 20},
			{Time: 20, Power: 80},
			{Time: 50, Power: 20},
			{Time: 100, Power: 20},
		}
	}
	return types.Preset{
		Name:             "Pulse",
		Description:      "Short bursts of strong flow",
		CycleDurationSec: 10,
		IsBuiltIn:        true,
		FlowCurves:       curves,
	}
}

// gyre staggers a sinusoid across the channels so the peak travels
// around the tank once per cycle. Reversed ordering flips the travel
// direction.
func gyre(name, description string, reversed bool) types.Preset {
	curves := make(map[string][]types.Keyframe, curveChannels)
	for i := 1; i <= curveChannels; i++ {
		offset := float64((i - 1) * 30)
		if reversed && i > 1 {
			offset = float64((curveChannels - i + 1) * 30)
		}

		var points []types.Keyframe
		for deg := 0; deg <= 360; deg += 30 {
			phase := math.Mod(float64(deg)+offset, 360)
			power := math.Trunc(50 + 30*math.Sin(phase*math.Pi/180))
			timePct := math.Round(float64(deg)/360*100*10) / 10
			points = append(points, types.Keyframe{Time: timePct, Power: power})
		}
		curves[channelKey(i)] = points
	}
	return types.Preset{
		Name:             name,
		Description:      description,
		CycleDurationSec: 60,
		IsBuiltIn:        true,
		FlowCurves:       curves,
	}
}

func feedMode() types.Preset {
	return types.Preset{
		Name:             "Feed Mode",
		Description:      "Minimal flow for feeding time",
		CycleDurationSec: 600,
		IsBuiltIn:        true,
		FlowCurves:       flatCurves(5),
	}
}

// randomReef uses a fixed seed so the factory preset is identical on
// every installation.
func randomReef() types.Preset {
	rng := rand.New(rand.NewSource(42))

	curves := make(map[string][]types.Keyframe, curveChannels)
	for i := 1; i <= curveChannels; i++ {
		points := []types.Keyframe{
			{Time: 0, Power: float64(40 + rng.Intn(31))},
		}
		for pct := 8; pct <= 104; pct += 8 {
			points = append(points, types.Keyframe{
				Time:  math.Min(float64(pct), 100),
				Power: float64(30 + rng.Intn(51)),
			})
		}
		curves[channelKey(i)] = points
	}
	return types.Preset{
		Name:             "Random Reef",
		Description:      "Chaotic natural reef flow",
		CycleDurationSec: 60,
		IsBuiltIn:        true,
		FlowCurves:       curves,
	}
}

func channelKey(i int) string {
	return fmt.Sprintf("wavemaker_%d", i)
}
