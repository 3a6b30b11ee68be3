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

// Package power implements the power budget allocator: when demand
// exceeds available supply it sheds LED loads lowest priority first,
// and restores them highest priority first once a sustained surplus
// reappears.
package power

import (
	"sort"
	"time"

	"github.com/we-are-mono/tide/types"
)

// Array is the allocator's view of one LED array: measured load,
// current dimming duty and the loads it carries. The allocator mutates
// LED on/off state in place.
type Array struct {
	ID              string
	Name            string
	Enabled         bool
	PowerW          float64
	Duty            float64
	MaxCurrentA     float64
	NominalVoltageV float64
	LEDs            []*types.LED
}

// Change identifies one LED whose state the allocator flipped.
type Change struct {
	ArrayID string
	LEDID   string
}

type ledKey struct {
	arrayID string
	ledID   string
}

// Allocator runs the shed/restore passes once per tick. It keeps the
// per-LED timers that implement the restore delay, so a single
// Allocator instance must see every tick.
type Allocator struct {
	cfg    types.BudgetConfig
	events *Events

	lastShed     map[ledKey]time.Time
	surplusStart map[ledKey]time.Time

	now func() time.Time
}

// NewAllocator creates an allocator with the given budget policy.
func NewAllocator(cfg types.BudgetConfig, events *Events) *Allocator {
	return &Allocator{
		cfg:          cfg,
		events:       events,
		lastShed:     make(map[ledKey]time.Time),
		surplusStart: make(map[ledKey]time.Time),
		now:          time.Now,
	}
}

// Allocate runs one shed pass followed by one restore pass and returns
// the LEDs changed by each.
func (a *Allocator) Allocate(arrays []*Array, pvW, batteryW float64) (shed, restored []Change) {
	shed = a.shedPass(arrays, pvW, batteryW)
	restored = a.restorePass(arrays, pvW, batteryW)
	return shed, restored
}

func totalLoad(arrays []*Array) float64 {
	var load float64
	for _, arr := range arrays {
		if arr.Enabled {
			load += arr.PowerW
		}
	}
	return load
}

type ledRef struct {
	array *Array
	led   *types.LED
}

// sortedLEDs collects LEDs from enabled arrays ordered by ascending
// priority. The shed pass walks this forward; restore walks it
// reversed, so the highest priority loads come back first.
func sortedLEDs(arrays []*Array) []ledRef {
	var refs []ledRef
	for _, arr := range arrays {
		if !arr.Enabled {
			continue
		}
		for _, led := range arr.LEDs {
			refs = append(refs, ledRef{array: arr, led: led})
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].led.Priority < refs[j].led.Priority
	})
	return refs
}

func onCount(arr *Array) int {
	n := 0
	for _, led := range arr.LEDs {
		if led.IsOn {
			n++
		}
	}
	return n
}

// shedPass turns off loads lowest priority first until demand fits the
// available supply.
func (a *Allocator) shedPass(arrays []*Array, pvW, batteryW float64) []Change {
	available := pvW + batteryW
	load := totalLoad(arrays)
	if load <= available {
		return nil
	}

	deficit := load - available
	var changed []Change

	for _, ref := range sortedLEDs(arrays) {
		if !ref.led.IsOn {
			continue
		}
		on := onCount(ref.array)
		if on == 0 {
			continue
		}

		// Estimate from the measured array load split evenly across
		// its on loads, scaled by this LED's intensity.
		ledPower := (ref.led.CurrentIntensityPct / 100.0) * (ref.array.PowerW / float64(on))

		ref.led.IsOn = false
		ref.led.CurrentIntensityPct = 0
		changed = append(changed, Change{ArrayID: ref.array.ID, LEDID: ref.led.ID})
		a.lastShed[ledKey{ref.array.ID, ref.led.ID}] = a.now()

		if a.events != nil {
			a.events.Add(types.EventShed,
				"Shed "+ref.array.Name+" - "+ref.led.Label,
				ref.array.ID, ref.led.ID,
				map[string]interface{}{
					"reason":      "insufficient_power",
					"available_w": available,
					"load_w":      load,
					"led_power_w": ledPower,
				})
		}

		deficit -= ledPower
		if deficit <= 0 {
			break
		}
	}
	return changed
}

// restorePass turns loads back on highest priority first, but only
// after the surplus has both cleared the hysteresis band and persisted
// for the configured delay.
func (a *Allocator) restorePass(arrays []*Array, pvW, batteryW float64) []Change {
	available := pvW + batteryW
	load := totalLoad(arrays)

	surplus := available - load
	required := available * (a.cfg.RestoreHysteresisPct / 100.0)
	if surplus <= required {
		// Surplus collapsed: every pending restore starts over.
		clear(a.surplusStart)
		return nil
	}

	refs := sortedLEDs(arrays)
	now := a.now()
	var changed []Change

	for i := len(refs) - 1; i >= 0; i-- {
		ref := refs[i]
		if ref.led.IsOn {
			continue
		}
		key := ledKey{ref.array.ID, ref.led.ID}

		start, seen := a.surplusStart[key]
		if !seen {
			a.surplusStart[key] = now
			continue
		}
		if now.Sub(start).Seconds() < a.cfg.RestoreDelayS {
			continue
		}

		if len(ref.array.LEDs) == 0 {
			continue
		}
		// Rated product split across the array's loads, scaled by the
		// configured limit and current duty. An approximation, not a
		// meter reading.
		estimated := (ref.led.IntensityLimitPct / 100.0) * ref.array.Duty *
			(ref.array.MaxCurrentA * ref.array.NominalVoltageV / float64(len(ref.array.LEDs)))
		if estimated > surplus {
			continue
		}

		ref.led.IsOn = true
		ref.led.CurrentIntensityPct = ref.led.IntensityLimitPct * ref.array.Duty
		changed = append(changed, Change{ArrayID: ref.array.ID, LEDID: ref.led.ID})
		delete(a.surplusStart, key)

		if a.events != nil {
			a.events.Add(types.EventRestore,
				"Restored "+ref.array.Name+" - "+ref.led.Label,
				ref.array.ID, ref.led.ID,
				map[string]interface{}{
					"available_w":           available,
					"load_w":                load,
					"surplus_w":             surplus,
					"estimated_led_power_w": estimated,
				})
		}

		surplus -= estimated
	}
	return changed
}
