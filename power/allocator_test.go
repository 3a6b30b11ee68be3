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

package power

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/tide/types"
)

// fakeClock drives the allocator's restore delay deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAllocator(cfg types.BudgetConfig) (*Allocator, *fakeClock, *Events) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	events := NewEvents(100)
	a := NewAllocator(cfg, events)
	a.now = clock.now
	return a, clock, events
}

func led(id string, priority int, intensity float64, on bool) *types.LED {
	return &types.LED{
		ID:                  id,
		Label:               id,
		IntensityLimitPct:   intensity,
		Priority:            priority,
		IsOn:                on,
		CurrentIntensityPct: intensity,
	}
}

func mainArray(powerW float64, leds ...*types.LED) *Array {
	return &Array{
		ID:              "main",
		Name:            "Main Array",
		Enabled:         true,
		PowerW:          powerW,
		Duty:            1.0,
		MaxCurrentA:     10,
		NominalVoltageV: 48,
		LEDs:            leds,
	}
}

func TestShedNothingWhenBudgetFits(t *testing.T) {
	a, _, _ := newTestAllocator(types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 10})
	arrays := []*Array{mainArray(300, led("l1", 1, 80, true))}

	shed, restored := a.Allocate(arrays, 400, 0)
	assert.Empty(t, shed)
	assert.Empty(t, restored)
	assert.True(t, arrays[0].LEDs[0].IsOn)
}

func TestShedLowestPriorityFirst(t *testing.T) {
	a, _, _ := newTestAllocator(types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 10})

	// 450 W of load against a 400 W supply. The priority-1 LED covers
	// the 50 W deficit on its own, so priority-5 must stay on.
	low := led("aux", 1, 30, true)
	high := led("display", 5, 90, true)
	low.CurrentIntensityPct = 24  // 54 W share of the 450 W array
	high.CurrentIntensityPct = 44 // ~100 W share

	arrays := []*Array{mainArray(450, high, low)}
	shed, _ := a.Allocate(arrays, 400, 0)

	require.Len(t, shed, 1)
	assert.Equal(t, "aux", shed[0].LEDID)
	assert.False(t, low.IsOn)
	assert.Zero(t, low.CurrentIntensityPct)
	assert.True(t, high.IsOn)
}

func TestShedCascadesWhenDeficitRemains(t *testing.T) {
	a, _, events := newTestAllocator(types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 10})

	low := led("aux", 1, 10, true)
	high := led("display", 5, 90, true)
	arrays := []*Array{mainArray(450, high, low)}

	// The low-priority LED's estimated share (10% of 225 W) cannot
	// cover the 150 W deficit, so the pass continues to priority 5.
	shed, _ := a.Allocate(arrays, 300, 0)
	require.Len(t, shed, 2)
	assert.Equal(t, "aux", shed[0].LEDID)
	assert.Equal(t, "display", shed[1].LEDID)

	recent := events.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, types.EventShed, recent[0].EventType)
	// Newest first: the display shed is at the head.
	assert.Equal(t, "display", recent[0].LEDID)
}

func TestShedSkipsDisabledArrays(t *testing.T) {
	a, _, _ := newTestAllocator(types.BudgetConfig{})
	arr := mainArray(500, led("l1", 1, 80, true))
	arr.Enabled = false

	shed, _ := a.Allocate([]*Array{arr}, 100, 0)
	assert.Empty(t, shed)
	assert.True(t, arr.LEDs[0].IsOn)
}

func TestRestoreWaitsForDelay(t *testing.T) {
	cfg := types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 10}
	a, clock, _ := newTestAllocator(cfg)

	off := led("aux", 1, 50, false)
	off.CurrentIntensityPct = 0
	arrays := []*Array{mainArray(100, off)}

	// Plenty of surplus, but the first sighting only starts the timer.
	_, restored := a.Allocate(arrays, 500, 0)
	assert.Empty(t, restored)

	// Still inside the delay window.
	clock.advance(5 * time.Second)
	_, restored = a.Allocate(arrays, 500, 0)
	assert.Empty(t, restored)

	// Past the window: restored at limit x duty.
	clock.advance(6 * time.Second)
	_, restored = a.Allocate(arrays, 500, 0)
	require.Len(t, restored, 1)
	assert.True(t, off.IsOn)
	assert.InDelta(t, 50.0, off.CurrentIntensityPct, 1e-9)
}

func TestSurplusDipResetsAllTimers(t *testing.T) {
	cfg := types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 10}
	a, clock, _ := newTestAllocator(cfg)

	off := led("aux", 1, 50, false)
	arrays := []*Array{mainArray(100, off)}

	_, restored := a.Allocate(arrays, 500, 0)
	assert.Empty(t, restored)
	clock.advance(8 * time.Second)

	// One tick below the hysteresis band wipes the pending timer.
	_, restored = a.Allocate(arrays, 105, 0)
	assert.Empty(t, restored)

	// Surplus returns, but the clock starts over: 8 more seconds is
	// not enough.
	clock.advance(1 * time.Second)
	_, restored = a.Allocate(arrays, 500, 0)
	assert.Empty(t, restored)
	clock.advance(8 * time.Second)
	_, restored = a.Allocate(arrays, 500, 0)
	assert.Empty(t, restored)

	clock.advance(3 * time.Second)
	_, restored = a.Allocate(arrays, 500, 0)
	assert.Len(t, restored, 1)
}

func TestRestoreHighestPriorityFirst(t *testing.T) {
	cfg := types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 0}
	a, clock, _ := newTestAllocator(cfg)

	low := led("aux", 1, 50, false)
	high := led("display", 5, 50, false)
	arrays := []*Array{mainArray(0, low, high)}

	// First pass seeds both timers; RestoreDelayS=0 makes the second
	// pass eligible immediately.
	a.Allocate(arrays, 500, 0)
	clock.advance(time.Second)
	_, restored := a.Allocate(arrays, 500, 0)

	require.Len(t, restored, 2)
	assert.Equal(t, "display", restored[0].LEDID)
	assert.Equal(t, "aux", restored[1].LEDID)
}

func TestRestoreRespectsRemainingSurplus(t *testing.T) {
	cfg := types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 0}
	a, clock, _ := newTestAllocator(cfg)

	// Each LED estimates at 50% x 1.0 x (10 A x 48 V / 2) = 120 W.
	low := led("aux", 1, 50, false)
	high := led("display", 5, 50, false)
	arrays := []*Array{mainArray(0, low, high)}

	// 150 W of surplus fits one 120 W estimate, not two.
	a.Allocate(arrays, 150, 0)
	clock.advance(time.Second)
	_, restored := a.Allocate(arrays, 150, 0)

	require.Len(t, restored, 1)
	assert.Equal(t, "display", restored[0].LEDID)
	assert.False(t, low.IsOn)
}

func TestRestoreBlockedInsideHysteresisBand(t *testing.T) {
	cfg := types.BudgetConfig{TargetWatts: 400, RestoreHysteresisPct: 10, RestoreDelayS: 0}
	a, clock, _ := newTestAllocator(cfg)

	off := led("aux", 1, 50, false)
	arrays := []*Array{mainArray(480, off)}

	// 500 W available against 480 W load: a 20 W surplus is inside the
	// 50 W hysteresis band, so nothing restores however long it lasts.
	for i := 0; i < 5; i++ {
		_, restored := a.Allocate(arrays, 500, 0)
		assert.Empty(t, restored)
		clock.advance(10 * time.Second)
	}
	assert.False(t, off.IsOn)
}

func TestZeroLEDArrayDoesNotPanic(t *testing.T) {
	a, clock, _ := newTestAllocator(types.BudgetConfig{RestoreHysteresisPct: 10, RestoreDelayS: 0})
	empty := mainArray(100)

	assert.NotPanics(t, func() {
		a.Allocate([]*Array{empty}, 50, 0)
		clock.advance(time.Second)
		a.Allocate([]*Array{empty}, 500, 0)
	})
}

func TestBatteryReserveCountsAsSupply(t *testing.T) {
	a, _, _ := newTestAllocator(types.BudgetConfig{RestoreHysteresisPct: 10, RestoreDelayS: 10})
	arrays := []*Array{mainArray(450, led("l1", 1, 80, true))}

	// 300 W of generation plus 200 W of usable reserve covers 450 W.
	shed, _ := a.Allocate(arrays, 300, 200)
	assert.Empty(t, shed)
}

func TestEventsRing(t *testing.T) {
	e := NewEvents(3)
	for i := 0; i < 5; i++ {
		e.Add(types.EventAlert, "msg", "", "", nil)
	}
	assert.Len(t, e.Recent(0), 3)
	assert.Len(t, e.Recent(2), 2)

	e2 := NewEvents(10)
	var seen []types.PowerEvent
	e2.Subscribe(func(ev types.PowerEvent) { seen = append(seen, ev) })
	e2.Add(types.EventWarning, "low battery", "", "", nil)
	require.Len(t, seen, 1)
	assert.Equal(t, "low battery", seen[0].Message)
}
