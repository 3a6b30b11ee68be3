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

// Package controller assembles the daemon: hardware driver, device
// registry, wavemaker and array managers, power-budget allocator,
// storage, MQTT publisher and the multi-rate scheduler, and exposes
// the synchronous control operations the socket handlers call.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/we-are-mono/tide/array"
	"github.com/we-are-mono/tide/config"
	"github.com/we-are-mono/tide/daemon/logger"
	"github.com/we-are-mono/tide/device"
	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/mqtt"
	"github.com/we-are-mono/tide/power"
	"github.com/we-are-mono/tide/preset"
	"github.com/we-are-mono/tide/sched"
	"github.com/we-are-mono/tide/storage"
	"github.com/we-are-mono/tide/types"
	"github.com/we-are-mono/tide/wavemaker"
)

var log = logger.Component("controller")

const (
	updateInterval      = 50 * time.Millisecond
	telemetryInterval   = time.Second
	maintenanceInterval = time.Minute

	// Battery participates in the budget only while it can actually
	// deliver. Matches the health check's critical threshold.
	batteryReserveMinV = 12.2

	telemetryRetention = 7 * 24 * time.Hour
)

// ledDevice is a standalone PWM LED output, optionally mirroring a
// wavemaker channel's pattern value. manual is written by control
// handlers while the update tick reads it.
type ledDevice struct {
	id        string
	dev       *device.Device
	followID  int
	hasFollow bool
	manual    atomic.Bool
}

// Controller owns every subsystem and the scheduler driving them.
type Controller struct {
	cfg       config.Config
	driverCli *hw.DriverClient
	driver    hw.Driver
	registry  *device.Registry
	store     *storage.Store
	presets   *preset.Manager
	wavemaker *wavemaker.Manager
	arrays    *array.Manager
	events    *power.Events
	allocator *power.Allocator
	publisher *mqtt.Publisher
	scheduler *sched.Scheduler

	leds       map[string]*ledDevice
	lastHealth string
}

// New builds the full subsystem graph from configuration. Nothing runs
// until Start.
func New(cfg config.Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	presets, err := preset.NewManager(store)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize presets: %w", err)
	}

	driverCli, err := hw.OpenDriver(cfg.Driver)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open hardware driver %q: %w", cfg.Driver, err)
	}
	driver := driverCli.Driver()

	registry := device.NewRegistry(driver)

	wm, err := wavemaker.NewManager(cfg.Channels, registry, driver, presets)
	if err != nil {
		driverCli.Close()
		store.Close()
		return nil, err
	}

	arrays, err := array.NewManager(cfg.Arrays, driver)
	if err != nil {
		driverCli.Close()
		store.Close()
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		driverCli: driverCli,
		driver:    driver,
		registry:  registry,
		store:     store,
		presets:   presets,
		wavemaker: wm,
		arrays:    arrays,
		scheduler: sched.New(),
		leds:      make(map[string]*ledDevice),
	}

	channelIDs := make(map[string]int)
	for _, ch := range cfg.Channels {
		channelIDs[ch.Name] = ch.ID
	}
	for _, lc := range cfg.LEDDevices {
		dev, err := registry.RegisterLED(lc.ID, lc.Device)
		if err != nil {
			c.closeSubsystems()
			return nil, fmt.Errorf("failed to register LED device %s: %w", lc.ID, err)
		}
		led := &ledDevice{id: lc.ID, dev: dev}
		if lc.Follow != "" {
			led.followID = channelIDs[lc.Follow]
			led.hasFollow = true
		}
		c.leds[lc.ID] = led
	}

	c.events = power.NewEvents(power.DefaultEventCapacity)
	c.allocator = power.NewAllocator(cfg.Budget, c.events)
	c.events.Subscribe(c.onPowerEvent)

	c.publisher, err = mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT broker unreachable, telemetry publishing disabled",
			logger.Field{Key: "broker", Value: cfg.MQTT.BrokerURL},
			logger.Field{Key: "error", Value: err.Error()})
		c.publisher = nil
	}

	return c, nil
}

// Start registers the periodic triggers and runs the scheduler until
// the context is cancelled or Stop is called.
func (c *Controller) Start(ctx context.Context) {
	c.scheduler.Register(sched.Trigger{Name: "update", Interval: updateInterval, Fn: c.updateTick})
	c.scheduler.Register(sched.Trigger{Name: "telemetry", Interval: telemetryInterval, Fn: c.telemetryTick})
	c.scheduler.Register(sched.Trigger{Name: "maintenance", Interval: maintenanceInterval, Fn: c.maintenanceTick})
	c.scheduler.Start(ctx)

	log.Info("Controller started",
		logger.Field{Key: "driver", Value: c.cfg.Driver},
		logger.Field{Key: "channels", Value: len(c.cfg.Channels)},
		logger.Field{Key: "arrays", Value: len(c.cfg.Arrays)})
}

// Stop halts the scheduler, zeroes every output and releases the
// driver, database and broker connections.
func (c *Controller) Stop() {
	c.scheduler.Stop()
	c.registry.StopAll()
	c.closeSubsystems()
	log.Info("Controller stopped")
}

func (c *Controller) closeSubsystems() {
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.driverCli != nil {
		if err := c.driverCli.Close(); err != nil {
			log.Error("Failed to close hardware driver", logger.Field{Key: "error", Value: err.Error()})
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			log.Error("Failed to close storage", logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

// updateTick is the fast loop: advance every wavemaker pattern, then
// mirror pattern values onto follower LEDs.
func (c *Controller) updateTick(now time.Time) {
	c.wavemaker.UpdateAll(now)

	for _, led := range c.leds {
		if !led.hasFollow || led.manual.Load() {
			continue
		}
		v, ok := c.wavemaker.PatternValue(led.followID, now)
		if !ok {
			continue
		}
		if err := led.dev.Apply(v); err != nil {
			log.Error("Failed to drive LED device",
				logger.Field{Key: "id", Value: led.id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

// telemetryTick is the slow loop: sample sensors, rebalance the power
// budget, evaluate health and publish the snapshot.
func (c *Controller) telemetryTick(now time.Time) {
	c.wavemaker.SampleAll(now)
	rows := c.arrays.Snapshot(now)

	pvW, batteryVoutV := c.arrays.Supply()
	var batteryW float64
	if batteryVoutV >= batteryReserveMinV {
		batteryW = c.cfg.Budget.TargetWatts - pvW
		if batteryW < 0 {
			batteryW = 0
		}
	}
	shed, restored := c.arrays.Allocate(c.allocator, pvW, batteryW)
	if len(shed) > 0 || len(restored) > 0 {
		log.Info("Power budget rebalanced",
			logger.Field{Key: "shed", Value: len(shed)},
			logger.Field{Key: "restored", Value: len(restored)})
	}

	health := array.CheckHealth(rows)
	c.reportHealth(health)

	snap := types.Snapshot{
		TS:       now,
		Stages:   rows,
		Channels: c.wavemaker.Status(),
		Health:   health,
	}
	c.scheduler.Publish(&snap)
	if c.publisher != nil {
		c.publisher.PublishSnapshot(&snap)
	}

	if err := c.store.AppendTelemetry(rows); err != nil {
		log.Error("Failed to persist telemetry", logger.Field{Key: "error", Value: err.Error()})
	}
}

// reportHealth emits an event when the aggregate health status changes.
func (c *Controller) reportHealth(h types.HealthReport) {
	if h.Status == c.lastHealth {
		return
	}
	c.lastHealth = h.Status

	switch h.Status {
	case "error":
		c.events.Add(types.EventAlert, strings.Join(h.Errors, "; "), "", "", nil)
	case "warning":
		c.events.Add(types.EventWarning, strings.Join(h.Warnings, "; "), "", "", nil)
	}
}

func (c *Controller) maintenanceTick(now time.Time) {
	pruned, err := c.store.PruneTelemetry(now.Add(-telemetryRetention))
	if err != nil {
		log.Error("Telemetry prune failed", logger.Field{Key: "error", Value: err.Error()})
		return
	}
	if pruned > 0 {
		log.Debug("Pruned telemetry rows", logger.Field{Key: "rows", Value: pruned})
	}
}

// onPowerEvent fans each allocator event out to storage and MQTT.
func (c *Controller) onPowerEvent(ev types.PowerEvent) {
	if err := c.store.AppendEvent(ev); err != nil {
		log.Error("Failed to persist power event", logger.Field{Key: "error", Value: err.Error()})
	}
	if c.publisher != nil {
		c.publisher.PublishEvent(ev)
	}
}

// Snapshot returns the latest published snapshot, or assembles one on
// the spot when the telemetry loop has not fired yet.
func (c *Controller) Snapshot() *types.Snapshot {
	if v := c.scheduler.Latest(); v != nil {
		if snap, ok := v.(*types.Snapshot); ok {
			return snap
		}
	}
	rows := c.arrays.Snapshot(time.Now())
	return &types.Snapshot{
		TS:       time.Now(),
		Stages:   rows,
		Channels: c.wavemaker.Status(),
		Health:   array.CheckHealth(rows),
	}
}

// Channels returns the status of every wavemaker channel.
func (c *Controller) Channels() []types.ChannelStatus {
	return c.wavemaker.Status()
}

// Channel returns one wavemaker channel's status.
func (c *Controller) Channel(id int) (types.ChannelStatus, error) {
	return c.wavemaker.ChannelStatus(id)
}

// UpdateChannel applies a partial update to one wavemaker channel.
func (c *Controller) UpdateChannel(id int, u wavemaker.Update) error {
	return c.wavemaker.UpdateChannel(id, u, time.Now())
}

// History returns a channel's recent power samples.
func (c *Controller) History(id int, window time.Duration) ([]types.HistoryPoint, error) {
	if _, err := c.wavemaker.ChannelStatus(id); err != nil {
		return nil, err
	}
	return c.wavemaker.History(id, window), nil
}

// Presets exposes the preset manager for CRUD and activation.
func (c *Controller) Presets() *preset.Manager {
	return c.presets
}

// Stages returns the status of every array stage.
func (c *Controller) Stages() []types.StageStatus {
	return c.arrays.ListStatus()
}

// StageLEDs returns the loads on one array stage.
func (c *Controller) StageLEDs(stageID string) ([]types.LED, error) {
	return c.arrays.LEDsForStage(stageID)
}

// ControlStage sets mode, duty or enable on one array stage.
func (c *Controller) ControlStage(stageID string, mode *string, duty *float64, enable *bool) error {
	return c.arrays.Control(stageID, mode, duty, enable)
}

// Events returns the n most recent power events, newest first.
func (c *Controller) Events(n int) []types.PowerEvent {
	return c.events.Recent(n)
}

// LEDDevices returns the registered standalone LED device IDs.
func (c *Controller) LEDDevices() []string {
	return c.registry.LEDs()
}

// SetLEDDuty drives a standalone LED device directly and suspends its
// follow binding until ClearLEDManual.
func (c *Controller) SetLEDDuty(id string, intensity float64) error {
	led, ok := c.leds[id]
	if !ok {
		return fmt.Errorf("unknown LED device %s", id)
	}
	led.manual.Store(true)
	return led.dev.Apply(intensity)
}

// ClearLEDManual resumes a LED device's follow binding.
func (c *Controller) ClearLEDManual(id string) error {
	led, ok := c.leds[id]
	if !ok {
		return fmt.Errorf("unknown LED device %s", id)
	}
	led.manual.Store(false)
	return nil
}

// EmergencyStop zeroes every output immediately. Pattern state is
// reset to OFF; devices keep their pins so normal operation can resume
// without a restart.
func (c *Controller) EmergencyStop() {
	log.Warn("Emergency stop requested")
	c.presets.Deactivate()
	c.wavemaker.EmergencyStop()
	c.registry.StopAll()
	c.events.Add(types.EventAlert, "Emergency stop: all outputs disabled", "", "", nil)
}
