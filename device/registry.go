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

package device

import (
	"fmt"
	"sync"

	"github.com/we-are-mono/tide/daemon/logger"
	"github.com/we-are-mono/tide/hw"
	"github.com/we-are-mono/tide/types"
)

var log = logger.Component("device")

// Registry holds all registered PWM devices, split into wavemakers
// and LED channels.
type Registry struct {
	mu         sync.RWMutex
	driver     hw.Driver
	wavemakers map[string]*Device
	leds       map[string]*Device
}

// NewRegistry creates an empty registry over a driver.
func NewRegistry(driver hw.Driver) *Registry {
	return &Registry{
		driver:     driver,
		wavemakers: make(map[string]*Device),
		leds:       make(map[string]*Device),
	}
}

// RegisterWavemaker creates and registers a wavemaker device.
func (r *Registry) RegisterWavemaker(id string, cfg types.DeviceConfig) (*Device, error) {
	return r.register(r.wavemakers, id, cfg)
}

// RegisterLED creates and registers an LED device.
func (r *Registry) RegisterLED(id string, cfg types.DeviceConfig) (*Device, error) {
	return r.register(r.leds, id, cfg)
}

func (r *Registry) register(devices map[string]*Device, id string, cfg types.DeviceConfig) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := devices[id]; exists {
		return nil, fmt.Errorf("device %s already registered", id)
	}
	dev, err := New(cfg, r.driver)
	if err != nil {
		return nil, err
	}
	devices[id] = dev
	log.Info("Registered device",
		logger.Field{Key: "id", Value: id},
		logger.Field{Key: "gpio_pin", Value: cfg.GPIOPin})
	return dev, nil
}

// Unregister stops and removes a device from either map.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, devices := range []map[string]*Device{r.wavemakers, r.leds} {
		if dev, ok := devices[id]; ok {
			delete(devices, id)
			return dev.Close()
		}
	}
	return fmt.Errorf("device %s not registered", id)
}

// Wavemaker returns a wavemaker device by ID.
func (r *Registry) Wavemaker(id string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.wavemakers[id]
	return dev, ok
}

// LED returns an LED device by ID.
func (r *Registry) LED(id string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.leds[id]
	return dev, ok
}

// Wavemakers returns the wavemaker map keys in no particular order.
func (r *Registry) Wavemakers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.wavemakers))
	for id := range r.wavemakers {
		ids = append(ids, id)
	}
	return ids
}

// LEDs returns the LED map keys in no particular order.
func (r *Registry) LEDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.leds))
	for id := range r.leds {
		ids = append(ids, id)
	}
	return ids
}

// Reload replaces a registered device's configuration in place: the
// hardware is re-acquired but the logical device keeps its identity,
// so held references stay valid.
func (r *Registry) Reload(id string, cfg types.DeviceConfig) error {
	r.mu.RLock()
	dev, ok := r.wavemakers[id]
	if !ok {
		dev, ok = r.leds[id]
	}
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("device %s not registered", id)
	}
	if err := dev.reconfigure(cfg); err != nil {
		return err
	}
	log.Info("Reloaded device", logger.Field{Key: "id", Value: id})
	return nil
}

// StopAll zeroes every output. Safe to call at any time.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log.Warn("Stopping all device outputs")
	for id, dev := range r.wavemakers {
		if err := dev.Stop(); err != nil {
			log.Error("Failed to stop device",
				logger.Field{Key: "id", Value: id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
	for id, dev := range r.leds {
		if err := dev.Stop(); err != nil {
			log.Error("Failed to stop device",
				logger.Field{Key: "id", Value: id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}
