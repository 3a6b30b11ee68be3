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
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	simBaseVinV  = 36.0
	simBaseVoutV = 30.0
)

// SimDriver is an in-process Driver that fabricates plausible
// electrical readings from the commanded duty cycle. It backs
// development installs and the test suite.
type SimDriver struct {
	mu   sync.Mutex
	rng  *rand.Rand
	pins map[int]simPin
}

type simPin struct {
	freqHz int
	duty   float64
}

// NewSimDriver creates a simulator. Seed zero means random.
func NewSimDriver(seed int64) *SimDriver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimDriver{
		rng:  rand.New(rand.NewSource(seed)),
		pins: make(map[int]simPin),
	}
}

func (d *SimDriver) InitPWM(pin, freqHz int) error {
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be positive, got %d", freqHz)
	}
	d.mu.Lock()
	d.pins[pin] = simPin{freqHz: freqHz}
	d.mu.Unlock()
	return nil
}

func (d *SimDriver) SetDuty(pin int, duty float64) error {
	duty = math.Max(0, math.Min(1, duty))

	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d not initialized", pin)
	}
	p.duty = duty
	d.pins[pin] = p
	return nil
}

func (d *SimDriver) SetFrequency(pin, freqHz int) error {
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be positive, got %d", freqHz)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d not initialized", pin)
	}
	p.freqHz = freqHz
	d.pins[pin] = p
	return nil
}

// ReadSensor synthesizes a reading: output current tracks duty at
// roughly 2 A full scale, output voltage droops up to 10% under load,
// and input current runs ~10% above output for converter losses.
func (d *SimDriver) ReadSensor(_ string, duty float64, enabled bool) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !enabled {
		return Reading{
			VinV:  simBaseVinV + d.uniform(-1, 1),
			IinA:  d.uniform(0, 0.1),
			VoutV: simBaseVoutV + d.uniform(-1, 1),
			IoutA: 0,
		}, nil
	}

	iout := math.Max(0, duty*2.0+d.uniform(-0.1, 0.1))
	vout := simBaseVoutV*(1.0-duty*0.1) + d.uniform(-0.5, 0.5)
	iin := math.Max(0, iout*1.1+d.uniform(-0.05, 0.05))
	vin := simBaseVinV + d.uniform(-2, 2)

	return Reading{VinV: vin, IinA: iin, VoutV: vout, IoutA: iout}, nil
}

func (d *SimDriver) StopPWM(pin int) error {
	d.mu.Lock()
	delete(d.pins, pin)
	d.mu.Unlock()
	return nil
}

func (d *SimDriver) Close() error {
	d.mu.Lock()
	d.pins = make(map[int]simPin)
	d.mu.Unlock()
	return nil
}

// Duty reports the last commanded duty for a pin. Test helper.
func (d *SimDriver) Duty(pin int) (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[pin]
	return p.duty, ok
}

func (d *SimDriver) uniform(lo, hi float64) float64 {
	return lo + d.rng.Float64()*(hi-lo)
}
