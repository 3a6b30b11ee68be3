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

// Package waveform computes time-varying intensity values for pattern
// playback. A Generator is a pure function of (config, time) apart from
// the smoothing state the RANDOM mode carries; given the same config and
// timestamps it always reproduces the same output.
package waveform

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Mode is the closed set of pattern families.
type Mode int

const (
	ModeOff Mode = iota
	ModeConstant
	ModePulse
	ModeGyre
	ModeRandom
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeConstant:
		return "CONSTANT"
	case ModePulse:
		return "PULSE"
	case ModeGyre:
		return "GYRE"
	case ModeRandom:
		return "RANDOM"
	default:
		return "OFF"
	}
}

// ParseMode converts a wire name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "OFF":
		return ModeOff, nil
	case "CONSTANT":
		return ModeConstant, nil
	case "PULSE":
		return ModePulse, nil
	case "GYRE":
		return ModeGyre, nil
	case "RANDOM":
		return ModeRandom, nil
	default:
		return ModeOff, fmt.Errorf("unknown pattern mode: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler so configs serialize
// with the wire names.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config describes one pattern. Replacing a generator's config resets
// its time origin so the pattern restarts at phase 0.
type Config struct {
	Mode         Mode    `json:"mode" yaml:"mode"`
	PeriodS      float64 `json:"period_s" yaml:"period_s"`
	OnRatio      float64 `json:"on_ratio" yaml:"on_ratio"`
	PhaseDeg     float64 `json:"phase_deg" yaml:"phase_deg"`
	MinIntensity float64 `json:"min_intensity" yaml:"min_intensity"`
	MaxIntensity float64 `json:"max_intensity" yaml:"max_intensity"`
}

// DefaultConfig returns a constant full-range pattern with a 5 s period.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeConstant,
		PeriodS:      5.0,
		OnRatio:      0.5,
		MinIntensity: 0.0,
		MaxIntensity: 1.0,
	}
}

// Validate rejects configs the evaluator has no defined output for.
func (c Config) Validate() error {
	if c.OnRatio < 0 || c.OnRatio > 1 {
		return fmt.Errorf("on ratio %v out of range [0, 1]", c.OnRatio)
	}
	if c.MinIntensity < 0 || c.MaxIntensity > 1 {
		return fmt.Errorf("intensity range [%v, %v] must lie within [0, 1]", c.MinIntensity, c.MaxIntensity)
	}
	if c.MinIntensity > c.MaxIntensity {
		return fmt.Errorf("min intensity %v exceeds max intensity %v", c.MinIntensity, c.MaxIntensity)
	}
	return nil
}

// Resampling cadence of the RANDOM mode: a new target roughly every
// 10 s, blended in over 5 s so the output never jumps.
const (
	randomBucketS = 10.0
	randomRampS   = 5.0
)

// Generator evaluates one pattern over time. Not safe for concurrent
// use; the owning registry serializes access.
type Generator struct {
	cfg      Config
	phaseRad float64
	origin   float64 // wall-clock seconds at (re)start

	// RANDOM smoothing state.
	randBucket int64
	randPrev   float64
	randTarget float64
}

// NewGenerator creates a generator whose time origin is now.
func NewGenerator(cfg Config, now float64) *Generator {
	g := &Generator{}
	g.Reset(cfg, now)
	return g
}

// Config returns the generator's current configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Reset replaces the configuration and restarts the pattern at phase 0.
func (g *Generator) Reset(cfg Config, now float64) {
	g.cfg = cfg
	g.phaseRad = cfg.PhaseDeg * math.Pi / 180.0
	g.origin = now
	g.randBucket = -1
	g.randPrev = 0.5
	g.randTarget = 0.5
}

// Reconfigure swaps the configuration while keeping the time origin,
// so parameter tweaks do not restart the pattern.
func (g *Generator) Reconfigure(cfg Config) {
	g.cfg = cfg
	g.phaseRad = cfg.PhaseDeg * math.Pi / 180.0
}

// Value computes the intensity at wall-clock time t (seconds), scaled
// into [MinIntensity, MaxIntensity].
func (g *Generator) Value(t float64) float64 {
	rel := t - g.origin

	var raw float64
	switch g.cfg.Mode {
	case ModeOff:
		raw = 0.0
	case ModeConstant:
		raw = 1.0
	case ModePulse:
		raw = g.pulse(rel)
	case ModeGyre:
		raw = g.gyre(rel)
	case ModeRandom:
		raw = g.random(rel)
	default:
		raw = 0.0
	}

	return g.cfg.MinIntensity + raw*(g.cfg.MaxIntensity-g.cfg.MinIntensity)
}

// pulse is 1 while the fractional phase is below the on ratio.
// A non-positive period means always on.
func (g *Generator) pulse(t float64) float64 {
	if g.cfg.PeriodS <= 0 {
		return 1.0
	}
	phase := math.Mod(t, g.cfg.PeriodS) / g.cfg.PeriodS
	if phase < 0 {
		phase += 1.0
	}
	if phase < g.cfg.OnRatio {
		return 1.0
	}
	return 0.0
}

// gyre is a phase-offset sinusoid in [0, 1]. A non-positive period
// degenerates to the midpoint.
func (g *Generator) gyre(t float64) float64 {
	if g.cfg.PeriodS <= 0 {
		return 0.5
	}
	phase := math.Mod(t, g.cfg.PeriodS) / g.cfg.PeriodS
	return 0.5 * (1.0 + math.Sin(2*math.Pi*phase+g.phaseRad))
}

// random holds a target derived deterministically from the 10 s time
// bucket and blends linearly toward it over the first 5 s of the
// bucket. Replays over the same timestamps reproduce the same output.
func (g *Generator) random(t float64) float64 {
	if t < 0 {
		t = 0
	}
	bucket := int64(t / randomBucketS)
	if bucket != g.randBucket {
		// The previous ramp has always settled: ramp (5 s) < bucket (10 s).
		if g.randBucket >= 0 {
			g.randPrev = g.randTarget
		}
		g.randTarget = bucketTarget(bucket)
		g.randBucket = bucket
	}

	// Linear blend from the bucket-boundary value toward the target.
	elapsed := t - float64(bucket)*randomBucketS
	alpha := elapsed / randomRampS
	if alpha > 1 {
		alpha = 1
	}
	if alpha < 0 {
		alpha = 0
	}
	return g.randPrev + alpha*(g.randTarget-g.randPrev)
}

// bucketTarget derives a reproducible target in [0.3, 1.0] from the
// bucket index.
func bucketTarget(bucket int64) float64 {
	h := fnv.New64a()
	var buf [8]byte
	v := uint64(bucket)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
	return 0.3 + 0.7*float64(h.Sum64()%1000)/1000.0
}
