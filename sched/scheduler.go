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

// Package sched runs the controller's periodic triggers: each trigger
// fires on its own interval in its own goroutine, so a trigger never
// overlaps itself but different triggers interleave freely. A shared
// snapshot slot gives readers an atomic view of the latest published
// state.
package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/we-are-mono/tide/daemon/logger"
)

var log = logger.Component("sched")

// Trigger is one periodic job.
type Trigger struct {
	Name     string
	Interval time.Duration
	Fn       func(now time.Time)
}

// Scheduler owns a set of triggers and the published snapshot slot.
type Scheduler struct {
	mu       sync.Mutex
	triggers []Trigger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool

	snapshot atomic.Value
}

// New creates a stopped scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Register adds a trigger. Must be called before Start.
func (s *Scheduler) Register(t Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, t)
}

// Start launches one goroutine per trigger. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn("Scheduler already running")
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for _, t := range s.triggers {
		t := t
		s.wg.Add(1)
		go s.run(ctx, t)
	}
	log.Info("Scheduler started",
		logger.Field{Key: "triggers", Value: len(s.triggers)})
}

// run fires a trigger until the context is cancelled. The ticker
// drops missed firings, so a slow callback makes later ticks late
// rather than queueing them.
func (s *Scheduler) run(ctx context.Context, t Trigger) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Fn(now)
		}
	}
}

// Stop cancels all triggers and waits for in-flight callbacks to
// finish. Devices are left as-is; callers wanting zero output issue
// an emergency stop first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	log.Info("Scheduler stopped")
}

// Running reports whether the scheduler has been started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Publish atomically replaces the shared snapshot.
func (s *Scheduler) Publish(snapshot interface{}) {
	s.snapshot.Store(snapshot)
}

// Latest returns the most recently published snapshot, or nil before
// the first publish. Readers see either the old or the new value,
// never a partial one.
func (s *Scheduler) Latest() interface{} {
	return s.snapshot.Load()
}
