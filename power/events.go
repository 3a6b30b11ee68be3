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
	"sync"
	"time"

	"github.com/we-are-mono/tide/types"
)

// DefaultEventCapacity bounds the in-memory event ring.
const DefaultEventCapacity = 100

// Events is a bounded in-memory ring of power events, newest first.
// Optional subscribers receive each event as it is added; a slow
// subscriber never blocks the allocator.
type Events struct {
	mu   sync.Mutex
	buf  []types.PowerEvent
	max  int
	subs []func(types.PowerEvent)
	now  func() time.Time
}

// NewEvents creates an event ring holding at most capacity entries.
// A capacity of zero or less falls back to DefaultEventCapacity.
func NewEvents(capacity int) *Events {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &Events{max: capacity, now: time.Now}
}

// Subscribe registers a callback invoked for every added event.
func (e *Events) Subscribe(fn func(types.PowerEvent)) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

// Add records an event, evicting the oldest entry when full.
func (e *Events) Add(eventType, message, arrayID, ledID string, details map[string]interface{}) {
	ev := types.PowerEvent{
		Timestamp: e.now(),
		EventType: eventType,
		ArrayID:   arrayID,
		LEDID:     ledID,
		Message:   message,
		Details:   details,
	}

	e.mu.Lock()
	e.buf = append([]types.PowerEvent{ev}, e.buf...)
	if len(e.buf) > e.max {
		e.buf = e.buf[:e.max]
	}
	subs := make([]func(types.PowerEvent), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Recent returns up to n events, newest first. n <= 0 returns all.
func (e *Events) Recent(n int) []types.PowerEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n <= 0 || n > len(e.buf) {
		n = len(e.buf)
	}
	out := make([]types.PowerEvent, n)
	copy(out, e.buf[:n])
	return out
}
