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

package logger

import (
	"sync"
)

// Ring keeps the most recent log entries in memory so the daemon can
// serve them over the socket without touching journald or log files.
type Ring struct {
	mu      sync.Mutex
	entries []*Entry
	next    int
	full    bool
}

// NewRing creates a ring holding up to capacity entries.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{entries: make([]*Entry, capacity)}
}

// Add records one entry, evicting the oldest when full.
func (r *Ring) Add(entry *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = entry
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Recent returns up to n entries, newest first.
func (r *Ring) Recent(n int) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.entries)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]*Entry, 0, n)
	idx := r.next
	for i := 0; i < n; i++ {
		idx--
		if idx < 0 {
			idx = len(r.entries) - 1
		}
		out = append(out, r.entries[idx])
	}
	return out
}
