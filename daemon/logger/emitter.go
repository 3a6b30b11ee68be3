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

// Subscriber receives live log entries. Returning an error drops the
// subscription; the socket bridge uses this to detach dead clients.
type Subscriber interface {
	OnLogEvent(entry *Entry) error
}

// subscriberBuffer bounds how far a slow subscriber may fall behind
// before entries are dropped for it.
const subscriberBuffer = 64

// Emitter fans entries out to subscribers. Each subscriber gets its
// own buffered channel and pump goroutine, so a stalled client never
// blocks the logging path: Emit does a non-blocking send and drops
// entries the buffer cannot hold.
type Emitter struct {
	mu   sync.Mutex
	subs map[Subscriber]chan *Entry
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[Subscriber]chan *Entry)}
}

// Subscribe registers a subscriber and starts its pump. Subscribing
// twice is a no-op.
func (e *Emitter) Subscribe(sub Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.subs[sub]; ok {
		return
	}
	ch := make(chan *Entry, subscriberBuffer)
	e.subs[sub] = ch
	go e.pump(sub, ch)
}

func (e *Emitter) pump(sub Subscriber, ch chan *Entry) {
	for entry := range ch {
		if err := sub.OnLogEvent(entry); err != nil {
			e.Unsubscribe(sub)
		}
	}
}

// Unsubscribe detaches a subscriber and stops its pump. Safe to call
// more than once.
func (e *Emitter) Unsubscribe(sub Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ch, ok := e.subs[sub]; ok {
		delete(e.subs, sub)
		close(ch)
	}
}

// Emit queues an entry for every subscriber without blocking.
func (e *Emitter) Emit(entry *Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}
