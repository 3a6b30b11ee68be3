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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
	assert.Equal(t, "error", LevelError.String())
}

func resetLogger(t *testing.T, level string) {
	t.Helper()
	Init(Config{Level: level, Format: "json"}, nil, nil)
	t.Cleanup(func() { std = nil })
}

func TestLevelFilter(t *testing.T) {
	resetLogger(t, "warn")

	Debug("dropped")
	Info("dropped")
	Warn("kept")
	Error("kept too")

	recent := Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "kept too", recent[0].Message)
	assert.Equal(t, "kept", recent[1].Message)
}

func TestComponentStamping(t *testing.T) {
	resetLogger(t, "info")

	Component("wavemaker").Info("pattern applied")
	Info("plain")

	recent := Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "daemon", recent[0].Component)
	assert.Equal(t, "wavemaker", recent[1].Component)
}

func TestNoopBeforeInit(t *testing.T) {
	require.Nil(t, std)
	Info("goes nowhere")
	assert.Nil(t, Recent(0))
	assert.Nil(t, GetEmitter())
}

func TestEntryToTextSortsFields(t *testing.T) {
	e := NewEntry("info", "power", "rebalanced", []Field{
		{Key: "shed", Value: 2},
		{Key: "available_w", Value: 310.5},
	})
	text := e.ToText()
	assert.Contains(t, text, "[info] [power] rebalanced")
	assert.Less(t, strings.Index(text, "available_w=310.5"), strings.Index(text, "shed=2"))
}

func TestRenderFormats(t *testing.T) {
	e := NewEntry("warn", "array", "battery low", nil)

	js, err := render(e, "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(js), "{"))

	txt, err := render(e, "text")
	require.NoError(t, err)
	assert.Contains(t, string(txt), "battery low")
}

func TestRingWrapsAround(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Add(NewEntry("info", "", fmt.Sprintf("m%d", i), nil))
	}

	recent := r.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "m4", recent[0].Message)
	assert.Equal(t, "m2", recent[2].Message)

	assert.Len(t, r.Recent(2), 2)
}

type collectingSubscriber struct {
	mu      sync.Mutex
	entries []*Entry
	fail    bool
}

func (s *collectingSubscriber) OnLogEvent(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("gone")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *collectingSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestEmitterDeliversToSubscriber(t *testing.T) {
	e := NewEmitter()
	sub := &collectingSubscriber{}
	e.Subscribe(sub)

	e.Emit(NewEntry("info", "", "one", nil))
	e.Emit(NewEntry("info", "", "two", nil))

	assert.Eventually(t, func() bool { return sub.count() == 2 },
		time.Second, 5*time.Millisecond)

	e.Unsubscribe(sub)
	e.Emit(NewEntry("info", "", "three", nil))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, sub.count())
}

func TestEmitterDropsFailingSubscriber(t *testing.T) {
	e := NewEmitter()
	sub := &collectingSubscriber{fail: true}
	e.Subscribe(sub)

	e.Emit(NewEntry("info", "", "boom", nil))

	assert.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return len(e.subs) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestFileBackendWritesAndRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tide.log")

	b, err := NewFileBackend(path, "text")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Write(NewEntry("info", "daemon", "started", nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")

	// Force the next write over the size limit.
	b.size = maxLogFileBytes
	require.NoError(t, b.Write(NewEntry("info", "daemon", "after rotation", nil)))

	_, err = os.Stat(path + ".old")
	assert.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
	assert.NotContains(t, string(data), "started")
}
