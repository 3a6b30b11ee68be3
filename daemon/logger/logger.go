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

// Package logger provides structured logging for the tide daemon.
// Entries carry a component name so socket subscribers can filter
// streams per subsystem. Every entry also lands in a bounded ring the
// daemon serves to `tide logs`.
package logger

import (
	"fmt"
	"os"
)

// Field is one structured key/value pair on a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to a Level. Unknown names mean info.
func ParseLevel(name string) Level {
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// Backend receives every entry that passes the level filter.
type Backend interface {
	Write(entry *Entry) error
	Close() error
}

// Config selects the severity floor and the rendering used by
// backends that serialize entries.
type Config struct {
	Level  string
	Format string
}

// ringCapacity bounds the in-memory entry history served over the
// socket.
const ringCapacity = 256

type sink struct {
	level    Level
	backends []Backend
	emitter  *Emitter
	recent   *Ring
}

// std is set once by Init before the daemon spawns goroutines.
// A nil std (CLI mode, tests) makes every log call a no-op.
var std *sink

// Init installs the process-wide logger. Call once, at daemon startup.
func Init(cfg Config, backends []Backend, emitter *Emitter) {
	std = &sink{
		level:    ParseLevel(cfg.Level),
		backends: backends,
		emitter:  emitter,
		recent:   NewRing(ringCapacity),
	}
}

// GetEmitter returns the emitter streaming entries to socket
// subscribers, or nil before Init.
func GetEmitter() *Emitter {
	if std == nil {
		return nil
	}
	return std.emitter
}

// Recent returns up to n buffered entries, newest first.
func Recent(n int) []*Entry {
	if std == nil {
		return nil
	}
	return std.recent.Recent(n)
}

func (s *sink) log(level Level, component, msg string, fields []Field) {
	if s == nil || level < s.level {
		return
	}

	entry := NewEntry(level.String(), component, msg, fields)
	s.recent.Add(entry)
	for _, b := range s.backends {
		if err := b.Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "log backend: %v\n", err)
		}
	}
	if s.emitter != nil {
		s.emitter.Emit(entry)
	}
}

// Logger stamps a fixed component name on every entry.
type Logger struct {
	component string
}

// Component returns a logger for one subsystem. The returned value is
// cheap and safe to store in a package-level var.
func Component(name string) *Logger {
	return &Logger{component: name}
}

func (l *Logger) Debug(msg string, fields ...Field) { std.log(LevelDebug, l.component, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { std.log(LevelInfo, l.component, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { std.log(LevelWarn, l.component, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { std.log(LevelError, l.component, msg, fields) }

// The package-level functions log under the daemon's own component.

func Debug(msg string, fields ...Field) { std.log(LevelDebug, "daemon", msg, fields) }
func Info(msg string, fields ...Field)  { std.log(LevelInfo, "daemon", msg, fields) }
func Warn(msg string, fields ...Field)  { std.log(LevelWarn, "daemon", msg, fields) }
func Error(msg string, fields ...Field) { std.log(LevelError, "daemon", msg, fields) }
