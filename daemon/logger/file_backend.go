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
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxLogFileBytes triggers rotation. One .old generation is kept.
const maxLogFileBytes = 10 << 20

// FileBackend appends rendered entries to a log file, rotating it to
// <path>.old when it grows past maxLogFileBytes.
type FileBackend struct {
	mu     sync.Mutex
	path   string
	format string
	file   *os.File
	size   int64
}

// NewFileBackend opens (creating if needed) the log file for append.
func NewFileBackend(path, format string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	b := &FileBackend{path: path, format: format}
	if err := b.open(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FileBackend) open() error {
	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	b.file = f
	b.size = info.Size()
	return nil
}

// Write renders and appends one entry, rotating first if the file is
// full.
func (b *FileBackend) Write(entry *Entry) error {
	line, err := render(entry, b.format)
	if err != nil {
		return fmt.Errorf("rendering log entry: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size+int64(len(line))+1 > maxLogFileBytes {
		if err := b.rotate(); err != nil {
			return err
		}
	}
	n, err := b.file.Write(append(line, '\n'))
	b.size += int64(n)
	if err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}
	return nil
}

func (b *FileBackend) rotate() error {
	b.file.Close()
	if err := os.Rename(b.path, b.path+".old"); err != nil {
		return fmt.Errorf("rotating log file: %w", err)
	}
	return b.open()
}

// Close flushes and closes the underlying file.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}
