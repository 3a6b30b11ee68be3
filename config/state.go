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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LoadState loads persisted JSON state for a given namespace from the
// config directory. The state parameter should be a pointer to the
// struct to unmarshal into.
func LoadState(namespace string, state interface{}) error {
	path := filepath.Join(GetConfigDir(), namespace+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s state: %w", namespace, err)
	}

	if err := json.Unmarshal(data, state); err != nil {
		// Provide more helpful error message for JSON syntax errors
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			line, col := getLineCol(data, syntaxErr.Offset)
			return fmt.Errorf("failed to parse %s state at %s line %d, column %d: %w",
				namespace, path, line, col, err)
		}
		return fmt.Errorf("failed to parse %s state: %w", namespace, err)
	}

	return nil
}

// getLineCol calculates the line and column number for a byte offset in JSON data
func getLineCol(data []byte, offset int64) (line, col int) {
	line = 1
	col = 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

// SaveState saves JSON state for a given namespace to the config
// directory. Automatically creates backups and uses atomic writes.
func SaveState(namespace string, state interface{}) error {
	dir := GetConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, namespace+".json")

	// Create backup if file exists
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
		if err := copyFile(path, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s state: %w", namespace, err)
	}

	// Write atomically (temp file + rename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0600)
}

// UnmarshalJSON unmarshals JSON data with enhanced error reporting
func UnmarshalJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			line, col := getLineCol(data, syntaxErr.Offset)
			return fmt.Errorf("JSON syntax error at line %d, column %d: %w", line, col, err)
		}
		return err
	}
	return nil
}
