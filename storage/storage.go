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

// Package storage persists presets, telemetry history and power
// events in SQLite using the pure-Go driver, so the daemon builds
// without cgo.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite3 driver

	"github.com/we-are-mono/tide/types"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open connects to (or creates) the database at path and initializes
// the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS presets (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			name               TEXT NOT NULL,
			description        TEXT,
			cycle_duration_sec REAL NOT NULL,
			is_built_in        INTEGER NOT NULL DEFAULT 0,
			flow_curves        TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS telemetry (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			stage_id TEXT NOT NULL,
			ts       TEXT NOT NULL,
			vin_v    REAL NOT NULL,
			iin_a    REAL NOT NULL,
			vout_v   REAL NOT NULL,
			iout_a   REAL NOT NULL,
			mode     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_telemetry_ts ON telemetry(ts);
		CREATE INDEX IF NOT EXISTS idx_telemetry_stage ON telemetry(stage_id);

		CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  TEXT NOT NULL,
			event_type TEXT NOT NULL,
			array_id   TEXT,
			led_id     TEXT,
			message    TEXT NOT NULL,
			details    TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ============================================================================
// Presets
// ============================================================================

// ListPresets returns all stored presets ordered by ID.
func (s *Store) ListPresets() ([]types.Preset, error) {
	rows, err := s.db.Query(`SELECT id, name, description, cycle_duration_sec, is_built_in, flow_curves FROM presets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	var out []types.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPreset returns one preset, or nil if the ID is unknown.
func (s *Store) GetPreset(id int64) (*types.Preset, error) {
	row := s.db.QueryRow(`SELECT id, name, description, cycle_duration_sec, is_built_in, flow_curves FROM presets WHERE id = ?`, id)
	p, err := scanPreset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePreset inserts a preset and returns the assigned ID.
func (s *Store) CreatePreset(p *types.Preset) (int64, error) {
	curves, err := json.Marshal(p.FlowCurves)
	if err != nil {
		return 0, fmt.Errorf("failed to encode flow curves: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO presets (name, description, cycle_duration_sec, is_built_in, flow_curves) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.CycleDurationSec, boolToInt(p.IsBuiltIn), string(curves))
	if err != nil {
		return 0, fmt.Errorf("failed to insert preset: %w", err)
	}
	return res.LastInsertId()
}

// UpdatePreset replaces a stored preset's fields.
func (s *Store) UpdatePreset(p *types.Preset) error {
	curves, err := json.Marshal(p.FlowCurves)
	if err != nil {
		return fmt.Errorf("failed to encode flow curves: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE presets SET name = ?, description = ?, cycle_duration_sec = ?, is_built_in = ?, flow_curves = ? WHERE id = ?`,
		p.Name, p.Description, p.CycleDurationSec, boolToInt(p.IsBuiltIn), string(curves), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update preset: %w", err)
	}
	return nil
}

// DeletePreset removes a preset.
func (s *Store) DeletePreset(id int64) error {
	_, err := s.db.Exec(`DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreset(row rowScanner) (types.Preset, error) {
	var p types.Preset
	var builtIn int
	var curves string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CycleDurationSec, &builtIn, &curves); err != nil {
		return types.Preset{}, err
	}
	p.IsBuiltIn = builtIn != 0
	if err := json.Unmarshal([]byte(curves), &p.FlowCurves); err != nil {
		return types.Preset{}, fmt.Errorf("failed to decode flow curves: %w", err)
	}
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// Telemetry
// ============================================================================

// AppendTelemetry persists a batch of telemetry rows.
func (s *Store) AppendTelemetry(rows []types.Telemetry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO telemetry (stage_id, ts, vin_v, iin_a, vout_v, iout_a, mode) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.StageID, r.TS.UTC().Format(time.RFC3339Nano), r.VinV, r.IinA, r.VoutV, r.IoutA, r.Mode); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert telemetry: %w", err)
		}
	}
	return tx.Commit()
}

// QueryTelemetry returns a stage's rows since the cutoff, oldest
// first.
func (s *Store) QueryTelemetry(stageID string, since time.Time) ([]types.Telemetry, error) {
	rows, err := s.db.Query(
		`SELECT stage_id, ts, vin_v, iin_a, vout_v, iout_a, mode FROM telemetry WHERE stage_id = ? AND ts >= ? ORDER BY ts`,
		stageID, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry: %w", err)
	}
	defer rows.Close()

	var out []types.Telemetry
	for rows.Next() {
		var r types.Telemetry
		var ts string
		if err := rows.Scan(&r.StageID, &ts, &r.VinV, &r.IinA, &r.VoutV, &r.IoutA, &r.Mode); err != nil {
			return nil, err
		}
		if r.TS, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse telemetry timestamp: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneTelemetry deletes rows older than the cutoff and returns the
// number removed.
func (s *Store) PruneTelemetry(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM telemetry WHERE ts < ?`, before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to prune telemetry: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// Events
// ============================================================================

// AppendEvent persists one power event.
func (s *Store) AppendEvent(ev types.PowerEvent) error {
	var details string
	if ev.Details != nil {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("failed to encode event details: %w", err)
		}
		details = string(b)
	}

	_, err := s.db.Exec(
		`INSERT INTO events (timestamp, event_type, array_id, led_id, message, details) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Timestamp.UTC().Format(time.RFC3339Nano), ev.EventType, ev.ArrayID, ev.LEDID, ev.Message, details)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// QueryEvents returns the most recent events, newest first.
func (s *Store) QueryEvents(limit int) ([]types.PowerEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT timestamp, event_type, array_id, led_id, message, details FROM events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []types.PowerEvent
	for rows.Next() {
		var ev types.PowerEvent
		var ts, details string
		if err := rows.Scan(&ts, &ev.EventType, &ev.ArrayID, &ev.LEDID, &ev.Message, &details); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		if details != "" {
			if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
				return nil, fmt.Errorf("failed to decode event details: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Vacuum compacts the database file.
func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}
