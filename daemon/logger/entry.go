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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one log record. The JSON shape is the wire format consumed
// by socket log subscribers, so the tags are stable.
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

// NewEntry stamps the current UTC time on a new record.
func NewEntry(level, component, message string, fields []Field) *Entry {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return &Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    m,
	}
}

// ToJSON renders the entry as a single JSON object.
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToText renders the entry for humans: timestamp, level, component,
// message, then fields as key=value sorted by key.
func (e *Entry) ToText() string {
	var b strings.Builder
	b.WriteString(e.Timestamp)
	b.WriteString(" [")
	b.WriteString(e.Level)
	b.WriteString("]")
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		switch v := e.Fields[k].(type) {
		case string:
			b.WriteString(v)
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

// render serializes an entry in a backend's configured format. Any
// format other than "text" means JSON.
func render(e *Entry, format string) ([]byte, error) {
	if format == "text" {
		return []byte(e.ToText()), nil
	}
	return e.ToJSON()
}
