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

// Package client provides a client library for communicating with the Tide daemon.
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/we-are-mono/tide/daemon"
	"github.com/we-are-mono/tide/daemon/logger"
)

// GetSocketPath returns the socket path, preferring TIDE_SOCKET_PATH env var
func GetSocketPath() string {
	if path := os.Getenv("TIDE_SOCKET_PATH"); path != "" {
		return path
	}
	return "/var/run/tide.sock"
}

func Send(req daemon.Request) (*daemon.Response, error) {
	conn, err := net.Dial("unix", GetSocketPath())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon (is it running?): %w", err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	data = append(data, '\n')
	if _, err = conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp daemon.Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// StreamLogs subscribes to the daemon's log stream and invokes fn for
// each entry until the connection drops or fn returns false.
func StreamLogs(filter *daemon.LogFilter, fn func(*logger.Entry) bool) error {
	conn, err := net.Dial("unix", GetSocketPath())
	if err != nil {
		return fmt.Errorf("failed to connect to daemon (is it running?): %w", err)
	}
	defer conn.Close()

	req := daemon.Request{Command: "logs-subscribe", LogFilter: filter}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err = conn.Write(data); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil
		}
		var entry logger.Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if !fn(&entry) {
			return nil
		}
	}
}

// Decode unmarshals a Response's Data field into v. Data rides through
// the socket as generic JSON, so a round-trip restores the typed shape.
func Decode(resp *daemon.Response, v interface{}) error {
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("failed to re-marshal response data: %w", err)
	}
	return json.Unmarshal(data, v)
}
