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

package hw

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// driverDirs lists search locations for driver binaries.
// Search order: ./bin (dev), /usr/lib/tide/drivers (system),
// /opt/tide/drivers (alt).
var driverDirs = []string{
	"./bin",
	"/usr/lib/tide/drivers",
	"/opt/tide/drivers",
}

// FindDriver searches for a driver binary by name. The name is
// converted to the full binary name (e.g. "pigpio" -> "tide-driver-pigpio").
func FindDriver(name string) (string, error) {
	binary := fmt.Sprintf("tide-driver-%s", name)

	for _, dir := range driverDirs {
		path := filepath.Join(dir, binary)
		if info, err := os.Stat(path); err == nil {
			if info.Mode().IsRegular() && (info.Mode().Perm()&0111) != 0 {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("driver not found: %s", name)
}

// DriverClient wraps a running driver process for lifecycle management.
type DriverClient struct {
	client *plugin.Client
	driver Driver
}

// OpenDriver starts a driver binary and connects to it. The special
// name "sim" short-circuits to the in-process simulator.
func OpenDriver(name string) (*DriverClient, error) {
	if name == "" || name == "sim" {
		return &DriverClient{driver: NewSimDriver(0)}, nil
	}

	path, err := FindDriver(name)
	if err != nil {
		return nil, err
	}

	logLevel := hclog.Error
	if os.Getenv("TIDE_DEBUG") != "" {
		logLevel = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "driver",
		Output: io.Discard,
		Level:  logLevel,
	})

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"driver": &DriverPlugin{},
		},
		Cmd:    exec.Command(path),
		Logger: logger,
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	raw, err := rpcClient.Dispense("driver")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense driver: %w", err)
	}
	driver, ok := raw.(Driver)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed plugin is not a Driver")
	}

	return &DriverClient{client: client, driver: driver}, nil
}

// Driver returns the connected driver.
func (c *DriverClient) Driver() Driver {
	return c.driver
}

// Close shuts the driver down and kills the plugin process if any.
func (c *DriverClient) Close() error {
	err := c.driver.Close()
	if c.client != nil {
		c.client.Kill()
	}
	return err
}
