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
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is used to verify that daemon and driver are compatible.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "TIDE_DRIVER",
	MagicCookieValue: "hw",
}

// DriverPlugin is the go-plugin wrapper around a Driver.
type DriverPlugin struct {
	plugin.Plugin
	Impl Driver
}

// Server returns the RPC server for this driver.
func (p *DriverPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

// Client returns the RPC client for this driver.
func (p *DriverPlugin) Client(_ *plugin.MuxBroker, client *rpc.Client) (interface{}, error) {
	return &RPCClient{client: client}, nil
}

// ServeDriver serves a driver binary. Called from a driver's main.
func ServeDriver(impl Driver) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"driver": &DriverPlugin{Impl: impl},
		},
	})
}

// Errors cross the RPC boundary as strings inside the reply so the
// connection itself stays healthy.
type rpcError struct {
	msg string
}

func (e *rpcError) Error() string { return e.msg }

func wireError(s string) error {
	if s == "" {
		return nil
	}
	return &rpcError{msg: s}
}

// ============================================================================
// RPC Server Implementation
// ============================================================================

// RPCServer wraps a Driver for net/rpc.
type RPCServer struct {
	Impl Driver
}

type InitPWMArgs struct {
	Pin    int
	FreqHz int
}
type InitPWMReply struct {
	Error string
}

func (s *RPCServer) InitPWM(args *InitPWMArgs, reply *InitPWMReply) error {
	if err := s.Impl.InitPWM(args.Pin, args.FreqHz); err != nil {
		reply.Error = err.Error()
	}
	return nil
}

type SetDutyArgs struct {
	Pin  int
	Duty float64
}
type SetDutyReply struct {
	Error string
}

func (s *RPCServer) SetDuty(args *SetDutyArgs, reply *SetDutyReply) error {
	if err := s.Impl.SetDuty(args.Pin, args.Duty); err != nil {
		reply.Error = err.Error()
	}
	return nil
}

type SetFrequencyArgs struct {
	Pin    int
	FreqHz int
}
type SetFrequencyReply struct {
	Error string
}

func (s *RPCServer) SetFrequency(args *SetFrequencyArgs, reply *SetFrequencyReply) error {
	if err := s.Impl.SetFrequency(args.Pin, args.FreqHz); err != nil {
		reply.Error = err.Error()
	}
	return nil
}

type ReadSensorArgs struct {
	StageID string
	Duty    float64
	Enabled bool
}
type ReadSensorReply struct {
	Error   string
	Reading Reading
}

func (s *RPCServer) ReadSensor(args *ReadSensorArgs, reply *ReadSensorReply) error {
	r, err := s.Impl.ReadSensor(args.StageID, args.Duty, args.Enabled)
	if err != nil {
		reply.Error = err.Error()
		return nil
	}
	reply.Reading = r
	return nil
}

type StopPWMArgs struct {
	Pin int
}
type StopPWMReply struct {
	Error string
}

func (s *RPCServer) StopPWM(args *StopPWMArgs, reply *StopPWMReply) error {
	if err := s.Impl.StopPWM(args.Pin); err != nil {
		reply.Error = err.Error()
	}
	return nil
}

type CloseArgs struct{}
type CloseReply struct {
	Error string
}

func (s *RPCServer) Close(args *CloseArgs, reply *CloseReply) error {
	if err := s.Impl.Close(); err != nil {
		reply.Error = err.Error()
	}
	return nil
}

// ============================================================================
// RPC Client Implementation
// ============================================================================

// RPCClient implements Driver over a net/rpc connection.
type RPCClient struct {
	client *rpc.Client
}

func (c *RPCClient) InitPWM(pin, freqHz int) error {
	var reply InitPWMReply
	if err := c.client.Call("Plugin.InitPWM", &InitPWMArgs{Pin: pin, FreqHz: freqHz}, &reply); err != nil {
		return err
	}
	return wireError(reply.Error)
}

func (c *RPCClient) SetDuty(pin int, duty float64) error {
	var reply SetDutyReply
	if err := c.client.Call("Plugin.SetDuty", &SetDutyArgs{Pin: pin, Duty: duty}, &reply); err != nil {
		return err
	}
	return wireError(reply.Error)
}

func (c *RPCClient) SetFrequency(pin, freqHz int) error {
	var reply SetFrequencyReply
	if err := c.client.Call("Plugin.SetFrequency", &SetFrequencyArgs{Pin: pin, FreqHz: freqHz}, &reply); err != nil {
		return err
	}
	return wireError(reply.Error)
}

func (c *RPCClient) ReadSensor(stageID string, duty float64, enabled bool) (Reading, error) {
	var reply ReadSensorReply
	err := c.client.Call("Plugin.ReadSensor", &ReadSensorArgs{
		StageID: stageID, Duty: duty, Enabled: enabled,
	}, &reply)
	if err != nil {
		return Reading{}, err
	}
	return reply.Reading, wireError(reply.Error)
}

func (c *RPCClient) StopPWM(pin int) error {
	var reply StopPWMReply
	if err := c.client.Call("Plugin.StopPWM", &StopPWMArgs{Pin: pin}, &reply); err != nil {
		return err
	}
	return wireError(reply.Error)
}

func (c *RPCClient) Close() error {
	var reply CloseReply
	if err := c.client.Call("Plugin.Close", &CloseArgs{}, &reply); err != nil {
		return err
	}
	return wireError(reply.Error)
}
