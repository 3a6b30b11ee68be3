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

package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/we-are-mono/tide/controller"
	"github.com/we-are-mono/tide/daemon/logger"
)

// GetSocketPath returns the socket path, preferring TIDE_SOCKET_PATH env var
func GetSocketPath() string {
	if path := os.Getenv("TIDE_SOCKET_PATH"); path != "" {
		return path
	}
	return "/var/run/tide.sock"
}

// handlerFunc is a function that handles a daemon command
type handlerFunc func(Request) Response

type Server struct {
	ctrl     *controller.Controller
	listener net.Listener
	done     chan struct{}
	handlers map[string]handlerFunc
}

func NewServer(ctrl *controller.Controller) (*Server, error) {
	socketPath := GetSocketPath()
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0666); err != nil {
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s := &Server{
		ctrl:     ctrl,
		listener: listener,
		done:     make(chan struct{}),
	}

	// Initialize command handlers
	s.handlers = map[string]handlerFunc{
		"status":            func(req Request) Response { return s.handleStatus() },
		"devices":           func(req Request) Response { return s.handleDevices() },
		"device-get":        s.handleDeviceGet,
		"device-set":        s.handleDeviceSet,
		"led-list":          func(req Request) Response { return s.handleLEDList() },
		"led-set":           s.handleLEDSet,
		"led-clear":         s.handleLEDClear,
		"presets":           func(req Request) Response { return s.handlePresets() },
		"preset-get":        s.handlePresetGet,
		"preset-create":     s.handlePresetCreate,
		"preset-update":     s.handlePresetUpdate,
		"preset-delete":     s.handlePresetDelete,
		"preset-activate":   s.handlePresetActivate,
		"preset-deactivate": func(req Request) Response { return s.handlePresetDeactivate() },
		"arrays":            func(req Request) Response { return s.handleArrays() },
		"array-leds":        s.handleArrayLEDs,
		"array-control":     s.handleArrayControl,
		"events":            s.handleEvents,
		"history":           s.handleHistory,
		"logs-recent":       s.handleLogsRecent,
		"emergency-stop":    func(req Request) Response { return s.handleEmergencyStop() },
		"export":            func(req Request) Response { return s.handleExport() },
		"import":            s.handleImport,
	}

	return s, nil
}

// Start accepts connections until Stop is called.
func (s *Server) Start() error {
	logger.Info("Daemon listening", logger.Field{Key: "socket", Value: GetSocketPath()})

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if we're shutting down
			select {
			case <-s.done:
				return nil
			default:
				logger.Error("Failed to accept connection",
					logger.Field{Key: "error", Value: err.Error()})
				continue
			}
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(GetSocketPath())
	return nil
}

func (s *Server) handleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil {
		conn.Close()
		return
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendResponse(conn, Response{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		conn.Close()
		return
	}

	// Handle streaming log subscription specially (keeps connection open)
	if req.Command == "logs-subscribe" {
		defer conn.Close()

		filter := req.LogFilter
		if filter == nil {
			filter = &LogFilter{}
		}

		s.handleLogsSubscribe(conn, filter)
		return
	}

	defer conn.Close()
	resp := s.handleRequest(req)
	s.sendResponse(conn, resp)
}

func (s *Server) handleRequest(req Request) Response {
	handler, exists := s.handlers[req.Command]
	if !exists {
		return Response{
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s", req.Command),
		}
	}
	return handler(req)
}

func (s *Server) sendResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to marshal response",
			logger.Field{Key: "error", Value: err.Error()})
		return
	}

	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		logger.Error("Failed to write response",
			logger.Field{Key: "error", Value: err.Error()})
	}
}

func ok(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

func (s *Server) handleStatus() Response {
	return ok(s.ctrl.Snapshot())
}

func (s *Server) handleDevices() Response {
	return ok(s.ctrl.Channels())
}

func (s *Server) handleDeviceGet(req Request) Response {
	if req.ChannelID == nil {
		return Response{Success: false, Error: "channel_id is required"}
	}
	status, err := s.ctrl.Channel(*req.ChannelID)
	if err != nil {
		return fail(err)
	}
	return ok(status)
}

func (s *Server) handleDeviceSet(req Request) Response {
	if req.ChannelID == nil {
		return Response{Success: false, Error: "channel_id is required"}
	}
	if req.Update == nil {
		return Response{Success: false, Error: "update is required"}
	}
	if err := s.ctrl.UpdateChannel(*req.ChannelID, *req.Update); err != nil {
		return fail(err)
	}
	status, err := s.ctrl.Channel(*req.ChannelID)
	if err != nil {
		return fail(err)
	}
	return ok(status)
}

func (s *Server) handleLEDList() Response {
	return ok(s.ctrl.LEDDevices())
}

func (s *Server) handleLEDSet(req Request) Response {
	if req.DeviceID == "" {
		return Response{Success: false, Error: "device_id is required"}
	}
	if req.Intensity == nil {
		return Response{Success: false, Error: "intensity is required"}
	}
	if err := s.ctrl.SetLEDDuty(req.DeviceID, *req.Intensity); err != nil {
		return fail(err)
	}
	return Response{Success: true, Message: fmt.Sprintf("LED %s set to manual", req.DeviceID)}
}

func (s *Server) handleLEDClear(req Request) Response {
	if req.DeviceID == "" {
		return Response{Success: false, Error: "device_id is required"}
	}
	if err := s.ctrl.ClearLEDManual(req.DeviceID); err != nil {
		return fail(err)
	}
	return Response{Success: true, Message: fmt.Sprintf("LED %s back to automatic", req.DeviceID)}
}

func (s *Server) handlePresets() Response {
	presets, err := s.ctrl.Presets().List()
	if err != nil {
		return fail(err)
	}
	return ok(presets)
}

func (s *Server) handlePresetGet(req Request) Response {
	p, err := s.ctrl.Presets().Get(req.PresetID)
	if err != nil {
		return fail(err)
	}
	return ok(p)
}

func (s *Server) handlePresetCreate(req Request) Response {
	if req.Preset == nil {
		return Response{Success: false, Error: "preset is required"}
	}
	id, err := s.ctrl.Presets().Create(req.Preset)
	if err != nil {
		return fail(err)
	}
	return Response{Success: true, Data: id, Message: fmt.Sprintf("Created preset %q", req.Preset.Name)}
}

func (s *Server) handlePresetUpdate(req Request) Response {
	if req.Preset == nil {
		return Response{Success: false, Error: "preset is required"}
	}
	if err := s.ctrl.Presets().Update(req.Preset); err != nil {
		return fail(err)
	}
	return Response{Success: true, Message: fmt.Sprintf("Updated preset %q", req.Preset.Name)}
}

func (s *Server) handlePresetDelete(req Request) Response {
	if err := s.ctrl.Presets().Delete(req.PresetID); err != nil {
		return fail(err)
	}
	return Response{Success: true, Message: "Preset deleted"}
}

func (s *Server) handlePresetActivate(req Request) Response {
	if err := s.ctrl.Presets().Activate(req.PresetID, time.Now()); err != nil {
		return fail(err)
	}
	return Response{Success: true, Message: "Preset activated"}
}

func (s *Server) handlePresetDeactivate() Response {
	s.ctrl.Presets().Deactivate()
	return Response{Success: true, Message: "Preset deactivated"}
}

func (s *Server) handleArrays() Response {
	return ok(s.ctrl.Stages())
}

func (s *Server) handleArrayLEDs(req Request) Response {
	if req.StageID == "" {
		return Response{Success: false, Error: "stage_id is required"}
	}
	leds, err := s.ctrl.StageLEDs(req.StageID)
	if err != nil {
		return fail(err)
	}
	return ok(leds)
}

func (s *Server) handleArrayControl(req Request) Response {
	if req.StageID == "" {
		return Response{Success: false, Error: "stage_id is required"}
	}
	if err := s.ctrl.ControlStage(req.StageID, req.Mode, req.Duty, req.Enable); err != nil {
		return fail(err)
	}
	return Response{Success: true, Message: fmt.Sprintf("Stage %s updated", req.StageID)}
}

func (s *Server) handleEvents(req Request) Response {
	return ok(s.ctrl.Events(req.Limit))
}

func (s *Server) handleLogsRecent(req Request) Response {
	return ok(logger.Recent(req.Limit))
}

func (s *Server) handleHistory(req Request) Response {
	if req.ChannelID == nil {
		return Response{Success: false, Error: "channel_id is required"}
	}
	window := time.Duration(req.WindowS * float64(time.Second))
	points, err := s.ctrl.History(*req.ChannelID, window)
	if err != nil {
		return fail(err)
	}
	return ok(points)
}

func (s *Server) handleEmergencyStop() Response {
	s.ctrl.EmergencyStop()
	return Response{Success: true, Message: "Emergency stop executed, all outputs disabled"}
}

func (s *Server) handleExport() Response {
	bundle, err := s.ctrl.Export()
	if err != nil {
		return fail(err)
	}
	return ok(bundle)
}

func (s *Server) handleImport(req Request) Response {
	if req.Bundle == nil {
		return Response{Success: false, Error: "bundle is required"}
	}
	result, err := s.ctrl.Import(req.Bundle)
	if err != nil {
		return fail(err)
	}
	return Response{Success: true, Data: result, Message: "Import applied"}
}

func (s *Server) handleLogsSubscribe(conn net.Conn, filter *LogFilter) {
	subscriber := NewSocketLogSubscriber(conn, filter)

	emitter := logger.GetEmitter()
	if emitter == nil {
		logger.Error("Logger emitter not initialized")
		return
	}

	emitter.Subscribe(subscriber)
	defer func() {
		emitter.Unsubscribe(subscriber)
		subscriber.Close()
	}()

	logger.Info("Client subscribed to log stream",
		logger.Field{Key: "level", Value: filter.Level},
		logger.Field{Key: "component", Value: filter.Component})

	// Keep connection open until client disconnects
	buffer := make([]byte, 1)
	for {
		if _, err := conn.Read(buffer); err != nil {
			logger.Info("Client unsubscribed from log stream")
			return
		}
	}
}
