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

// Package mqtt publishes the controller's snapshots and power events
// to an MQTT broker for dashboards and home-automation integration.
// Publishing is best-effort: a broker outage never affects control
// ticks.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/we-are-mono/tide/daemon/logger"
	"github.com/we-are-mono/tide/types"
)

var log = logger.Component("mqtt")

const timeout = 10 * time.Second

// Config describes the broker connection and topic layout.
type Config struct {
	BrokerURL   string `json:"broker_url" yaml:"broker_url"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
}

// DefaultConfig returns the conventional topic layout with MQTT
// disabled (empty broker URL).
func DefaultConfig() Config {
	return Config{
		ClientID:    "tide",
		TopicPrefix: "tide",
	}
}

// Publisher wraps a paho client. A nil Publisher is valid and drops
// every publish, so callers never need to branch on MQTT being
// configured.
type Publisher struct {
	client paho.Client
	prefix string
}

// Connect dials the broker. An empty broker URL returns a nil
// publisher and no error.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.BrokerURL == "" {
		return nil, nil
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	client := paho.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timeout connecting to mqtt broker %s", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}

	log.Info("Connected to MQTT broker",
		logger.Field{Key: "broker", Value: cfg.BrokerURL})
	return &Publisher{client: client, prefix: cfg.TopicPrefix}, nil
}

// PublishSnapshot publishes the latest controller snapshot, retained
// so dashboards get state immediately on subscribe.
func (p *Publisher) PublishSnapshot(snap *types.Snapshot) {
	p.publishJSON(p.prefix+"/snapshot", true, snap)
}

// PublishEvent publishes one power event.
func (p *Publisher) PublishEvent(ev types.PowerEvent) {
	p.publishJSON(p.prefix+"/events/"+ev.EventType, false, ev)
}

// publishJSON marshals and publishes best-effort: failures are logged
// and swallowed so a broker outage never aborts a tick.
func (p *Publisher) publishJSON(topic string, retained bool, v interface{}) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Error("Failed to encode MQTT payload",
			logger.Field{Key: "topic", Value: topic},
			logger.Field{Key: "error", Value: err.Error()})
		return
	}

	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(timeout) {
		log.Warn("Timeout publishing to MQTT",
			logger.Field{Key: "topic", Value: topic})
		return
	}
	if err := token.Error(); err != nil {
		log.Warn("Failed to publish to MQTT",
			logger.Field{Key: "topic", Value: topic},
			logger.Field{Key: "error", Value: err.Error()})
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.client.Disconnect(250)
}
