// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package sink

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/schuellerf/dpm-monitor/monitor"
)

// DefaultMQTTTopic is used when no comment overrides the topic prefix.
const DefaultMQTTTopic = "joy_charger"

// MQTTPublisher publishes every record field under topic/<field>.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher connects to the broker (e.g. "tcp://host:1883") and
// publishes under the given topic prefix. An empty topic falls back to
// DefaultMQTTTopic.
func NewMQTTPublisher(broker, topic string) (*MQTTPublisher, error) {
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("dpm-monitor").
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", broker, token.Error())
	}
	return &MQTTPublisher{client: client, topic: topic}, nil
}

// Emit publishes each field of the record under its own topic. Publishes
// are fire-and-forget; delivery is the broker session's concern.
func (sf *MQTTPublisher) Emit(r monitor.Record) error {
	for _, f := range fields(r) {
		sf.client.Publish(sf.topic+"/"+f.name, 1, false, f.value)
	}
	return nil
}

// Close disconnects from the broker.
func (sf *MQTTPublisher) Close() error {
	sf.client.Disconnect(250)
	return nil
}
