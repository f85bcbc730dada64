// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// publishTimeout bounds how long a publish may block the acquisition loop.
const publishTimeout = 2 * time.Second

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes each composite as retained JSON on one topic.
type MQTTSink struct {
	client Publisher
	topic  string
}

// NewMQTTSink publishes on topic through client.
func NewMQTTSink(client Publisher, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: topic}
}

func (s *MQTTSink) Publish(c imu.Composite) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("mqtt: marshal composite: %w", err)
	}
	token := s.client.Publish(s.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", s.topic, err)
	}
	return nil
}

// DialMQTT connects to broker with the given client ID.
func DialMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, token.Error())
	}
	log.WithField("broker", broker).Info("connected to MQTT broker")
	return client, nil
}

// SubscribeComposites decodes every message on topic and hands it to fn.
// Malformed payloads are logged and dropped.
func SubscribeComposites(client mqtt.Client, topic string, fn func(imu.Composite)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		c, err := DecodeComposite(msg.Payload())
		if err != nil {
			log.WithError(err).WithField("topic", msg.Topic()).Warn("dropping message")
			return
		}
		fn(c)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, err)
	}
	log.WithField("topic", topic).Info("subscribed")
	return nil
}

// DecodeComposite parses the JSON produced by MQTTSink.
func DecodeComposite(payload []byte) (imu.Composite, error) {
	var c imu.Composite
	if err := json.Unmarshal(payload, &c); err != nil {
		return imu.Composite{}, fmt.Errorf("decode composite: %w", err)
	}
	return c, nil
}
