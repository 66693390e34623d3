/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package notify publishes pipeline events to the outside world: to an
// MQTT broker, and to websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/seashell-io/seashell/pipeline"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// MQTTConfig says how to reach the broker.
type MQTTConfig struct {
	// Broker is the broker URL, like "tcp://localhost:1883".
	Broker string `yaml:"broker" json:"broker"`

	ClientID string `yaml:"client_id,omitempty" json:"clientId,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// Topic is the topic prefix.  An event is published to
	// Topic/SITE, or to Topic when it has no site.
	Topic string `yaml:"topic" json:"topic"`

	QoS byte `yaml:"qos,omitempty" json:"qos,omitempty"`

	// KeepAlive defaults to ten seconds.
	KeepAlive time.Duration `yaml:"keep_alive,omitempty" json:"keepAlive,omitempty"`

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint `yaml:"quiesce,omitempty" json:"quiesce,omitempty"`

	// Buffer is how many events can wait to be published.
	// Events beyond that are dropped.
	Buffer int `yaml:"buffer,omitempty" json:"buffer,omitempty"`
}

// MQTT is a pipeline.Listener that publishes events as JSON.
type MQTT struct {
	Client mqtt.Client

	cfg    MQTTConfig
	logger *zap.Logger
	events chan pipeline.Event
}

// NewMQTT makes an MQTT with a Paho client for the configured
// broker.
func NewMQTT(cfg MQTTConfig, logger *zap.Logger) *MQTT {
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 10 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	opts.AutoReconnect = true
	opts.CleanSession = true

	if logger == nil {
		logger = zap.NewNop()
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.String("broker", cfg.Broker), zap.Error(err))
	}

	return NewMQTTClient(mqtt.NewClient(opts), cfg, logger)
}

// NewMQTTClient makes an MQTT that uses the given client.
func NewMQTTClient(client mqtt.Client, cfg MQTTConfig, logger *zap.Logger) *MQTT {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	return &MQTT{
		Client: client,
		cfg:    cfg,
		logger: logger.With(zap.String("broker", cfg.Broker)),
		events: make(chan pipeline.Event, cfg.Buffer),
	}
}

// Evaluated queues the event for publishing.  It never blocks: when
// the queue is full, the event is dropped.
func (m *MQTT) Evaluated(e pipeline.Event) {
	select {
	case m.events <- e:
	default:
		m.logger.Warn("mqtt event dropped", zap.String("id", e.ID))
	}
}

// Topic returns the topic for an event.
func (m *MQTT) Topic(e pipeline.Event) string {
	if e.Site == "" {
		return m.cfg.Topic
	}
	return m.cfg.Topic + "/" + e.Site
}

// Run connects to the broker and publishes queued events until ctx is
// done.
func (m *MQTT) Run(ctx context.Context) error {
	m.logger.Info("connecting to broker")
	if token := m.Client.Connect(); token.Wait() && token.Error() != nil {
		return zerr.With(zerr.Wrap(token.Error(), "mqtt connect failed"), "broker", m.cfg.Broker)
	}
	m.logger.Info("connected to broker")
	defer m.Client.Disconnect(m.cfg.Quiesce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-m.events:
			js, err := json.Marshal(e)
			if err != nil {
				m.logger.Error("event marshal failed", zap.String("id", e.ID), zap.Error(err))
				continue
			}
			token := m.Client.Publish(m.Topic(e), m.cfg.QoS, false, js)
			if token.Wait() && token.Error() != nil {
				m.logger.Error("publish failed", zap.String("id", e.ID), zap.Error(token.Error()))
			}
		}
	}
}
