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

package notify

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seashell-io/seashell/pipeline"
	"github.com/seashell-io/seashell/util/testutil"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type token struct {
	mqtt.Token
	err error
}

func (t *token) Wait() bool                       { return true }
func (t *token) WaitTimeout(d time.Duration) bool { return true }
func (t *token) Error() error                     { return t.err }

type message struct {
	topic   string
	qos     byte
	payload []byte
}

// client is the part of an mqtt.Client that MQTT uses.
type client struct {
	mqtt.Client
	connectErr   error
	published    chan message
	disconnected chan struct{}
}

func newClient() *client {
	return &client{
		published:    make(chan message, 8),
		disconnected: make(chan struct{}),
	}
}

func (c *client) Connect() mqtt.Token {
	return &token{err: c.connectErr}
}

func (c *client) Disconnect(quiesce uint) {
	close(c.disconnected)
}

func (c *client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published <- message{topic, qos, payload.([]byte)}
	return &token{}
}

func TestMQTTPublishes(t *testing.T) {
	c := newClient()
	m := NewMQTTClient(c, MQTTConfig{Topic: "seashell/events", QoS: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- m.Run(ctx)
	}()

	m.Evaluated(pipeline.Event{ID: "one", Site: "simpsons", Outcome: pipeline.Evaluated})
	m.Evaluated(pipeline.Event{ID: "two", Outcome: pipeline.Failed, Err: errors.New("doh")})

	msg := <-c.published
	require.Equal(t, "seashell/events/simpsons", msg.topic)
	require.Equal(t, byte(1), msg.qos)
	require.Equal(t, "one", testutil.Object(t, msg.payload)["id"])

	msg = <-c.published
	require.Equal(t, "seashell/events", msg.topic)
	require.Equal(t, "doh", testutil.Object(t, msg.payload)["error"])

	cancel()
	require.NoError(t, <-done)
	<-c.disconnected
}

func TestMQTTConnectFails(t *testing.T) {
	c := newClient()
	c.connectErr = errors.New("no broker")
	m := NewMQTTClient(c, MQTTConfig{Broker: "tcp://nowhere:1883"}, nil)
	require.Error(t, m.Run(context.Background()))
}

func TestMQTTDrops(t *testing.T) {
	m := NewMQTTClient(newClient(), MQTTConfig{Buffer: 1}, nil)
	m.Evaluated(pipeline.Event{ID: "one"})
	m.Evaluated(pipeline.Event{ID: "two"})
	require.Len(t, m.events, 1)
}

func TestNewMQTT(t *testing.T) {
	m := NewMQTT(MQTTConfig{Broker: "tcp://localhost:1883", Topic: "t"}, nil)
	require.NotNil(t, m.Client)
	require.False(t, m.Client.IsConnected())
}

func TestFirehose(t *testing.T) {
	f := NewFirehose(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	server := httptest.NewServer(f)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.Clients() == 1
	}, time.Second, 5*time.Millisecond)

	f.Evaluated(pipeline.Event{ID: "one", Shell: "gsp", Outcome: pipeline.Cached})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, js, err := conn.ReadMessage()
	require.NoError(t, err)
	x := testutil.Object(t, js)
	require.Equal(t, "one", x["id"])
	require.Equal(t, "cached", x["outcome"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return f.Clients() == 0
	}, time.Second, 5*time.Millisecond)
}
