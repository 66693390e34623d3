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
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/seashell-io/seashell/pipeline"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Firehose is a pipeline.Listener that sends every event to every
// connected websocket client.
//
// Warning: there's no filtering and no access control, so don't
// expose this handler to the world.
type Firehose struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader
	in       chan pipeline.Event

	// conns maps a connection ID to its outbound channel.
	conns sync.Map
	count int64
	ids   int64
}

// NewFirehose makes a Firehose.  Events are fanned out by Run.
func NewFirehose(logger *zap.Logger) *Firehose {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Firehose{
		logger: logger,
		in:     make(chan pipeline.Event, 1024),
	}
}

// Evaluated queues the event.  It never blocks.
func (f *Firehose) Evaluated(e pipeline.Event) {
	select {
	case f.in <- e:
	default:
		f.logger.Warn("firehose blocked", zap.String("id", e.ID))
	}
}

// Clients returns the number of connected clients.
func (f *Firehose) Clients() int {
	return int(atomic.LoadInt64(&f.count))
}

// Run fans events out to the clients until ctx is done.
func (f *Firehose) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-f.in:
			f.conns.Range(func(k, v interface{}) bool {
				c := v.(chan pipeline.Event)
				select {
				case c <- e:
				default:
					f.logger.Warn("firehose client blocked", zap.Any("conn", k))
				}
				return true
			})
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams events
// to it as JSON text messages until the client goes away.
func (f *Firehose) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer c.Close()

	id := atomic.AddInt64(&f.ids, 1)
	events := make(chan pipeline.Event, 32)
	f.conns.Store(id, events)
	atomic.AddInt64(&f.count, 1)
	defer func() {
		f.conns.Delete(id)
		atomic.AddInt64(&f.count, -1)
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// We don't expect anything from the client, but reading is
	// how we learn that it has gone away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			js, err := json.Marshal(e)
			if err != nil {
				f.logger.Error("event marshal failed", zap.String("id", e.ID), zap.Error(err))
				continue
			}
			if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
				f.logger.Debug("firehose write failed", zap.Int64("conn", id), zap.Error(err))
				return
			}
		}
	}
}
