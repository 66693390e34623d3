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

package pipeline

import (
	"encoding/json"
	"time"
)

// Outcome says how an evaluation ended.
type Outcome string

const (
	// Cached means the result came from the cache.
	Cached Outcome = "cached"

	// Evaluated means at least one interpreter ran.
	Evaluated Outcome = "evaluated"

	// Passthrough means no interpreter handled the shell type,
	// so the output is the (converted) source.
	Passthrough Outcome = "passthrough"

	// Failed means the evaluation returned an error.
	Failed Outcome = "failed"
)

// Event describes one finished evaluation.
type Event struct {
	ID       string        `json:"id"`
	Time     time.Time     `json:"time"`
	Shell    string        `json:"shell"`
	File     string        `json:"file,omitempty"`
	Site     string        `json:"site,omitempty"`
	Outcome  Outcome       `json:"outcome"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// MarshalJSON adds the error message, if any.
func (e Event) MarshalJSON() ([]byte, error) {
	type event Event
	x := struct {
		event
		Error string `json:"error,omitempty"`
	}{
		event: event(e),
	}
	if e.Err != nil {
		x.Error = e.Err.Error()
	}
	return json.Marshal(&x)
}

// Listener is told about every evaluation.  Evaluated is called on the
// evaluating goroutine, so it must not block.
type Listener interface {
	Evaluated(e Event)
}

// ListenerFunc is a function that's a Listener.
type ListenerFunc func(e Event)

func (f ListenerFunc) Evaluated(e Event) {
	f(e)
}
