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

package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/seashell-io/seashell/core"
	"github.com/seashell-io/seashell/pipeline"
	"github.com/seashell-io/seashell/site"

	"go.uber.org/zap"
)

// EventsPath is where the websocket firehose lives when it's enabled.
const EventsPath = "/_events"

// Server serves the sites' pages through a pipeline.
type Server struct {
	Pipeline *pipeline.Pipeline
	Sites    *site.Sites
	Logger   *zap.Logger

	// Timeout bounds an evaluation when positive.
	Timeout time.Duration
}

// Handler returns the HTTP handler, with the firehose at EventsPath
// when events isn't nil.
func (s *Server) Handler(events http.Handler) http.Handler {
	mux := http.NewServeMux()
	if events != nil {
		mux.Handle(EventsPath, events)
	}
	mux.Handle("/", s)
	return mux
}

// RequestVars returns what embedded code sees as "request".
func RequestVars(r *http.Request) map[string]interface{} {
	params := make(map[string]interface{})
	for k, vs := range r.URL.Query() {
		if 0 < len(vs) {
			params[k] = vs[0]
		}
	}
	return map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"host":   r.Host,
		"query":  r.URL.RawQuery,
		"remote": r.RemoteAddr,
		"params": params,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	st := s.Sites.Lookup(r.Host)
	if st == nil {
		http.NotFound(w, r)
		return
	}

	filename, err := st.File(r.URL.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, site.ErrOutsideRoot) {
			http.NotFound(w, r)
			return
		}
		s.Logger.Error("file lookup failed", zap.String("site", st.ID()), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meta := pipeline.FileMeta(st, filename)
	meta.Params = make(map[string]string)
	for k, vs := range r.URL.Query() {
		if 0 < len(vs) {
			meta.Params[k] = vs[0]
		}
	}
	meta.Vars = map[string]interface{}{
		"request": RequestVars(r),
	}

	ctx := r.Context()
	if 0 < s.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	out, err := s.Pipeline.EvalMeta(ctx, meta)
	if err != nil {
		kind := core.KindOf(err)
		if kind == core.KindIO && errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.Logger.Error("eval failed",
			zap.String("site", st.ID()),
			zap.String("file", filename),
			zap.Stringer("kind", kind),
			zap.Error(err))
		http.Error(w, kind.String()+" error", http.StatusInternalServerError)
		return
	}

	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	if r.Method == http.MethodHead {
		return
	}
	if _, err = w.Write(out); err != nil {
		s.Logger.Debug("write failed", zap.String("file", filename), zap.Error(err))
	}
}
