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

// Package pipeline evaluates pages.
//
// An evaluation runs the source through the pre-converters, checks the
// result cache, runs the matching interpreters (each with a Shell
// checked out from its engine's pool), runs the post-converters, and
// caches the result if the site wants it cached.
//
// A Pipeline is an explicit value: its Registry, engines and cache are
// given to it, and nothing is process-wide.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/seashell-io/seashell/cache"
	"github.com/seashell-io/seashell/converters"
	"github.com/seashell-io/seashell/core"
	"github.com/seashell-io/seashell/interpreters"
	"github.com/seashell-io/seashell/pool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultShell is the shell type for EvalString.
const DefaultShell = "html"

// Pipeline evaluates pages.  It's safe for concurrent use once
// constructed.
type Pipeline struct {
	registry  *core.Registry
	engines   map[string]engine
	pools     map[string]*pool.Pool
	maxShells int
	cache     cache.Store
	logger    *zap.Logger
	listeners []Listener
}

type engine struct {
	e   core.Engine
	max int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry gives the Pipeline its stages.
func WithRegistry(r *core.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// WithEngine adds an engine whose pool has at most max Shells.  A max
// less than one means the WithMaxShells value.  A later engine with
// the same name replaces an earlier one.
func WithEngine(e core.Engine, max int) Option {
	return func(p *Pipeline) {
		p.engines[e.Name()] = engine{
			e:   e,
			max: max,
		}
	}
}

// WithMaxShells sets the pool size for engines that don't specify
// one.  The default is pool.DefaultMax.
func WithMaxShells(max int) Option {
	return func(p *Pipeline) {
		p.maxShells = max
	}
}

// WithCache sets the result cache.  The default caches nothing.
func WithCache(s cache.Store) Option {
	return func(p *Pipeline) {
		p.cache = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithListener adds a Listener.
func WithListener(l Listener) Option {
	return func(p *Pipeline) {
		p.listeners = append(p.listeners, l)
	}
}

// New makes a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: core.NewRegistry(),
		engines:  make(map[string]engine),
		cache:    cache.Nop{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	p.pools = make(map[string]*pool.Pool, len(p.engines))
	for name, e := range p.engines {
		max := e.max
		if max < 1 {
			max = p.maxShells
		}
		p.pools[name] = pool.ForEngine(e.e, max, p.logger)
	}

	return p
}

// Standard makes a Pipeline with the standard engines and stages.
// The given options come after the standard ones, so they can replace
// engines.  Stages from a WithRegistry option come before the
// standard ones.
func Standard(opts ...Option) *Pipeline {
	var acc []Option
	for _, e := range interpreters.Engines() {
		acc = append(acc, WithEngine(e, 0))
	}
	p := New(append(acc, opts...)...)

	p.registry.AddPre(converters.Pre(p)...)
	interpreters.Register(p.registry)
	p.registry.AddPost(converters.Post(p.logger)...)

	return p
}

// Registry returns the Pipeline's stages.
func (p *Pipeline) Registry() *core.Registry {
	return p.registry
}

// Cache returns the Pipeline's result cache.
func (p *Pipeline) Cache() cache.Store {
	return p.cache
}

// Stats reports on each engine's pool.
func (p *Pipeline) Stats() map[string]pool.Stats {
	acc := make(map[string]pool.Stats, len(p.pools))
	for name, pl := range p.pools {
		acc[name] = pl.Stats()
	}
	return acc
}

// kind classifies a failure.
func kind(err error) core.Kind {
	var (
		pe   *core.ParseError
		perr *fs.PathError
	)
	switch {
	case errors.As(err, &pe):
		return core.KindParse
	case errors.As(err, &perr), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return core.KindIO
	}
	return core.KindExec
}

// Eval evaluates the source.  The site, if not nil, replaces
// meta.Site.
//
// On failure, the error is a *core.EvalError, no output is returned,
// and nothing is cached.
func (p *Pipeline) Eval(ctx context.Context, src []byte, meta *core.EvalMeta, site core.Site) ([]byte, error) {
	then := time.Now()

	if site != nil {
		meta.Site = site
	}

	out, outcome, err := p.eval(ctx, src, meta)
	if err != nil {
		out = nil
		outcome = Failed
	}

	e := Event{
		ID:       uuid.NewString(),
		Time:     then,
		Shell:    meta.Shell,
		File:     meta.File,
		Outcome:  outcome,
		Bytes:    len(out),
		Duration: time.Since(then),
		Err:      err,
	}
	if meta.Site != nil {
		e.Site = meta.Site.ID()
	}

	p.logger.Debug("eval",
		zap.String("id", e.ID),
		zap.String("meta", meta.String()),
		zap.String("outcome", string(outcome)),
		zap.Int("bytes", e.Bytes),
		zap.Duration("elapsed", e.Duration),
		zap.Error(err))

	for _, l := range p.listeners {
		l.Evaluated(e)
	}

	return out, err
}

func (p *Pipeline) eval(ctx context.Context, src []byte, meta *core.EvalMeta) ([]byte, Outcome, error) {
	if meta.ContentType == "" {
		meta.ContentType = meta.Shell
	}
	meta.Source = string(src)

	if len(src) == 0 {
		return []byte{}, Passthrough, nil
	}

	site := meta.Site

	src, err := p.registry.Preconvert(ctx, meta, src)
	if err != nil {
		return nil, "", core.NewEvalError(kind(err), meta, err)
	}

	var key string
	if meta.File != "" && site != nil && !p.varies(meta) {
		key = cache.Key(meta.File)
		bs, have, err := p.cache.Get(ctx, site, key)
		if err != nil {
			return nil, "", core.NewEvalError(core.KindIO, meta, err)
		}
		if have {
			return bs, Cached, nil
		}
	}

	// When every matching interpreter skips, the source passes
	// through as if none had matched.
	outcome := Passthrough
	out := src
	var acc bytes.Buffer
	for _, i := range p.registry.Interpreters(meta) {
		ran, err := p.interpret(ctx, i, meta, src, &acc)
		if err != nil {
			return nil, "", core.NewEvalError(kind(err), meta, err)
		}
		if ran {
			outcome = Evaluated
		}
	}
	if outcome == Evaluated {
		out = acc.Bytes()
	}

	if out, err = p.registry.Postconvert(ctx, meta, out); err != nil {
		return nil, "", core.NewEvalError(kind(err), meta, err)
	}

	if key != "" && !p.varies(meta) && cache.Eligible(site, meta.File) {
		if err := p.cache.Put(ctx, site, key, out); err != nil {
			return nil, "", core.NewEvalError(core.KindIO, meta, err)
		}
	}

	return out, outcome, nil
}

// varies reports whether the request's parameters can change the
// output of a post-converter, as with image dimensions.  The cache is
// keyed by path alone, so such requests bypass it.
func (p *Pipeline) varies(meta *core.EvalMeta) bool {
	if len(meta.Params) == 0 {
		return false
	}
	for _, c := range p.registry.Post() {
		if core.Handles(c.Types(), meta, true) {
			return true
		}
	}
	return false
}

// interpret runs one interpreter and appends its output to acc.  An
// interpreter that returns ErrSkip contributes nothing, and interpret
// returns false.
func (p *Pipeline) interpret(ctx context.Context, i core.Interpreter, meta *core.EvalMeta, src []byte, acc *bytes.Buffer) (bool, error) {
	var buf bytes.Buffer

	run := func(sh core.Shell) error {
		return i.Interpret(ctx, meta, src, sh, &buf)
	}

	var err error
	if name := i.Engine(); name == "" {
		err = run(nil)
	} else if pl, have := p.pools[name]; have {
		err = pl.With(ctx, run)
	} else {
		err = core.ErrNoEngine
	}

	if errors.Is(err, core.ErrSkip) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	acc.Write(buf.Bytes())
	return true, nil
}

// FileMeta makes the metadata for evaluating the file at path, with
// the shell type and content type the site chooses.
func FileMeta(site core.Site, path string) *core.EvalMeta {
	shell, contentType := core.Detect(site, path)
	meta := core.NewEvalMeta(shell)
	meta.ContentType = contentType
	meta.File = path
	meta.Site = site
	return meta
}

// EvalMeta evaluates the file at meta.File.
func (p *Pipeline) EvalMeta(ctx context.Context, meta *core.EvalMeta) ([]byte, error) {
	src, err := os.ReadFile(meta.File)
	if err != nil {
		return nil, core.NewEvalError(core.KindIO, meta, err)
	}
	return p.Eval(ctx, src, meta, nil)
}

// EvalFile evaluates the file at path with the given vars.
func (p *Pipeline) EvalFile(ctx context.Context, path string, site core.Site, vars map[string]interface{}) ([]byte, error) {
	meta := FileMeta(site, path)
	meta.Vars = vars
	return p.EvalMeta(ctx, meta)
}

// EvalString evaluates the source as DefaultShell.
func (p *Pipeline) EvalString(ctx context.Context, src string, site core.Site) (string, error) {
	out, err := p.Eval(ctx, []byte(src), core.NewEvalMeta(DefaultShell), site)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Include implements converters.Evaluator.  The included file is
// evaluated with the parent's site, vars and params.
func (p *Pipeline) Include(ctx context.Context, parent *core.EvalMeta, path string) ([]byte, error) {
	meta := FileMeta(parent.Site, path)
	child := parent.Child(meta.Shell, path)
	child.ContentType = meta.ContentType
	return p.EvalMeta(ctx, child)
}
