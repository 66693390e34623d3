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

// Package pool manages reusable execution contexts (Shells).
//
// A Shell holds mutable bindings, so two evaluations must never use
// the same Shell at the same time.  A Pool hands out each Shell to one
// caller at a time, creates Shells lazily up to a maximum, and blocks
// callers when all of them are busy.  Shells are never destroyed.
package pool

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/seashell-io/seashell/core"

	"go.uber.org/zap"
)

// DefaultMax is the maximum number of Shells a Pool creates when
// none is configured.
var DefaultMax = 2 * runtime.GOMAXPROCS(0)

// Factory makes a new Shell.
type Factory func() (core.Shell, error)

// Pool is a bounded free-list of Shells.
type Pool struct {
	name    string
	factory Factory
	logger  *zap.Logger

	// slots holds one token per checked-out Shell.
	slots chan struct{}

	// idle holds Shells that are not checked out.  Its capacity
	// is the maximum, so Release never blocks.
	idle chan core.Shell

	created int64
}

// New makes a Pool that creates at most max Shells with the given
// factory.  A max less than one means DefaultMax.
func New(name string, max int, factory Factory, logger *zap.Logger) *Pool {
	if max < 1 {
		max = DefaultMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		name:    name,
		factory: factory,
		logger:  logger.With(zap.String("pool", name)),
		slots:   make(chan struct{}, max),
		idle:    make(chan core.Shell, max),
	}
}

// ForEngine makes a Pool of the given Engine's Shells.
func ForEngine(e core.Engine, max int, logger *zap.Logger) *Pool {
	return New(e.Name(), max, e.NewShell, logger)
}

// Name returns the pool's name, which is usually an engine name.
func (p *Pool) Name() string {
	return p.name
}

// Max returns the most Shells this Pool will ever create.
func (p *Pool) Max() int {
	return cap(p.slots)
}

// Checkout returns a Shell for the caller's exclusive use.  If every
// Shell is busy and the Pool is at its maximum, Checkout waits for a
// Release or for ctx to be done.
//
// Every successful Checkout must be followed by exactly one Release.
func (p *Pool) Checkout(ctx context.Context) (core.Shell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p.slots <- struct{}{}:
	}

	select {
	case sh := <-p.idle:
		return sh, nil
	default:
	}

	// Holding a slot with no idle Shell means fewer than Max
	// Shells exist, so we can make another.
	sh, err := p.factory()
	if err != nil {
		<-p.slots
		return nil, err
	}
	n := atomic.AddInt64(&p.created, 1)
	p.logger.Debug("shell created", zap.Int64("created", n))

	return sh, nil
}

// Release returns a Shell to the Pool.
func (p *Pool) Release(sh core.Shell) {
	if sh == nil {
		return
	}
	p.idle <- sh
	<-p.slots
}

// With checks out a Shell, calls fn with it, and releases the Shell
// however fn returns (including by panicking).
func (p *Pool) With(ctx context.Context, fn func(core.Shell) error) error {
	sh, err := p.Checkout(ctx)
	if err != nil {
		return err
	}
	defer p.Release(sh)
	return fn(sh)
}

// Stats is a snapshot of a Pool's counters.
type Stats struct {
	Max     int `json:"max"`
	Created int `json:"created"`
	Idle    int `json:"idle"`
	Busy    int `json:"busy"`
}

// Stats returns a snapshot of the Pool's counters.  The counters are
// read without a lock, so they might not add up while Shells are
// moving.
func (p *Pool) Stats() Stats {
	return Stats{
		Max:     cap(p.slots),
		Created: int(atomic.LoadInt64(&p.created)),
		Idle:    len(p.idle),
		Busy:    len(p.slots),
	}
}
