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
	"time"

	"github.com/seashell-io/seashell/cache"
	"github.com/seashell-io/seashell/site"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

// PurgeAll purges every site's cache.  It keeps going after a failure
// and returns the first error.
func PurgeAll(ctx context.Context, sites *site.Sites, store cache.Store, logger *zap.Logger) error {
	var first error
	for _, s := range sites.All() {
		if err := store.Purge(ctx, s); err != nil {
			logger.Error("purge failed", zap.String("site", s.ID()), zap.Error(err))
			if first == nil {
				first = err
			}
			continue
		}
		logger.Info("purged", zap.String("site", s.ID()))
	}
	return first
}

// Purger runs PurgeAll on a cron schedule.
type Purger struct {
	Schedule *cronexpr.Expression
	Sites    *site.Sites
	Store    cache.Store
	Logger   *zap.Logger

	// Now is for testing.
	Now func() time.Time
}

// Next returns the next purge time after t, or the zero time if there
// isn't one.
func (p *Purger) Next(t time.Time) time.Time {
	return p.Schedule.Next(t)
}

// Run purges on schedule until ctx is done.
func (p *Purger) Run(ctx context.Context) error {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	for {
		next := p.Next(now())
		if next.IsZero() {
			p.Logger.Warn("no more purges")
			<-ctx.Done()
			return nil
		}
		p.Logger.Debug("next purge", zap.Time("at", next))
		timer := time.NewTimer(next.Sub(now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			// Failures are logged; the next purge might work.
			PurgeAll(ctx, p.Sites, p.Store, p.Logger)
		}
	}
}
