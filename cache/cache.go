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

// Package cache stores evaluation results, scoped per site.
//
// A record's key is derived from the source file's path, not from its
// contents.  Editing a file therefore doesn't change its key: stale
// records have to be removed from outside (see the site watcher in
// cmd/seashell).
package cache

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seashell-io/seashell/core"

	"github.com/cespare/xxhash/v2"
)

// Store is a per-site keyed store of output bytes.
//
// Get returns false (and no error) for a missing record.
type Store interface {
	Get(ctx context.Context, site core.Site, key string) ([]byte, bool, error)
	Put(ctx context.Context, site core.Site, key string, bs []byte) error
	Delete(ctx context.Context, site core.Site, key string) error
	Purge(ctx context.Context, site core.Site) error
}

// Key derives the record key for a source file path.
func Key(path string) string {
	return strconv.FormatUint(xxhash.Sum64String(path), 16)
}

// Eligible reports whether the file at path may be cached for the
// site: its base name must contain one of the site's cache patterns
// (case insensitive).
func Eligible(site core.Site, path string) bool {
	if site == nil || path == "" {
		return false
	}
	name := strings.ToLower(filepath.Base(path))
	for _, p := range site.CachePatterns() {
		if p == "" {
			continue
		}
		if strings.Contains(name, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Nop is a Store that never has anything.
type Nop struct{}

func (Nop) Get(ctx context.Context, site core.Site, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Nop) Put(ctx context.Context, site core.Site, key string, bs []byte) error {
	return nil
}

func (Nop) Delete(ctx context.Context, site core.Site, key string) error {
	return nil
}

func (Nop) Purge(ctx context.Context, site core.Site) error {
	return nil
}
