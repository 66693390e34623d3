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
	"io/fs"
	"path/filepath"

	"github.com/seashell-io/seashell/cache"
	"github.com/seashell-io/seashell/site"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// Watcher deletes a file's cache record when the file changes.
//
// Records of pages that include a changed file are not touched.
type Watcher struct {
	sites   *site.Sites
	store   cache.Store
	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher watches every directory under every site's root.
func NewWatcher(sites *site.Sites, store cache.Store, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "watcher failed")
	}
	w := &Watcher{
		sites:   sites,
		store:   store,
		logger:  logger,
		watcher: fw,
	}
	for _, s := range sites.All() {
		if err = w.addTree(s.Root()); err != nil {
			fw.Close()
			return nil, zerr.With(err, "site", s.ID())
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return zerr.With(zerr.Wrap(err, "watch failed"), "dir", path)
		}
		return nil
	})
}

// Run handles file events until ctx is done.  It closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, e)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		// New directories need watching too.
		if err := w.addTree(e.Name); err != nil {
			w.logger.Debug("watch add failed", zap.String("path", e.Name), zap.Error(err))
		}
	}
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Remove) && !e.Has(fsnotify.Rename) && !e.Has(fsnotify.Create) {
		return
	}
	s := w.sites.Owner(e.Name)
	if s == nil {
		return
	}
	if !cache.Eligible(s, e.Name) {
		return
	}
	if err := w.store.Delete(ctx, s, cache.Key(e.Name)); err != nil {
		w.logger.Warn("cache delete failed", zap.String("site", s.ID()), zap.String("file", e.Name), zap.Error(err))
		return
	}
	w.logger.Debug("cache record deleted", zap.String("site", s.ID()), zap.String("file", e.Name), zap.Stringer("op", e.Op))
}
