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

package cache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/seashell-io/seashell/core"

	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// Suffix is the file name suffix of every cache record on disk.
const Suffix = ".cache"

// Files is a Store that keeps one file per record under each site's
// cache directory.  A site without a cache directory caches nothing.
type Files struct {
	logger *zap.Logger
}

// NewFiles makes a Files store.
func NewFiles(logger *zap.Logger) *Files {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{
		logger: logger,
	}
}

func (s *Files) filename(site core.Site, key string) string {
	if site == nil || site.CacheDir() == "" {
		return ""
	}
	return filepath.Join(site.CacheDir(), key+Suffix)
}

func (s *Files) Get(ctx context.Context, site core.Site, key string) ([]byte, bool, error) {
	filename := s.filename(site, key)
	if filename == "" {
		return nil, false, nil
	}
	bs, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, "cache read failed"), "file", filename)
	}
	return bs, true, nil
}

// Put writes the record to a temporary file and renames it into
// place, so a concurrent Get sees either the old record or the new
// one.  Two Puts of the same key race; the last rename wins.
func (s *Files) Put(ctx context.Context, site core.Site, key string, bs []byte) error {
	filename := s.filename(site, key)
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return zerr.With(zerr.Wrap(err, "cache dir failed"), "dir", dir)
	}

	f, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cache write failed"), "file", filename)
	}
	tmp := f.Name()
	_, err = f.Write(bs)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, filename)
	}
	if err != nil {
		os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, "cache write failed"), "file", filename)
	}

	s.logger.Debug("cache record written",
		zap.String("site", site.ID()),
		zap.String("file", filename),
		zap.Int("bytes", len(bs)))
	return nil
}

func (s *Files) Delete(ctx context.Context, site core.Site, key string) error {
	filename := s.filename(site, key)
	if filename == "" {
		return nil
	}
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return zerr.With(zerr.Wrap(err, "cache delete failed"), "file", filename)
	}
	return nil
}

// Purge removes every record in the site's cache directory.  Other
// files in that directory are left alone.
func (s *Files) Purge(ctx context.Context, site core.Site) error {
	if site == nil || site.CacheDir() == "" {
		return nil
	}
	filenames, err := filepath.Glob(filepath.Join(site.CacheDir(), "*"+Suffix))
	if err != nil {
		return err
	}
	for _, filename := range filenames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(err, "cache purge failed"), "file", filename)
		}
	}
	s.logger.Info("cache purged",
		zap.String("site", site.ID()),
		zap.Int("records", len(filenames)))
	return nil
}
