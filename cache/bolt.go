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
	"time"

	"github.com/seashell-io/seashell/core"

	"go.etcd.io/bbolt"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// DefaultBucket is the bucket used for a nil site or a site without
// an ID.
const DefaultBucket = "default"

// Bolt is a Store in a single BoltDB file with one bucket per site.
type Bolt struct {
	filename string
	db       *bbolt.DB
	logger   *zap.Logger
}

// OpenBolt opens (or creates) the BoltDB file.
func OpenBolt(filename string, logger *zap.Logger) (*Bolt, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &bbolt.Options{
		Timeout: time.Second,
	}
	db, err := bbolt.Open(filename, 0644, opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "bolt open failed"), "file", filename)
	}
	return &Bolt{
		filename: filename,
		db:       db,
		logger:   logger,
	}, nil
}

// Close closes the underlying BoltDB.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func bucket(site core.Site) []byte {
	if site == nil || site.ID() == "" {
		return []byte(DefaultBucket)
	}
	return []byte(site.ID())
}

func (s *Bolt) Get(ctx context.Context, site core.Site, key string) ([]byte, bool, error) {
	var bs []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket(site))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// v is only valid during the transaction.
			bs = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, "cache read failed"), "key", key)
	}
	return bs, bs != nil, nil
}

func (s *Bolt) Put(ctx context.Context, site core.Site, key string, bs []byte) error {
	if bs == nil {
		bs = []byte{}
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket(site))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), bs)
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cache write failed"), "key", key)
	}
	s.logger.Debug("cache record written",
		zap.ByteString("bucket", bucket(site)),
		zap.String("key", key),
		zap.Int("bytes", len(bs)))
	return nil
}

func (s *Bolt) Delete(ctx context.Context, site core.Site, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket(site))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *Bolt) Purge(ctx context.Context, site core.Site) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(bucket(site))
		if err == bbolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return zerr.Wrap(err, "cache purge failed")
	}
	s.logger.Info("cache purged", zap.ByteString("bucket", bucket(site)))
	return nil
}
