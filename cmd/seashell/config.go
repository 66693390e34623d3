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
	"os"
	"time"

	"github.com/seashell-io/seashell/cache"
	"github.com/seashell-io/seashell/interpreters"
	"github.com/seashell-io/seashell/notify"
	"github.com/seashell-io/seashell/pipeline"
	"github.com/seashell-io/seashell/site"

	"github.com/gorhill/cronexpr"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// ErrBadConfig occurs when the server configuration is unusable.
var ErrBadConfig = zerr.New("bad config")

// Config is the server configuration.
type Config struct {
	// Listen is the HTTP address.  Defaults to ":8080".
	Listen string `yaml:"listen,omitempty"`

	// MaxShells is the pool size for engines not named in Pool.
	MaxShells int `yaml:"max_shells,omitempty"`

	// Pool maps an engine name to its pool size.
	Pool map[string]int `yaml:"pool,omitempty"`

	Cache CacheConfig `yaml:"cache,omitempty"`

	// MQTT, when it has a broker, gets every evaluation event.
	MQTT *notify.MQTTConfig `yaml:"mqtt,omitempty"`

	// Events enables the /_events websocket firehose.
	Events bool `yaml:"events,omitempty"`

	// Timeout bounds each request's evaluation.  Zero means no
	// bound.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	Sites []site.Config `yaml:"sites"`
}

type CacheConfig struct {
	// Backend is "file" (the default), "bolt", or "none".
	Backend string `yaml:"backend,omitempty"`

	// File is the bolt database.
	File string `yaml:"file,omitempty"`

	// Purge is a cron expression for purging every site's cache.
	Purge string `yaml:"purge,omitempty"`

	// Watch deletes the cache record of a file when it changes.
	Watch bool `yaml:"watch,omitempty"`
}

// ParseConfig parses and checks YAML configuration.
func ParseConfig(bs []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(bs, &cfg); err != nil {
		return nil, zerr.Wrap(err, "config parse failed")
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if len(cfg.Sites) == 0 {
		return nil, zerr.Wrap(ErrBadConfig, "no sites")
	}
	switch cfg.Cache.Backend {
	case "file", "none":
	case "bolt":
		if cfg.Cache.File == "" {
			return nil, zerr.Wrap(ErrBadConfig, "bolt cache needs a file")
		}
	default:
		return nil, zerr.With(zerr.Wrap(ErrBadConfig, "unknown cache backend"), "backend", cfg.Cache.Backend)
	}
	if cfg.Cache.Purge != "" {
		if _, err := cronexpr.Parse(cfg.Cache.Purge); err != nil {
			return nil, zerr.With(zerr.Wrap(ErrBadConfig, err.Error()), "purge", cfg.Cache.Purge)
		}
	}
	return &cfg, nil
}

// LoadConfig reads the configuration file.
func LoadConfig(filename string) (*Config, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, zerr.Wrap(err, "config read failed")
	}
	cfg, err := ParseConfig(bs)
	if err != nil {
		return nil, zerr.With(err, "filename", filename)
	}
	return cfg, nil
}

// Store opens the configured result cache.  The closer releases it.
func (c *Config) Store(logger *zap.Logger) (cache.Store, func() error, error) {
	switch c.Cache.Backend {
	case "bolt":
		b, err := cache.OpenBolt(c.Cache.File, logger)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case "none":
		return cache.Nop{}, nop, nil
	default:
		return cache.NewFiles(logger), nop, nil
	}
}

func nop() error {
	return nil
}

// Options returns the pipeline options for the engines and the cache.
func (c *Config) Options(store cache.Store, logger *zap.Logger) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithMaxShells(c.MaxShells),
		pipeline.WithCache(store),
		pipeline.WithLogger(logger),
	}
	for _, e := range interpreters.Engines() {
		if max, have := c.Pool[e.Name()]; have {
			opts = append(opts, pipeline.WithEngine(e, max))
		}
	}
	return opts
}
