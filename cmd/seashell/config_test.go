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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seashell-io/seashell/cache"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testConfig = `
listen: ":9090"
max_shells: 3
pool:
  goja: 2
cache:
  backend: file
  purge: "0 3 * * *"
  watch: true
mqtt:
  broker: tcp://localhost:1883
  topic: seashell/events
events: true
timeout: 5s
sites:
  - id: simpsons
    root: /tmp/simpsons
    hosts: [simpsons.example.com]
    cache_patterns: [cached]
    aliases:
      who: Homer
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Listen)
	require.Equal(t, 3, cfg.MaxShells)
	require.Equal(t, 2, cfg.Pool["goja"])
	require.Equal(t, "0 3 * * *", cfg.Cache.Purge)
	require.True(t, cfg.Cache.Watch)
	require.True(t, cfg.Events)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, "seashell/events", cfg.MQTT.Topic)
	require.Len(t, cfg.Sites, 1)
	require.Equal(t, "Homer", cfg.Sites[0].Aliases["who"])

	// Three defaults plus one engine.
	require.Len(t, cfg.Options(cache.Nop{}, zap.NewNop()), 4)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("sites: [{id: a, root: /tmp}]"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, "file", cfg.Cache.Backend)

	store, closer, err := cfg.Store(zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &cache.Files{}, store)
	require.NoError(t, closer())
}

func TestParseConfigErrors(t *testing.T) {
	for _, src := range []string{
		"sites: []",
		"sites: [{id: a, root: /tmp}]\ncache: {backend: redis}",
		"sites: [{id: a, root: /tmp}]\ncache: {backend: bolt}",
		"sites: [{id: a, root: /tmp}]\ncache: {purge: \"not cron\"}",
	} {
		_, err := ParseConfig([]byte(src))
		require.ErrorIs(t, err, ErrBadConfig, src)
	}

	_, err := ParseConfig([]byte("sites: [{id: a, root: /tmp}]\nlisen: :80"))
	require.Error(t, err)
}

func TestConfigBolt(t *testing.T) {
	dir := t.TempDir()
	cfg, err := ParseConfig([]byte("sites: [{id: a, root: /tmp}]\ncache: {backend: bolt, file: " + filepath.Join(dir, "cache.db") + "}"))
	require.NoError(t, err)

	store, closer, err := cfg.Store(zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &cache.Bolt{}, store)
	require.NoError(t, closer())
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "seashell.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(testConfig), 0644))

	cfg, err := LoadConfig(filename)
	require.NoError(t, err)
	require.Equal(t, "simpsons", cfg.Sites[0].ID)

	_, err = LoadConfig(filename + ".missing")
	require.True(t, errors.Is(err, os.ErrNotExist))
}
