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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seashell-io/seashell/cache"
	"github.com/seashell-io/seashell/util/testutil"

	"github.com/gorhill/cronexpr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, root string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "seashell.yaml")
	cfg := fmt.Sprintf(`
cache:
  backend: none
sites:
  - id: simpsons
    root: %s
    aliases:
      town: Springfield
`, root)
	require.NoError(t, os.WriteFile(filename, []byte(cfg), 0644))
	return filename
}

func TestCLIEval(t *testing.T) {
	root := testutil.Site(t, map[string]string{
		"index.gsp": "<p>%town%: <% 6 * 7 %></p>",
	})
	config := writeConfig(t, root)

	var out bytes.Buffer
	c := NewCLI(&out)
	c.SetArgs([]string{"eval", "--config", config, filepath.Join(root, "index.gsp")})
	require.NoError(t, c.Execute(context.Background()))
	require.Equal(t, "<p>Springfield: 42</p>", out.String())

	c = NewCLI(&out)
	c.SetArgs([]string{"eval", "--config", config, "--site", "flanders", filepath.Join(root, "index.gsp")})
	require.Error(t, c.Execute(context.Background()))
}

func TestCLICachePurge(t *testing.T) {
	config := writeConfig(t, t.TempDir())
	c := NewCLI(&bytes.Buffer{})
	c.SetArgs([]string{"cache", "purge", "-c", config})
	require.NoError(t, c.Execute(context.Background()))
}

func TestCLIBadConfig(t *testing.T) {
	c := NewCLI(&bytes.Buffer{})
	c.SetArgs([]string{"cache", "purge", "-c", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, c.Execute(context.Background()))
}

func TestWatcher(t *testing.T) {
	sites := testSites(t)
	s := sites.Default()
	store := cache.NewFiles(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := NewWatcher(sites, store, zap.NewNop())
	require.NoError(t, err)
	done := make(chan error)
	go func() {
		done <- w.Run(ctx)
	}()

	filename := filepath.Join(s.Root(), "cached", "count.gsp")
	key := cache.Key(filename)
	require.NoError(t, store.Put(ctx, s, key, []byte("old")))

	require.NoError(t, os.WriteFile(filename, []byte("new"), 0644))
	require.Eventually(t, func() bool {
		_, have, err := store.Get(ctx, s, key)
		return err == nil && !have
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestPurger(t *testing.T) {
	p := &Purger{
		Schedule: cronexpr.MustParse("0 3 * * *"),
	}
	at := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2019, 6, 2, 3, 0, 0, 0, time.UTC), p.Next(at))
}
