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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSite struct {
	id       string
	dir      string
	patterns []string
}

func (s *testSite) ID() string                         { return s.id }
func (s *testSite) CacheDir() string                   { return s.dir }
func (s *testSite) CachePatterns() []string            { return s.patterns }
func (s *testSite) Aliases() map[string]string         { return nil }
func (s *testSite) Resolve(ref string) (string, error) { return ref, nil }

func TestKey(t *testing.T) {
	a := Key("/srv/www/index.gsp")
	require.Equal(t, a, Key("/srv/www/index.gsp"))
	require.NotEqual(t, a, Key("/srv/www/about.gsp"))
	require.NotEmpty(t, a)
}

func TestEligible(t *testing.T) {
	site := &testSite{patterns: []string{".CSS", "static", ""}}

	require.True(t, Eligible(site, "/srv/www/main.css"))
	require.True(t, Eligible(site, "/srv/www/Static-Banner.html"))
	require.False(t, Eligible(site, "/srv/static/index.html"), "only the base name counts")
	require.False(t, Eligible(site, "/srv/www/index.gsp"))
	require.False(t, Eligible(site, ""))
	require.False(t, Eligible(nil, "/srv/www/main.css"))
}

func testStore(t *testing.T, s Store, site, other *testSite) {
	ctx := context.Background()
	key := Key("/srv/www/main.css")

	_, have, err := s.Get(ctx, site, key)
	require.NoError(t, err)
	require.False(t, have)

	require.NoError(t, s.Put(ctx, site, key, []byte("body{}")))

	bs, have, err := s.Get(ctx, site, key)
	require.NoError(t, err)
	require.True(t, have)
	require.Equal(t, "body{}", string(bs))

	// Records are scoped per site.
	_, have, err = s.Get(ctx, other, key)
	require.NoError(t, err)
	require.False(t, have)

	require.NoError(t, s.Put(ctx, site, key, []byte("p{}")))
	bs, _, err = s.Get(ctx, site, key)
	require.NoError(t, err)
	require.Equal(t, "p{}", string(bs))

	require.NoError(t, s.Delete(ctx, site, key))
	_, have, err = s.Get(ctx, site, key)
	require.NoError(t, err)
	require.False(t, have)
	require.NoError(t, s.Delete(ctx, site, key), "deleting a missing record is fine")

	require.NoError(t, s.Put(ctx, site, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, site, "b", []byte("2")))
	require.NoError(t, s.Purge(ctx, site))
	_, have, err = s.Get(ctx, site, "a")
	require.NoError(t, err)
	require.False(t, have)
	require.NoError(t, s.Purge(ctx, site), "purging an empty cache is fine")
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	site := &testSite{id: "simpsons", dir: filepath.Join(dir, "simpsons")}
	other := &testSite{id: "flanders", dir: filepath.Join(dir, "flanders")}

	testStore(t, NewFiles(nil), site, other)
}

func TestFilesPurgeKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	site := &testSite{id: "simpsons", dir: dir}
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0644))

	s := NewFiles(nil)
	require.NoError(t, s.Put(context.Background(), site, "k", []byte("v")))
	require.NoError(t, s.Purge(context.Background(), site))

	_, err := os.Stat(keep)
	require.NoError(t, err)
}

func TestFilesWithoutCacheDir(t *testing.T) {
	s := NewFiles(nil)
	site := &testSite{id: "nodir"}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, site, "k", []byte("v")))
	_, have, err := s.Get(ctx, site, "k")
	require.NoError(t, err)
	require.False(t, have)
}

func TestFilesConcurrentPuts(t *testing.T) {
	site := &testSite{id: "simpsons", dir: t.TempDir()}
	s := NewFiles(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Put(ctx, site, "same", []byte("deterministic")))
		}()
	}
	wg.Wait()

	bs, have, err := s.Get(ctx, site, "same")
	require.NoError(t, err)
	require.True(t, have)
	require.Equal(t, "deterministic", string(bs))

	leftovers, err := filepath.Glob(filepath.Join(site.dir, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestBolt(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	testStore(t, s, &testSite{id: "simpsons"}, &testSite{id: "flanders"})

	// A nil site uses the default bucket.
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, nil, "k", []byte("v")))
	bs, have, err := s.Get(ctx, &testSite{}, "k")
	require.NoError(t, err)
	require.True(t, have)
	require.Equal(t, "v", string(bs))
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, nil, "k", []byte("v")))
	_, have, err := s.Get(ctx, nil, "k")
	require.NoError(t, err)
	require.False(t, have)
}
