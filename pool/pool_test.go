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

package pool

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seashell-io/seashell/core"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeShell struct {
	id   int64
	busy int32
}

func (s *fakeShell) Compile(ctx context.Context, name, src string) (core.Program, error) {
	return src, nil
}

func (s *fakeShell) Exec(ctx context.Context, p core.Program, vars map[string]interface{}, out io.Writer) (interface{}, error) {
	return nil, nil
}

func counter() (Factory, *int64) {
	var n int64
	return func() (core.Shell, error) {
		return &fakeShell{id: atomic.AddInt64(&n, 1)}, nil
	}, &n
}

func TestLazyCreationAndReuse(t *testing.T) {
	factory, made := counter()
	p := New("test", 4, factory, nil)
	ctx := context.Background()

	require.Equal(t, int64(0), atomic.LoadInt64(made))

	a, err := p.Checkout(ctx)
	require.NoError(t, err)
	b, err := p.Checkout(ctx)
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, int64(2), atomic.LoadInt64(made))

	p.Release(a)
	c, err := p.Checkout(ctx)
	require.NoError(t, err)
	require.Same(t, a, c, "an idle shell should be reused")
	require.Equal(t, int64(2), atomic.LoadInt64(made))

	p.Release(b)
	p.Release(c)

	st := p.Stats()
	require.Equal(t, Stats{Max: 4, Created: 2, Idle: 2, Busy: 0}, st)
}

func TestCheckoutBlocksAtMax(t *testing.T) {
	factory, _ := counter()
	p := New("test", 2, factory, nil)

	a, err := p.Checkout(context.Background())
	require.NoError(t, err)
	b, err := p.Checkout(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Checkout(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	got := make(chan core.Shell)
	go func() {
		sh, err := p.Checkout(context.Background())
		if err != nil {
			close(got)
			return
		}
		got <- sh
	}()

	p.Release(a)
	select {
	case sh := <-got:
		require.Same(t, a, sh)
		p.Release(sh)
	case <-time.After(time.Second):
		t.Fatal("checkout didn't unblock")
	}
	p.Release(b)

	require.Equal(t, 2, p.Stats().Created)
}

func TestExclusiveUse(t *testing.T) {
	factory, made := counter()
	p := New("test", 3, factory, nil)

	var violations int32
	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < 32; w++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				err := p.With(ctx, func(sh core.Shell) error {
					fs := sh.(*fakeShell)
					if !atomic.CompareAndSwapInt32(&fs.busy, 0, 1) {
						atomic.AddInt32(&violations, 1)
						return nil
					}
					time.Sleep(10 * time.Microsecond)
					atomic.StoreInt32(&fs.busy, 0)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Zero(t, atomic.LoadInt32(&violations), "two callers held one shell")
	require.LessOrEqual(t, atomic.LoadInt64(made), int64(3))
	require.Equal(t, 0, p.Stats().Busy)
}

func TestWithReleasesOnPanic(t *testing.T) {
	factory, _ := counter()
	p := New("test", 1, factory, nil)

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		_ = p.With(context.Background(), func(core.Shell) error {
			panic("chips")
		})
	}()

	require.Equal(t, 0, p.Stats().Busy)

	// The only shell must be available again.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sh, err := p.Checkout(ctx)
	require.NoError(t, err)
	p.Release(sh)
}

func TestWithReturnsError(t *testing.T) {
	factory, _ := counter()
	p := New("test", 1, factory, nil)

	want := errors.New("queso")
	err := p.With(context.Background(), func(core.Shell) error {
		return want
	})
	require.ErrorIs(t, err, want)
	require.Equal(t, 1, p.Stats().Idle)
}

func TestFactoryError(t *testing.T) {
	want := errors.New("no shells today")
	p := New("test", 1, func() (core.Shell, error) { return nil, want }, nil)

	_, err := p.Checkout(context.Background())
	require.ErrorIs(t, err, want)
	require.Equal(t, Stats{Max: 1}, p.Stats())
}

func TestDefaultMax(t *testing.T) {
	factory, _ := counter()
	p := New("test", 0, factory, nil)
	require.Equal(t, DefaultMax, p.Max())
	require.Equal(t, "test", p.Name())
}

