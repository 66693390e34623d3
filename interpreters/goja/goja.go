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

// Package goja provides the ECMAScript engine and the interpreters
// that use it.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"time"

	"github.com/seashell-io/seashell/core"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
	"go.trai.ch/zerr"
)

// Name is the name of the engine.
const Name = "goja"

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: interrupted"

	// Interrupted is returned by Exec if the execution is
	// interrupted because its context is done.
	Interrupted = zerr.New(InterruptedMessage)

	// ErrBadProgram is returned by Exec when given a Program that
	// some other Shell compiled.
	ErrBadProgram = zerr.New("not a goja program")
)

// reserved are the globals every Shell defines.  Vars can't replace
// them.
var reserved = map[string]bool{
	"print":    true,
	"println":  true,
	"echo":     true,
	"cronNext": true,
	"esc":      true,
	"sleep":    true,
}

var bytesType = reflect.TypeOf([]byte(nil))

// Engine implements core.Engine.
type Engine struct {
	// Testing is used to expose or hide some runtime
	// capabilities.  Currently just sleep(ms).
	Testing bool
}

// NewEngine makes a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string {
	return Name
}

func (e *Engine) NewShell() (core.Shell, error) {
	return NewShell(e.Testing), nil
}

// Shell implements core.Shell with a single goja.Runtime, which keeps
// its global state from one Exec to the next.
//
// The following functions are available to programs:
//
//	print(x...): write the given values.  null and undefined write nothing,
//	  and a Uint8Array writes its bytes.
//	echo(x...): same as print.
//	println(x...): print followed by a newline.
//	cronNext(expr): the next time (RFC3339, UTC) the cron expression fires.
//	esc(s): URL query-escape the given string.
//
// For testing only:
//
//	sleep(ms): sleep for the given number of milliseconds.
type Shell struct {
	rt  *goja.Runtime
	out io.Writer
}

// NewShell makes a Shell.  The testing flag exposes sleep().
func NewShell(testing bool) *Shell {
	s := &Shell{
		rt:  goja.New(),
		out: io.Discard,
	}

	s.rt.Set("print", s.print)
	s.rt.Set("echo", s.print)
	s.rt.Set("println", func(call goja.FunctionCall) goja.Value {
		s.print(call)
		s.write("\n")
		return goja.Undefined()
	})

	s.rt.Set("cronNext", func(expr string) string {
		c, err := cronexpr.Parse(expr)
		if err != nil {
			s.protest(err)
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	})

	s.rt.Set("esc", func(x string) string {
		return url.QueryEscape(x)
	})

	if testing {
		s.rt.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	return s
}

// protest throws a Javascript exception.
func (s *Shell) protest(err error) {
	panic(s.rt.NewGoError(err))
}

func (s *Shell) write(str string) {
	if _, err := io.WriteString(s.out, str); err != nil {
		s.protest(err)
	}
}

func (s *Shell) print(call goja.FunctionCall) goja.Value {
	for _, v := range call.Arguments {
		if goja.IsUndefined(v) || goja.IsNull(v) {
			continue
		}
		if o, is := v.(*goja.Object); is && o.ExportType() == bytesType {
			if _, err := s.out.Write(o.Export().([]byte)); err != nil {
				s.protest(err)
			}
			continue
		}
		s.write(v.String())
	}
	return goja.Undefined()
}

// Compile calls goja.Compile in non-strict mode.
func (s *Shell) Compile(ctx context.Context, name, src string) (core.Program, error) {
	p, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "goja compile failed"), "name", name)
	}
	return p, nil
}

// Exec implements the core.Shell method of the same name.
//
// The vars are set as globals for the duration of the execution.
// Afterwards a var that shadowed an existing global (a builtin such as
// JSON, say) gets the old value back, and the others are deleted.
// Globals that the program itself defines with var or function
// persist.
func (s *Shell) Exec(ctx context.Context, p core.Program, vars map[string]interface{}, out io.Writer) (interface{}, error) {
	prog, is := p.(*goja.Program)
	if !is {
		return nil, zerr.Wrap(ErrBadProgram, fmt.Sprintf("%T", p))
	}

	s.out = out
	defer func() {
		s.out = io.Discard
	}()

	g := s.rt.GlobalObject()
	var (
		bound    []string
		shadowed = make(map[string]goja.Value)
	)
	defer func() {
		for _, k := range bound {
			if v, have := shadowed[k]; have {
				g.Set(k, v)
				continue
			}
			g.Delete(k)
		}
	}()
	for k, v := range vars {
		if reserved[k] {
			continue
		}
		if old := g.Get(k); old != nil {
			shadowed[k] = old
		}
		if err := g.Set(k, v); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "goja binding failed"), "var", k)
		}
		bound = append(bound, k)
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		<-ictx.Done()
		// If Exec calls cancel() after RunProgram returns,
		// only the parent context tells us we were actually
		// interrupted.
		if ctx.Err() != nil {
			s.rt.Interrupt(InterruptedMessage)
		}
		close(done)
	}()

	v, err := s.rt.RunProgram(prog)
	cancel()
	<-done
	// An interrupt that arrived after the program finished must
	// not hit the next one.
	s.rt.ClearInterrupt()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, zerr.Wrap(err, "goja exec failed")
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}
