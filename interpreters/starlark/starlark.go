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

// Package starlark provides the Starlark engine and the interpreters
// that use it.
//
// See https://github.com/google/starlark-go.
package starlark

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/seashell-io/seashell/core"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/zerr"
)

// Name is the name of the engine.
const Name = "starlark"

var (
	// Interrupted is returned by Exec if the execution is
	// cancelled because its context is done.
	Interrupted = zerr.New("starlark: interrupted")

	// ErrBadProgram is returned by Exec when given a Program that
	// some other Shell compiled.
	ErrBadProgram = zerr.New("not a starlark program")

	// Options are the dialect options for every Shell: sets,
	// while loops, recursion and control flow at the top level
	// are all allowed, since pages are scripts rather than
	// modules.
	Options = &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
)

// Engine implements core.Engine.
type Engine struct {
	// Predeclared are extra builtins that every Shell offers.
	Predeclared starlark.StringDict
}

// NewEngine makes a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string {
	return Name
}

func (e *Engine) NewShell() (core.Shell, error) {
	return NewShell(e.Predeclared), nil
}

// Shell implements core.Shell.  Starlark threads can't be reused after
// cancellation, so each Exec gets a new one; what the Shell keeps is
// its builtins.
//
// print(x...) writes its arguments without separators.  Strings are
// written without quotes, bytes are written raw, and None writes
// nothing.
type Shell struct {
	predeclared starlark.StringDict
	out         io.Writer
}

type program struct {
	name string
	src  string
}

// NewShell makes a Shell with the given extra builtins.
func NewShell(predeclared starlark.StringDict) *Shell {
	s := &Shell{
		predeclared: make(starlark.StringDict, len(predeclared)+1),
		out:         io.Discard,
	}
	for k, v := range predeclared {
		s.predeclared[k] = v
	}
	s.predeclared["print"] = starlark.NewBuiltin("print", s.print)
	return s
}

func (s *Shell) print(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	for _, v := range args {
		var str string
		switch vv := v.(type) {
		case starlark.NoneType:
			continue
		case starlark.String:
			str = string(vv)
		case starlark.Bytes:
			str = string(vv)
		default:
			str = v.String()
		}
		if _, err := io.WriteString(s.out, str); err != nil {
			return nil, err
		}
	}
	return starlark.None, nil
}

// Compile checks the syntax.  Names are resolved when the program
// runs, since that's when the vars are known.
func (s *Shell) Compile(ctx context.Context, name, src string) (core.Program, error) {
	if _, err := Options.Parse(name, src, 0); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "starlark compile failed"), "name", name)
	}
	return &program{
		name: name,
		src:  src,
	}, nil
}

// Exec implements the core.Shell method of the same name.  Starlark
// has no completion value, so the returned value is always nil.
func (s *Shell) Exec(ctx context.Context, p core.Program, vars map[string]interface{}, out io.Writer) (interface{}, error) {
	prog, is := p.(*program)
	if !is {
		return nil, zerr.Wrap(ErrBadProgram, fmt.Sprintf("%T", p))
	}

	env := make(starlark.StringDict, len(s.predeclared)+len(vars))
	for k, v := range vars {
		x, err := ToValue(v)
		if err != nil {
			return nil, zerr.With(err, "var", k)
		}
		env[k] = x
	}
	for k, v := range s.predeclared {
		env[k] = v
	}

	s.out = out
	defer func() {
		s.out = io.Discard
	}()

	thread := &starlark.Thread{
		Name: prog.name,
	}

	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		<-ictx.Done()
		if ctx.Err() != nil {
			thread.Cancel(ctx.Err().Error())
		}
		close(done)
	}()

	_, err := starlark.ExecFileOptions(Options, thread, prog.name, prog.src, env)
	cancel()
	<-done

	if err != nil {
		if ctx.Err() != nil {
			return nil, Interrupted
		}
		return nil, zerr.Wrap(err, "starlark exec failed")
	}
	return nil, nil
}

// ToValue converts a Go value to a Starlark value.  Maps become dicts
// with sorted keys, and slices become lists.
func ToValue(x interface{}) (starlark.Value, error) {
	switch vv := x.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return vv, nil
	case bool:
		return starlark.Bool(vv), nil
	case string:
		return starlark.String(vv), nil
	case []byte:
		return starlark.Bytes(vv), nil
	case int:
		return starlark.MakeInt(vv), nil
	case int32:
		return starlark.MakeInt64(int64(vv)), nil
	case int64:
		return starlark.MakeInt64(vv), nil
	case uint:
		return starlark.MakeUint(vv), nil
	case uint64:
		return starlark.MakeUint64(vv), nil
	case float32:
		return starlark.Float(vv), nil
	case float64:
		return starlark.Float(vv), nil
	case []string:
		acc := make([]starlark.Value, 0, len(vv))
		for _, s := range vv {
			acc = append(acc, starlark.String(s))
		}
		return starlark.NewList(acc), nil
	case []interface{}:
		acc := make([]starlark.Value, 0, len(vv))
		for _, y := range vv {
			v, err := ToValue(y)
			if err != nil {
				return nil, err
			}
			acc = append(acc, v)
		}
		return starlark.NewList(acc), nil
	case map[string]string:
		d := starlark.NewDict(len(vv))
		for _, k := range sortedKeys(vv) {
			if err := d.SetKey(starlark.String(k), starlark.String(vv[k])); err != nil {
				return nil, err
			}
		}
		return d, nil
	case map[string]interface{}:
		d := starlark.NewDict(len(vv))
		for _, k := range sortedKeys(vv) {
			v, err := ToValue(vv[k])
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), v); err != nil {
				return nil, err
			}
		}
		return d, nil
	case fmt.Stringer:
		return starlark.String(vv.String()), nil
	default:
		return nil, zerr.With(zerr.New("unsupported value"), "type", fmt.Sprintf("%T", x))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
