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

package core

import (
	"context"
	"errors"
)

// Registry holds the three ordered stage lists.  Registration order is
// dispatch order.
//
// A Registry is populated once (typically at startup) and is then
// read-only, so concurrent dispatch needs no locking.  Nothing
// prevents further registration, but doing so while evaluations are
// running is a data race.
type Registry struct {
	pre          []Converter
	interpreters []Interpreter
	post         []Converter
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddPre appends pre-converters.
func (r *Registry) AddPre(cs ...Converter) *Registry {
	r.pre = append(r.pre, cs...)
	return r
}

// AddInterpreter appends interpreters.
func (r *Registry) AddInterpreter(is ...Interpreter) *Registry {
	r.interpreters = append(r.interpreters, is...)
	return r
}

// AddPost appends post-converters.
func (r *Registry) AddPost(cs ...Converter) *Registry {
	r.post = append(r.post, cs...)
	return r
}

// Pre returns the pre-converters in registration order.
func (r *Registry) Pre() []Converter {
	return r.pre
}

// Post returns the post-converters in registration order.
func (r *Registry) Post() []Converter {
	return r.post
}

// Interpreters returns every registered interpreter that handles the
// evaluation, in registration order.
//
// Note that this is not "first match": if two interpreters both
// handle a shell type, both are returned and both will run.
func (r *Registry) Interpreters(meta *EvalMeta) []Interpreter {
	var acc []Interpreter
	for _, i := range r.interpreters {
		if Handles(i.Types(), meta, false) {
			acc = append(acc, i)
		}
	}
	return acc
}

// Preconvert runs the matching pre-converters over src.
func (r *Registry) Preconvert(ctx context.Context, meta *EvalMeta, src []byte) ([]byte, error) {
	return Dispatch(ctx, r.pre, meta, src)
}

// Postconvert runs the matching post-converters over src.
func (r *Registry) Postconvert(ctx context.Context, meta *EvalMeta, src []byte) ([]byte, error) {
	return Dispatch(ctx, r.post, meta, src)
}

// Dispatch runs each matching converter in order.  A converter that
// returns ErrSkip leaves the payload alone; one that returns bytes
// replaces the payload for the next converter; any other error stops
// the dispatch.
func Dispatch(ctx context.Context, cs []Converter, meta *EvalMeta, src []byte) ([]byte, error) {
	for _, c := range cs {
		if !Handles(c.Types(), meta, true) {
			continue
		}
		out, err := c.Convert(ctx, meta, src)
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		src = out
	}
	return src, nil
}
