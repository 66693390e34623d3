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
	"io"
	"strings"
)

// Wildcard is the type token that matches every evaluation.
const Wildcard = "all"

// Stage is anything that can be registered with a Registry.
type Stage interface {
	// Types returns the type tokens this stage handles.
	Types() []string
}

// Converter rewrites a payload.  Pre-converters see the source before
// any interpreter runs; post-converters see the interpreted bytes.
//
// Convert returns ErrSkip if it doesn't apply, in which case the
// payload is left alone.  Otherwise the returned bytes replace the
// payload for the next matching converter.
type Converter interface {
	Stage
	Convert(ctx context.Context, meta *EvalMeta, src []byte) ([]byte, error)
}

// Interpreter turns a (pre-converted) source into output bytes.
type Interpreter interface {
	Stage

	// Engine names the Engine whose Shells this interpreter
	// needs.  The empty string means the interpreter doesn't need
	// a Shell, and Interpret will be given a nil one.
	Engine() string

	// Interpret writes its output to out.  It returns ErrSkip if
	// it doesn't apply after all.
	Interpret(ctx context.Context, meta *EvalMeta, src []byte, sh Shell, out io.Writer) error
}

// Handles reports whether one of the given type tokens matches the
// evaluation.  A token matches when it equals the shell type (case
// insensitive) or is the Wildcard.  When byContent is true, a token
// also matches if the content type contains it.
func Handles(types []string, meta *EvalMeta, byContent bool) bool {
	var contentType string
	if byContent {
		contentType = strings.ToLower(meta.ContentType)
	}
	for _, t := range types {
		if strings.EqualFold(t, meta.Shell) || strings.EqualFold(t, Wildcard) {
			return true
		}
		if byContent && t != "" && strings.Contains(contentType, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
