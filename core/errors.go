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

// These errors describe why one evaluation failed.  An unsupported
// shell type is not among them: the pipeline passes such sources
// through unchanged.

import (
	"errors"
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrSkip is returned by a stage that does not apply to the
	// payload it was given.  The dispatcher moves on to the next
	// stage and keeps the payload as it was.
	ErrSkip = zerr.New("stage does not apply")

	// ErrUnterminatedMarker is the cause behind every ParseError.
	ErrUnterminatedMarker = zerr.New("unterminated marker")

	// ErrIncludeDepth occurs when includes nest deeper than the
	// includes converter allows, which usually means a cycle.
	ErrIncludeDepth = zerr.New("include depth exceeded")

	// ErrNoEngine occurs when an interpreter asks for an engine
	// that the pipeline wasn't given.
	ErrNoEngine = zerr.New("engine not found")
)

// Kind classifies an evaluation failure.
type Kind int

const (
	// KindParse is an unterminated embedded-code marker.
	KindParse Kind = iota + 1

	// KindExec is a failure raised by a stage, most often by
	// compiled code throwing during execution.
	KindExec

	// KindIO is a failure reading a source file or reading or
	// writing the result cache.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindExec:
		return "exec"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseError occurs when a start marker has no matching end marker.
type ParseError struct {
	// Marker is the start marker that wasn't closed.
	Marker string

	// Line is the approximate line number: the count of newlines
	// generated so far plus one.
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("marker `%s` was not closed after line %d", e.Marker, e.Line)
}

func (e *ParseError) Unwrap() error {
	return ErrUnterminatedMarker
}

// EvalError is what the pipeline returns when an evaluation fails.
// No output accompanies an EvalError.
type EvalError struct {
	Kind Kind
	Meta *EvalMeta
	Err  error
}

// NewEvalError wraps err.  An err that is already an *EvalError (from
// a nested evaluation) is returned unchanged so that the innermost
// metadata survives.
func NewEvalError(kind Kind, meta *EvalMeta, err error) error {
	if err == nil {
		return nil
	}
	var ee *EvalError
	if errors.As(err, &ee) {
		return err
	}
	return &EvalError{
		Kind: kind,
		Meta: meta,
		Err:  err,
	}
}

func (e *EvalError) Error() string {
	return "eval (" + e.Meta.String() + ") " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the EvalError in err's chain, or zero if
// there isn't one.
func KindOf(err error) Kind {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return 0
}
