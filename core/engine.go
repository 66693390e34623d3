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
)

// Program is whatever a Shell's Compile produces.  Only the Shell
// that made a Program knows what it is.
type Program interface{}

// Shell is a stateful, reusable execution context.  A Shell is not
// safe for concurrent use: callers must hold it exclusively (see
// package pool) from Compile through Exec.
type Shell interface {
	// Compile turns source text into a Program.
	Compile(ctx context.Context, name, src string) (Program, error)

	// Exec runs a Program.  The given vars are bound for this
	// execution only.  Anything the program prints goes to out.
	// The returned value is the program's completion value, if
	// the engine has such a thing.
	//
	// Exec returns when the program finishes or ctx is done.
	Exec(ctx context.Context, p Program, vars map[string]interface{}, out io.Writer) (interface{}, error)
}

// Engine makes Shells.
type Engine interface {
	Name() string
	NewShell() (Shell, error)
}
