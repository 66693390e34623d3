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

// Package noop provides an Interpreter for markup that needs no
// interpretation.
package noop

import (
	"context"
	"io"

	"github.com/seashell-io/seashell/core"
)

// Types are the shell types of plain markup.
var Types = []string{"html", "htm", "text"}

// Interpreter is a core.Interpreter that writes its source without
// modification.  It needs no Shell.
type Interpreter struct {
	types []string
}

// NewInterpreter makes an Interpreter for the given shell types,
// which default to Types.
func NewInterpreter(types ...string) *Interpreter {
	if len(types) == 0 {
		types = Types
	}
	return &Interpreter{
		types: types,
	}
}

func (i *Interpreter) Types() []string {
	return i.types
}

func (i *Interpreter) Engine() string {
	return ""
}

func (i *Interpreter) Interpret(ctx context.Context, meta *core.EvalMeta, src []byte, sh core.Shell, out io.Writer) error {
	_, err := out.Write(src)
	return err
}
