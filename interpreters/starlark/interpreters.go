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

package starlark

import (
	"context"
	"io"

	"github.com/seashell-io/seashell/core"
	"github.com/seashell-io/seashell/scanner"
)

var (
	// TemplateTypes are the shell types of pages with embedded
	// Starlark.
	TemplateTypes = []string{"stpl"}

	// ScriptTypes are the shell types of plain Starlark sources.
	ScriptTypes = []string{"star"}
)

// Template interprets pages with embedded Starlark.
type Template struct {
	types []string
}

// NewTemplate makes a Template for the given shell types, which
// default to TemplateTypes.
func NewTemplate(types ...string) *Template {
	if len(types) == 0 {
		types = TemplateTypes
	}
	return &Template{
		types: types,
	}
}

func (i *Template) Types() []string {
	return i.types
}

func (i *Template) Engine() string {
	return Name
}

func (i *Template) Interpret(ctx context.Context, meta *core.EvalMeta, src []byte, sh core.Shell, out io.Writer) error {
	code, err := scanner.Scan(string(src), scanner.Starlark{})
	if err != nil {
		return err
	}
	meta.Compiled = code
	return run(ctx, meta, code, sh, out)
}

// Script interprets a plain Starlark source.  The output is whatever
// the script prints.
type Script struct {
	types []string
}

// NewScript makes a Script for the given shell types, which default
// to ScriptTypes.
func NewScript(types ...string) *Script {
	if len(types) == 0 {
		types = ScriptTypes
	}
	return &Script{
		types: types,
	}
}

func (i *Script) Types() []string {
	return i.types
}

func (i *Script) Engine() string {
	return Name
}

func (i *Script) Interpret(ctx context.Context, meta *core.EvalMeta, src []byte, sh core.Shell, out io.Writer) error {
	code := string(src)
	meta.Compiled = code
	return run(ctx, meta, code, sh, out)
}

func run(ctx context.Context, meta *core.EvalMeta, code string, sh core.Shell, out io.Writer) error {
	if sh == nil {
		return core.ErrNoEngine
	}
	name := meta.File
	if name == "" {
		name = "<eval>"
	}
	p, err := sh.Compile(ctx, name, code)
	if err != nil {
		return err
	}
	_, err = sh.Exec(ctx, p, meta.Bindings(), out)
	return err
}
