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

package goja

import (
	"context"
	"fmt"
	"io"

	"github.com/seashell-io/seashell/core"
	"github.com/seashell-io/seashell/scanner"
)

var (
	// TemplateTypes are the shell types of pages with embedded
	// ECMAScript.
	TemplateTypes = []string{"embedded", "gsp", "jsp", "chi"}

	// ScriptTypes are the shell types of plain ECMAScript sources.
	ScriptTypes = []string{"ssjs"}
)

// Template interprets pages with embedded ECMAScript.  The page goes
// through the marker scanner, and what the generated program prints
// is the output.
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

// Interpret records the generated program in meta.Compiled.  An
// unterminated marker is returned as the scanner's *core.ParseError.
func (i *Template) Interpret(ctx context.Context, meta *core.EvalMeta, src []byte, sh core.Shell, out io.Writer) error {
	code, err := scanner.Scan(string(src), scanner.ECMAScript{})
	if err != nil {
		return err
	}
	meta.Compiled = code
	_, err = run(ctx, meta, code, sh, out)
	return err
}

// Script interprets a plain ECMAScript source.  Besides anything the
// script prints, the output gets the script's completion value.
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
	v, err := run(ctx, meta, code, sh, out)
	if err != nil {
		return err
	}
	if v != nil {
		_, err = fmt.Fprint(out, v)
	}
	return err
}

// run executes the code in a block, so that its let, const and class
// declarations are gone when it finishes and the next program on the
// same Shell can declare them again.
func run(ctx context.Context, meta *core.EvalMeta, code string, sh core.Shell, out io.Writer) (interface{}, error) {
	if sh == nil {
		return nil, core.ErrNoEngine
	}
	p, err := sh.Compile(ctx, meta.File, "{\n"+code+"\n}")
	if err != nil {
		return nil, err
	}
	return sh.Exec(ctx, p, meta.Bindings(), out)
}
