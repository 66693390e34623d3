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
	"strings"
)

// EvalMeta carries the context of exactly one evaluation.
//
// An EvalMeta is created by the caller, mutated in place as it threads
// through the stages, and discarded afterwards.  It is not safe to
// share an EvalMeta across concurrent evaluations.
type EvalMeta struct {
	// Shell is the shell type, which drives stage dispatch.
	Shell string `json:"shell" yaml:"shell"`

	// ContentType is the declared content type.  When empty, the
	// pipeline defaults it to Shell.
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`

	// File is the originating file path, if any.  It is also the
	// identity used by the result cache.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// Source is the source text as received.
	Source string `json:"-" yaml:"-"`

	// Compiled is the generated executable source, when a
	// scanner ran.
	Compiled string `json:"-" yaml:"-"`

	// Params are request parameters that some stages consult
	// (image dimensions, for example).
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`

	// Vars are bindings exposed to embedded code for this
	// evaluation only.
	Vars map[string]interface{} `json:"-" yaml:"-"`

	// Site is the site the evaluation belongs to.  It may be nil.
	Site Site `json:"-" yaml:"-"`
}

// NewEvalMeta makes an EvalMeta for the given shell type.
func NewEvalMeta(shell string) *EvalMeta {
	return &EvalMeta{
		Shell: shell,
	}
}

// Param returns the named parameter or the empty string.
func (m *EvalMeta) Param(name string) string {
	if m == nil || m.Params == nil {
		return ""
	}
	return m.Params[name]
}

// Child makes the metadata for a nested evaluation (an include, for
// example).  Vars, Params and Site are shared with the parent;
// everything else is fresh.
func (m *EvalMeta) Child(shell, file string) *EvalMeta {
	c := &EvalMeta{
		Shell: shell,
		File:  file,
	}
	if m != nil {
		c.Vars = m.Vars
		c.Params = m.Params
		c.Site = m.Site
	}
	return c
}

// String renders the metadata in a form suitable for log lines and
// error messages.
func (m *EvalMeta) String() string {
	if m == nil {
		return "<nil meta>"
	}
	var b strings.Builder
	b.WriteString("shell=")
	b.WriteString(m.Shell)
	if m.ContentType != "" && m.ContentType != m.Shell {
		b.WriteString(" type=")
		b.WriteString(m.ContentType)
	}
	if m.File != "" {
		b.WriteString(" file=")
		b.WriteString(m.File)
	}
	return b.String()
}

// FileVar is the binding through which embedded code sees the file
// being evaluated.
const FileVar = "__FILE__"

// Bindings returns the variables to expose to embedded code: the Vars
// plus FileVar.  The returned map is a copy.
func (m *EvalMeta) Bindings() map[string]interface{} {
	bs := make(map[string]interface{}, len(m.Vars)+1)
	for k, v := range m.Vars {
		bs[k] = v
	}
	bs[FileVar] = m.File
	return bs
}
