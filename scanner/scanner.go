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

// Package scanner turns a page with embedded code markers into a
// single block of executable statements.
//
// Literal text becomes print-literal statements; text between the
// markers becomes either a statement (control flow, declarations,
// comments) or an implicit print of an expression.  So an author can
// write either
//
//	<% if (x) { %>yes<% } %>
//
// or
//
//	<% x + 1 %>
//
// without an explicit print call.  What the generated statements look
// like is up to a Dialect.
package scanner

import (
	"fmt"
	"strings"

	"github.com/seashell-io/seashell/core"
)

const (
	// MarkerStart opens an embedded statement.
	MarkerStart = "<%"

	// MarkerEnd closes an embedded statement.
	MarkerEnd = "%>"

	// Interpolation is the marker that some dialects' string
	// literals treat specially.  Literal text never interpolates.
	Interpolation = "$"
)

// Dialect renders fragments as statements of a particular language.
type Dialect interface {
	// Literal returns a statement that prints text verbatim.  The
	// text has already been through Unescape.
	Literal(text string) string

	// Print returns a statement that prints the value of expr.
	Print(expr string) string

	// Statement returns code as a statement.
	Statement(code string) string

	// IsStatement reports whether an embedded fragment is already
	// a statement rather than an expression to print.
	IsStatement(fragment string) bool
}

// Unescape replaces an escaped interpolation marker with the bare
// marker.  Dialects escape every marker afterwards, so literal text
// can never interpolate.
//
// The consequence is that a literal can't carry an escaped marker
// through to the output: `\$` comes out as `$`.
func Unescape(text string) string {
	return strings.ReplaceAll(text, `\`+Interpolation, Interpolation)
}

// Scan generates the executable source for src.
//
// If a start marker has no matching end marker, Scan returns a
// *core.ParseError.
func Scan(src string, d Dialect) (string, error) {
	var (
		out strings.Builder
		i   = 0
	)

	literal := func(text string) {
		if text == "" {
			return
		}
		out.WriteString(d.Literal(Unescape(text)))
	}

	for i < len(src) {
		start := strings.Index(src[i:], MarkerStart)
		if start < 0 {
			literal(src[i:])
			break
		}
		start += i
		literal(src[i:start])

		from := start + len(MarkerStart)
		end := strings.Index(src[from:], MarkerEnd)
		if end < 0 {
			return "", &core.ParseError{
				Marker: MarkerStart,
				Line:   strings.Count(out.String(), "\n") + 1,
			}
		}
		end += from

		fragment := src[from:end]
		switch {
		case strings.TrimSpace(fragment) == "":
			// Nothing to do.
		case d.IsStatement(fragment):
			out.WriteString(d.Statement(fragment))
		default:
			out.WriteString(d.Print(fragment))
		}

		i = end + len(MarkerEnd)
	}

	return out.String(), nil
}

// escapeControls escapes the control characters of text except
// newline and tab.  Both dialects accept the escapes in their string
// literals.
func escapeControls(text string) string {
	i := strings.IndexFunc(text, isEscapedControl)
	if i < 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text[:i])
	for _, r := range text[i:] {
		switch {
		case r == '\r':
			b.WriteString(`\r`)
		case isEscapedControl(r):
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isEscapedControl(r rune) bool {
	return (r < ' ' && r != '\n' && r != '\t') || r == 0x7f
}

// startsWithLineBreak reports whether a fragment begins on the line
// after its start marker.  Such fragments are code blocks, and
// dialects treat them as statements.
func startsWithLineBreak(fragment string) bool {
	return strings.HasPrefix(fragment, "\n") || strings.HasPrefix(fragment, "\r")
}

// leadingWord returns the identifier at the start of s.
func leadingWord(s string) string {
	for i, r := range s {
		if !(r == '_' || r == '$' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || i > 0 && '0' <= r && r <= '9') {
			return s[:i]
		}
	}
	return s
}

// startsWithAny reports whether the trimmed fragment starts with one
// of the given operators or with one of the given keywords as a whole
// word.
func startsWithAny(trimmed string, operators []string, keywords map[string]bool) bool {
	for _, op := range operators {
		if strings.HasPrefix(trimmed, op) {
			return true
		}
	}
	return keywords[leadingWord(trimmed)]
}
