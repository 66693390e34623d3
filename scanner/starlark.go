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

package scanner

import (
	"strings"
	"unicode/utf8"

	"go.starlark.net/syntax"
)

// Starlark is the Dialect for embedded Starlark.  Literal text becomes
// a triple-quoted string; the single-quote form is used when the text
// ends with a double quote.  Control characters other than newline and
// tab are escaped.  Literal text that isn't valid UTF-8 becomes a bytes
// literal, which print() writes as raw bytes.
//
// Starlark blocks are delimited by indentation, so compound
// statements in templates must fit on one line:
//
//	<% for x in items: print(x) %>
type Starlark struct{}

var (
	starOperators = []string{"#"}

	starKeywords = map[string]bool{
		"print":    true,
		"def":      true,
		"if":       true,
		"elif":     true,
		"else":     true,
		"for":      true,
		"load":     true,
		"pass":     true,
		"return":   true,
		"break":    true,
		"continue": true,
	}
)

func (Starlark) Literal(text string) string {
	if !utf8.ValidString(text) {
		return "print(" + syntax.Quote(text, true) + ")\n"
	}
	quotes := `"""`
	if strings.HasSuffix(text, `"`) {
		quotes = `'''`
	}
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, quotes, `\`+strings.Join(strings.Split(quotes, ""), `\`))
	return "print(" + quotes + escapeControls(text) + quotes + ")\n"
}

// Print ends the expression with a line break so that a trailing
// comment can't swallow the closing parenthesis.
func (Starlark) Print(expr string) string {
	return "print(" + strings.TrimSpace(expr) + "\n)\n"
}

func (Starlark) Statement(code string) string {
	return dedent(code) + "\n"
}

func (Starlark) IsStatement(fragment string) bool {
	if startsWithLineBreak(fragment) {
		return true
	}
	trimmed := strings.TrimSpace(fragment)
	if startsWithAny(trimmed, starOperators, starKeywords) {
		return true
	}
	return isAssignment(trimmed)
}

// isAssignment reports whether s starts with "name =" or an augmented
// assignment such as "name +=".
func isAssignment(s string) bool {
	w := leadingWord(s)
	if w == "" {
		return false
	}
	rest := strings.TrimLeft(s[len(w):], " \t")
	if strings.HasPrefix(rest, "=") {
		return !strings.HasPrefix(rest, "==")
	}
	for _, op := range []string{"+=", "-=", "*=", "/=", "//=", "%=", "|=", "&=", "^="} {
		if strings.HasPrefix(rest, op) {
			return true
		}
	}
	return false
}

// dedent removes blank leading lines and the indentation of the first
// non-blank line from every line.
func dedent(code string) string {
	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return ""
	}
	first := lines[0]
	indent := first[:len(first)-len(strings.TrimLeft(first, " \t"))]
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}
