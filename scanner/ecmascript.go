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
	"strconv"
	"strings"
	"unicode/utf8"
)

// ECMAScript is the Dialect for embedded JavaScript.  Literal text
// becomes a template literal passed to print(), with backslashes,
// backquotes, interpolation markers and control characters other than
// newline and tab escaped.  A template literal would turn a carriage
// return into a newline.
//
// Literal text that isn't valid UTF-8 can't be an ECMAScript string, so
// it becomes a Uint8Array, which print() writes as raw bytes.
type ECMAScript struct{}

var (
	jsOperators = []string{"}", "//", "/*", ";"}

	jsKeywords = map[string]bool{
		"print":    true,
		"println":  true,
		"echo":     true,
		"var":      true,
		"let":      true,
		"const":    true,
		"function": true,
		"if":       true,
		"else":     true,
		"for":      true,
		"while":    true,
		"do":       true,
		"switch":   true,
		"case":     true,
		"default":  true,
		"break":    true,
		"continue": true,
		"return":   true,
		"try":      true,
		"catch":    true,
		"finally":  true,
		"throw":    true,
		"import":   true,
	}

	jsEscaper = strings.NewReplacer(
		`\`, `\\`,
		"`", "\\`",
		Interpolation, `\`+Interpolation,
	)
)

func (ECMAScript) Literal(text string) string {
	if !utf8.ValidString(text) {
		var b strings.Builder
		b.WriteString("print(new Uint8Array([")
		for i := 0; i < len(text); i++ {
			if 0 < i {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(text[i])))
		}
		b.WriteString("]));")
		return b.String()
	}
	return "print(`" + escapeControls(jsEscaper.Replace(text)) + "`);"
}

// Print ends the expression with a line break so that a trailing line
// comment can't swallow the closing parenthesis.
func (ECMAScript) Print(expr string) string {
	expr = strings.TrimRight(strings.TrimSpace(expr), "; \t\r\n")
	return "print(" + expr + "\n);"
}

// Statement puts code on its own line so that a line comment can't
// swallow whatever follows.
func (ECMAScript) Statement(code string) string {
	return code + "\n"
}

func (ECMAScript) IsStatement(fragment string) bool {
	if startsWithLineBreak(fragment) {
		return true
	}
	return startsWithAny(strings.TrimSpace(fragment), jsOperators, jsKeywords)
}
