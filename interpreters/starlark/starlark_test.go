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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seashell-io/seashell/core"

	"go.starlark.net/starlark"
)

func exec(t *testing.T, ctx context.Context, sh core.Shell, code string, vars map[string]interface{}) (string, error) {
	p, err := sh.Compile(ctx, "test.star", code)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, err = sh.Exec(ctx, p, vars, &out)
	return out.String(), err
}

func TestShellPrint(t *testing.T) {
	sh := NewShell(nil)
	out, err := exec(t, context.Background(), sh, `print("chips", 1+1, None, [1], True)`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "chips2[1]True" {
		t.Fatalf("didn't want %q", out)
	}
}

func TestShellPrintBytes(t *testing.T) {
	sh := NewShell(nil)
	out, err := exec(t, context.Background(), sh, `print(b"h\xffi", "!")`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "h\xffi!" {
		t.Fatalf("didn't want %q", out)
	}
}

func TestShellVars(t *testing.T) {
	sh := NewShell(nil)
	vars := map[string]interface{}{
		"who":   "homer",
		"n":     41,
		"kids":  []string{"bart", "lisa"},
		"house": map[string]interface{}{"street": "Evergreen", "number": int64(742)},
	}
	out, err := exec(t, context.Background(), sh, `print(who, n+1, len(kids), house["number"])`, vars)
	if err != nil {
		t.Fatal(err)
	}
	if out != "homer422742" {
		t.Fatalf("didn't want %q", out)
	}

	if _, err = exec(t, context.Background(), sh, `print(who)`, nil); err == nil {
		t.Fatal("vars outlived the execution")
	}
}

func TestShellPredeclared(t *testing.T) {
	e := NewEngine()
	e.Predeclared = starlark.StringDict{
		"town": starlark.String("Springfield"),
	}
	sh, err := e.NewShell()
	if err != nil {
		t.Fatal(err)
	}
	out, err := exec(t, context.Background(), sh, `print(town)`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Springfield" {
		t.Fatalf("didn't want %q", out)
	}
}

func TestShellTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sh := NewShell(nil)
	_, err := exec(t, ctx, sh, "while True:\n    pass\n", nil)
	if !errors.Is(err, Interrupted) {
		t.Fatalf("surprised by %v", err)
	}

	out, err := exec(t, context.Background(), sh, `print("ok")`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok" {
		t.Fatalf("didn't want %q", out)
	}
}

func TestShellErrors(t *testing.T) {
	sh := NewShell(nil)
	if _, err := sh.Compile(context.Background(), "bad.star", "if"); err == nil {
		t.Fatal("didn't protest")
	}
	if _, err := exec(t, context.Background(), sh, `print(1 // 0)`, nil); err == nil {
		t.Fatal("didn't protest")
	}
	if _, err := sh.Exec(context.Background(), "nope", nil, &bytes.Buffer{}); !errors.Is(err, ErrBadProgram) {
		t.Fatalf("surprised by %v", err)
	}
	if _, err := exec(t, context.Background(), sh, `print(1)`, map[string]interface{}{"ch": make(chan int)}); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestToValue(t *testing.T) {
	tests := []struct {
		x    interface{}
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{"s", `"s"`},
		{3, "3"},
		{uint64(4), "4"},
		{1.5, "1.5"},
		{[]interface{}{1, "a"}, `[1, "a"]`},
		{map[string]string{"b": "2", "a": "1"}, `{"a": "1", "b": "2"}`},
		{time.Duration(0), `"0s"`},
	}
	for _, test := range tests {
		v, err := ToValue(test.x)
		if err != nil {
			t.Fatalf("%#v: %s", test.x, err)
		}
		if got := v.String(); got != test.want {
			t.Fatalf("%#v: got %s want %s", test.x, got, test.want)
		}
	}
}

func interpret(t *testing.T, i core.Interpreter, meta *core.EvalMeta, src string) (string, error) {
	sh, err := NewEngine().NewShell()
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err = i.Interpret(context.Background(), meta, []byte(src), sh, &out)
	return out.String(), err
}

func TestTemplate(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"<% 1 + 1 %>", "2"},
		{"a <% 2 %> b", "a 2 b"},
		{"cost: $5", "cost: $5"},
		{`say "hi"`, `say "hi"`},
		{"<% x = 3 %><% x * 2 %>", "6"},
		{"<% for i in range(3): print('[', i, ']') %>", "[0][1][2]"},
		{"<% who %>", "marge"},
		{"<% __FILE__ %>", "index.stpl"},
		{"<% None %>|", "|"},
		{"<% who # the name %>", "marge"},
		{"a\r\nb\x01", "a\r\nb\x01"},
		{"a\xffb<% 1 %>", "a\xffb1"},
	}
	for _, test := range tests {
		meta := core.NewEvalMeta("stpl")
		meta.File = "index.stpl"
		meta.Vars = map[string]interface{}{"who": "marge"}
		got, err := interpret(t, NewTemplate(), meta, test.src)
		if err != nil {
			t.Fatalf("%q: %s", test.src, err)
		}
		if got != test.want {
			t.Fatalf("%q: got %q want %q", test.src, got, test.want)
		}
	}
}

func TestTemplateUnterminated(t *testing.T) {
	_, err := interpret(t, NewTemplate(), core.NewEvalMeta("stpl"), "<% 1")
	var pe *core.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("surprised by %#v", err)
	}
}

func TestScript(t *testing.T) {
	meta := core.NewEvalMeta("star")
	got, err := interpret(t, NewScript(), meta, "def f(x):\n    return x * 2\nprint(f(21))\n")
	if err != nil {
		t.Fatal(err)
	}
	if got != "42" {
		t.Fatalf("didn't want %q", got)
	}
}
