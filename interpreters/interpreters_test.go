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

package interpreters

import (
	"testing"

	"github.com/seashell-io/seashell/core"
)

func TestStandardEngines(t *testing.T) {
	engines := make(map[string]bool)
	for _, e := range Engines() {
		engines[e.Name()] = true
	}
	for _, i := range Standard() {
		if name := i.Engine(); name != "" && !engines[name] {
			t.Fatalf("%T needs missing engine %s", i, name)
		}
	}
}

func TestRegister(t *testing.T) {
	r := Register(core.NewRegistry())
	for _, shell := range []string{"html", "gsp", "jsp", "chi", "embedded", "ssjs", "stpl", "star"} {
		if got := r.Interpreters(core.NewEvalMeta(shell)); len(got) != 1 {
			t.Fatalf("%s: %d interpreters", shell, len(got))
		}
	}
	if got := r.Interpreters(core.NewEvalMeta("png")); len(got) != 0 {
		t.Fatalf("png: %d interpreters", len(got))
	}
}
