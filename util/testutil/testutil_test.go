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

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFiles(t *testing.T) {
	root := Site(t, map[string]string{
		"index.gsp":       "<% 1 %>",
		"bart/index.html": "shorts",
	})
	bs, err := os.ReadFile(filepath.Join(root, "bart", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != "shorts" {
		t.Fatalf("got %q", bs)
	}
}

func TestJS(t *testing.T) {
	type Event struct {
		ID    string
		Bytes int
	}
	tests := []struct {
		arg  interface{}
		want string
	}{
		{Event{"one", 3}, `{"ID":"one","Bytes":3}`},
		{nil, `null`},
		{func() {}, "(func())"},
	}
	for _, test := range tests {
		got := JS(test.arg)
		if test.want[0] == '(' {
			if got[0] != '(' {
				t.Fatalf("got %q", got)
			}
			continue
		}
		if got != test.want {
			t.Fatalf("got %q want %q", got, test.want)
		}
	}
}

func TestObject(t *testing.T) {
	m := Object(t, []byte(`{"id":"one","outcome":"cached"}`))
	if m["outcome"] != "cached" {
		t.Fatalf("got %#v", m)
	}
}
