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

package converters

import (
	"bytes"
	"context"
	"sort"

	"github.com/seashell-io/seashell/core"
)

// Aliases replaces each %name% with the site's alias for name.
type Aliases struct {
	types []string
}

// NewAliases makes an Aliases that applies to everything.
func NewAliases() *Aliases {
	return &Aliases{
		types: []string{core.Wildcard},
	}
}

func (c *Aliases) Types() []string {
	return c.types
}

func (c *Aliases) Convert(ctx context.Context, meta *core.EvalMeta, src []byte) ([]byte, error) {
	if meta.Site == nil {
		return nil, core.ErrSkip
	}
	aliases := meta.Site.Aliases()
	if len(aliases) == 0 || bytes.IndexByte(src, '%') < 0 {
		return nil, core.ErrSkip
	}

	// Sorted so that overlapping aliases always resolve the same
	// way.
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	out := src
	for _, name := range names {
		out = bytes.ReplaceAll(out, []byte("%"+name+"%"), []byte(aliases[name]))
	}
	if bytes.Equal(out, src) {
		return nil, core.ErrSkip
	}
	return out, nil
}
