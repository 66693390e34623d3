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
	"context"
	"regexp"

	"github.com/seashell-io/seashell/core"

	"go.trai.ch/zerr"
)

// MaxIncludeDepth is how deeply includes can nest.
const MaxIncludeDepth = 16

// IncludeTypes are the types the Includes converter handles.
var IncludeTypes = []string{"html", "htm", "text", "embedded", "gsp", "jsp", "chi", "stpl", "md", "markdown"}

// IncludePattern matches an include directive.  The first group is
// the reference that the site resolves.
var IncludePattern = regexp.MustCompile(`<!--\s*include\(\s*([^)]*?)\s*\)\s*-->`)

// Evaluator evaluates an included file.
type Evaluator interface {
	// Include evaluates the file at path on behalf of the parent
	// evaluation.
	Include(ctx context.Context, parent *core.EvalMeta, path string) ([]byte, error)
}

// Includes replaces each include directive with the evaluated output
// of the file it references.  Included files can include other files.
type Includes struct {
	types []string
	ev    Evaluator
}

// NewIncludes makes an Includes that evaluates with the given
// Evaluator.
func NewIncludes(ev Evaluator) *Includes {
	return &Includes{
		types: IncludeTypes,
		ev:    ev,
	}
}

func (c *Includes) Types() []string {
	return c.types
}

type depthKey struct{}

// Depth returns the include depth recorded in the context.
func Depth(ctx context.Context) int {
	n, _ := ctx.Value(depthKey{}).(int)
	return n
}

func (c *Includes) Convert(ctx context.Context, meta *core.EvalMeta, src []byte) ([]byte, error) {
	if meta.Site == nil {
		return nil, core.ErrSkip
	}
	matches := IncludePattern.FindAllSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return nil, core.ErrSkip
	}

	depth := Depth(ctx) + 1
	if MaxIncludeDepth < depth {
		return nil, zerr.With(zerr.Wrap(core.ErrIncludeDepth, "include failed"), "file", meta.File)
	}
	ctx = context.WithValue(ctx, depthKey{}, depth)

	out := make([]byte, 0, len(src))
	last := 0
	for _, m := range matches {
		ref := string(src[m[2]:m[3]])
		path, err := meta.Site.Resolve(ref)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "include failed"), "ref", ref)
		}
		bs, err := c.ev.Include(ctx, meta, path)
		if err != nil {
			return nil, err
		}
		out = append(out, src[last:m[0]]...)
		out = append(out, bs...)
		last = m[1]
	}
	out = append(out, src[last:]...)

	return out, nil
}
