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

	"github.com/seashell-io/seashell/core"

	md "github.com/russross/blackfriday/v2"
)

// MarkdownTypes are the types the Markdown converter handles.
var MarkdownTypes = []string{"md", "markdown"}

// Markdown renders markdown as HTML.
type Markdown struct {
	types []string
}

// NewMarkdown makes a Markdown for MarkdownTypes.
func NewMarkdown() *Markdown {
	return &Markdown{
		types: MarkdownTypes,
	}
}

func (c *Markdown) Types() []string {
	return c.types
}

// Convert also sets the content type to text/html.
func (c *Markdown) Convert(ctx context.Context, meta *core.EvalMeta, src []byte) ([]byte, error) {
	out := md.Run(src, md.WithExtensions(md.CommonExtensions))
	meta.ContentType = "text/html"
	return out, nil
}
