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
	"strings"

	"github.com/seashell-io/seashell/core"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"go.trai.ch/zerr"
)

// MinifyTypes are the types the Minify converter handles.
var MinifyTypes = []string{"js", "javascript", "css"}

const (
	cssType = "text/css"
	jsType  = "application/javascript"
)

// Minify minifies scripts and stylesheets.
type Minify struct {
	types []string
	m     *minify.M
}

// NewMinify makes a Minify for MinifyTypes.
func NewMinify() *Minify {
	m := minify.New()
	m.AddFunc(cssType, css.Minify)
	m.AddFunc(jsType, js.Minify)
	return &Minify{
		types: MinifyTypes,
		m:     m,
	}
}

func (c *Minify) Types() []string {
	return c.types
}

// mediaType picks the minifier.  "js" also matches "application/json",
// which isn't ours.
func mediaType(meta *core.EvalMeta) string {
	shell := strings.ToLower(meta.Shell)
	ct := strings.ToLower(meta.ContentType)
	switch {
	case shell == "css" || strings.Contains(ct, "css"):
		return cssType
	case shell == "js" || shell == "javascript" || strings.Contains(ct, "javascript"):
		return jsType
	}
	return ""
}

func (c *Minify) Convert(ctx context.Context, meta *core.EvalMeta, src []byte) ([]byte, error) {
	mt := mediaType(meta)
	if mt == "" {
		return nil, core.ErrSkip
	}
	out, err := c.m.Bytes(mt, src)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "minify failed"), "type", mt)
	}
	return out, nil
}
