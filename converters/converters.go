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

// Package converters provides the standard pre-converters and
// post-converters.
//
// Pre-converters rewrite a source before any interpreter sees it:
// aliases, includes and markdown.  Post-converters rewrite what the
// interpreters produced: minified scripts and stylesheets, and resized
// images.
package converters

import (
	"github.com/seashell-io/seashell/core"

	"go.uber.org/zap"
)

// Pre returns the standard pre-converters in dispatch order.  Includes
// are evaluated with the given Evaluator.
func Pre(ev Evaluator) []core.Converter {
	return []core.Converter{
		NewAliases(),
		NewIncludes(ev),
		NewMarkdown(),
	}
}

// Post returns the standard post-converters in dispatch order.
func Post(logger *zap.Logger) []core.Converter {
	return []core.Converter{
		NewMinify(),
		NewImage(logger),
	}
}
