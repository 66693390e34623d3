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

// Package interpreters gathers the standard interpreters and the
// engines they need.
package interpreters

import (
	"github.com/seashell-io/seashell/core"
	"github.com/seashell-io/seashell/interpreters/goja"
	"github.com/seashell-io/seashell/interpreters/noop"
	"github.com/seashell-io/seashell/interpreters/starlark"
)

// Standard returns the standard interpreters in dispatch order.
func Standard() []core.Interpreter {
	return []core.Interpreter{
		noop.NewInterpreter(),
		goja.NewTemplate(),
		goja.NewScript(),
		starlark.NewTemplate(),
		starlark.NewScript(),
	}
}

// Engines returns the engines that the Standard interpreters need.
func Engines() []core.Engine {
	return []core.Engine{
		goja.NewEngine(),
		starlark.NewEngine(),
	}
}

// Register adds the Standard interpreters to the given Registry.
func Register(r *core.Registry) *core.Registry {
	return r.AddInterpreter(Standard()...)
}
