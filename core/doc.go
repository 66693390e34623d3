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

// Package core provides the shared vocabulary of the page evaluation
// pipeline: the per-evaluation metadata (EvalMeta), the three kinds of
// stages (pre-converters, interpreters and post-converters), the
// Registry that holds them in registration order, the Engine/Shell
// capability used to compile and run embedded code, and the error
// taxonomy.
//
// A page is a source file plus a shell type.  The shell type (a short
// tag such as "html", "embedded" or "md") selects which stages apply.
// Stages never decide routing; they only say whether they handle a
// given type token.
//
// Nothing in this package does any IO.  Sites, caches and pools live
// in their own packages and are composed by package pipeline.
package core
