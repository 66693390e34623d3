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

// Package seashell evaluates pages that carry embedded server-side code.
//
// A page goes through a pipeline: pre-converters rewrite the source,
// interpreters run the code between "<%" and "%>" markers in pooled
// execution contexts, and post-converters rewrite the output.  Results
// can be cached per site.
//
// The pipeline is in package 'pipeline', the stage contracts are in
// 'core', and the server is in cmd/seashell.
package seashell
