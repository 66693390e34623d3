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

package core

// Site is the slice of a site's configuration that the pipeline
// consults.  A nil Site is allowed everywhere: it disables caching,
// aliases and includes.
type Site interface {
	// ID is unique across the sites of a server.
	ID() string

	// CacheDir is the directory holding this site's cache
	// records.
	CacheDir() string

	// CachePatterns are filename substrings.  A file whose base
	// name contains one of them is eligible for caching.
	CachePatterns() []string

	// Aliases maps names to replacements for %name% references.
	Aliases() map[string]string

	// Resolve turns an include reference into a file path.
	Resolve(ref string) (string, error)
}
