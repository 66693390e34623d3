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

import (
	"mime"
	"path/filepath"
	"strings"
)

// Shells maps file extensions (without the dot) to shell types.  An
// extension that isn't here is its own shell type.
var Shells = map[string]string{
	"html":     "html",
	"htm":      "html",
	"txt":      "text",
	"embedded": "embedded",
	"gsp":      "embedded",
	"jsp":      "embedded",
	"chi":      "embedded",
	"ssjs":     "ssjs",
	"star":     "star",
	"stpl":     "stpl",
	"md":       "md",
	"markdown": "md",
}

// IndexExtensions are the extensions tried, in order, when a
// directory is requested.
var IndexExtensions = []string{"html", "htm", "ssjs", "star", "gsp", "jsp", "chi", "stpl", "md"}

// Detector is implemented by a Site that wants to choose shell types
// itself.
type Detector interface {
	// Detect returns the shell type and content type for the
	// file.  An empty shell type means the site has no opinion.
	Detect(path string) (shell, contentType string)
}

// Detect returns the shell type and content type of the file at the
// given path.  The site, if it's a Detector, gets the first say.
// Otherwise the shell type comes from Shells and the content type
// from the extension's MIME type.
func Detect(site Site, path string) (shell, contentType string) {
	if d, is := site.(Detector); is {
		if shell, contentType = d.Detect(path); shell != "" {
			return shell, contentType
		}
	}

	ext := filepath.Ext(path)
	name := strings.ToLower(strings.TrimPrefix(ext, "."))
	shell, have := Shells[name]
	if !have {
		shell = name
	}
	if shell == "" {
		shell = "text"
	}

	switch shell {
	case "html", "embedded", "md", "stpl":
		contentType = "text/html"
	case "ssjs", "star", "text":
		contentType = "text/plain"
	default:
		if contentType = mime.TypeByExtension(ext); contentType == "" {
			contentType = shell
		}
	}
	return shell, contentType
}
