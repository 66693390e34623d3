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

// Package site provides the configured sites a server serves.
//
// A Site is a directory of pages plus the settings the pipeline
// consults: where cache records go, which files are cached, the
// aliases, and per-extension shell types.
package site

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/seashell-io/seashell/core"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v2"
)

var (
	// ErrOutsideRoot occurs when a reference names a file outside
	// the site's root.
	ErrOutsideRoot = zerr.New("outside the site root")

	// ErrBadConfig occurs when a site's configuration is unusable.
	ErrBadConfig = zerr.New("bad site config")
)

// Config is a site's configuration.
type Config struct {
	// ID is unique across the sites of a server.
	ID string `yaml:"id" json:"id"`

	// Hosts are the request hosts that select this site.
	Hosts []string `yaml:"hosts,omitempty" json:"hosts,omitempty"`

	// Default makes this site the one for unknown hosts.
	Default bool `yaml:"default,omitempty" json:"default,omitempty"`

	// Root is the directory holding the site's pages.
	Root string `yaml:"root" json:"root"`

	// CacheDir is where file cache records go.  Empty means a
	// directory named after the ID under the system's temporary
	// directory.
	CacheDir string `yaml:"cache_dir,omitempty" json:"cacheDir,omitempty"`

	// CachePatterns are base-name substrings of cached files.
	CachePatterns []string `yaml:"cache_patterns,omitempty" json:"cachePatterns,omitempty"`

	// Aliases maps names to replacements for %name%.
	Aliases map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	// Shells maps file extensions (without the dot) to shell
	// types, overriding the defaults.
	Shells map[string]string `yaml:"shells,omitempty" json:"shells,omitempty"`
}

// Site implements core.Site and core.Detector.
type Site struct {
	cfg  Config
	root string
}

// New makes a Site.  Root becomes absolute.
func New(cfg Config) (*Site, error) {
	if cfg.ID == "" {
		return nil, zerr.Wrap(ErrBadConfig, "no id")
	}
	if cfg.Root == "" {
		return nil, zerr.With(zerr.Wrap(ErrBadConfig, "no root"), "site", cfg.ID)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "bad root"), "site", cfg.ID)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "seashell", cfg.ID)
	}
	shells := make(map[string]string, len(cfg.Shells))
	for ext, shell := range cfg.Shells {
		shells[strings.ToLower(strings.TrimPrefix(ext, "."))] = shell
	}
	cfg.Shells = shells
	return &Site{
		cfg:  cfg,
		root: root,
	}, nil
}

// Parse makes a Site from its YAML configuration.
func Parse(bs []byte) (*Site, error) {
	var cfg Config
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, zerr.Wrap(err, "site config parse failed")
	}
	return New(cfg)
}

func (s *Site) ID() string {
	return s.cfg.ID
}

// Root returns the absolute root directory.
func (s *Site) Root() string {
	return s.root
}

// Config returns the site's configuration.
func (s *Site) Config() Config {
	return s.cfg
}

func (s *Site) CacheDir() string {
	return s.cfg.CacheDir
}

func (s *Site) CachePatterns() []string {
	return s.cfg.CachePatterns
}

func (s *Site) Aliases() map[string]string {
	return s.cfg.Aliases
}

// Resolve turns a root-relative reference (with or without a leading
// slash) into a path under the root.
func (s *Site) Resolve(ref string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(ref, "/")))
	if rel == "." {
		return s.root, nil
	}
	if !filepath.IsLocal(rel) {
		return "", zerr.With(zerr.Wrap(ErrOutsideRoot, "resolve failed"), "ref", ref)
	}
	return filepath.Join(s.root, rel), nil
}

// Detect implements core.Detector using the site's Shells.
func (s *Site) Detect(path string) (string, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	shell, have := s.cfg.Shells[ext]
	if !have {
		return "", ""
	}
	// The content type is what the shell's own extension would
	// get.
	_, contentType := core.Detect(nil, "x."+shell)
	return shell, contentType
}

// File maps a request path to a file.  A directory maps to its first
// index file (see core.IndexExtensions).
func (s *Site) File(urlPath string) (string, error) {
	filename, err := s.Resolve(urlPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(filename)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return filename, nil
	}
	for _, ext := range core.IndexExtensions {
		index := filepath.Join(filename, "index."+ext)
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			return index, nil
		}
	}
	return "", &fs.PathError{Op: "index", Path: filename, Err: fs.ErrNotExist}
}

// Contains reports whether the path is under the site's root.
func (s *Site) Contains(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	return err == nil && filepath.IsLocal(rel)
}
