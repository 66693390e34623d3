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

package site

import (
	"net"
	"os"
	"sort"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v2"
)

// Sites are the sites of a server, indexed by ID and by host.
type Sites struct {
	byID   map[string]*Site
	byHost map[string]*Site
	def    *Site
}

// NewSites indexes the given sites.  The default site is the one
// marked Default, or else the first one.
func NewSites(ss ...*Site) (*Sites, error) {
	acc := &Sites{
		byID:   make(map[string]*Site, len(ss)),
		byHost: make(map[string]*Site),
	}
	for _, s := range ss {
		if _, have := acc.byID[s.ID()]; have {
			return nil, zerr.With(zerr.Wrap(ErrBadConfig, "duplicate site"), "site", s.ID())
		}
		acc.byID[s.ID()] = s
		for _, h := range s.cfg.Hosts {
			acc.byHost[strings.ToLower(h)] = s
		}
		if acc.def == nil || (s.cfg.Default && !acc.def.cfg.Default) {
			acc.def = s
		}
	}
	return acc, nil
}

// FromConfigs makes Sites from configurations.
func FromConfigs(cfgs []Config) (*Sites, error) {
	ss := make([]*Site, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		ss = append(ss, s)
	}
	return NewSites(ss...)
}

// LoadFile reads a YAML list of site configurations.
func LoadFile(filename string) (*Sites, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "sites read failed"), "file", filename)
	}
	var cfgs []Config
	if err := yaml.Unmarshal(bs, &cfgs); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "sites parse failed"), "file", filename)
	}
	return FromConfigs(cfgs)
}

// Get returns the site with the given ID, or nil.
func (ss *Sites) Get(id string) *Site {
	return ss.byID[id]
}

// Default returns the default site, which is nil only if there are
// no sites.
func (ss *Sites) Default() *Site {
	return ss.def
}

// Lookup returns the site for a request host (with or without a
// port), falling back to the default site.
func (ss *Sites) Lookup(host string) *Site {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if s, have := ss.byHost[strings.ToLower(host)]; have {
		return s
	}
	return ss.def
}

// All returns the sites ordered by ID.
func (ss *Sites) All() []*Site {
	acc := make([]*Site, 0, len(ss.byID))
	for _, s := range ss.byID {
		acc = append(acc, s)
	}
	sort.Slice(acc, func(i, j int) bool {
		return acc[i].ID() < acc[j].ID()
	})
	return acc
}

// Owner returns the site whose root contains the path, or nil.
func (ss *Sites) Owner(path string) *Site {
	for _, s := range ss.All() {
		if s.Contains(path) {
			return s
		}
	}
	return nil
}
