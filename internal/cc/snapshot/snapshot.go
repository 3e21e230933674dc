// Copyright 2026 The ccpreprocess Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package snapshot is a host-side helper for building the read-only
// path→Document index that pp.Host.Snapshot looks up during #include
// resolution. It is deliberately independent of any particular build
// system's include-path resolution; it just stores whatever the host
// already resolved, plus glob-based recognition of "virtual" includes
// (angle-bracketed headers the host wants to synthesize or substitute
// rather than resolve to a real file on disk).
package snapshot

import (
	"io/fs"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cc-tools/ccpreprocess/internal/cc/pp"
)

// Document is a concrete pp.Document: a previously processed file's path,
// revision, resolved include edges and the macros it defines.
type Document struct {
	path             string
	revision         int
	resolvedIncludes []string
	definedMacros    []*pp.Macro
}

func (d *Document) Path() string               { return d.path }
func (d *Document) Revision() int              { return d.revision }
func (d *Document) ResolvedIncludes() []string { return append([]string(nil), d.resolvedIncludes...) }
func (d *Document) DefinedMacros() []*pp.Macro { return append([]*pp.Macro(nil), d.definedMacros...) }

// Snapshot is a concrete, read-only pp.Snapshot backed by an in-memory map.
// A Snapshot is safe for concurrent Lookup calls once built; RunMany (§11)
// relies on that to share one Snapshot across parallel translation-unit
// drivers.
type Snapshot struct {
	mu   sync.RWMutex
	docs map[string]*Document

	// virtualPatterns are doublestar glob patterns matched against
	// angle-bracketed #include paths to recognize host-synthesized
	// "virtual" includes that never correspond to a real file the lexer
	// needs to open, only to a set of macros the host wants visible.
	virtualPatterns []string
}

// New returns an empty Snapshot. virtualPatterns are doublestar patterns
// (e.g. "builtin/**" or "*.virtual.h") checked by IsVirtual.
func New(virtualPatterns ...string) *Snapshot {
	return &Snapshot{
		docs:            make(map[string]*Document),
		virtualPatterns: virtualPatterns,
	}
}

// Add registers (or replaces) the document for path.
func (s *Snapshot) Add(path string, revision int, resolvedIncludes []string, definedMacros []*pp.Macro) *Document {
	doc := &Document{
		path:             path,
		revision:         revision,
		resolvedIncludes: resolvedIncludes,
		definedMacros:    definedMacros,
	}
	s.mu.Lock()
	s.docs[path] = doc
	s.mu.Unlock()
	return doc
}

// Lookup implements pp.Snapshot.
func (s *Snapshot) Lookup(path string) (pp.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil, false
	}
	return doc, true
}

// IsVirtual reports whether path matches one of the Snapshot's configured
// virtual-include glob patterns. Malformed patterns never match rather
// than erroring, since this is a yes/no classification, not a lookup.
func (s *Snapshot) IsVirtual(path string) bool {
	for _, pattern := range s.virtualPatterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// DiscoverVirtualPaths walks fsys (typically os.DirFS(root)) and returns
// every path matching pattern, for a host that wants to seed a Snapshot's
// virtual headers from a directory tree rather than an explicit file list.
func DiscoverVirtualPaths(fsys fs.FS, pattern string) ([]string, error) {
	return doublestar.Glob(fsys, pattern)
}

// TransitiveMacros walks root's ResolvedIncludes transitively through snap,
// collecting every live macro defined anywhere in the closure, in
// discovery order, with each path visited at most once. It is the same
// walk that pp's seedTransitiveMacros performs internally for the fast
// driver (C7); pp does not call this function.
func TransitiveMacros(snap pp.Snapshot, root pp.Document) []*pp.Macro {
	visited := map[string]bool{root.Path(): true}
	queue := append([]string(nil), root.ResolvedIncludes()...)
	var macros []*pp.Macro
	macros = append(macros, root.DefinedMacros()...)

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if visited[path] {
			continue
		}
		visited[path] = true

		doc, ok := snap.Lookup(path)
		if !ok {
			continue
		}
		macros = append(macros, doc.DefinedMacros()...)
		for _, next := range doc.ResolvedIncludes() {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return macros
}
