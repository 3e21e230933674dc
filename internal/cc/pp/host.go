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

package pp

import "github.com/cc-tools/ccpreprocess/internal/cc/lexer"

// TokenSource is the "external→C1" lexer contract from §6: given a mode
// switch, produce one token on demand. *lexer.Lexer satisfies this
// directly; a host may substitute any other implementation (e.g. one that
// replays tokens from a cache).
type TokenSource interface {
	NextToken() lexer.Token
	SetAngleStringMode(on bool)
	Position() lexer.Cursor
}

// Document is one entry of a host-owned Snapshot: a previously processed
// file, exposing just enough for C7 to pre-seed an Environment from it.
type Document interface {
	Path() string
	Revision() int
	ResolvedIncludes() []string
	DefinedMacros() []*Macro
}

// Snapshot is the host→C7 lookup from file path to Document (§6).
type Snapshot interface {
	Lookup(path string) (Document, bool)
}

// IncludeRequest is the argument bundle passed to a SourceNeededFunc,
// corresponding to source_needed(line, path, mode, initial_includes) in
// §6, plus the SingleInclusion flag SPEC_FULL §12 adds for #import.
type IncludeRequest struct {
	Line            int
	Path            string
	Mode            IncludeMode
	SingleInclusion bool
}

// SourceNeededFunc is the C6→host include callback. The host resolves the
// path and, by some point before the next call for the same file, makes
// the resolved document's macros available through the Snapshot.
type SourceNeededFunc func(req IncludeRequest)

// Host bundles every external collaborator the driver calls out to,
// outside of the TokenSource it pulls tokens from.
type Host struct {
	Snapshot     Snapshot
	SourceNeeded SourceNeededFunc
}
