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

// Macro is one #define binding. Formals is empty for an object-like macro;
// FunctionLike is independent of len(Formals) because `#define F() x` is
// function-like with zero formals, which is distinct from an object-like
// macro.
type Macro struct {
	Name         string
	Formals      []string
	FunctionLike bool
	Variadic     bool
	Body         []PreprocessingToken

	// DefinitionText is the verbatim byte range of the body, kept for
	// display/diagnostics independent of the parsed Body tokens.
	DefinitionText string

	FilePath     string
	FileRevision int
	Line         int
	ByteOffset   int
	UTF16Offset  int
	Length       int

	// Hidden marks a #undef sentinel: the name remains in the environment
	// for tooling visibility but Environment.Resolve skips it.
	Hidden bool
}

// selfReferential reports whether the macro's entire body is a single token
// equal to its own name, e.g. `#define X X`. Expanding such a macro can
// never do anything but reproduce X unchanged, so the driver short-circuits
// it instead of pushing a one-token blocking frame (see SPEC_FULL §12).
func (m *Macro) selfReferential() bool {
	return !m.FunctionLike && len(m.Body) == 1 && m.Body[0].Kind == KindIdentifier && m.Body[0].Text == m.Name
}
