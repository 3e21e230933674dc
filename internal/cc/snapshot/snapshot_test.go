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

package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cc-tools/ccpreprocess/internal/cc/pp"
)

func macro(name string) *pp.Macro {
	return &pp.Macro{Name: name, Body: []pp.PreprocessingToken{{Kind: pp.KindNumber, Text: "1"}}}
}

func TestSnapshotLookup(t *testing.T) {
	s := New()
	s.Add("a.h", 1, nil, []*pp.Macro{macro("A")})

	doc, ok := s.Lookup("a.h")
	require.True(t, ok)
	assert.Equal(t, "a.h", doc.Path())
	assert.Equal(t, 1, doc.Revision())

	_, ok = s.Lookup("missing.h")
	assert.False(t, ok)
}

func TestSnapshotIsVirtual(t *testing.T) {
	s := New("builtin/**", "*.virtual.h")
	assert.True(t, s.IsVirtual("builtin/stddef.h"))
	assert.True(t, s.IsVirtual("compat.virtual.h"))
	assert.False(t, s.IsVirtual("real/header.h"))
}

func TestTransitiveMacrosWalksClosure(t *testing.T) {
	s := New()
	s.Add("c.h", 1, nil, []*pp.Macro{macro("C")})
	s.Add("b.h", 1, []string{"c.h"}, []*pp.Macro{macro("B")})
	root := s.Add("a.h", 1, []string{"b.h"}, []*pp.Macro{macro("A")})

	macros := TransitiveMacros(s, root)
	var names []string
	for _, m := range macros {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, names)
}

func TestTransitiveMacrosHandlesCycles(t *testing.T) {
	s := New()
	s.Add("a.h", 1, []string{"b.h"}, []*pp.Macro{macro("A")})
	root := s.Add("b.h", 1, []string{"a.h"}, []*pp.Macro{macro("B")})

	macros := TransitiveMacros(s, root)
	assert.Len(t, macros, 2)
}

func TestTransitiveMacrosSkipsUnresolvedEdge(t *testing.T) {
	s := New()
	root := s.Add("a.h", 1, []string{"missing.h"}, []*pp.Macro{macro("A")})

	macros := TransitiveMacros(s, root)
	require.Len(t, macros, 1)
	assert.Equal(t, "A", macros[0].Name)
}
