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

package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cc-tools/ccpreprocess/internal/cc/pp"
	"github.com/cc-tools/ccpreprocess/internal/cc/snapshot"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestStringListAccumulates(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("a"))
	require.NoError(t, l.Set("b"))
	assert.Equal(t, []string{"a", "b"}, l.values)
	assert.Equal(t, "a,b", l.String())
}

func TestPredefineFuncBindsDefines(t *testing.T) {
	seed := predefineFunc([]string{"FOO=1", "BAR"}, nil)
	env := pp.NewEnvironment()
	seed(env)

	foo, ok := env.Resolve("FOO")
	require.True(t, ok)
	require.Len(t, foo.Body, 1)
	assert.Equal(t, "1", foo.Body[0].Text)

	bar, ok := env.Resolve("BAR")
	require.True(t, ok)
	require.Len(t, bar.Body, 1)
	assert.Equal(t, "1", bar.Body[0].Text)
}

func TestSpellInsertsWhitespaceAndNewlines(t *testing.T) {
	toks := []pp.PreprocessingToken{
		{Kind: pp.KindIdentifier, Text: "int"},
		{Kind: pp.KindIdentifier, Text: "x", HasLeadingWhitespace: true},
		{Kind: pp.KindPunctuator, Text: ";"},
		{Kind: pp.KindIdentifier, Text: "y", AtNewline: true},
	}
	assert.Equal(t, "int x;\ny", spell(toks))
}

func TestFsHostResolvesGlobalFromSearchDirs(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "inc")
	require.NoError(t, os.Mkdir(inc, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inc, "a.h"), []byte("#define A 1\n"), 0o644))

	h := &fsHost{
		includeDirs: []string{inc},
		snap:        snapshot.New(),
		predefine:   func(*pp.Environment) {},
		visiting:    map[string]bool{},
		logger:      discardLogger(),
	}

	resolved, ok := h.resolve(dir, "a.h", pp.IncludeGlobal)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(inc, "a.h"), resolved)

	_, ok = h.resolve(dir, "missing.h", pp.IncludeGlobal)
	assert.False(t, ok)
}

func TestFsHostProcessRecordsSnapshotMacros(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.h"), []byte("#define A 7\n"), 0o644))
	mainPath := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(mainPath, []byte("#include \"a.h\"\nA\n"), 0o644))

	h := &fsHost{
		snap:      snapshot.New(),
		predefine: func(*pp.Environment) {},
		visiting:  map[string]bool{},
		logger:    discardLogger(),
	}

	result, err := h.process(mainPath)
	require.NoError(t, err)
	assert.Equal(t, "7", spell(result.Tokens))

	doc, ok := h.snap.Lookup(filepath.Join(dir, "a.h"))
	require.True(t, ok)
	names := map[string]bool{}
	for _, m := range doc.DefinedMacros() {
		names[m.Name] = true
	}
	assert.True(t, names["A"])
}
