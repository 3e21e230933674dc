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

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cc-tools/ccpreprocess/internal/cc/lexer"
)

// spell reconstructs toks as a plain string, a space between any two
// tokens where the second has leading whitespace, for test assertions.
func spell(toks []PreprocessingToken) string {
	var b strings.Builder
	for i, t := range toks {
		if t.Kind == KindSentinel {
			continue
		}
		if i > 0 && (t.HasLeadingWhitespace || t.AtNewline) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// squash strips all whitespace, for assertions on macro-substituted output
// where exact inter-token spacing is an approximation of the call site's
// and the body's spacing and not itself part of what the test means to
// verify.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func runSource(t *testing.T, src string, cfg RunConfig) Result {
	t.Helper()
	cfg.BuildTimestamp = time.Date(2026, 3, 4, 15, 4, 5, 0, time.UTC)
	src_ := &SourceBuffer{Path: "test.c", Bytes: []byte(src)}
	lx := lexer.NewLexer([]byte(src), lexer.Mode{CommentTokens: cfg.KeepComments})
	d := NewDriver(cfg, Host{}, NewEnvironment(), src_, lx)
	return d.Run()
}

func defaultCfg() RunConfig { return RunConfig{ExpandFunctionLikeMacros: true} }

func TestObjectLikeMacroExpansion(t *testing.T) {
	res := runSource(t, "#define FOO 42\nFOO\n", defaultCfg())
	assert.Equal(t, "42", spell(res.Tokens))
}

func TestFunctionLikeMacroExpansion(t *testing.T) {
	res := runSource(t, "#define ADD(a, b) ((a) + (b))\nADD(1, 2)\n", defaultCfg())
	assert.Equal(t, "((1)+(2))", squash(spell(res.Tokens)))
}

func TestFunctionLikeMacroNotCalledPassesThrough(t *testing.T) {
	res := runSource(t, "#define ADD(a, b) ((a) + (b))\nADD\n", defaultCfg())
	assert.Equal(t, "ADD", spell(res.Tokens))
}

func TestRescanPicksUpFurtherExpansion(t *testing.T) {
	res := runSource(t, "#define A B\n#define B 7\nA\n", defaultCfg())
	assert.Equal(t, "7", spell(res.Tokens))
}

func TestSelfReferentialMacroDoesNotLoop(t *testing.T) {
	res := runSource(t, "#define X X\nX\n", defaultCfg())
	assert.Equal(t, "X", spell(res.Tokens))
}

func TestIndirectSelfReferenceBlocksOnRescan(t *testing.T) {
	res := runSource(t, "#define A B\n#define B A\nA\n", defaultCfg())
	// A -> B -> A; the second A is blocked mid-rescan and emitted literally.
	assert.Equal(t, "A", spell(res.Tokens))
}

func TestStringizeOperator(t *testing.T) {
	res := runSource(t, "#define STR(x) #x\nSTR(hello world)\n", defaultCfg())
	assert.Equal(t, `"hello world"`, spell(res.Tokens))
}

func TestTokenPasteOperator(t *testing.T) {
	res := runSource(t, "#define CAT(a, b) a##b\nCAT(foo, bar)\n", defaultCfg())
	assert.Equal(t, "foobar", spell(res.Tokens))
}

func TestTokenPasteChain(t *testing.T) {
	res := runSource(t, "#define CAT3(a, b, c) a##b##c\nCAT3(x, y, z)\n", defaultCfg())
	assert.Equal(t, "xyz", spell(res.Tokens))
}

func TestVariadicMacroCollectsTail(t *testing.T) {
	res := runSource(t, "#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)\nLOG(\"%d %d\", 1, 2)\n", defaultCfg())
	assert.Equal(t, squash(`printf("%d %d", 1, 2)`), squash(spell(res.Tokens)))
}

func TestGnuNamedVariadicMacro(t *testing.T) {
	res := runSource(t, "#define LOG(fmt, args...) printf(fmt, args)\nLOG(\"%d\", 1)\n", defaultCfg())
	assert.Equal(t, squash(`printf("%d", 1)`), squash(spell(res.Tokens)))
}

func TestConditionalSkipsFalseBranch(t *testing.T) {
	res := runSource(t, "#if 0\nSKIPPED\n#else\nKEPT\n#endif\n", defaultCfg())
	assert.Equal(t, "KEPT", spell(res.Tokens))
}

func TestConditionalElifChain(t *testing.T) {
	src := "#define V 2\n#if V == 1\nONE\n#elif V == 2\nTWO\n#else\nOTHER\n#endif\n"
	res := runSource(t, src, defaultCfg())
	assert.Equal(t, "TWO", spell(res.Tokens))
}

func TestIfdefIfndef(t *testing.T) {
	src := "#define FOO\n#ifdef FOO\nA\n#endif\n#ifndef FOO\nB\n#else\nC\n#endif\n"
	res := runSource(t, src, defaultCfg())
	assert.Equal(t, "A C", spell(res.Tokens))
}

func TestDefinedOperatorInIf(t *testing.T) {
	src := "#define FOO\n#if defined(FOO) && !defined(BAR)\nYES\n#endif\n"
	res := runSource(t, src, defaultCfg())
	assert.Equal(t, "YES", spell(res.Tokens))
}

func TestUndefRemovesBinding(t *testing.T) {
	res := runSource(t, "#define FOO 1\n#undef FOO\nFOO\n", defaultCfg())
	assert.Equal(t, "FOO", spell(res.Tokens))
}

func TestBuiltinLineAndFile(t *testing.T) {
	res := runSource(t, "__LINE__\n__FILE__\n", defaultCfg())
	assert.Equal(t, `1 "test.c"`, spell(res.Tokens))
}

func TestBuiltinDateAndTime(t *testing.T) {
	res := runSource(t, "__DATE__ __TIME__\n", defaultCfg())
	assert.Equal(t, `"Mar  4 2026" "15:04:05"`, spell(res.Tokens))
}

func TestIncludeGuardDetected(t *testing.T) {
	src := "#ifndef FOO_H\n#define FOO_H\nint x;\n#endif\n"
	src_ := &SourceBuffer{Path: "foo.h", Bytes: []byte(src)}
	lx := lexer.NewLexer([]byte(src), lexer.Mode{})
	d := NewDriver(defaultCfg(), Host{}, NewEnvironment(), src_, lx)
	d.Run()
	name, ok := d.GuardResult()
	require.True(t, ok)
	assert.Equal(t, "FOO_H", name)
}

func TestIncludeGuardDetectedWithNestedConditionalBody(t *testing.T) {
	src := "#ifndef FOO_H\n#define FOO_H\n#ifdef __cplusplus\nextern \"C\" {\n#endif\nint x;\n#ifdef __cplusplus\n}\n#endif\n#endif\n"
	src_ := &SourceBuffer{Path: "foo.h", Bytes: []byte(src)}
	lx := lexer.NewLexer([]byte(src), lexer.Mode{})
	d := NewDriver(defaultCfg(), Host{}, NewEnvironment(), src_, lx)
	d.Run()
	name, ok := d.GuardResult()
	require.True(t, ok)
	assert.Equal(t, "FOO_H", name)
}

func TestIncludeGuardNotDetectedWhenContentPrecedesIfndef(t *testing.T) {
	src := "int y;\n#ifndef FOO_H\n#define FOO_H\nint x;\n#endif\n"
	src_ := &SourceBuffer{Path: "foo.h", Bytes: []byte(src)}
	lx := lexer.NewLexer([]byte(src), lexer.Mode{})
	d := NewDriver(defaultCfg(), Host{}, NewEnvironment(), src_, lx)
	d.Run()
	_, ok := d.GuardResult()
	assert.False(t, ok)
}

func TestExpansionMarkersBracketReplacement(t *testing.T) {
	cfg := defaultCfg()
	cfg.MarkExpandedTokens = true
	res := runSource(t, "#define FOO 42\nFOO\n", cfg)
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, KindSentinel, res.Tokens[0].Kind)
	assert.Equal(t, "42", res.Tokens[1].Text)
	assert.Equal(t, KindSentinel, res.Tokens[2].Kind)
}

func TestExpansionEventsRecorded(t *testing.T) {
	res := runSource(t, "#define FOO 42\nFOO\n", defaultCfg())
	var kinds []EventKind
	for _, e := range res.Events.Events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, EventMacroAdded)
	assert.Contains(t, kinds, EventExpansionStarted)
}

func TestSkippingEventsRecordedForInactiveBranch(t *testing.T) {
	res := runSource(t, "#if 0\nSKIPPED\n#endif\nKEPT\n", defaultCfg())
	var kinds []EventKind
	for _, e := range res.Events.Events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, EventSkippingStarted)
	assert.Contains(t, kinds, EventSkippingStopped)
}

func TestIncludeGuardDetectedEventRecorded(t *testing.T) {
	res := runSource(t, "#ifndef FOO_H\n#define FOO_H\nint x;\n#endif\n", defaultCfg())
	found := false
	for _, e := range res.Events.Events {
		if e.Kind == EventIncludeGuardDetected && e.Name == "FOO_H" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUnterminatedArgumentListDiagnostic(t *testing.T) {
	res := runSource(t, "#define ADD(a, b) a+b\nADD(1, 2\n", defaultCfg())
	found := false
	for _, e := range res.Events.Events {
		if e.Kind == EventDiagnostic && e.DiagnosticKind == UnterminatedArgumentList {
			found = true
		}
	}
	assert.True(t, found)
}

func TestArgumentCountMismatchDiagnostic(t *testing.T) {
	res := runSource(t, "#define ADD(a, b) a+b\nADD(1)\n", defaultCfg())
	found := false
	for _, e := range res.Events.Events {
		if e.Kind == EventDiagnostic && e.DiagnosticKind == ArgumentMismatch {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFunctionLikeExpansionDisabledPassesThrough(t *testing.T) {
	res := runSource(t, "#define ADD(a, b) a+b\nADD(1, 2)\n", RunConfig{ExpandFunctionLikeMacros: false})
	assert.Equal(t, "ADD(1, 2)", spell(res.Tokens))
}

func TestCommentsDroppedByDefault(t *testing.T) {
	res := runSource(t, "/* c */ int x; // trailing\n", defaultCfg())
	assert.Equal(t, "int x;", spell(res.Tokens))
}

func TestCommentsKeptWhenConfigured(t *testing.T) {
	cfg := defaultCfg()
	cfg.KeepComments = true
	res := runSource(t, "/* c */ int x;\n", cfg)
	assert.Contains(t, spell(res.Tokens), "/* c */")
}
