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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToken(t *testing.T) {
	testCases := []struct {
		name            string
		input           string
		mode            Mode
		expectedType    TokenType
		expectedContent string
	}{
		{name: "empty", input: "", expectedType: TokenType_EOF},
		{name: "identifier", input: "foo_Bar1", expectedType: TokenType_Identifier, expectedContent: "foo_Bar1"},
		{name: "defined keyword", input: "defined", expectedType: TokenType_PreprocessorDefined, expectedContent: "defined"},
		{name: "hex literal", input: "0xFFu", expectedType: TokenType_LiteralInteger, expectedContent: "0xFFu"},
		{name: "octal literal", input: "0755", expectedType: TokenType_LiteralInteger, expectedContent: "0755"},
		{name: "decimal literal", input: "123L", expectedType: TokenType_LiteralInteger, expectedContent: "123L"},
		{name: "zero literal", input: "0", expectedType: TokenType_LiteralInteger, expectedContent: "0"},
		{name: "string literal", input: `"a\"b"`, expectedType: TokenType_LiteralString, expectedContent: `"a\"b"`},
		{name: "hash hash", input: "##", expectedType: TokenType_OperatorHashHash, expectedContent: "##"},
		{name: "hash", input: "#", expectedType: TokenType_OperatorHash, expectedContent: "#"},
		{name: "ellipsis", input: "...", expectedType: TokenType_Ellipsis, expectedContent: "..."},
		{name: "shift left", input: "<<", expectedType: TokenType_OperatorShiftLeft, expectedContent: "<<"},
		{name: "less than (no angle mode)", input: "<foo.h>", expectedType: TokenType_OperatorLess, expectedContent: "<"},
		{
			name: "angle string in angle mode", input: "<foo.h>",
			mode: Mode{AngleString: true}, expectedType: TokenType_LiteralAngleString, expectedContent: "<foo.h>",
		},
		{name: "comment skipped by default", input: "// hi\nx", expectedType: TokenType_Identifier, expectedContent: "x"},
		{
			name: "comment token mode", input: "// hi\n",
			mode: Mode{CommentTokens: true}, expectedType: TokenType_CommentSingleLine, expectedContent: "// hi",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lx := NewLexer([]byte(tc.input), tc.mode)
			tok := lx.NextToken()
			assert.Equal(t, tc.expectedType, tok.Type)
			assert.Equal(t, tc.expectedContent, tok.Content)
		})
	}
}

func TestNextTokenFlags(t *testing.T) {
	lx := NewLexer([]byte("a  b\nc"), Mode{})
	a := lx.NextToken()
	assert.Equal(t, "a", a.Content)
	assert.True(t, a.AtNewline)
	assert.False(t, a.HasLeadingWhitespace)

	b := lx.NextToken()
	assert.Equal(t, "b", b.Content)
	assert.False(t, b.AtNewline)
	assert.True(t, b.HasLeadingWhitespace)

	c := lx.NextToken()
	assert.Equal(t, "c", c.Content)
	assert.True(t, c.AtNewline)
}

func TestContinuationLineSplice(t *testing.T) {
	lx := NewLexer([]byte("foo\\\nbar"), Mode{})
	foo := lx.NextToken()
	assert.Equal(t, "foo", foo.Content)
	assert.False(t, foo.Joined)

	bar := lx.NextToken()
	assert.Equal(t, "bar", bar.Content)
	assert.True(t, bar.Joined)
	assert.True(t, bar.HasLeadingWhitespace)
	// The splice does not start a new logical line.
	assert.False(t, bar.AtNewline)
}

func TestAllTokens(t *testing.T) {
	lx := NewLexer([]byte("a+b"), Mode{})
	var got []string
	for tok := range lx.AllTokens() {
		got = append(got, tok.Content)
	}
	assert.Equal(t, []string{"a", "+", "b"}, got)
}

func TestCursorTracksByteAndLine(t *testing.T) {
	lx := NewLexer([]byte("ab\ncd"), Mode{})
	a := lx.NextToken()
	assert.Equal(t, Cursor{Line: 1, Column: 1, Byte: 0, UTF16: 0}, a.Location)
	cd := lx.NextToken()
	assert.Equal(t, Cursor{Line: 2, Column: 1, Byte: 3, UTF16: 3}, cd.Location)
}
