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

// Package pp implements the C/C++ preprocessor engine: macro expansion,
// conditional compilation, include-guard detection and the directive driver
// that ties them together. It consumes tokens produced by internal/cc/lexer
// and never reads source bytes itself.
package pp

import "github.com/cc-tools/ccpreprocess/internal/cc/lexer"

// Kind classifies a PreprocessingToken. It is a coarser view of
// lexer.TokenType: the driver never needs to distinguish individual
// punctuator spellings once a token has left the lexer, only whether it is
// an identifier, a literal of some form, a punctuator, a comment or EOF.
type Kind int

const (
	KindEOF Kind = iota
	KindSentinel // zero-width begin/end expansion marker, see Driver.wrapWithMarkers
	KindIdentifier
	KindNumber
	KindString
	KindAngleString
	KindPunctuator
	KindComment
)

// SourceBuffer is an immutable, shareable view of one translation unit's (or
// one included file's) source bytes. Tokens referencing the same underlying
// file share a SourceBuffer rather than copying it.
type SourceBuffer struct {
	Path     string
	Bytes    []byte
	Revision int
}

// PreprocessingToken is the token representation threaded through the whole
// pp package: every structure downstream of the lexer (macro bodies,
// conditional expressions, the output stream) is built from these.
type PreprocessingToken struct {
	Kind Kind
	Text string

	Source      *SourceBuffer
	ByteOffset  int
	ByteLength  int
	UTF16Offset int
	UTF16Length int
	Line        int
	Column      int

	AtNewline            bool
	HasLeadingWhitespace bool
	Joined               bool

	// Opening distinguishes the two halves of a KindSentinel expansion
	// marker pair: true for the begin marker, false for the end marker.
	// Meaningless for any other Kind.
	Opening bool

	// Expanded is set on tokens produced by macro substitution (argument
	// tokens copied into a body, or the body tokens of an object-like
	// macro). Generated is additionally set on tokens synthesized out of
	// thin air: stringizing, token-pasting, __LINE__ and friends, and the
	// zero-width expansion markers. A token can be Expanded without being
	// Generated (an argument token substituted verbatim keeps its original
	// source range) but never Generated without Expanded.
	Expanded  bool
	Generated bool
}

func kindFromLexer(t lexer.TokenType) Kind {
	switch t {
	case lexer.TokenType_EOF:
		return KindEOF
	case lexer.TokenType_Identifier, lexer.TokenType_PreprocessorDefined:
		return KindIdentifier
	case lexer.TokenType_LiteralInteger:
		return KindNumber
	case lexer.TokenType_LiteralString:
		return KindString
	case lexer.TokenType_LiteralAngleString:
		return KindAngleString
	case lexer.TokenType_CommentSingleLine, lexer.TokenType_CommentMultiLine:
		return KindComment
	default:
		return KindPunctuator
	}
}

// fromLexerToken converts a lexer.Token, read from source buf, into a
// PreprocessingToken. The byte offset/length and UTF16 offset/length are
// taken directly from the lexer's cursor bookkeeping.
func fromLexerToken(t lexer.Token, buf *SourceBuffer) PreprocessingToken {
	end := t.End()
	return PreprocessingToken{
		Kind:                 kindFromLexer(t.Type),
		Text:                 t.Content,
		Source:               buf,
		ByteOffset:           t.Location.Byte,
		ByteLength:           end.Byte - t.Location.Byte,
		UTF16Offset:          t.Location.UTF16,
		UTF16Length:          end.UTF16 - t.Location.UTF16,
		Line:                 t.Location.Line,
		Column:               t.Location.Column,
		AtNewline:            t.AtNewline,
		HasLeadingWhitespace: t.HasLeadingWhitespace,
		Joined:               t.Joined,
	}
}

// IsIdentifier reports whether t can be looked up in a macro Environment,
// i.e. it has identifier spelling. The `defined` pseudo-keyword lexes as an
// identifier and is handled specially by the driver, not here.
func (t PreprocessingToken) IsIdentifier() bool { return t.Kind == KindIdentifier }

// Arena owns the backing storage of every generated token produced during
// one preprocessor run (stringized literals, pasted identifiers, __LINE__
// substitutions, expansion markers). It is reset wholesale at run end; no
// individual generated token is ever freed on its own, matching §5's
// "arena-allocated and freed wholesale at run completion" resource policy.
type Arena struct {
	interned []string
}

// Intern copies s into the arena and returns the arena-owned copy. Using a
// freshly interned string (rather than re-slicing caller-owned text) keeps
// generated tokens from accidentally aliasing source buffers that may be
// mutated or discarded independently of the arena's lifetime.
func (a *Arena) Intern(s string) string {
	cp := string([]byte(s))
	a.interned = append(a.interned, cp)
	return cp
}

// NewGenerated builds a fully synthesized token (Generated and Expanded
// both set) carrying no real source range. line/byteOffset are the
// position it should be reported at for diagnostics (typically the
// invoking macro-reference token's position).
func (a *Arena) NewGenerated(kind Kind, text string, line, byteOffset, utf16Offset int) PreprocessingToken {
	text = a.Intern(text)
	return PreprocessingToken{
		Kind:        kind,
		Text:        text,
		ByteOffset:  byteOffset,
		UTF16Offset: utf16Offset,
		Line:        line,
		Expanded:    true,
		Generated:   true,
	}
}
