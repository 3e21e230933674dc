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

// Package lexer turns a byte buffer of C/C++ source into a stream of
// preprocessing tokens. It understands just enough of the grammar to
// recognize identifiers, literals and punctuators; it never recognizes
// language keywords, and it leaves all preprocessing semantics (directive
// dispatch, macro expansion, conditional skipping) to the pp package.
//
// The lexer is responsible for line/column bookkeeping, backslash-newline
// splicing (the Joined flag marks a token whose first character followed
// such a splice; the splice sequence itself is never surfaced as a token),
// and parallel UTF-16 offset counting for editor tooling.
package lexer

import (
	"bytes"
	"iter"
	"strings"
)

// Mode controls lexer behaviors that must change mid-stream as the driver
// processes directives it has already classified.
type Mode struct {
	// AngleString enables recognizing `<...>` as a single
	// TokenType_LiteralAngleString token. The driver turns this on only
	// while reading the path argument of #include/#include_next/#import.
	AngleString bool
	// CommentTokens causes comments to be emitted as tokens instead of
	// being silently treated as whitespace. Corresponds to the external
	// keep_comments run flag (see spec §6).
	CommentTokens bool
}

// Lexer is a cursor over a byte buffer that yields one Token at a time.
type Lexer struct {
	data        []byte
	cursor      Cursor
	mode        Mode
	atLineStart bool
	hasEmitted  bool
}

// NewLexer constructs a Lexer over sourceCode starting at the beginning of
// the buffer.
func NewLexer(sourceCode []byte, mode Mode) *Lexer {
	return &Lexer{data: sourceCode, cursor: CursorInit, mode: mode, atLineStart: true}
}

// SetAngleStringMode toggles angle-string-literal lexing. The driver calls
// this immediately before reading the path token of an #include-family
// directive and turns it back off immediately after (see spec §4.6).
func (lx *Lexer) SetAngleStringMode(on bool) { lx.mode.AngleString = on }

// Position returns the lexer's current cursor, i.e. the position of the
// next token that NextToken would return.
func (lx *Lexer) Position() Cursor { return lx.cursor }

func findNonWhitespace(data []byte) int {
	i := 0
	for i < len(data) && strings.IndexByte(" \t\v\f\r", data[i]) >= 0 {
		i++
	}
	return i
}

func (lx *Lexer) advanceRaw(n int) string {
	text := string(lx.data[:n])
	lx.data = lx.data[n:]
	lx.cursor = lx.cursor.AdvancedBy(text)
	return text
}

// NextToken returns the next significant token, or TokenEOF once the input
// is exhausted. Whitespace, newlines, and (unless Mode.CommentTokens is set)
// comments are consumed internally and folded into the flags of the
// following token rather than returned as tokens of their own.
func (lx *Lexer) NextToken() Token {
	sawNewline := lx.atLineStart
	sawWhitespace := false
	sawJoin := false

	for {
		if len(lx.data) == 0 {
			return TokenEOF
		}

		switch lx.data[0] {
		case '\n':
			lx.advanceRaw(1)
			sawNewline = true
			lx.atLineStart = true
			continue
		case '\t', '\v', '\f', '\r', ' ':
			lx.advanceRaw(findNonWhitespace(lx.data))
			sawWhitespace = true
			continue
		case '\\':
			if m := reContinueLine.FindIndex(lx.data); m != nil {
				lx.advanceRaw(m[1])
				sawJoin = true
				continue
			}
		}

		if bytes.HasPrefix(lx.data, []byte("//")) {
			end := bytes.IndexByte(lx.data, '\n')
			if end == -1 {
				end = len(lx.data)
			}
			if !lx.mode.CommentTokens {
				lx.advanceRaw(end)
				sawWhitespace = true
				continue
			}
			return lx.emit(TokenType_CommentSingleLine, end, sawNewline, sawWhitespace, sawJoin)
		}
		if bytes.HasPrefix(lx.data, []byte("/*")) {
			length := len(lx.data)
			terminated := false
			if end := bytes.Index(lx.data, []byte("*/")); end >= 0 {
				length, terminated = end+2, true
			}
			if !lx.mode.CommentTokens {
				lx.advanceRaw(length)
				sawWhitespace = true
				continue
			}
			tok := lx.emit(TokenType_CommentMultiLine, length, sawNewline, sawWhitespace, sawJoin)
			if !terminated {
				// Unterminated: still emit what's left so a caller can
				// surface ErrMultiLineCommentUnterminated if it cares;
				// the driver treats trailing content as comment text.
				_ = ErrMultiLineCommentUnterminated
			}
			return tok
		}

		if lx.mode.AngleString {
			if m := reAngleString.FindIndex(lx.data); m != nil {
				return lx.emit(TokenType_LiteralAngleString, m[1], sawNewline, sawWhitespace, sawJoin)
			}
		}

		if lx.data[0] == '"' {
			if m := reLiteralString.FindIndex(lx.data); m != nil {
				return lx.emit(TokenType_LiteralString, m[1], sawNewline, sawWhitespace, sawJoin)
			}
		}

		if m := reIdentifier.FindIndex(lx.data); m != nil {
			typ := TokenType_Identifier
			if string(lx.data[:m[1]]) == "defined" {
				typ = TokenType_PreprocessorDefined
			}
			return lx.emit(typ, m[1], sawNewline, sawWhitespace, sawJoin)
		}

		if m := reLiteralInteger.FindIndex(lx.data); m != nil {
			return lx.emit(TokenType_LiteralInteger, m[1], sawNewline, sawWhitespace, sawJoin)
		}

		if typ, n := matchPunctuator(lx.data); n > 0 {
			return lx.emit(typ, n, sawNewline, sawWhitespace, sawJoin)
		}

		// Unknown byte (e.g. stray UTF-8 continuation, or a punctuator we
		// don't special-case): pass it through verbatim as TokenType_Other
		// so the overall byte stream is never silently dropped.
		return lx.emit(TokenType_Other, 1, sawNewline, sawWhitespace, sawJoin)
	}
}

func matchPunctuator(data []byte) (TokenType, int) {
	for _, p := range punctuators {
		if bytes.HasPrefix(data, []byte(p.text)) {
			return p.typ, len(p.text)
		}
	}
	return TokenType_Unassigned, 0
}

func (lx *Lexer) emit(typ TokenType, length int, atNewline, hadWhitespace, joined bool) Token {
	loc := lx.cursor
	content := lx.advanceRaw(length)
	// A newline counts as separating whitespace for every token except the
	// very first one in the buffer, which has nothing before it to separate
	// from.
	leadingWhitespace := hadWhitespace || joined || (atNewline && lx.hasEmitted)
	lx.atLineStart = false
	lx.hasEmitted = true
	return Token{
		Type:                 typ,
		Location:             loc,
		Content:              content,
		AtNewline:            atNewline,
		HasLeadingWhitespace: leadingWhitespace,
		Joined:               joined,
	}
}

// AllTokens iterates every token extracted from the input, in order.
func (lx *Lexer) AllTokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok := lx.NextToken()
			if tok.Type == TokenType_EOF {
				return
			}
			if !yield(tok) {
				return
			}
		}
	}
}
