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
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cursor is a position in the source buffer, tracked along three parallel
// axes: a human-facing Line/Column pair, an absolute byte offset and an
// absolute UTF-16 code-unit offset. The latter two let tooling map expanded
// tokens back to precise ranges in the original source regardless of
// whether the consumer addresses text in bytes (Go, most parsers) or in
// UTF-16 code units (editors, LSP).
type Cursor struct {
	Line, Column int
	Byte         int
	UTF16        int
}

// CursorInit is the position at the beginning of a file or string.
var CursorInit = Cursor{Line: 1, Column: 1}

// CursorEOF is a sentinel position representing end of input.
var CursorEOF = Cursor{}

func (c Cursor) String() string {
	if c == CursorEOF {
		return "EOF"
	}
	return fmt.Sprintf("%d:%d", c.Line, c.Column)
}

// AdvancedBy returns a new Cursor advanced past lookAhead, which is assumed
// to begin exactly at c. Newlines in lookAhead increment the line number and
// reset the column; all other runes increment the column.
func (c Cursor) AdvancedBy(lookAhead string) Cursor {
	newlinesCount := strings.Count(lookAhead, "\n")
	tailBegin := 1 + strings.LastIndex(lookAhead, "\n")
	tailLength := utf8.RuneCountInString(lookAhead[tailBegin:])

	if newlinesCount == 0 {
		c.Column += tailLength
	} else {
		c.Line += newlinesCount
		c.Column = 1 + tailLength
	}

	c.Byte += len(lookAhead)
	c.UTF16 += utf16Length(lookAhead)
	return c
}

// utf16Length returns the number of UTF-16 code units needed to represent s.
func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
