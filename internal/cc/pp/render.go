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
	"fmt"
	"strings"
)

// lineMarkerGap is the largest forward line jump Render closes with bare
// newlines rather than a "# LINENO "FILEPATH"" marker.
const lineMarkerGap = 8

// expansionBlock is one top-level macro expansion recognized by Render from
// a matched pair of KindSentinel markers (see Driver.wrapWithMarkers).
// Nested expansions (a macro's replacement itself containing an expanded
// macro reference) are folded into the enclosing block: their own marker
// pair is consumed without opening a second "# expansion begin/end" guard,
// and their tokens contribute to the enclosing block's origin tags like any
// other token.
type expansionBlock struct {
	endIdx              int
	byteOffset, byteLen int64
	tags                []string
}

// findExpansionBlocks walks toks once, pairing each outermost begin/end
// KindSentinel marker and building its per-token origin tag list: "~N" for
// N consecutive generated tokens, "L:C" for one expanded-but-not-generated
// token from source line L column C (§6).
func findExpansionBlocks(toks []PreprocessingToken) map[int]*expansionBlock {
	blocks := make(map[int]*expansionBlock)
	depth := 0
	var cur *expansionBlock
	runGenerated := 0

	flush := func() {
		if runGenerated > 0 {
			cur.tags = append(cur.tags, fmt.Sprintf("~%d", runGenerated))
			runGenerated = 0
		}
	}

	for i, t := range toks {
		if t.Kind == KindSentinel {
			if t.Opening {
				if depth == 0 {
					cur = &expansionBlock{byteOffset: int64(t.ByteOffset), byteLen: int64(t.ByteLength)}
					blocks[i] = cur
				}
				depth++
				continue
			}
			depth--
			if depth == 0 {
				flush()
				cur.endIdx = i
				cur = nil
			}
			continue
		}
		if cur == nil {
			continue
		}
		if t.Generated {
			runGenerated++
			continue
		}
		flush()
		cur.tags = append(cur.tags, fmt.Sprintf("%d:%d", t.Line, t.Column))
	}
	return blocks
}

// Render reproduces toks as the preprocessed byte stream §6 describes:
// original non-directive tokens with whitespace preserved, a
// `# LINENO "FILEPATH"` marker at line discontinuities (a single space if
// cfg.EmitLineMarkers is false), and a paired
// `# expansion begin OFFSET,LEN` / per-token tags / `# expansion end`
// block around every top-level macro expansion that was bracketed with
// KindSentinel markers during Run (i.e. cfg.MarkExpandedTokens was set).
func Render(toks []PreprocessingToken, cfg RunConfig) string {
	blocks := findExpansionBlocks(toks)
	ends := make(map[int]bool, len(blocks))
	for _, blk := range blocks {
		ends[blk.endIdx] = true
	}

	var b strings.Builder
	line := 0
	started := false

	for i, t := range toks {
		if t.Kind == KindSentinel {
			if blk, ok := blocks[i]; ok {
				fmt.Fprintf(&b, "# expansion begin %d,%d\n", blk.byteOffset, blk.byteLen)
				if len(blk.tags) > 0 {
					b.WriteString(strings.Join(blk.tags, " "))
					b.WriteByte('\n')
				}
			}
			if ends[i] {
				b.WriteString("# expansion end\n")
			}
			continue
		}
		syncLine(&b, &line, &started, t, cfg)
		b.WriteString(t.Text)
	}
	return b.String()
}

// syncLine writes whatever separator belongs before t (nothing for the
// very first token), tracking the output cursor's current source line in
// *line.
func syncLine(b *strings.Builder, line *int, started *bool, t PreprocessingToken, cfg RunConfig) {
	if !*started {
		*started = true
		*line = t.Line
		if cfg.EmitLineMarkers && cfg.Path != "" {
			fmt.Fprintf(b, "# %d %q\n", t.Line, cfg.Path)
		}
		return
	}
	switch gap := t.Line - *line; {
	case gap == 0:
		if t.HasLeadingWhitespace || t.Generated {
			b.WriteByte(' ')
		}
	case gap > 0 && gap <= lineMarkerGap:
		b.WriteString(strings.Repeat("\n", gap))
		*line = t.Line
	default:
		if cfg.EmitLineMarkers && cfg.Path != "" {
			fmt.Fprintf(b, "\n# %d %q\n", t.Line, cfg.Path)
		} else {
			b.WriteByte(' ')
		}
		*line = t.Line
	}
}
