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
	"strconv"

	"github.com/cc-tools/ccpreprocess/internal/cc/lexer"
)

const variadicFormalName = "__VA_ARGS__"

// argGroup is one comma-delimited argument as collected from the call-site
// token stream, before variadic collapsing.
type argGroup struct {
	tokens []PreprocessingToken
}

// collectArgs reads a function-like macro's argument list from feed. The
// caller must already have consumed the identifier and the opening '(';
// collectArgs consumes everything through the matching ')'. The comma
// tokens separating top-level groups are returned alongside the groups so
// a variadic tail can be reassembled with its original punctuation.
func collectArgs(feed *tokenFeed, refTok PreprocessingToken) (groups []argGroup, commas []PreprocessingToken, closeParen PreprocessingToken, diag *Diagnostic) {
	depth := 1
	cur := argGroup{}
	for {
		t := feed.next()
		if t.Kind == KindEOF {
			return nil, nil, PreprocessingToken{}, newDiagnostic(UnterminatedArgumentList, refTok,
				"unterminated argument list for macro %q", refTok.Text)
		}
		if t.Kind == KindPunctuator {
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
				if depth == 0 {
					groups = append(groups, cur)
					return groups, commas, t, nil
				}
			case ",":
				if depth == 1 {
					groups = append(groups, cur)
					commas = append(commas, t)
					cur = argGroup{}
					continue
				}
			}
		}
		cur.tokens = append(cur.tokens, t)
	}
}

// matchFormals reconciles the raw argument groups collected at a call site
// against m's formal list, collapsing any variadic tail into one logical
// argument (joined by its original commas) and handling the zero-formal,
// empty-parens special case where `F()` supplies zero arguments rather
// than one empty argument.
func matchFormals(m *Macro, groups []argGroup, commas []PreprocessingToken) ([][]PreprocessingToken, *Diagnostic) {
	if len(m.Formals) == 0 && !m.Variadic && len(groups) == 1 && len(groups[0].tokens) == 0 {
		groups = nil
	}
	required := len(m.Formals)
	if !m.Variadic {
		if len(groups) != required {
			return nil, &Diagnostic{Kind: ArgumentMismatch, Message: fmt.Sprintf(
				"macro %q expects %d argument(s), got %d", m.Name, required, len(groups))}
		}
		out := make([][]PreprocessingToken, len(groups))
		for i, g := range groups {
			out[i] = g.tokens
		}
		return out, nil
	}
	if len(groups) < required {
		return nil, &Diagnostic{Kind: ArgumentMismatch, Message: fmt.Sprintf(
			"macro %q expects at least %d argument(s), got %d", m.Name, required, len(groups))}
	}
	out := make([][]PreprocessingToken, required+1)
	for i := 0; i < required; i++ {
		out[i] = groups[i].tokens
	}
	var tail []PreprocessingToken
	for i := required; i < len(groups); i++ {
		if i > required {
			tail = append(tail, commas[i-1])
		}
		tail = append(tail, groups[i].tokens...)
	}
	out[required] = tail
	return out, nil
}

func formalIndex(m *Macro, name string) int {
	for i, f := range m.Formals {
		if f == name {
			return i
		}
	}
	if m.Variadic && name == variadicFormalName {
		return len(m.Formals)
	}
	return -1
}

func isPasteOp(t PreprocessingToken) bool {
	return t.Kind == KindPunctuator && t.Text == "##"
}

// stringizeArg implements the `#` operator (§4.4): the raw spelling of the
// argument's tokens, each separated by a single space wherever the
// original call site had any whitespace, with embedded `"` and `\`
// escaped, wrapped in a new string-literal token.
func stringizeArg(toks []PreprocessingToken, arena *Arena, ref PreprocessingToken) PreprocessingToken {
	var b []byte
	b = append(b, '"')
	for i, t := range toks {
		if i > 0 && (t.HasLeadingWhitespace || t.AtNewline) {
			b = append(b, ' ')
		}
		if t.Kind == KindString || t.Kind == KindAngleString {
			for _, c := range []byte(t.Text) {
				if c == '"' || c == '\\' {
					b = append(b, '\\')
				}
				b = append(b, c)
			}
		} else {
			b = append(b, t.Text...)
		}
	}
	b = append(b, '"')
	return arena.NewGenerated(KindString, string(b), ref.Line, ref.ByteOffset, ref.UTF16Offset)
}

// relexPasted re-lexes the concatenation of two adjacent tokens' spellings
// into a single token, per §4.4's token-paste operator. If the
// concatenation does not form a single valid preprocessing token, the
// whole concatenated text is still kept as one token, with the kind of
// the first token the lexer reads from it, and a diagnostic is returned: pasting invalid combinations (`+` ## `+` ## `+`)
// is undefined behavior in the standard, so surfacing *something* rather
// than aborting the whole run matches §7's recoverable-failure posture.
func relexPasted(text string, arena *Arena, ref PreprocessingToken) (PreprocessingToken, *Diagnostic) {
	lx := lexer.NewLexer([]byte(text), lexer.Mode{})
	tok := lx.NextToken()
	kind := kindFromLexer(tok.Type)
	result := arena.NewGenerated(kind, text, ref.Line, ref.ByteOffset, ref.UTF16Offset)
	if tok.Content != text {
		return result, &Diagnostic{Kind: MalformedDirective, Message: fmt.Sprintf(
			"token paste produced invalid token %q", text), Line: ref.Line, ByteOffset: ref.ByteOffset}
	}
	return result, nil
}

// processPaste resolves every `##` in tokens, left to right, re-lexing each
// pasted pair as it goes so that a chain like `a##b##c` collapses in two
// steps rather than needing special-case handling.
func processPaste(tokens []PreprocessingToken, arena *Arena) ([]PreprocessingToken, []*Diagnostic) {
	var diags []*Diagnostic
	for {
		idx := -1
		for i, t := range tokens {
			if isPasteOp(t) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return tokens, diags
		}
		switch {
		case idx == 0:
			tokens = tokens[1:]
		case idx == len(tokens)-1:
			tokens = tokens[:idx]
		default:
			left, right := tokens[idx-1], tokens[idx+1]
			pasted, diag := relexPasted(left.Text+right.Text, arena, left)
			if diag != nil {
				diags = append(diags, diag)
			}
			next := make([]PreprocessingToken, 0, len(tokens)-2)
			next = append(next, tokens[:idx-1]...)
			next = append(next, pasted)
			next = append(next, tokens[idx+2:]...)
			tokens = next
		}
	}
}

// buildReplacement substitutes m's formal parameters with call-site
// arguments and resolves `#`/`##` to produce the token sequence that will
// be pushed onto the buffer stack for rescanning. expandArg lazily
// pre-expands one argument's tokens (memoized by the caller) and is only
// invoked for arguments not adjacent to `#`/`##`, per §4.4.
func buildReplacement(m *Macro, args [][]PreprocessingToken, ref PreprocessingToken, arena *Arena, expandArg func(int) []PreprocessingToken) ([]PreprocessingToken, []*Diagnostic) {
	var out []PreprocessingToken
	body := m.Body
	for i := 0; i < len(body); i++ {
		bt := body[i]
		if bt.Kind == KindPunctuator && bt.Text == "#" && i+1 < len(body) {
			if idx := formalIndex(m, body[i+1].Text); idx >= 0 && idx < len(args) {
				out = append(out, stringizeArg(args[idx], arena, ref))
				i++
				continue
			}
		}
		if bt.Kind == KindIdentifier {
			if idx := formalIndex(m, bt.Text); idx >= 0 && idx < len(args) {
				adjacentPaste := (i > 0 && isPasteOp(body[i-1])) || (i+1 < len(body) && isPasteOp(body[i+1]))
				var toks []PreprocessingToken
				if adjacentPaste {
					toks = args[idx]
				} else {
					toks = expandArg(idx)
				}
				out = append(out, toks...)
				continue
			}
		}
		out = append(out, bt)
	}
	return processPaste(out, arena)
}

// expandTokenList runs the full macro-expansion algorithm over a bounded,
// self-contained token slice — a macro argument before substitution, or an
// #if/#elif expression before constant evaluation (§4.3's "ordinary macro
// expansion is applied first"). It uses its own BufferStack with no
// lexer fallback, so it naturally terminates once tokens and everything
// pushed while expanding them are exhausted, and its blocking scope is
// independent of whatever macro call (if any) is being expanded around it.
func expandTokenList(tokens []PreprocessingToken, env *Environment, cfg RunConfig, arena *Arena) []PreprocessingToken {
	if len(tokens) == 0 {
		return nil
	}
	i := 0
	feed := newTokenFeed(cfg.MaxBufferDepth, func() (PreprocessingToken, bool) {
		if i >= len(tokens) {
			return PreprocessingToken{}, false
		}
		t := tokens[i]
		i++
		return t, true
	})
	var out []PreprocessingToken
	for {
		t := feed.next()
		if t.Kind == KindEOF {
			return out
		}
		if t.Kind == KindSentinel {
			continue
		}
		if t.IsIdentifier() {
			if replacement, blocking, expanded, _ := tryExpand(t, feed, env, cfg, arena, nil); expanded {
				feed.buf.Push(replacement, blocking)
				continue
			}
		}
		out = append(out, t)
	}
}

// tryExpand attempts one macro-expansion step for an identifier token
// already pulled from feed. On success it returns the replacement token
// sequence (ready to push onto a BufferStack) and the macro that should
// block recursive self-reference while that sequence is live; on failure
// (unbound name, function-like macro not actually called, or the name is
// currently blocked) it returns expanded=false and the caller is
// responsible for putting tok back into the output stream unchanged.
func tryExpand(tok PreprocessingToken, feed *tokenFeed, env *Environment, cfg RunConfig, arena *Arena, events *EventLog) (replacement []PreprocessingToken, blocking *Macro, expanded bool, diag *Diagnostic) {
	if cfg.ReservedIdentifier != nil && cfg.ReservedIdentifier(tok.Text) {
		return nil, nil, false, nil
	}
	if IsBuiltin(tok.Text) {
		repl := builtinReplacement(tok, cfg, arena)
		repl.HasLeadingWhitespace = tok.HasLeadingWhitespace
		repl.AtNewline = tok.AtNewline
		return []PreprocessingToken{repl}, nil, true, nil
	}
	m, ok := env.Resolve(tok.Text)
	if !ok {
		return nil, nil, false, nil
	}
	if feed.buf.Blocked(m) {
		return nil, nil, false, nil
	}
	if !m.FunctionLike {
		if m.selfReferential() {
			// Its own replacement is just its own name: expanding it can
			// never produce anything but what's already in the stream, so
			// treat it as unexpandable rather than pushing a one-token
			// blocking frame that would immediately need to unblock again.
			return nil, nil, false, nil
		}
		body := cloneExpandedTokens(m.Body, tok)
		emitExpansionEvent(events, tok, m, nil)
		return body, m, true, nil
	}
	if !cfg.ExpandFunctionLikeMacros {
		return nil, nil, false, nil
	}
	next := feed.next()
	if !(next.Kind == KindPunctuator && next.Text == "(") {
		feed.unread(next)
		return nil, nil, false, nil
	}
	groups, commas, _, argDiag := collectArgs(feed, tok)
	if argDiag != nil {
		return nil, nil, false, argDiag
	}
	args, matchDiag := matchFormals(m, groups, commas)
	if matchDiag != nil {
		return nil, nil, false, matchDiag
	}
	expandedCache := make(map[int][]PreprocessingToken, len(args))
	expandArg := func(idx int) []PreprocessingToken {
		if v, ok := expandedCache[idx]; ok {
			return v
		}
		v := expandTokenList(args[idx], env, cfg, arena)
		expandedCache[idx] = v
		return v
	}
	body, pasteDiags := buildReplacement(m, args, tok, arena, expandArg)
	body = cloneExpandedTokens(body, tok)
	argSpans := make([]ArgSpan, 0, len(args))
	for _, a := range args {
		argSpans = append(argSpans, spanOfArg(a))
	}
	emitExpansionEvent(events, tok, m, argSpans)
	// Only the first malformed paste (if any) is surfaced: a chain of bad
	// pastes in one macro body is a single authoring mistake, not several.
	var firstPasteDiag *Diagnostic
	if len(pasteDiags) > 0 {
		firstPasteDiag = pasteDiags[0]
	}
	return body, m, true, firstPasteDiag
}

func spanOfArg(toks []PreprocessingToken) ArgSpan {
	if len(toks) == 0 {
		return ArgSpan{}
	}
	first, last := toks[0], toks[len(toks)-1]
	return ArgSpan{
		ByteOffset:  int64(first.ByteOffset),
		ByteLength:  int64(last.ByteOffset+last.ByteLength) - int64(first.ByteOffset),
		UTF16Offset: int64(first.UTF16Offset),
		UTF16Length: int64(last.UTF16Offset+last.UTF16Length) - int64(first.UTF16Offset),
	}
}

func emitExpansionEvent(events *EventLog, ref PreprocessingToken, m *Macro, args []ArgSpan) {
	if events == nil {
		return
	}
	events.append(Event{
		Kind:        EventExpansionStarted,
		Name:        m.Name,
		Line:        int32(ref.Line),
		ByteOffset:  int64(ref.ByteOffset),
		UTF16Offset: int64(ref.UTF16Offset),
		Args:        args,
	})
}

// cloneExpandedTokens marks a macro's body/replacement tokens as Expanded
// and attributes them (for diagnostics) to the reference token's position,
// without disturbing their own source ranges, which tooling still wants
// for "go to definition"-style navigation into the macro body.
func cloneExpandedTokens(body []PreprocessingToken, ref PreprocessingToken) []PreprocessingToken {
	out := make([]PreprocessingToken, len(body))
	for i, t := range body {
		t.Expanded = true
		if i == 0 {
			t.HasLeadingWhitespace = ref.HasLeadingWhitespace
			t.AtNewline = ref.AtNewline
		}
		out[i] = t
	}
	return out
}

// builtinReplacement synthesizes the single-token replacement for one of
// the four built-in macros intercepted during identifier resolution
// (§4.2), never stored in the Environment.
func builtinReplacement(tok PreprocessingToken, cfg RunConfig, arena *Arena) PreprocessingToken {
	switch tok.Text {
	case "__LINE__":
		return arena.NewGenerated(KindNumber, strconv.Itoa(tok.Line), tok.Line, tok.ByteOffset, tok.UTF16Offset)
	case "__FILE__":
		path := ""
		if tok.Source != nil {
			path = tok.Source.Path
		}
		return arena.NewGenerated(KindString, strconv.Quote(path), tok.Line, tok.ByteOffset, tok.UTF16Offset)
	case "__DATE__":
		return arena.NewGenerated(KindString, strconv.Quote(cfg.BuildTimestamp.Format("Jan _2 2006")), tok.Line, tok.ByteOffset, tok.UTF16Offset)
	case "__TIME__":
		return arena.NewGenerated(KindString, strconv.Quote(cfg.BuildTimestamp.Format("15:04:05")), tok.Line, tok.ByteOffset, tok.UTF16Offset)
	default:
		return tok
	}
}
