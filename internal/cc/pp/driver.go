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

import "strings"

// Result is everything one Driver.Run produces: the preprocessed token
// stream and the side-channel notification log (§4.6).
type Result struct {
	Tokens []PreprocessingToken
	Events EventLog
}

// Driver is the C6 directive/expansion engine: it pulls tokens from a
// TokenSource, recognizes directive lines, maintains the Environment,
// ConditionalState and IncludeGuardTracker, and runs macro expansion over
// everything else via the shared tryExpand/expandTokenList machinery.
type Driver struct {
	cfg   RunConfig
	host  Host
	env   *Environment
	buf   *BufferStack
	cond  *ConditionalState
	guard *IncludeGuardTracker
	arena Arena
	src   *SourceBuffer
	lex   TokenSource

	feed *tokenFeed

	out    []PreprocessingToken
	events EventLog
}

// NewDriver builds a driver reading from lex over src, with env as the
// (possibly pre-seeded, per C7) starting macro environment.
func NewDriver(cfg RunConfig, host Host, env *Environment, src *SourceBuffer, lex TokenSource) *Driver {
	cfg = cfg.withDefaults()
	d := &Driver{
		cfg:   cfg,
		host:  host,
		env:   env,
		cond:  NewConditionalState(cfg.MaxConditionalNesting),
		guard: NewIncludeGuardTracker(),
		src:   src,
		lex:   lex,
	}
	d.feed = newTokenFeed(cfg.MaxBufferDepth, d.pullFromLexer)
	d.buf = d.feed.buf
	return d
}

func (d *Driver) pullFromLexer() (PreprocessingToken, bool) {
	pt := fromLexerToken(d.lex.NextToken(), d.src)
	if pt.Kind == KindEOF {
		return PreprocessingToken{}, false
	}
	return pt, true
}

func (d *Driver) next() PreprocessingToken { return d.feed.next() }
func (d *Driver) unread(t PreprocessingToken) { d.feed.unread(t) }

// Run consumes the entire token source, returning the preprocessed output
// and event log. It never aborts on a recoverable failure (§7): every
// Diagnostic is appended to the event log and the run continues.
func (d *Driver) Run() Result {
	for {
		t := d.next()
		if t.Kind == KindEOF {
			break
		}
		d.drainExpansionStops()

		if t.AtNewline && t.Kind == KindPunctuator && t.Text == "#" {
			wasSkipping := d.cond.Skipping()
			d.handleDirectiveLine(t)
			d.observeSkipTransition(wasSkipping)
			continue
		}
		if t.Kind == KindComment {
			if d.cfg.KeepComments && !d.cond.Skipping() {
				d.out = append(d.out, t)
			}
			continue
		}
		if d.cond.Skipping() {
			continue
		}
		if t.Kind == KindSentinel {
			d.out = append(d.out, t)
			continue
		}
		if t.IsIdentifier() {
			if replacement, blocking, expanded, diag := tryExpand(t, d.feed, d.env, d.cfg, &d.arena, &d.events); expanded {
				if diag != nil {
					d.emitDiagnostic(diag)
				}
				if d.cfg.MarkExpandedTokens {
					replacement = d.wrapWithMarkers(replacement, t)
				}
				if !d.buf.Push(replacement, blocking) {
					d.emitDiagnostic(newDiagnostic(ExpansionOverflow, t, "buffer stack overflow expanding %q", t.Text))
					d.out = append(d.out, t)
				}
				continue
			} else if diag != nil {
				d.emitDiagnostic(diag)
			}
		}
		d.guard.Observe(HintOther, "")
		d.out = append(d.out, t)
	}
	d.drainExpansionStops()
	return Result{Tokens: d.out, Events: d.events}
}

// observeSkipTransition emits skipping_started/skipping_stopped (§4.6) when
// a directive line just processed flipped whether the driver is currently
// discarding tokens inside an inactive conditional branch.
func (d *Driver) observeSkipTransition(wasSkipping bool) {
	nowSkipping := d.cond.Skipping()
	switch {
	case !wasSkipping && nowSkipping:
		d.events.append(Event{Kind: EventSkippingStarted})
	case wasSkipping && !nowSkipping:
		d.events.append(Event{Kind: EventSkippingStopped})
	}
}

// drainExpansionStops emits expansion_stopped for every macro whose
// rescanned replacement has just been fully consumed, polled once per
// token pulled (§4.6: "stopped fires exactly when the buffered replacement
// for that macro is exhausted").
func (d *Driver) drainExpansionStops() {
	for _, m := range d.buf.DrainDropped() {
		d.events.append(Event{Kind: EventExpansionStopped, Name: m.Name})
	}
}

// wrapWithMarkers brackets a macro's replacement with zero-width
// KindSentinel tokens (§3's expansion begin/end markers) so Render can
// later emit the paired "# expansion begin/end" guard lines (§6) around
// exactly the span that came from macro substitution. Markers carry the
// replaced-from name as their Text and the reference token's byte range,
// which becomes the "# expansion begin offset,length" header.
func (d *Driver) wrapWithMarkers(replacement []PreprocessingToken, ref PreprocessingToken) []PreprocessingToken {
	begin := d.arena.NewGenerated(KindSentinel, ref.Text, ref.Line, ref.ByteOffset, ref.UTF16Offset)
	begin.ByteLength = ref.ByteLength
	begin.Opening = true
	end := d.arena.NewGenerated(KindSentinel, ref.Text, ref.Line, ref.ByteOffset, ref.UTF16Offset)
	out := make([]PreprocessingToken, 0, len(replacement)+2)
	out = append(out, begin)
	out = append(out, replacement...)
	out = append(out, end)
	return out
}

func (d *Driver) emitDiagnostic(diag *Diagnostic) {
	d.events.append(Event{
		Kind:           EventDiagnostic,
		DiagnosticKind: diag.Kind,
		Message:        diag.Message,
		Line:           int32(diag.Line),
		ByteOffset:     int64(diag.ByteOffset),
		UTF16Offset:    int64(diag.UTF16Offset),
	})
	d.cfg.Logger.Printf("%s", diag.Error())
}

// readRestOfLine pulls every token through (but not including) the next
// AtNewline-starting token or EOF, forming one logical directive line.
// Tokens straddling a backslash-newline splice are NOT separators (the
// lexer never reports Joined/spliced content as AtNewline).
func (d *Driver) readRestOfLine() []PreprocessingToken {
	var line []PreprocessingToken
	for {
		t := d.next()
		if t.Kind == KindEOF {
			return line
		}
		if t.AtNewline {
			d.unread(t)
			return line
		}
		if t.Kind == KindComment {
			continue
		}
		line = append(line, t)
	}
}

// handleDirectiveLine processes one `#...` directive line. hashTok is the
// leading '#' itself, already consumed from the feed by Run.
func (d *Driver) handleDirectiveLine(hashTok PreprocessingToken) {
	nameTok := d.next()
	if nameTok.Kind == KindEOF || nameTok.AtNewline {
		// A bare '#' on its own line is a legal null directive.
		if nameTok.AtNewline && nameTok.Kind != KindEOF {
			d.unread(nameTok)
		}
		d.guard.Observe(HintOther, "")
		return
	}
	name := nameTok.Text
	skipping := d.cond.Skipping()

	switch name {
	case "if", "ifdef", "ifndef":
		d.handleIf(name, skipping)
	case "elif":
		d.handleElif()
	case "else":
		d.readRestOfLine()
		if err := d.cond.Else(); err != nil {
			d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: err.Error(), Line: hashTok.Line})
		}
		d.guard.Observe(HintOther, "")
	case "endif":
		d.readRestOfLine()
		err := d.cond.Endif()
		if err != nil {
			d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: err.Error(), Line: hashTok.Line})
		}
		if err == nil && d.cond.Depth() == 0 {
			guardPending := d.guard.state == GuardAfterDefine
			d.guard.Observe(HintEndif, "")
			if guardPending && d.guard.state == GuardAfterEndif {
				name, _ := d.guard.GuardMacro()
				d.events.append(Event{Kind: EventIncludeGuardDetected, Name: name, Line: int32(hashTok.Line)})
			}
		} else {
			d.guard.Observe(HintOther, "")
		}
	default:
		if skipping {
			d.readRestOfLine()
			return
		}
		switch name {
		case "define":
			d.handleDefine()
		case "undef":
			d.handleUndef()
			d.guard.Observe(HintOther, "")
		case "include", "include_next", "import":
			d.handleInclude(name, hashTok)
			d.guard.Observe(HintOther, "")
		case "line":
			d.readRestOfLine() // tolerated, not acted on (§9 Open Question)
			d.guard.Observe(HintOther, "")
		case "error":
			msg := spellLine(d.readRestOfLine())
			d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: "#error " + msg, Line: hashTok.Line})
			d.guard.Observe(HintOther, "")
		case "pragma":
			d.readRestOfLine()
			d.guard.Observe(HintOther, "")
		default:
			d.readRestOfLine()
			d.emitDiagnostic(newDiagnostic(MalformedDirective, nameTok, "unknown directive %q", name))
			d.guard.Observe(HintOther, "")
		}
	}
}

func spellLine(toks []PreprocessingToken) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.HasLeadingWhitespace {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func (d *Driver) handleIf(kind string, parentSkipping bool) {
	line := d.readRestOfLine()
	atTop := d.cond.Depth() == 0
	conditionTrue := false
	hint := HintOther
	var ident string
	switch kind {
	case "ifdef", "ifndef":
		if len(line) > 0 && line[0].IsIdentifier() {
			ident = line[0].Text
		} else {
			d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: "expected identifier after #" + kind})
		}
		_, defined := d.env.Resolve(ident)
		defined = defined || IsBuiltin(ident)
		conditionTrue = defined
		if kind == "ifndef" {
			conditionTrue = !defined
			if atTop {
				hint = HintIfndef
			}
		}
		d.emitDefinedEvent(ident, defined)
	case "if":
		if !parentSkipping {
			expanded := expandConditionLine(line, d.env, d.cfg, &d.arena)
			v, err := EvaluateExpr(expanded, d.env)
			if err != nil {
				d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: err.Error()})
			} else {
				conditionTrue = v != 0
			}
		}
	}
	if !d.cond.PushIf(conditionTrue) {
		d.emitDiagnostic(&Diagnostic{Kind: NestingOverflow, Message: "conditional nesting too deep"})
	}
	if !parentSkipping {
		d.guard.Observe(hint, ident)
	}
}

func (d *Driver) emitDefinedEvent(name string, ok bool) {
	kind := EventDefinedCheckFailed
	if ok {
		kind = EventDefinedCheckPassed
	}
	d.events.append(Event{Kind: kind, Name: name})
}

func (d *Driver) handleElif() {
	line := d.readRestOfLine()
	n := d.cond.Depth()
	parentSkipping := n > 1 && d.cond.skipping[n-2]
	conditionTrue := false
	if !parentSkipping {
		expanded := expandConditionLine(line, d.env, d.cfg, &d.arena)
		v, err := EvaluateExpr(expanded, d.env)
		if err != nil {
			d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: err.Error()})
		} else {
			conditionTrue = v != 0
		}
	}
	if err := d.cond.PushElif(conditionTrue); err != nil {
		d.emitDiagnostic(&Diagnostic{Kind: MalformedDirective, Message: err.Error()})
	}
}

func (d *Driver) handleDefine() {
	nameTok := d.next()
	if !nameTok.IsIdentifier() {
		d.readRestOfLine()
		d.emitDiagnostic(newDiagnostic(MalformedDirective, nameTok, "expected identifier after #define"))
		return
	}
	m := &Macro{
		Name:         nameTok.Text,
		FilePath:     pathOf(d.src),
		FileRevision: d.src.Revision,
		Line:         nameTok.Line,
		ByteOffset:   nameTok.ByteOffset,
		UTF16Offset:  nameTok.UTF16Offset,
	}
	next := d.next()
	if next.Kind == KindPunctuator && next.Text == "(" && !next.HasLeadingWhitespace {
		m.FunctionLike = true
		d.parseFormals(m)
	} else {
		d.unread(next)
	}
	m.Body = d.readRestOfLine()
	if len(m.Body) > 0 {
		first, last := m.Body[0], m.Body[len(m.Body)-1]
		start, end := first.ByteOffset, last.ByteOffset+last.ByteLength
		if d.src != nil && first.Source == d.src && last.Source == d.src && 0 <= start && start <= end && end <= len(d.src.Bytes) {
			m.DefinitionText = string(d.src.Bytes[start:end])
		} else {
			m.DefinitionText = spellLine(m.Body)
		}
	}
	d.env.Bind(m)
	d.events.append(Event{Kind: EventMacroAdded, Name: m.Name, Line: int32(m.Line)})
	if d.cond.Depth() == 1 {
		d.guard.Observe(HintDefine, m.Name)
	} else {
		d.guard.Observe(HintOther, "")
	}
}

func pathOf(src *SourceBuffer) string {
	if src == nil {
		return ""
	}
	return src.Path
}

func (d *Driver) parseFormals(m *Macro) {
	for {
		t := d.next()
		if t.Kind == KindEOF || t.AtNewline {
			d.unread(t)
			return
		}
		switch {
		case t.Kind == KindPunctuator && t.Text == ")":
			return
		case t.Kind == KindPunctuator && t.Text == ",":
			continue
		case t.Kind == KindPunctuator && t.Text == "...":
			m.Variadic = true
		case t.IsIdentifier():
			m.Formals = append(m.Formals, t.Text)
		}
	}
}

func (d *Driver) handleUndef() {
	nameTok := d.next()
	d.readRestOfLine()
	if !nameTok.IsIdentifier() {
		d.emitDiagnostic(newDiagnostic(MalformedDirective, nameTok, "expected identifier after #undef"))
		return
	}
	if m, ok := d.env.Remove(nameTok.Text); ok {
		d.events.append(Event{Kind: EventMacroReference, Name: m.Name, Line: int32(nameTok.Line)})
	}
}

func (d *Driver) handleInclude(name string, hashTok PreprocessingToken) {
	d.lex.SetAngleStringMode(true)
	pathTok := d.next()
	d.lex.SetAngleStringMode(false)
	if pathTok.Kind == KindEOF || pathTok.AtNewline {
		if pathTok.AtNewline {
			d.unread(pathTok)
		}
		d.emitDiagnostic(newDiagnostic(MalformedDirective, hashTok, "missing path after #%s", name))
		return
	}
	line := d.readRestOfLine()

	mode := IncludeLocal
	path := pathTok.Text
	switch {
	case pathTok.Kind == KindAngleString:
		mode = IncludeGlobal
		path = strings.Trim(path, "<>")
	case pathTok.Kind == KindString:
		path = strings.Trim(path, `"`)
	default:
		// Macro-expanded include path (`#include SOME_HEADER`): the path
		// token wasn't lexed as a literal because angle-string mode only
		// recognizes `<...>` immediately, so re-assemble from the
		// (already macro-expandable) rest of the line.
		all := append([]PreprocessingToken{pathTok}, line...)
		expanded := expandTokenList(all, d.env, d.cfg, &d.arena)
		if len(expanded) == 0 {
			d.emitDiagnostic(newDiagnostic(MalformedDirective, hashTok, "malformed #%s", name))
			return
		}
		first := expanded[0]
		if first.Kind == KindAngleString {
			mode, path = IncludeGlobal, strings.Trim(first.Text, "<>")
		} else {
			path = strings.Trim(first.Text, `"`)
		}
	}
	if name == "include_next" {
		mode = IncludeNext
	}
	d.events.append(Event{
		Kind:            EventIncludeRequested,
		Path:            path,
		Mode:            mode,
		SingleInclusion: name == "import",
		Line:            int32(hashTok.Line),
	})
	if d.host.SourceNeeded != nil {
		d.host.SourceNeeded(IncludeRequest{Line: hashTok.Line, Path: path, Mode: mode, SingleInclusion: name == "import"})
	}
	if d.host.Snapshot != nil {
		if doc, ok := d.host.Snapshot.Lookup(path); ok {
			for _, m := range doc.DefinedMacros() {
				d.env.Bind(m)
			}
		}
	}
}

// GuardResult reports the include-guard macro name the driver observed
// across the whole run, for the host to record against this file (§4.5).
func (d *Driver) GuardResult() (name string, ok bool) { return d.guard.GuardMacro() }
