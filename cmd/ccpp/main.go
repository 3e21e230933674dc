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

// Command ccpp is an example host for the internal/cc/pp engine: it
// resolves #include directives against a list of search directories,
// predefines macros from -D flags and a -os/-arch platform pair, runs the
// driver over one source file and writes the preprocessed token stream to
// stdout (or -o).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cc-tools/ccpreprocess/internal/cc/lexer"
	"github.com/cc-tools/ccpreprocess/internal/cc/platform"
	"github.com/cc-tools/ccpreprocess/internal/cc/pp"
	"github.com/cc-tools/ccpreprocess/internal/cc/snapshot"
)

func main() {
	var includeDirs stringList
	var defines stringList
	flag.Var(&includeDirs, "I", "Repeated include search directory")
	flag.Var(&defines, "D", "Repeated macro predefine, NAME or NAME=VALUE")
	output := flag.String("o", "", "Output file path for preprocessed tokens (default stdout)")
	eventsPath := flag.String("events", "", "Optional output file path for the binary event log")
	osName := flag.String("os", "", "Predefine platform macros for this OS (e.g. linux, windows, macos)")
	archName := flag.String("arch", "", "Predefine platform macros for this architecture (e.g. x86_64, arm64)")
	keepComments := flag.Bool("keep-comments", false, "Keep comment tokens in the output")
	lineMarkers := flag.Bool("line-markers", false, "Emit line markers")
	markExpanded := flag.Bool("mark-expanded", false, "Bracket macro-expanded regions with sentinel markers")
	noFunctionMacros := flag.Bool("no-function-macros", false, "Disable function-like macro expansion")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("ccpp requires exactly 1 argument - a path to the source file to preprocess")
	}
	srcPath := flag.Arg(0)

	var plat *platform.Platform
	if *osName != "" || *archName != "" {
		p, err := platform.Create(platform.OS(*osName), platform.Arch(*archName))
		if err != nil {
			log.Fatalf("invalid -os/-arch: %v", err)
		}
		plat = &p
	}

	cfg := pp.RunConfig{
		EmitLineMarkers:          *lineMarkers,
		MarkExpandedTokens:       *markExpanded,
		KeepComments:             *keepComments,
		ExpandFunctionLikeMacros: !*noFunctionMacros,
	}

	h := &fsHost{
		includeDirs: includeDirs.values,
		snap:        snapshot.New(),
		predefine:   predefineFunc(defines.values, plat),
		cfg:         cfg,
		visiting:    map[string]bool{},
		logger:      log.Default(),
	}

	result, err := h.runTop(srcPath)
	if err != nil {
		log.Fatalf("failed to preprocess %s: %v", srcPath, err)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to open %s: %v", *output, err)
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, pp.Render(result.Tokens, cfg))

	for _, e := range result.Events.Events {
		if e.Kind == pp.EventDiagnostic {
			h.logger.Printf("%s:%d: %s: %s", srcPath, e.Line, e.DiagnosticKind, e.Message)
		}
	}

	if *eventsPath != "" {
		data, err := result.Events.MarshalBinary()
		if err != nil {
			log.Fatalf("failed to marshal event log: %v", err)
		}
		if err := os.WriteFile(*eventsPath, data, 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", *eventsPath, err)
		}
	}
}

// fsHost resolves #include directives against a fixed list of search
// directories plus the including file's own directory, recursively
// preprocessing each header it discovers into h.snap so later #include
// directives (in this file or any other) see its macros without
// reprocessing it.
type fsHost struct {
	includeDirs []string
	snap        *snapshot.Snapshot
	predefine   func(env *pp.Environment)
	cfg         pp.RunConfig
	visiting    map[string]bool
	logger      *log.Logger
}

func (h *fsHost) runTop(path string) (pp.Result, error) {
	return h.process(path)
}

// ensureProcessed runs the full driver over path once, recording its
// resolved includes and final macro bindings in h.snap, so any document
// that later #includes path can pick those bindings up via Snapshot.Lookup.
func (h *fsHost) ensureProcessed(path string) {
	if _, ok := h.snap.Lookup(path); ok {
		return
	}
	if h.visiting[path] {
		return
	}
	h.visiting[path] = true
	defer delete(h.visiting, path)

	if _, err := h.process(path); err != nil {
		h.logger.Printf("%s: %v, skipping", path, err)
	}
}

// process runs one driver over path, recording its resolved includes and
// final macro bindings in h.snap before returning the preprocessed result.
func (h *fsHost) process(path string) (pp.Result, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return pp.Result{}, err
	}
	env := pp.NewEnvironment()
	h.predefine(env)

	var resolvedIncludes []string
	host := pp.Host{
		Snapshot: h.snap,
		SourceNeeded: func(req pp.IncludeRequest) {
			resolved, ok := h.resolve(filepath.Dir(path), req.Path, req.Mode)
			if !ok {
				h.logger.Printf("%s: could not resolve #include %q", path, req.Path)
				return
			}
			resolvedIncludes = append(resolvedIncludes, resolved)
			h.ensureProcessed(resolved)
			if doc, ok := h.snap.Lookup(resolved); ok {
				for _, m := range doc.DefinedMacros() {
					env.Bind(m)
				}
			}
		},
	}

	cfg := h.cfg
	cfg.Path = path
	src := &pp.SourceBuffer{Path: path, Bytes: bytes}
	lx := lexer.NewLexer(bytes, lexer.Mode{CommentTokens: h.cfg.KeepComments})
	d := pp.NewDriver(cfg, host, env, src, lx)
	result := d.Run()
	h.snap.Add(path, 1, resolvedIncludes, collectMacros(env))
	return result, nil
}

// resolve applies the usual quote/angle search order: a local (quoted)
// include tries fromDir first, then every -I directory in order; a global
// (angle-bracket) or #include_next request skips fromDir and only searches
// -I directories.
func (h *fsHost) resolve(fromDir, path string, mode pp.IncludeMode) (string, bool) {
	var dirs []string
	if mode == pp.IncludeLocal {
		dirs = append(dirs, fromDir)
	}
	dirs = append(dirs, h.includeDirs...)
	for _, dir := range dirs {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func collectMacros(env *pp.Environment) []*pp.Macro {
	var macros []*pp.Macro
	for m := range env.All() {
		macros = append(macros, m)
	}
	return macros
}

// predefineFunc builds the seed function run against every fresh
// Environment before its driver starts: platform macros first, then -D
// flags applied as an ordinary #define prelude so they go through the same
// parsing path as any other definition.
func predefineFunc(defines []string, plat *platform.Platform) func(env *pp.Environment) {
	var prelude strings.Builder
	for _, d := range defines {
		name, val, hasVal := strings.Cut(d, "=")
		if !hasVal {
			val = "1"
		}
		fmt.Fprintf(&prelude, "#define %s %s\n", name, val)
	}
	text := prelude.String()

	return func(env *pp.Environment) {
		if plat != nil {
			platform.Seed(env, *plat)
		}
		if text == "" {
			return
		}
		src := &pp.SourceBuffer{Path: "<command-line>", Bytes: []byte(text)}
		lx := lexer.NewLexer([]byte(text), lexer.Mode{})
		pp.NewDriver(pp.RunConfig{}, pp.Host{}, env, src, lx).Run()
	}
}

// spell is a plain-text token stringifier with no line markers and no
// expansion-marker guard lines; unlike pp.Render (the actual -o/stdout
// output path), it only writes a newline before any token (after the first)
// that starts a new line, and otherwise a space before a token that carries
// leading whitespace. Kept for quick debugging of a token slice.
func spell(toks []pp.PreprocessingToken) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			if t.AtNewline {
				b.WriteByte('\n')
			} else if t.HasLeadingWhitespace {
				b.WriteByte(' ')
			}
		}
		if t.Kind == pp.KindSentinel {
			b.WriteString("«")
			continue
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// stringList implements flag.Value, accumulating every -I/-D occurrence
// instead of keeping only the last one, matching index/vendor/main.go's
// selectorsList pattern.
type stringList struct {
	values []string
}

func (s *stringList) String() string { return strings.Join(s.values, ",") }

func (s *stringList) Set(value string) error {
	s.values = append(s.values, value)
	return nil
}
