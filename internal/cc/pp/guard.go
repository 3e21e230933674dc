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

// GuardState is one state of the C5 include-guard finite-state machine.
type GuardState int

const (
	GuardBeforeIfndef GuardState = iota
	GuardAfterIfndef
	GuardAfterDefine
	GuardAfterEndif
	GuardNoGuard
)

// GuardHint is the driver's classification of the token/directive it is
// feeding to the tracker. Only directives relevant to the canonical guard
// idiom get their own hint; everything else (including ordinary tokens at
// nesting depth 0) is HintOther.
type GuardHint int

const (
	HintIfndef GuardHint = iota
	HintDefine
	HintEndif
	HintOther
)

// IncludeGuardTracker recognizes the `#ifndef X / #define X / ... /
// #endif` idiom (§4.5). The driver feeds it a hint for every directive and
// ordinary token it processes; the state machine itself enforces the
// adjacency the idiom requires (the #define must be the very next thing
// after #ifndef, and nothing may follow the closing #endif) simply by
// routing anything unexpected to GuardNoGuard. Comments are never fed to
// it, so a comment anywhere in the file cannot disqualify a guard.
type IncludeGuardTracker struct {
	state GuardState
	name  string
}

// NewIncludeGuardTracker returns a tracker in its initial state.
func NewIncludeGuardTracker() *IncludeGuardTracker {
	return &IncludeGuardTracker{state: GuardBeforeIfndef}
}

// Observe advances the machine given hint and, for Ifndef/Define hints,
// the identifier token that followed the directive.
func (g *IncludeGuardTracker) Observe(hint GuardHint, ident string) {
	switch g.state {
	case GuardBeforeIfndef:
		if hint == HintIfndef && ident != "" {
			g.state, g.name = GuardAfterIfndef, ident
		} else {
			g.state = GuardNoGuard
		}
	case GuardAfterIfndef:
		if hint == HintDefine && ident == g.name {
			g.state = GuardAfterDefine
		} else {
			g.state = GuardNoGuard
		}
	case GuardAfterDefine:
		if hint == HintEndif {
			g.state = GuardAfterEndif
		}
		// HintOther: stay in AfterDefine per the transition table.
	case GuardAfterEndif:
		g.state = GuardNoGuard
	case GuardNoGuard:
		// terminal; stays
	}
}

// GuardMacro returns the captured guard macro name and true if the tracker
// has reached (or is sitting in) a terminal success state.
func (g *IncludeGuardTracker) GuardMacro() (string, bool) {
	if g.state == GuardAfterDefine || g.state == GuardAfterEndif {
		return g.name, true
	}
	return "", false
}
