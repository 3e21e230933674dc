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

import "errors"

var (
	errElifWithoutIf  = errors.New("#elif without matching #if")
	errElseWithoutIf  = errors.New("#else without matching #if")
	errEndifWithoutIf = errors.New("#endif without matching #if")
	errDuplicateElse  = errors.New("duplicate #else")
	errElifAfterElse  = errors.New("#elif after #else")
)

// ConditionalState is the C6 conditional-nesting stack: parallel bit
// arrays indexed by if_level, per §3. skipping[i] is whether the branch
// currently active at level i should be discarded from the output;
// trueSeen[i] is whether any branch at level i has already matched, which
// #elif and #else both need to decide their own skip bit.
type ConditionalState struct {
	skipping []bool
	trueSeen []bool
	elseSeen []bool
	maxDepth int
	overflow bool
}

// NewConditionalState returns an empty stack. maxDepth <= 0 uses the
// recommended default of 512.
func NewConditionalState(maxDepth int) *ConditionalState {
	if maxDepth <= 0 {
		maxDepth = 512
	}
	return &ConditionalState{maxDepth: maxDepth}
}

// Skipping reports whether tokens at the current nesting level should be
// discarded rather than emitted/expanded.
func (s *ConditionalState) Skipping() bool {
	n := len(s.skipping)
	return n > 0 && s.skipping[n-1]
}

// Depth returns the current #if nesting depth.
func (s *ConditionalState) Depth() int { return len(s.skipping) }

// PushIf opens a new #if/#ifdef/#ifndef level. conditionTrue is ignored
// (and should not have been evaluated at all by the caller, to avoid
// spuriously erroring on an inactive branch) if a parent level is already
// skipping. Returns false if the nesting cap was hit, in which case the
// level is NOT pushed and the cap is simply held at maxDepth (remaining
// input at deeper levels is treated as part of the outermost exceeded
// branch, per §7's nesting-overflow policy of clamping rather than
// aborting).
func (s *ConditionalState) PushIf(conditionTrue bool) (ok bool) {
	parentSkipping := s.Skipping()
	if len(s.skipping) >= s.maxDepth {
		s.overflow = true
		return false
	}
	skip := parentSkipping || !conditionTrue
	seen := !parentSkipping && conditionTrue
	s.skipping = append(s.skipping, skip)
	s.trueSeen = append(s.trueSeen, seen)
	s.elseSeen = append(s.elseSeen, false)
	return true
}

// PushElif updates the current level for an #elif branch.
func (s *ConditionalState) PushElif(conditionTrue bool) error {
	n := len(s.skipping)
	if n == 0 {
		return errElifWithoutIf
	}
	i := n - 1
	if s.elseSeen[i] {
		return errElifAfterElse
	}
	parentSkipping := i > 0 && s.skipping[i-1]
	switch {
	case parentSkipping:
		s.skipping[i] = true
	case s.trueSeen[i]:
		s.skipping[i] = true
	default:
		s.skipping[i] = !conditionTrue
		if conditionTrue {
			s.trueSeen[i] = true
		}
	}
	return nil
}

// Else updates the current level for an #else branch.
func (s *ConditionalState) Else() error {
	n := len(s.skipping)
	if n == 0 {
		return errElseWithoutIf
	}
	i := n - 1
	if s.elseSeen[i] {
		return errDuplicateElse
	}
	s.elseSeen[i] = true
	parentSkipping := i > 0 && s.skipping[i-1]
	s.skipping[i] = parentSkipping || s.trueSeen[i]
	if !parentSkipping && !s.trueSeen[i] {
		s.trueSeen[i] = true
	}
	return nil
}

// Endif closes the current level.
func (s *ConditionalState) Endif() error {
	n := len(s.skipping)
	if n == 0 {
		return errEndifWithoutIf
	}
	s.skipping = s.skipping[:n-1]
	s.trueSeen = s.trueSeen[:n-1]
	s.elseSeen = s.elseSeen[:n-1]
	return nil
}
