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

import "iter"

// Environment is a hashed, insertion-ordered store of live macros,
// modeled directly on the original PreprocessorEnvironment: bind always
// appends rather than replacing in place, remove inserts a hidden
// sentinel rather than deleting, and resolve walks backward from the most
// recent binding. Keeping every binding (including hidden ones) lets
// tooling observe the full history of a name, not just its current value.
type Environment struct {
	buckets []*envNode // hash chains, indexed by hashName(name) % len(buckets)
	order   []*Macro   // every binding ever made, oldest first
	count   int        // number of bindings (== len(order))
}

type envNode struct {
	macro *Macro
	next  *envNode
}

// NewEnvironment returns an empty Environment with an initial bucket table.
func NewEnvironment() *Environment {
	return &Environment{buckets: make([]*envNode, 16)}
}

// Clone returns an independent Environment pre-seeded with the same live
// bindings as e, in the same insertion order. Used by C7 to pre-seed a
// fresh run from a snapshot without aliasing the snapshot's own Environment.
func (e *Environment) Clone() *Environment {
	clone := NewEnvironment()
	for _, m := range e.order {
		if live, ok := e.Resolve(m.Name); ok && live == m {
			clone.Bind(m)
		}
	}
	return clone
}

// hashName computes Bernstein's hash (h = 33*h + c) over name's bytes. Any
// stable 32-bit hash suffices per §4.2; this is the one the original
// PreprocessorEnvironment itself uses.
func hashName(name string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(name); i++ {
		h = h*33 + uint32(name[i])
	}
	return h
}

// Bind appends m as the newest binding for m.Name. It never replaces an
// existing node in place; Resolve always finds the newest one.
func (e *Environment) Bind(m *Macro) {
	if float64(e.count+1) > float64(len(e.buckets))*0.5 {
		e.rehash(len(e.buckets) * 2)
	}
	idx := hashName(m.Name) % uint32(len(e.buckets))
	e.buckets[idx] = &envNode{macro: m, next: e.buckets[idx]}
	e.order = append(e.order, m)
	e.count++
}

func (e *Environment) rehash(newSize int) {
	newBuckets := make([]*envNode, newSize)
	for _, m := range e.order {
		idx := hashName(m.Name) % uint32(newSize)
		newBuckets[idx] = &envNode{macro: m, next: newBuckets[idx]}
	}
	e.buckets = newBuckets
}

// Remove binds a hidden sentinel for name, shadowing any prior definition.
// If name was previously bound to a live (non-hidden) macro, ok reports
// true and m is that macro (so the driver can surface a macro_reference
// event before hiding it, per §4.6's undef handling).
func (e *Environment) Remove(name string) (m *Macro, ok bool) {
	m, ok = e.Resolve(name)
	e.Bind(&Macro{Name: name, Hidden: true})
	return m, ok
}

// Resolve returns the most recently bound, non-hidden macro named name, or
// ok=false if name is unbound or its newest binding is hidden.
func (e *Environment) Resolve(name string) (m *Macro, ok bool) {
	idx := hashName(name) % uint32(len(e.buckets))
	var newest *Macro
	for n := e.buckets[idx]; n != nil; n = n.next {
		if n.macro.Name != name {
			continue
		}
		// Bucket chains are built by prepending, so the first match walking
		// the chain is actually the most recently bound one for this name.
		newest = n.macro
		break
	}
	if newest == nil || newest.Hidden {
		return nil, false
	}
	return newest, true
}

// All iterates every binding ever made to e, oldest first, including
// hidden sentinels left behind by #undef.
func (e *Environment) All() iter.Seq[*Macro] {
	return func(yield func(*Macro) bool) {
		for _, m := range e.order {
			if !yield(m) {
				return
			}
		}
	}
}

// IsBuiltin reports whether name is one of the four built-in macros that
// are never stored in the environment and are instead intercepted during
// identifier resolution (§4.2, §4.6 step 1).
func IsBuiltin(name string) bool {
	switch name {
	case "__DATE__", "__FILE__", "__LINE__", "__TIME__":
		return true
	default:
		return false
	}
}
