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
	"context"

	"golang.org/x/sync/errgroup"
)

// Unit is one translation unit to preprocess: its own source, token
// source and starting environment. Each Unit gets its own Driver and its
// own Environment, so no mutable state is shared between goroutines; only
// host.Snapshot (read-only per §6's concurrency note) may be shared.
type Unit struct {
	Name string
	Cfg  RunConfig
	Host Host
	Env  *Environment
	Src  *SourceBuffer
	Lex  TokenSource
}

// UnitResult pairs a Unit's Name with its Result, or the error the unit's
// goroutine returned (only possible if ctx is canceled or a sibling unit
// fails fatally; Driver.Run itself never returns an error, per §7).
type UnitResult struct {
	Name   string
	Result Result
	Err    error
}

// RunMany runs every unit's driver concurrently, bounded to maxParallel
// simultaneous drivers (0 or negative means unbounded), and returns one
// UnitResult per unit in the same order as units. It stops launching new
// units once ctx is canceled, matching §11's "concurrency across
// translation units, bounded" requirement; a single unit never aborts the
// others since Driver.Run has no fatal error path of its own.
func RunMany(ctx context.Context, units []Unit, maxParallel int) []UnitResult {
	results := make([]UnitResult, len(units))
	g, ctx := errgroup.WithContext(ctx)
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}

	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = UnitResult{Name: u.Name, Err: err}
				return err
			}
			d := NewDriver(u.Cfg, u.Host, u.Env, u.Src, u.Lex)
			results[i] = UnitResult{Name: u.Name, Result: d.Run()}
			return nil
		})
	}

	// Errors here only ever come from a canceled context (set up by the
	// caller, or by a sibling goroutine observing one); Driver.Run itself
	// is infallible, so the per-unit Err fields above are what callers
	// should inspect, not this return value.
	_ = g.Wait()
	return results
}
