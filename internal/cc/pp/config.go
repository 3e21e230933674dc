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
	"log"
	"time"
)

// RunConfig bundles every flag and offset base listed under §6 "Input to
// the core", plus the two Open-Question resolutions from SPEC_FULL §13.
// It is passed by value to NewDriver; a zero RunConfig is usable and gets
// sane defaults from withDefaults.
type RunConfig struct {
	Path string

	EmitLineMarkers          bool
	MarkExpandedTokens       bool
	InCondition              bool
	KeepComments             bool
	ExpandFunctionLikeMacros bool

	ByteOffsetBase  int
	UTF16OffsetBase int
	LineBase        int

	// BuildTimestamp seeds __DATE__/__TIME__. Pinning it (rather than
	// reading the process clock, as the original does) makes output
	// reproducible across runs of the same input.
	BuildTimestamp time.Time

	// ReservedIdentifier, when non-nil, is consulted before any
	// macro-expansion attempt on an identifier; if it returns true the
	// identifier is emitted unchanged without even an unbound-macro
	// lookup. Left nil by default: this engine bakes in no reserved-name
	// list of its own (§9).
	ReservedIdentifier func(name string) bool

	MaxConditionalNesting int
	MaxBufferDepth        int
	MaxExpansionTokens    int

	Logger *log.Logger
}

func (c RunConfig) withDefaults() RunConfig {
	if c.MaxConditionalNesting <= 0 {
		c.MaxConditionalNesting = 512
	}
	if c.MaxBufferDepth <= 0 {
		c.MaxBufferDepth = 16000
	}
	if c.MaxExpansionTokens <= 0 {
		c.MaxExpansionTokens = 5000
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

