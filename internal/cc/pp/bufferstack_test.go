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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tok(text string) PreprocessingToken {
	return PreprocessingToken{Kind: KindIdentifier, Text: text}
}

func TestBufferStackPushAndNext(t *testing.T) {
	s := NewBufferStack(8)
	ok := s.Push([]PreprocessingToken{tok("a"), tok("b")}, nil)
	require.True(t, ok)

	first, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "a", first.Text)

	second, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "b", second.Text)

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestBufferStackMergesUnblockedPushes(t *testing.T) {
	s := NewBufferStack(8)
	s.Push([]PreprocessingToken{tok("a")}, nil)
	s.Push([]PreprocessingToken{tok("b")}, nil)
	assert.Equal(t, 1, s.Depth(), "two nil-blocking pushes should merge into one frame")

	first, _ := s.Next()
	assert.Equal(t, "b", first.Text, "the later push should be read first")
}

func TestBufferStackBlockedByPointerAndName(t *testing.T) {
	s := NewBufferStack(8)
	m := &Macro{Name: "X"}
	s.Push([]PreprocessingToken{tok("X")}, m)

	assert.True(t, s.Blocked(m))
	assert.True(t, s.Blocked(&Macro{Name: "X"}), "blocking is also checked by name")
	assert.False(t, s.Blocked(&Macro{Name: "Y"}))
}

func TestBufferStackDrainDroppedFiresOnExhaustion(t *testing.T) {
	s := NewBufferStack(8)
	m := &Macro{Name: "X"}
	s.Push([]PreprocessingToken{tok("X")}, m)

	assert.Empty(t, s.DrainDropped())
	s.Next() // consumes the only token in the frame
	dropped := s.DrainDropped()
	require.Len(t, dropped, 1)
	assert.Same(t, m, dropped[0])
	assert.Empty(t, s.DrainDropped(), "drain clears the pending list")
}

func TestBufferStackOverflow(t *testing.T) {
	s := NewBufferStack(2)
	s.Push([]PreprocessingToken{tok("a")}, &Macro{Name: "A"})
	s.Push([]PreprocessingToken{tok("b")}, &Macro{Name: "B"})
	ok := s.Push([]PreprocessingToken{tok("c")}, &Macro{Name: "C"})
	assert.False(t, ok, "a third distinct blocking frame should overflow a depth-2 stack")
}

func TestBufferStackEmptyPushIsNoop(t *testing.T) {
	s := NewBufferStack(8)
	ok := s.Push(nil, &Macro{Name: "X"})
	assert.True(t, ok)
	assert.Equal(t, 0, s.Depth())
}
