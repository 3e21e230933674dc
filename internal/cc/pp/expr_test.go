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

	"github.com/cc-tools/ccpreprocess/internal/cc/lexer"
)

// evalExprSrc lexes src (a bare constant expression, no leading '#if') into
// PreprocessingTokens and evaluates it against env.
func evalExprSrc(t *testing.T, src string, env *Environment) int64 {
	t.Helper()
	lx := lexer.NewLexer([]byte(src), lexer.Mode{})
	var toks []PreprocessingToken
	for lt := lx.NextToken(); lt.Type != lexer.TokenType_EOF; lt = lx.NextToken() {
		toks = append(toks, fromLexerToken(lt, nil))
	}
	v, err := EvaluateExpr(toks, env)
	require.NoError(t, err)
	return v
}

func TestEvaluateExprArithmeticPrecedence(t *testing.T) {
	env := NewEnvironment()
	cases := map[string]int64{
		"1 + 2 * 3":    7,
		"(1 + 2) * 3":  9,
		"10 % 3":       1,
		"1 << 4":       16,
		"0x10":         16,
		"010":          8,
		"1 ? 2 : 3":    2,
		"0 ? 2 : 3":    3,
		"1 && 0 || 1":  1,
		"!0":           1,
		"~0 == -1":     1,
		"5 > 3 && 2<4": 1,
	}
	for src, want := range cases {
		assert.Equal(t, want, evalExprSrc(t, src, env), src)
	}
}

func TestEvaluateExprDefined(t *testing.T) {
	env := NewEnvironment()
	env.Bind(&Macro{Name: "FOO", Body: []PreprocessingToken{{Kind: KindNumber, Text: "1"}}})

	assert.Equal(t, int64(1), evalExprSrc(t, "defined(FOO)", env))
	assert.Equal(t, int64(1), evalExprSrc(t, "defined FOO", env))
	assert.Equal(t, int64(0), evalExprSrc(t, "defined(BAR)", env))
	assert.Equal(t, int64(1), evalExprSrc(t, "defined(__LINE__)", env))
}

func TestEvaluateExprUnsignedComparison(t *testing.T) {
	env := NewEnvironment()
	// -1 as a signed value is less than 1, but once compared against an
	// unsigned operand the whole expression upgrades and -1 becomes huge.
	assert.Equal(t, int64(1), evalExprSrc(t, "-1 < 1", env))
	assert.Equal(t, int64(0), evalExprSrc(t, "-1 < 1u", env))
}

func TestEvaluateExprDivisionByZeroIsZero(t *testing.T) {
	env := NewEnvironment()
	assert.Equal(t, int64(0), evalExprSrc(t, "5 / 0", env))
	assert.Equal(t, int64(0), evalExprSrc(t, "5 % 0", env))
}

func TestEvaluateExprUnresolvedIdentifierIsZero(t *testing.T) {
	env := NewEnvironment()
	assert.Equal(t, int64(0), evalExprSrc(t, "UNDEFINED_NAME", env))
	assert.Equal(t, int64(1), evalExprSrc(t, "UNDEFINED_NAME + 1", env))
}

func TestEvaluateExprTrailingTokenIsError(t *testing.T) {
	lx := lexer.NewLexer([]byte("1 1"), lexer.Mode{})
	var toks []PreprocessingToken
	for lt := lx.NextToken(); lt.Type != lexer.TokenType_EOF; lt = lx.NextToken() {
		toks = append(toks, fromLexerToken(lt, nil))
	}
	_, err := EvaluateExpr(toks, NewEnvironment())
	assert.Error(t, err)
}
