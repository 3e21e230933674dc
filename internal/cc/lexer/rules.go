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

package lexer

import "regexp"

var (
	reContinueLine   = regexp.MustCompile(`^\\[\t\v\f\r ]*\n`)
	reAngleString    = regexp.MustCompile(`^<[^>\n]*>`)
	reLiteralInteger = regexp.MustCompile(`^(?i:0x[0-9a-f]+|0b[01]+|0[0-7]*|[1-9][0-9]*|0)(?:u(?:ll?|LL?)?|ll?u?|LL?u?)?`)
	reLiteralString  = regexp.MustCompile(`^"(?:[^"\\\n]|\\.)*"`)
	reIdentifier     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// punctuators lists fixed-text punctuator spellings, longest first so that
// e.g. "##" is preferred over "#" and "<<=" would be preferred over "<<".
// Order within an equal-length group does not matter.
var punctuators = []struct {
	text string
	typ  TokenType
}{
	{"...", TokenType_Ellipsis},
	{"##", TokenType_OperatorHashHash},
	{"==", TokenType_OperatorEqual},
	{"!=", TokenType_OperatorNotEqual},
	{"<=", TokenType_OperatorLessOrEqual},
	{">=", TokenType_OperatorGreaterOrEqual},
	{"&&", TokenType_OperatorLogicalAnd},
	{"||", TokenType_OperatorLogicalOr},
	{"<<", TokenType_OperatorShiftLeft},
	{">>", TokenType_OperatorShiftRight},
	{"#", TokenType_OperatorHash},
	{"(", TokenType_ParenthesisLeft},
	{")", TokenType_ParenthesisRight},
	{"{", TokenType_BraceLeft},
	{"}", TokenType_BraceRight},
	{"[", TokenType_BracketLeft},
	{"]", TokenType_BracketRight},
	{",", TokenType_Comma},
	{";", TokenType_Semicolon},
	{"<", TokenType_OperatorLess},
	{">", TokenType_OperatorGreater},
	{"!", TokenType_OperatorLogicalNot},
	{"&", TokenType_OperatorAmp},
	{"|", TokenType_OperatorPipe},
	{"^", TokenType_OperatorCaret},
	{"~", TokenType_OperatorTilde},
	{"+", TokenType_OperatorPlus},
	{"-", TokenType_OperatorMinus},
	{"*", TokenType_OperatorStar},
	{"/", TokenType_OperatorSlash},
	{"%", TokenType_OperatorPercent},
	{"?", TokenType_OperatorQuestion},
	{":", TokenType_OperatorColon},
	{"=", TokenType_Other},
}
