// Copyright 2022 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
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

package dsl

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// dslLexer tokenizes rule declarations. Newlines are whitespace to the
// grammar; an unterminated string or a character no rule matches surfaces
// as a lex error with position.
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|#[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(\\"|[^"\n])*"`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}():.,]`},
})

// ruleParser binds the grammar to the lexer. Keywords match
// case-insensitively while the original lexeme stays available in parse
// errors.
var ruleParser = participle.MustBuild[RuleDecl](
	participle.Lexer(dslLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)

// SyntaxError wraps a lex or parse failure with its source location.
type SyntaxError struct {
	Pos     lexer.Position
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("dsl syntax error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}

	return fmt.Sprintf("dsl syntax error: %s", e.Message)
}

// Parse parses one rule declaration from source. Failures come back as a
// *SyntaxError carrying the location when the parser could determine one.
func Parse(source string) (*RuleDecl, error) {
	decl, err := ruleParser.ParseString("", source)
	if err != nil {
		var pos lexer.Position
		if perr, ok := err.(participle.Error); ok {
			pos = perr.Position()
		}

		return nil, &SyntaxError{Pos: pos, Message: err.Error()}
	}

	return decl, nil
}
