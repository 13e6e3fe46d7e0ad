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

// Package dsl implements the user-facing rule language: a lexer and
// grammar-driven parser producing a declaration AST, a semantic validator,
// and a compiler emitting rules that plug into the engine with the same
// contract as built-ins. Rule definitions persist as one JSON document per
// rule under the storage root.
package dsl

import "strconv"

// RuleDecl is the parsed form of one rule declaration:
//
//	rule "AsyncFns" {
//	  description: "matches async functions"
//	  target: "function_declaration"
//	  condition { contentPattern: "async"
//	              complexity: greaterThan(5) }
//	  action { type: extract
//	           parameters: { includeComments: true } }
//	}
type RuleDecl struct {
	Name        string       `"rule" @String "{"`
	Description string       `("description" ":" @String)?`
	Target      string       `"target" ":" @String`
	Conditions  []*Condition `"condition" "{" @@+ "}"`
	Actions     []*Action    `@@+ "}"`
}

// Condition is one key/value pair inside a condition block. The value is a
// bare literal or an operator call.
type Condition struct {
	Key   string          `@Ident ":"`
	Value *ConditionValue `@@`
}

// ConditionValue carries exactly one of the three value forms.
type ConditionValue struct {
	Call *OperatorCall `  @@`
	Str  *string       `| @String`
	Num  *float64      `| @Number`
}

// OperatorCall is the function-call value form, e.g. greaterThan(5).
type OperatorCall struct {
	Operator string   `@Ident "("`
	Str      *string  `( @String`
	Num      *float64 `| @Number ) ")"`
}

// Action is one action block. Type is extract, highlight, or report.
type Action struct {
	Type       string `"action" "{" "type" ":" @Ident`
	Parameters []*KV  `("parameters" ":" "{" @@* "}")? "}"`
}

// KV is a parameter entry; identifier values cover true/false and symbolic
// names.
type KV struct {
	Key   string   `@Ident ":"`
	Str   *string  `( @String`
	Num   *float64 `| @Number`
	Ident *string  `| @Ident )`
}

// literal renders the condition's value back to a plain string, for
// validation messages and persistence.
func (v *ConditionValue) literal() string {
	switch {
	case v == nil:
		return ""
	case v.Call != nil:
		return v.Call.literal()
	case v.Str != nil:
		return *v.Str
	case v.Num != nil:
		return strconv.FormatFloat(*v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

func (c *OperatorCall) literal() string {
	if c.Str != nil {
		return *c.Str
	}

	if c.Num != nil {
		return strconv.FormatFloat(*c.Num, 'f', -1, 64)
	}

	return ""
}

// operator resolves the effective operator: the call form names it, bare
// values default to equals.
func (v *ConditionValue) operator() string {
	if v != nil && v.Call != nil {
		return v.Call.Operator
	}

	return "equals"
}

// paramValue renders a KV's value; identifier values pass through as their
// raw lexeme.
func (kv *KV) paramValue() any {
	switch {
	case kv.Str != nil:
		return *kv.Str
	case kv.Num != nil:
		return *kv.Num
	case kv.Ident != nil:
		switch *kv.Ident {
		case "true":
			return true
		case "false":
			return false
		default:
			return *kv.Ident
		}
	default:
		return nil
	}
}
