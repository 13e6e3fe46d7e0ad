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

// Package heuristics concentrates every text-based approximation the engine
// applies to snippet content: complexity scoring, side-effect detection,
// language-feature flags, comment stripping, and the "meaningful logic"
// checks used by the validator's production profile. Rules and the validator
// call through this package only, so the regex approximations can later be
// swapped for grammar-aware predicates in one place.
package heuristics

import (
	"math"
	"regexp"
	"strings"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

var (
	controlKeywords = regexp.MustCompile(
		`\b(if|else|elif|for|while|do|switch|case|match|try|catch|except|finally|select|go|defer|raise|loop|when)\b`)
	logicalOps      = regexp.MustCompile(`&&|\|\|`)
	openingBrackets = regexp.MustCompile(`[{(\[]`)
	functionCalls   = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

	trivialCallNames = map[string]struct{}{
		"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "return": {},
	}
)

// Complexity scores content per the shared formula: one point of base
// complexity, one per control keyword, one per logical operator, half per
// opening bracket, and 0.3 per non-trivial function call, rounded. Never
// returns less than 1.
func Complexity(content string) int {
	score := 1.0
	score += float64(len(controlKeywords.FindAllString(content, -1)))
	score += float64(len(logicalOps.FindAllString(content, -1)))
	score += 0.5 * float64(len(openingBrackets.FindAllString(content, -1)))
	score += 0.3 * float64(countNonTrivialCalls(content))

	rounded := int(math.Round(score))
	if rounded < 1 {
		return 1
	}

	return rounded
}

func countNonTrivialCalls(content string) int {
	count := 0

	for _, match := range functionCalls.FindAllStringSubmatch(content, -1) {
		if _, trivial := trivialCallNames[match[1]]; !trivial {
			count++
		}
	}

	return count
}

var (
	incrementDecrement = regexp.MustCompile(`\+\+|--`)
	mutatingKeywords   = regexp.MustCompile(`\b(delete|new|throw)\b`)
	propertyAssign     = regexp.MustCompile(`\.[A-Za-z_][A-Za-z0-9_]*\s*=[^=]`)
	globalNamespaces   = regexp.MustCompile(`\b(console|window|global|document|process|module|exports)\s*[.\[]`)
	bareReassign       = regexp.MustCompile(`(?m)^\s*[A-Za-z_][A-Za-z0-9_]*\s*=[^=]`)

	// Calls known to be pure are removed from the text before the
	// side-effect patterns run, so Math.max(a, b) or xs.map(f) alone never
	// flag a snippet.
	pureCalls = regexp.MustCompile(`\bMath\.[A-Za-z]+\s*\(|\.(map|filter|reduce|forEach|slice|concat|join)\s*\(`)
)

// HasSideEffects reports whether content contains a syntactic signal that it
// mutates state outside its own scope.
func HasSideEffects(content string) bool {
	cleaned := pureCalls.ReplaceAllString(content, "(")

	return incrementDecrement.MatchString(cleaned) ||
		mutatingKeywords.MatchString(cleaned) ||
		propertyAssign.MatchString(cleaned) ||
		globalNamespaces.MatchString(cleaned) ||
		bareReassign.MatchString(cleaned)
}

var (
	asyncPattern       = regexp.MustCompile(`\b(async|await)\b`)
	generatorPattern   = regexp.MustCompile(`\bfunction\s*\*|\byield\b`)
	destructurePattern = regexp.MustCompile(`\b(const|let|var)\s*[\[{]|[}\]]\s*=[^=]`)
	spreadPattern      = regexp.MustCompile(`\.\.\.`)
	templatePattern    = regexp.MustCompile("`[^`]*\\$\\{")
)

// LanguageFeatures derives the boolean feature flags the snippet contract
// exposes, by pattern match over the raw content.
func LanguageFeatures(content string) chunk.LanguageFeatures {
	return chunk.LanguageFeatures{
		UsesAsync:            asyncPattern.MatchString(content),
		UsesGenerators:       generatorPattern.MatchString(content),
		UsesDestructuring:    destructurePattern.MatchString(content),
		UsesSpread:           spreadPattern.MatchString(content),
		UsesTemplateLiterals: templatePattern.MatchString(content),
	}
}

var meaningfulLogicByLanguage = map[lang.Language]*regexp.Regexp{
	lang.JavaScript: regexp.MustCompile(`[=+\-*/%<>!&|]|\breturn\b|\w+\s*\(`),
	lang.TypeScript: regexp.MustCompile(`[=+\-*/%<>!&|]|\breturn\b|\w+\s*\(`),
	lang.Python:     regexp.MustCompile(`[=+\-*/%<>!&|]|\b(return|yield|for|if)\b|\w+\s*\(`),
	lang.Java:       regexp.MustCompile(`[=+\-*/%<>!&|]|\breturn\b|\w+\s*\(`),
	lang.Go:         regexp.MustCompile(`[=+\-*/%<>!&|]|:=|<-|\breturn\b|\w+\s*\(`),
	lang.Rust:       regexp.MustCompile(`[=+\-*/%<>!&|]|\b(return|match|let)\b|\w+\s*[(!]`),
	lang.Cpp:        regexp.MustCompile(`[=+\-*/%<>!&|]|\breturn\b|\w+\s*\(`),
	lang.C:          regexp.MustCompile(`[=+\-*/%<>!&|]|\breturn\b|\w+\s*\(`),
	lang.Markdown:   regexp.MustCompile(`\S`),
}

// HasMeaningfulLogic reports whether content contains at least one
// operator, call, or statement for its language, instead of being pure
// punctuation or declarations.
func HasMeaningfulLogic(content string, language lang.Language) bool {
	pattern, ok := meaningfulLogicByLanguage[language]
	if !ok {
		pattern = meaningfulLogicByLanguage[lang.JavaScript]
	}

	return pattern.MatchString(StripComments(content))
}

var tokenSplitter = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|\d+|[^\sA-Za-z0-9_]`)

// UniqueTokens counts the distinct lexical tokens in content; the validator
// uses it as a cheap diversity signal.
func UniqueTokens(content string) int {
	seen := make(map[string]struct{})

	for _, token := range tokenSplitter.FindAllString(content, -1) {
		seen[token] = struct{}{}
	}

	return len(seen)
}

var (
	lineComment   = regexp.MustCompile(`(?m)//[^\n]*|#[^\n]*`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	htmlComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	pythonDocstr  = regexp.MustCompile(`(?s)""".*?"""|'''.*?'''`)
	trivialChars  = regexp.MustCompile(`[{}\[\]()\s]`)
	nonBlankLines = regexp.MustCompile(`(?m)^\s*\S`)
)

// StripComments removes line, block, and HTML comments plus python
// docstrings from content. This is a lexical approximation: comment markers
// inside string literals are also removed, which is acceptable for
// validation purposes.
func StripComments(content string) string {
	content = blockComment.ReplaceAllString(content, "")
	content = htmlComment.ReplaceAllString(content, "")
	content = pythonDocstr.ReplaceAllString(content, "")
	content = lineComment.ReplaceAllString(content, "")

	return content
}

// IsCommentOnly reports whether content is nothing but comments and
// whitespace.
func IsCommentOnly(content string) bool {
	return strings.TrimSpace(StripComments(content)) == ""
}

// NonTrivialChars counts the characters left after removing brackets,
// parentheses, braces, and whitespace.
func NonTrivialChars(content string) int {
	return len(trivialChars.ReplaceAllString(content, ""))
}

// CountNonBlankLines counts lines containing at least one non-space
// character.
func CountNonBlankLines(content string) int {
	return len(nonBlankLines.FindAllString(content, -1))
}
