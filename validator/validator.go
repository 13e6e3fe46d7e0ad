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

// Package validator decides whether an extracted snippet is worth emitting:
// size bounds, comment-only and trivial-content filters, per-type shape
// checks, and the stricter logic/diversity checks applied under the
// production profile.
package validator

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/heuristics"
)

// Profile selects how strict validation is. It is an explicit constructor
// argument; the validator never reads the environment.
type Profile int

const (
	// ProfileDevelopment relaxes the production-only checks to a minimum
	// token-presence check, useful in tests and while authoring rules.
	ProfileDevelopment Profile = iota

	// ProfileProduction additionally requires meaningful logic, per-type
	// substance, token diversity, and a minimum size.
	ProfileProduction
)

func (p Profile) String() string {
	if p == ProfileProduction {
		return "production"
	}

	return "development"
}

const (
	minContentLen = 5
	maxContentLen = 1500

	minNonTrivialChars = 3
	minUniqueTokens    = 3
	minProductionLines = 3
	minProductionChars = 30
)

var (
	controlShape = regexp.MustCompile(`\b(if|for|while|switch|try|catch|finally)\b`)
	errorShape   = regexp.MustCompile(`\b(try|catch|finally|throw)\b`)
)

// Validator applies the emission filters for one strictness profile. Safe
// for concurrent use; it holds no mutable state.
type Validator struct {
	profile Profile
}

// New creates a Validator for the given profile.
func New(profile Profile) *Validator {
	return &Validator{profile: profile}
}

// IsValid reports whether the snippet passes every filter for the
// validator's profile.
func (v *Validator) IsValid(snippet *chunk.Snippet) bool {
	ok, reason := v.Check(snippet)
	if !ok {
		log.Debug("snippet rejected",
			"type", snippet.SnippetMetadata.Kind,
			"line", snippet.StartLine,
			"reason", reason)
	}

	return ok
}

// Check is IsValid with the rejection reason exposed, used by tests and by
// diagnostic tooling.
//
// nolint:gocyclo // the check list is a flat sequence of independent filters
func (v *Validator) Check(snippet *chunk.Snippet) (bool, string) {
	content := snippet.Content

	if len(content) < minContentLen {
		return false, "content shorter than minimum"
	}

	if len(content) > maxContentLen {
		return false, "content longer than maximum"
	}

	if heuristics.NonTrivialChars(content) < minNonTrivialChars {
		return false, "content is only brackets and whitespace"
	}

	if heuristics.IsCommentOnly(content) {
		return false, "content is only comments"
	}

	if ok, reason := v.checkShape(snippet); !ok {
		return false, reason
	}

	if v.profile == ProfileProduction {
		return v.checkProduction(snippet)
	}

	if heuristics.UniqueTokens(content) < 1 {
		return false, "content has no tokens"
	}

	return true, ""
}

// checkShape enforces the per-type content predicates.
func (v *Validator) checkShape(snippet *chunk.Snippet) (bool, string) {
	content := snippet.Content

	switch snippet.SnippetMetadata.Kind {
	case chunk.ControlStructure:
		if !controlShape.MatchString(content) {
			return false, "control structure without control keyword"
		}

		if !hasNonEmptyBody(content) {
			return false, "control structure with empty body"
		}
	case chunk.ErrorHandling:
		if !errorShape.MatchString(content) {
			return false, "error handling without try/catch/finally/throw"
		}
	}

	return true, ""
}

func (v *Validator) checkProduction(snippet *chunk.Snippet) (bool, string) {
	content := snippet.Content

	if !heuristics.HasMeaningfulLogic(content, snippet.Metadata.Language) {
		return false, "no meaningful logic for language"
	}

	if tooSimple(snippet) {
		return false, "too simple for snippet type"
	}

	if heuristics.UniqueTokens(content) < minUniqueTokens {
		return false, "not enough token diversity"
	}

	if heuristics.CountNonBlankLines(content) < minProductionLines && len(content) < minProductionChars {
		return false, "below production size threshold"
	}

	return true, ""
}

// hasNonEmptyBody checks that a control structure carries statements after
// its header, once comments are stripped. The body starts after the first
// '{' (brace languages) or ':' (python).
func hasNonEmptyBody(content string) bool {
	stripped := heuristics.StripComments(content)

	idx := strings.IndexAny(stripped, "{:")
	if idx >= 0 {
		stripped = stripped[idx+1:]
	}

	return heuristics.NonTrivialChars(stripped) > 0
}

// tooSimple applies per-type minimum substance thresholds in production.
func tooSimple(snippet *chunk.Snippet) bool {
	content := strings.TrimSpace(snippet.Content)

	switch snippet.SnippetMetadata.Kind {
	case chunk.FunctionCallChain:
		return len(content) <= 10
	case chunk.ArithmeticLogicalExpr, chunk.ExpressionSequence:
		return heuristics.UniqueTokens(content) < 4
	case chunk.ObjectArrayLiteral:
		return heuristics.NonTrivialChars(content) < 8
	default:
		return false
	}
}
