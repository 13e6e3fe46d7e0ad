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

import "fmt"

// ValidationResult aggregates every problem found in a definition. Errors
// fail validation; warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var validConditionTypes = map[string]struct{}{
	CondNodeType:        {},
	CondContentPattern:  {},
	CondComplexity:      {},
	CondLanguageFeature: {},
}

var validOperators = map[string]struct{}{
	OpEquals:      {},
	OpContains:    {},
	OpMatches:     {},
	OpGreaterThan: {},
	OpLessThan:    {},
}

var validActionTypes = map[string]struct{}{
	ActionExtract:   {},
	ActionHighlight: {},
	ActionReport:    {},
}

// Validate checks a definition for semantic problems, collecting every
// error rather than stopping at the first.
func Validate(def *Definition) ValidationResult {
	var result ValidationResult

	if def.Name == "" {
		result.Errors = append(result.Errors, "rule name must not be empty")
	}

	if def.Target == "" {
		result.Errors = append(result.Errors, "rule target must not be empty")
	}

	if def.Description == "" {
		result.Warnings = append(result.Warnings, "rule has no description")
	}

	if len(def.Actions) == 0 {
		result.Errors = append(result.Errors, "rule must declare at least one action")
	}

	for i, cond := range def.Conditions {
		if _, ok := validConditionTypes[cond.Type]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("condition %d: unknown type %q", i+1, cond.Type))
		}

		if _, ok := validOperators[cond.Operator]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("condition %d: unknown operator %q", i+1, cond.Operator))
		}

		if cond.Value == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("condition %d: value must not be empty", i+1))
		}
	}

	for i, action := range def.Actions {
		if _, ok := validActionTypes[action.Type]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("action %d: unknown type %q", i+1, action.Type))
		}

		for key, value := range action.Parameters {
			if value == nil {
				result.Errors = append(result.Errors, fmt.Sprintf("action %d: parameter %q has no value", i+1, key))
			}
		}
	}

	result.Valid = len(result.Errors) == 0

	return result
}
