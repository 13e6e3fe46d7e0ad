// Copyright 2020 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
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

package engine

import (
	"github.com/horusec-io/codesnippet-engine/internal/lang"
	"github.com/horusec-io/codesnippet-engine/rules"
)

// SelectionPolicy names one of the four rule selection modes.
type SelectionPolicy string

// The selection policies the engine supports.
const (
	// SelectComprehensive applies every general-purpose built-in rule.
	SelectComprehensive SelectionPolicy = "comprehensive"

	// SelectLanguageSpecific applies the general rules plus the rules
	// tagged for the file's language. This is the default.
	SelectLanguageSpecific SelectionPolicy = "language-specific"

	// SelectFocused applies one of the pre-declared focus subsets.
	SelectFocused SelectionPolicy = "focused"

	// SelectFramework applies the comprehensive set plus the data-flow
	// rules tagged for one framework.
	SelectFramework SelectionPolicy = "framework"
)

// RuleSelection is the policy the engine resolves per file before walking
// its tree. Selection is pure: resolving it never mutates the registry.
type RuleSelection struct {
	Policy    SelectionPolicy
	Focus     rules.Focus
	Framework rules.Framework
}

// selectRules resolves the engine's selection for a concrete language.
func (e *Engine) selectRules(language lang.Language) []rules.Rule {
	switch e.selection.Policy {
	case SelectComprehensive:
		return e.registry.Comprehensive()
	case SelectFocused:
		return e.registry.Focused(e.selection.Focus)
	case SelectFramework:
		return e.registry.ForFramework(e.selection.Framework)
	default:
		return e.registry.ForLanguage(language)
	}
}
