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

package rules

import (
	"fmt"

	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

// Focus names a pre-declared subset of rules for focused extraction.
type Focus string

// The focused selection policies.
const (
	FocusPerformance  Focus = "performance"
	FocusArchitecture Focus = "architecture"
	FocusPatterns     Focus = "patterns"
	FocusConcurrency  Focus = "concurrency"
)

var focusSets = map[Focus][]string{
	FocusPerformance: {
		"function-call-chain",
		"functional-programming",
		"java-stream",
		"object-array-literal",
	},
	FocusArchitecture: {
		"go-interface",
		"logic-block",
		"decorator-pattern",
		"generic-pattern",
	},
	FocusPatterns: {
		"control-structure",
		"error-handling",
		"destructuring-assignment",
		"template-literal",
		"python-comprehension",
		"comment-marked",
	},
	FocusConcurrency: {
		"go-goroutine",
		"async-pattern",
		"java-stream",
	},
}

// Registry holds every known rule with its language and framework tags and
// answers the four selection policies. Selection never mutates the
// registry; every policy returns a fresh slice.
type Registry struct {
	order      []Rule
	byName     map[string]Rule
	languages  map[string][]lang.Language
	frameworks map[string]Framework
}

// RegisterOption tags a rule during registration.
type RegisterOption func(*Registry, string)

// WithLanguages tags the rule as language-specific.
func WithLanguages(languages ...lang.Language) RegisterOption {
	return func(r *Registry, name string) {
		r.languages[name] = append(r.languages[name], languages...)
	}
}

// WithFramework tags the rule as framework-specific, which keeps it out of
// the comprehensive set.
func WithFramework(framework Framework) RegisterOption {
	return func(r *Registry, name string) {
		r.frameworks[name] = framework
	}
}

// NewRegistry builds a registry pre-populated with every built-in rule.
func NewRegistry() *Registry {
	registry := &Registry{
		byName:     make(map[string]Rule),
		languages:  make(map[string][]lang.Language),
		frameworks: make(map[string]Framework),
	}

	mustRegister := func(rule Rule, opts ...RegisterOption) {
		if err := registry.Register(rule, opts...); err != nil {
			panic(err)
		}
	}

	mustRegister(NewControlStructureRule())
	mustRegister(NewErrorHandlingRule())
	mustRegister(NewFunctionCallChainRule())
	mustRegister(NewDestructuringAssignmentRule())
	mustRegister(NewTemplateLiteralRule(), WithLanguages(lang.JavaScript, lang.TypeScript))
	mustRegister(NewObjectArrayLiteralRule())
	mustRegister(NewArithmeticLogicalRule())
	mustRegister(NewLogicBlockRule())
	mustRegister(NewExpressionSequenceRule(), WithLanguages(lang.JavaScript, lang.TypeScript, lang.Cpp, lang.C))
	mustRegister(NewCommentMarkedRule())
	mustRegister(NewAsyncPatternRule())
	mustRegister(NewDecoratorPatternRule())
	mustRegister(NewGenericPatternRule())
	mustRegister(NewFunctionalProgrammingRule())
	mustRegister(NewPythonComprehensionRule(), WithLanguages(lang.Python))
	mustRegister(NewJavaStreamRule(), WithLanguages(lang.Java))
	mustRegister(NewJavaLambdaRule(), WithLanguages(lang.Java))
	mustRegister(NewGoGoroutineRule(), WithLanguages(lang.Go))
	mustRegister(NewGoInterfaceRule(), WithLanguages(lang.Go))
	mustRegister(NewReactDataFlowRule(), WithFramework(FrameworkReact))
	mustRegister(NewDjangoDataFlowRule(), WithFramework(FrameworkDjango))
	mustRegister(NewSpringBootDataFlowRule(), WithFramework(FrameworkSpringBoot))
	mustRegister(NewExpressDataFlowRule(), WithFramework(FrameworkExpress))

	return registry
}

// Register adds a rule, rejecting duplicate names. Custom DSL-compiled
// rules register through the same path as built-ins.
func (r *Registry) Register(rule Rule, opts ...RegisterOption) error {
	name := rule.Name()
	if name == "" {
		return fmt.Errorf("rule has no name")
	}

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("rule %q already registered", name)
	}

	r.byName[name] = rule
	r.order = append(r.order, rule)

	for _, opt := range opts {
		opt(r, name)
	}

	return nil
}

// Lookup returns the rule registered under name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// Comprehensive returns every registered rule except framework-tagged ones,
// in registration order.
func (r *Registry) Comprehensive() []Rule {
	selected := make([]Rule, 0, len(r.order))

	for _, rule := range r.order {
		if _, tagged := r.frameworks[rule.Name()]; !tagged {
			selected = append(selected, rule)
		}
	}

	return selected
}

// ForLanguage returns the untagged rules plus the rules tagged for
// language. Rules tagged exclusively for other languages are left out;
// their node kinds can't occur in this grammar anyway.
func (r *Registry) ForLanguage(language lang.Language) []Rule {
	selected := make([]Rule, 0, len(r.order))

	for _, rule := range r.Comprehensive() {
		tags := r.languages[rule.Name()]
		if len(tags) == 0 {
			selected = append(selected, rule)
			continue
		}

		for _, tag := range tags {
			if tag == language {
				selected = append(selected, rule)
				break
			}
		}
	}

	return selected
}

// Focused returns the pre-declared subset for focus, in registration order.
func (r *Registry) Focused(focus Focus) []Rule {
	wanted := make(map[string]struct{})
	for _, name := range focusSets[focus] {
		wanted[name] = struct{}{}
	}

	selected := make([]Rule, 0, len(wanted))

	for _, rule := range r.order {
		if _, ok := wanted[rule.Name()]; ok {
			selected = append(selected, rule)
		}
	}

	return selected
}

// ForFramework returns the comprehensive set plus the rules tagged for
// framework.
func (r *Registry) ForFramework(framework Framework) []Rule {
	selected := r.Comprehensive()

	for _, rule := range r.order {
		if r.frameworks[rule.Name()] == framework {
			selected = append(selected, rule)
		}
	}

	return selected
}
