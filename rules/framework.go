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
	"regexp"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

// Framework identifies a framework a data-flow rule is tagged for.
type Framework string

// Frameworks with a wired data-flow rule.
const (
	FrameworkReact      Framework = "react"
	FrameworkDjango     Framework = "django"
	FrameworkSpringBoot Framework = "spring-boot"
	FrameworkExpress    Framework = "express"
)

// issuePattern pairs a detection regex with the advisory text attached to
// the snippet. The annotations are informational metadata only; nothing in
// the engine acts on them.
type issuePattern struct {
	pattern *regexp.Regexp
	note    string
}

// FrameworkDataFlowRule detects framework idioms (component boundaries, ORM
// calls, route handlers) and annotates suspected issues and optimizations.
// One instance per framework, differing only in tables.
type FrameworkDataFlowRule struct {
	base

	framework     Framework
	match         *regexp.Regexp
	boundary      *regexp.Regexp
	ormCall       *regexp.Regexp
	requestFlow   *regexp.Regexp
	issues        []issuePattern
	optimizations []issuePattern
}

// ShouldProcess requires the node text to show the framework's signature
// idioms. Call nodes only qualify as the outermost link of their statement,
// so a route registration emits once.
func (r *FrameworkDataFlowRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	if _, isCall := callNodeKind[node.Type()]; isCall {
		if parent := node.Parent(); parent != nil {
			if _, chained := chainParentKinds[parent.Type()]; chained {
				return false
			}
		}
	}

	return r.match.MatchString(string(node.Value()))
}

// CreateSnippet builds a framework_dataflow snippet with the advisory
// annotations attached.
func (r *FrameworkDataFlowRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	snippet := r.snippet(node, nesting)

	info := &chunk.FrameworkFlowInfo{Framework: string(r.framework)}

	if r.boundary != nil {
		if match := r.boundary.FindString(snippet.Content); match != "" {
			info.ComponentBoundary = match
		}
	}

	if r.ormCall != nil {
		for _, call := range r.ormCall.FindAllString(snippet.Content, -1) {
			info.ORMCalls = append(info.ORMCalls, call)
		}
	}

	if r.requestFlow != nil {
		if match := r.requestFlow.FindString(snippet.Content); match != "" {
			info.RequestFlow = match
		}
	}

	for _, issue := range r.issues {
		if issue.pattern.MatchString(snippet.Content) {
			info.SuspectedIssues = append(info.SuspectedIssues, issue.note)
		}
	}

	for _, opt := range r.optimizations {
		if opt.pattern.MatchString(snippet.Content) {
			info.SuspectedOptimizations = append(info.SuspectedOptimizations, opt.note)
		}
	}

	snippet.SnippetMetadata.Framework = info

	return snippet, true
}

func frameworkConfig() Config {
	config := expressionConfig()
	config.MaxLines = 100

	return config
}

// NewReactDataFlowRule detects react component and hook usage.
func NewReactDataFlowRule() *FrameworkDataFlowRule {
	return &FrameworkDataFlowRule{
		base: base{
			name:        "react-dataflow",
			snippetType: chunk.FrameworkDataflow,
			kinds: []string{
				"function_declaration",
				"arrow_function",
				"call_expression",
				"lexical_declaration",
			},
			config:     frameworkConfig(),
			standalone: false,
		},
		framework:   FrameworkReact,
		match:       regexp.MustCompile(`\buse(State|Effect|Memo|Callback|Reducer|Context|Ref)\s*\(|<[A-Z][A-Za-z0-9]*[\s/>]`),
		boundary:    regexp.MustCompile(`\b[A-Z][A-Za-z0-9]*\s*(=|\()`),
		requestFlow: regexp.MustCompile(`\bfetch\s*\(|axios\.`),
		issues: []issuePattern{
			{regexp.MustCompile(`dangerouslySetInnerHTML`), "dangerouslySetInnerHTML can introduce XSS"},
			{regexp.MustCompile(`useEffect\s*\(\s*[^,]+\)\s*$`), "useEffect without dependency array runs every render"},
		},
		optimizations: []issuePattern{
			{regexp.MustCompile(`\.map\s*\([^)]*=>\s*<`), "list rendering; verify stable keys"},
		},
	}
}

// NewDjangoDataFlowRule detects django models, views, and ORM access.
func NewDjangoDataFlowRule() *FrameworkDataFlowRule {
	return &FrameworkDataFlowRule{
		base: base{
			name:        "django-dataflow",
			snippetType: chunk.FrameworkDataflow,
			kinds: []string{
				"class_definition",
				"decorated_definition",
				"call",
			},
			config:     frameworkConfig(),
			standalone: false,
		},
		framework:   FrameworkDjango,
		match:       regexp.MustCompile(`models\.Model|\.objects\.|@api_view|HttpResponse|render\s*\(|path\s*\(`),
		boundary:    regexp.MustCompile(`class\s+[A-Za-z_][A-Za-z0-9_]*`),
		ormCall:     regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\.objects\.[A-Za-z_]+`),
		requestFlow: regexp.MustCompile(`request\.[A-Za-z_]+`),
		issues: []issuePattern{
			{regexp.MustCompile(`\.raw\s*\(|\.extra\s*\(`), "raw SQL bypasses the ORM's escaping"},
			{regexp.MustCompile(`csrf_exempt`), "CSRF protection disabled"},
		},
		optimizations: []issuePattern{
			{regexp.MustCompile(`\.objects\.(all|filter)\([^)]*\)[^\n]*\bfor\b`), "queryset iterated in a loop; consider select_related"},
		},
	}
}

// NewSpringBootDataFlowRule detects spring controllers, services, and
// injection points.
func NewSpringBootDataFlowRule() *FrameworkDataFlowRule {
	return &FrameworkDataFlowRule{
		base: base{
			name:        "spring-boot-dataflow",
			snippetType: chunk.FrameworkDataflow,
			kinds: []string{
				"class_declaration",
				"method_declaration",
			},
			config:     frameworkConfig(),
			standalone: false,
		},
		framework:   FrameworkSpringBoot,
		match:       regexp.MustCompile(`@(RestController|Controller|Service|Repository|Autowired|RequestMapping|GetMapping|PostMapping|PutMapping|DeleteMapping)\b`),
		boundary:    regexp.MustCompile(`@(RestController|Controller|Service|Repository)\b`),
		ormCall:     regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*Repository\.[A-Za-z_]+`),
		requestFlow: regexp.MustCompile(`@(Request|Path)(Body|Param|Variable)\b`),
		issues: []issuePattern{
			{regexp.MustCompile(`@CrossOrigin\s*\(\s*origins\s*=\s*"\*"`), "CORS open to every origin"},
			{regexp.MustCompile(`@Autowired\s+private`), "field injection; constructor injection is testable"},
		},
		optimizations: nil,
	}
}

// NewExpressDataFlowRule detects express route handlers and middleware.
func NewExpressDataFlowRule() *FrameworkDataFlowRule {
	return &FrameworkDataFlowRule{
		base: base{
			name:        "express-dataflow",
			snippetType: chunk.FrameworkDataflow,
			kinds: []string{
				"call_expression",
				"expression_statement",
			},
			config:     frameworkConfig(),
			standalone: false,
		},
		framework:   FrameworkExpress,
		match:       regexp.MustCompile(`\b(app|router)\.(get|post|put|delete|patch|use)\s*\(`),
		boundary:    regexp.MustCompile(`\b(app|router)\.(get|post|put|delete|patch|use)\s*\(\s*['"][^'"]*['"]`),
		requestFlow: regexp.MustCompile(`\breq\.(params|query|body|headers)\b`),
		issues: []issuePattern{
			{regexp.MustCompile(`res\.send\s*\([^)]*\breq\.`), "request data echoed into the response unescaped"},
			{regexp.MustCompile(`\beval\s*\(`), "eval on request-reachable input"},
		},
		optimizations: []issuePattern{
			{regexp.MustCompile(`(?s)\.get\s*\(.*await.*await`), "sequential awaits in one handler; consider Promise.all"},
		},
	}
}
