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
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
	"github.com/horusec-io/codesnippet-engine/validator"
)

const (
	// DefaultMaxSnippets caps how many snippets one file may emit.
	DefaultMaxSnippets = 1000

	// DefaultTimeout is the wall-clock budget for one extraction pass.
	DefaultTimeout = 30 * time.Second
)

// Options configures one extraction pass.
type Options struct {
	Language    lang.Language
	Validator   *validator.Validator
	MaxSnippets int
	Timeout     time.Duration

	// KeepPartial opts in to receiving already-collected snippets when the
	// caller's context is cancelled mid-pass. The default discards them.
	KeepPartial bool
}

// Stats counts what one extraction pass did.
type Stats struct {
	NodesVisited int `json:"nodes_visited"`
	RulesApplied int `json:"rules_applied"`
	Emitted      int `json:"emitted"`
	Rejected     int `json:"rejected"`
	Deduplicated int `json:"deduplicated"`
	RuleErrors   int `json:"rule_errors"`
}

// Batch is the output of one extraction pass over one file. Partial is set
// when a resource bound cut the pass short; the snippets collected up to
// that point are still valid.
type Batch struct {
	Snippets []*chunk.Snippet `json:"snippets"`
	Partial  bool             `json:"partial"`
	Stats    Stats            `json:"stats"`
}

// Extract walks the tree rooted at root in pre-order and applies every rule
// whose kind set matches the current node. Emit order is pre-order node
// order; within one file snippet ids never repeat. A rule that panics on a
// node is logged and skipped for that node only.
//
// Cancellation via ctx discards collected snippets unless opts.KeepPartial
// is set. Exceeding the snippet cap or the time budget ends the walk early
// and returns what was collected with Partial set.
func Extract(ctx context.Context, root *cst.Node, src []byte, ruleSet []Rule, opts Options) (*Batch, error) {
	if opts.MaxSnippets <= 0 {
		opts.MaxSnippets = DefaultMaxSnippets
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.Validator == nil {
		opts.Validator = validator.New(validator.ProfileDevelopment)
	}

	walk := &walker{
		ctx:      ctx,
		src:      src,
		byKind:   rulesByKind(ruleSet),
		opts:     opts,
		deadline: time.Now().Add(opts.Timeout),
		seen:     make(map[string]struct{}),
		batch:    &Batch{},
	}

	if root != nil {
		walk.visit(root, 0)
	}

	if walk.cancelled && !opts.KeepPartial {
		return nil, ctx.Err()
	}

	if walk.cancelled {
		walk.batch.Partial = true
	}

	return walk.batch, nil
}

// rulesByKind indexes rules by supported node kind so the per-node fan-out
// is a map lookup instead of a scan over every rule.
func rulesByKind(ruleSet []Rule) map[string][]Rule {
	index := make(map[string][]Rule)

	for _, rule := range ruleSet {
		for _, kind := range rule.SupportedKinds() {
			index[kind] = append(index[kind], rule)
		}
	}

	return index
}

type walker struct {
	ctx       context.Context
	src       []byte
	byKind    map[string][]Rule
	opts      Options
	deadline  time.Time
	seen      map[string]struct{}
	batch     *Batch
	cancelled bool
	done      bool
}

// visit processes node and recurses into its children; children may match
// rules even when the parent already emitted.
func (w *walker) visit(node *cst.Node, depth int) {
	if w.done || w.cancelled {
		return
	}

	if err := w.ctx.Err(); err != nil {
		w.cancelled = true
		return
	}

	if time.Now().After(w.deadline) {
		w.batch.Partial = true
		w.done = true

		return
	}

	w.batch.Stats.NodesVisited++

	for _, rule := range w.byKind[node.Type()] {
		if err := w.ctx.Err(); err != nil {
			w.cancelled = true
			return
		}

		if depth > rule.Config().MaxDepth {
			continue
		}

		w.apply(rule, node, depth)

		if w.done {
			return
		}
	}

	for i := 0; i < node.NamedChildCount(); i++ {
		w.visit(node.NamedChild(i), depth+1)

		if w.done || w.cancelled {
			return
		}
	}
}

// apply runs one rule against one node, containing panics to that (rule,
// node) pair.
func (w *walker) apply(rule Rule, node *cst.Node, depth int) {
	defer func() {
		if r := recover(); r != nil {
			w.batch.Stats.RuleErrors++
			log.Warn("rule panicked on node, skipping",
				"rule", rule.Name(),
				"kind", node.Type(),
				"panic", r)
		}
	}()

	w.batch.Stats.RulesApplied++

	if !rule.ShouldProcess(node, w.src) {
		return
	}

	snippet, ok := rule.CreateSnippet(node, w.src, depth)
	if !ok || snippet == nil {
		return
	}

	snippet.Metadata.Language = w.opts.Language

	if !w.withinConfig(rule.Config(), snippet) || !w.opts.Validator.IsValid(snippet) {
		w.batch.Stats.Rejected++
		return
	}

	if _, dup := w.seen[snippet.ID]; dup {
		w.batch.Stats.Deduplicated++
		return
	}

	w.seen[snippet.ID] = struct{}{}
	w.batch.Snippets = append(w.batch.Snippets, snippet)
	w.batch.Stats.Emitted++

	if len(w.batch.Snippets) >= w.opts.MaxSnippets {
		w.batch.Partial = true
		w.done = true
	}
}

// withinConfig enforces the rule's own complexity and line bounds.
func (w *walker) withinConfig(config Config, snippet *chunk.Snippet) bool {
	lines := snippet.EndLine - snippet.StartLine + 1

	return snippet.SnippetMetadata.Complexity >= config.MinComplexity &&
		snippet.SnippetMetadata.Complexity <= config.MaxComplexity &&
		lines >= config.MinLines &&
		lines <= config.MaxLines
}
