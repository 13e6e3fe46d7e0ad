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

// Package engine ties the parsing and extraction core together: it walks a
// project tree, parses each file, extracts structural chunks and rule-based
// snippets, and returns one batch per file. Files are processed in a
// goroutine pool; a malformed file is contained to its own result and never
// aborts the batch.
package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/chunker"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
	"github.com/horusec-io/codesnippet-engine/parser"
	"github.com/horusec-io/codesnippet-engine/pool"
	"github.com/horusec-io/codesnippet-engine/rules"
	"github.com/horusec-io/codesnippet-engine/text"
	"github.com/horusec-io/codesnippet-engine/validator"
)

// AcceptAnyExtension can be passed as extensions argument in NewEngine to accept any extension
const AcceptAnyExtension string = "*"

// FileResult is the per-file output batch: the structural chunks, the
// extracted snippets, and whatever went wrong. Consumers must treat
// results as independent per-file batches; no cross-file ordering is
// promised.
type FileResult struct {
	Path     string           `json:"path"`
	Language lang.Language    `json:"language"`
	Chunks   []*chunk.Chunk   `json:"chunks"`
	Snippets []*chunk.Snippet `json:"snippets"`
	Partial  bool             `json:"partial"`
	Stats    rules.Stats      `json:"stats"`
	Error    string           `json:"error,omitempty"`
}

// Engine contains all the engine necessary data
type Engine struct {
	poolSize   int
	extensions []string
	parser     *parser.Parser
	registry   *rules.Registry
	validator  *validator.Validator
	selection  RuleSelection
	limits     Limits
}

// Limits bounds one extraction pass per file.
type Limits struct {
	MaxSnippets int
	Timeout     time.Duration
}

// NewEngine creates a new engine instance with all necessary data.
// extensions argument represents which extension the engine should apply the rules
// poolSize represents the number of go routines to open (Default is 10)
func NewEngine(poolSize int, extensions ...string) *Engine {
	return &Engine{
		poolSize:   poolSize,
		extensions: extensions,
		parser:     parser.New(parser.Config{}),
		registry:   rules.NewRegistry(),
		validator:  validator.New(validator.ProfileProduction),
		selection:  RuleSelection{Policy: SelectLanguageSpecific},
		limits: Limits{
			MaxSnippets: rules.DefaultMaxSnippets,
			Timeout:     rules.DefaultTimeout,
		},
	}
}

// SetValidatorProfile switches validation strictness. Call before Run; the
// engine is not reconfigurable mid-pass.
func (e *Engine) SetValidatorProfile(profile validator.Profile) {
	e.validator = validator.New(profile)
}

// SetSelection switches the rule selection policy applied per file.
func (e *Engine) SetSelection(selection RuleSelection) {
	e.selection = selection
}

// SetLimits overrides the per-file resource bounds.
func (e *Engine) SetLimits(limits Limits) {
	e.limits = limits
}

// Registry exposes the rule registry so callers can register custom
// compiled rules before a run.
func (e *Engine) Registry() *rules.Registry {
	return e.registry
}

// Parser exposes the shared parser, mainly for cache statistics.
func (e *Engine) Parser() *parser.Parser {
	return e.parser
}

// Run walks through projectPath and extracts chunks and snippets from every
// matching file in a pool of goroutines. A file that fails to read or parse
// produces a FileResult carrying the error; only context cancellation stops
// the whole run.
// nolint:funlen // the pool/errgroup wiring reads better in one piece
func (e *Engine) Run(ctx context.Context, projectPath string) ([]FileResult, error) {
	var results []FileResult

	paths, err := e.getValidFilePaths(projectPath)
	if err != nil {
		return nil, err
	}

	mutex := new(sync.Mutex)
	wg := sync.WaitGroup{}

	workerPool, err := pool.NewPool(e.poolSize)
	if err != nil {
		return nil, err
	}

	defer workerPool.Release()

	group, groupCtx := errgroup.WithContext(ctx)

	wg.Add(len(paths))

	for _, path := range paths {
		pathCopy := path

		errSubmit := workerPool.Submit(func() {
			group.Go(func() error {
				defer wg.Done()

				if err := groupCtx.Err(); err != nil {
					return err
				}

				result := e.ExtractFile(groupCtx, pathCopy)

				mutex.Lock()
				results = append(results, *result)
				mutex.Unlock()

				return nil
			})
		})
		if errSubmit != nil {
			return nil, errSubmit
		}
	}

	wg.Wait()
	err = group.Wait()

	return results, err
}

// ExtractFile reads one file, detects its language by extension, and runs
// the full parse and extract pass over it.
func (e *Engine) ExtractFile(ctx context.Context, path string) *FileResult {
	language := lang.DetectByExtension(path)

	textFile, err := text.ReadAndCreateTextFile(path)
	if err != nil {
		log.Warn("failed to read file", "path", path, "err", err)

		return &FileResult{Path: path, Language: language, Error: err.Error()}
	}

	result := e.ExtractSource(ctx, []byte(textFile.RawString), language)
	result.Path = path

	return result
}

// ExtractSource runs the parse and extract pass over in-memory source. The
// result is deterministic for identical input: snippet order is the
// pre-order node order.
func (e *Engine) ExtractSource(ctx context.Context, src []byte, language lang.Language) *FileResult {
	result := &FileResult{Language: language}

	// Offsets in emitted records index into the BOM-stripped bytes, the
	// same view the parser sees.
	src = parser.StripBOM(src)

	parsed := e.parser.Parse(ctx, src, language)
	if !parsed.Success {
		result.Error = parsed.Error
		return result
	}

	result.Chunks = chunker.Extract(parsed.Root, src, language)

	batch, err := rules.Extract(ctx, parsed.Root, src, e.selectRules(language), rules.Options{
		Language:    language,
		Validator:   e.validator,
		MaxSnippets: e.limits.MaxSnippets,
		Timeout:     e.limits.Timeout,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Snippets = batch.Snippets
	result.Partial = batch.Partial
	result.Stats = batch.Stats

	return result
}

// getValidFilePaths this function will walk the project directory and will look for files that match the extensions
// informed during the initialization of the engine and return a slice with it.
// Directories, sys links and files with extensions that are not in Engine.extensions struct wil be ignored
func (e *Engine) getValidFilePaths(projectPath string) ([]string, error) {
	var validPaths []string

	err := filepath.WalkDir(projectPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || e.isInvalidFilePath(path, entry) {
			return err
		}

		validPaths = append(validPaths, path)

		return nil
	})

	return validPaths, err
}

// isInvalidFilePath contains a list of validations to check if a path needs to be analyzed. It will ignore directories,
// sysLinks, extensions that don't match the necessary ones, and .git files
func (e *Engine) isInvalidFilePath(path string, entry fs.DirEntry) bool {
	return entry.IsDir() ||
		entry.Type() == fs.ModeSymlink ||
		e.isInvalidExtension(path) ||
		e.isFileFromGitFolder(path)
}

// isInvalidExtension verify if the filepath contains a valid file extension.
// The valid extensions are the ones that should be analyzed, and are passed during the initialization of the engine
func (e *Engine) isInvalidExtension(path string) bool {
	for _, ext := range e.extensions {
		if ext == filepath.Ext(path) || ext == AcceptAnyExtension {
			return false
		}
	}

	return true
}

// isFileFromGitFolder check if a file is in a .git folder
func (e *Engine) isFileFromGitFolder(path string) bool {
	return strings.Contains(path, ".git"+string(os.PathSeparator))
}
