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

// Package parser turns raw source bytes into a syntax tree, fronted by a
// bounded LRU cache keyed on content fingerprint. Parse failures never
// propagate as errors; they come back as a ParseResult with Success unset so
// a bad file can't abort a batch.
package parser

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/horusec-io/codesnippet-engine/internal/cst"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

const (
	// DefaultMaxFileSize is the largest source the parser accepts, 1 MiB.
	DefaultMaxFileSize = 1 << 20

	// DefaultCacheSize is the number of parse results kept by the LRU cache.
	DefaultCacheSize = 128

	// binarySniffLen is how many leading bytes are scanned for a NUL byte
	// when deciding whether the input is binary.
	binarySniffLen = 8 << 10
)

var (
	// ErrUnsupportedLanguage is reported when no grammar exists for the tag.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrBinaryContent is reported when the input looks like a binary file.
	ErrBinaryContent = errors.New("binary content refused")

	// ErrFileTooLarge is reported when the input exceeds the size limit.
	ErrFileTooLarge = errors.New("source exceeds maximum file size")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte order mark. Callers that hand the
// same bytes to the parser and to offset-based consumers must strip first so
// node offsets line up with what they slice.
func StripBOM(src []byte) []byte {
	return bytes.TrimPrefix(src, utf8BOM)
}

// ParseResult is the outcome of one parse. Root is nil unless Success is
// true. Results are read-only once returned; the cache may hand the same
// result to multiple callers.
type ParseResult struct {
	Root        *cst.Node     `json:"-"`
	Language    lang.Language `json:"language"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	ParseTimeMS int64         `json:"parse_time_ms"`
}

// Err maps the result's error string back to one of the sentinel errors, or
// a generic parse failure. Returns nil when the parse succeeded.
func (r *ParseResult) Err() error {
	switch {
	case r.Success:
		return nil
	case r.Error == ErrUnsupportedLanguage.Error():
		return ErrUnsupportedLanguage
	case r.Error == ErrBinaryContent.Error():
		return ErrBinaryContent
	case r.Error == ErrFileTooLarge.Error():
		return ErrFileTooLarge
	default:
		return errors.New(r.Error)
	}
}

// Config adjusts parser limits. The zero value selects all defaults.
type Config struct {
	MaxFileSize int
	CacheSize   int
}

// Parser parses sources into CSTs, memoizing results in a shared LRU cache.
// A Parser is safe for concurrent use.
type Parser struct {
	cache       *resultCache
	maxFileSize int
}

// New creates a Parser with the given config, falling back to defaults for
// zero fields.
func New(config Config) *Parser {
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}

	if config.CacheSize <= 0 {
		config.CacheSize = DefaultCacheSize
	}

	return &Parser{
		cache:       newResultCache(config.CacheSize),
		maxFileSize: config.MaxFileSize,
	}
}

// Parse parses src with the grammar registered for language. Identical
// (src, language) inputs return the cached result; the second call is
// reflected in CacheStats. Errors are reported in the result, never thrown.
func (p *Parser) Parse(ctx context.Context, src []byte, language lang.Language) *ParseResult {
	src = bytes.TrimPrefix(src, utf8BOM)

	if result := p.refuse(src, language); result != nil {
		return result
	}

	key := fingerprint(src, language)
	if cached, ok := p.cache.get(key); ok {
		return cached
	}

	result := p.parse(ctx, src, language)
	if result.Success {
		p.cache.put(key, result)
	}

	return result
}

// refuse applies the input-format checks that reject a source before any
// grammar runs. Returns nil when the input is acceptable.
func (p *Parser) refuse(src []byte, language lang.Language) *ParseResult {
	if !language.Supported() {
		return failure(language, ErrUnsupportedLanguage)
	}

	if len(src) > p.maxFileSize {
		return failure(language, ErrFileTooLarge)
	}

	sniff := src
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}

	if bytes.IndexByte(sniff, 0) >= 0 {
		return failure(language, ErrBinaryContent)
	}

	return nil
}

func (p *Parser) parse(ctx context.Context, src []byte, language lang.Language) *ParseResult {
	start := time.Now()

	var (
		root *cst.Node
		err  error
	)

	if language == lang.Markdown {
		root = parseMarkdown(src)
	} else {
		root, err = cst.Parse(ctx, src, language)
	}

	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		result := failure(language, err)
		result.ParseTimeMS = elapsed

		return result
	}

	return &ParseResult{
		Root:        root,
		Language:    language,
		Success:     true,
		ParseTimeMS: elapsed,
	}
}

// CacheStats reports the cache hit/miss counters accumulated so far.
func (p *Parser) CacheStats() CacheStats {
	return p.cache.stats()
}

// ClearCache drops every cached parse result.
func (p *Parser) ClearCache() {
	p.cache.clear()
}

// Invalidate drops the cached result for one (src, language) pair, for
// callers that detect a file changed out-of-band.
func (p *Parser) Invalidate(src []byte, language lang.Language) {
	p.cache.invalidate(fingerprint(bytes.TrimPrefix(src, utf8BOM), language))
}

func failure(language lang.Language, err error) *ParseResult {
	return &ParseResult{
		Language: language,
		Success:  false,
		Error:    err.Error(),
	}
}
