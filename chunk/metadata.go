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

package chunk

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SnippetMetadata is a sum type over SnippetType: the common fields are
// always present, and exactly one of the typed sub-metadata pointers is
// populated, matching Kind. This replaces a free-form metadata map so each
// variant carries its own typed shape instead of stringly-typed keys.
type SnippetMetadata struct {
	Kind             SnippetType
	ContextInfo      ContextInfo
	LanguageFeatures LanguageFeatures
	Complexity       int
	IsStandalone     bool
	HasSideEffects   bool

	CallChain     *CallChainInfo
	Comprehension *ComprehensionInfo
	GoConcurrency *GoConcurrencyInfo
	GoInterface   *GoInterfaceInfo
	Functional    *FunctionalInfo
	Stream        *JavaStreamInfo
	Framework     *FrameworkFlowInfo
}

// wireMetadata mirrors SnippetMetadata's JSON shape. Only the sub-metadata
// key matching snippet_type should ever be populated; MarshalJSON/
// UnmarshalJSON enforce that on both directions.
type wireMetadata struct {
	SnippetType      SnippetType      `json:"snippet_type"`
	ContextInfo      ContextInfo      `json:"context_info"`
	LanguageFeatures LanguageFeatures `json:"language_features"`
	Complexity       int              `json:"complexity"`
	IsStandalone     bool             `json:"is_standalone"`
	HasSideEffects   bool             `json:"has_side_effects"`

	CallChainInfo     *CallChainInfo     `json:"call_chain_info,omitempty"`
	ComprehensionInfo *ComprehensionInfo `json:"comprehension_info,omitempty"`
	GoConcurrencyInfo *GoConcurrencyInfo `json:"go_concurrency_info,omitempty"`
	GoInterfaceInfo   *GoInterfaceInfo   `json:"go_interface_info,omitempty"`
	FunctionalInfo    *FunctionalInfo    `json:"functional_info,omitempty"`
	JavaStreamInfo    *JavaStreamInfo    `json:"java_stream_info,omitempty"`
	FrameworkFlowInfo *FrameworkFlowInfo `json:"framework_flow_info,omitempty"`
}

// MarshalJSON implements json.Marshaler, emitting only the sub-metadata field
// that matches m.Kind.
func (m SnippetMetadata) MarshalJSON() ([]byte, error) {
	w := wireMetadata{
		SnippetType:      m.Kind,
		ContextInfo:      m.ContextInfo,
		LanguageFeatures: m.LanguageFeatures,
		Complexity:       m.Complexity,
		IsStandalone:     m.IsStandalone,
		HasSideEffects:   m.HasSideEffects,
	}

	switch m.Kind {
	case FunctionCallChain:
		w.CallChainInfo = m.CallChain
	case Comprehension:
		w.ComprehensionInfo = m.Comprehension
	case Goroutine:
		w.GoConcurrencyInfo = m.GoConcurrency
	case Interface:
		w.GoInterfaceInfo = m.GoInterface
	case FunctionalProgramming:
		w.FunctionalInfo = m.Functional
	case Stream:
		w.JavaStreamInfo = m.Stream
	case FrameworkDataflow:
		w.FrameworkFlowInfo = m.Framework
	}

	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. It rejects documents carrying a
// sub-metadata field that doesn't match snippet_type, so unknown or
// mismatched fields never round-trip silently.
func (m *SnippetMetadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireMetadata
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("decode snippet metadata: %w", err)
	}

	*m = SnippetMetadata{
		Kind:             w.SnippetType,
		ContextInfo:      w.ContextInfo,
		LanguageFeatures: w.LanguageFeatures,
		Complexity:       w.Complexity,
		IsStandalone:     w.IsStandalone,
		HasSideEffects:   w.HasSideEffects,
	}

	switch w.SnippetType {
	case FunctionCallChain:
		if w.CallChainInfo == nil {
			return fmt.Errorf("snippet metadata: call_chain_info required for snippet_type %q", w.SnippetType)
		}
		m.CallChain = w.CallChainInfo
	case Comprehension:
		if w.ComprehensionInfo == nil {
			return fmt.Errorf("snippet metadata: comprehension_info required for snippet_type %q", w.SnippetType)
		}
		m.Comprehension = w.ComprehensionInfo
	case Goroutine:
		if w.GoConcurrencyInfo == nil {
			return fmt.Errorf("snippet metadata: go_concurrency_info required for snippet_type %q", w.SnippetType)
		}
		m.GoConcurrency = w.GoConcurrencyInfo
	case Interface:
		if w.GoInterfaceInfo == nil {
			return fmt.Errorf("snippet metadata: go_interface_info required for snippet_type %q", w.SnippetType)
		}
		m.GoInterface = w.GoInterfaceInfo
	case FunctionalProgramming:
		if w.FunctionalInfo == nil {
			return fmt.Errorf("snippet metadata: functional_info required for snippet_type %q", w.SnippetType)
		}
		m.Functional = w.FunctionalInfo
	case Stream:
		if w.JavaStreamInfo == nil {
			return fmt.Errorf("snippet metadata: java_stream_info required for snippet_type %q", w.SnippetType)
		}
		m.Stream = w.JavaStreamInfo
	case FrameworkDataflow:
		if w.FrameworkFlowInfo == nil {
			return fmt.Errorf("snippet metadata: framework_flow_info required for snippet_type %q", w.SnippetType)
		}
		m.Framework = w.FrameworkFlowInfo
	default:
		if w.CallChainInfo != nil || w.ComprehensionInfo != nil || w.GoConcurrencyInfo != nil ||
			w.GoInterfaceInfo != nil || w.FunctionalInfo != nil || w.JavaStreamInfo != nil || w.FrameworkFlowInfo != nil {
			return fmt.Errorf("snippet metadata: sub-metadata set but snippet_type %q carries none", w.SnippetType)
		}
	}

	return nil
}
