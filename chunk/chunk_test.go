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

package chunk

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsStable(t *testing.T) {
	first := NewID(ControlStructure, 10, "if (x) { y(); }")
	second := NewID(ControlStructure, 10, "if (x) { y(); }")

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "control_structure_10_"))
}

func TestNewIDDistinguishesStartLines(t *testing.T) {
	content := "if (x) { y(); }"

	assert.NotEqual(t, NewID(ControlStructure, 10, content), NewID(ControlStructure, 42, content))
}

func TestNewIDDistinguishesContent(t *testing.T) {
	assert.NotEqual(t,
		NewID(ControlStructure, 10, "if (x) { y(); }"),
		NewID(ControlStructure, 10, "if (x) { z(); }"))
}

func TestSnippetMetadataMarshalEmitsMatchingSubMetadata(t *testing.T) {
	metadata := SnippetMetadata{
		Kind:       FunctionCallChain,
		Complexity: 3,
		CallChain: &CallChainInfo{
			ChainLength: 3,
			CallType:    CallCallbackBased,
		},
		// A stray mismatched field must not leak into the document.
		Comprehension: &ComprehensionInfo{Type: "list"},
	}

	data, err := json.Marshal(metadata)
	require.NoError(t, err)

	assert.Contains(t, string(data), "call_chain_info")
	assert.NotContains(t, string(data), "comprehension_info")
}

func TestSnippetMetadataUnmarshalRejectsUnknownFields(t *testing.T) {
	document := `{
		"snippet_type": "control_structure",
		"context_info": {"nesting_level": 1},
		"language_features": {"uses_async": false, "uses_generators": false, "uses_destructuring": false, "uses_spread": false, "uses_template_literals": false},
		"complexity": 2,
		"is_standalone": true,
		"has_side_effects": false,
		"surprise_field": 1
	}`

	var metadata SnippetMetadata
	err := json.Unmarshal([]byte(document), &metadata)

	require.Error(t, err)
}

func TestSnippetMetadataUnmarshalRejectsMismatchedSubMetadata(t *testing.T) {
	document := `{
		"snippet_type": "control_structure",
		"context_info": {"nesting_level": 0},
		"language_features": {"uses_async": false, "uses_generators": false, "uses_destructuring": false, "uses_spread": false, "uses_template_literals": false},
		"complexity": 2,
		"is_standalone": true,
		"has_side_effects": false,
		"call_chain_info": {"chain_length": 2, "has_async": false, "has_callbacks": false, "call_type": "chained"}
	}`

	var metadata SnippetMetadata
	err := json.Unmarshal([]byte(document), &metadata)

	require.Error(t, err)
}

func TestSnippetMetadataRoundTrip(t *testing.T) {
	original := SnippetMetadata{
		Kind:       Goroutine,
		Complexity: 4,
		GoConcurrency: &GoConcurrencyInfo{
			Goroutines: 1,
			Channels:   []string{"int"},
			Purpose:    "concurrent_processing_with_communication",
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded SnippetMetadata
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.Kind, decoded.Kind)
	require.NotNil(t, decoded.GoConcurrency)
	assert.Equal(t, original.GoConcurrency.Channels, decoded.GoConcurrency.Channels)
}
