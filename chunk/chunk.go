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

// Package chunk defines the structural units (Chunk) and rule-extracted
// sub-trees (Snippet) emitted by the parsing and extraction core. These
// types are the public output contract: consumers serialize them to JSON
// and depend on the field names staying stable.
package chunk

import "github.com/horusec-io/codesnippet-engine/internal/lang"

// Kind identifies the structural role of a Chunk.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindImport   Kind = "import"
	KindExport   Kind = "export"
	KindModule   Kind = "module"
)

// Metadata carries the structural information extracted for a Chunk.
type Metadata struct {
	Language     lang.Language `json:"language"`
	Complexity   int           `json:"complexity"`
	Parameters   []string      `json:"parameters,omitempty"`
	ReturnType   string        `json:"return_type,omitempty"`
	Methods      []string      `json:"methods,omitempty"`
	Properties   []string      `json:"properties,omitempty"`
	Inheritance  []string      `json:"inheritance,omitempty"`
	LinesOfCode  int           `json:"linesOfCode"`
	Imports      []string      `json:"imports,omitempty"`
	Exports      []string      `json:"exports,omitempty"`
}

// Chunk is a structural unit of code: a function, class, import/export
// statement, or whole module.
type Chunk struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	StartByte  uint32   `json:"start_byte"`
	EndByte    uint32   `json:"end_byte"`
	Kind       Kind     `json:"kind,omitempty"`
	Name       string   `json:"name,omitempty"`
	Metadata   Metadata `json:"metadata"`
}
