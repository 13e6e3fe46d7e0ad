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

// Package lang defines the language tags the engine understands and the
// extension-based detection heuristic used when a caller does not supply one.
package lang

import "path/filepath"

// Language identifies the grammar used to parse a source file.
type Language string

// Supported language tags. Unknown tags refuse to parse.
const (
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Python     Language = "python"
	Java       Language = "java"
	Go         Language = "go"
	Rust       Language = "rust"
	Cpp        Language = "cpp"
	C          Language = "c"
	Markdown   Language = "markdown"
	Unknown    Language = ""
)

// extByLanguage mirrors the detection table, kept as a map so detection is
// a single lookup instead of a chain of string comparisons.
var extByLanguage = map[string]Language{
	".ts":  TypeScript,
	".tsx": TypeScript,
	".js":  JavaScript,
	".jsx": JavaScript,
	".py":  Python,
	".java": Java,
	".go":  Go,
	".rs":  Rust,
	".cpp": Cpp,
	".cc":  Cpp,
	".hpp": Cpp,
	".h":   Cpp,
	".c":   C,
	".md":  Markdown,
}

// DetectByExtension maps a file extension to a Language, returning Unknown
// when the extension isn't recognized. Matches spec §6's detection table.
func DetectByExtension(path string) Language {
	ext := filepath.Ext(path)
	if l, ok := extByLanguage[ext]; ok {
		return l
	}
	return Unknown
}

// Supported reports whether l is one of the nine enumerated tags.
func (l Language) Supported() bool {
	switch l {
	case JavaScript, TypeScript, Python, Java, Go, Rust, Cpp, C, Markdown:
		return true
	default:
		return false
	}
}

func (l Language) String() string { return string(l) }
