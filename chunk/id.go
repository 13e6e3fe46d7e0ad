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
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// NewID builds the dedup key for a snippet: "<snippet_type>_<start_line>_<8 hex
// char content hash>". The hash is a pure function of content so that
// identical (snippetType, startLine, content) always produce the same id
// across runs and platforms (I2/P5), while two byte-identical blocks at
// different start lines still get distinct ids (seed scenario 6).
func NewID(snippetType SnippetType, startLine int, content string) string {
	sum := xxhash.Sum64String(content)
	return fmt.Sprintf("%s_%d_%08x", snippetType, startLine, uint32(sum))
}
