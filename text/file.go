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

// Package text holds the file representation used to turn a tree-sitter byte
// offset back into a human line/column and a source sample, and the
// encoding-aware reader that feeds bytes into the parser.
package text

import (
	"bytes"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

var newlineFinder = regexp.MustCompile("\x0a")

// Magic bytes used to recognize binaries so the engine skips them instead of
// trying to parse or chunk them.
var (
	PEMagicBytes   = []byte{'\x4D', '\x5A'}                 // MZ
	ELFMagicNumber = []byte{'\x7F', '\x45', '\x4C', '\x46'} // .ELF
)

// binarySearch uses this search algorithm to find the index of the matching element.
func binarySearch(searchIndex int, collection []int) (foundIndex int) {
	return sort.Search(
		len(collection),
		func(index int) bool { return collection[index] >= searchIndex },
	)
}

// TextFile represents a file being analyzed, along with the precomputed
// newline index used to translate a byte offset into a line and column.
type TextFile struct {
	DisplayName string // Holds the raw path relative to the root folder of the project
	Name        string // Holds only the single name of the file (e.g. handler.js)
	RawString   string // Holds all the file content

	// Holds the complete path to the file, could be absolute or not (e.g. /home/user/myProject/router/handler.js)
	PhysicalPath string

	// newlineEndingIndexes holds the *start* index of each '\n' rune in the file.
	newlineEndingIndexes []int
}

// NewTextFile builds a TextFile for relativeFilePath with the given content.
func NewTextFile(relativeFilePath string, content []byte) (TextFile, error) {
	formattedPhysicalPath, err := validateRelativeFilePath(relativeFilePath)
	if err != nil {
		return TextFile{}, err
	}

	return createTextFileByPath(formattedPhysicalPath, relativeFilePath, content), nil
}

func createTextFileByPath(formattedPhysicalPath, relativeFilePath string, content []byte) TextFile {
	_, formattedFilename := filepath.Split(formattedPhysicalPath)
	textfile := TextFile{
		PhysicalPath: formattedPhysicalPath,
		RawString:    string(content),

		Name:        formattedFilename,
		DisplayName: relativeFilePath,
	}

	for _, newlineIndex := range newlineFinder.FindAllIndex(content, -1) {
		textfile.newlineEndingIndexes = append(textfile.newlineEndingIndexes, newlineIndex[0])
	}

	return textfile
}

func validateRelativeFilePath(relativeFilePath string) (string, error) {
	if !filepath.IsAbs(relativeFilePath) {
		return filepath.Abs(relativeFilePath)
	}

	return relativeFilePath, nil
}

// Content implements the File interface used by rules that want the raw source.
func (textfile TextFile) Content() string {
	return textfile.RawString
}

// FindLineAndColumn returns the 1-based line and the column of the byte at
// offset findingIndex, using a binary search over the precomputed newline
// index instead of rescanning the file for every lookup.
func (textfile TextFile) FindLineAndColumn(findingIndex int) (line, column int) {
	lineIndex := binarySearch(findingIndex, textfile.newlineEndingIndexes)

	if lineIndex < len(textfile.newlineEndingIndexes) {
		line = lineIndex + 1

		endOfCurrentLine := lineIndex - 1
		if endOfCurrentLine <= 0 {
			endOfCurrentLine = 0
		}

		endOfCurrentLineInTheFile := textfile.newlineEndingIndexes[endOfCurrentLine]
		if findingIndex == 0 {
			column = endOfCurrentLineInTheFile
		} else {
			column = (findingIndex - 1) - endOfCurrentLineInTheFile
		}
	}

	return line, column
}

// ExtractSample returns the trimmed content of the line that contains findingIndex.
func (textfile TextFile) ExtractSample(findingIndex int) string {
	lineIndex := binarySearch(findingIndex, textfile.newlineEndingIndexes)

	if lineIndex < len(textfile.newlineEndingIndexes) {
		endOfPreviousLine := 0
		if lineIndex > 0 {
			endOfPreviousLine = textfile.newlineEndingIndexes[lineIndex-1] + 1
		}
		endOfCurrentLine := textfile.newlineEndingIndexes[lineIndex]

		return strings.TrimSpace(textfile.RawString[endOfPreviousLine:endOfCurrentLine])
	}

	return ""
}

// IsBinary reports whether content starts with a recognized ELF or PE magic
// number, so the engine can skip binaries instead of feeding them to a parser.
func IsBinary(content []byte) bool {
	if bytes.HasPrefix(content, ELFMagicNumber) {
		return true
	}

	if bytes.HasPrefix(content, PEMagicBytes) {
		return true
	}

	return false
}

// ReadAndCreateTextFile reads filename from disk, applying BOM-aware UTF-8
// transcoding, and wraps the result in a TextFile. It returns a zero TextFile
// with no error for recognized binaries, so callers can skip them uniformly.
func ReadAndCreateTextFile(filename string) (TextFile, error) {
	var content []byte
	var err error

	if runtime.GOOS == "windows" {
		content, err = ReadTextFileWin(filename)
	} else {
		content, err = ReadTextFile(filename)
	}
	if err != nil {
		return TextFile{}, err
	}

	if len(content) >= 4 && IsBinary(content) {
		return TextFile{}, nil
	}

	return NewTextFile(filename, content)
}
