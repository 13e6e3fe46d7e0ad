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

package text

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bigEndianUTF16BOM    = []byte{'\xFE', '\xFF'}
	littleEndianUTF16BOM = []byte{'\xFF', '\xFE'}

	// ErrWinFileWithoutBOM is returned by ReadTextFileWin when the file looks
	// like UTF-16 but carries no BOM, so the byte order can't be determined.
	ErrWinFileWithoutBOM = errors.New(
		"this file does not contain a BOM, save it again with a BOM so the engine can detect its byte order")
)

func newWinUnicodeReader(defaultReader io.Reader) io.Reader {
	decoder := unicode.UTF8.NewDecoder()
	return transform.NewReader(defaultReader, unicode.BOMOverride(decoder))
}

// ReadTextFileWin reads filename the way ReadTextFile does on POSIX, but
// additionally rejects UTF-16 encoded content that carries no BOM, since the
// byte order otherwise can't be recovered.
func ReadTextFileWin(filename string) ([]byte, error) {
	fileDescriptor, err := os.Open(filename)
	if err != nil {
		return []byte{}, err
	}
	defer fileDescriptor.Close()

	bomCheckBuffer := make([]byte, 4)
	bytesRead, err := io.ReadFull(fileDescriptor, bomCheckBuffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return []byte{}, err
	}

	head := bomCheckBuffer[:bytesRead]
	hasUTF16BOM := bytes.HasPrefix(head, bigEndianUTF16BOM) || bytes.HasPrefix(head, littleEndianUTF16BOM)

	// A NUL byte among the first characters marks UTF-16 text.
	if !hasUTF16BOM && bytes.IndexByte(head, 0) >= 0 {
		return []byte{}, ErrWinFileWithoutBOM
	}

	if _, err := fileDescriptor.Seek(0, io.SeekStart); err != nil {
		return []byte{}, err
	}

	reader := newWinUnicodeReader(fileDescriptor)

	return ioutil.ReadAll(reader)
}
