// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package disasm

import (
	"strconv"
	"strings"
)

// FileReader is the analyzer's one external collaborator: resolve a path
// referenced by a .file/.cv_file directive to its lines, or report that it
// could not be read. Implementations must never panic or block
// indefinitely; any failure is reported as (nil, false).
type FileReader interface {
	ReadLines(path string) ([]string, bool)
}

// NoFileReader never resolves a path. It is the zero-value-safe default
// used when a caller initializes a Disassembler without supplying a real
// reader: every .file directive resolves as missing, and
// SourceFileLocation rendering falls back to the header-without-text form.
type NoFileReader struct{}

func (NoFileReader) ReadLines(string) ([]string, bool) { return nil, false }

// fileEntry is one row of the file table keyed by file number.
type fileEntry struct {
	Path   string
	Lines  []string
	Loaded bool
}

// sourceEnricher turns .file/.cv_file directives into file-table entries
// (reading the referenced file through the external FileReader) and
// .loc/.cv_loc directives into the three numbers a SourceFileLocation line
// carries.
type sourceEnricher struct {
	reader FileReader
	files  map[int]fileEntry
}

func newSourceEnricher(reader FileReader) *sourceEnricher {
	if reader == nil {
		reader = NoFileReader{}
	}
	return &sourceEnricher{reader: reader, files: make(map[int]fileEntry)}
}

// numbersAndString scans tokens[first+1:end] and returns every Number
// token's parsed value in order, plus the text of the first String token
// encountered (unquoted and backslash-to-forward-slash normalized).
func numbersAndString(input string, tokens []AsmToken, first, end int) (nums []int, str string) {
	for i := first + 1; i < end; i++ {
		switch tokens[i].Kind {
		case Number:
			if v, err := strconv.ParseInt(tokens[i].Text(input), 0, 64); err == nil {
				nums = append(nums, int(v))
			}
		case String:
			if str == "" {
				str = unquotePath(tokens[i].Text(input))
			}
		}
	}
	return nums, str
}

func unquotePath(lexeme string) string {
	s := lexeme
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, `\\`, "/")
	s = strings.ReplaceAll(s, `\`, "/")
	return s
}

// registerFile handles a `.file N "path"` or `.cv_file funcid N "path"`
// line. Failures reading the file are non-fatal: the entry is stored with
// Loaded = false.
func (e *sourceEnricher) registerFile(input string, tokens []AsmToken, first, end int) {
	isCV := strings.EqualFold(tokens[first].Text(input), ".cv_file")
	nums, path := numbersAndString(input, tokens, first, end)

	idx := 0
	if isCV {
		idx = 1 // skip funcid
	}
	fileno := 0
	if len(nums) > idx {
		fileno = nums[idx]
	}

	entry := fileEntry{Path: path}
	if lines, ok := e.reader.ReadLines(path); ok {
		entry.Lines = lines
		entry.Loaded = true
	}
	e.files[fileno] = entry
}

// enrichLocation handles a `.loc fileno lineno [colno] [opts...]` or
// `.cv_loc funcid fileno lineno [colno]` line, tolerating missing trailing
// numbers by defaulting them to 0.
func (e *sourceEnricher) enrichLocation(input string, tokens []AsmToken, first, end int) (fileno, lineno, colno int) {
	isCV := strings.EqualFold(tokens[first].Text(input), ".cv_loc")
	nums, _ := numbersAndString(input, tokens, first, end)

	idx := 0
	if isCV {
		idx = 1 // skip funcid
	}
	if len(nums) > idx {
		fileno = nums[idx]
	}
	if len(nums) > idx+1 {
		lineno = nums[idx+1]
	}
	if len(nums) > idx+2 {
		colno = nums[idx+2]
	}
	return fileno, lineno, colno
}
