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

// Package disasm implements a multi-dialect assembly/IR disassembly
// analyzer and renderer: a dialect-parameterized tokenizer, a single-pass
// block builder, a label/edge resolver, a source-location enricher and a
// column-tracking renderer, all operating over one immutable input buffer.
package disasm

import (
	"fmt"
	"sync"
)

// renderedBlock is the memoized output of rendering one block: its text
// plus the per-token column array the renderer populated as a side effect.
type renderedBlock struct {
	text    string
	columns []int32
}

// Disassembler is the top-level, single-threaded analyzer. It starts empty;
// Initialize parses a listing in one synchronous pass, after which the
// token/line/block/edge arrays are immutable and only the renderer's
// memoized strings and column arrays are ever added to.
type Disassembler struct {
	input   string
	dialect Dialect
	dark    bool
	colored bool

	initialized bool

	tokens []AsmToken
	lines  []AsmLine
	blocks []AsmBlock
	files  map[int]fileEntry

	renderMu sync.Mutex
	rendered []*renderedBlock
}

// NewDisassembler returns an empty, uninitialized Disassembler.
func NewDisassembler() *Disassembler {
	return &Disassembler{}
}

// Reset empties every array and marks the instance uninitialized. Safe to
// call on a fresh or already-reset instance.
func (d *Disassembler) Reset() {
	d.input = ""
	d.tokens = nil
	d.lines = nil
	d.blocks = nil
	d.files = nil
	d.rendered = nil
	d.initialized = false
}

// Initialize parses input as dialect, using reader to resolve any
// .file/.cv_file directives, and reports whether it succeeded. On any
// internal failure the instance is left exactly as Reset left it and the
// failure is returned as an error alongside a false result — no
// partially-initialized state is ever observable. reader may be nil, in
// which case every source file reference resolves as missing.
func (d *Disassembler) Initialize(input string, dialect Dialect, reader FileReader, darkTheme, colored bool) (ok bool, err error) {
	d.Reset()
	defer func() {
		if r := recover(); r != nil {
			d.Reset()
			ok = false
			err = fmt.Errorf("disasm: initialize: %v", r)
		}
	}()

	capacity := len(input) / 7
	if capacity < 64 {
		capacity = 64
	}
	tokens := make([]AsmToken, 0, capacity)
	tz := NewTokenizer(input, dialect)
	for {
		t, more := tz.TryNext()
		if !more {
			break
		}
		tokens = append(tokens, t)
	}

	start := skipBanner(tokens)
	p := newParser(input, tokens, reader)
	p.parse(start)

	d.input = input
	d.dialect = dialect
	d.dark = darkTheme
	d.colored = colored
	d.tokens = tokens
	d.lines = p.lines
	d.blocks = p.blocks
	d.files = p.enricher.files
	d.rendered = make([]*renderedBlock, len(p.blocks))
	d.initialized = true
	return true, nil
}

// Initialized reports whether the last Initialize call succeeded and Reset
// has not been called since.
func (d *Disassembler) Initialized() bool { return d.initialized }

// Dialect returns the dialect the instance was initialized with.
func (d *Disassembler) Dialect() Dialect { return d.dialect }

// Blocks returns the parsed block array. The caller must not mutate it.
func (d *Disassembler) Blocks() []AsmBlock { return d.blocks }

// Lines returns the parsed line array. The caller must not mutate it.
func (d *Disassembler) Lines() []AsmLine { return d.lines }

// Tokens returns the token array. The caller must not mutate it.
func (d *Disassembler) Tokens() []AsmToken { return d.tokens }

// IsColored reports whether this instance renders with color tags.
func (d *Disassembler) IsColored() bool { return d.colored }

// GetToken returns the token at i, or the zero AsmToken if i is out of
// range.
func (d *Disassembler) GetToken(i int) AsmToken {
	if i < 0 || i >= len(d.tokens) {
		return AsmToken{}
	}
	return d.tokens[i]
}

// GetTokenText returns the text underlying token i.
func (d *Disassembler) GetTokenText(i int) string {
	if i < 0 || i >= len(d.tokens) {
		return ""
	}
	return d.tokens[i].Text(d.input)
}
