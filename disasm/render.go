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
	"path/filepath"
	"strconv"
	"strings"
)

// colorPair is a token kind's (dark-theme, light-theme) color.
type colorPair struct{ dark, light string }

var lineDirectiveColor = colorPair{dark: "#FFFF00", light: "#888800"}

var kindColor = map[AsmTokenKind]colorPair{
	Directive:         {dark: "#CCCCCC", light: "#444444"},
	DataDirective:     {dark: "#CCCCCC", light: "#444444"},
	FunctionBegin:     {dark: "#CCCCCC", light: "#444444"},
	FunctionEnd:       {dark: "#CCCCCC", light: "#444444"},
	Identifier:        {dark: "#d4d4d4", light: "#1c1c1c"},
	Label:             {dark: "#d4d4d4", light: "#1c1c1c"},
	Qualifier:         {dark: "#DCDCAA", light: "#267f99"},
	Instruction:       {dark: "#4EC9B0", light: "#0451a5"},
	BranchInstruction: {dark: "#4EC9B0", light: "#0451a5"},
	JumpInstruction:   {dark: "#4EC9B0", light: "#0451a5"},
	CallInstruction:   {dark: "#4EC9B0", light: "#0451a5"},
	ReturnInstruction: {dark: "#4EC9B0", light: "#0451a5"},
	InstructionSIMD:   {dark: "#C586C0", light: "#0000ff"},
	Register:          {dark: "#d7ba7d", light: "#811f3f"},
	Number:            {dark: "#9cdcfe", light: "#007ACC"},
	String:            {dark: "#ce9178", light: "#a31515"},
	Comment:           {dark: "#6A9955", light: "#008000"},
}

func (p colorPair) pick(dark bool) string {
	if dark {
		return p.dark
	}
	return p.light
}

func wrapColor(s, hex string) string {
	var b strings.Builder
	b.Grow(len(s) + len(hex) + 18)
	b.WriteString("<color=")
	b.WriteString(hex)
	b.WriteString(">")
	b.WriteString(s)
	b.WriteString("</color>")
	return b.String()
}

const intelMnemonicColumn = 10

// GetOrRenderBlock renders block i to text, memoizing the result (and the
// per-token column-index array it populates as a side effect) so repeated
// calls are byte-identical and O(1) after the first.
func (d *Disassembler) GetOrRenderBlock(i int) string {
	if i < 0 || i >= len(d.blocks) {
		return ""
	}
	d.renderMu.Lock()
	defer d.renderMu.Unlock()
	if d.rendered[i] != nil {
		return d.rendered[i].text
	}
	rb := d.renderBlock(i)
	d.rendered[i] = rb
	return rb.text
}

// RenderFullText concatenates every block's rendering, in order.
func (d *Disassembler) RenderFullText() string {
	var b strings.Builder
	for i := range d.blocks {
		b.WriteString(d.GetOrRenderBlock(i))
	}
	return b.String()
}

// renderBlock does the actual work behind GetOrRenderBlock. It must only be
// called with renderMu held.
func (d *Disassembler) renderBlock(blockIndex int) *renderedBlock {
	block := d.blocks[blockIndex]
	var out strings.Builder
	var columns []int32

	for li := 0; li < block.Length; li++ {
		lineIdx := block.LineIndex + li
		line := &d.lines[lineIdx]

		if line.Kind == LineSourceFileLocation {
			out.WriteString(d.renderSourceFileLocation(*line))
			continue
		}

		columns = d.renderLine(&out, line, columns)
	}

	return &renderedBlock{text: out.String(), columns: columns}
}

// renderLine renders one code/data/directive line's tokens, tracking the
// visible column (color tags never contribute to it) and recording, for
// every token after the first except the trailing NewLine, the column at
// which it starts. It returns
// the (possibly grown) shared per-block column array.
func (d *Disassembler) renderLine(out *strings.Builder, line *AsmLine, columns []int32) []int32 {
	start := line.TokenIndex()
	length := line.Length()
	line.setColumnIndex(len(columns))

	col := 0
	for k := 0; k < length; k++ {
		tok := d.tokens[start+k]
		if tok.Kind == NewLine {
			out.WriteByte('\n')
			continue
		}
		if k > 0 {
			columns = append(columns, int32(col))
		}

		text := tok.Text(d.input)
		if d.colored {
			if pair, ok := kindColor[tok.Kind]; ok {
				out.WriteString(wrapColor(text, pair.pick(d.dark)))
			} else {
				out.WriteString(text)
			}
		} else {
			out.WriteString(text)
		}
		col += len(text)

		if d.dialect == Intel && tok.Kind.isMnemonic() && k != length-2 {
			target := col
			if intelMnemonicColumn > target {
				target = intelMnemonicColumn
			}
			pad := target - col
			for p := 0; p < pad; p++ {
				out.WriteByte(' ')
			}
			col = target
		}
	}
	return columns
}

// renderSourceFileLocation renders a synthesized header line in place of a
// .loc/.cv_loc directive. SourceFileLocation lines consume no tokens and
// contribute nothing to the column-index array.
func (d *Disassembler) renderSourceFileLocation(line AsmLine) string {
	fileno := line.SourceFileNo()
	lineno := line.SourceLineNo()
	colno := line.SourceColumnNo()

	if fileno == 0 {
		return "\n"
	}

	entry, ok := d.files[fileno]
	base := filepath.Base(entry.Path)
	if !ok || entry.Path == "" {
		base = "?"
	}

	var header string
	switch {
	case lineno == 0:
		header = "=== " + base
	case entry.Loaded && lineno-1 >= 0 && lineno-1 < len(entry.Lines):
		header = "=== " + base + "(" + strconv.Itoa(lineno) + ", " + strconv.Itoa(colno+1) + ")" + entry.Lines[lineno-1]
	default:
		header = "=== " + base + "(" + strconv.Itoa(lineno) + ", " + strconv.Itoa(colno+1) + ")"
	}

	if d.colored {
		header = wrapColor(header, lineDirectiveColor.pick(d.dark))
	}
	return header + "\n"
}

// GetTokenIndexFromColumn maps a rendered column back to the token whose
// range covers it, within the given block and line-within-block. It
// returns -1 if no token covers the column. lineIndex is echoed back to the
// caller for convenience; SourceFileLocation
// lines have no tokens to find and always resolve to -1.
func (d *Disassembler) GetTokenIndexFromColumn(blockIndex, lineInBlock, column int) (tokenIndex int, lineIndex int) {
	lineIndex = lineInBlock
	if blockIndex < 0 || blockIndex >= len(d.blocks) {
		return -1, lineIndex
	}
	block := d.blocks[blockIndex]
	if lineInBlock < 0 || lineInBlock >= block.Length {
		return -1, lineIndex
	}
	// Ensure the block (and its column array) has been rendered.
	d.GetOrRenderBlock(blockIndex)

	d.renderMu.Lock()
	rb := d.rendered[blockIndex]
	d.renderMu.Unlock()
	if rb == nil {
		return -1, lineIndex
	}

	line := d.lines[block.LineIndex+lineInBlock]
	if line.Kind == LineSourceFileLocation {
		return -1, lineIndex
	}

	start := line.TokenIndex()
	length := line.Length()
	colStart := line.ColumnIndex()

	col := 0
	for k := 0; k < length; k++ {
		tok := d.tokens[start+k]
		if tok.Kind == NewLine {
			break
		}
		if k > 0 {
			if colStart+(k-1) >= len(rb.columns) {
				break
			}
			col = int(rb.columns[colStart+(k-1)])
		}
		width := tok.Length
		if column >= col && column < col+width {
			return start + k, lineIndex
		}
	}
	return -1, lineIndex
}
