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

// AsmLineKind classifies one logical source line of the listing.
type AsmLineKind int

const (
	LineNone AsmLineKind = iota
	LineDirective
	LineSourceFile
	LineSourceLocation
	LineSourceFileLocation
	LineData
	LineCode
	LineCodeBranch
	LineCodeJump
	LineCodeCall
	LineCodeReturn
	LineLabelDeclaration
	LineComment
	LineFunctionBegin
	LineFunctionEnd
)

// AsmLine is a tagged union with a fixed three-int payload: for every kind
// except LineSourceFileLocation the payload is (tokenIndex, length,
// columnIndex); for LineSourceFileLocation it is instead (sourceFile,
// sourceLine, sourceColumn). Modeling it this way - one fixed-size array
// reinterpreted by Kind - keeps the line array a flat, allocation-free slice
// instead of a line type carrying both field sets unconditionally.
type AsmLine struct {
	Kind   AsmLineKind
	fields [3]int32
}

// TokenIndex is the index of this line's first token (valid unless Kind is
// LineSourceFileLocation, which consumes no tokens at render time).
func (l AsmLine) TokenIndex() int { return int(l.fields[0]) }

// Length is the number of tokens in this line, including the trailing
// NewLine.
func (l AsmLine) Length() int { return int(l.fields[1]) }

// ColumnIndex is the offset into the renderer's per-block column-index
// array where this line's per-token columns begin.
func (l AsmLine) ColumnIndex() int { return int(l.fields[2]) }

func (l *AsmLine) setColumnIndex(i int) { l.fields[2] = int32(i) }

// SourceFileNo, SourceLineNo and SourceColumnNo are only meaningful when
// Kind == LineSourceFileLocation.
func (l AsmLine) SourceFileNo() int   { return int(l.fields[0]) }
func (l AsmLine) SourceLineNo() int   { return int(l.fields[1]) }
func (l AsmLine) SourceColumnNo() int { return int(l.fields[2]) }

func newCodeLine(kind AsmLineKind, tokenIndex, length int) AsmLine {
	return AsmLine{Kind: kind, fields: [3]int32{int32(tokenIndex), int32(length), 0}}
}

func newSourceFileLocationLine(fileno, lineno, colno int) AsmLine {
	return AsmLine{Kind: LineSourceFileLocation, fields: [3]int32{int32(fileno), int32(lineno), int32(colno)}}
}

// blockKindFlag reports which AsmBlockKind flag, if any, a committed line
// of this kind contributes to its enclosing block.
func (k AsmLineKind) blockKindFlag() AsmBlockKind {
	switch k {
	case LineDirective:
		return BlockDirective
	case LineSourceLocation, LineSourceFileLocation, LineCode, LineCodeBranch, LineCodeJump, LineCodeCall, LineCodeReturn:
		return BlockCode
	case LineData:
		return BlockData
	default:
		return BlockNone
	}
}
