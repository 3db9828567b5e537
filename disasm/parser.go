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

// lineKindForFirstToken maps a line's first meaningful token kind to its
// AsmLineKind, first match wins. Mnemonic
// kinds the classifier never assigns (because the lexeme is not in its
// table) surface as plain Identifier tokens; those default to LineCode, the
// same way an unrecognized mnemonic is still obviously "some instruction"
// rather than nothing at all.
func lineKindForFirstToken(k AsmTokenKind) AsmLineKind {
	switch k {
	case Directive:
		return LineDirective
	case SourceFile:
		return LineSourceFile
	case SourceLocation:
		return LineSourceLocation
	case DataDirective:
		return LineData
	case Instruction, InstructionSIMD, Identifier:
		return LineCode
	case BranchInstruction:
		return LineCodeBranch
	case JumpInstruction:
		return LineCodeJump
	case CallInstruction:
		return LineCodeCall
	case ReturnInstruction:
		return LineCodeReturn
	case Label:
		return LineLabelDeclaration
	case Comment:
		return LineComment
	case FunctionBegin:
		return LineFunctionBegin
	case FunctionEnd:
		return LineFunctionEnd
	default:
		return LineNone
	}
}

// parser drives the single pass that turns a flat token array into lines,
// blocks and (via labelResolver / sourceEnricher) the deferred edge and
// source-location state. It never holds a pointer back into the
// Disassembler; it builds plain slices that the caller installs once
// parsing succeeds.
type parser struct {
	input    string
	tokens   []AsmToken
	lines    []AsmLine
	blocks   []AsmBlock
	resolver *labelResolver
	enricher *sourceEnricher
}

func newParser(input string, tokens []AsmToken, reader FileReader) *parser {
	return &parser{
		input:    input,
		tokens:   tokens,
		resolver: newLabelResolver(),
		enricher: newSourceEnricher(reader),
	}
}

func (p *parser) openBlock() {
	p.blocks = append(p.blocks, AsmBlock{Kind: BlockBlock, LineIndex: len(p.lines)})
}

func (p *parser) closeBlock() {
	if len(p.blocks) == 0 {
		return
	}
	cur := &p.blocks[len(p.blocks)-1]
	cur.Length = len(p.lines) - cur.LineIndex
	cur.finalize()
}

// firstMeaningful returns the index of the first non-Misc token in
// [start, end), or -1.
func (p *parser) firstMeaningful(start, end int) int {
	for i := start; i < end; i++ {
		if p.tokens[i].Kind != Misc {
			return i
		}
	}
	return -1
}

// nextMeaningful returns the index of the first non-Misc token in
// (after, end), or -1.
func (p *parser) nextMeaningful(after, end int) int {
	return p.firstMeaningful(after+1, end)
}

// peekNextLineStartsWithLabel looks at the tokens immediately following a
// NewLine (at tokens[afterNewLine:]) and reports whether the next line's
// first substantive token is a Label, without consuming anything.
func (p *parser) peekNextLineStartsWithLabel(afterNewLine int) bool {
	for i := afterNewLine; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case Misc:
			continue
		default:
			return p.tokens[i].Kind == Label
		}
	}
	return false
}

// commitLine installs the side effects of one logical line (label
// registration, deferred branch targets, source-file/location enrichment)
// and, unless the line is a dropped SourceFile directive, appends it to
// p.lines and folds its block-kind flag into the currently open block.
func (p *parser) commitLine(kind AsmLineKind, tokenStart, length int) {
	end := tokenStart + length
	first := p.firstMeaningful(tokenStart, end)

	if kind == LineSourceFile {
		if first >= 0 {
			p.enricher.registerFile(p.input, p.tokens, first, end)
		}
		return
	}

	blockIndex := len(p.blocks) - 1
	lineIndexInBlock := len(p.lines) - p.blocks[blockIndex].LineIndex

	if kind == LineSourceLocation {
		fileno, lineno, colno := p.enricher.enrichLocation(p.input, p.tokens, first, end)
		p.lines = append(p.lines, newSourceFileLocationLine(fileno, lineno, colno))
		p.blocks[blockIndex].refine(BlockCode)
		return
	}

	p.lines = append(p.lines, newCodeLine(kind, tokenStart, length))
	p.blocks[blockIndex].refine(kind.blockKindFlag())

	switch kind {
	case LineLabelDeclaration:
		if first >= 0 {
			name := p.tokens[first].Text(p.input)
			p.resolver.registerLabel(name, blockIndex, lineIndexInBlock)
		}
	case LineCodeBranch, LineCodeJump, LineCodeCall:
		if first >= 0 {
			operand := p.nextMeaningful(first, end)
			if operand >= 0 {
				switch p.tokens[operand].Kind {
				case String, Identifier, Label:
					p.tokens[operand].Kind = Label
					p.resolver.recordTarget(blockIndex,
						AsmLineRef{BlockIndex: blockIndex, LineIndex: lineIndexInBlock},
						p.tokens[operand].Offset, p.tokens[operand].Length,
						kind == LineCodeBranch)
				}
			}
		}
	}
}

// parse runs the single-pass block builder over tokens[start:], then
// resolves every deferred branch/jump/call target into concrete edges.
func (p *parser) parse(start int) {
	p.openBlock()

	lineStart := start
	firstTokenSeen := false
	lineKind := LineNone

	i := start
	for i < len(p.tokens) {
		t := p.tokens[i]
		switch t.Kind {
		case NewLine:
			if firstTokenSeen {
				length := i - lineStart + 1
				p.commitLine(lineKind, lineStart, length)
				closesBlock := lineKind == LineCodeBranch || p.peekNextLineStartsWithLabel(i+1)
				if closesBlock {
					p.closeBlock()
					p.openBlock()
				}
			}
			i++
			lineStart = i
			firstTokenSeen = false
			lineKind = LineNone
		case Misc:
			i++
		default:
			if !firstTokenSeen {
				firstTokenSeen = true
				lineKind = lineKindForFirstToken(t.Kind)
			}
			i++
		}
	}
	if firstTokenSeen {
		p.commitLine(lineKind, lineStart, i-lineStart)
	}
	p.closeBlock()

	// A block boundary after the last committed line (a conditional branch
	// on the listing's last line) leaves a trailing block with no lines; it
	// never carried any content, so drop it rather than publish a dangling
	// empty block.
	if n := len(p.blocks); n > 0 && p.blocks[n-1].Length == 0 {
		p.blocks = p.blocks[:n-1]
	}

	p.resolver.resolve(p.input, p.blocks)
}

// skipBanner discards the first physical line of the listing verbatim: it
// returns the index of the first token after the first NewLine, or
// len(tokens) if the input has no newline at all.
func skipBanner(tokens []AsmToken) int {
	for i, t := range tokens {
		if t.Kind == NewLine {
			return i + 1
		}
	}
	return len(tokens)
}
