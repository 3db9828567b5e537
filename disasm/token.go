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

// AsmTokenKind classifies a lexeme produced by the tokenizer. Kinds up to
// and including Label are produced directly by the tokenizer (Identifier
// also being the classifier's fallback); kinds from Directive onward are
// only ever assigned by a DialectClassifier refining an identifier-shaped
// token.
type AsmTokenKind int

const (
	NewLine AsmTokenKind = iota
	Misc
	Comment
	Number
	String
	Identifier
	Label
	Directive
	DataDirective
	Instruction
	InstructionSIMD
	Register
	BranchInstruction
	JumpInstruction
	CallInstruction
	ReturnInstruction
	Qualifier
	SourceFile
	SourceLocation
	FunctionBegin
	FunctionEnd
)

func (k AsmTokenKind) String() string {
	switch k {
	case NewLine:
		return "NewLine"
	case Misc:
		return "Misc"
	case Comment:
		return "Comment"
	case Number:
		return "Number"
	case String:
		return "String"
	case Identifier:
		return "Identifier"
	case Label:
		return "Label"
	case Directive:
		return "Directive"
	case DataDirective:
		return "DataDirective"
	case Instruction:
		return "Instruction"
	case InstructionSIMD:
		return "InstructionSIMD"
	case Register:
		return "Register"
	case BranchInstruction:
		return "BranchInstruction"
	case JumpInstruction:
		return "JumpInstruction"
	case CallInstruction:
		return "CallInstruction"
	case ReturnInstruction:
		return "ReturnInstruction"
	case Qualifier:
		return "Qualifier"
	case SourceFile:
		return "SourceFile"
	case SourceLocation:
		return "SourceLocation"
	case FunctionBegin:
		return "FunctionBegin"
	case FunctionEnd:
		return "FunctionEnd"
	default:
		return "Unknown"
	}
}

// isMnemonic reports whether a kind is one of the instruction-family kinds
// that the Intel renderer aligns to a fixed column.
func (k AsmTokenKind) isMnemonic() bool {
	switch k {
	case Instruction, InstructionSIMD, BranchInstruction, JumpInstruction, CallInstruction, ReturnInstruction:
		return true
	default:
		return false
	}
}

// StringSlice is an immutable (offset, length) view into an input buffer.
// Equality and hashing are defined over the referenced bytes, never the
// offset, which is why callers that need it as a map key use Text(input)
// to obtain a Go string: Go's native string equality/hashing is already
// content-based, so it satisfies StringSlice's contract without a custom
// interning table.
type StringSlice struct {
	Offset int
	Length int
}

// Text returns the slice's bytes as a Go string view into input.
func (s StringSlice) Text(input string) string {
	return input[s.Offset : s.Offset+s.Length]
}

// AsmToken is a lexical token: a (kind, offset, length) view into the input
// buffer. No token ever copies text out of the buffer; rendering and label
// lookups dereference lazily via Text.
type AsmToken struct {
	Kind   AsmTokenKind
	Offset int
	Length int
}

// Slice returns the StringSlice view of this token's text.
func (t AsmToken) Slice() StringSlice {
	return StringSlice{Offset: t.Offset, Length: t.Length}
}

// Text returns the token's underlying text.
func (t AsmToken) Text(input string) string {
	return input[t.Offset : t.Offset+t.Length]
}
