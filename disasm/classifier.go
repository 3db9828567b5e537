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

import "strings"

// DialectClassifier is the pluggable keyword table for one dialect. It is a
// pure function of the exact lexeme: case sensitivity, mnemonic sets, and
// directive sets are entirely the classifier's concern. Apart from the
// tokenizer's comment syntax (commentStart accepts "//" for ARM only), the
// tokenizer and parser never special-case a dialect; they only ever go through
// this interface, so each dialect's register/mnemonic table lives in one
// place and the rest of the package stays dialect-agnostic.
type DialectClassifier interface {
	// Classify maps a raw lexeme to its semantic AsmTokenKind. It returns
	// Identifier for anything it does not recognize.
	Classify(lexeme string) AsmTokenKind
}

// tableClassifier is a generic lookup-table-backed DialectClassifier. All
// four dialect singletons share this implementation; they differ only in
// their tables and in whether lookups are case-folded.
type tableClassifier struct {
	caseInsensitive bool
	mnemonics       map[string]AsmTokenKind // Instruction / InstructionSIMD / Branch / Jump / Call / Return
	registers       map[string]struct{}
	qualifiers      map[string]struct{}
	directives      map[string]AsmTokenKind // Directive / DataDirective / SourceFile / SourceLocation / FunctionBegin / FunctionEnd
}

func (c *tableClassifier) key(lexeme string) string {
	if c.caseInsensitive {
		return strings.ToLower(lexeme)
	}
	return lexeme
}

func (c *tableClassifier) Classify(lexeme string) AsmTokenKind {
	if lexeme == "" {
		return Identifier
	}
	if lexeme[0] == '.' {
		if kind, ok := c.directives[c.key(lexeme)]; ok {
			return kind
		}
		// A ".L"-prefixed lexeme is a local label, not a directive, whether
		// it is being declared (".Lskip:") or targeted ("je .Lskip") — the
		// label/branch machinery in labels.go and parser.go only ever looks
		// at Identifier/Label/String operand kinds.
		if strings.HasPrefix(lexeme, ".L") {
			return Identifier
		}
		return Directive
	}
	key := c.key(lexeme)
	if kind, ok := c.mnemonics[key]; ok {
		return kind
	}
	if _, ok := c.registers[key]; ok {
		return Register
	}
	if _, ok := c.qualifiers[key]; ok {
		return Qualifier
	}
	return Identifier
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// commonDirectives are the directive lexemes every dialect recognizes,
// beyond the dialect-specific data directives.
func commonDirectives() map[string]AsmTokenKind {
	return map[string]AsmTokenKind{
		".file":          SourceFile,
		".cv_file":       SourceFile,
		".loc":           SourceLocation,
		".cv_loc":        SourceLocation,
		".globl":         Directive,
		".global":        Directive,
		".type":          Directive,
		".size":          Directive,
		".text":          Directive,
		".data":          Directive,
		".section":       Directive,
		".p2align":       Directive,
		".align":         Directive,
		".byte":          DataDirective,
		".short":         DataDirective,
		".long":          DataDirective,
		".quad":          DataDirective,
		".asciz":         DataDirective,
		".ascii":         DataDirective,
		".zero":          DataDirective,
		".word":          DataDirective,
		".dword":         DataDirective,
		".xword":         DataDirective,
		".cfi_startproc": FunctionBegin,
		".cfi_endproc":   FunctionEnd,
	}
}

// intelClassifier is the x86 Intel-syntax dialect. x86 mnemonics and
// directives are case-insensitive, unlike every other dialect here.
var intelClassifier DialectClassifier = func() DialectClassifier {
	mnemonics := map[string]AsmTokenKind{
		"jmp":  JumpInstruction,
		"call": CallInstruction,
		"ret":  ReturnInstruction,
		"nop":  Instruction,
	}
	for _, m := range []string{
		"mov", "add", "sub", "lea", "push", "pop", "cmp", "test", "and", "or",
		"xor", "not", "neg", "inc", "dec", "imul", "idiv", "mul", "div",
		"shl", "shr", "sar", "sal", "rol", "ror", "cdq", "cqo",
	} {
		mnemonics[m] = Instruction
	}
	for _, m := range []string{
		"movss", "movsd", "movaps", "movups", "movdqa", "movdqu", "mulps",
		"mulss", "addps", "addss", "subps", "subss", "shufps", "pshufd",
		"paddd", "pmulld", "vmovaps", "vmulps", "vaddps", "vfmadd231ps",
	} {
		mnemonics[m] = InstructionSIMD
	}
	for _, m := range []string{
		"je", "jne", "jz", "jnz", "jl", "jle", "jg", "jge", "ja", "jae",
		"jb", "jbe", "js", "jns", "jo", "jno", "jc", "jnc", "jp", "jnp",
	} {
		mnemonics[m] = BranchInstruction
	}
	registers := set(
		"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
		"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
		"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
		"al", "bl", "cl", "dl",
		"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7",
		"ymm0", "ymm1", "ymm2", "ymm3", "ymm4", "ymm5", "ymm6", "ymm7",
		"zmm0", "zmm1", "zmm2", "zmm3", "zmm4", "zmm5", "zmm6", "zmm7",
		"rip",
	)
	qualifiers := set("byte", "word", "dword", "qword", "ptr", "short")
	directives := commonDirectives()
	return &tableClassifier{
		caseInsensitive: true,
		mnemonics:       mnemonics,
		registers:       registers,
		qualifiers:      qualifiers,
		directives:      directives,
	}
}()

// armClassifier is AArch64. Case-sensitive: "ADD" and "add" are distinct
// lexemes and only the latter is a mnemonic.
var armClassifier DialectClassifier = func() DialectClassifier {
	mnemonics := map[string]AsmTokenKind{
		"b":   JumpInstruction,
		"bl":  CallInstruction,
		"ret": ReturnInstruction,
		"nop": Instruction,
	}
	for _, m := range []string{
		"mov", "add", "sub", "ldr", "str", "ldp", "stp", "cmp", "cmn",
		"and", "orr", "eor", "mvn", "lsl", "lsr", "asr", "ror", "adrp",
		"adr", "madd", "msub", "udiv", "sdiv",
	} {
		mnemonics[m] = Instruction
	}
	for _, m := range []string{
		"fadd", "fsub", "fmul", "fdiv", "fmov", "fmla", "fmls", "dup",
		"ld1", "st1", "uaddl", "saddl", "fcvtzs", "scvtf",
	} {
		mnemonics[m] = InstructionSIMD
	}
	for _, m := range []string{
		"beq", "bne", "blt", "ble", "bgt", "bge", "blo", "bls", "bhi", "bhs",
		"bmi", "bpl", "bvs", "bvc", "cbz", "cbnz", "tbz", "tbnz",
	} {
		mnemonics[m] = BranchInstruction
	}
	registers := set(
		"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7", "x8", "x9",
		"x10", "x11", "x12", "x13", "x14", "x15", "x16", "x17", "x18",
		"x19", "x20", "x21", "x22", "x23", "x24", "x25", "x26", "x27",
		"x28", "x29", "x30", "sp", "xzr",
		"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7",
		"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7",
		"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7",
		"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	)
	qualifiers := set("lsl", "lsr", "asr", "uxtw", "sxtw", "uxtb", "sxtb")
	directives := commonDirectives()
	return &tableClassifier{
		caseInsensitive: false,
		mnemonics:       mnemonics,
		registers:       registers,
		qualifiers:      qualifiers,
		directives:      directives,
	}
}()

// wasmClassifier is the WebAssembly text format. Case-sensitive; dotted
// mnemonics (e.g. i32.add) are lexed as one identifier-shaped lexeme, since
// the tokenizer accepts '.' inside identifiers, and looked up whole.
var wasmClassifier DialectClassifier = func() DialectClassifier {
	mnemonics := map[string]AsmTokenKind{
		"br":          JumpInstruction,
		"br_if":       BranchInstruction,
		"call":        CallInstruction,
		"return":      ReturnInstruction,
		"nop":         Instruction,
		"unreachable": Instruction,
	}
	for _, m := range []string{
		"local.get", "local.set", "local.tee", "global.get", "global.set",
		"i32.const", "i64.const", "i32.add", "i32.sub", "i32.mul", "i32.and",
		"i32.or", "i32.xor", "i32.load", "i32.store", "i64.add", "i64.sub",
		"drop", "select", "end", "block", "loop", "if", "else",
	} {
		mnemonics[m] = Instruction
	}
	for _, m := range []string{
		"f32.add", "f32.sub", "f32.mul", "f32.div", "f64.add", "f64.sub",
		"f64.mul", "f64.div", "v128.load", "v128.store", "f32x4.add",
		"i32x4.add", "i32x4.mul",
	} {
		mnemonics[m] = InstructionSIMD
	}
	registers := set() // wasm has no named registers; the stack machine has none.
	qualifiers := set("param", "result", "local", "func", "type", "memory", "table")
	directives := commonDirectives()
	return &tableClassifier{
		caseInsensitive: false,
		mnemonics:       mnemonics,
		registers:       registers,
		qualifiers:      qualifiers,
		directives:      directives,
	}
}()

// llvmirClassifier is textual LLVM IR. Case-sensitive: the identifier "ADD"
// is never an LLVM IR mnemonic, unlike x86's case-folded "add"/"ADD".
var llvmirClassifier DialectClassifier = func() DialectClassifier {
	mnemonics := map[string]AsmTokenKind{
		"br":     JumpInstruction,
		"call":   CallInstruction,
		"ret":    ReturnInstruction,
		"invoke": CallInstruction,
	}
	for _, m := range []string{
		"add", "sub", "mul", "sdiv", "udiv", "srem", "urem", "and", "or",
		"xor", "shl", "lshr", "ashr", "alloca", "load", "store", "getelementptr",
		"bitcast", "trunc", "zext", "sext", "icmp", "fcmp", "phi", "select",
		"switch", "unreachable",
	} {
		mnemonics[m] = Instruction
	}
	for _, m := range []string{"fadd", "fsub", "fmul", "fdiv", "fneg", "fptrunc", "fpext"} {
		mnemonics[m] = InstructionSIMD
	}
	registers := set() // LLVM IR has SSA values (%N), not fixed registers.
	qualifiers := set("align", "noundef", "nonnull", "private", "internal", "dso_local", "nsw", "nuw")
	directives := commonDirectives()
	return &tableClassifier{
		caseInsensitive: false,
		mnemonics:       mnemonics,
		registers:       registers,
		qualifiers:      qualifiers,
		directives:      directives,
	}
}()
