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
	"strings"
	"testing"
)

func mustInit(t *testing.T, input string, dialect Dialect, reader FileReader) *Disassembler {
	t.Helper()
	d := NewDisassembler()
	ok, err := d.Initialize(input, dialect, reader, true, false)
	if !ok {
		t.Fatalf("Initialize failed: %v", err)
	}
	return d
}

// Trivial block: a single label and a return, nothing else.
func TestTrivialBlock(t *testing.T) {
	d := mustInit(t, "banner line\nmain:\n  ret\n", Intel, nil)

	if len(d.Blocks()) != 1 {
		t.Fatalf("got %d blocks, want 1", len(d.Blocks()))
	}
	b := d.Blocks()[0]
	if b.Kind != BlockCode {
		t.Fatalf("block kind = %v, want BlockCode", b.Kind)
	}
	if b.Length != 2 {
		t.Fatalf("block length = %d, want 2", b.Length)
	}
	if len(b.Edges) != 0 {
		t.Fatalf("got %d edges, want 0", len(b.Edges))
	}
	if d.Lines()[0].Kind != LineLabelDeclaration {
		t.Fatalf("line 0 kind = %v, want LineLabelDeclaration", d.Lines()[0].Kind)
	}
	if d.Lines()[1].Kind != LineCodeReturn {
		t.Fatalf("line 1 kind = %v, want LineCodeReturn", d.Lines()[1].Kind)
	}
}

// Unconditional jump: two blocks, one OutBound/InBound edge pair, no
// fall-through.
func TestUnconditionalJump(t *testing.T) {
	d := mustInit(t, "banner\nL1:\n  jmp L2\nL2:\n  ret\n", Intel, nil)

	blocks := d.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].Length != 2 || blocks[1].Length != 2 {
		t.Fatalf("block lengths = %d, %d, want 2, 2", blocks[0].Length, blocks[1].Length)
	}
	if len(blocks[0].Edges) != 1 || blocks[0].Edges[0].Kind != OutBound {
		t.Fatalf("block 0 edges = %+v, want one OutBound", blocks[0].Edges)
	}
	want := AsmLineRef{BlockIndex: 1, LineIndex: 0}
	if blocks[0].Edges[0].LineRef != want {
		t.Fatalf("block 0 outbound target = %+v, want %+v", blocks[0].Edges[0].LineRef, want)
	}
	if len(blocks[1].Edges) != 1 || blocks[1].Edges[0].Kind != InBound {
		t.Fatalf("block 1 edges = %+v, want one InBound", blocks[1].Edges)
	}
	if blocks[1].Edges[0].LineRef != (AsmLineRef{BlockIndex: 0, LineIndex: 1}) {
		t.Fatalf("block 1 inbound source = %+v, want {0,1}", blocks[1].Edges[0].LineRef)
	}
}

// Conditional branch: three blocks; the taken edge and the fall-through edge
// both land on block 0's only CodeBranch line.
func TestConditionalBranchFallThrough(t *testing.T) {
	d := mustInit(t, "banner\nL1:\n  je L3\n  nop\nL3:\n  ret\n", Intel, nil)

	blocks := d.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if blocks[0].Length != 2 || blocks[1].Length != 1 || blocks[2].Length != 2 {
		t.Fatalf("block lengths = %d, %d, %d, want 2, 1, 2", blocks[0].Length, blocks[1].Length, blocks[2].Length)
	}
	if len(blocks[0].Edges) != 2 {
		t.Fatalf("block 0 edges = %+v, want 2 (taken + fall-through)", blocks[0].Edges)
	}
	for _, e := range blocks[0].Edges {
		if e.Kind != OutBound {
			t.Fatalf("block 0 edge %+v is not OutBound", e)
		}
	}
	// sortEdges orders OutBound edges by ascending destination block index:
	// fall-through (block 1) before the taken branch (block 2).
	if blocks[0].Edges[0].LineRef.BlockIndex != 1 || blocks[0].Edges[1].LineRef.BlockIndex != 2 {
		t.Fatalf("block 0 edge targets = %+v, want [block1, block2]", blocks[0].Edges)
	}
	if len(blocks[1].Edges) != 1 || blocks[1].Edges[0].Kind != InBound {
		t.Fatalf("block 1 edges = %+v, want one InBound (fall-through)", blocks[1].Edges)
	}
	if len(blocks[2].Edges) != 1 || blocks[2].Edges[0].Kind != InBound {
		t.Fatalf("block 2 edges = %+v, want one InBound (taken branch)", blocks[2].Edges)
	}
}

// An unresolved call target (a runtime helper symbol never declared as a
// label in this listing) upgrades its operand to Label but produces no edge
// and no error.
func TestUnresolvedCallTarget(t *testing.T) {
	d := mustInit(t, "banner\n  bl __divsi3\n", ARM, nil)

	if len(d.Blocks()) != 1 {
		t.Fatalf("got %d blocks, want 1", len(d.Blocks()))
	}
	b := d.Blocks()[0]
	if len(b.Edges) != 0 {
		t.Fatalf("got %d edges, want 0 (unresolved target)", len(b.Edges))
	}
	if d.Lines()[0].Kind != LineCodeCall {
		t.Fatalf("line 0 kind = %v, want LineCodeCall", d.Lines()[0].Kind)
	}

	line := d.Lines()[0]
	var sawLabel bool
	for i := 0; i < line.Length(); i++ {
		if d.Tokens()[line.TokenIndex()+i].Kind == Label {
			sawLabel = true
		}
	}
	if !sawLabel {
		t.Fatal("operand token was never upgraded to Label")
	}
}

type stubFileReader struct {
	lines map[string][]string
}

func (s stubFileReader) ReadLines(path string) ([]string, bool) {
	lines, ok := s.lines[path]
	return lines, ok
}

// Source-location enrichment: a .file/.loc pair produces a file-table entry
// and a SourceFileLocation line, consuming no tokens of its own.
func TestSourceLocationEnrichment(t *testing.T) {
	reader := stubFileReader{lines: map[string][]string{
		"foo.c": {"int main() {", "  return add(a, b);", "}"},
	}}
	d := mustInit(t, "banner\n.file 1 \"foo.c\"\n.loc 1 2 3\n  add rax, rbx\n", Intel, reader)

	if len(d.Blocks()) != 1 {
		t.Fatalf("got %d blocks, want 1", len(d.Blocks()))
	}
	lines := d.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (.file contributes none)", len(lines))
	}
	if lines[0].Kind != LineSourceFileLocation {
		t.Fatalf("line 0 kind = %v, want LineSourceFileLocation", lines[0].Kind)
	}
	if lines[0].SourceFileNo() != 1 || lines[0].SourceLineNo() != 2 || lines[0].SourceColumnNo() != 3 {
		t.Fatalf("source location = (%d,%d,%d), want (1,2,3)",
			lines[0].SourceFileNo(), lines[0].SourceLineNo(), lines[0].SourceColumnNo())
	}

	rendered := d.RenderFullText()
	if !strings.Contains(rendered, "=== foo.c(2, 4)") {
		t.Fatalf("rendered output %q does not contain the expected source header", rendered)
	}
	if !strings.Contains(rendered, "return add(a, b)") {
		t.Fatalf("rendered output %q does not contain the loaded source line text", rendered)
	}
}

// Missing source files degrade to an unloaded file entry and a
// header-without-text rendering, never an error.
func TestSourceLocationMissingFile(t *testing.T) {
	d := mustInit(t, "banner\n.file 1 \"missing.c\"\n.loc 1 5 1\n  nop\n", Intel, NoFileReader{})

	rendered := d.RenderFullText()
	if !strings.Contains(rendered, "=== missing.c(5, 2)") {
		t.Fatalf("rendered output %q missing the header-without-text form", rendered)
	}
}

// Intel mnemonic-column alignment: column accounting starts at true column
// 0, including leading whitespace, and pads every mnemonic to column 10;
// the operand's own separator space follows the padding.
func TestIntelMnemonicAlignment(t *testing.T) {
	d := mustInit(t, "banner\n  mulps xmm0, xmm1\n", Intel, nil)

	got := d.RenderFullText()
	want := "  mulps    xmm0, xmm1\n"
	if got != want {
		t.Fatalf("rendered = %q, want %q", got, want)
	}
}

// Column-lookup consistency: a column inside a rendered token's span
// resolves back to that token, matching the alignment traced in
// TestIntelMnemonicAlignment ("  mulps    xmm0, xmm1\n").
func TestGetTokenIndexFromColumnRoundTrip(t *testing.T) {
	d := mustInit(t, "banner\n  mulps xmm0, xmm1\n", Intel, nil)
	d.GetOrRenderBlock(0) // force rendering so the column array is populated

	tests := []struct {
		col      int
		wantText string
	}{
		{2, "mulps"},
		{11, "xmm0"},
		{17, "xmm1"},
	}
	for _, tt := range tests {
		idx, lineIdx := d.GetTokenIndexFromColumn(0, 0, tt.col)
		if idx < 0 {
			t.Fatalf("column %d: no token found", tt.col)
		}
		if lineIdx != 0 {
			t.Fatalf("column %d: lineIndex = %d, want 0", tt.col, lineIdx)
		}
		if got := d.GetTokenText(idx); got != tt.wantText {
			t.Fatalf("column %d: resolved token text = %q, want %q", tt.col, got, tt.wantText)
		}
	}

	outOfRange, _ := d.GetTokenIndexFromColumn(0, 0, 10000)
	if outOfRange != -1 {
		t.Fatalf("out-of-range column resolved to %d, want -1", outOfRange)
	}
}

// Render idempotence: repeated calls return byte-identical text thanks to
// memoization.
func TestRenderIdempotence(t *testing.T) {
	d := mustInit(t, "banner\nmain:\n  mov rax, 1\n  ret\n", Intel, nil)
	first := d.RenderFullText()
	second := d.RenderFullText()
	if first != second {
		t.Fatalf("render is not idempotent:\n%q\n%q", first, second)
	}
}

// Colored vs. plain rendering: color tags appear only when explicitly
// requested.
func TestColoredVsPlainRendering(t *testing.T) {
	dPlain := NewDisassembler()
	if ok, err := dPlain.Initialize("banner\n  ret\n", Intel, nil, true, false); !ok {
		t.Fatalf("Initialize: %v", err)
	}
	if strings.Contains(dPlain.RenderFullText(), "<color=") {
		t.Fatal("plain rendering must not contain color tags")
	}

	dColor := NewDisassembler()
	if ok, err := dColor.Initialize("banner\n  ret\n", Intel, nil, true, true); !ok {
		t.Fatalf("Initialize: %v", err)
	}
	if !strings.Contains(dColor.RenderFullText(), "<color=") {
		t.Fatal("colored rendering should contain color tags")
	}
}

// Block-kind monotonicity: once a block sees a Code-flagged line, no
// Directive- or Data-flagged line downgrades it.
func TestBlockKindPrecedence(t *testing.T) {
	d := mustInit(t, "banner\n.text\n  mov rax, 1\n.byte 1\n", Intel, nil)
	if len(d.Blocks()) != 1 {
		t.Fatalf("got %d blocks, want 1", len(d.Blocks()))
	}
	if d.Blocks()[0].Kind != BlockCode {
		t.Fatalf("block kind = %v, want BlockCode (Code beats Directive/Data)", d.Blocks()[0].Kind)
	}
}

// A block with only a label and no other content classifies as BlockNone,
// never the in-progress BlockBlock marker.
func TestPureLabelBlockIsNone(t *testing.T) {
	d := mustInit(t, "banner\nonly_label:\n", Intel, nil)
	if len(d.Blocks()) != 1 {
		t.Fatalf("got %d blocks, want 1", len(d.Blocks()))
	}
	if d.Blocks()[0].Kind != BlockNone {
		t.Fatalf("block kind = %v, want BlockNone", d.Blocks()[0].Kind)
	}
}

// Out-of-range token/column queries report failure rather than panicking.
func TestOutOfRangeQueries(t *testing.T) {
	d := mustInit(t, "banner\nmain:\n  ret\n", Intel, nil)
	if tok := d.GetToken(-1); tok != (AsmToken{}) {
		t.Fatalf("GetToken(-1) = %+v, want zero value", tok)
	}
	if tok := d.GetToken(len(d.Tokens()) + 10); tok != (AsmToken{}) {
		t.Fatalf("GetToken(huge) = %+v, want zero value", tok)
	}
	if s := d.GetOrRenderBlock(len(d.Blocks()) + 10); s != "" {
		t.Fatalf("GetOrRenderBlock(huge) = %q, want \"\"", s)
	}
}

// Local labels (.L-prefixed) resolve within the scope of the most recently
// declared global label, and do not leak across global labels.
func TestLocalLabelScoping(t *testing.T) {
	input := "banner\n" +
		"first:\n" +
		"  je .Lskip\n" +
		"  nop\n" +
		".Lskip:\n" +
		"  ret\n" +
		"second:\n" +
		"  je .Lskip\n" +
		"  ret\n" +
		".Lskip:\n" +
		"  ret\n"
	d := mustInit(t, input, Intel, nil)

	blocks := d.Blocks()
	hasOutBoundTo := func(blockIndex int, target int) bool {
		for _, e := range blocks[blockIndex].Edges {
			if e.Kind == OutBound && e.LineRef.BlockIndex == target {
				return true
			}
		}
		return false
	}

	// block0 ("first:" / "je .Lskip") must branch to block2 (first's own
	// ".Lskip:"), never to block5 (second's identically-named local).
	if !hasOutBoundTo(0, 2) {
		t.Fatalf("first's .Lskip branch did not resolve to first's own local label")
	}
	if hasOutBoundTo(0, 5) {
		t.Fatalf("first's .Lskip branch leaked into second's local scope")
	}

	// block3 ("second:" / "je .Lskip") must branch to block5 (second's own
	// ".Lskip:"), never to block2 (first's local).
	if !hasOutBoundTo(3, 5) {
		t.Fatalf("second's .Lskip branch did not resolve to second's own local label")
	}
	if hasOutBoundTo(3, 2) {
		t.Fatalf("second's .Lskip branch leaked into first's local scope")
	}
}
