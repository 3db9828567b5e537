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

	"github.com/samber/lo"
)

// isLocalLabel reports whether a label name is scoped to the most recently
// seen global label: any label whose name begins with ".L".
func isLocalLabel(name string) bool {
	return strings.HasPrefix(name, ".L")
}

// globalLabelEntry is the global-label scope: a declaration site plus the
// local-label dictionary owned by that scope.
type globalLabelEntry struct {
	globalRef AsmLineRef
	locals    map[string]AsmLineRef
}

// tempLabelRef is a deferred branch/jump target recorded during the single
// parse pass and resolved to concrete edges once every label has been seen.
type tempLabelRef struct {
	currentGlobalBlockIndex int
	sourceLineRef           AsmLineRef
	lexemeOffset            int
	lexemeLength            int
	conditional             bool
}

// labelResolver accumulates label declarations and deferred branch/jump
// targets during parsing, then turns the deferred list into concrete
// InBound/OutBound edges once the whole listing has been scanned. It never
// stores pointers into the block/line arrays themselves - only integer
// (block, line) pairs - so the graph it builds has no ownership cycles.
type labelResolver struct {
	globals       map[string]*globalLabelEntry
	currentGlobal *globalLabelEntry
	blockToGlobal map[int]string
	deferred      []tempLabelRef
}

func newLabelResolver() *labelResolver {
	return &labelResolver{
		globals:       make(map[string]*globalLabelEntry),
		blockToGlobal: make(map[int]string),
	}
}

// registerLabel handles a LabelDeclaration line's first token.
func (r *labelResolver) registerLabel(name string, blockIndex, lineIndexInBlock int) {
	ref := AsmLineRef{BlockIndex: blockIndex, LineIndex: lineIndexInBlock}
	if isLocalLabel(name) {
		if r.currentGlobal != nil {
			r.currentGlobal.locals[name] = ref
		}
		return
	}
	entry, ok := r.globals[name]
	if !ok {
		entry = &globalLabelEntry{locals: make(map[string]AsmLineRef)}
		r.globals[name] = entry
	}
	entry.globalRef = ref
	r.currentGlobal = entry
	r.blockToGlobal[blockIndex] = name
}

// recordTarget handles a CodeBranch/CodeJump/CodeCall line's first operand
// token. Local targets are later looked up in the scope of the global label
// current at this point; before any global label, the source block is used.
func (r *labelResolver) recordTarget(sourceBlockIndex int, sourceLineRef AsmLineRef, offset, length int, conditional bool) {
	globalBlockIndex := sourceBlockIndex
	if r.currentGlobal != nil {
		globalBlockIndex = r.currentGlobal.globalRef.BlockIndex
	}
	r.deferred = append(r.deferred, tempLabelRef{
		currentGlobalBlockIndex: globalBlockIndex,
		sourceLineRef:           sourceLineRef,
		lexemeOffset:            offset,
		lexemeLength:            length,
		conditional:             conditional,
	})
}

// resolve walks the deferred list, looks every target up in the global or
// local dictionaries, and installs mirrored edges on blocks. Unresolved
// global targets (e.g. runtime helpers like __divsi3, never declared as a
// label in this listing) are skipped silently. Every recorded conditional
// branch, resolved or not, additionally gets a fall-through edge to
// (sourceBlock+1, 0); a conditional branch whose first operand is not
// label-shaped records no target and gets no edges at all. The fall-through
// edge is also omitted when that
// block does not exist (the listing's very last line is a conditional
// branch), in which case the fall-through edge is simply omitted.
func (r *labelResolver) resolve(input string, blocks []AsmBlock) {
	// Stage (source, destination) pairs before installing them.
	var pending []lo.Tuple2[AsmLineRef, AsmLineRef]
	for _, ref := range r.deferred {
		name := input[ref.lexemeOffset : ref.lexemeOffset+ref.lexemeLength]
		if target, ok := r.lookup(name, ref.currentGlobalBlockIndex); ok {
			pending = append(pending, lo.Tuple2[AsmLineRef, AsmLineRef]{A: ref.sourceLineRef, B: target})
		}
		if ref.conditional {
			fallthroughBlock := ref.sourceLineRef.BlockIndex + 1
			if fallthroughBlock < len(blocks) {
				pending = append(pending, lo.Tuple2[AsmLineRef, AsmLineRef]{
					A: ref.sourceLineRef,
					B: AsmLineRef{BlockIndex: fallthroughBlock, LineIndex: 0},
				})
			}
		}
	}
	for _, pair := range pending {
		addEdgePair(blocks, pair.A, pair.B)
	}
	for i := range blocks {
		sortEdges(blocks[i].Edges)
	}
}

func (r *labelResolver) lookup(name string, currentGlobalBlockIndex int) (AsmLineRef, bool) {
	if isLocalLabel(name) {
		globalName, ok := r.blockToGlobal[currentGlobalBlockIndex]
		if !ok {
			return AsmLineRef{}, false
		}
		entry, ok := r.globals[globalName]
		if !ok {
			return AsmLineRef{}, false
		}
		ref, ok := entry.locals[name]
		return ref, ok
	}
	entry, ok := r.globals[name]
	if !ok {
		return AsmLineRef{}, false
	}
	return entry.globalRef, true
}

// addEdgePair installs an OutBound edge on the source block and the
// mirroring InBound edge on the destination block.
func addEdgePair(blocks []AsmBlock, src, dst AsmLineRef) {
	blocks[src.BlockIndex].Edges = append(blocks[src.BlockIndex].Edges, AsmEdge{
		Kind:      OutBound,
		OriginRef: src,
		LineRef:   dst,
	})
	blocks[dst.BlockIndex].Edges = append(blocks[dst.BlockIndex].Edges, AsmEdge{
		Kind:      InBound,
		OriginRef: dst,
		LineRef:   src,
	})
}

// sortEdges orders a block's edges by (kind: InBound before OutBound), then
// destination block index ascending, then destination line index ascending.
func sortEdges(edges []AsmEdge) {
	// Insertion sort: block edge lists are small (branch fan-out is never
	// large), so this avoids pulling in sort.Slice's reflection-based
	// comparator for a handful of elements.
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edgeLess(edges[j], edges[j-1]); j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

func edgeLess(a, b AsmEdge) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.LineRef.BlockIndex != b.LineRef.BlockIndex {
		return a.LineRef.BlockIndex < b.LineRef.BlockIndex
	}
	return a.LineRef.LineIndex < b.LineRef.LineIndex
}
