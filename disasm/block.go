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

// AsmBlockKind is the dominant content classification of a block. Block
// starts out as the raw, not-yet-finalized default and is refined to one of
// Directive/Data/Code as lines commit into it, or collapses to None at
// close time if nothing contributed a flag (a pure label/comment block).
type AsmBlockKind int

const (
	BlockNone AsmBlockKind = iota
	BlockBlock
	BlockDirective
	BlockData
	BlockCode
)

// AsmEdgeKind is the direction of a control-flow edge as recorded on one
// endpoint block.
type AsmEdgeKind int

const (
	InBound AsmEdgeKind = iota
	OutBound
)

// AsmLineRef addresses a line relative to a block: blocks[r.BlockIndex] must
// have at least r.LineIndex+1 lines.
type AsmLineRef struct {
	BlockIndex int
	LineIndex  int
}

// AsmEdge is a directed control-flow relation, stored symmetrically: every
// OutBound edge on a source block's Edges is mirrored by an InBound edge on
// the destination block's Edges. OriginRef is the line within the block
// that owns this AsmEdge (the branch/jump line for an OutBound edge, the
// target line for the matching InBound edge); LineRef is the (block, line)
// on the other side of the relation.
type AsmEdge struct {
	Kind      AsmEdgeKind
	OriginRef AsmLineRef
	LineRef   AsmLineRef
}

// AsmBlock is a maximal contiguous run of lines, classified by its dominant
// content and carrying the control-flow edges that touch it.
type AsmBlock struct {
	Kind      AsmBlockKind
	LineIndex int
	Length    int
	Edges     []AsmEdge
}

// refine folds a line's contributed flag into the block's running kind
// using the precedence Code > Data > Directive > (no change).
func (b *AsmBlock) refine(flag AsmBlockKind) {
	switch flag {
	case BlockCode:
		b.Kind = BlockCode
	case BlockData:
		if b.Kind != BlockCode {
			b.Kind = BlockData
		}
	case BlockDirective:
		if b.Kind != BlockCode && b.Kind != BlockData {
			b.Kind = BlockDirective
		}
	}
}

// finalize collapses a block that accumulated no content flag to BlockNone;
// BlockBlock is only ever an in-progress marker, never observable once
// parsing completes.
func (b *AsmBlock) finalize() {
	if b.Kind == BlockBlock {
		b.Kind = BlockNone
	}
}
