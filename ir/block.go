package ir

import "github.com/sarchlab/eir/arena"

// blockData is the arena-resident storage for a Block node: an ordered
// statement list plus the two optional markers spec.md §3 allows — a
// leading role marker (Cycled(n) / Condition(expr) / WaitUntil(expr)) and a
// trailing Value(expr) that gives the block itself a value, the way a Rust
// block's tail expression does.
type blockData struct {
	Parent   arena.NodeRef // KindModule or KindBlock
	Children []arena.NodeRef
}

func (s *System) blk(ref arena.NodeRef) *blockData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*blockData)
	if !ok {
		panic("ir: handle is not a Block")
	}
	return d
}

// CreateBlock allocates an empty block parented to parent (another Block;
// a Module handle is not accepted and panics) and inserts it into parent's child list at the current
// cursor position (so it becomes a nested sub-block of whatever is
// currently being built).
func (s *System) CreateBlock(parent arena.NodeRef) arena.NodeRef {
	ref := s.arena.Insert(arena.KindBlock, &blockData{Parent: parent})
	s.insertChild(parent, ref)
	return ref
}

// BlockParent returns the block's parent (Module or Block).
func (s *System) BlockParent(ref arena.NodeRef) arena.NodeRef { return s.blk(ref).Parent }

// BlockChildren returns the block's statement list in order. The list may
// include a leading marker expression and/or a trailing value expression;
// use BlockMarker/BlockValue to distinguish them from ordinary statements.
func (s *System) BlockChildren(ref arena.NodeRef) []arena.NodeRef {
	d := s.blk(ref)
	out := make([]arena.NodeRef, len(d.Children))
	copy(out, d.Children)
	return out
}

// insertChild places child into block per the System's current cursor (At,
// if it targets this block; otherwise appended) and advances the cursor's
// At index so a sequence of creates lands in source order.
func (s *System) insertChild(block, child arena.NodeRef) {
	d := s.blk(block)
	if s.cursor.Block == block && s.cursor.At != nil {
		at := *s.cursor.At
		if at < 0 {
			at = 0
		}
		if at > len(d.Children) {
			at = len(d.Children)
		}
		d.Children = append(d.Children, arena.Invalid)
		copy(d.Children[at+1:], d.Children[at:])
		d.Children[at] = child
		next := at + 1
		s.cursor.At = &next
		return
	}
	d.Children = append(d.Children, child)
}

// blockMarkerOpcodes are the opcodes a block's leading statement may carry
// to establish its scheduling role (spec.md §3/§4.1).
func isBlockMarkerOpcode(op Opcode) bool {
	switch op {
	case OpBlockCycled, OpBlockCondition, OpBlockWaitUntil:
		return true
	default:
		return false
	}
}

// BlockMarker returns the block's leading role-marker expression (Cycled,
// Condition, or WaitUntil), if its first child is one of those opcodes.
func (s *System) BlockMarker(ref arena.NodeRef) (arena.NodeRef, bool) {
	d := s.blk(ref)
	if len(d.Children) == 0 || d.Children[0].Kind() != arena.KindExpr {
		return arena.Invalid, false
	}
	first := d.Children[0]
	if !isBlockMarkerOpcode(s.ExprOpcode(first)) {
		return arena.Invalid, false
	}
	return first, true
}

// BlockValue returns the block's trailing Value(expr) marker, if its last
// child is one.
func (s *System) BlockValue(ref arena.NodeRef) (arena.NodeRef, bool) {
	d := s.blk(ref)
	if len(d.Children) == 0 {
		return arena.Invalid, false
	}
	last := d.Children[len(d.Children)-1]
	if last.Kind() != arena.KindExpr || s.ExprOpcode(last) != OpBlockValue {
		return arena.Invalid, false
	}
	return last, true
}
