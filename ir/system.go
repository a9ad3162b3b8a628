// Package ir implements the IR data model (spec.md §3) and the builder
// primitives that safely construct and rewrite it (spec.md §6's "Compiler
// inputs"). The graph is arena-backed (package arena): every cross-reference
// is an arena.NodeRef, never a Go pointer, so modules and expressions can
// refer to each other cyclically without the host language's GC ever having
// to reason about the cycle.
package ir

import (
	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/symtab"
)

// Direction labels a System-exposed node (spec.md §3 "exposed nodes").
type Direction uint8

const (
	DirInput Direction = iota
	DirOutput
	DirInout
)

// ExposedNode names one of the System's top-level I/O declarations.
type ExposedNode struct {
	Node arena.NodeRef
	Dir  Direction
}

// InsertPoint is the builder's cursor: the module/block currently being
// built into, and an optional index to insert-before rather than append.
// Mirrors spec.md §3's "(module, block, at: optional index)".
type InsertPoint struct {
	Module arena.NodeRef
	Block  arena.NodeRef
	At     *int
}

// constKey is deliberately not a DataType: DataType embeds slices (never
// comparable, even when nil), so the dedup cache keys on the scalar shape
// directly instead.
type constKey struct {
	kind DTypeKind
	bits int
	val  uint64
}

// System is the top-level IR container: arena + symbol table + constants
// cache + current insert point + exposed-node list, exactly per spec.md §3.
type System struct {
	Name string

	arena *arena.Arena

	// symtab binds module and array names; both share the system-wide
	// namespace since spec.md requires them globally unique together.
	symtab *symtab.Table

	modules []arena.NodeRef
	arrays  []arena.NodeRef

	constInts map[constKey]arena.NodeRef
	constStrs map[string]arena.NodeRef

	exposed []ExposedNode

	cursor InsertPoint
}

// NewSystem creates an empty System. tag is stamped into the backing arena
// (see arena.New) and surfaces in emitted file headers.
func NewSystem(name, tag string) *System {
	return &System{
		Name:      name,
		arena:     arena.New(tag),
		symtab:    symtab.New(),
		constInts: make(map[constKey]arena.NodeRef),
		constStrs: make(map[string]arena.NodeRef),
	}
}

// Arena exposes the backing arena for packages (analysis, xform, codegen)
// that need raw handle bookkeeping (e.g. building auxiliary maps keyed by
// arena.NodeRef) without re-deriving it from System.
func (s *System) Arena() *arena.Arena { return s.arena }

// Modules returns every module handle in creation order.
func (s *System) Modules() []arena.NodeRef {
	out := make([]arena.NodeRef, len(s.modules))
	copy(out, s.modules)
	return out
}

// Arrays returns every array handle in creation order.
func (s *System) Arrays() []arena.NodeRef {
	out := make([]arena.NodeRef, len(s.arrays))
	copy(out, s.arrays)
	return out
}

// GetModuleByName finds a module by its registered (possibly disambiguated)
// name, mirroring spec.md §8 Invariant 5's "modules retrievable by their
// registered name".
func (s *System) GetModuleByName(name string) (arena.NodeRef, bool) {
	for _, m := range s.modules {
		if s.mod(m).Name == name {
			return m, true
		}
	}
	return arena.Invalid, false
}

// Expose records node as one of the System's externally-visible I/O
// declarations.
func (s *System) Expose(node arena.NodeRef, dir Direction) {
	s.exposed = append(s.exposed, ExposedNode{Node: node, Dir: dir})
}

// Exposed returns the exposed-node list.
func (s *System) Exposed() []ExposedNode {
	out := make([]ExposedNode, len(s.exposed))
	copy(out, s.exposed)
	return out
}

// SetCursor overwrites the builder's insert point wholesale.
func (s *System) SetCursor(c InsertPoint) { s.cursor = c }

// Cursor returns the builder's current insert point.
func (s *System) Cursor() InsertPoint { return s.cursor }

// SetCurrentModule points the cursor at module's body block, appending
// by default (mirrors spec.md §6's `set_current_module`).
func (s *System) SetCurrentModule(module arena.NodeRef) error {
	if module.Kind() != arena.KindModule {
		return newErr(ErrInvariantBroken, "SetCurrentModule: %s is not a Module", module)
	}
	s.cursor = InsertPoint{Module: module, Block: s.mod(module).Body}
	return nil
}

// SetCurrentBlock points the cursor at an arbitrary block within the
// current module (spec.md §6's `set_current_block`), appending by default.
func (s *System) SetCurrentBlock(block arena.NodeRef) error {
	if block.Kind() != arena.KindBlock {
		return newErr(ErrInvariantBroken, "SetCurrentBlock: %s is not a Block", block)
	}
	s.cursor.Block = block
	s.cursor.At = nil
	return nil
}

// SetInsertBefore makes subsequent inserts land before the i-th child of
// the current block (spec.md §6's `set_insert_before`); i advances by one
// after every insertion so a sequence of creates lands in source order.
func (s *System) SetInsertBefore(i int) {
	at := i
	s.cursor.At = &at
}
