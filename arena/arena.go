// Package arena implements the slab-backed node storage every IR entity is
// allocated from. It mirrors the teacher's per-module slab style (one flat,
// growable slice keyed by a stable integer) rather than a pointer graph, so
// that cyclic references between modules and expressions never need a
// garbage collector to reason about: a NodeRef is a value, not a pointer.
package arena

import "fmt"

// Kind tags which concrete entity a NodeRef refers to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindModule
	KindBlock
	KindExpr
	KindOperand
	KindFIFO
	KindArray
	KindIntImm
	KindStrImm
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "Module"
	case KindBlock:
		return "Block"
	case KindExpr:
		return "Expr"
	case KindOperand:
		return "Operand"
	case KindFIFO:
		return "FIFO"
	case KindArray:
		return "Array"
	case KindIntImm:
		return "IntImm"
	case KindStrImm:
		return "StrImm"
	default:
		return "Invalid"
	}
}

// NodeRef is a tagged, stable handle into an Arena. It is cheap to copy and
// safe to store anywhere; it never aliases Go memory, so two NodeRefs can be
// compared for equality with ==.
type NodeRef struct {
	kind Kind
	idx  uint32
	gen  uint32
}

// Invalid is the zero NodeRef; no entity ever occupies it.
var Invalid = NodeRef{}

// Kind reports the tag of the handle.
func (r NodeRef) Kind() Kind { return r.kind }

// IsValid reports whether the handle was ever minted by an Arena.
func (r NodeRef) IsValid() bool { return r.kind != KindInvalid }

func (r NodeRef) String() string {
	if !r.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%s#%d", r.kind, r.idx)
}

type slot struct {
	gen      uint32
	disposed bool
	value    any
}

// Arena owns every IR entity of a System. Entities are never mutated across
// goroutines; the arena itself performs no locking, matching the teacher's
// single-threaded compiler path.
type Arena struct {
	slots []slot
	// Tag is a short, process-unique identifier stamped into the Arena when
	// it is created (see New); emitters print it into output file
	// headers so two runs of the compiler never produce indistinguishable
	// artifacts when diffed side by side.
	Tag string
}

// New creates an empty Arena tagged with id (typically generated by
// github.com/rs/xid at the call site; kept as a plain string here so arena
// itself stays dependency-free).
func New(tag string) *Arena {
	return &Arena{Tag: tag}
}

// Insert allocates a new slot of kind k holding value and returns its handle.
func (a *Arena) Insert(k Kind, value any) NodeRef {
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot{gen: 1, value: value})
	return NodeRef{kind: k, idx: idx, gen: 1}
}

// Get returns the value stored at ref, or an error if the handle is stale,
// disposed, or out of range. Callers that know the concrete type downcast
// the returned any themselves (the ir package wraps this so callers never
// see arena.Kind mismatches).
func (a *Arena) Get(ref NodeRef) (any, error) {
	if int(ref.idx) >= len(a.slots) {
		return nil, fmt.Errorf("arena: handle %s out of range", ref)
	}
	s := &a.slots[ref.idx]
	if s.disposed {
		return nil, fmt.Errorf("arena: handle %s already disposed", ref)
	}
	if s.gen != ref.gen {
		return nil, fmt.Errorf("arena: handle %s is stale", ref)
	}
	return s.value, nil
}

// MustGet panics if ref cannot be resolved; used internally where a stale
// handle indicates a compiler bug rather than a user error.
func (a *Arena) MustGet(ref NodeRef) any {
	v, err := a.Get(ref)
	if err != nil {
		panic(err)
	}
	return v
}

// Set overwrites the value stored at ref in place.
func (a *Arena) Set(ref NodeRef, value any) {
	if int(ref.idx) >= len(a.slots) {
		panic(fmt.Sprintf("arena: handle %s out of range", ref))
	}
	s := &a.slots[ref.idx]
	if s.disposed || s.gen != ref.gen {
		panic(fmt.Sprintf("arena: cannot set disposed/stale handle %s", ref))
	}
	s.value = value
}

// Dispose marks ref's slot as gone. The slot's generation is bumped so any
// NodeRef retained by a caller after Dispose is detected as stale rather
// than silently resolving into whatever is allocated into the same slot
// next (arena.Insert never reuses a disposed index's generation value).
func (a *Arena) Dispose(ref NodeRef) {
	if int(ref.idx) >= len(a.slots) {
		return
	}
	s := &a.slots[ref.idx]
	s.disposed = true
	s.value = nil
	s.gen++
}

// IsDisposed reports whether ref's slot has been disposed (or never existed).
func (a *Arena) IsDisposed(ref NodeRef) bool {
	if int(ref.idx) >= len(a.slots) {
		return true
	}
	s := &a.slots[ref.idx]
	return s.disposed || s.gen != ref.gen
}

// Len returns the number of slots ever allocated, including disposed ones;
// useful for capacity-planning traversals and tests.
func (a *Arena) Len() int { return len(a.slots) }
