package ir

import "github.com/sarchlab/eir/arena"

// arrayData is the arena-resident storage for an Array node: a named,
// fixed-size, typed storage bank optionally pre-loaded with IntImm values
// (spec.md §3), optionally backed by a synthesizable memory macro (spec.md
// §8's memory-attributed arrays).
type arrayData struct {
	ScalarType DataType
	Size       int
	Name       string
	Init       []arena.NodeRef // optional; KindIntImm handles, len 0 or Size
	Attrs      map[ArrayAttr]bool
	Memory     *MemoryParams
	Users      map[arena.NodeRef]bool
}

func (s *System) arrD(ref arena.NodeRef) *arrayData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*arrayData)
	if !ok {
		panic("ir: handle is not an Array")
	}
	return d
}

// CreateArray allocates a size-element array of scalarType, registered in
// the system-wide symbol table (arrays share the module namespace so
// top-level names never collide, matching spec.md §3).
func (s *System) CreateArray(name string, scalarType DataType, size int) (arena.NodeRef, error) {
	if !scalarType.IsScalar() {
		return arena.Invalid, newErr(ErrTypeMismatch, "CreateArray: %s is not scalar", scalarType)
	}
	uniq := s.symtab.Insert(name)
	ref := s.arena.Insert(arena.KindArray, &arrayData{
		ScalarType: scalarType,
		Size:       size,
		Name:       uniq,
		Attrs:      make(map[ArrayAttr]bool),
		Users:      make(map[arena.NodeRef]bool),
	})
	s.arrays = append(s.arrays, ref)
	return ref, nil
}

func (s *System) ArrayName(ref arena.NodeRef) string        { return s.arrD(ref).Name }
func (s *System) ArrayDataType(ref arena.NodeRef) DataType   { return s.arrD(ref).ScalarType }
func (s *System) ArraySize(ref arena.NodeRef) int            { return s.arrD(ref).Size }
func (s *System) ArrayIdxType(ref arena.NodeRef) DataType    { return IdxType(s.arrD(ref).Size) }

// SetArrayInit installs a per-element initializer. values must be KindIntImm
// handles and either empty (no init) or exactly Size long.
func (s *System) SetArrayInit(ref arena.NodeRef, values []arena.NodeRef) error {
	d := s.arrD(ref)
	if len(values) != 0 && len(values) != d.Size {
		return newErr(ErrArity, "SetArrayInit: got %d values, want 0 or %d", len(values), d.Size)
	}
	d.Init = append([]arena.NodeRef(nil), values...)
	return nil
}

func (s *System) ArrayInit(ref arena.NodeRef) []arena.NodeRef {
	d := s.arrD(ref)
	out := make([]arena.NodeRef, len(d.Init))
	copy(out, d.Init)
	return out
}

func (s *System) SetArrayAttr(ref arena.NodeRef, attr ArrayAttr) { s.arrD(ref).Attrs[attr] = true }
func (s *System) HasArrayAttr(ref arena.NodeRef, attr ArrayAttr) bool {
	return s.arrD(ref).Attrs[attr]
}

// SetArrayMemoryParams tags the array as memory-attributed and records its
// addr/data widths and (optional) $readmemh init file, per spec.md §8.
func (s *System) SetArrayMemoryParams(ref arena.NodeRef, p MemoryParams) {
	d := s.arrD(ref)
	d.Memory = &p
	d.Attrs[ArrayAttrMemory] = true
}

// ArrayMemoryParams returns the array's memory params, if it is memory
// attributed.
func (s *System) ArrayMemoryParams(ref arena.NodeRef) (MemoryParams, bool) {
	d := s.arrD(ref)
	if d.Memory == nil {
		return MemoryParams{}, false
	}
	return *d.Memory, true
}

// ArrayUsers returns the Operand handles reading/writing this array (Load
// operands; Store targets it as a def just like any consumer would).
func (s *System) ArrayUsers(ref arena.NodeRef) []arena.NodeRef {
	d := s.arrD(ref)
	out := make([]arena.NodeRef, 0, len(d.Users))
	for op := range d.Users {
		out = append(out, op)
	}
	return out
}
