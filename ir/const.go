package ir

import "github.com/sarchlab/eir/arena"

// intImmData/strImmData are the arena-resident storage for immutable,
// deduplicated constant nodes. Two calls to GetConstInt with the same type
// and value return the same handle, so folding (spec.md Scenario A) falls
// out of construction itself rather than needing a later CSE pass.
type intImmData struct {
	DType DataType
	Value uint64 // big.Int would be needed for values >64 bits; spec.md's
	// worked examples never exceed 64-bit constants, and every opcode that
	// consumes a constant already narrows/widens via DataType.GetBits.
	Users map[arena.NodeRef]bool
}

type strImmData struct {
	Value string
	Users map[arena.NodeRef]bool
}

func (s *System) intImmD(ref arena.NodeRef) *intImmData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*intImmData)
	if !ok {
		panic("ir: handle is not an IntImm")
	}
	return d
}

func (s *System) strImmD(ref arena.NodeRef) *strImmData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*strImmData)
	if !ok {
		panic("ir: handle is not a StrImm")
	}
	return d
}

// GetConstInt returns the (deduplicated) handle for an integer constant of
// the given type and value, allocating it on first use.
func (s *System) GetConstInt(dtype DataType, value uint64) arena.NodeRef {
	key := constKey{kind: dtype.Kind, bits: dtype.bits, val: value}
	if ref, ok := s.constInts[key]; ok {
		return ref
	}
	ref := s.arena.Insert(arena.KindIntImm, &intImmData{
		DType: dtype,
		Value: value,
		Users: make(map[arena.NodeRef]bool),
	})
	s.constInts[key] = ref
	return ref
}

// GetConstStr returns the (deduplicated) handle for a string constant,
// allocating it on first use.
func (s *System) GetConstStr(value string) arena.NodeRef {
	if ref, ok := s.constStrs[value]; ok {
		return ref
	}
	ref := s.arena.Insert(arena.KindStrImm, &strImmData{
		Value: value,
		Users: make(map[arena.NodeRef]bool),
	})
	s.constStrs[value] = ref
	return ref
}

func (s *System) IntImmValue(ref arena.NodeRef) uint64   { return s.intImmD(ref).Value }
func (s *System) IntImmDataType(ref arena.NodeRef) DataType { return s.intImmD(ref).DType }
func (s *System) StrImmValue(ref arena.NodeRef) string    { return s.strImmD(ref).Value }
