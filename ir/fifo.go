package ir

import "github.com/sarchlab/eir/arena"

// fifoData is the arena-resident storage for a FIFO node: a named, typed
// channel owned (as a port) by exactly one module, which other modules push
// into and it itself pops/peeks from (spec.md §3).
type fifoData struct {
	ScalarType DataType
	Name       string
	Owner      arena.NodeRef // KindModule this FIFO is a port of
	Users      map[arena.NodeRef]bool
	Depth      *int // explicit depth override; nil means "use config default"
}

func (s *System) fifoD(ref arena.NodeRef) *fifoData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*fifoData)
	if !ok {
		panic("ir: handle is not a FIFO")
	}
	return d
}

// CreateFIFO allocates a FIFO port of scalarType owned by module, registers
// its name in the module's local namespace, and appends it to the module's
// port list.
func (s *System) CreateFIFO(module arena.NodeRef, name string, scalarType DataType) (arena.NodeRef, error) {
	if !scalarType.IsScalar() {
		return arena.Invalid, newErr(ErrTypeMismatch, "CreateFIFO: %s is not scalar", scalarType)
	}
	uniq := s.mod(module).localNames.Insert(name)
	ref := s.arena.Insert(arena.KindFIFO, &fifoData{
		ScalarType: scalarType,
		Name:       uniq,
		Owner:      module,
		Users:      make(map[arena.NodeRef]bool),
	})
	if err := s.AddPort(module, ref); err != nil {
		return arena.Invalid, err
	}
	return ref, nil
}

func (s *System) FIFOName(ref arena.NodeRef) string           { return s.fifoD(ref).Name }
func (s *System) FIFODataType(ref arena.NodeRef) DataType      { return s.fifoD(ref).ScalarType }
func (s *System) FIFOOwner(ref arena.NodeRef) arena.NodeRef    { return s.fifoD(ref).Owner }

// FIFOUsers returns the Operand handles that take this FIFO as their def:
// FIFOPop, FIFOPeek and FIFOValid operands, and also the FIFO operand of
// every FIFOPush into it, since a push targets the FIFO as a def just like
// any other operand consumer would.
func (s *System) FIFOUsers(ref arena.NodeRef) []arena.NodeRef {
	d := s.fifoD(ref)
	out := make([]arena.NodeRef, 0, len(d.Users))
	for op := range d.Users {
		out = append(out, op)
	}
	return out
}

// SetFIFODepth attaches an explicit depth annotation (spec.md §9: when
// present this always wins over config.FIFODepth, after rounding up to the
// next power of two).
func (s *System) SetFIFODepth(ref arena.NodeRef, depth int) {
	d := depth
	s.fifoD(ref).Depth = &d
}

// FIFODepth returns the explicit depth override, if one was set.
func (s *System) FIFODepth(ref arena.NodeRef) (int, bool) {
	d := s.fifoD(ref).Depth
	if d == nil {
		return 0, false
	}
	return *d, true
}
