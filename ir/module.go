package ir

import (
	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/symtab"
)

// moduleData is the arena-resident storage for a Module node. It is always
// stored as a *moduleData so mutations through an existing arena.NodeRef are
// visible to every holder of that ref without a Set round-trip.
type moduleData struct {
	Name string
	Role ModuleRole

	// Ports are the module's FIFO ports in declaration order (upstream
	// modules only; downstream modules have none).
	Ports []arena.NodeRef

	Body arena.NodeRef // KindBlock

	// ExternalInterface indexes, for every node this module's body refers to
	// that it does not itself define (another module's port or expression,
	// an array; never a constant), the set of Operand handles doing the referring. Ported from
	// the distilled Rust sources' ExternalInterface (src/ir/user.rs) so
	// analysis.ExternalUses and the Verilog/simulator emitters never have to
	// re-walk the whole body to answer "what does this module read from
	// outside itself".
	ExternalInterface map[arena.NodeRef]map[arena.NodeRef]bool

	Attrs  map[Attribute]bool
	Memory *MemoryParams

	// localNames is the per-module naming scope for named expressions and
	// nested blocks, kept separate from the system-wide module/array table.
	localNames *symtab.Table
}

func (s *System) mod(ref arena.NodeRef) *moduleData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*moduleData)
	if !ok {
		panic("ir: handle is not a Module")
	}
	return d
}

// CreateModule allocates a new, empty module (an empty body block, no ports)
// and registers its name in the system-wide symbol table. role selects
// whether the module is upstream (FIFO-port-driven) or downstream
// (combinational, created via CreateDownstreamModule).
func (s *System) CreateModule(name string, role ModuleRole) arena.NodeRef {
	uniq := s.symtab.Insert(name)
	ref := s.arena.Insert(arena.KindModule, &moduleData{})
	body := s.arena.Insert(arena.KindBlock, &blockData{Parent: ref})
	s.mod(ref).Name = uniq
	s.mod(ref).Role = role
	s.mod(ref).Body = body
	s.mod(ref).ExternalInterface = make(map[arena.NodeRef]map[arena.NodeRef]bool)
	s.mod(ref).Attrs = make(map[Attribute]bool)
	s.mod(ref).localNames = symtab.New()
	s.modules = append(s.modules, ref)
	return ref
}

// CreateDownstreamModule is CreateModule(name, RoleDownstream) plus setting
// AttrDownstream, matching the "no ports" invariant spec.md §3 requires of
// downstream modules.
func (s *System) CreateDownstreamModule(name string) arena.NodeRef {
	ref := s.CreateModule(name, RoleDownstream)
	s.mod(ref).Attrs[AttrDownstream] = true
	return ref
}

func (s *System) ModuleName(ref arena.NodeRef) string   { return s.mod(ref).Name }
func (s *System) ModuleRole(ref arena.NodeRef) ModuleRole { return s.mod(ref).Role }
func (s *System) ModuleBody(ref arena.NodeRef) arena.NodeRef { return s.mod(ref).Body }

// ModulePorts returns the module's FIFO ports in declaration order.
func (s *System) ModulePorts(ref arena.NodeRef) []arena.NodeRef {
	d := s.mod(ref)
	out := make([]arena.NodeRef, len(d.Ports))
	copy(out, d.Ports)
	return out
}

// AddPort appends fifo to the module's port list. fifo must already be
// parented to this module (see System.CreateFIFO).
func (s *System) AddPort(module, fifo arena.NodeRef) error {
	if fifo.Kind() != arena.KindFIFO {
		return newErr(ErrInvariantBroken, "AddPort: %s is not a FIFO", fifo)
	}
	d := s.mod(module)
	d.Ports = append(d.Ports, fifo)
	return nil
}

func (s *System) SetAttr(module arena.NodeRef, attr Attribute) {
	s.mod(module).Attrs[attr] = true
}

func (s *System) ClearAttr(module arena.NodeRef, attr Attribute) {
	delete(s.mod(module).Attrs, attr)
}

func (s *System) HasAttr(module arena.NodeRef, attr Attribute) bool {
	return s.mod(module).Attrs[attr]
}

// ModuleDataType returns the module's ModuleTy, derived from its current port
// list and role (spec.md §3: a module's type is computed, not stored).
func (s *System) ModuleDataType(ref arena.NodeRef) DataType {
	d := s.mod(ref)
	args := make([]DataType, len(d.Ports))
	for i, p := range d.Ports {
		args[i] = s.FIFODataType(p)
	}
	return ModuleTyOf(d.Name, d.Role, args...)
}

// externalInterfaceInsert records that operand (owned by a user expression
// inside module) refers to ext, a node module does not itself define.
func (s *System) externalInterfaceInsert(module, ext, operand arena.NodeRef) {
	d := s.mod(module)
	set, ok := d.ExternalInterface[ext]
	if !ok {
		set = make(map[arena.NodeRef]bool)
		d.ExternalInterface[ext] = set
	}
	set[operand] = true
}

func (s *System) externalInterfaceRemove(module, ext, operand arena.NodeRef) {
	d := s.mod(module)
	set, ok := d.ExternalInterface[ext]
	if !ok {
		return
	}
	delete(set, operand)
	if len(set) == 0 {
		delete(d.ExternalInterface, ext)
	}
}

// ExternalInterface returns, for module, every external node it refers to
// and the operand handles doing the referring (spec.md §5's "external-use
// gathering" is built directly from this).
func (s *System) ExternalInterface(module arena.NodeRef) map[arena.NodeRef][]arena.NodeRef {
	d := s.mod(module)
	out := make(map[arena.NodeRef][]arena.NodeRef, len(d.ExternalInterface))
	for ext, set := range d.ExternalInterface {
		ops := make([]arena.NodeRef, 0, len(set))
		for op := range set {
			ops = append(ops, op)
		}
		out[ext] = ops
	}
	return out
}

// SetMemoryParams tags module's backing array (a module is "memory
// attributed" by proxy: the array it exclusively owns carries the params;
// see ir/array.go's SetArrayMemoryParams). Kept here only as a doc anchor —
// spec.md §8 attaches memory parameters to the Array node, not the Module.
