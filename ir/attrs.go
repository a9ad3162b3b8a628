package ir

// Attribute is a boolean-valued module tag (spec.md §3's module attribute
// set: Downstream, NoArbiter, OptNone, plus the memory-attributed-array
// marker carried on arrays rather than modules).
type Attribute uint8

const (
	// AttrDownstream marks a module with no ports: purely combinational,
	// driven entirely by values produced earlier in the same cycle.
	AttrDownstream Attribute = iota
	// AttrNoArbiter suppresses automatic arbiter insertion (xform.InsertArbiters)
	// even when the module has more than one caller; the author is asserting
	// the callers already serialize themselves.
	AttrNoArbiter
	// AttrOptNone marks a module xform.InsertArbiters has already handled:
	// it had a single caller, or its callers were routed through per-caller
	// shadow FIFOs (xform sets this so a second arbiter pass is idempotent;
	// spec.md §4.2.1).
	AttrOptNone
)

func (a Attribute) String() string {
	switch a {
	case AttrDownstream:
		return "Downstream"
	case AttrNoArbiter:
		return "NoArbiter"
	case AttrOptNone:
		return "OptNone"
	default:
		return "Unknown"
	}
}

// ArrayAttr is a boolean-valued array tag.
type ArrayAttr uint8

const (
	// ArrayAttrMemory marks an array backed by a synthesizable memory macro
	// rather than discrete registers (spec.md §8's memory-attributed arrays).
	ArrayAttrMemory ArrayAttr = iota
)

// MemoryParams describes the synthesizable memory macro backing an array
// tagged with ArrayAttrMemory (spec.md §8).
type MemoryParams struct {
	AddrBits int
	DataBits int
	InitFile string
}
