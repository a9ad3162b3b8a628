package simrt

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/internal/diag"
	"github.com/sarchlab/eir/internal/namify"
	"github.com/sarchlab/eir/ir"
)

// Module wraps one ir.Module as an akita TickingComponent, exactly the
// shape core/builder.go's Build(name) constructs a *core.Core with:
// sim.NewTickingComponent(name, engine, freq, component) embedded as the
// component's own driver.
type Module struct {
	*sim.TickingComponent

	engine *Engine
	ref    arena.NodeRef

	triggered bool
	finished  bool

	values map[arena.NodeRef]uint64 // this-cycle expression results
	valid  map[arena.NodeRef]bool   // ValueValid bookkeeping

	pending []commit

	// cycleCounters tracks each Cycled(n) block's own tick count. Unlike
	// values/valid/pending, it is never reset between cycles: the whole
	// point of Cycled is to fire every nth tick, which requires the count
	// to survive across tickOnce calls.
	cycleCounters map[arena.NodeRef]uint64
}

type commit struct {
	kind commitKind
	// array commit
	array arena.NodeRef
	idx   uint64
	val   uint64
	// fifo commit
	fifo arena.NodeRef
}

type commitKind int

const (
	commitArrayStore commitKind = iota
	commitFIFOPush
	commitFIFOPop
)

func newModule(e *Engine, ref arena.NodeRef) *Module {
	m := &Module{
		engine: e,
		ref:    ref,
		values: make(map[arena.NodeRef]uint64),
		valid:  make(map[arena.NodeRef]bool),
	}
	m.TickingComponent = sim.NewTickingComponent(e.sys.ModuleName(ref), e.akita, 1*sim.GHz, m)
	return m
}

// Tick satisfies akita's TickingComponent driver contract. simrt's own
// two-phase scheduling (Engine.upstreamPhase/downstreamPhase) calls
// tickOnce directly rather than relying on akita's event loop to decide
// module order, so Tick itself never does any work — the module is driven
// by the Engine, not by akita's scheduler, matching the teacher's own
// split between "the engine decides when" and "the component decides what".
func (m *Module) Tick(now sim.VTimeInSec) (madeProgress bool) {
	return false
}

// Triggered reports whether this module ran during the cycle just evaluated.
func (m *Module) Triggered() bool { return m.triggered }

// Value returns a computed expression's this-cycle value, if it ran.
func (m *Module) Value(expr arena.NodeRef) (uint64, bool) {
	v, ok := m.values[expr]
	return v, ok
}

// tickOnce evaluates the module's body once, gated on its ports/FIFO state,
// and returns whether it actually ran (pushed work, in spec.md's terms,
// "triggered").
func (m *Module) tickOnce(now sim.VTimeInSec) bool {
	if !m.readyToRun() {
		return false
	}
	m.values = make(map[arena.NodeRef]uint64)
	m.valid = make(map[arena.NodeRef]bool)
	m.pending = nil
	m.evalBlock(m.engine.sys.ModuleBody(m.ref))
	m.triggered = true
	return true
}

// evalBlock runs one block's statements, honoring its leading
// Condition/WaitUntil/Cycled marker (spec.md §3's block scoping). Unlike
// ir.Walk (used by the text-emitting back ends, which need every
// expression present regardless of runtime guard), the interpreter must
// actually skip a guarded sub-block's statements — and, because tickOnce
// re-evaluates the whole body every cycle the module is ready, a
// WaitUntil whose condition is false this cycle is retried automatically
// next cycle, which is exactly the retry semantics a real WaitUntil needs.
func (m *Module) evalBlock(block arena.NodeRef) {
	sys := m.engine.sys
	children := sys.BlockChildren(block)
	start := 0
	if marker, ok := sys.BlockMarker(block); ok {
		start = 1
		if !m.blockReady(block, marker) {
			return
		}
	}
	for _, child := range children[start:] {
		switch child.Kind() {
		case arena.KindExpr:
			if sys.ExprOpcode(child) == ir.OpBlockValue {
				continue
			}
			m.eval(child)
		case arena.KindBlock:
			m.evalBlock(child)
		}
	}
}

// blockReady evaluates a block's leading marker expression: Condition and
// WaitUntil both gate on a boolean operand (the difference is only in
// intent, not in evaluation); Cycled gates on a per-block cycle counter
// that persists across ticks.
func (m *Module) blockReady(block, marker arena.NodeRef) bool {
	sys := m.engine.sys
	op := sys.ExprOpcode(marker)
	defs := sys.ExprOperandDefs(marker)
	switch op {
	case ir.OpBlockCondition, ir.OpBlockWaitUntil:
		return m.operandValue(defs[0]) != 0
	case ir.OpBlockCycled:
		n := sys.IntImmValue(defs[0])
		if n == 0 {
			n = 1
		}
		if m.cycleCounters == nil {
			m.cycleCounters = make(map[arena.NodeRef]uint64)
		}
		c := m.cycleCounters[block]
		m.cycleCounters[block] = c + 1
		return c%n == 0
	default:
		return true
	}
}

// readyToRun reports whether every port FIFO this module pops from has data
// available this cycle, per spec.md §3's upstream-module trigger rule.
func (m *Module) readyToRun() bool {
	sys := m.engine.sys
	for _, port := range sys.ModulePorts(m.ref) {
		if sys.ModuleRole(m.ref) != ir.RoleUpstream {
			continue
		}
		fifo := m.engine.fifoState(port)
		if fifo.empty() {
			return false
		}
	}
	return true
}

// commit applies every pending array store / FIFO push/pop from the cycle
// just evaluated, per spec.md §5's end-of-cycle commit rule (no write is
// observable until the commit phase).
func (m *Module) commit() {
	for _, c := range m.pending {
		switch c.kind {
		case commitArrayStore:
			m.engine.arrayState(c.array).set(c.idx, c.val)
		case commitFIFOPush:
			m.engine.fifoState(c.fifo).push(c.val)
		case commitFIFOPop:
			m.engine.fifoState(c.fifo).pop()
		}
	}
	m.pending = nil
}

func (m *Module) eval(e arena.NodeRef) {
	sys := m.engine.sys
	op := sys.ExprOpcode(e)
	defs := sys.ExprOperandDefs(e)
	if op.Valued() {
		m.values[e] = m.evalValue(op, e, defs)
		m.valid[e] = true
	}
	// FIFOPop is both Valued (it yields the popped head) and a SideEffect
	// (the dequeue itself); it needs both branches, unlike Store/FIFOPush/
	// AsyncCall which are effects only.
	if op.SideEffect() {
		m.evalEffect(op, e, defs)
	}
}

func (m *Module) operandValue(def arena.NodeRef) uint64 {
	sys := m.engine.sys
	switch def.Kind() {
	case arena.KindExpr:
		return m.values[def]
	case arena.KindIntImm:
		return sys.IntImmValue(def)
	case arena.KindFIFO:
		v, _ := m.engine.fifoState(def).peek()
		return v
	case arena.KindArray:
		return 0
	default:
		return 0
	}
}

func maskTo(bits int, v uint64) uint64 {
	if bits >= 64 || bits <= 0 {
		return v
	}
	return v & ((uint64(1) << uint(bits)) - 1)
}

func (m *Module) evalValue(op ir.Opcode, e arena.NodeRef, defs []arena.NodeRef) uint64 {
	sys := m.engine.sys
	bits := sys.ExprDataType(e).GetBits()
	switch op {
	case ir.OpLoad:
		idx := m.operandValue(defs[1])
		return m.engine.arrayState(defs[0]).get(idx)
	case ir.OpAdd:
		return maskTo(bits, m.operandValue(defs[0])+m.operandValue(defs[1]))
	case ir.OpSub:
		return maskTo(bits, m.operandValue(defs[0])-m.operandValue(defs[1]))
	case ir.OpMul:
		return maskTo(bits, m.operandValue(defs[0])*m.operandValue(defs[1]))
	case ir.OpBitwiseAnd:
		return maskTo(bits, m.operandValue(defs[0])&m.operandValue(defs[1]))
	case ir.OpBitwiseOr:
		return maskTo(bits, m.operandValue(defs[0])|m.operandValue(defs[1]))
	case ir.OpBitwiseXor:
		return maskTo(bits, m.operandValue(defs[0])^m.operandValue(defs[1]))
	case ir.OpMod:
		b := m.operandValue(defs[1])
		if b == 0 {
			return 0
		}
		return maskTo(bits, m.operandValue(defs[0])%b)
	case ir.OpShl:
		return maskTo(bits, m.operandValue(defs[0])<<m.operandValue(defs[1]))
	case ir.OpShr:
		return maskTo(bits, m.operandValue(defs[0])>>m.operandValue(defs[1]))
	case ir.OpNeg:
		return maskTo(bits, ^m.operandValue(defs[0])+1)
	case ir.OpFlip:
		return maskTo(bits, ^m.operandValue(defs[0]))
	case ir.OpSelect:
		if m.operandValue(defs[0]) != 0 {
			return m.operandValue(defs[1])
		}
		return m.operandValue(defs[2])
	case ir.OpSelect1Hot:
		hot := -1
		for i := 0; i+1 < len(defs); i += 2 {
			if m.operandValue(defs[i]) == 0 {
				continue
			}
			if hot >= 0 {
				panic(fmt.Sprintf("simrt: Select1Hot in %s is not one-hot (conditions %d and %d both true) %s",
					sys.ModuleName(m.ref), hot, i/2, cycleStamp(m.engine.stamp)))
			}
			hot = i / 2
		}
		if hot < 0 {
			panic(fmt.Sprintf("simrt: Select1Hot in %s is not one-hot (no condition true) %s",
				sys.ModuleName(m.ref), cycleStamp(m.engine.stamp)))
		}
		return m.operandValue(defs[hot*2+1])
	case ir.OpCmpIGT:
		return boolU64(m.operandValue(defs[0]) > m.operandValue(defs[1]))
	case ir.OpCmpIGE:
		return boolU64(m.operandValue(defs[0]) >= m.operandValue(defs[1]))
	case ir.OpCmpILT:
		return boolU64(m.operandValue(defs[0]) < m.operandValue(defs[1]))
	case ir.OpCmpILE:
		return boolU64(m.operandValue(defs[0]) <= m.operandValue(defs[1]))
	case ir.OpCmpEQ:
		return boolU64(m.operandValue(defs[0]) == m.operandValue(defs[1]))
	case ir.OpCmpNEQ:
		return boolU64(m.operandValue(defs[0]) != m.operandValue(defs[1]))
	case ir.OpFIFOPop, ir.OpFIFOPeek:
		v, _ := m.engine.fifoState(defs[0]).peek()
		return v
	case ir.OpFIFOValid:
		return boolU64(!m.engine.fifoState(defs[0]).empty())
	case ir.OpFIFOReady:
		return boolU64(m.engine.fifoState(defs[0]).canPush())
	case ir.OpValueValid:
		return boolU64(m.valid[defs[0]])
	case ir.OpModuleTriggered:
		return boolU64(m.engine.modules[defs[0]].triggered)
	case ir.OpSlice:
		hi := sys.IntImmValue(defs[1])
		lo := sys.IntImmValue(defs[2])
		v := m.operandValue(defs[0]) >> lo
		return maskTo(int(hi-lo+1), v)
	case ir.OpBitCast, ir.OpZExt:
		return maskTo(bits, m.operandValue(defs[0]))
	case ir.OpSExt:
		from := exprOperandBits(sys, defs[0])
		v := m.operandValue(defs[0])
		if from < 64 && v&(1<<uint(from-1)) != 0 {
			v |= ^uint64(0) << uint(from)
		}
		return maskTo(bits, v)
	case ir.OpConcat:
		loBits := exprOperandBits(sys, defs[1])
		return maskTo(bits, (m.operandValue(defs[0])<<uint(loBits))|m.operandValue(defs[1]))
	case ir.OpBind, ir.OpAsyncCall:
		return 0
	default:
		return 0
	}
}

func exprOperandBits(sys *ir.System, def arena.NodeRef) int {
	switch def.Kind() {
	case arena.KindExpr:
		return sys.ExprDataType(def).GetBits()
	case arena.KindFIFO:
		return sys.FIFODataType(def).GetBits()
	case arena.KindArray:
		return sys.ArrayDataType(def).GetBits()
	case arena.KindIntImm:
		return sys.IntImmDataType(def).GetBits()
	default:
		return 64
	}
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (m *Module) evalEffect(op ir.Opcode, e arena.NodeRef, defs []arena.NodeRef) {
	switch op {
	case ir.OpStore:
		m.pending = append(m.pending, commit{kind: commitArrayStore, array: defs[0], idx: m.operandValue(defs[1]), val: m.operandValue(defs[2])})
	case ir.OpFIFOPush:
		m.pending = append(m.pending, commit{kind: commitFIFOPush, fifo: defs[0], val: m.operandValue(defs[1])})
	case ir.OpFIFOPop:
		// the popped value itself was already captured in m.values by
		// evalValue; the dequeue commits at end-of-cycle like every other
		// side effect, so the head stays stable (readable via operandValue)
		// for the rest of the cycle that popped it.
		m.pending = append(m.pending, commit{kind: commitFIFOPop, fifo: defs[0]})
	case ir.OpAsyncCall:
		// the callee's own readyToRun gate (its port FIFOs) is what
		// actually triggers it; AsyncCall itself has nothing further to do
		// at evaluation time beyond having already pushed the bind's
		// arguments via the arbiter-rewritten FIFOPush statements.
	case ir.OpBlockAssert:
		if m.operandValue(defs[0]) == 0 {
			panic(fmt.Sprintf("simrt: assertion failed in %s %s", m.engine.sys.ModuleName(m.ref), cycleStamp(m.engine.stamp)))
		}
	case ir.OpBlockFinish:
		m.finished = true
	case ir.OpLog:
		m.log(defs)
	default:
	}
}

// log resolves a Log expression's raw "{}"/"{:0Nd}" format string the same
// way codegen/verilog's logStatement does before printing, so both back
// ends render an identical message for the same source Log call.
func (m *Module) log(defs []arena.NodeRef) {
	sys := m.engine.sys
	raw := sys.StrImmValue(defs[0])
	argTypes := make([]ir.DataType, 0, len(defs)-1)
	for _, d := range defs[1:] {
		dt, err := sys.OperandDataType(d)
		if err != nil {
			diag.Warn("Log", "module", sys.ModuleName(m.ref), "error", err)
			return
		}
		argTypes = append(argTypes, dt)
	}
	verb, _, err := namify.Lower(raw, argTypes)
	if err != nil {
		diag.Warn("Log", "module", sys.ModuleName(m.ref), "error", err)
		return
	}
	args := make([]any, 0, len(defs)-1)
	for _, d := range defs[1:] {
		args = append(args, m.operandValue(d))
	}
	fmt.Printf("[%s %s] "+verb+"\n", append([]any{sys.ModuleName(m.ref), cycleStamp(m.engine.stamp)}, args...)...)
}

// cycleStamp renders stamp (hundredths of a cycle) in spec.md §7's "Cycle
// @N.FF" diagnostic form, the same integer-cycle/two-digit-fraction split
// codegen/simtext/runtime.go's cyclize produces for the generated Rust
// text's own diagnostics.
func cycleStamp(stamp int64) string {
	return fmt.Sprintf("Cycle @%d.%02d", stamp/100, stamp%100)
}
