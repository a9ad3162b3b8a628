// Package simrt is the in-process reference engine for a built *ir.System:
// one akita TickingComponent per ir.Module, registered with an akita serial
// engine but stepped directly by Engine, implementing spec.md §4.4's two-phase cycle exactly (reset,
// upstream phase, downstream phase, commit). It is grounded on
// core/builder.go's sim.NewTickingComponent(name, engine, freq, component)
// construction and core/core.go's Tick(now sim.VTimeInSec) (bool) contract —
// the same pattern the teacher uses to drive its CGRA tiles, generalized
// from a fixed tile mesh to an arbitrary module graph built by the IR
// builder.
package simrt

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/internal/diag"
	"github.com/sarchlab/eir/ir"
)

// StopReason enumerates why Engine.Run stopped, per spec.md §6.2 — these
// are recoverable outcomes, never panics.
type StopReason int

const (
	StopFinished StopReason = iota
	StopIdle
	StopTimeout
)

func (r StopReason) String() string {
	switch r {
	case StopFinished:
		return "Finished"
	case StopIdle:
		return "Idle"
	case StopTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Engine wraps an akita serial engine and the set of Modules built over an
// *ir.System, scheduling every module's TickingComponent at t=0 exactly the
// way test/testbench/axpy/main.go seeds its tile mesh.
type Engine struct {
	sys     *ir.System
	cfg     config.Config
	akita   sim.Engine
	modules map[arena.NodeRef]*Module
	order   []arena.NodeRef // topological, upstream-first

	fifos  map[arena.NodeRef]*fifoQueue
	arrays map[arena.NodeRef]*arrayBank

	stamp      int64 // hundredths of a cycle, per spec.md §4.4
	idleStreak int
	cycle      int
}

// NewEngine builds one Module per ir.Module in sys, in topological order
// (callees before callers) so each module's upstream dependencies are
// already constructed when it is wired.
func NewEngine(sys *ir.System, cfg config.Config, order []arena.NodeRef) *Engine {
	e := &Engine{
		sys:     sys,
		cfg:     cfg,
		akita:   sim.NewSerialEngine(),
		modules: make(map[arena.NodeRef]*Module, len(order)),
		order:   order,
	}
	for _, m := range order {
		mod := newModule(e, m)
		e.modules[m] = mod
	}
	for _, m := range order {
		e.akita.Schedule(sim.MakeTickEvent(e.modules[m].TickingComponent, 0))
	}
	return e
}

// Module returns the simrt.Module wrapping an ir.Module handle.
func (e *Engine) Module(ref arena.NodeRef) *Module { return e.modules[ref] }

// Run drives cycles until a module's Finish fires, the idle threshold is
// exceeded, or the simulation-cycle threshold is reached, per spec.md §4.4.
func (e *Engine) Run() StopReason {
	for {
		if reason, done := e.Step(); done {
			return reason
		}
	}
}

// Step runs exactly one cycle (reset, upstream, downstream, commit) and
// reports whether the simulation should stop and why. Run is just a loop
// around Step; exposing it separately lets a caller observe committed
// state cycle by cycle, the granularity spec.md's Scenario tests need to
// assert a sequence (e.g. an arbiter's grant bit) rather than only a
// final snapshot.
func (e *Engine) Step() (StopReason, bool) {
	e.resetPhase()
	anyTriggered := e.upstreamPhase()
	anyTriggered = e.downstreamPhase() || anyTriggered

	if e.finishRequested() {
		return StopFinished, true
	}

	if anyTriggered {
		e.idleStreak = 0
	} else {
		e.idleStreak++
		if e.idleStreak >= e.cfg.IdleThreshold {
			return StopIdle, true
		}
	}

	e.stamp += 50
	e.commitPhase()
	e.cycle++
	e.stamp = int64(e.cycle) * 100
	if e.cycle >= e.cfg.SimThreshold {
		return StopTimeout, true
	}
	return 0, false
}

func (e *Engine) resetPhase() {
	for _, m := range e.order {
		e.modules[m].triggered = false
	}
}

func (e *Engine) upstreamPhase() bool {
	order := e.order
	if e.cfg.Random {
		order = shuffled(order, e.cycle)
	}
	any := false
	for _, m := range order {
		if e.sys.ModuleRole(m) != ir.RoleUpstream {
			continue
		}
		if e.modules[m].tickOnce(sim.VTimeInSec(float64(e.stamp) / 100.0)) {
			any = true
		}
	}
	return any
}

func (e *Engine) downstreamPhase() bool {
	any := false
	for _, m := range e.order {
		if e.sys.ModuleRole(m) != ir.RoleDownstream {
			continue
		}
		if !e.dependsReady(m) {
			continue
		}
		if e.modules[m].tickOnce(sim.VTimeInSec(float64(e.stamp) / 100.0)) {
			any = true
		}
	}
	return any
}

// dependsReady reports whether every upstream module m's body reads from
// (via the external interface) has already been triggered this cycle.
func (e *Engine) dependsReady(m arena.NodeRef) bool {
	for ext := range e.sys.ExternalInterface(m) {
		if ext.Kind() != arena.KindExpr {
			continue
		}
		owner := moduleOfExpr(e.sys, ext)
		if owner.IsValid() && !e.modules[owner].triggered {
			return false
		}
	}
	return true
}

func (e *Engine) finishRequested() bool {
	for _, m := range e.order {
		if e.modules[m].finished {
			return true
		}
	}
	return false
}

// xeqKey identifies one register's commit queue for this cycle's conflict
// check: a FIFO's push queue and pop queue are distinct registers (kind
// discriminates them), and an array's queue is further keyed by the index
// written. One claims map covers a single commitPhase, so the cycle is
// implicit in the map rather than part of the key.
type xeqKey struct {
	kind commitKind
	ref  arena.NodeRef
	idx  uint64
}

// commitPhase applies every module's pending writes for the cycle just
// evaluated (spec.md §4.4 step 6), first checking that no two different
// modules scheduled a write to the same FIFO/array register this same
// stamp (spec.md §5/§7's XEQ conflict). A FIFO's push queue and pop queue
// are separate registers, so one module pushing while another pops the same
// FIFO in a cycle is not a conflict.
func (e *Engine) commitPhase() {
	claimed := make(map[xeqKey]string)
	for _, m := range e.order {
		for _, c := range e.modules[m].pending {
			key := xeqKey{kind: c.kind}
			switch c.kind {
			case commitArrayStore:
				key.ref = c.array
				key.idx = c.idx
			case commitFIFOPush, commitFIFOPop:
				key.ref = c.fifo
			}
			writer, ok := claimed[key]
			if ok && writer != e.sys.ModuleName(m) {
				panic(fmt.Sprintf("simrt: XEQ conflict on %s: %s and %s both committed this %s",
					key.ref, writer, e.sys.ModuleName(m), cycleStamp(e.stamp)))
			}
			claimed[key] = e.sys.ModuleName(m)
		}
	}

	for _, m := range e.order {
		e.modules[m].commit()
	}
	diag.Trace("Commit", "stamp", e.stamp, "cycle", e.cycle)
}

func moduleOfExpr(sys *ir.System, expr arena.NodeRef) arena.NodeRef {
	block := sys.ExprParent(expr)
	for block.Kind() == arena.KindBlock {
		parent := sys.BlockParent(block)
		if parent.Kind() == arena.KindModule {
			return parent
		}
		block = parent
	}
	return arena.Invalid
}

func shuffled(in []arena.NodeRef, seed int) []arena.NodeRef {
	out := append([]arena.NodeRef(nil), in...)
	n := len(out)
	if n < 2 {
		return out
	}
	// Deterministic pseudo-shuffle keyed on the cycle count: Date.now()/
	// math/rand are avoided here so Engine.Run stays reproducible run to
	// run, matching spec.md Scenario tests that assert an exact sequence
	// even with Config.Random set.
	for i := n - 1; i > 0; i-- {
		j := (seed + i*2654435761) % (i + 1)
		if j < 0 {
			j += i + 1
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}
