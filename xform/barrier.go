package xform

import (
	"fmt"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/ir"
)

// CutBarrier partitions module's top-level body at its first Barrier()
// marker into two stages connected by FIFOs (spec.md §4.2.2): everything
// before the barrier stays in module; everything after moves into a new
// stage module. Any value produced before the barrier and consumed after it
// becomes a "buffered port" — a FIFO module gets pushed into right where
// the Barrier() statement was, and the new stage pops from at its head.
//
// module's barrier must live directly in its body block, not a nested one —
// a barrier nested inside a Condition/WaitUntil/Cycled sub-block would cut
// a conditionally-executed region, which has no well-defined pipeline
// stage boundary, so CutBarrier rejects it with ir.ErrInvariantBroken
// rather than silently misplacing the cut (spec.md's hierarchical-barrier
// Open Question, resolved in DESIGN.md).
func CutBarrier(sys *ir.System, module arena.NodeRef) (arena.NodeRef, error) {
	body := sys.ModuleBody(module)
	children := sys.BlockChildren(body)

	barrierAt := -1
	for i, c := range children {
		if c.Kind() == arena.KindExpr && sys.ExprOpcode(c) == ir.OpBlockBarrier {
			barrierAt = i
			break
		}
	}
	if barrierAt < 0 {
		return arena.Invalid, fmt.Errorf("xform: module %s has no top-level Barrier(): %w", sys.ModuleName(module), ir.ErrKind(ir.ErrInvariantBroken))
	}

	before := children[:barrierAt]
	barrier := children[barrierAt]
	after := children[barrierAt+1:]

	producedBefore := make(map[arena.NodeRef]bool, len(before))
	for _, c := range before {
		if c.Kind() == arena.KindExpr {
			producedBefore[c] = true
		}
	}

	var crossing []arena.NodeRef
	seen := make(map[arena.NodeRef]bool)
	for _, c := range after {
		if c.Kind() != arena.KindExpr {
			continue
		}
		for _, def := range sys.ExprOperandDefs(c) {
			if producedBefore[def] && !seen[def] {
				seen[def] = true
				crossing = append(crossing, def)
			}
		}
	}

	stage := sys.CreateModule(sys.ModuleName(module)+"_stage", ir.RoleUpstream)

	fifos := make(map[arena.NodeRef]arena.NodeRef, len(crossing))
	if err := sys.SetCurrentModule(module); err != nil {
		return arena.Invalid, err
	}
	for i, val := range crossing {
		fifo, err := sys.CreateFIFO(stage, fmt.Sprintf("%s_x%d", sys.ModuleName(stage), i), sys.ExprDataType(val))
		if err != nil {
			return arena.Invalid, err
		}
		fifos[val] = fifo
		if _, err := sys.CreatePush(fifo, val); err != nil {
			return arena.Invalid, err
		}
	}

	stageBody := sys.ModuleBody(stage)

	// Reparent the downstream statements before rewiring operands: once
	// they live in stage, ReplaceAllUsesWith's external-interface bookkeeping
	// correctly sees the pop as an intra-module reference instead of briefly
	// (and incorrectly) attributing it to module.
	for _, c := range after {
		if err := sys.MoveExpr(c, stageBody); err != nil {
			return arena.Invalid, err
		}
	}

	if err := sys.SetCurrentModule(stage); err != nil {
		return arena.Invalid, err
	}
	sys.SetInsertBefore(0)
	pops := make(map[arena.NodeRef]arena.NodeRef, len(crossing))
	for _, val := range crossing {
		popped, err := sys.CreatePop(fifos[val])
		if err != nil {
			return arena.Invalid, err
		}
		pops[val] = popped
	}
	for val, popped := range pops {
		sys.ReplaceAllUsesWith(val, popped)
	}

	if err := sys.EraseExpr(barrier); err != nil {
		return arena.Invalid, err
	}

	return stage, nil
}

// hasTopLevelBarrier reports whether module's body contains a Barrier()
// marker directly (not nested in a Condition/WaitUntil/Cycled sub-block).
func hasTopLevelBarrier(sys *ir.System, module arena.NodeRef) bool {
	for _, c := range sys.BlockChildren(sys.ModuleBody(module)) {
		if c.Kind() == arena.KindExpr && sys.ExprOpcode(c) == ir.OpBlockBarrier {
			return true
		}
	}
	return false
}

// CutAllBarriers repeatedly applies CutBarrier to module until its body
// carries no more top-level Barrier() markers, chaining each cut's new
// stage into the next cut the same way a pipeline with N barriers needs
// N+1 stage modules (spec.md §4.2.2's "one module per stage", testable
// property 7). It returns the full chain, module itself first.
func CutAllBarriers(sys *ir.System, module arena.NodeRef) ([]arena.NodeRef, error) {
	stages := []arena.NodeRef{module}
	cur := module
	for hasTopLevelBarrier(sys, cur) {
		next, err := CutBarrier(sys, cur)
		if err != nil {
			return nil, err
		}
		stages = append(stages, next)
		cur = next
	}
	return stages, nil
}

// CutBarriers runs CutAllBarriers over every module in sys that carries at
// least one top-level Barrier(), the system-wide driver spec.md §4.2.2
// needs and InsertArbiters already models by looping over
// analysis.MultiCallerModules: a single pass that turns every barrier in
// the whole design into its pipeline stage, not just the first one found
// in a single module.
func CutBarriers(sys *ir.System) error {
	for _, module := range sys.Modules() {
		if !hasTopLevelBarrier(sys, module) {
			continue
		}
		if _, err := CutAllBarriers(sys, module); err != nil {
			return err
		}
	}
	return nil
}
