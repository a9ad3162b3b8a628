// Package analysis implements the read-only queries C5 needs over an
// ir.System: the module call graph (callers/callees), a topological
// ordering of it, external-use gathering (a thin wrapper over
// ir.System.ExternalInterface), and an unweighted critical-path report.
// Grounded on the traversal shape of
// original_source/src/xform/arbiter.rs's GatherBinds visitor and
// find_module_with_multi_callers, generalized via ir.Visitor so this
// package never re-implements block recursion.
package analysis

import (
	"fmt"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/ir"
)

// Callees returns every module directly async-called from module's body,
// in the order their Bind expressions appear, deduplicated.
func Callees(sys *ir.System, module arena.NodeRef) []arena.NodeRef {
	seen := make(map[arena.NodeRef]bool)
	var out []arena.NodeRef
	ir.WalkModule(sys, module, ir.VisitorFunc(func(sys *ir.System, ref arena.NodeRef) {
		if sys.ExprOpcode(ref) != ir.OpAsyncCall {
			return
		}
		bind := sys.ExprOperandDefs(ref)[0]
		callee := sys.ExprOperandDefs(bind)[0]
		if !seen[callee] {
			seen[callee] = true
			out = append(out, callee)
		}
	}))
	return out
}

// Callers returns every module in sys that async-calls module, in module
// creation order.
func Callers(sys *ir.System, module arena.NodeRef) []arena.NodeRef {
	var out []arena.NodeRef
	for _, m := range sys.Modules() {
		for _, callee := range Callees(sys, m) {
			if callee == module {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// MultiCallerModules returns every module in sys called from more than one
// distinct caller — exactly the set xform.InsertArbiters must visit
// (spec.md §4.2.1), ordered by module creation order for determinism.
func MultiCallerModules(sys *ir.System) []arena.NodeRef {
	var out []arena.NodeRef
	for _, m := range sys.Modules() {
		if len(Callers(sys, m)) > 1 {
			out = append(out, m)
		}
	}
	return out
}

// ExternalUses returns, for module, every external node it reads or writes
// and the operand handles doing so — a direct pass-through of
// ir.System.ExternalInterface kept here so callers needing "analysis"
// results don't have to import ir's lower-level accessor directly.
func ExternalUses(sys *ir.System, module arena.NodeRef) map[arena.NodeRef][]arena.NodeRef {
	return sys.ExternalInterface(module)
}

// TopoSort orders every module in sys so each module's callees precede it
// (spec.md §5's "topo sort [of] downstream modules", generalized here to
// the whole call graph since upstream modules with no callees sort as
// independent roots). Returns an error wrapping ir.ErrInvariantBroken if the
// call graph has a cycle — the IR forbids recursive module calls.
func TopoSort(sys *ir.System) ([]arena.NodeRef, error) {
	modules := sys.Modules()
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[arena.NodeRef]int, len(modules))
	var order []arena.NodeRef

	var visit func(m arena.NodeRef) error
	visit = func(m arena.NodeRef) error {
		switch color[m] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("analysis: call graph cycle through %s: %w", sys.ModuleName(m), ir.ErrKind(ir.ErrInvariantBroken))
		}
		color[m] = gray
		for _, callee := range Callees(sys, m) {
			if err := visit(callee); err != nil {
				return err
			}
		}
		color[m] = black
		order = append(order, m)
		return nil
	}

	for _, m := range modules {
		if err := visit(m); err != nil {
			return nil, err
		}
	}
	return order, nil
}
