package ir

import "github.com/sarchlab/eir/arena"

// Visitor receives a callback per expression encountered during a Walk.
// Ported in spirit from the distilled Rust sources' GatherBinds visitor
// (src/xform/arbiter.rs), generalized so any pass (arbiter insertion,
// barrier analysis, the Verilog/simulator emitters) can reuse the same
// traversal instead of hand-rolling block recursion.
type Visitor interface {
	VisitExpr(sys *System, ref arena.NodeRef)
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(sys *System, ref arena.NodeRef)

func (f VisitorFunc) VisitExpr(sys *System, ref arena.NodeRef) { f(sys, ref) }

// Walk visits every expression in block, depth-first, descending into any
// child that is itself a Block (spec.md §3's nested-block scoping for
// Condition/WaitUntil/Cycled-guarded sub-blocks).
func Walk(sys *System, block arena.NodeRef, v Visitor) {
	for _, child := range sys.BlockChildren(block) {
		switch child.Kind() {
		case arena.KindExpr:
			v.VisitExpr(sys, child)
		case arena.KindBlock:
			Walk(sys, child, v)
		}
	}
}

// WalkModule visits every expression in module's body.
func WalkModule(sys *System, module arena.NodeRef, v Visitor) {
	Walk(sys, sys.ModuleBody(module), v)
}
