//go:generate mockgen -write_package_comment=false -package=analysis_test -destination=mock_visitor_test.go github.com/sarchlab/eir/ir Visitor

package analysis_test

import (
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/sarchlab/eir/analysis"
	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/ir"
)

func TestWalkVisitsEveryExpression(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	m := sys.CreateModule("m", ir.RoleUpstream)
	if err := sys.SetCurrentModule(m); err != nil {
		t.Fatal(err)
	}
	x := sys.GetConstInt(ir.UIntTy(8), 1)
	sum, err := sys.CreateAdd(x, x)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.CreateNeg(sum); err != nil {
		t.Fatal(err)
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mv := NewMockVisitor(ctrl)
	mv.EXPECT().VisitExpr(sys, gomock.Any()).Times(2)

	ir.WalkModule(sys, m, mv)
}

func bindAndCall(t *testing.T, sys *ir.System, caller, callee arena.NodeRef) {
	t.Helper()
	if err := sys.SetCurrentModule(caller); err != nil {
		t.Fatal(err)
	}
	bind, err := sys.CreateBind(callee)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.CreateAsyncCall(bind); err != nil {
		t.Fatal(err)
	}
}

func TestCalleesAndCallers(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	callee := sys.CreateModule("callee", ir.RoleUpstream)
	callerA := sys.CreateModule("callerA", ir.RoleUpstream)
	callerB := sys.CreateModule("callerB", ir.RoleUpstream)

	bindAndCall(t, sys, callerA, callee)
	bindAndCall(t, sys, callerB, callee)

	callees := analysis.Callees(sys, callerA)
	if len(callees) != 1 || callees[0] != callee {
		t.Fatalf("expected callerA to call callee once, got %v", callees)
	}

	callers := analysis.Callers(sys, callee)
	if len(callers) != 2 {
		t.Fatalf("expected 2 callers of callee, got %d", len(callers))
	}

	multi := analysis.MultiCallerModules(sys)
	if len(multi) != 1 || multi[0] != callee {
		t.Fatalf("expected callee to be the sole multi-caller module, got %v", multi)
	}
}

func TestTopoSortOrdersCalleesFirst(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	callee := sys.CreateModule("callee", ir.RoleUpstream)
	caller := sys.CreateModule("caller", ir.RoleUpstream)

	bindAndCall(t, sys, caller, callee)

	order, err := analysis.TopoSort(sys)
	if err != nil {
		t.Fatal(err)
	}
	idx := func(target arena.NodeRef) int {
		for i, m := range order {
			if m == target {
				return i
			}
		}
		return -1
	}
	if idx(callee) >= idx(caller) {
		t.Fatalf("expected callee before caller in %v", order)
	}
}

func TestCriticalPathFindsShortestCallChain(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	a := sys.CreateModule("a", ir.RoleUpstream)
	b := sys.CreateModule("b", ir.RoleUpstream)
	c := sys.CreateModule("c", ir.RoleUpstream)

	bindAndCall(t, sys, a, b)
	bindAndCall(t, sys, b, c)

	path := analysis.CriticalPath(sys, a, c)
	if len(path) != 3 {
		t.Fatalf("expected a 3-module path a->b->c, got %v", path)
	}
	if path[0].Module != a || path[1].Module != b || path[2].Module != c {
		t.Fatalf("unexpected path order: %v", path)
	}
}
