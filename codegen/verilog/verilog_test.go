package verilog_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sarchlab/eir/codegen/verilog"
	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/ir"
)

func moduleNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "module ") {
			fields := strings.Fields(line)
			names = append(names, strings.TrimSuffix(fields[1], "("))
		}
	}
	return names
}

func TestEmitDeclaresEveryModuleAndTop(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	m := sys.CreateModule("adder", ir.RoleUpstream)
	port, err := sys.CreateFIFO(m, "in", ir.UIntTy(8))
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.SetCurrentModule(m); err != nil {
		t.Fatal(err)
	}
	popped, err := sys.CreatePop(port)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.CreateAdd(popped, popped); err != nil {
		t.Fatal(err)
	}

	out := verilog.Emit(sys, config.Default())

	want := []string{"adder", "top"}
	got := moduleNames(out)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("module names mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "= fifo_in_pop_data;") {
		t.Errorf("expected Pop expression assigned from the FIFO's pop-data wire, got:\n%s", out)
	}
}

func TestEmitLowersLogFormatStrings(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	m := sys.CreateDownstreamModule("logger")
	if err := sys.SetCurrentModule(m); err != nil {
		t.Fatal(err)
	}
	v := sys.GetConstInt(ir.UIntTy(8), 3)
	if _, err := sys.CreateLog("value={}", v); err != nil {
		t.Fatal(err)
	}

	out := verilog.Emit(sys, config.Default())
	if !strings.Contains(out, `$display("value=%d"`) {
		t.Errorf("expected lowered $display call with an integer verb, got:\n%s", out)
	}
}

func TestEmitLowersLogFormatStringsForStrings(t *testing.T) {
	sys := ir.NewSystem("t", "test")
	m := sys.CreateDownstreamModule("logger")
	if err := sys.SetCurrentModule(m); err != nil {
		t.Fatal(err)
	}
	s := sys.GetConstStr("hello")
	if _, err := sys.CreateLog("msg={}", s); err != nil {
		t.Fatal(err)
	}

	out := verilog.Emit(sys, config.Default())
	if !strings.Contains(out, `$display("msg=%s"`) {
		t.Errorf("expected lowered $display call with a string verb, got:\n%s", out)
	}
}
