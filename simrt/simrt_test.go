package simrt_test

import (
	"testing"

	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/ir"
	"github.com/sarchlab/eir/simrt"
)

func TestEngineRelaysPushedValueThroughFIFOIntoArray(t *testing.T) {
	sys := ir.NewSystem("t", "test")

	sink := sys.CreateModule("sink", ir.RoleUpstream)
	port, err := sys.CreateFIFO(sink, "in", ir.UIntTy(8))
	if err != nil {
		t.Fatal(err)
	}
	arr, err := sys.CreateArray("mem", ir.UIntTy(8), 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.SetCurrentModule(sink); err != nil {
		t.Fatal(err)
	}
	popped, err := sys.CreatePop(port)
	if err != nil {
		t.Fatal(err)
	}
	zero := sys.GetConstInt(ir.UIntTy(1), 0)
	if _, err := sys.CreateStore(arr, zero, popped); err != nil {
		t.Fatal(err)
	}

	src := sys.CreateModule("src", ir.RoleUpstream)
	if err := sys.SetCurrentModule(src); err != nil {
		t.Fatal(err)
	}
	val := sys.GetConstInt(ir.UIntTy(8), 42)
	if _, err := sys.CreatePush(port, val); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.SimThreshold = 8
	cfg.IdleThreshold = 100
	eng := simrt.NewEngine(sys, cfg, sys.Modules())

	if reason := eng.Run(); reason != simrt.StopTimeout && reason != simrt.StopIdle {
		t.Fatalf("unexpected stop reason %v", reason)
	}

	got := eng.ArraySnapshot(arr)
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("expected array[0]=42, got %v", got)
	}
}
