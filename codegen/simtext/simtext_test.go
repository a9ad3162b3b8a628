package simtext_test

import (
	"strings"
	"testing"

	"github.com/sarchlab/eir/codegen/simtext"
	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/ir"
)

func TestEmitProducesEveryProjectFile(t *testing.T) {
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

	proj := simtext.Emit(sys, config.Default())
	files := proj.Files()
	for _, path := range []string{"Cargo.toml", "src/main.rs", "src/runtime.rs", "src/modules.rs", "src/simulator.rs"} {
		if files[path] == "" {
			t.Errorf("expected non-empty %s", path)
		}
	}
	if !strings.Contains(proj.ModulesRS, "pub fn adder(sim: &mut Simulator) -> bool {") {
		t.Errorf("expected adder's tick function, got:\n%s", proj.ModulesRS)
	}
	if !strings.Contains(proj.SimulatorRS, "pub adder_in: FIFO<u8>,") {
		t.Errorf("expected fifo field declaration, got:\n%s", proj.SimulatorRS)
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

	proj := simtext.Emit(sys, config.Default())
	if !strings.Contains(proj.ModulesRS, `println!("value={}", 3);`) {
		t.Errorf("expected lowered println! call, got:\n%s", proj.ModulesRS)
	}
}
