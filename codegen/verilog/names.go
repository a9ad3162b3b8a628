// Package verilog lowers a built *ir.System into synthesizable SystemVerilog
// text: one module per ir.Module, arbitration/trigger plumbing, memory
// blackbox instantiation, and a top-level wrapper wiring FIFOs between
// modules. Naming and declaration helpers here are ported from
// original_source/src/backend/verilog/utils.rs's DisplayInstance/Edge/
// declare_* family.
package verilog

import (
	"fmt"
	"strings"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/internal/namify"
	"github.com/sarchlab/eir/ir"
)

// moduleName returns the Verilog-legal identifier for an ir.Module.
func moduleName(sys *ir.System, m arena.NodeRef) string {
	return namify.Flatten(sys.ModuleName(m))
}

// fifoSignal names the wire carrying a FIFO's owner-relative signal
// (global=true prefixes with the owning module's name, the way a
// cross-module reference must be disambiguated at the top level).
func fifoSignal(sys *ir.System, fifo arena.NodeRef, global bool) string {
	raw := namify.Flatten(sys.FIFOName(fifo))
	if !global {
		return "fifo_" + raw
	}
	owner := moduleName(sys, sys.FIFOOwner(fifo))
	return fmt.Sprintf("fifo_%s_%s", owner, raw)
}

// arraySignal names the wire/reg bank backing an Array.
func arraySignal(sys *ir.System, arr arena.NodeRef) string {
	return "array_" + namify.Flatten(sys.ArrayName(arr))
}

// exprSignal names the wire an expression's value is assigned to. Named
// expressions keep their author-given name (flattened, behind an "n_"
// prefix); anonymous ones get a synthetic "nNN" name derived from their
// arena index via their String() ("Expr#NN").
func exprSignal(sys *ir.System, e arena.NodeRef) string {
	if name := sys.ExprName(e); name != "" {
		return "n_" + namify.Flatten(name)
	}
	s := e.String()
	return "n" + s[strings.IndexByte(s, '#')+1:]
}

func declareWire(bits int, id string) string {
	if bits <= 0 {
		bits = 1
	}
	return fmt.Sprintf("  logic [%d:0] %s;\n", bits-1, id)
}

func declareIn(bits int, id string) string {
	if bits <= 0 {
		bits = 1
	}
	return fmt.Sprintf("  input  logic [%d:0] %s,\n", bits-1, id)
}

func declareOut(bits int, id string) string {
	if bits <= 0 {
		bits = 1
	}
	return fmt.Sprintf("  output logic [%d:0] %s,\n", bits-1, id)
}
