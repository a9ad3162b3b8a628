package simtext

import (
	"fmt"
	"strings"

	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/ir"
)

// Simulator renders src/simulator.rs: the Simulator struct (one field per
// array and per FIFO/triggered-flag pair), its constructor, reset_downstream/
// tick_registers helpers, and the main simulate() loop — the same shape
// dump_simulator builds, just rendered from *ir.System instead of a
// SysBuilder, and driven against a config.Config for FIFO-depth resolution
// the way every other back end is.
func Simulator(sys *ir.System, cfg config.Config) string {
	var fields, ctorInit, resetDownstream, tickRegisters strings.Builder

	for _, arr := range sys.Arrays() {
		name := arrayIdent(sys, arr)
		ty := rustType(sys.ArrayDataType(arr))
		fmt.Fprintf(&fields, "    pub %s: Array<%s>,\n", name, ty)
		if init := sys.ArrayInit(arr); len(init) > 0 {
			vals := make([]string, len(init))
			for i, c := range init {
				vals[i] = fmt.Sprintf("%d", sys.IntImmValue(c))
			}
			fmt.Fprintf(&ctorInit, "            %s: Array::new_with_init(vec![%s]),\n", name, strings.Join(vals, ", "))
		} else {
			fmt.Fprintf(&ctorInit, "            %s: Array::new(%d),\n", name, sys.ArraySize(arr))
		}
		fmt.Fprintf(&tickRegisters, "        self.%s.tick(self.stamp);\n", name)
	}

	for _, m := range sys.Modules() {
		name := moduleIdent(sys, m)
		fmt.Fprintf(&fields, "    pub %s_triggered: bool,\n", name)
		fmt.Fprintf(&ctorInit, "            %s_triggered: false,\n", name)
		fmt.Fprintf(&resetDownstream, "        self.%s_triggered = false;\n", name)

		for _, port := range sys.ModulePorts(m) {
			fname := fifoIdent(sys, port)
			ty := rustType(sys.FIFODataType(port))
			explicit, hasExplicit := sys.FIFODepth(port)
			depth := cfg.ResolveFIFODepth(explicit, hasExplicit)
			fmt.Fprintf(&fields, "    pub %s: FIFO<%s>,\n    pub %s_depth: usize,\n", fname, ty, fname)
			fmt.Fprintf(&ctorInit, "            %s: FIFO::new(),\n            %s_depth: %d,\n", fname, fname, depth)
			fmt.Fprintf(&tickRegisters, "        self.%s.tick(self.stamp);\n", fname)
		}
	}

	var callOrder strings.Builder
	for _, m := range sys.Modules() {
		fmt.Fprintf(&callOrder, "        modules::%s(self);\n", moduleIdent(sys, m))
	}

	return fmt.Sprintf(`use std::collections::VecDeque;
use super::runtime::*;
use super::modules;

pub struct Simulator {
    pub stamp: usize,
%s}

impl Simulator {
    pub fn new() -> Self {
        Simulator {
            stamp: 0,
%s        }
    }

    pub fn reset_downstream(&mut self) {
%s    }

    pub fn tick_registers(&mut self) {
%s    }

    pub fn run(&mut self, sim_threshold: usize) {
        let mut idle = 0usize;
        while self.stamp / 100 < sim_threshold {
            self.reset_downstream();
%s            self.tick_registers();
            self.stamp += 50;
            idle += 1;
            if idle > 1_000_000 {
                break;
            }
        }
    }
}

pub fn simulate() {
    let mut sim = Simulator::new();
    sim.run(%d);
    println!("{}", cyclize(sim.stamp));
}
`, fields.String(), ctorInit.String(), resetDownstream.String(), tickRegisters.String(), callOrder.String(), cfg.SimThreshold)
}
