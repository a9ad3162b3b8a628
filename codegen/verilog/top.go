package verilog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/ir"
)

// moduleDecl renders one module's declaration + body: ports for every FIFO
// it owns, memory blackbox pins when its backing array is memory-attributed
// (spec.md §8), and the body emitted by moduleBody.
func moduleDecl(sys *ir.System, m arena.NodeRef, cfg config.Config) string {
	var sb strings.Builder
	name := moduleName(sys, m)
	fmt.Fprintf(&sb, "module %s (\n", name)

	ports := []string{"  input  logic clk", "  input  logic rst"}
	var depthNotes strings.Builder
	for _, port := range sys.ModulePorts(m) {
		dt := sys.FIFODataType(port)
		sig := fifoSignal(sys, port, false)
		ports = append(ports,
			strings.TrimSuffix(declareIn(dt.GetBits(), sig+"_push_data"), ",\n"),
			strings.TrimSuffix(declareIn(1, sig+"_push_valid"), ",\n"),
			strings.TrimSuffix(declareOut(1, sig+"_ready"), ",\n"),
		)
		explicit, hasExplicit := sys.FIFODepth(port)
		depth := cfg.ResolveFIFODepth(explicit, hasExplicit)
		fmt.Fprintf(&depthNotes, "  // %s depth=%d\n", sig, depth)
	}
	sb.WriteString(strings.Join(ports, ",\n"))
	sb.WriteString("\n);\n")
	sb.WriteString(depthNotes.String())
	sb.WriteString(moduleMemoryPins(sys, m, cfg))
	sb.WriteString(moduleBody(sys, m))
	sb.WriteString("endmodule\n")
	return sb.String()
}

// moduleMemoryPins emits the memory blackbox instantiation for a module
// whose backing array carries ArrayAttrMemory (spec.md §8's
// MemoryParams{AddrBits, DataBits, InitFile}), instead of flattened-bit
// register pins.
func moduleMemoryPins(sys *ir.System, m arena.NodeRef, cfg config.Config) string {
	var sb strings.Builder
	for _, arr := range sys.Arrays() {
		params, ok := sys.ArrayMemoryParams(arr)
		if !ok {
			continue
		}
		used := false
		for _, u := range sys.ArrayUsers(arr) {
			if moduleOfOperand(sys, u) == m {
				used = true
				break
			}
		}
		if !used {
			continue
		}
		name := arraySignal(sys, arr)
		fmt.Fprintf(&sb, "  memory_blackbox_%s #(\n", namifyArray(sys, arr))
		fmt.Fprintf(&sb, "    .ADDR_BITS(%d),\n    .DATA_BITS(%d)\n", params.AddrBits, params.DataBits)
		fmt.Fprintf(&sb, "  ) %s_mem (\n    .clk(clk),\n    .addr(%s_addr),\n    .rdata(%s_rdata),\n    .wdata(%s_wdata),\n    .we(%s_we)\n  );\n", name, name, name, name, name)
		if params.InitFile != "" {
			initFile := params.InitFile
			if !filepath.IsAbs(initFile) {
				initFile = filepath.Join(cfg.ResourceBase, initFile)
			}
			fmt.Fprintf(&sb, "  initial $readmemh(%q, %s_mem.mem);\n", initFile, name)
		}
	}
	return sb.String()
}

// moduleOfOperand walks up from an operand's consuming expression to the
// module that owns it, since ir does not expose its internal moduleOf
// directly.
func moduleOfOperand(sys *ir.System, operand arena.NodeRef) arena.NodeRef {
	expr := sys.OperandUser(operand)
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

func namifyArray(sys *ir.System, arr arena.NodeRef) string {
	return arraySignal(sys, arr)[len("array_"):]
}

// topWrapper wires every module's FIFO ports to its caller's push sites at
// the system level, gathering top-level fan-in the way
// original_source/src/backend/verilog/elaborate.rs's top-module pass
// connects DisplayInstance-named ports across module instances.
func topWrapper(sys *ir.System) string {
	var sb strings.Builder
	sb.WriteString("module top (\n  input logic clk,\n  input logic rst\n);\n")
	for _, m := range sys.Modules() {
		name := moduleName(sys, m)
		fmt.Fprintf(&sb, "  %s %s_inst (\n    .clk(clk),\n    .rst(rst)", name, name)
		for _, port := range sys.ModulePorts(m) {
			sig := fifoSignal(sys, port, true)
			local := fifoSignal(sys, port, false)
			fmt.Fprintf(&sb, ",\n    .%s_push_data(%s_push_data),\n    .%s_push_valid(%s_push_valid),\n    .%s_ready(%s_ready)",
				local, sig, local, sig, local, sig)
		}
		sb.WriteString("\n  );\n")
	}
	sb.WriteString("endmodule\n")
	return sb.String()
}

// Emit lowers sys into a single SystemVerilog text blob: one module
// declaration per ir.Module followed by the top-level wrapper, exactly the
// file layout original_source/src/backend/verilog/elaborate.rs emits (one
// file, modules-then-top).
func Emit(sys *ir.System, cfg config.Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// eir build %s\n", sys.Arena().Tag)
	for _, m := range sys.Modules() {
		sb.WriteString(moduleDecl(sys, m, cfg))
		sb.WriteString("\n")
	}
	sb.WriteString(topWrapper(sys))
	return sb.String()
}
