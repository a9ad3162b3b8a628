package simtext

import (
	"fmt"
	"strings"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/internal/namify"
	"github.com/sarchlab/eir/ir"
)

// operandExpr renders the Rust expression reading def's current value,
// mirroring elaborate.rs's dump_rval_ref: a local `let` binding for an
// Expr, a field read off `sim` for a FIFO/Array, or a literal for a
// constant.
func operandExpr(sys *ir.System, def arena.NodeRef) string {
	switch def.Kind() {
	case arena.KindExpr:
		return exprIdent(sys, def)
	case arena.KindFIFO:
		return fmt.Sprintf("sim.%s.front().cloned().unwrap_or_default()", fifoIdent(sys, def))
	case arena.KindArray:
		return fmt.Sprintf("sim.%s.payload", arrayIdent(sys, def))
	case arena.KindIntImm:
		return fmt.Sprintf("%d", sys.IntImmValue(def))
	case arena.KindStrImm:
		return fmt.Sprintf("%q", sys.StrImmValue(def))
	default:
		return "0"
	}
}

var binaryOp = map[ir.Opcode]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpBitwiseAnd: "&", ir.OpBitwiseOr: "|",
	ir.OpBitwiseXor: "^", ir.OpMod: "%", ir.OpMul: "*",
	ir.OpCmpIGT: ">", ir.OpCmpIGE: ">=", ir.OpCmpILT: "<", ir.OpCmpILE: "<=",
	ir.OpCmpEQ: "==", ir.OpCmpNEQ: "!=",
}

// moduleFn renders one ir.Module as a `pub fn <name>(sim: &mut Simulator)
// -> bool` function: one `let` binding per valued expression, a direct
// `sim.*` mutation or XEQ::push for every side effect, a trailing
// `sim.<name>_triggered = true;` and `true` return, the same tail
// visit_module's Rust dump ends on.
func moduleFn(sys *ir.System, m arena.NodeRef) string {
	var sb strings.Builder
	name := moduleIdent(sys, m)
	fmt.Fprintf(&sb, "\n// module %s\npub fn %s(sim: &mut Simulator) -> bool {\n", name, name)
	ir.WalkModule(sys, m, ir.VisitorFunc(func(sys *ir.System, e arena.NodeRef) {
		op := sys.ExprOpcode(e)
		defs := sys.ExprOperandDefs(e)
		if op.Valued() {
			fmt.Fprintf(&sb, "    let %s = %s;\n", exprIdent(sys, e), exprRHS(sys, e, op, defs))
			return
		}
		sb.WriteString(sideEffect(sys, m, e, op, defs))
	}))
	fmt.Fprintf(&sb, "    sim.%s_triggered = true;\n    true\n}\n", name)
	return sb.String()
}

func exprRHS(sys *ir.System, e arena.NodeRef, op ir.Opcode, defs []arena.NodeRef) string {
	ops := make([]string, len(defs))
	for i, d := range defs {
		ops[i] = operandExpr(sys, d)
	}
	if sym, ok := binaryOp[op]; ok {
		return fmt.Sprintf("(%s %s %s)", ops[0], sym, ops[1])
	}
	switch op {
	case ir.OpLoad:
		return fmt.Sprintf("%s[%s as usize]", ops[0], ops[1])
	case ir.OpShl:
		return fmt.Sprintf("(%s << %s)", ops[0], ops[1])
	case ir.OpShr:
		return fmt.Sprintf("(%s >> %s)", ops[0], ops[1])
	case ir.OpNeg:
		return fmt.Sprintf("(-%s)", ops[0])
	case ir.OpFlip:
		return fmt.Sprintf("(!%s)", ops[0])
	case ir.OpSelect:
		return fmt.Sprintf("(if %s != 0 { %s } else { %s })", ops[0], ops[1], ops[2])
	case ir.OpSelect1Hot:
		terms := make([]string, 0, len(ops)/2)
		for i := 0; i+1 < len(ops); i += 2 {
			terms = append(terms, fmt.Sprintf("if %s != 0 { %s } else { 0 }", ops[i], ops[i+1]))
		}
		if len(terms) == 0 {
			return "0"
		}
		return "(" + strings.Join(terms, " | ") + ")"
	case ir.OpFIFOPeek, ir.OpFIFOPop:
		return fmt.Sprintf("sim.%s.front().cloned().unwrap_or_default()", fifoIdent(sys, defs[0]))
	case ir.OpFIFOValid:
		return fmt.Sprintf("!sim.%s.is_empty()", fifoIdent(sys, defs[0]))
	case ir.OpFIFOReady:
		return fmt.Sprintf("(sim.%s.payload.len() < sim.%s_depth)", fifoIdent(sys, defs[0]), fifoIdent(sys, defs[0]))
	case ir.OpValueValid:
		return fmt.Sprintf("%s_valid", ops[0])
	case ir.OpModuleTriggered:
		return fmt.Sprintf("sim.%s_triggered", moduleIdent(sys, defs[0]))
	case ir.OpSlice:
		hi := sys.IntImmValue(defs[1])
		lo := sys.IntImmValue(defs[2])
		return fmt.Sprintf("((%s >> %d) & ((1 << %d) - 1))", ops[0], lo, hi-lo+1)
	case ir.OpBitCast:
		return ops[0]
	case ir.OpZExt:
		return fmt.Sprintf("(%s as u64)", ops[0])
	case ir.OpSExt:
		return fmt.Sprintf("ValueCastTo::<i64>::cast(&%s) as u64", ops[0])
	case ir.OpConcat:
		loBits := exprOperandBits(sys, defs[1])
		return fmt.Sprintf("((%s << %d) | %s)", ops[0], loBits, ops[1])
	default:
		return fmt.Sprintf("/* unhandled opcode %s */ 0", op)
	}
}

func exprOperandBits(sys *ir.System, def arena.NodeRef) int {
	switch def.Kind() {
	case arena.KindExpr:
		return sys.ExprDataType(def).GetBits()
	case arena.KindFIFO:
		return sys.FIFODataType(def).GetBits()
	case arena.KindArray:
		return sys.ArrayDataType(def).GetBits()
	case arena.KindIntImm:
		return sys.IntImmDataType(def).GetBits()
	default:
		return 0
	}
}

func sideEffect(sys *ir.System, m arena.NodeRef, e arena.NodeRef, op ir.Opcode, defs []arena.NodeRef) string {
	switch op {
	case ir.OpStore:
		arr, idx, val := arrayIdent(sys, defs[0]), operandExpr(sys, defs[1]), operandExpr(sys, defs[2])
		return fmt.Sprintf("    sim.%s.write.push(ArrayWrite::new(sim.stamp, %s as usize, %s, %q));\n", arr, idx, val, moduleIdent(sys, m))
	case ir.OpFIFOPush:
		fifo := fifoIdent(sys, defs[0])
		return fmt.Sprintf("    sim.%s.push.push(FIFOPush::new(sim.stamp, %s, %q));\n", fifo, operandExpr(sys, defs[1]), moduleIdent(sys, m))
	case ir.OpAsyncCall:
		return fmt.Sprintf("    // async call of %s\n", operandExpr(sys, defs[0]))
	case ir.OpBlockAssert:
		return fmt.Sprintf("    assert!(%s != 0, \"assertion failed in %s @{}\", sim.stamp);\n", operandExpr(sys, defs[0]), moduleIdent(sys, m))
	case ir.OpBlockFinish:
		return "    std::process::exit(0);\n"
	case ir.OpLog:
		return logStatement(sys, defs)
	default:
		return ""
	}
}

// logStatement lowers a Log expression's "{}"/"{:0Nd}" format string into a
// println! call. It reuses internal/namify.Lower to validate and count the
// placeholders (the same parser codegen/verilog's logStatement drives), but
// keeps Rust's own "{}" placeholder syntax in the emitted text rather than
// namify's fmt-style "%d"/"%s" verbs, since println! is Rust's formatter, not Go's.
func logStatement(sys *ir.System, defs []arena.NodeRef) string {
	raw := sys.StrImmValue(defs[0])
	_, count, err := namify.Lower(raw, nil)
	if err != nil {
		return fmt.Sprintf("    // malformed log format: %v\n", err)
	}
	args := make([]string, 0, count)
	for _, d := range defs[1:] {
		args = append(args, operandExpr(sys, d))
	}
	if len(args) == 0 {
		return fmt.Sprintf("    println!(%q);\n", raw)
	}
	return fmt.Sprintf("    println!(%q, %s);\n", raw, strings.Join(args, ", "))
}

// Modules renders src/modules.rs: one moduleFn per ir.Module in sys,
// preceded by the `use` block dump_modules always emits.
func Modules(sys *ir.System) string {
	var sb strings.Builder
	sb.WriteString("use super::runtime::*;\nuse super::simulator::Simulator;\n\n")
	for _, m := range sys.Modules() {
		sb.WriteString(moduleFn(sys, m))
	}
	return sb.String()
}
