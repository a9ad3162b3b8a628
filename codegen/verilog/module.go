package verilog

import (
	"fmt"
	"strings"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/internal/namify"
	"github.com/sarchlab/eir/ir"
)

// operandText returns the Verilog expression referring to def's current
// value: a wire name for an Expr/FIFO/Array-index-free scalar, or a sized
// literal for a constant.
func operandText(sys *ir.System, def arena.NodeRef) string {
	switch def.Kind() {
	case arena.KindExpr:
		return exprSignal(sys, def)
	case arena.KindFIFO:
		return fifoSignal(sys, def, false) + "_pop_data"
	case arena.KindArray:
		return arraySignal(sys, def)
	case arena.KindIntImm:
		dt := sys.IntImmDataType(def)
		return fmt.Sprintf("%d'd%d", dt.GetBits(), sys.IntImmValue(def))
	case arena.KindStrImm:
		return fmt.Sprintf("%q", sys.StrImmValue(def))
	default:
		return "'x"
	}
}

// exprOperandBits returns the bit-width of an arbitrary operand def,
// regardless of node kind.
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

var binaryOp = map[ir.Opcode]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpBitwiseAnd: "&", ir.OpBitwiseOr: "|",
	ir.OpBitwiseXor: "^", ir.OpMod: "%", ir.OpMul: "*",
	ir.OpCmpIGT: ">", ir.OpCmpIGE: ">=", ir.OpCmpILT: "<", ir.OpCmpILE: "<=",
	ir.OpCmpEQ: "==", ir.OpCmpNEQ: "!=",
}

// moduleBody renders the synthesizable body of a single module — a wire
// declaration plus a continuous assignment for every valued expression, and
// for side effects an always_ff block per Store, a pair of continuous
// assignments per FIFOPush, a $display per Log, and a comment line per
// AsyncCall, Assert or Finish. Mirrors the
// structure (not the syntax) of
// original_source/src/backend/verilog/visit_expr.rs's per-opcode dispatch.
func moduleBody(sys *ir.System, m arena.NodeRef) string {
	var decls, assigns, effects strings.Builder
	ir.WalkModule(sys, m, ir.VisitorFunc(func(sys *ir.System, e arena.NodeRef) {
		op := sys.ExprOpcode(e)
		defs := sys.ExprOperandDefs(e)
		if op.Valued() {
			sig := exprSignal(sys, e)
			decls.WriteString(declareWire(sys.ExprDataType(e).GetBits(), sig))
			assigns.WriteString(fmt.Sprintf("  assign %s = %s;\n", sig, exprRHS(sys, e, op, defs)))
			return
		}
		effects.WriteString(sideEffect(sys, e, op, defs))
	}))
	var out strings.Builder
	out.WriteString(decls.String())
	out.WriteString(assigns.String())
	out.WriteString(effects.String())
	return out.String()
}

func exprRHS(sys *ir.System, e arena.NodeRef, op ir.Opcode, defs []arena.NodeRef) string {
	ops := make([]string, len(defs))
	for i, d := range defs {
		ops[i] = operandText(sys, d)
	}
	if sym, ok := binaryOp[op]; ok {
		return fmt.Sprintf("%s %s %s", ops[0], sym, ops[1])
	}
	switch op {
	case ir.OpLoad:
		return fmt.Sprintf("%s[%s]", ops[0], ops[1])
	case ir.OpShl:
		return fmt.Sprintf("%s << %s", ops[0], ops[1])
	case ir.OpShr:
		if sys.ExprDataType(e).IsSigned() {
			return fmt.Sprintf("%s >>> %s", ops[0], ops[1])
		}
		return fmt.Sprintf("%s >> %s", ops[0], ops[1])
	case ir.OpNeg:
		return fmt.Sprintf("-%s", ops[0])
	case ir.OpFlip:
		return fmt.Sprintf("~%s", ops[0])
	case ir.OpSelect:
		return fmt.Sprintf("%s ? %s : %s", ops[0], ops[1], ops[2])
	case ir.OpSelect1Hot:
		terms := make([]string, 0, len(ops)/2)
		bits := sys.ExprDataType(e).GetBits()
		for i := 0; i+1 < len(ops); i += 2 {
			terms = append(terms, fmt.Sprintf("({%d{%s}} & %s)", bits, ops[i], ops[i+1]))
		}
		if len(terms) == 0 {
			return "'x"
		}
		return strings.Join(terms, " | ")
	case ir.OpFIFOPeek, ir.OpFIFOPop:
		return fifoSignal(sys, defs[0], false) + "_pop_data"
	case ir.OpFIFOValid:
		return fifoSignal(sys, defs[0], false) + "_valid"
	case ir.OpFIFOReady:
		return fifoSignal(sys, defs[0], false) + "_ready"
	case ir.OpValueValid:
		return ops[0] + "_valid"
	case ir.OpModuleTriggered:
		return moduleName(sys, defs[0]) + "_triggered"
	case ir.OpSlice:
		hi := sys.IntImmValue(defs[1])
		lo := sys.IntImmValue(defs[2])
		return fmt.Sprintf("%s[%d:%d]", ops[0], hi, lo)
	case ir.OpBitCast:
		return ops[0]
	case ir.OpZExt:
		to, from := sys.ExprDataType(e).GetBits(), exprOperandBits(sys, defs[0])
		if to <= from {
			return ops[0]
		}
		return fmt.Sprintf("{{%d{1'b0}}, %s}", to-from, ops[0])
	case ir.OpSExt:
		to, from := sys.ExprDataType(e).GetBits(), exprOperandBits(sys, defs[0])
		if to <= from {
			return ops[0]
		}
		return fmt.Sprintf("{{%d{%s[%d]}}, %s}", to-from, ops[0], from-1, ops[0])
	case ir.OpConcat:
		return fmt.Sprintf("{%s, %s}", ops[0], ops[1])
	default:
		return fmt.Sprintf("/* unhandled opcode %s */ 'x", op)
	}
}

func sideEffect(sys *ir.System, e arena.NodeRef, op ir.Opcode, defs []arena.NodeRef) string {
	switch op {
	case ir.OpStore:
		arr, idx, val := operandText(sys, defs[0]), operandText(sys, defs[1]), operandText(sys, defs[2])
		return fmt.Sprintf("  always_ff @(posedge clk) if (%s_we) %s[%s] <= %s;\n", arraySignal(sys, defs[0]), arr, idx, val)
	case ir.OpFIFOPush:
		fifo := fifoSignal(sys, defs[0], false)
		return fmt.Sprintf("  assign %s_push_data = %s;\n  assign %s_push_valid = 1'b1;\n", fifo, operandText(sys, defs[1]), fifo)
	case ir.OpAsyncCall:
		return fmt.Sprintf("  // async call of %s\n", operandText(sys, defs[0]))
	case ir.OpBlockAssert:
		return fmt.Sprintf("  // assert(%s)\n", operandText(sys, defs[0]))
	case ir.OpBlockFinish:
		return "  // $finish\n"
	case ir.OpLog:
		return logStatement(sys, defs)
	default:
		return ""
	}
}

// logStatement lowers a Log expression's spec.md §8 format string into a
// $display call, using internal/namify's format-spec lowering.
func logStatement(sys *ir.System, defs []arena.NodeRef) string {
	raw := sys.StrImmValue(defs[0])
	argTypes := make([]ir.DataType, 0, len(defs)-1)
	args := make([]string, 0, len(defs)-1)
	for _, d := range defs[1:] {
		dt, err := sys.OperandDataType(d)
		if err != nil {
			return fmt.Sprintf("  // malformed log format: %v\n", err)
		}
		argTypes = append(argTypes, dt)
		args = append(args, operandText(sys, d))
	}
	lowered, _, err := namify.Lower(raw, argTypes)
	if err != nil {
		return fmt.Sprintf("  // malformed log format: %v\n", err)
	}
	if len(args) == 0 {
		return fmt.Sprintf("  $display(%q);\n", lowered)
	}
	return fmt.Sprintf("  $display(%q, %s);\n", lowered, strings.Join(args, ", "))
}
