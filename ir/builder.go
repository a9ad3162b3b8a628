package ir

import "github.com/sarchlab/eir/arena"

// This file is the builder surface spec.md §6 calls out by name: a set of
// create_* constructors on top of the primitives in expr.go/operand.go, each
// type-checking its operands per the opcode rules in spec.md §4.1 before
// allocating anything.

func (s *System) dtypeOf(def arena.NodeRef) (DataType, error) {
	switch def.Kind() {
	case arena.KindExpr:
		return s.ExprDataType(def), nil
	case arena.KindFIFO:
		return s.FIFODataType(def), nil
	case arena.KindArray:
		return s.ArrayDataType(def), nil
	case arena.KindIntImm:
		return s.IntImmDataType(def), nil
	case arena.KindStrImm:
		return StrTy(), nil
	default:
		return DataType{}, newErr(ErrTypeMismatch, "dtypeOf: %s has no value type", def)
	}
}

func (s *System) here() (block arena.NodeRef, err error) {
	if !s.cursor.Block.IsValid() {
		return arena.Invalid, newErr(ErrInvariantBroken, "no current block: call SetCurrentModule first")
	}
	return s.cursor.Block, nil
}

// CreateLoad emits array[idx].
func (s *System) CreateLoad(array, idx arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if array.Kind() != arena.KindArray {
		return arena.Invalid, newErr(ErrTypeMismatch, "Load: %s is not an Array", array)
	}
	idxTy, err := s.dtypeOf(idx)
	if err != nil {
		return arena.Invalid, err
	}
	if !idxTy.IsInt() {
		return arena.Invalid, newErr(ErrTypeMismatch, "Load: index must be Int/UInt, got %s", idxTy)
	}
	return s.createExpr(block, OpLoad, s.ArrayDataType(array), "", array, idx)
}

// CreateStore emits array[idx] = val.
func (s *System) CreateStore(array, idx, val arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if array.Kind() != arena.KindArray {
		return arena.Invalid, newErr(ErrTypeMismatch, "Store: %s is not an Array", array)
	}
	valTy, err := s.dtypeOf(val)
	if err != nil {
		return arena.Invalid, err
	}
	if !valTy.Equal(s.ArrayDataType(array)) {
		return arena.Invalid, newErr(ErrTypeMismatch, "Store: value type %s does not match array element type %s", valTy, s.ArrayDataType(array))
	}
	return s.createExpr(block, OpStore, VoidTy(), "", array, idx, val)
}

func (s *System) createBinaryArith(op Opcode, a, b arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	aTy, err := s.dtypeOf(a)
	if err != nil {
		return arena.Invalid, err
	}
	bTy, err := s.dtypeOf(b)
	if err != nil {
		return arena.Invalid, err
	}
	rTy, err := WidenBinary(aTy, bTy)
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, op, rTy, "", a, b)
}

func (s *System) CreateAdd(a, b arena.NodeRef) (arena.NodeRef, error) { return s.createBinaryArith(OpAdd, a, b) }
func (s *System) CreateSub(a, b arena.NodeRef) (arena.NodeRef, error) { return s.createBinaryArith(OpSub, a, b) }
func (s *System) CreateAnd(a, b arena.NodeRef) (arena.NodeRef, error) { return s.createBinaryArith(OpBitwiseAnd, a, b) }
func (s *System) CreateOr(a, b arena.NodeRef) (arena.NodeRef, error)  { return s.createBinaryArith(OpBitwiseOr, a, b) }
func (s *System) CreateXor(a, b arena.NodeRef) (arena.NodeRef, error) { return s.createBinaryArith(OpBitwiseXor, a, b) }
func (s *System) CreateMod(a, b arena.NodeRef) (arena.NodeRef, error) { return s.createBinaryArith(OpMod, a, b) }

// CreateMul sums operand widths rather than widening to the max, per
// spec.md §4.1.
func (s *System) CreateMul(a, b arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	aTy, err := s.dtypeOf(a)
	if err != nil {
		return arena.Invalid, err
	}
	bTy, err := s.dtypeOf(b)
	if err != nil {
		return arena.Invalid, err
	}
	rTy, err := MulType(aTy, bTy)
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpMul, rTy, "", a, b)
}

// CreateShl/CreateShr keep the shifted operand's own type; the shift amount
// may be any integer width.
func (s *System) createShift(op Opcode, val, amt arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	valTy, err := s.dtypeOf(val)
	if err != nil {
		return arena.Invalid, err
	}
	amtTy, err := s.dtypeOf(amt)
	if err != nil {
		return arena.Invalid, err
	}
	if !amtTy.IsInt() {
		return arena.Invalid, newErr(ErrTypeMismatch, "%s: shift amount must be Int/UInt, got %s", op, amtTy)
	}
	return s.createExpr(block, op, valTy, "", val, amt)
}

func (s *System) CreateShl(val, amt arena.NodeRef) (arena.NodeRef, error) { return s.createShift(OpShl, val, amt) }
func (s *System) CreateShr(val, amt arena.NodeRef) (arena.NodeRef, error) { return s.createShift(OpShr, val, amt) }

// CreateNeg/CreateFlip preserve the operand's own type.
func (s *System) createUnary(op Opcode, val arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	valTy, err := s.dtypeOf(val)
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, op, valTy, "", val)
}

func (s *System) CreateNeg(val arena.NodeRef) (arena.NodeRef, error)  { return s.createUnary(OpNeg, val) }
func (s *System) CreateFlip(val arena.NodeRef) (arena.NodeRef, error) { return s.createUnary(OpFlip, val) }

// CreateSelect emits cond ? t : f; the result type is t's (t and f must
// already agree, per spec.md §4.1's Select rule).
func (s *System) CreateSelect(cond, t, f arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	condTy, err := s.dtypeOf(cond)
	if err != nil {
		return arena.Invalid, err
	}
	if !condTy.Equal(BoolTy()) {
		return arena.Invalid, newErr(ErrTypeMismatch, "Select: condition must be u1, got %s", condTy)
	}
	tTy, err := s.dtypeOf(t)
	if err != nil {
		return arena.Invalid, err
	}
	fTy, err := s.dtypeOf(f)
	if err != nil {
		return arena.Invalid, err
	}
	if !tTy.Equal(fTy) {
		return arena.Invalid, newErr(ErrTypeMismatch, "Select: branch types differ (%s vs %s)", tTy, fTy)
	}
	return s.createExpr(block, OpSelect, tTy, "", cond, t, f)
}

// CreateSelect1Hot emits a one-hot gather: pairs of (cond, value) operands,
// exactly one cond expected true at runtime (spec.md §4.3/§4.4). Neither
// emitter calls it; they lower shared pushes and stores without it.
func (s *System) CreateSelect1Hot(dtype DataType, pairs ...[2]arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	defs := make([]arena.NodeRef, 0, len(pairs)*2)
	for _, p := range pairs {
		defs = append(defs, p[0], p[1])
	}
	return s.createExpr(block, OpSelect1Hot, dtype, "", defs...)
}

func (s *System) createCompare(op Opcode, a, b arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	aTy, err := s.dtypeOf(a)
	if err != nil {
		return arena.Invalid, err
	}
	bTy, err := s.dtypeOf(b)
	if err != nil {
		return arena.Invalid, err
	}
	if _, err := WidenBinary(aTy, bTy); err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, op, BoolTy(), "", a, b)
}

func (s *System) CreateCmpGT(a, b arena.NodeRef) (arena.NodeRef, error)  { return s.createCompare(OpCmpIGT, a, b) }
func (s *System) CreateCmpGE(a, b arena.NodeRef) (arena.NodeRef, error)  { return s.createCompare(OpCmpIGE, a, b) }
func (s *System) CreateCmpLT(a, b arena.NodeRef) (arena.NodeRef, error)  { return s.createCompare(OpCmpILT, a, b) }
func (s *System) CreateCmpLE(a, b arena.NodeRef) (arena.NodeRef, error)  { return s.createCompare(OpCmpILE, a, b) }
func (s *System) CreateCmpEQ(a, b arena.NodeRef) (arena.NodeRef, error)  { return s.createCompare(OpCmpEQ, a, b) }
func (s *System) CreateCmpNEQ(a, b arena.NodeRef) (arena.NodeRef, error) { return s.createCompare(OpCmpNEQ, a, b) }

// CreateBind partially (or fully) applies a callee module to argument
// values, producing a bound-call value later consumed by CreateAsyncCall.
func (s *System) CreateBind(callee arena.NodeRef, args ...arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if callee.Kind() != arena.KindModule {
		return arena.Invalid, newErr(ErrTypeMismatch, "Bind: %s is not a Module", callee)
	}
	defs := append([]arena.NodeRef{callee}, args...)
	return s.createExpr(block, OpBind, s.ModuleDataType(callee), "", defs...)
}

// CreateAsyncCall fires a previously bound call.
func (s *System) CreateAsyncCall(bind arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if bind.Kind() != arena.KindExpr || s.ExprOpcode(bind) != OpBind {
		return arena.Invalid, newErr(ErrTypeMismatch, "AsyncCall: operand must be a Bind expression")
	}
	return s.createExpr(block, OpAsyncCall, VoidTy(), "", bind)
}

// CreatePush emits fifo.push(val).
func (s *System) CreatePush(fifo, val arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if fifo.Kind() != arena.KindFIFO {
		return arena.Invalid, newErr(ErrTypeMismatch, "FIFOPush: %s is not a FIFO", fifo)
	}
	valTy, err := s.dtypeOf(val)
	if err != nil {
		return arena.Invalid, err
	}
	if !valTy.Equal(s.FIFODataType(fifo)) {
		return arena.Invalid, newErr(ErrTypeMismatch, "FIFOPush: value type %s does not match FIFO type %s", valTy, s.FIFODataType(fifo))
	}
	return s.createExpr(block, OpFIFOPush, VoidTy(), "", fifo, val)
}

func (s *System) createFIFOIntrinsic(op Opcode, dtype DataType, fifo arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if fifo.Kind() != arena.KindFIFO {
		return arena.Invalid, newErr(ErrTypeMismatch, "%s: %s is not a FIFO", op, fifo)
	}
	return s.createExpr(block, op, dtype, "", fifo)
}

func (s *System) CreatePop(fifo arena.NodeRef) (arena.NodeRef, error) {
	return s.createFIFOIntrinsic(OpFIFOPop, s.FIFODataType(fifo), fifo)
}
func (s *System) CreatePeek(fifo arena.NodeRef) (arena.NodeRef, error) {
	return s.createFIFOIntrinsic(OpFIFOPeek, s.FIFODataType(fifo), fifo)
}
func (s *System) CreateFIFOValid(fifo arena.NodeRef) (arena.NodeRef, error) {
	return s.createFIFOIntrinsic(OpFIFOValid, BoolTy(), fifo)
}
func (s *System) CreateFIFOReady(fifo arena.NodeRef) (arena.NodeRef, error) {
	return s.createFIFOIntrinsic(OpFIFOReady, BoolTy(), fifo)
}

// CreateValueValid reports whether an upstream value (e.g. a call result)
// has been produced yet this cycle.
func (s *System) CreateValueValid(val arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpValueValid, BoolTy(), "", val)
}

// CreateModuleTriggered reports whether module ran this cycle.
func (s *System) CreateModuleTriggered(module arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if module.Kind() != arena.KindModule {
		return arena.Invalid, newErr(ErrTypeMismatch, "ModuleTriggered: %s is not a Module", module)
	}
	return s.createExpr(block, OpModuleTriggered, BoolTy(), "", module)
}

// CreateSlice emits val[hi:lo] (inclusive), width hi-lo+1.
func (s *System) CreateSlice(val arena.NodeRef, hi, lo int) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	if hi < lo || lo < 0 {
		return arena.Invalid, newErr(ErrInvariantBroken, "Slice: invalid range [%d:%d]", hi, lo)
	}
	valTy, err := s.dtypeOf(val)
	if err != nil {
		return arena.Invalid, err
	}
	if hi >= valTy.GetBits() {
		return arena.Invalid, newErr(ErrTypeMismatch, "Slice: [%d:%d] exceeds width %d", hi, lo, valTy.GetBits())
	}
	hiC := s.GetConstInt(UIntTy(32), uint64(hi))
	loC := s.GetConstInt(UIntTy(32), uint64(lo))
	return s.createExpr(block, OpSlice, BitsTy(hi-lo+1), "", val, hiC, loC)
}

func (s *System) createCast(op Opcode, val arena.NodeRef, to DataType) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, op, to, "", val)
}

func (s *System) CreateBitCast(val arena.NodeRef, to DataType) (arena.NodeRef, error) { return s.createCast(OpBitCast, val, to) }
func (s *System) CreateZExt(val arena.NodeRef, to DataType) (arena.NodeRef, error)     { return s.createCast(OpZExt, val, to) }
func (s *System) CreateSExt(val arena.NodeRef, to DataType) (arena.NodeRef, error)     { return s.createCast(OpSExt, val, to) }

// CreateConcat emits {hi, lo} (hi in the most-significant position).
func (s *System) CreateConcat(hi, lo arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	hiTy, err := s.dtypeOf(hi)
	if err != nil {
		return arena.Invalid, err
	}
	loTy, err := s.dtypeOf(lo)
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpConcat, BitsTy(hiTy.GetBits()+loTy.GetBits()), "", hi, lo)
}

// CreateCycled builds a block's leading Cycled(n) marker: the block runs
// once every n cycles.
func (s *System) CreateCycled(block arena.NodeRef, n int) (arena.NodeRef, error) {
	c := s.GetConstInt(UIntTy(32), uint64(n))
	return s.createExpr(block, OpBlockCycled, VoidTy(), "", c)
}

// CreateCondition builds a block's leading Condition(expr) marker.
func (s *System) CreateCondition(block, cond arena.NodeRef) (arena.NodeRef, error) {
	condTy, err := s.dtypeOf(cond)
	if err != nil {
		return arena.Invalid, err
	}
	if !condTy.Equal(BoolTy()) {
		return arena.Invalid, newErr(ErrTypeMismatch, "Condition: expects u1, got %s", condTy)
	}
	return s.createExpr(block, OpBlockCondition, VoidTy(), "", cond)
}

// CreateWaitUntil builds a block's leading WaitUntil(expr) marker: the
// block stalls every cycle expr is false, per spec.md §4.2.1's arbiter grant
// gating.
func (s *System) CreateWaitUntil(block, cond arena.NodeRef) (arena.NodeRef, error) {
	condTy, err := s.dtypeOf(cond)
	if err != nil {
		return arena.Invalid, err
	}
	if !condTy.Equal(BoolTy()) {
		return arena.Invalid, newErr(ErrTypeMismatch, "WaitUntil: expects u1, got %s", condTy)
	}
	return s.createExpr(block, OpBlockWaitUntil, VoidTy(), "", cond)
}

// CreateBlockValue builds a block's trailing Value(expr) marker, giving the
// block itself a value.
func (s *System) CreateBlockValue(block, val arena.NodeRef) (arena.NodeRef, error) {
	valTy, err := s.dtypeOf(val)
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpBlockValue, valTy, "", val)
}

// CreateAssert emits a simulation-only assertion.
func (s *System) CreateAssert(cond arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpBlockAssert, VoidTy(), "", cond)
}

// CreateFinish emits a simulation-termination statement.
func (s *System) CreateFinish(args ...arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpBlockFinish, VoidTy(), "", args...)
}

// CreateBarrier marks a pipeline cut point: everything crossing it is
// staged into a separate sub-module connected by a FIFO (spec.md §4.2.2).
func (s *System) CreateBarrier(args ...arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	return s.createExpr(block, OpBlockBarrier, VoidTy(), "", args...)
}

// CreateLog emits a formatted trace statement; fmt is lowered by the
// Verilog/simulator emitters per spec.md §4.3/§4.4 ("{}"→"%d",
// "{:0Nd}"→"%0Nd").
func (s *System) CreateLog(fmtStr string, args ...arena.NodeRef) (arena.NodeRef, error) {
	block, err := s.here()
	if err != nil {
		return arena.Invalid, err
	}
	fmtConst := s.GetConstStr(fmtStr)
	defs := append([]arena.NodeRef{fmtConst}, args...)
	return s.createExpr(block, OpLog, VoidTy(), "", defs...)
}

// ExposeNode records node as one of the System's top-level I/O declarations
// (spec.md §6's expose_node).
func (s *System) ExposeNode(node arena.NodeRef, dir Direction) {
	s.Expose(node, dir)
}
