package ir

// Opcode enumerates every expression shape in the IR, per spec.md §4.1.
type Opcode uint8

const (
	OpLoad Opcode = iota
	OpStore
	OpAdd
	OpSub
	OpMul
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpMod
	OpShl
	OpShr
	OpNeg
	OpFlip
	OpSelect
	OpSelect1Hot
	OpCmpIGT
	OpCmpIGE
	OpCmpILT
	OpCmpILE
	OpCmpEQ
	OpCmpNEQ
	OpBind
	OpFIFOPush
	OpFIFOPop
	OpAsyncCall
	OpFIFOPeek
	OpFIFOValid
	OpValueValid
	OpFIFOReady
	OpModuleTriggered
	OpSlice
	OpBitCast
	OpZExt
	OpSExt
	OpConcat
	OpBlockValue
	OpBlockCycled
	OpBlockCondition
	OpBlockWaitUntil
	OpBlockFinish
	OpBlockAssert
	OpBlockBarrier
	OpLog
)

var opcodeNames = map[Opcode]string{
	OpLoad: "Load", OpStore: "Store", OpAdd: "Add", OpSub: "Sub", OpMul: "Mul",
	OpBitwiseAnd: "BitwiseAnd", OpBitwiseOr: "BitwiseOr", OpBitwiseXor: "BitwiseXor",
	OpMod: "Mod", OpShl: "Shl", OpShr: "Shr", OpNeg: "Neg", OpFlip: "Flip",
	OpSelect: "Select", OpSelect1Hot: "Select1Hot",
	OpCmpIGT: "IGT", OpCmpIGE: "IGE", OpCmpILT: "ILT", OpCmpILE: "ILE", OpCmpEQ: "EQ", OpCmpNEQ: "NEQ",
	OpBind: "Bind", OpFIFOPush: "FIFOPush", OpFIFOPop: "FIFOPop", OpAsyncCall: "AsyncCall",
	OpFIFOPeek: "FIFOPeek", OpFIFOValid: "FIFOValid", OpValueValid: "ValueValid",
	OpFIFOReady: "FIFOReady", OpModuleTriggered: "ModuleTriggered",
	OpSlice: "Slice", OpBitCast: "BitCast", OpZExt: "ZExt", OpSExt: "SExt", OpConcat: "Concat",
	OpBlockValue: "Value", OpBlockCycled: "Cycled", OpBlockCondition: "Condition",
	OpBlockWaitUntil: "WaitUntil", OpBlockFinish: "Finish", OpBlockAssert: "Assert",
	OpBlockBarrier: "Barrier", OpLog: "Log",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "Unknown"
}

// Valued reports whether the opcode produces a value usable as an operand.
func (op Opcode) Valued() bool {
	switch op {
	case OpStore, OpFIFOPush, OpAsyncCall,
		OpBlockValue, OpBlockCycled, OpBlockCondition, OpBlockWaitUntil,
		OpBlockFinish, OpBlockAssert, OpBlockBarrier, OpLog:
		return false
	default:
		return true
	}
}

// SideEffect reports whether the opcode mutates shared state (and so must
// never be dead-code eliminated, and is ordered relative to other
// side-effecting ops within its block).
func (op Opcode) SideEffect() bool {
	switch op {
	case OpStore, OpFIFOPush, OpFIFOPop, OpAsyncCall,
		OpBlockValue, OpBlockCycled, OpBlockCondition, OpBlockWaitUntil,
		OpBlockFinish, OpBlockAssert, OpBlockBarrier, OpLog:
		return true
	default:
		return false
	}
}

// Arity returns the fixed operand count for op, or -1 for variadic opcodes
// (Select1Hot, Bind, Log) whose true arity depends on the call site.
func (op Opcode) Arity() int {
	switch op {
	case OpNeg, OpFlip, OpFIFOPop, OpFIFOPeek, OpFIFOValid, OpValueValid,
		OpFIFOReady, OpModuleTriggered, OpBitCast, OpZExt, OpSExt, OpAsyncCall:
		return 1
	case OpLoad, OpAdd, OpSub, OpMul, OpBitwiseAnd, OpBitwiseOr, OpBitwiseXor,
		OpMod, OpShl, OpShr, OpCmpIGT, OpCmpIGE, OpCmpILT, OpCmpILE, OpCmpEQ, OpCmpNEQ,
		OpFIFOPush, OpConcat:
		return 2
	case OpSelect, OpSlice, OpStore:
		return 3
	case OpSelect1Hot, OpBind, OpLog:
		return -1
	case OpBlockValue, OpBlockCycled, OpBlockCondition, OpBlockWaitUntil, OpBlockAssert:
		return 1
	case OpBlockFinish, OpBlockBarrier:
		return -1
	default:
		return -1
	}
}

// IsCompare reports whether op is one of the Compare{...} opcodes.
func (op Opcode) IsCompare() bool {
	switch op {
	case OpCmpIGT, OpCmpIGE, OpCmpILT, OpCmpILE, OpCmpEQ, OpCmpNEQ:
		return true
	default:
		return false
	}
}

// IsBinaryArith reports whether op is one of the width-preserving binary
// arithmetic/bitwise opcodes (everything covered by WidenBinary).
func (op Opcode) IsBinaryArith() bool {
	switch op {
	case OpAdd, OpSub, OpBitwiseAnd, OpBitwiseOr, OpBitwiseXor, OpMod:
		return true
	default:
		return false
	}
}
