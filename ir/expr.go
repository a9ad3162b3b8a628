package ir

import "github.com/sarchlab/eir/arena"

// exprData is the arena-resident storage for an Expression node: an
// opcode, its operand list (each entry an Operand handle, not a direct
// reference to the def — see operand.go), a result type, and the block it
// lives in.
type exprData struct {
	Opcode   Opcode
	Operands []arena.NodeRef // KindOperand
	DType    DataType
	Parent   arena.NodeRef // KindBlock
	Name     string        // optional; "" if anonymous

	Users map[arena.NodeRef]bool // Operand handles that consume this expr's value

	// Metadata carries opcode-specific annotations that aren't part of the
	// type system, set with SetMetadata. An explicit FIFO depth is not kept
	// here but on the FIFO itself (SetFIFODepth), and neither emitter reads
	// Metadata.
	Metadata map[string]any
}

func (s *System) expr(ref arena.NodeRef) *exprData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*exprData)
	if !ok {
		panic("ir: handle is not an Expr")
	}
	return d
}

// createExpr allocates an expression of opcode op with the given operand
// defs, type-checks arity, wires up Operand nodes (and their
// Users/ExternalInterface bookkeeping), inserts the expression at the
// current cursor position within block, and returns its handle.
func (s *System) createExpr(block arena.NodeRef, op Opcode, dtype DataType, name string, defs ...arena.NodeRef) (arena.NodeRef, error) {
	if arity := op.Arity(); arity >= 0 && arity != len(defs) {
		return arena.Invalid, newErr(ErrArity, "%s expects %d operands, got %d", op, arity, len(defs))
	}
	ref := s.arena.Insert(arena.KindExpr, &exprData{
		Opcode: op,
		DType:  dtype,
		Parent: block,
		Users:  make(map[arena.NodeRef]bool),
	})
	d := s.expr(ref)
	if name != "" {
		mod := s.moduleOf(block)
		if mod.IsValid() {
			d.Name = s.mod(mod).localNames.Insert(name)
		} else {
			d.Name = name
		}
	}
	ops := make([]arena.NodeRef, len(defs))
	for i, def := range defs {
		ops[i] = s.newOperand(def, ref)
	}
	d.Operands = ops
	s.insertChild(block, ref)
	return ref, nil
}

// ExprOpcode returns an expression's opcode.
func (s *System) ExprOpcode(ref arena.NodeRef) Opcode { return s.expr(ref).Opcode }

// ExprDataType returns an expression's result type.
func (s *System) ExprDataType(ref arena.NodeRef) DataType { return s.expr(ref).DType }

// OperandDataType returns the type of any value-bearing handle — Expr,
// FIFO, Array, IntImm, or StrImm — the one type lookup every back end
// needs when it has to decide how a value should be rendered (e.g. a Log
// placeholder choosing %d vs %s) rather than just how it is computed.
func (s *System) OperandDataType(def arena.NodeRef) (DataType, error) { return s.dtypeOf(def) }

// ExprParent returns the block an expression lives in.
func (s *System) ExprParent(ref arena.NodeRef) arena.NodeRef { return s.expr(ref).Parent }

// ExprName returns an expression's optional name ("" if anonymous).
func (s *System) ExprName(ref arena.NodeRef) string { return s.expr(ref).Name }

// ExprOperands returns an expression's Operand handles in order.
func (s *System) ExprOperands(ref arena.NodeRef) []arena.NodeRef {
	d := s.expr(ref)
	out := make([]arena.NodeRef, len(d.Operands))
	copy(out, d.Operands)
	return out
}

// ExprOperandDefs returns the values an expression's operands refer to, in
// order — a convenience for emitters that don't care about operand
// identity, only about what feeds the expression.
func (s *System) ExprOperandDefs(ref arena.NodeRef) []arena.NodeRef {
	ops := s.ExprOperands(ref)
	out := make([]arena.NodeRef, len(ops))
	for i, op := range ops {
		out[i] = s.OperandDef(op)
	}
	return out
}

// SetOperand replaces the def of the i-th operand, maintaining Users and
// ExternalInterface bookkeeping exactly like a fresh create would. Used by
// builder rewrites that need to patch a single operand in place rather than
// rebuild the whole expression (e.g. arbiter insertion rebinding a caller's
// push target).
func (s *System) SetOperand(expr arena.NodeRef, i int, newDef arena.NodeRef) error {
	d := s.expr(expr)
	if i < 0 || i >= len(d.Operands) {
		return newErr(ErrArity, "SetOperand: index %d out of range for %s", i, expr)
	}
	op := d.Operands[i]
	od := s.opd(op)
	oldDef := od.Def
	if set := defUserSet(s, oldDef); set != nil {
		delete(set, op)
	}
	userModule := s.moduleOf(expr)
	if userModule.IsValid() {
		s.externalInterfaceRemove(userModule, oldDef, op)
	}
	od.Def = newDef
	if set := defUserSet(s, newDef); set != nil {
		set[op] = true
	}
	s.maybeTrackExternal(newDef, expr, op)
	return nil
}

// AppendOperand adds a new trailing operand to a variadic-arity expression
// (Select1Hot, Bind, Log, Finish, Barrier).
func (s *System) AppendOperand(expr, def arena.NodeRef) {
	d := s.expr(expr)
	d.Operands = append(d.Operands, s.newOperand(def, expr))
}

// ExprUsers returns the Operand handles consuming this expression's value.
func (s *System) ExprUsers(ref arena.NodeRef) []arena.NodeRef {
	d := s.expr(ref)
	out := make([]arena.NodeRef, 0, len(d.Users))
	for op := range d.Users {
		out = append(out, op)
	}
	return out
}

// SetMetadata attaches an opcode-specific annotation to an expression.
func (s *System) SetMetadata(ref arena.NodeRef, key string, value any) {
	d := s.expr(ref)
	if d.Metadata == nil {
		d.Metadata = make(map[string]any)
	}
	d.Metadata[key] = value
}

// Metadata reads back an annotation set with SetMetadata.
func (s *System) Metadata(ref arena.NodeRef, key string) (any, bool) {
	d := s.expr(ref)
	if d.Metadata == nil {
		return nil, false
	}
	v, ok := d.Metadata[key]
	return v, ok
}

// MoveExpr relocates expr from its current block into dst, appending it at
// the end of dst's child list. Used by xform.CutBarrier to move the
// downstream half of a cut body into its new staged module.
func (s *System) MoveExpr(expr, dst arena.NodeRef) error {
	d := s.expr(expr)
	old := d.Parent
	bd := s.blk(old)
	for i, c := range bd.Children {
		if c == expr {
			bd.Children = append(bd.Children[:i], bd.Children[i+1:]...)
			break
		}
	}
	d.Parent = dst
	s.blk(dst).Children = append(s.blk(dst).Children, expr)
	return nil
}

// EraseExpr disposes an expression's operands and the expression itself.
// Fails with ErrUseAfterErase if anything still consumes its value —
// callers must ReplaceAllUsesWith or erase consumers first.
func (s *System) EraseExpr(ref arena.NodeRef) error {
	d := s.expr(ref)
	if len(d.Users) > 0 {
		return newErr(ErrUseAfterErase, "EraseExpr: %s still has %d use(s)", ref, len(d.Users))
	}
	for _, op := range d.Operands {
		s.eraseOperand(op)
	}
	block := d.Parent
	bd := s.blk(block)
	for i, c := range bd.Children {
		if c == ref {
			bd.Children = append(bd.Children[:i], bd.Children[i+1:]...)
			break
		}
	}
	s.arena.Dispose(ref)
	return nil
}
