package ir

import "github.com/sarchlab/eir/arena"

// operandData is the arena-resident storage for an Operand node: a
// materialized def-use edge. Every value an expression consumes is its own
// Operand, even if two operands share the same def — so `c = a + a` creates
// two distinct Operand nodes pointing at the same `a`, exactly as the
// distilled Rust sources' ir/user.rs models it. This is what lets
// replace-uses-of-a-value rewrite one operand at a time without aliasing.
type operandData struct {
	Def  arena.NodeRef // the value referred to: Expr, FIFO, Array, IntImm, StrImm, or Module (Bind target)
	User arena.NodeRef // the Expr that consumes it
}

func (s *System) opd(ref arena.NodeRef) *operandData {
	v := s.arena.MustGet(ref)
	d, ok := v.(*operandData)
	if !ok {
		panic("ir: handle is not an Operand")
	}
	return d
}

// OperandDef returns what an operand refers to.
func (s *System) OperandDef(ref arena.NodeRef) arena.NodeRef { return s.opd(ref).Def }

// OperandUser returns the expression that consumes an operand.
func (s *System) OperandUser(ref arena.NodeRef) arena.NodeRef { return s.opd(ref).User }

// defUserSet returns def's Users set when its kind tracks one directly (Expr,
// FIFO, Array, IntImm, StrImm all do), and nil otherwise (Module does not,
// since a Bind operand references a module by declaration, not by dataflow).
func defUserSet(s *System, def arena.NodeRef) map[arena.NodeRef]bool {
	switch def.Kind() {
	case arena.KindExpr:
		return s.expr(def).Users
	case arena.KindFIFO:
		return s.fifoD(def).Users
	case arena.KindArray:
		return s.arrD(def).Users
	case arena.KindIntImm:
		return s.intImmD(def).Users
	case arena.KindStrImm:
		return s.strImmD(def).Users
	default:
		return nil
	}
}

// moduleOf returns the module a node belongs to, used to decide whether a
// def is "external" to the module that is about to consume it.
func (s *System) moduleOf(ref arena.NodeRef) arena.NodeRef {
	switch ref.Kind() {
	case arena.KindExpr:
		return s.moduleOf(s.expr(ref).Parent)
	case arena.KindBlock:
		p := s.blk(ref).Parent
		if p.Kind() == arena.KindModule {
			return p
		}
		return s.moduleOf(p)
	case arena.KindFIFO:
		return s.fifoD(ref).Owner
	default:
		return arena.Invalid
	}
}

// newOperand allocates an Operand(def, user), wires it into def's Users set
// (if def tracks one), and — if def does not belong to user's own module —
// records the cross-module reference in that module's ExternalInterface
// index. Mirrors SysBuilder's operand construction in the distilled Rust
// sources (ir/user.rs's add_user / add_related_externals).
func (s *System) newOperand(def, user arena.NodeRef) arena.NodeRef {
	ref := s.arena.Insert(arena.KindOperand, &operandData{Def: def, User: user})
	if set := defUserSet(s, def); set != nil {
		set[ref] = true
	}
	s.maybeTrackExternal(def, user, ref)
	return ref
}

// maybeTrackExternal registers operand in the consuming module's
// ExternalInterface index when def (a FIFO, Array or Expr) is owned by a
// different module or by no module at all, as an array is. Constants are
// never "external" since every module may fold its own copy.
func (s *System) maybeTrackExternal(def, user, operand arena.NodeRef) {
	switch def.Kind() {
	case arena.KindFIFO, arena.KindArray, arena.KindExpr:
	default:
		return // constants and modules are not dataflow externals
	}
	userModule := s.moduleOf(user)
	defModule := s.moduleOf(def)
	if !userModule.IsValid() || defModule == userModule {
		return
	}
	s.externalInterfaceInsert(userModule, def, operand)
}

// eraseOperand disposes operand, removing it from def's Users set and from
// any ExternalInterface entry it was tracked under. Called when an
// expression is erased or one of its operands is replaced.
func (s *System) eraseOperand(operand arena.NodeRef) {
	d := s.opd(operand)
	if set := defUserSet(s, d.Def); set != nil {
		delete(set, operand)
	}
	userModule := s.moduleOf(d.User)
	if userModule.IsValid() {
		s.externalInterfaceRemove(userModule, d.Def, operand)
	}
	s.arena.Dispose(operand)
}

// ReplaceAllUsesWith rewrites every operand currently referring to oldDef so
// it refers to newDef instead, ported from the distilled Rust sources'
// replace_all_uses_with (src/ir/user.rs). Used by xform passes (e.g. barrier
// cutting rewires a downstream consumer from the original producer to the
// new stage's FIFO pop).
func (s *System) ReplaceAllUsesWith(oldDef, newDef arena.NodeRef) {
	set := defUserSet(s, oldDef)
	if set == nil {
		return
	}
	users := make([]arena.NodeRef, 0, len(set))
	for op := range set {
		users = append(users, op)
	}
	for _, op := range users {
		od := s.opd(op)
		user := od.User
		delete(set, op)
		userModule := s.moduleOf(user)
		if userModule.IsValid() {
			s.externalInterfaceRemove(userModule, oldDef, op)
		}
		od.Def = newDef
		if newSet := defUserSet(s, newDef); newSet != nil {
			newSet[op] = true
		}
		s.maybeTrackExternal(newDef, user, op)
	}
}
