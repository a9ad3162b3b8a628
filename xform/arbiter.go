// Package xform implements the IR-to-IR rewrites C6 names: arbiter
// insertion for multi-caller modules and barrier-cut pipelining. Both are
// ported from original_source/src/xform/arbiter.rs and
// original_source/src/xform/barrier_analysis.rs, adapted to the Go IR's
// get/set accessor style instead of Rust's Ref/Mut node wrappers.
package xform

import (
	"fmt"

	"github.com/sarchlab/eir/analysis"
	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/ir"
)

// InsertArbiters finds every module with more than one caller and, unless
// it carries ir.AttrNoArbiter, rewrites it so its callers push into
// per-caller shadow FIFOs and a small round-robin mux relays exactly one
// caller's request per cycle into the module's original ports — spec.md
// §4.2.1. Every module it arbitrates, and every module that has exactly
// one caller, is marked ir.AttrOptNone so re-running this pass is a no-op
// for it (ported from the distilled Rust sources' last_grant / OptNone
// idempotency guard).
func InsertArbiters(sys *ir.System) error {
	for _, m := range sys.Modules() {
		if len(analysis.Callers(sys, m)) == 1 {
			sys.SetAttr(m, ir.AttrOptNone)
		}
	}
	for _, callee := range analysis.MultiCallerModules(sys) {
		if sys.HasAttr(callee, ir.AttrNoArbiter) || sys.HasAttr(callee, ir.AttrOptNone) {
			continue
		}
		if err := insertArbiter(sys, callee); err != nil {
			return err
		}
	}
	return nil
}

func insertArbiter(sys *ir.System, callee arena.NodeRef) error {
	callers := analysis.Callers(sys, callee)
	n := len(callers)
	if n < 2 {
		sys.SetAttr(callee, ir.AttrOptNone)
		return nil
	}
	ports := sys.ModulePorts(callee)
	calleeName := sys.ModuleName(callee)

	shadow := make([][]arena.NodeRef, n)
	for i, caller := range callers {
		shadow[i] = make([]arena.NodeRef, len(ports))
		for j, p := range ports {
			name := fmt.Sprintf("%s_caller%d_arg%d", calleeName, i, j)
			sf, err := sys.CreateFIFO(callee, name, sys.FIFODataType(p))
			if err != nil {
				return err
			}
			shadow[i][j] = sf
		}
		if err := redirectPushes(sys, caller, ports, shadow[i]); err != nil {
			return err
		}
	}

	grantWidth := n
	grantArr, err := sys.CreateArray(calleeName+"_last_grant", ir.UIntTy(grantWidth), 1)
	if err != nil {
		return err
	}
	if err := sys.SetArrayInit(grantArr, []arena.NodeRef{sys.GetConstInt(ir.UIntTy(grantWidth), 1)}); err != nil {
		return err
	}

	if err := insertRoundRobinMux(sys, callee, shadow, ports, grantArr, n); err != nil {
		return err
	}
	sys.SetAttr(callee, ir.AttrOptNone)
	return nil
}

// redirectPushes rewrites every FIFOPush in caller's body that targets one
// of origPorts so it targets the matching shadow FIFO instead.
func redirectPushes(sys *ir.System, caller arena.NodeRef, origPorts, shadowPorts []arena.NodeRef) error {
	portIdx := make(map[arena.NodeRef]int, len(origPorts))
	for i, p := range origPorts {
		portIdx[p] = i
	}
	var rewriteErr error
	ir.WalkModule(sys, caller, ir.VisitorFunc(func(sys *ir.System, ref arena.NodeRef) {
		if rewriteErr != nil || sys.ExprOpcode(ref) != ir.OpFIFOPush {
			return
		}
		defs := sys.ExprOperandDefs(ref)
		idx, ok := portIdx[defs[0]]
		if !ok {
			return
		}
		if err := sys.SetOperand(ref, 0, shadowPorts[idx]); err != nil {
			rewriteErr = err
		}
	}))
	return rewriteErr
}

// insertRoundRobinMux prepends, at the very front of callee's body, logic
// that: computes each caller's request-valid bit (FIFOValid on arg0 of its
// shadow set), derives the next round-robin grant from lastGrant using the
// loMask/hiMask-and-grant trick (ported bit-for-bit from
// original_source/src/xform/arbiter.rs's lo_mask/hi_mask/grant sequence),
// stores it back into grantArr, and — for the granted caller only — pops
// every shadow FIFO and pushes the popped values into the corresponding
// original port.
func insertRoundRobinMux(sys *ir.System, callee arena.NodeRef, shadow [][]arena.NodeRef, ports []arena.NodeRef, grantArr arena.NodeRef, n int) error {
	body := sys.ModuleBody(callee)
	if err := sys.SetCurrentModule(callee); err != nil {
		return err
	}
	sys.SetInsertBefore(0)

	reqs := make([]arena.NodeRef, n)
	for i := range shadow {
		v, err := sys.CreateFIFOValid(shadow[i][0])
		if err != nil {
			return err
		}
		reqs[i] = v
	}

	zeroIdx := sys.GetConstInt(ir.IdxType(1), 0)
	lastGrant, err := sys.CreateLoad(grantArr, zeroIdx)
	if err != nil {
		return err
	}

	// reqMask = concat of request bits, widened to n bits (bit i == reqs[i]).
	reqMask, err := sys.CreateZExt(reqs[0], ir.UIntTy(n))
	if err != nil {
		return err
	}
	for i := 1; i < n; i++ {
		bit, err := sys.CreateZExt(reqs[i], ir.UIntTy(n))
		if err != nil {
			return err
		}
		shiftAmt := sys.GetConstInt(ir.UIntTy(32), uint64(i))
		shifted, err := sys.CreateShl(bit, shiftAmt)
		if err != nil {
			return err
		}
		reqMask, err = sys.CreateOr(reqMask, shifted)
		if err != nil {
			return err
		}
	}

	// loMask = ((lastGrant - 1) << 1) + 1 sets every bit at or below the
	// last-granted position; hiMask is its complement, the positions
	// strictly above it. A requester just past the last grant always
	// outranks one at or before it, which is what makes the grant rotate
	// instead of sticking on the same caller every cycle.
	one := sys.GetConstInt(ir.UIntTy(n), 1)
	loMaskSub, err := sys.CreateSub(lastGrant, one)
	if err != nil {
		return err
	}
	loMaskShl, err := sys.CreateShl(loMaskSub, one)
	if err != nil {
		return err
	}
	loMask, err := sys.CreateAdd(loMaskShl, one)
	if err != nil {
		return err
	}
	hiMask, err := sys.CreateFlip(loMask)
	if err != nil {
		return err
	}

	loValid, err := sys.CreateAnd(loMask, reqMask)
	if err != nil {
		return err
	}
	hiValid, err := sys.CreateAnd(hiMask, reqMask)
	if err != nil {
		return err
	}
	loGrant, err := isolateLowestBit(sys, loValid, n)
	if err != nil {
		return err
	}
	hiGrant, err := isolateLowestBit(sys, hiValid, n)
	if err != nil {
		return err
	}

	zeroN := sys.GetConstInt(ir.UIntTy(n), 0)
	hiNotZero, err := sys.CreateCmpNEQ(hiValid, zeroN)
	if err != nil {
		return err
	}
	grant, err := sys.CreateSelect(hiNotZero, hiGrant, loGrant)
	if err != nil {
		return err
	}
	if _, err := sys.CreateStore(grantArr, zeroIdx, grant); err != nil {
		return err
	}

	// Everything from here on is inserted immediately after the grant
	// computation above and before whatever callee body already existed;
	// "at" is tracked by hand since each sub-block's construction switches
	// the cursor away from body and back.
	at := *sys.Cursor().At
	for i := 0; i < n; i++ {
		bitI := sys.GetConstInt(ir.UIntTy(n), 1<<uint(i))
		sys.SetInsertBefore(at)
		granted, err := sys.CreateCmpEQ(grant, bitI)
		if err != nil {
			return err
		}
		at++
		sub := sys.CreateBlock(body)
		at++
		if _, err := sys.CreateCondition(sub, granted); err != nil {
			return err
		}
		if err := sys.SetCurrentBlock(sub); err != nil {
			return err
		}
		for j, p := range ports {
			popped, err := sys.CreatePop(shadow[i][j])
			if err != nil {
				return err
			}
			if _, err := sys.CreatePush(p, popped); err != nil {
				return err
			}
		}
		if err := sys.SetCurrentModule(callee); err != nil {
			return err
		}
	}
	return nil
}

// isolateLowestBit returns mask & -mask widened/truncated to n bits: the
// lowest set bit of mask, i.e. the classic round-robin "first ready
// requester at or after the pointer" isolation trick.
func isolateLowestBit(sys *ir.System, mask arena.NodeRef, n int) (arena.NodeRef, error) {
	negMask, err := sys.CreateNeg(mask)
	if err != nil {
		return arena.Invalid, err
	}
	return sys.CreateAnd(mask, negMask)
}
