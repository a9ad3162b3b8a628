// Package simtext emits a Rust-shaped cycle-accurate simulator project as
// plain text — src/main.rs, src/runtime.rs, src/modules.rs, src/simulator.rs
// plus a Cargo.toml manifest — the same four-file layout
// original_source/src/backend/simulator/elaborate.rs's elaborate_impl
// writes to disk. Nothing here ever invokes a Rust toolchain: Emit only
// returns text, the way the rest of this compiler's back ends do.
package simtext

import (
	"fmt"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/internal/namify"
	"github.com/sarchlab/eir/ir"
)

// rustType renders an ir.DataType as the Rust integer type elaborate.rs's
// dtype_to_rust_type picks: the narrowest uN/iN that holds the value's bit
// width, rounded up to a Rust primitive size.
func rustType(dt ir.DataType) string {
	bits := dt.GetBits()
	width := 8
	for width < bits && width < 64 {
		width *= 2
	}
	if bits > 64 {
		if dt.IsSigned() {
			return "BigInt"
		}
		return "BigUint"
	}
	if dt.IsSigned() {
		return fmt.Sprintf("i%d", width)
	}
	return fmt.Sprintf("u%d", width)
}

func moduleIdent(sys *ir.System, m arena.NodeRef) string {
	return namify.Flatten(sys.ModuleName(m))
}

func fifoIdent(sys *ir.System, fifo arena.NodeRef) string {
	return namify.Flatten(sys.ModuleName(sys.FIFOOwner(fifo))) + "_" + namify.Flatten(sys.FIFOName(fifo))
}

func arrayIdent(sys *ir.System, arr arena.NodeRef) string {
	return namify.Flatten(sys.ArrayName(arr))
}

func exprIdent(sys *ir.System, e arena.NodeRef) string {
	if name := sys.ExprName(e); name != "" {
		return namify.Flatten(name)
	}
	return "v_" + sanitize(e.String())
}

// sanitize turns an arena.NodeRef's debug string ("Expr#3") into a legal
// Rust identifier fragment.
func sanitize(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
