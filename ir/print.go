package ir

import (
	"fmt"
	"strings"

	"github.com/sarchlab/eir/arena"
)

// Print renders sys as an indented text listing, used by cmd/eirc's
// -dump-ir flag and by test failure messages (go-cmp golden diffs read a
// lot better against this than against a Go %#v struct dump).
func Print(sys *System) string {
	var b strings.Builder
	fmt.Fprintf(&b, "system %s (arena tag %s)\n", sys.Name, sys.Arena().Tag)
	for _, a := range sys.Arrays() {
		printArray(sys, &b, a)
	}
	for _, m := range sys.Modules() {
		printModule(sys, &b, m)
	}
	if exposed := sys.Exposed(); len(exposed) > 0 {
		b.WriteString("exposed:\n")
		for _, e := range exposed {
			fmt.Fprintf(&b, "  %s %s\n", dirString(e.Dir), refLabel(sys, e.Node))
		}
	}
	return b.String()
}

func dirString(d Direction) string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	default:
		return "inout"
	}
}

func printArray(sys *System, b *strings.Builder, ref arena.NodeRef) {
	fmt.Fprintf(b, "array %s: %s[%d]", sys.ArrayName(ref), sys.ArrayDataType(ref), sys.ArraySize(ref))
	if p, ok := sys.ArrayMemoryParams(ref); ok {
		fmt.Fprintf(b, " memory(addr=%d data=%d init=%q)", p.AddrBits, p.DataBits, p.InitFile)
	}
	b.WriteString("\n")
}

func printModule(sys *System, b *strings.Builder, ref arena.NodeRef) {
	fmt.Fprintf(b, "module %s", sys.ModuleName(ref))
	ports := sys.ModulePorts(ref)
	if len(ports) > 0 {
		names := make([]string, len(ports))
		for i, p := range ports {
			names[i] = fmt.Sprintf("%s: %s", sys.FIFOName(p), sys.FIFODataType(p))
		}
		fmt.Fprintf(b, "(%s)", strings.Join(names, ", "))
	}
	for attr := range sys.mod(ref).Attrs {
		fmt.Fprintf(b, " %s", attr)
	}
	b.WriteString(" {\n")
	printBlock(sys, b, sys.ModuleBody(ref), 1)
	b.WriteString("}\n")
}

func printBlock(sys *System, b *strings.Builder, ref arena.NodeRef, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, child := range sys.BlockChildren(ref) {
		if child.Kind() == arena.KindBlock {
			fmt.Fprintf(b, "%sblock {\n", indent)
			printBlock(sys, b, child, depth+1)
			fmt.Fprintf(b, "%s}\n", indent)
			continue
		}
		printExpr(sys, b, child, indent)
	}
}

func printExpr(sys *System, b *strings.Builder, ref arena.NodeRef, indent string) {
	name := sys.ExprName(ref)
	if name == "" {
		name = ref.String()
	}
	defs := sys.ExprOperandDefs(ref)
	labels := make([]string, len(defs))
	for i, d := range defs {
		labels[i] = refLabel(sys, d)
	}
	fmt.Fprintf(b, "%s%s: %s = %s(%s)\n", indent, name, sys.ExprDataType(ref), sys.ExprOpcode(ref), strings.Join(labels, ", "))
}

func refLabel(sys *System, ref arena.NodeRef) string {
	switch ref.Kind() {
	case arena.KindModule:
		return sys.ModuleName(ref)
	case arena.KindFIFO:
		return sys.FIFOName(ref)
	case arena.KindArray:
		return sys.ArrayName(ref)
	case arena.KindIntImm:
		return fmt.Sprintf("%d", sys.IntImmValue(ref))
	case arena.KindStrImm:
		return fmt.Sprintf("%q", sys.StrImmValue(ref))
	case arena.KindExpr:
		if n := sys.ExprName(ref); n != "" {
			return n
		}
		return ref.String()
	default:
		return ref.String()
	}
}
