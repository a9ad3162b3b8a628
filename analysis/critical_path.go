package analysis

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/ir"
)

// PathHop is one step of a CriticalPath report: the module reached, and the
// number of calls from the start it took to reach it.
type PathHop struct {
	Module arena.NodeRef
	Depth  int
}

// CriticalPath finds the shortest call-graph path from -> to by hop count
// (an unweighted existence/hop-count analysis, not a timing-weighted
// critical-path heuristic — spec.md leaves cycle-weighted analysis out of
// scope, so this answers only "is to reachable from from, and how many
// calls away"). Returns nil if to is unreachable.
func CriticalPath(sys *ir.System, from, to arena.NodeRef) []PathHop {
	type queued struct {
		module arena.NodeRef
		depth  int
	}
	visited := map[arena.NodeRef]arena.NodeRef{from: arena.Invalid}
	depths := map[arena.NodeRef]int{from: 0}
	queue := []queued{{from, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.module == to {
			break
		}
		for _, callee := range Callees(sys, cur.module) {
			if _, ok := visited[callee]; ok {
				continue
			}
			visited[callee] = cur.module
			depths[callee] = cur.depth + 1
			queue = append(queue, queued{callee, cur.depth + 1})
		}
	}

	if _, ok := visited[to]; !ok {
		return nil
	}

	var path []arena.NodeRef
	for m := to; m.IsValid(); m = visited[m] {
		path = append([]arena.NodeRef{m}, path...)
		if m == from {
			break
		}
	}

	out := make([]PathHop, len(path))
	for i, m := range path {
		out[i] = PathHop{Module: m, Depth: depths[m]}
	}
	return out
}

// PrintCriticalPath renders a CriticalPath result as a table on standard
// output, used by cmd/eirc's -critical-path diagnostic flag.
func PrintCriticalPath(sys *ir.System, path []PathHop) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Hop", "Module"})
	for _, hop := range path {
		t.AppendRow(table.Row{hop.Depth, sys.ModuleName(hop.Module)})
	}
	if len(path) == 0 {
		t.AppendRow(table.Row{"(unreachable)", ""})
	}
	t.Render()
}
