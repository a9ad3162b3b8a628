// Command eirc drives the compiler's back ends over one of the example
// systems in package examples: it can dump the built IR, report a
// critical-path hop count between two named modules, emit Verilog (one
// module per IR module plus a top-level wrapper), emit a simtext
// (reference-simulator source) project, or run the system through simrt
// and print its final state. Grounded on samples/passthrough/main.go's
// shape (build a driver, feed it a fixed kernel, run it, print results),
// with atexit.Exit setting the process exit status. Each run is
// stamped with a fresh xid so two dumps of the same example never collide
// when diffed side by side.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/eir/analysis"
	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/codegen/simtext"
	"github.com/sarchlab/eir/codegen/verilog"
	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/examples"
	"github.com/sarchlab/eir/ir"
	"github.com/sarchlab/eir/simrt"
)

func main() {
	exampleName := flag.String("example", "arbiter", "example system to load: arbiter, commit, waituntil, systolic")
	gridSize := flag.Int("n", 2, "grid size, only used by -example=systolic")
	configPath := flag.String("config", "", "YAML config file (defaults to config.Default())")
	dumpIR := flag.Bool("dump-ir", false, "print the built system's IR text")
	criticalPath := flag.String("critical-path", "", "print the call-graph hop count between \"from,to\" module names")
	emitVerilog := flag.Bool("verilog", false, "print the emitted Verilog")
	emitSimtextDir := flag.String("simtext", "", "write the emitted simtext project's files under this directory")
	run := flag.Bool("run", false, "run the system through simrt and print its final state")
	runCycles := flag.Int("run-cycles", 0, "if > 0, step exactly this many cycles instead of running to completion")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadYAML(*configPath)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}

	tag := xid.New().String()
	sys, err := loadExample(*exampleName, *gridSize, tag)
	if err != nil {
		fail(err)
	}

	if *dumpIR {
		fmt.Printf("// eir build %s\n", tag)
		fmt.Print(ir.Print(sys))
	}

	if *criticalPath != "" {
		from, to, err := parseCriticalPathArg(sys, *criticalPath)
		if err != nil {
			fail(err)
		}
		analysis.PrintCriticalPath(sys, analysis.CriticalPath(sys, from, to))
	}

	if *emitVerilog {
		fmt.Print(verilog.Emit(sys, cfg))
	}

	if *emitSimtextDir != "" {
		if err := writeSimtext(sys, cfg, *emitSimtextDir); err != nil {
			fail(err)
		}
	}

	if *run {
		if err := runSim(sys, cfg, *runCycles); err != nil {
			fail(err)
		}
	}

	atexit.Exit(0)
}

func loadExample(name string, n int, tag string) (*ir.System, error) {
	switch name {
	case "arbiter":
		built, err := examples.BuildArbiterFairness(tag)
		if err != nil {
			return nil, err
		}
		return built.Sys, nil
	case "commit":
		built, err := examples.BuildCommitSemantics(tag)
		if err != nil {
			return nil, err
		}
		return built.Sys, nil
	case "waituntil":
		built, err := examples.BuildWaitUntilRetry(tag)
		if err != nil {
			return nil, err
		}
		return built.Sys, nil
	case "systolic":
		built, err := examples.BuildSystolicArray(n, tag)
		if err != nil {
			return nil, err
		}
		return built.Sys, nil
	default:
		return nil, fmt.Errorf("eirc: unknown -example %q (want arbiter, commit, waituntil, systolic)", name)
	}
}

func parseCriticalPathArg(sys *ir.System, arg string) (from, to arena.NodeRef, err error) {
	parts := strings.SplitN(arg, ",", 2)
	if len(parts) != 2 {
		return arena.Invalid, arena.Invalid, fmt.Errorf("eirc: -critical-path wants \"from,to\", got %q", arg)
	}
	from, ok := sys.GetModuleByName(strings.TrimSpace(parts[0]))
	if !ok {
		return arena.Invalid, arena.Invalid, fmt.Errorf("eirc: no module named %q", parts[0])
	}
	to, ok = sys.GetModuleByName(strings.TrimSpace(parts[1]))
	if !ok {
		return arena.Invalid, arena.Invalid, fmt.Errorf("eirc: no module named %q", parts[1])
	}
	return from, to, nil
}

func writeSimtext(sys *ir.System, cfg config.Config, dir string) error {
	project := simtext.Emit(sys, cfg)
	for name, contents := range project.Files() {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("eirc: %w", err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return fmt.Errorf("eirc: write %s: %w", path, err)
		}
	}
	return nil
}

func runSim(sys *ir.System, cfg config.Config, cycles int) error {
	order, err := analysis.TopoSort(sys)
	if err != nil {
		return fmt.Errorf("eirc: %w", err)
	}
	eng := simrt.NewEngine(sys, cfg, order)

	var reason simrt.StopReason
	if cycles > 0 {
		for i := 0; i < cycles; i++ {
			var done bool
			if reason, done = eng.Step(); done {
				break
			}
		}
	} else {
		reason = eng.Run()
	}
	fmt.Println("stopped:", reason)

	for _, arr := range sys.Arrays() {
		if !cfg.OverrideDump && !sys.HasArrayAttr(arr, ir.ArrayAttrMemory) {
			continue
		}
		fmt.Printf("%s = %v\n", sys.ArrayName(arr), eng.ArraySnapshot(arr))
	}
	return nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "eirc:", err)
	atexit.Exit(1)
}
