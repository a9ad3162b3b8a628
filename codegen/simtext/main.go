package simtext

import (
	"fmt"

	"github.com/sarchlab/eir/config"
	"github.com/sarchlab/eir/ir"
)

// Manifest renders Cargo.toml as two tables, [package] and [dependencies],
// in the shape elaborate_impl's inline writeln! sequence produces (package name derived from the system's
// own name, not a fixed literal, plus the num-bigint/num-traits/rand
// dependency trio the generated code's ValueCastTo/shuffle calls need).
func Manifest(sys *ir.System) string {
	return fmt.Sprintf(`[package]
name = "%s_simulator"
version = "0.1.0"
edition = "2021"

[dependencies]
num-bigint = "0.4"
num-traits = "0.2"
rand = "0.8"
`, sys.Name)
}

// Main renders src/main.rs: a three-module declaration plus the entrypoint
// that hands off to simulator::simulate(), unchanged from dump_main's shape.
func Main() string {
	return `mod runtime;
mod modules;
mod simulator;

fn main() {
    simulator::simulate();
}
`
}

// Project is the in-memory rendering of the simulator crate elaborate_impl
// writes to disk: every file path is relative to the project root eir would
// otherwise create on disk, but Emit never touches the filesystem — it only
// returns text, the way every other back end in this compiler does.
type Project struct {
	ManifestRS  string // Cargo.toml
	MainRS      string // src/main.rs
	RuntimeRS   string // src/runtime.rs
	ModulesRS   string // src/modules.rs
	SimulatorRS string // src/simulator.rs
}

// Files returns Project as a path-to-text map, the layout
// elaborate_impl's create_dir_all("src")-then-four-File::create calls
// build on disk.
func (p Project) Files() map[string]string {
	return map[string]string{
		"Cargo.toml":       p.ManifestRS,
		"src/main.rs":      p.MainRS,
		"src/runtime.rs":   p.RuntimeRS,
		"src/modules.rs":   p.ModulesRS,
		"src/simulator.rs": p.SimulatorRS,
	}
}

// Emit lowers sys into a complete Rust-shaped simulator project.
func Emit(sys *ir.System, cfg config.Config) Project {
	return Project{
		ManifestRS:  Manifest(sys),
		MainRS:      Main(),
		RuntimeRS:   Runtime(),
		ModulesRS:   Modules(sys),
		SimulatorRS: Simulator(sys, cfg),
	}
}
