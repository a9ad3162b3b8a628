// Package config holds the compiler's run-time knobs: simulation
// thresholds, default FIFO depth, the target Verilog toolchain, and the
// YAML file format used to set them (spec.md §6). The YAML loading idiom
// (unmarshal into a plain struct with os.ReadFile + yaml.Unmarshal) is
// ported from the teacher's core/program.go LoadProgramFileFromYAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VerilogToolchain selects which simulator/synthesis tool flavor the
// Verilog emitter targets (spec.md §6: VCS, Verilator, or none at all).
type VerilogToolchain string

const (
	ToolchainVCS       VerilogToolchain = "vcs"
	ToolchainVerilator VerilogToolchain = "verilator"
	ToolchainNone      VerilogToolchain = "none"
)

// Config holds every compiler-wide knob spec.md §6 names.
type Config struct {
	// SimThreshold is the maximum number of cycles the simulator runs
	// before giving up and reporting simrt.StopTimeout.
	SimThreshold int `yaml:"sim_threshold"`

	// IdleThreshold is the number of consecutive cycles with no module
	// triggered before the simulator reports simrt.StopIdle and stops early.
	IdleThreshold int `yaml:"idle_threshold"`

	// FIFODepth is the default FIFO depth used when a FIFO carries no
	// explicit depth annotation (ir.SetFIFODepth always wins over this;
	// see DESIGN.md's FIFO depth resolution note).
	FIFODepth int `yaml:"fifo_depth"`

	// ResourceBase is the base directory a relative memory init file is
	// resolved against in the emitted Verilog's $readmemh lines.
	ResourceBase string `yaml:"resource_base"`

	// Verilog selects the target toolchain for emitted testbenches.
	Verilog VerilogToolchain `yaml:"verilog"`

	// Random enables shuffled upstream-module evaluation order each cycle
	// (spec.md §4.4's "optionally shuffled" upstream phase), used to shake
	// out accidental order-dependence in a design under test.
	Random bool `yaml:"random"`

	// OverrideDump forces even non-memory-attributed arrays to dump their
	// final contents at the end of a simulation run.
	OverrideDump bool `yaml:"override_dump"`
}

// Default returns the compiler's built-in configuration, used whenever no
// YAML file is supplied.
func Default() Config {
	return Config{
		SimThreshold:  10000,
		IdleThreshold: 64,
		FIFODepth:     4,
		ResourceBase:  ".",
		Verilog:       ToolchainNone,
	}
}

// LoadYAML reads and parses a Config from path, starting from Default() so
// a partial YAML file only needs to override the fields it cares about.
func LoadYAML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// NextPowerOfTwo rounds n up to the next power of two (n itself if already
// one), the rounding rule spec.md §9 requires for FIFO depth resolution.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// ResolveFIFODepth applies spec.md §9's resolution rule: an explicit
// per-FIFO depth always wins over the config default, and the result is
// always rounded up to the next power of two.
func (c Config) ResolveFIFODepth(explicit int, hasExplicit bool) int {
	if hasExplicit {
		return NextPowerOfTwo(explicit)
	}
	return NextPowerOfTwo(c.FIFODepth)
}
