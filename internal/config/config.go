// Package config loads scenario files: the sequence of DLL export calls a
// CLI run or test drives through a process.Process, expressed as YAML so
// scenarios can be authored without recompiling (SPEC_FULL.md §2).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Call names one DLL export invocation, e.g. "kernel32!WriteFile", plus the
// stdcall arguments to push before invoking it. Args are listed
// left-to-right, in the order the callee pops them — the runner pushes
// them in reverse (last arg first) so the stack comes out right, matching
// cpu.Stack's LIFO Push/Pop.
type Call struct {
	DLL    string   `yaml:"dll"`
	Symbol string   `yaml:"symbol"`
	Args   []uint32 `yaml:"args"`
}

// Scenario is one named, ordered sequence of calls against a fresh
// process.Process.
type Scenario struct {
	Name    string `yaml:"name"`
	MemSize uint32 `yaml:"mem_size"`
	Verbose bool   `yaml:"verbose"`
	Calls   []Call `yaml:"calls"`
}

// defaultMemSize is used when a scenario file omits mem_size.
const defaultMemSize = 4 * 1024 * 1024

// Load reads and validates a scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if s.MemSize == 0 {
		s.MemSize = defaultMemSize
	}
	if len(s.Calls) == 0 {
		return nil, fmt.Errorf("config: %s declares no calls", path)
	}
	return &s, nil
}
