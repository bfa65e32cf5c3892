// Package config handles bfgc.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/isaacazuelos/bfgc/vm"
)

// Config represents a bfgc.toml runtime configuration.
type Config struct {
	VM       VMConfig       `toml:"vm"`
	Stats    StatsConfig    `toml:"stats"`
	Snapshot SnapshotConfig `toml:"snapshot"`

	// Dir is the directory containing the bfgc.toml file (set at load time).
	Dir string `toml:"-"`
}

// VMConfig sizes the virtual machine.
type VMConfig struct {
	StackCapacity  int `toml:"stack-capacity"`
	GCThreshold    int `toml:"gc-threshold"`
	GrowthFactor   int `toml:"growth-factor"`
	MaxHeapObjects int `toml:"max-heap-objects"`
}

// StatsConfig configures per-cycle GC statistics recording.
type StatsConfig struct {
	Database string `toml:"database"`
}

// SnapshotConfig configures heap snapshot output.
type SnapshotConfig struct {
	Output string `toml:"output"`
}

// Default returns a Config carrying the VM package defaults.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			StackCapacity: vm.DefaultStackCapacity,
			GCThreshold:   vm.DefaultInitialThreshold,
			GrowthFactor:  vm.DefaultGrowthFactor,
		},
	}
}

// Load parses a bfgc.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "bfgc.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if c.VM.StackCapacity <= 0 {
		c.VM.StackCapacity = vm.DefaultStackCapacity
	}
	if c.VM.GCThreshold <= 0 {
		c.VM.GCThreshold = vm.DefaultInitialThreshold
	}
	if c.VM.GrowthFactor < 2 {
		c.VM.GrowthFactor = vm.DefaultGrowthFactor
	}

	return &c, nil
}

// FindAndLoad walks up from startDir to find a bfgc.toml file, then
// loads and returns the config. Returns nil if no config is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "bfgc.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Options converts the config into VM construction options.
func (c *Config) Options() vm.Options {
	return vm.Options{
		StackCapacity:    c.VM.StackCapacity,
		InitialThreshold: c.VM.GCThreshold,
		GrowthFactor:     c.VM.GrowthFactor,
		MaxHeapObjects:   c.VM.MaxHeapObjects,
	}
}
