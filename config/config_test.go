package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/isaacazuelos/bfgc/vm"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "bfgc.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing bfgc.toml: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[vm]
stack-capacity = 128
gc-threshold = 4
max-heap-objects = 1000

[stats]
database = "stats.db"

[snapshot]
output = "heap.cbor"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.VM.StackCapacity != 128 {
		t.Errorf("StackCapacity = %d, want 128", cfg.VM.StackCapacity)
	}
	if cfg.VM.GCThreshold != 4 {
		t.Errorf("GCThreshold = %d, want 4", cfg.VM.GCThreshold)
	}
	if cfg.VM.MaxHeapObjects != 1000 {
		t.Errorf("MaxHeapObjects = %d, want 1000", cfg.VM.MaxHeapObjects)
	}
	if cfg.Stats.Database != "stats.db" {
		t.Errorf("Stats.Database = %q, want stats.db", cfg.Stats.Database)
	}
	if cfg.Snapshot.Output != "heap.cbor" {
		t.Errorf("Snapshot.Output = %q, want heap.cbor", cfg.Snapshot.Output)
	}

	// Unset fields take the VM defaults.
	if cfg.VM.GrowthFactor != vm.DefaultGrowthFactor {
		t.Errorf("GrowthFactor = %d, want default %d", cfg.VM.GrowthFactor, vm.DefaultGrowthFactor)
	}
	if !filepath.IsAbs(cfg.Dir) {
		t.Errorf("Dir = %q, want absolute path", cfg.Dir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for a missing bfgc.toml")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[vm\nstack-capacity = ")
	if _, err := Load(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[vm]\nstack-capacity = 64\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cfg, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if cfg == nil {
		t.Fatal("config not found from nested directory")
	}
	if cfg.VM.StackCapacity != 64 {
		t.Errorf("StackCapacity = %d, want 64", cfg.VM.StackCapacity)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.VM.StackCapacity != vm.DefaultStackCapacity {
		t.Errorf("StackCapacity = %d, want %d", cfg.VM.StackCapacity, vm.DefaultStackCapacity)
	}
	if cfg.VM.GCThreshold != vm.DefaultInitialThreshold {
		t.Errorf("GCThreshold = %d, want %d", cfg.VM.GCThreshold, vm.DefaultInitialThreshold)
	}
}

func TestOptions(t *testing.T) {
	cfg := &Config{VM: VMConfig{
		StackCapacity:  10,
		GCThreshold:    3,
		GrowthFactor:   4,
		MaxHeapObjects: 99,
	}}
	opts := cfg.Options()

	if opts.StackCapacity != 10 || opts.InitialThreshold != 3 ||
		opts.GrowthFactor != 4 || opts.MaxHeapObjects != 99 {
		t.Errorf("unexpected options: %+v", opts)
	}

	m := vm.NewWithOptions(opts)
	if m.StackCapacity() != 10 || m.Threshold() != 3 {
		t.Error("options not honored by the VM")
	}
}
