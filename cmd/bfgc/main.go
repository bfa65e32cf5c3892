// bfgc - driver for the mark-sweep collected micro VM.
//
// Reads a line-oriented mutator script from a file argument or stdin
// and executes it against a fresh VM. The VM itself is a library; this
// binary is just the external caller.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/isaacazuelos/bfgc/config"
	"github.com/isaacazuelos/bfgc/gclog"
	"github.com/isaacazuelos/bfgc/vm"

	_ "github.com/tliron/commonlog/simple"
)

var (
	configDir   = flag.String("config", "", "directory to search upward for bfgc.toml (default: working directory)")
	snapshotOut = flag.String("snapshot", "", "write a CBOR heap snapshot to this path on exit")
	statsDB     = flag.String("stats-db", "", "record per-cycle GC statistics to this SQLite database")
	verbosity   = flag.Int("verbose", 0, "log verbosity (0 = quiet)")
	version     = flag.Bool("version", false, "print version and exit")
)

const versionStr = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bfgc - mark-sweep collected micro VM\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  bfgc [options] [script]\n")
		fmt.Fprintf(os.Stderr, "  bfgc [options] < script\n\n")
		fmt.Fprintf(os.Stderr, "Script commands:\n")
		fmt.Fprintf(os.Stderr, "  int N    allocate an integer and push it\n")
		fmt.Fprintf(os.Stderr, "  pair     pop two values, allocate a pair of them, push it\n")
		fmt.Fprintf(os.Stderr, "  pop      pop the top of the root stack\n")
		fmt.Fprintf(os.Stderr, "  gc       run a collection cycle\n")
		fmt.Fprintf(os.Stderr, "  count    print the live object count\n")
		fmt.Fprintf(os.Stderr, "  stats    print heap statistics\n")
		fmt.Fprintf(os.Stderr, "  dump     print every allocated object\n\n")
		fmt.Fprintf(os.Stderr, "Lines starting with # are comments.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("bfgc version %s\n", versionStr)
		os.Exit(0)
	}

	commonlog.Configure(*verbosity, nil)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.Options()
	opts.Logger = commonlog.GetLogger("bfgc.gc")

	statsPath := cfg.Stats.Database
	if *statsDB != "" {
		statsPath = *statsDB
	}

	var recorder *gclog.Recorder
	if statsPath != "" {
		recorder, err = gclog.Open(statsPath)
		if err != nil {
			return err
		}
		defer recorder.Close()
	}

	machine := newMachine(opts, recorder)

	input := os.Stdin
	name := "<stdin>"
	if flag.NArg() > 0 {
		name = flag.Arg(0)
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("cannot open script: %w", err)
		}
		defer f.Close()
		input = f
	}

	if err := machine.runScript(name, input); err != nil {
		return err
	}

	snapPath := cfg.Snapshot.Output
	if *snapshotOut != "" {
		snapPath = *snapshotOut
	}
	if snapPath != "" {
		if err := machine.writeSnapshot(snapPath); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig finds bfgc.toml starting from -config or the working
// directory, falling back to defaults when none exists.
func loadConfig() (*config.Config, error) {
	start := *configDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		start = wd
	}

	cfg, err := config.FindAndLoad(start)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// machine wires a VM to the recorder and snapshot output.
type machine struct {
	vm       *vm.VM
	recorder *gclog.Recorder
	log      commonlog.Logger
}

func newMachine(opts vm.Options, recorder *gclog.Recorder) *machine {
	m := &machine{
		recorder: recorder,
		log:      commonlog.GetLogger("bfgc"),
	}
	opts.OnCycle = m.onCycle
	m.vm = vm.NewWithOptions(opts)
	return m
}

// onCycle forwards every collection cycle to the stats recorder.
func (m *machine) onCycle(s *vm.GCStats) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Record(m.vm.ID().String(), s); err != nil {
		m.log.Errorf("stats recording failed: %v", err)
	}
}

func (m *machine) writeSnapshot(path string) error {
	data, err := vm.MarshalSnapshot(m.vm.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	m.log.Infof("wrote snapshot to %s (%d objects)", path, m.vm.ObjectCount())
	return nil
}
