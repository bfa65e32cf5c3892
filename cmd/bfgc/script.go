package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// runScript executes a line-oriented mutator script against the VM.
// Errors carry the script name and line number.
func (m *machine) runScript(name string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := m.execute(line); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

func (m *machine) execute(line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "int":
		if len(args) != 1 {
			return fmt.Errorf("int takes one argument")
		}
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad integer %q: %w", args[0], err)
		}
		_, err = m.vm.AllocateInt(n)
		return err

	case "pair":
		_, err := m.vm.AllocatePair()
		return err

	case "pop":
		_, err := m.vm.Pop()
		return err

	case "gc":
		s := m.vm.Collect()
		fmt.Printf("gc: reclaimed %d, live %d, threshold %d\n",
			s.Reclaimed, s.Live, s.Threshold)
		return nil

	case "count":
		fmt.Println(m.vm.ObjectCount())
		return nil

	case "stats":
		s := m.vm.HeapStats()
		fmt.Printf("live %d (ints %d, pairs %d), free slots %d, arena %d, stack %d/%d\n",
			s.Live, s.Ints, s.Pairs, s.FreeSlots, s.ArenaCapacity,
			m.vm.StackSize(), m.vm.StackCapacity())
		return nil

	case "dump":
		m.vm.DumpHeap(os.Stdout)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
