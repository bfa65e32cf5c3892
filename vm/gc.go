package vm

import "time"

// ---------------------------------------------------------------------------
// Collector: mark, sweep, growth policy
// ---------------------------------------------------------------------------

// GCStats holds statistics from a single collection cycle.
type GCStats struct {
	Cycle     uint64        // 1-based cycle number
	Reclaimed int           // objects freed by this sweep
	Live      int           // objects surviving this sweep
	Threshold int           // threshold after the growth policy ran
	Duration  time.Duration // wall time of mark+sweep
	Timestamp time.Time     // when the cycle started
}

// Collect runs one full stop-the-world mark-sweep cycle and applies the
// threshold growth policy. Allocation invokes it automatically when the
// live count reaches the threshold; calling it directly is a
// diagnostic/privileged operation and is always safe, including on an
// empty heap.
func (vm *VM) Collect() *GCStats {
	start := time.Now()

	vm.markAll()
	reclaimed := vm.sweep()

	// The threshold never shrinks below the post-sweep population and
	// never decreases across cycles.
	if grown := vm.heap.live * vm.growthFactor; grown > vm.threshold {
		vm.threshold = grown
	}

	vm.cycles++
	stats := &GCStats{
		Cycle:     vm.cycles,
		Reclaimed: reclaimed,
		Live:      vm.heap.live,
		Threshold: vm.threshold,
		Duration:  time.Since(start),
		Timestamp: start,
	}
	vm.lastStats = stats

	if vm.log != nil {
		vm.log.Debugf("gc cycle %d: reclaimed %d, live %d, threshold %d (%s)",
			stats.Cycle, stats.Reclaimed, stats.Live, stats.Threshold, stats.Duration)
	}
	if vm.onCycle != nil {
		vm.onCycle(stats)
	}
	return stats
}

// CycleCount returns the total number of collection cycles run.
func (vm *VM) CycleCount() uint64 { return vm.cycles }

// LastStats returns statistics from the most recent cycle, or nil if no
// cycle has run yet.
func (vm *VM) LastStats() *GCStats { return vm.lastStats }

// markAll seeds the mark phase from every root stack entry. Root order
// does not matter: the mark bit only ever transitions false to true
// during a cycle, so overlapping traversals union into the same set.
func (vm *VM) markAll() {
	vm.stack.forEach(func(r Ref) {
		if !r.IsNil() {
			vm.mark(r)
		}
	})
}

// mark sets the mark bit on r's object and recurses into its fields,
// head before tail. The already-marked check is what terminates cycles
// and shared subgraphs.
func (vm *VM) mark(r Ref) {
	obj := vm.heap.get(r)
	if obj.marked {
		return
	}
	obj.marked = true

	obj.ForEachField(func(f Ref) {
		if !f.IsNil() {
			vm.mark(f)
		}
	})
}

// sweep walks the allocation list once. Unmarked objects are unlinked
// and released; marked objects have their bit cleared for the next
// cycle and stay linked. Returns the number of objects reclaimed.
func (vm *VM) sweep() int {
	reclaimed := 0
	link := &vm.heap.head
	for !link.IsNil() {
		obj := vm.heap.get(*link)
		if !obj.marked {
			unreached := *link
			*link = obj.next
			vm.heap.release(unreached)
			reclaimed++
		} else {
			obj.marked = false
			link = &obj.next
		}
	}
	return reclaimed
}
