package vm

import (
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Inspector: mark-bit-independent heap introspection
// ---------------------------------------------------------------------------

// HeapStats summarizes the arena at a point in time.
type HeapStats struct {
	Live          int // objects in the allocation list
	Ints          int // KindInt objects among them
	Pairs         int // KindPair objects among them
	FreeSlots     int // recycled slots awaiting reuse
	ArenaCapacity int // total slots the arena has ever held
}

// HeapStats walks the allocation list and tallies the heap.
func (vm *VM) HeapStats() HeapStats {
	stats := HeapStats{
		FreeSlots:     len(vm.heap.free),
		ArenaCapacity: vm.heap.capacity(),
	}
	for r := vm.heap.head; !r.IsNil(); {
		obj := vm.heap.get(r)
		stats.Live++
		switch obj.kind {
		case KindInt:
			stats.Ints++
		case KindPair:
			stats.Pairs++
		}
		r = obj.next
	}
	return stats
}

// Reachable computes the set of objects reachable from the root stack
// without consulting mark bits. It exists so tests and debugging tools
// can cross-check the collector's own accounting against an independent
// traversal.
func (vm *VM) Reachable() map[Ref]struct{} {
	seen := make(map[Ref]struct{})
	var visit func(Ref)
	visit = func(r Ref) {
		if r.IsNil() {
			return
		}
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		vm.heap.get(r).ForEachField(visit)
	}
	vm.stack.forEach(visit)
	return seen
}

// Valid reports whether r currently names a live heap object. Unlike
// the accessor methods it never panics, so it is usable on handles that
// may have been reclaimed.
func (vm *VM) Valid(r Ref) bool {
	_, ok := vm.heap.lookup(r)
	return ok
}

// DumpHeap writes one line per allocated object in allocation list
// order (newest first), flagging objects currently on the root stack.
func (vm *VM) DumpHeap(w io.Writer) {
	roots := make(map[Ref]struct{}, vm.stack.size)
	vm.stack.forEach(func(r Ref) {
		roots[r] = struct{}{}
	})

	for r := vm.heap.head; !r.IsNil(); {
		obj := vm.heap.get(r)
		rooted := ""
		if _, ok := roots[r]; ok {
			rooted = " [root]"
		}
		switch obj.kind {
		case KindInt:
			fmt.Fprintf(w, "#%d Int %d%s\n", r.index(), obj.intVal, rooted)
		case KindPair:
			fmt.Fprintf(w, "#%d Pair (%s, %s)%s\n",
				r.index(), refLabel(obj.head), refLabel(obj.tail), rooted)
		}
		r = obj.next
	}
}

func refLabel(r Ref) string {
	if r.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("#%d", r.index())
}
