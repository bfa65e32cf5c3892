package vm

import (
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// VM: mutator-facing facade
// ---------------------------------------------------------------------------

// Default VM parameters, used when Options leaves a field unset.
const (
	DefaultStackCapacity    = 256
	DefaultInitialThreshold = 8
	DefaultGrowthFactor     = 2
)

// Options configures a VM.
type Options struct {
	// StackCapacity fixes the root stack size. Defaults to
	// DefaultStackCapacity when non-positive.
	StackCapacity int

	// InitialThreshold is the live-object count at which allocation
	// first triggers a collection. Defaults to DefaultInitialThreshold
	// when non-positive.
	InitialThreshold int

	// GrowthFactor multiplies the post-sweep live count to produce the
	// next collection threshold. Defaults to DefaultGrowthFactor when
	// less than 2.
	GrowthFactor int

	// MaxHeapObjects caps the number of live objects. Zero means
	// unbounded. Allocation past the cap returns ErrOutOfMemory after a
	// collection cycle fails to make room.
	MaxHeapObjects int

	// Logger, when set, receives a debug record for every collection
	// cycle. The core stays silent without one.
	Logger commonlog.Logger

	// OnCycle, when set, is called after every collection cycle with
	// that cycle's statistics. Runs synchronously on the mutator's
	// goroutine, before the triggering allocation proceeds.
	OnCycle func(*GCStats)
}

// VM owns one independent heap and root stack. All object creation and
// all root exposure funnel through its methods; the collector depends
// on the root stack being the complete set of externally reachable
// entry points whenever a cycle runs.
//
// A VM is single-threaded: the mutator and the collector never execute
// concurrently, and no method is safe for concurrent use. Multiple
// independent VMs may coexist in one process.
type VM struct {
	id uuid.UUID

	stack *rootStack
	heap  *heap

	threshold    int
	growthFactor int

	cycles    uint64
	lastStats *GCStats

	log     commonlog.Logger
	onCycle func(*GCStats)
}

// New creates a VM with the given root stack capacity and initial
// collection threshold. Non-positive arguments fall back to defaults.
func New(stackCapacity, initialThreshold int) *VM {
	return NewWithOptions(Options{
		StackCapacity:    stackCapacity,
		InitialThreshold: initialThreshold,
	})
}

// NewWithOptions creates a VM from explicit options.
func NewWithOptions(opts Options) *VM {
	if opts.StackCapacity <= 0 {
		opts.StackCapacity = DefaultStackCapacity
	}
	if opts.InitialThreshold <= 0 {
		opts.InitialThreshold = DefaultInitialThreshold
	}
	if opts.GrowthFactor < 2 {
		opts.GrowthFactor = DefaultGrowthFactor
	}

	return &VM{
		id:           uuid.New(),
		stack:        newRootStack(opts.StackCapacity),
		heap:         newHeap(opts.MaxHeapObjects),
		threshold:    opts.InitialThreshold,
		growthFactor: opts.GrowthFactor,
		log:          opts.Logger,
		onCycle:      opts.OnCycle,
	}
}

// ID returns the VM's instance identifier. It is stamped into snapshots
// and GC log records.
func (vm *VM) ID() uuid.UUID { return vm.id }

// ---------------------------------------------------------------------------
// Stack operations
// ---------------------------------------------------------------------------

// Push places a reference on the root stack, rooting its object for
// subsequent collections. Returns ErrStackOverflow at capacity.
func (vm *VM) Push(r Ref) error {
	return vm.stack.push(r)
}

// Pop removes and returns the top of the root stack. The object is no
// longer rooted by that slot, but remains allocated until a collection
// proves it unreachable. Returns ErrStackUnderflow on an empty stack.
func (vm *VM) Pop() (Ref, error) {
	return vm.stack.pop()
}

// StackSize returns the number of occupied root stack slots.
func (vm *VM) StackSize() int { return vm.stack.size }

// StackCapacity returns the fixed root stack capacity.
func (vm *VM) StackCapacity() int { return vm.stack.capacity() }

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// AllocateInt creates an integer object, links it into the allocation
// list, pushes its handle onto the root stack, and returns the handle.
// A collection runs first when the live count has reached the current
// threshold.
func (vm *VM) AllocateInt(value int64) (Ref, error) {
	if err := vm.reserve(0); err != nil {
		return NilRef, err
	}

	r, obj := vm.heap.alloc(KindInt)
	obj.intVal = value
	vm.mustPush(r)
	return r, nil
}

// AllocatePair pops two references and creates a pair from them: the
// first pop becomes the tail, the second the head, so the fields sit in
// the order the operands were pushed. The new pair is pushed and its
// handle returned. Returns ErrStackUnderflow, without mutating the
// stack, when fewer than two values are present.
func (vm *VM) AllocatePair() (Ref, error) {
	if err := vm.reserve(2); err != nil {
		return NilRef, err
	}

	// The operands stay rooted through the collection check above, so a
	// triggered cycle cannot reclaim them.
	tail, _ := vm.stack.pop()
	head, _ := vm.stack.pop()

	r, obj := vm.heap.alloc(KindPair)
	obj.head = head
	obj.tail = tail
	vm.mustPush(r)
	return r, nil
}

// reserve runs the allocation-time collection policy and verifies the
// allocation can complete: popped operands are present, the heap has
// room (collecting once more if not), and the result can be rooted.
// Called at the start of every allocation request.
func (vm *VM) reserve(popped int) error {
	if vm.stack.size < popped {
		return ErrStackUnderflow
	}

	collected := false
	if vm.heap.live >= vm.threshold {
		vm.Collect()
		collected = true
	}
	if vm.heap.full() {
		if !collected {
			vm.Collect()
		}
		if vm.heap.full() {
			return ErrOutOfMemory
		}
	}

	if vm.stack.size-popped >= vm.stack.capacity() {
		return ErrStackOverflow
	}
	return nil
}

// mustPush roots a freshly allocated object. reserve has already
// checked capacity, so failure here is a facade bug.
func (vm *VM) mustPush(r Ref) {
	if err := vm.stack.push(r); err != nil {
		panic("vm: root stack full after reservation")
	}
}

// ---------------------------------------------------------------------------
// Object access
// ---------------------------------------------------------------------------

// IntValue returns the payload of an integer object.
func (vm *VM) IntValue(r Ref) (int64, error) {
	obj := vm.heap.get(r)
	if obj.kind != KindInt {
		return 0, ErrNotInt
	}
	return obj.intVal, nil
}

// Head returns the first field of a pair object.
func (vm *VM) Head(r Ref) (Ref, error) {
	obj := vm.heap.get(r)
	if obj.kind != KindPair {
		return NilRef, ErrNotPair
	}
	return obj.head, nil
}

// Tail returns the second field of a pair object.
func (vm *VM) Tail(r Ref) (Ref, error) {
	obj := vm.heap.get(r)
	if obj.kind != KindPair {
		return NilRef, ErrNotPair
	}
	return obj.tail, nil
}

// SetHead rewires the first field of a pair. This is the sanctioned way
// to build cyclic structures; v may be NilRef or alias p itself.
func (vm *VM) SetHead(p, v Ref) error {
	obj := vm.heap.get(p)
	if obj.kind != KindPair {
		return ErrNotPair
	}
	obj.head = v
	return nil
}

// SetTail rewires the second field of a pair.
func (vm *VM) SetTail(p, v Ref) error {
	obj := vm.heap.get(p)
	if obj.kind != KindPair {
		return ErrNotPair
	}
	obj.tail = v
	return nil
}

// ObjectCount returns the number of objects in the allocation list.
func (vm *VM) ObjectCount() int { return vm.heap.live }

// Threshold returns the live-object count that will trigger the next
// automatic collection. It never decreases over the VM's lifetime.
func (vm *VM) Threshold() int { return vm.threshold }
