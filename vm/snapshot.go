package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Snapshot: CBOR heap serialization
// ---------------------------------------------------------------------------

// Snapshot format constants.
const (
	SnapshotMagic   = "BFGC"
	SnapshotVersion = 1
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a point-in-time copy of a VM: heap objects in allocation
// list order (newest first), the root stack bottom to top, and the
// collector counters. Object references are rewritten as positions into
// Objects so the encoding is independent of arena layout.
type Snapshot struct {
	Magic        string `cbor:"magic"`
	Version      uint32 `cbor:"version"`
	VMID         string `cbor:"vm_id"`
	Cycles       uint64 `cbor:"cycles"`
	Threshold    int    `cbor:"threshold"`
	GrowthFactor int    `cbor:"growth_factor"`
	StackCap     int    `cbor:"stack_capacity"`

	Objects []SnapshotObject `cbor:"objects"`
	Roots   []int32          `cbor:"roots"`
}

// SnapshotObject is one serialized heap object. Head and Tail index
// into Snapshot.Objects; -1 encodes NilRef.
type SnapshotObject struct {
	Kind uint8 `cbor:"kind"`
	Int  int64 `cbor:"int,omitempty"`
	Head int32 `cbor:"head"`
	Tail int32 `cbor:"tail"`
}

// Snapshot captures the VM's current heap, roots, and counters.
func (vm *VM) Snapshot() *Snapshot {
	// First pass: assign every allocated object a position.
	pos := make(map[Ref]int32, vm.heap.live)
	order := make([]Ref, 0, vm.heap.live)
	for r := vm.heap.head; !r.IsNil(); {
		pos[r] = int32(len(order))
		order = append(order, r)
		r = vm.heap.get(r).next
	}

	encodeRef := func(r Ref) int32 {
		if r.IsNil() {
			return -1
		}
		p, ok := pos[r]
		if !ok {
			// Every field and root points into the allocation list.
			panic(fmt.Sprintf("vm: snapshot found reference outside allocation list (slot %d)", r.index()))
		}
		return p
	}

	s := &Snapshot{
		Magic:        SnapshotMagic,
		Version:      SnapshotVersion,
		VMID:         vm.id.String(),
		Cycles:       vm.cycles,
		Threshold:    vm.threshold,
		GrowthFactor: vm.growthFactor,
		StackCap:     vm.stack.capacity(),
		Objects:      make([]SnapshotObject, len(order)),
	}

	for i, r := range order {
		obj := vm.heap.get(r)
		so := SnapshotObject{Kind: uint8(obj.kind), Head: -1, Tail: -1}
		switch obj.kind {
		case KindInt:
			so.Int = obj.intVal
		case KindPair:
			so.Head = encodeRef(obj.head)
			so.Tail = encodeRef(obj.tail)
		}
		s.Objects[i] = so
	}

	vm.stack.forEach(func(r Ref) {
		s.Roots = append(s.Roots, encodeRef(r))
	})
	return s
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes and validates a Snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	if s.Magic != SnapshotMagic {
		return nil, fmt.Errorf("vm: not a snapshot (magic %q)", s.Magic)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("vm: unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// Restore reconstructs an equivalent VM from a snapshot: same instance
// ID, object graph, root stack, threshold, and cycle count. The arena
// layout is rebuilt from scratch, so handles from the original VM do
// not carry over.
func Restore(s *Snapshot) (*VM, error) {
	id, err := uuid.Parse(s.VMID)
	if err != nil {
		return nil, fmt.Errorf("vm: restore: bad vm id: %w", err)
	}

	vm := NewWithOptions(Options{
		StackCapacity:    s.StackCap,
		InitialThreshold: s.Threshold,
		GrowthFactor:     s.GrowthFactor,
	})
	vm.id = id
	vm.cycles = s.Cycles

	// Objects are stored newest first; allocate oldest first so the
	// rebuilt allocation list has the same order.
	refs := make([]Ref, len(s.Objects))
	for i := len(s.Objects) - 1; i >= 0; i-- {
		so := s.Objects[i]
		kind := Kind(so.Kind)
		if kind != KindInt && kind != KindPair {
			return nil, fmt.Errorf("vm: restore: object %d has unknown kind %d", i, so.Kind)
		}
		r, obj := vm.heap.alloc(kind)
		if kind == KindInt {
			obj.intVal = so.Int
		}
		refs[i] = r
	}

	decodeRef := func(p int32) (Ref, error) {
		if p == -1 {
			return NilRef, nil
		}
		if p < 0 || int(p) >= len(refs) {
			return NilRef, fmt.Errorf("vm: restore: reference %d out of range", p)
		}
		return refs[p], nil
	}

	// Second pass: rewire pair fields now that every handle exists.
	for i, so := range s.Objects {
		if Kind(so.Kind) != KindPair {
			continue
		}
		obj := vm.heap.get(refs[i])
		if obj.head, err = decodeRef(so.Head); err != nil {
			return nil, err
		}
		if obj.tail, err = decodeRef(so.Tail); err != nil {
			return nil, err
		}
	}

	for _, p := range s.Roots {
		r, err := decodeRef(p)
		if err != nil {
			return nil, err
		}
		if err := vm.stack.push(r); err != nil {
			return nil, fmt.Errorf("vm: restore: %w", err)
		}
	}
	return vm, nil
}
