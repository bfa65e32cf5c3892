package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Snapshot round trip
// ---------------------------------------------------------------------------

func TestSnapshotRestore(t *testing.T) {
	m := New(32, 100)
	m.AllocateInt(1)
	m.AllocateInt(2)
	p, _ := m.AllocatePair()
	m.SetTail(p, p) // self-cycle; the int 2 becomes garbage
	m.AllocateInt(9)

	m.Collect() // reclaim the unhooked int, bump counters

	data, err := MarshalSnapshot(m.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}

	s, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	restored, err := Restore(s)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.ID() != m.ID() {
		t.Errorf("ID = %s, want %s", restored.ID(), m.ID())
	}
	if got, want := restored.ObjectCount(), m.ObjectCount(); got != want {
		t.Errorf("ObjectCount = %d, want %d", got, want)
	}
	if got, want := restored.StackSize(), m.StackSize(); got != want {
		t.Errorf("StackSize = %d, want %d", got, want)
	}
	if got, want := restored.StackCapacity(), m.StackCapacity(); got != want {
		t.Errorf("StackCapacity = %d, want %d", got, want)
	}
	if got, want := restored.Threshold(), m.Threshold(); got != want {
		t.Errorf("Threshold = %d, want %d", got, want)
	}
	if got, want := restored.CycleCount(), m.CycleCount(); got != want {
		t.Errorf("CycleCount = %d, want %d", got, want)
	}

	// Structure: top of stack is the int 9, below it the self-cyclic
	// pair whose head is the int 1.
	nine, _ := restored.Pop()
	if v, err := restored.IntValue(nine); err != nil || v != 9 {
		t.Errorf("top = %d, %v; want 9, nil", v, err)
	}
	pair, _ := restored.Pop()
	head, err := restored.Head(pair)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if v, _ := restored.IntValue(head); v != 1 {
		t.Errorf("pair head = %d, want 1", v)
	}
	tail, _ := restored.Tail(pair)
	if tail != pair {
		t.Error("self-cycle not preserved across restore")
	}

	// The restored VM is fully operational: collecting with everything
	// unrooted reclaims the whole heap without looping on the cycle.
	restored.Collect()
	if got := restored.ObjectCount(); got != 0 {
		t.Errorf("ObjectCount = %d after unrooted collection, want 0", got)
	}
}

func TestSnapshotEncodesNilFields(t *testing.T) {
	m := New(16, 100)
	m.AllocateInt(1)
	m.AllocateInt(2)
	p, _ := m.AllocatePair()
	m.SetHead(p, NilRef)

	restored, err := Restore(m.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	pair, _ := restored.Pop()
	if head, _ := restored.Head(pair); !head.IsNil() {
		t.Error("nil head not preserved")
	}
	if tail, _ := restored.Tail(pair); tail.IsNil() {
		t.Error("tail should reference the surviving int")
	}
}

func TestSnapshotIsDeterministic(t *testing.T) {
	m := New(16, 100)
	m.AllocateInt(1)
	m.AllocateInt(2)
	m.AllocatePair()

	a, err := MarshalSnapshot(m.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	b, err := MarshalSnapshot(m.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	if string(a) != string(b) {
		t.Error("canonical encoding should be byte-identical across calls")
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestUnmarshalRejectsBadEnvelope(t *testing.T) {
	base := New(4, 100).Snapshot()

	cases := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{"bad magic", func(s *Snapshot) { s.Magic = "NOPE" }, "not a snapshot"},
		{"bad version", func(s *Snapshot) { s.Version = 99 }, "unsupported snapshot version"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := *base
			tc.mutate(&s)
			data, err := MarshalSnapshot(&s)
			if err != nil {
				t.Fatalf("MarshalSnapshot: %v", err)
			}
			if _, err := UnmarshalSnapshot(data); err == nil ||
				!strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestUnmarshalRejectsGarbageBytes(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte("not cbor at all")); err == nil {
		t.Error("expected an error for malformed input")
	}
}

func TestRestoreRejectsDanglingReference(t *testing.T) {
	s := New(4, 100).Snapshot()
	s.Objects = []SnapshotObject{{Kind: uint8(KindPair), Head: 5, Tail: -1}}

	if _, err := Restore(s); err == nil {
		t.Error("expected an error for an out-of-range reference")
	}
}
