package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Root stack discipline
// ---------------------------------------------------------------------------

func TestPushOverflowAtCapacity(t *testing.T) {
	const capacity = 4
	m := NewWithOptions(Options{StackCapacity: capacity, InitialThreshold: 100})

	r, err := m.AllocateInt(0)
	if err != nil {
		t.Fatalf("AllocateInt: %v", err)
	}
	// Fill the remaining slots with duplicate roots.
	for i := 1; i < capacity; i++ {
		if err := m.Push(r); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}

	// The (K+1)-th push must fail without corrupting the stack.
	if err := m.Push(r); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("err = %v, want ErrStackOverflow", err)
	}
	if got := m.StackSize(); got != capacity {
		t.Errorf("StackSize = %d, want %d", got, capacity)
	}
}

func TestPopEmptyUnderflows(t *testing.T) {
	m := New(4, 100)

	if _, err := m.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("err = %v, want ErrStackUnderflow", err)
	}
	if got := m.StackSize(); got != 0 {
		t.Errorf("StackSize = %d, want 0", got)
	}
}

func TestStackIsLIFO(t *testing.T) {
	m := New(8, 100)
	r1, _ := m.AllocateInt(1)
	r2, _ := m.AllocateInt(2)
	r3, _ := m.AllocateInt(3)

	for _, want := range []Ref{r3, r2, r1} {
		got, err := m.Pop()
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if got != want {
			t.Errorf("Pop = slot %d, want slot %d", got.index(), want.index())
		}
	}
}

func TestDuplicateRootsRootOnce(t *testing.T) {
	m := New(8, 100)
	r, _ := m.AllocateInt(1)
	m.Push(r)
	m.Push(r)

	// Three stack entries, one object. It must survive as long as any
	// copy remains rooted.
	m.Pop()
	m.Pop()
	m.Collect()
	if got := m.ObjectCount(); got != 1 {
		t.Errorf("ObjectCount = %d, want 1", got)
	}

	m.Pop()
	m.Collect()
	if got := m.ObjectCount(); got != 0 {
		t.Errorf("ObjectCount = %d after last unroot, want 0", got)
	}
}
