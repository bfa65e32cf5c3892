package vm

// ---------------------------------------------------------------------------
// Root stack
// ---------------------------------------------------------------------------

// rootStack is the bounded stack of references that anchors
// reachability. Every entry is a root for the mark phase; nothing else
// in the VM is scanned for roots, so all object creation and root
// exposure must funnel through the VM facade that owns this stack.
type rootStack struct {
	slots []Ref
	size  int
}

func newRootStack(capacity int) *rootStack {
	return &rootStack{slots: make([]Ref, capacity)}
}

func (s *rootStack) push(r Ref) error {
	if s.size == len(s.slots) {
		return ErrStackOverflow
	}
	s.slots[s.size] = r
	s.size++
	return nil
}

func (s *rootStack) pop() (Ref, error) {
	if s.size == 0 {
		return NilRef, ErrStackUnderflow
	}
	s.size--
	r := s.slots[s.size]
	s.slots[s.size] = NilRef
	return r, nil
}

// forEach visits every occupied slot from bottom to top.
func (s *rootStack) forEach(fn func(Ref)) {
	for i := 0; i < s.size; i++ {
		fn(s.slots[i])
	}
}

func (s *rootStack) capacity() int { return len(s.slots) }
