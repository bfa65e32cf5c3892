package vm

import "fmt"

// ---------------------------------------------------------------------------
// Heap: handle-addressed object arena + intrusive allocation list
// ---------------------------------------------------------------------------

// heap is an arena of objects addressed by stable handles.
//
// Every allocated object is linked (via Object.next) into one intrusive
// allocation list headed at head; sweep is the only consumer of that
// list and the only authority that frees. A slot returns to the free
// pool the moment sweep proves it unreachable, so no live handle can
// alias a recycled slot. Each recycle bumps the slot generation that
// handles are checked against.
type heap struct {
	slots []slot
	free  []uint32 // indexes of recycled slots, reused LIFO

	head Ref // allocation list head (most recently allocated)
	live int // objects currently in the allocation list

	maxObjects int // hard cap on live objects; 0 means unbounded
}

type slot struct {
	obj   Object
	gen   uint32
	inUse bool
}

func newHeap(maxObjects int) *heap {
	// Slot 0 is reserved so the zero Ref is always NilRef.
	return &heap{
		slots:      make([]slot, 1),
		maxObjects: maxObjects,
	}
}

// full reports whether another allocation would exceed the heap's cap.
func (h *heap) full() bool {
	return h.maxObjects > 0 && h.live >= h.maxObjects
}

// alloc reserves a slot, links it at the head of the allocation list,
// and returns its handle along with the zeroed object.
func (h *heap) alloc(kind Kind) (Ref, *Object) {
	var index uint32
	if n := len(h.free); n > 0 {
		index = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		h.slots = append(h.slots, slot{})
		index = uint32(len(h.slots) - 1)
	}

	s := &h.slots[index]
	s.inUse = true
	s.obj = Object{kind: kind, next: h.head}

	r := makeRef(index, s.gen)
	h.head = r
	h.live++
	return r, &s.obj
}

// lookup resolves a handle to its object. It returns false for NilRef
// and for handles whose slot has been freed or recycled.
func (h *heap) lookup(r Ref) (*Object, bool) {
	index := r.index()
	if index == 0 || index >= uint32(len(h.slots)) {
		return nil, false
	}
	s := &h.slots[index]
	if !s.inUse || s.gen != r.gen() {
		return nil, false
	}
	return &s.obj, true
}

// get resolves a handle that must be live. The collector frees only
// objects proven unreachable, so a failed lookup on a traversal edge or
// a stack slot means the mark/sweep invariants were broken.
func (h *heap) get(r Ref) *Object {
	obj, ok := h.lookup(r)
	if !ok {
		panic(fmt.Sprintf("vm: dangling reference to slot %d", r.index()))
	}
	return obj
}

// release returns an object's slot to the free pool. The caller must
// have already unlinked it from the allocation list.
func (h *heap) release(r Ref) {
	index := r.index()
	s := &h.slots[index]
	if !s.inUse || s.gen != r.gen() {
		panic(fmt.Sprintf("vm: double free of slot %d", index))
	}
	s.inUse = false
	s.gen++
	s.obj = Object{}
	h.free = append(h.free, index)

	h.live--
	if h.live < 0 {
		panic("vm: negative live object count")
	}
}

// capacity returns the number of slots the arena holds, excluding the
// reserved slot.
func (h *heap) capacity() int { return len(h.slots) - 1 }
