package vm

// Ref is a handle to a heap object.
//
// A Ref packs a 32-bit arena index and the 32-bit generation of that
// arena slot at the time the handle was issued. Slots recycle through a
// free pool only after sweep has proven them unreachable, and every
// recycle bumps the slot's generation, so a handle that outlives its
// object can be detected instead of silently aliasing the slot's new
// occupant.
//
// Encoding:
//   - bits 0..31:  arena index (index 0 is reserved for NilRef)
//   - bits 32..63: slot generation
type Ref uint64

// NilRef is the absent reference. It never names a heap object and is
// legal as either field of a pair.
const NilRef Ref = 0

func makeRef(index, gen uint32) Ref {
	return Ref(uint64(gen)<<32 | uint64(index))
}

// IsNil reports whether r is the absent reference.
func (r Ref) IsNil() bool { return r == NilRef }

func (r Ref) index() uint32 { return uint32(r) }
func (r Ref) gen() uint32   { return uint32(r >> 32) }
