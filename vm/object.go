package vm

// Kind discriminates the two heap object variants.
type Kind uint8

const (
	// KindInt is a leaf integer object with no outgoing references.
	KindInt Kind = iota

	// KindPair holds two references to other objects. Either field may
	// be NilRef, and the fields may alias each other or the pair itself.
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindPair:
		return "Pair"
	default:
		return "?"
	}
}

// Object is a heap-allocated VM object: either an integer or a pair.
//
// The mark bit and the next link are collector-private. next chains
// every allocated object into the heap's allocation list so sweep can
// enumerate the whole heap; the mutator never sees either field.
type Object struct {
	kind   Kind
	marked bool

	// Allocation list link. Owned by the collector.
	next Ref

	intVal int64 // KindInt payload
	head   Ref   // KindPair first field
	tail   Ref   // KindPair second field
}

// Kind returns the object's variant tag.
func (o *Object) Kind() Kind { return o.kind }

// ForEachField calls fn for each outgoing reference of the object,
// including nil fields. Integers have none; pairs yield head then tail.
// This is the traversal surface used by the collector and the inspector.
func (o *Object) ForEachField(fn func(Ref)) {
	if o.kind != KindPair {
		return
	}
	fn(o.head)
	fn(o.tail)
}
