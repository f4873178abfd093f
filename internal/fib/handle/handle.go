// Package handle implements the opaque 64-bit handle format used to
// reference resolution objects in the node store: a 4-bit kind tag, a
// 28-bit generation, and a 32-bit slot index. Generation prevents
// stale-handle use-after-free across slot reuse (ABA).
package handle

import "fmt"

// Kind tags the resolution-object variant a handle (or node) identifies.
type Kind uint8

const (
	KindDirectNextHop Kind = iota
	KindLabelOperation
	KindRecursiveNextHop
	KindEcmpGroup
	KindFrrProtected
)

func (k Kind) String() string {
	switch k {
	case KindDirectNextHop:
		return "DirectNextHop"
	case KindLabelOperation:
		return "LabelOperation"
	case KindRecursiveNextHop:
		return "RecursiveNextHop"
	case KindEcmpGroup:
		return "EcmpGroup"
	case KindFrrProtected:
		return "FrrProtected"
	default:
		return "UnknownKind"
	}
}

const (
	kindBits = 4
	genBits  = 28
	idxBits  = 32

	genMask = (uint64(1) << genBits) - 1
	idxMask = (uint64(1) << idxBits) - 1
)

// Handle is an opaque, stable, typed index into the node store arena.
// The zero value, Nil, never identifies a live object.
type Handle uint64

// Nil is the handle that never identifies a live resolution object.
const Nil Handle = 0

// New packs a kind, generation and slot index into a Handle. Generations
// start at 1, so a handle for a live object is never the zero value and
// Nil never aliases slot 0.
func New(kind Kind, generation uint32, index uint32) Handle {
	return Handle(uint64(kind)<<(genBits+idxBits) | (uint64(generation)&genMask)<<idxBits | uint64(index)&idxMask)
}

// Kind returns the resolution-object variant this handle addresses.
func (h Handle) Kind() Kind {
	return Kind(uint64(h) >> (genBits + idxBits))
}

// Generation returns the generation counter embedded in the handle.
func (h Handle) Generation() uint32 {
	return uint32((uint64(h) >> idxBits) & genMask)
}

// Index returns the arena slot index embedded in the handle.
func (h Handle) Index() uint32 {
	return uint32(uint64(h) & idxMask)
}

// IsNil reports whether h is the Nil handle.
func (h Handle) IsNil() bool { return h == Nil }

func (h Handle) String() string {
	if h.IsNil() {
		return "Handle(nil)"
	}
	return fmt.Sprintf("Handle(%s#%d@gen%d)", h.Kind(), h.Index(), h.Generation())
}
