// Package label provides pure constructors for LabelOperation resolution
// objects. Label operations never mutate an existing node:
// editing a label stack means inserting a new LabelOperation, redirecting
// whatever referenced the old one, and releasing the old one — all of
// which this package leaves to the store and the orchestrator, keeping
// these constructors side-effect free beyond the one Insert call.
package label

import (
	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
)

const (
	maxLabelValue = 1<<20 - 1 // 20-bit
	maxTC         = 1<<3 - 1  // 3-bit
)

func validate(labels []store.Label) error {
	if len(labels) == 0 {
		return ferrors.New(ferrors.CodeInvalidArgument, "label operation requires at least one label")
	}
	for _, l := range labels {
		if l.Value > maxLabelValue {
			return ferrors.New(ferrors.CodeInvalidArgument, "label value exceeds 20 bits")
		}
		if l.TC > maxTC {
			return ferrors.New(ferrors.CodeInvalidArgument, "label TC exceeds 3 bits")
		}
	}
	return nil
}

func insert(s *store.Store, op store.LabelOp, labels []store.Label, next handle.Handle) (handle.Handle, error) {
	return s.Insert(store.Fields{
		Kind: handle.KindLabelOperation,
		Label: &store.LabelOperation{
			Op:     op,
			Labels: labels,
			Next:   next,
		},
	})
}

// Push appends labels to the accumulated stack in the order given
// (index 0 becomes top-of-stack) and chains to next.
func Push(s *store.Store, labels []store.Label, next handle.Handle) (handle.Handle, error) {
	if err := validate(labels); err != nil {
		return handle.Nil, err
	}
	return insert(s, store.OpPush, labels, next)
}

// Swap replaces the top label and chains to next.
func Swap(s *store.Store, top store.Label, next handle.Handle) (handle.Handle, error) {
	if err := validate([]store.Label{top}); err != nil {
		return handle.Nil, err
	}
	return insert(s, store.OpSwap, []store.Label{top}, next)
}

// Pop records a pop count (len(labels), for incoming-label programming)
// and chains to next, which may be handle.Nil if there is nothing
// further to recurse into.
func Pop(s *store.Store, count int, next handle.Handle) (handle.Handle, error) {
	if count <= 0 {
		return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "pop count must be positive")
	}
	labels := make([]store.Label, count)
	return insert(s, store.OpPop, labels, next)
}

// PopAndForward pops count labels and continues forwarding via next.
func PopAndForward(s *store.Store, count int, next handle.Handle) (handle.Handle, error) {
	if count <= 0 {
		return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "pop count must be positive")
	}
	labels := make([]store.Label, count)
	return insert(s, store.OpPopAndForward, labels, next)
}

// SwapAndPush replaces the top label with the first entry of labels and
// pushes the rest beneath it, in order.
func SwapAndPush(s *store.Store, labels []store.Label, next handle.Handle) (handle.Handle, error) {
	if err := validate(labels); err != nil {
		return handle.Nil, err
	}
	return insert(s, store.OpSwapAndPush, labels, next)
}

// Stack returns the label values a LabelOperation contributes, in
// top-to-bottom packet order (index 0 is outermost), for assembly by
// the forward walk.
func Stack(n *store.LabelOperation) []store.Label {
	out := make([]store.Label, len(n.Labels))
	copy(out, n.Labels)
	return out
}
