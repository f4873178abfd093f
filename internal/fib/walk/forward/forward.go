// Package forward implements the forward walk: a downward traversal
// from a resolution-object handle that assembles the complete
// ForwardingAssembly a matching packet should receive.
package forward

import (
	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
)

// DefaultMaxDepth bounds traversal depth before WalkDepthExceeded.
const DefaultMaxDepth = 10

// Assembly describes exactly what a packet matching a Route should have
// done to it, produced by one call to Walk.
type Assembly struct {
	// Handle is the resolution object this assembly (or sub-assembly)
	// was produced from, so programming code can key hardware-resource
	// caching per object rather than per packet path.
	Handle handle.Handle

	// Labels is the MPLS label stack in top-to-bottom packet order:
	// index 0 is the outermost label, pushed by the operation nearest
	// the route root (the first one the walk visits).
	Labels []store.Label

	Ecmp *EcmpDecision
	Frr  *FrrDecision

	// Terminal is the L2 rewrite + egress port, nil if this branch is
	// Unresolved.
	Terminal *store.DirectNextHop

	Depth      int
	Unresolved bool
}

// EcmpDecision carries a sub-assembly per live ECMP member.
type EcmpDecision struct {
	Handle   handle.Handle // the EcmpGroup node this decision was assembled from
	HashMode store.HashMode
	Members  []MemberAssembly
}

// MemberAssembly pairs a live member's position with its own assembly.
type MemberAssembly struct {
	Position int
	Member   handle.Handle
	Assembly *Assembly
}

// FrrDecision carries both the primary and backup sub-assemblies.
type FrrDecision struct {
	Handle  handle.Handle // the FrrProtected node this decision was assembled from
	Primary *Assembly
	Backup  *Assembly
}

// Walk produces the ForwardingAssembly for root. Same graph, same
// handle always yields a byte-identical assembly: the traversal
// makes no use of map iteration order or anything else non-deterministic.
func Walk(s *store.Store, root handle.Handle, maxDepth int) (*Assembly, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	acc, err := walk(s, root, 0, maxDepth, nil)
	if err != nil {
		return nil, err
	}
	return finalize(acc), nil
}

// step is an intermediate accumulator threaded down the recursion.
// Labels are appended in visit order, which is already top-to-bottom
// packet order: the operation nearest the route root is visited first
// and its labels land at index 0, outermost.
type step struct {
	handle handle.Handle
	labels []store.Label
	ecmp   *EcmpDecision
	frr    *FrrDecision
	term   *store.DirectNextHop
	depth  int
	unres  bool
}

func finalize(st *step) *Assembly {
	labels := make([]store.Label, len(st.labels))
	copy(labels, st.labels)
	return &Assembly{
		Handle:     st.handle,
		Labels:     labels,
		Ecmp:       st.ecmp,
		Frr:        st.frr,
		Terminal:   st.term,
		Depth:      st.depth,
		Unresolved: st.unres,
	}
}

// walk dispatches on the node's kind and always stamps the resulting
// step with the handle it was produced from, so programming code can
// key hardware-resource caching per resolution object rather than per
// packet path (the same object reached via two different parents must
// reuse one hardware resource, not allocate twice).
func walk(s *store.Store, h handle.Handle, depth int, maxDepth int, labelsSoFar []store.Label) (*step, error) {
	st, err := walkDispatch(s, h, depth, maxDepth, labelsSoFar)
	if err != nil {
		return nil, err
	}
	st.handle = h
	return st, nil
}

func walkDispatch(s *store.Store, h handle.Handle, depth int, maxDepth int, labelsSoFar []store.Label) (*step, error) {
	if depth > maxDepth {
		return nil, ferrors.ErrWalkDepthExceeded
	}
	n, err := s.Get(h)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case handle.KindDirectNextHop:
		return &step{labels: labelsSoFar, term: n.Direct, depth: depth, unres: !n.Direct.Reachable}, nil

	case handle.KindLabelOperation:
		return walkLabelOp(s, n, depth, maxDepth, labelsSoFar)

	case handle.KindRecursiveNextHop:
		if n.Recursive.ResolvedTo == nil {
			return &step{labels: labelsSoFar, depth: depth, unres: true}, nil
		}
		return walk(s, *n.Recursive.ResolvedTo, depth+1, maxDepth, labelsSoFar)

	case handle.KindEcmpGroup:
		return walkEcmp(s, n, depth, maxDepth, labelsSoFar)

	case handle.KindFrrProtected:
		return walkFrr(s, n, depth, maxDepth, labelsSoFar)

	default:
		return nil, ferrors.New(ferrors.CodeInvalidArgument, "unknown node kind in forward walk")
	}
}

func walkLabelOp(s *store.Store, n *store.Node, depth int, maxDepth int, labelsSoFar []store.Label) (*step, error) {
	op := n.Label
	var next []store.Label
	switch op.Op {
	case store.OpPush:
		next = append(append([]store.Label(nil), labelsSoFar...), op.Labels...)
	case store.OpSwap:
		next = append([]store.Label(nil), labelsSoFar...)
		if len(next) > 0 {
			next[len(next)-1] = op.Labels[0]
		} else {
			next = append(next, op.Labels[0])
		}
	case store.OpSwapAndPush:
		next = append([]store.Label(nil), labelsSoFar...)
		if len(next) > 0 {
			next[len(next)-1] = op.Labels[0]
		} else {
			next = append(next, op.Labels[0])
		}
		next = append(next, op.Labels[1:]...)
	case store.OpPop, store.OpPopAndForward:
		// Pop count is tracked by len(op.Labels); the accumulated stack
		// here represents labels pushed on the remaining, egress-bound
		// path and is unaffected by how many were popped on ingress.
		next = append([]store.Label(nil), labelsSoFar...)
	default:
		return nil, ferrors.New(ferrors.CodeInvalidArgument, "unknown label operation")
	}

	if op.Next.IsNil() {
		return &step{labels: next, depth: depth, unres: false}, nil
	}
	return walk(s, op.Next, depth+1, maxDepth, next)
}

func walkEcmp(s *store.Store, n *store.Node, depth int, maxDepth int, labelsSoFar []store.Label) (*step, error) {
	var members []MemberAssembly
	for pos, live := range n.Ecmp.MemberLive {
		if !live || n.Ecmp.Members[pos].IsNil() {
			continue
		}
		sub, err := walk(s, n.Ecmp.Members[pos], depth+1, maxDepth, labelsSoFar)
		if err != nil {
			return nil, err
		}
		members = append(members, MemberAssembly{Position: pos, Member: n.Ecmp.Members[pos], Assembly: finalize(sub)})
	}
	if len(members) == 0 {
		return &step{depth: depth, unres: true}, nil
	}
	return &step{
		depth: depth,
		ecmp: &EcmpDecision{
			Handle:   n.Handle,
			HashMode: n.Ecmp.HashMode,
			Members:  members,
		},
	}, nil
}

func walkFrr(s *store.Store, n *store.Node, depth int, maxDepth int, labelsSoFar []store.Label) (*step, error) {
	primary, err := walk(s, n.Frr.Primary, depth+1, maxDepth, labelsSoFar)
	if err != nil {
		return nil, err
	}
	backup, err := walk(s, n.Frr.Backup, depth+1, maxDepth, labelsSoFar)
	if err != nil {
		return nil, err
	}
	if primary.unres && backup.unres {
		return &step{depth: depth, unres: true}, nil
	}
	return &step{
		depth: depth,
		frr: &FrrDecision{
			Handle:  n.Handle,
			Primary: finalize(primary),
			Backup:  finalize(backup),
		},
	}, nil
}
