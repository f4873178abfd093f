// Package recursive implements RecursiveNextHop resolution against an
// external LPM route table: issuing the lookup, bounding
// recursion depth, and reporting the transition so the orchestrator can
// decide whether a dependent walk is needed.
package recursive

import (
	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
)

// DefaultMaxRecursionDepth bounds chained RecursiveNextHop resolution
// (a recursive next-hop resolving to another recursive next-hop) before
// RecursionExceeded is raised, guarding against a route table that
// forms a resolution loop external to the node store itself.
const DefaultMaxRecursionDepth = 5

// Outcome classifies how a resolution attempt changed a RecursiveNextHop,
// mirroring the BecameUnresolved/BecameResolved/Modified/Unchanged
// vocabulary used for that transition.
type Outcome uint8

const (
	Unchanged Outcome = iota
	BecameResolved
	BecameUnresolved
	Modified
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "Unchanged"
	case BecameResolved:
		return "BecameResolved"
	case BecameUnresolved:
		return "BecameUnresolved"
	case Modified:
		return "Modified"
	default:
		return "UnknownOutcome"
	}
}

// Result reports the effect of a single Resolve call.
type Result struct {
	Outcome    Outcome
	ResolvedTo handle.Handle
	RouteID    store.RouteID
	// Freed lists nodes destroyed when the previous resolution target
	// lost its last reference; the orchestrator frees their hardware.
	Freed []store.Freed
}

// Resolve performs (or re-performs) the LPM lookup for the
// RecursiveNextHop at h and updates its resolved_to edge accordingly.
// When the covering route's own resolution is itself a RecursiveNextHop,
// resolution follows it, incrementing depth at each hop; exceeding
// maxDepth (0 means DefaultMaxRecursionDepth) fails with
// RecursionExceeded, which is how a self-resolving route table loop is
// rejected. Resolve is idempotent: re-resolving an already-resolved
// next-hop against an unchanged route table yields Unchanged and
// mutates nothing.
func Resolve(s *store.Store, rt routetable.LpmRouteTable, h handle.Handle, maxPrefixLen, maxDepth int) (Result, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxRecursionDepth
	}
	n, err := s.Get(h)
	if err != nil {
		return Result{}, err
	}
	if n.Kind != handle.KindRecursiveNextHop {
		return Result{}, ferrors.ErrInvalidArgument
	}
	depth := int(n.Recursive.RecursionDepth)
	if depth >= maxDepth {
		return Result{}, ferrors.ErrRecursionExceeded
	}

	family, address := n.Recursive.Family, n.Recursive.Address
	wasResolved := n.Recursive.ResolvedTo != nil

	// resolved_to is set to the first lookup's answer; the loop below
	// only follows chained RecursiveNextHops to prove the chain
	// terminates within the depth budget. Each chained hop costs one
	// depth level, so a route table that resolves an address through
	// itself burns through the budget and is rejected here instead of
	// spinning.
	var resolution handle.Handle
	var routeID store.RouteID
	first := true
	for {
		_, res, rid, ok := rt.Lookup(family, address, maxPrefixLen)
		if !ok {
			if first {
				resolution = handle.Nil
			}
			break
		}
		if first {
			resolution, routeID = res, rid
			first = false
		}

		rn, err := s.Get(res)
		if err != nil {
			return Result{}, err
		}
		if rn.Kind != handle.KindRecursiveNextHop {
			break
		}
		depth++
		if depth >= maxDepth {
			return Result{}, ferrors.ErrRecursionExceeded
		}
		if rn.Recursive.ResolvedTo != nil {
			// Already settled further down; resolving through it is fine.
			break
		}
		family, address = rn.Recursive.Family, rn.Recursive.Address
	}

	if resolution.IsNil() {
		if !wasResolved {
			return Result{Outcome: Unchanged}, nil
		}
		freed, err := s.SetResolvedTo(store.RecursiveCapability, h, handle.Nil)
		if err != nil {
			return Result{}, err
		}
		if err := s.SetResolvingRouteID(store.RecursiveCapability, h, nil); err != nil {
			return Result{}, err
		}
		return Result{Outcome: BecameUnresolved, Freed: freed}, nil
	}

	if wasResolved && *n.Recursive.ResolvedTo == resolution && n.Recursive.ResolvingRouteID != nil && *n.Recursive.ResolvingRouteID == routeID {
		return Result{Outcome: Unchanged, ResolvedTo: resolution, RouteID: routeID}, nil
	}

	freed, err := s.SetResolvedTo(store.RecursiveCapability, h, resolution)
	if err != nil {
		return Result{}, err
	}
	if err := s.SetResolvingRouteID(store.RecursiveCapability, h, &routeID); err != nil {
		return Result{}, err
	}

	outcome := Modified
	if !wasResolved {
		outcome = BecameResolved
	}
	return Result{Outcome: outcome, ResolvedTo: resolution, RouteID: routeID, Freed: freed}, nil
}

// Create inserts a new, initially unresolved RecursiveNextHop.
func Create(s *store.Store, family store.Family, address []byte) (handle.Handle, error) {
	addr := append([]byte(nil), address...)
	return s.Insert(store.Fields{
		Kind: handle.KindRecursiveNextHop,
		Recursive: &store.RecursiveNextHop{
			Family:  family,
			Address: addr,
		},
	})
}
