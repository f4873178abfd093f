// Package dependent implements the dependent walk: breadth-first
// propagation of a change up the reverse-edge graph, driving hardware
// reprogramming in children-before-parents order with make-before-break
// sequencing.
package dependent

import (
	"context"

	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
)

// ChangeKind classifies why a dependent walk was triggered.
type ChangeKind uint8

const (
	Created ChangeKind = iota
	Modified
	Deleted
	BecameUnresolved
	BecameResolved
	MacChanged
	InterfaceDown
	InterfaceUp
)

// Strategy bounds which dependents a walk actually notifies.
type Strategy uint8

const (
	// Full notifies every transitive dependent.
	Full Strategy = iota
	// Immediate notifies only direct dependents (level 1).
	Immediate
	// Conditional notifies only dependents whose reverse edge is marked
	// RequiresHWUpdate.
	Conditional
	// HardwareOnly notifies only dependents that currently hold
	// programmed hardware resources — the strategy PIC Core and PIC Edge
	// use to keep convergence cost independent of route count.
	HardwareOnly
)

// Updater is the orchestrator-supplied hook that reprograms hardware for
// a single notified dependent. The walk calls it in children-before-
// parents order and never retries on failure itself.
type Updater interface {
	Update(ctx context.Context, n *store.Node, kind ChangeKind) error
}

// UpdaterFunc adapts a plain function to Updater.
type UpdaterFunc func(ctx context.Context, n *store.Node, kind ChangeKind) error

func (f UpdaterFunc) Update(ctx context.Context, n *store.Node, kind ChangeKind) error {
	return f(ctx, n, kind)
}

// Outcome reports what a walk actually touched.
type Outcome struct {
	Visited          []handle.Handle
	Stale            []handle.Handle
	PartiallyApplied bool
}

type queued struct {
	h     handle.Handle
	level int
	edge  store.DependentEdge
}

// Walk breadth-first traverses the reverse-edge graph rooted at
// changed, applying strategy's filter at each notified node and calling
// update for every node that qualifies. A per-dependent update failure
// does not abort the walk: the walk keeps going but marks every
// not-yet-migrated dependent Stale and reports PartiallyApplied instead
// of aborting halfway through.
func Walk(ctx context.Context, s *store.Store, changed handle.Handle, kind ChangeKind, strategy Strategy, maxLevels int, update Updater) (Outcome, error) {
	if maxLevels <= 0 {
		maxLevels = 1 << 30
	}
	out := Outcome{}
	visited := map[handle.Handle]bool{changed: true}

	first, err := s.Dependents(changed)
	if err != nil {
		return out, err
	}
	queue := make([]queued, 0, len(first))
	for _, e := range first {
		queue = append(queue, queued{h: e.DependentHandle, level: 1, edge: e})
	}

	failed := false
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if visited[item.h] {
			continue
		}
		visited[item.h] = true

		if item.level > maxLevels {
			continue
		}

		n, err := s.Get(item.h)
		if err != nil {
			continue
		}

		qualifies, err := qualifies(strategy, item, n)
		if err != nil {
			return out, err
		}

		if qualifies {
			if failed {
				out.Stale = append(out.Stale, item.h)
			} else if err := update.Update(ctx, n, kind); err != nil {
				failed = true
				out.PartiallyApplied = true
				out.Stale = append(out.Stale, item.h)
			} else {
				out.Visited = append(out.Visited, item.h)
			}
		}

		if strategy == Immediate {
			continue
		}

		next, err := s.Dependents(item.h)
		if err != nil {
			continue
		}
		for _, e := range next {
			if !visited[e.DependentHandle] {
				queue = append(queue, queued{h: e.DependentHandle, level: item.level + 1, edge: e})
			}
		}
	}

	return out, nil
}

func qualifies(strategy Strategy, item queued, n *store.Node) (bool, error) {
	switch strategy {
	case Full:
		return true, nil
	case Immediate:
		return item.level == 1, nil
	case Conditional:
		return item.edge.RequiresHWUpdate, nil
	case HardwareOnly:
		return n.Hw.Programmed, nil
	default:
		return false, nil
	}
}
