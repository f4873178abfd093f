// Package pic implements PIC Core and PIC Edge: the convergence
// primitives that keep hardware-update cost independent of how many
// routes share a failed IGP path or a failed remote next-hop.
package pic

import (
	"context"

	"github.com/routingfib/corefib/internal/fib/ecmp"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/routingfib/corefib/internal/fib/walk/dependent"
)

// OnIgpPathDown marks the ECMP member at pos (one IGP path of a shared
// group resolving possibly millions of overlay routes) down and drives
// a single HardwareOnly dependent walk from the group itself — never
// touching the routes that merely resolve through it. Convergence cost
// is O(dependents of the group that hold hardware resources), not
// O(routes).
func OnIgpPathDown(ctx context.Context, s *store.Store, group handle.Handle, pos int, update dependent.Updater) (dependent.Outcome, error) {
	if err := ecmp.MarkMemberDown(s, group, pos); err != nil {
		return dependent.Outcome{}, err
	}
	return dependent.Walk(ctx, s, group, dependent.Modified, dependent.HardwareOnly, 0, update)
}

// OnIgpPathUp is the recovery counterpart of OnIgpPathDown.
func OnIgpPathUp(ctx context.Context, s *store.Store, group handle.Handle, pos int, update dependent.Updater) (dependent.Outcome, error) {
	if err := ecmp.MarkMemberUp(s, group, pos); err != nil {
		return dependent.Outcome{}, err
	}
	return dependent.Walk(ctx, s, group, dependent.Modified, dependent.HardwareOnly, 0, update)
}
