package pic

import (
	"context"

	"github.com/routingfib/corefib/internal/fib/frr"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/routingfib/corefib/internal/fib/walk/dependent"
)

// OnRemoteNextHopLivenessChange observes a BFD/peer-down (or recovery)
// signal for one or both branches of an FrrProtected pair, applies
// whatever FrrState transition it implies, and — only if the active
// branch actually changed — drives a single HardwareOnly dependent walk
// from the FrrProtected node to flip the protected-FEC's active
// pointer. Routes resolving through it are never walked individually.
func OnRemoteNextHopLivenessChange(ctx context.Context, s *store.Store, h handle.Handle, primaryLive, backupLive bool, update dependent.Updater) (changed bool, outcome dependent.Outcome, err error) {
	changed, _, err = frr.Transition(s, h, primaryLive, backupLive)
	if err != nil {
		return false, dependent.Outcome{}, err
	}
	if !changed {
		return false, dependent.Outcome{}, nil
	}
	out, err := dependent.Walk(ctx, s, h, dependent.Modified, dependent.HardwareOnly, 0, update)
	return true, out, err
}

// OnFailback applies an explicit Failback for a non-revertive pair and,
// if it actually moved the active branch, drives the same HardwareOnly
// confirmation walk.
func OnFailback(ctx context.Context, s *store.Store, h handle.Handle, update dependent.Updater) (changed bool, outcome dependent.Outcome, err error) {
	changed, err = frr.Failback(s, h)
	if err != nil {
		return false, dependent.Outcome{}, err
	}
	if !changed {
		return false, dependent.Outcome{}, nil
	}
	out, err := dependent.Walk(ctx, s, h, dependent.Modified, dependent.HardwareOnly, 0, update)
	return true, out, err
}
