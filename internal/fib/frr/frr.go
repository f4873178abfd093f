// Package frr implements the FrrProtected state machine: which branch
// of a preinstalled primary/backup pair is the active forwarding
// choice, and how liveness changes on either branch move between
// UsingPrimary, UsingBackup and BothFailed.
package frr

import (
	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
)

// Create inserts a new FrrProtected pair, starting in UsingPrimary
// (primary is assumed live at install time; callers that install with a
// known-down primary should immediately call Transition).
func Create(s *store.Store, primary, backup handle.Handle, protection store.ProtectionType, detectionMS uint16, revertive bool) (handle.Handle, error) {
	return s.Insert(store.Fields{
		Kind: handle.KindFrrProtected,
		Frr: &store.FrrProtected{
			Primary:     primary,
			Backup:      backup,
			Protection:  protection,
			State:       store.UsingPrimary,
			DetectionMS: detectionMS,
			Revertive:   revertive,
		},
	})
}

// next computes the state transition for a liveness observation,
// honoring the per-object Revertive policy: a non-revertive pair stays
// on the backup branch once failed over, even after the primary
// recovers, until an explicit Failback call.
func next(current store.FrrState, revertive bool, primaryLive, backupLive bool) store.FrrState {
	if primaryLive {
		if current == store.UsingBackup && !revertive {
			return store.UsingBackup
		}
		return store.UsingPrimary
	}
	if backupLive {
		return store.UsingBackup
	}
	return store.BothFailed
}

// Transition observes a liveness change on either branch and applies
// whatever state transition it implies, persisting the new state if it
// differs from the current one. Returns whether the state actually
// changed, which the orchestrator uses to decide whether a
// HardwareOnly dependent walk (PIC Edge) is warranted.
func Transition(s *store.Store, h handle.Handle, primaryLive, backupLive bool) (changed bool, newState store.FrrState, err error) {
	n, err := s.Get(h)
	if err != nil {
		return false, 0, err
	}
	if n.Kind != handle.KindFrrProtected {
		return false, 0, ferrors.ErrInvalidArgument
	}
	want := next(n.Frr.State, n.Frr.Revertive, primaryLive, backupLive)
	if want == n.Frr.State {
		return false, n.Frr.State, nil
	}
	if err := s.SetFrrState(store.FrrCapability, h, want); err != nil {
		return false, 0, err
	}
	return true, want, nil
}

// Failback forces a non-revertive pair currently on the backup branch
// back onto the primary, e.g. after an operator confirms the primary
// path has been re-verified stable. It is a no-op (returns changed =
// false) for a revertive pair, which already reverts automatically.
func Failback(s *store.Store, h handle.Handle) (changed bool, err error) {
	n, err := s.Get(h)
	if err != nil {
		return false, err
	}
	if n.Kind != handle.KindFrrProtected {
		return false, ferrors.ErrInvalidArgument
	}
	if n.Frr.Revertive || n.Frr.State != store.UsingBackup {
		return false, nil
	}
	if err := s.SetFrrState(store.FrrCapability, h, store.UsingPrimary); err != nil {
		return false, err
	}
	return true, nil
}

// ActiveBranch returns the handle of whichever branch is currently
// forwarding, or handle.Nil if BothFailed.
func ActiveBranch(n *store.FrrProtected) handle.Handle {
	switch n.State {
	case store.UsingPrimary:
		return n.Primary
	case store.UsingBackup:
		return n.Backup
	default:
		return handle.Nil
	}
}
