package frr

import (
	"testing"

	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func directHop(t *testing.T, s *store.Store) handle.Handle {
	t.Helper()
	h, err := s.Insert(store.Fields{Kind: handle.KindDirectNextHop, Direct: &store.DirectNextHop{Reachable: true}})
	require.NoError(t, err)
	return h
}

func TestFailoverToBackupOnPrimaryDown(t *testing.T) {
	s := store.New(store.Config{})
	p, b := directHop(t, s), directHop(t, s)
	h, err := Create(s, p, b, store.ProtectionLink, 50, true)
	require.NoError(t, err)

	changed, state, err := Transition(s, h, false, true)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, store.UsingBackup, state)
}

func TestBothFailedWhenBackupAlsoDown(t *testing.T) {
	s := store.New(store.Config{})
	p, b := directHop(t, s), directHop(t, s)
	h, err := Create(s, p, b, store.ProtectionLink, 50, true)
	require.NoError(t, err)

	_, _, err = Transition(s, h, false, true)
	require.NoError(t, err)
	changed, state, err := Transition(s, h, false, false)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, store.BothFailed, state)
}

func TestRevertiveReturnsToPrimaryAutomatically(t *testing.T) {
	s := store.New(store.Config{})
	p, b := directHop(t, s), directHop(t, s)
	h, err := Create(s, p, b, store.ProtectionLink, 50, true)
	require.NoError(t, err)

	_, _, err = Transition(s, h, false, true)
	require.NoError(t, err)

	changed, state, err := Transition(s, h, true, true)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, store.UsingPrimary, state)
}

func TestNonRevertiveStaysOnBackupUntilFailback(t *testing.T) {
	s := store.New(store.Config{})
	p, b := directHop(t, s), directHop(t, s)
	h, err := Create(s, p, b, store.ProtectionLink, 50, false)
	require.NoError(t, err)

	_, _, err = Transition(s, h, false, true)
	require.NoError(t, err)

	changed, state, err := Transition(s, h, true, true)
	require.NoError(t, err)
	require.False(t, changed, "non-revertive pair must not auto-revert")
	require.Equal(t, store.UsingBackup, state)

	didFailback, err := Failback(s, h)
	require.NoError(t, err)
	require.True(t, didFailback)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, store.UsingPrimary, n.Frr.State)
}

func TestActiveBranch(t *testing.T) {
	s := store.New(store.Config{})
	p, b := directHop(t, s), directHop(t, s)
	h, err := Create(s, p, b, store.ProtectionLink, 50, true)
	require.NoError(t, err)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, p, ActiveBranch(n.Frr))

	_, _, err = Transition(s, h, false, true)
	require.NoError(t, err)
	n, _ = s.Get(h)
	require.Equal(t, b, ActiveBranch(n.Frr))
}
