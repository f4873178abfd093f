package dependent

import (
	"context"
	"errors"
	"testing"

	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

// chain builds d <- l1 <- l2, i.e. l2's Next is l1, l1's Next is d.
func chain(t *testing.T) (*store.Store, handle.Handle, handle.Handle, handle.Handle) {
	t.Helper()
	s := store.New(store.Config{})
	d, err := s.Insert(store.Fields{Kind: handle.KindDirectNextHop, Direct: &store.DirectNextHop{Reachable: true}})
	require.NoError(t, err)
	l1, err := s.Insert(store.Fields{Kind: handle.KindLabelOperation, Label: &store.LabelOperation{Op: store.OpPush, Next: d}})
	require.NoError(t, err)
	l2, err := s.Insert(store.Fields{Kind: handle.KindLabelOperation, Label: &store.LabelOperation{Op: store.OpPush, Next: l1}})
	require.NoError(t, err)
	return s, d, l1, l2
}

func TestFullStrategyVisitsAllTransitiveDependents(t *testing.T) {
	s, d, l1, l2 := chain(t)
	var order []handle.Handle
	update := UpdaterFunc(func(_ context.Context, n *store.Node, _ ChangeKind) error {
		order = append(order, n.Handle)
		return nil
	})

	out, err := Walk(context.Background(), s, d, Modified, Full, 0, update)
	require.NoError(t, err)
	require.ElementsMatch(t, []handle.Handle{l1, l2}, out.Visited)
	require.False(t, out.PartiallyApplied)
}

func TestImmediateStrategyOnlyDirectDependents(t *testing.T) {
	s, d, l1, _ := chain(t)
	update := UpdaterFunc(func(_ context.Context, n *store.Node, _ ChangeKind) error { return nil })

	out, err := Walk(context.Background(), s, d, Modified, Immediate, 0, update)
	require.NoError(t, err)
	require.Equal(t, []handle.Handle{l1}, out.Visited)
}

func TestHardwareOnlyStrategySkipsUnprogrammedNodes(t *testing.T) {
	s, d, l1, l2 := chain(t)
	require.NoError(t, s.SetHwResource(l1, store.HwResource{Programmed: true}))

	update := UpdaterFunc(func(_ context.Context, n *store.Node, _ ChangeKind) error { return nil })
	out, err := Walk(context.Background(), s, d, Modified, HardwareOnly, 0, update)
	require.NoError(t, err)
	require.Equal(t, []handle.Handle{l1}, out.Visited)
	require.NotContains(t, out.Visited, l2)
}

func TestUpdateFailureMarksRemainingStale(t *testing.T) {
	s, d, l1, l2 := chain(t)
	failOn := l1
	update := UpdaterFunc(func(_ context.Context, n *store.Node, _ ChangeKind) error {
		if n.Handle == failOn {
			return errors.New("hal failure")
		}
		return nil
	})

	out, err := Walk(context.Background(), s, d, Modified, Full, 0, update)
	require.NoError(t, err)
	require.True(t, out.PartiallyApplied)
	require.Contains(t, out.Stale, l1)
	require.Contains(t, out.Stale, l2, "l2 has not yet been migrated when l1 (its dependency chain ancestor) fails")
}
