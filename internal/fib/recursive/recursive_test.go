package recursive

import (
	"testing"

	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func directHop(t *testing.T, s *store.Store) handle.Handle {
	t.Helper()
	h, err := s.Insert(store.Fields{Kind: handle.KindDirectNextHop, Direct: &store.DirectNextHop{Reachable: true, EgressPort: 1}})
	require.NoError(t, err)
	return h
}

func TestResolveBecomesResolved(t *testing.T) {
	s := store.New(store.Config{})
	rt := routetable.NewMemory()
	d := directHop(t, s)
	_, err := rt.Insert(1, "10.0.0.0/24", d)
	require.NoError(t, err)

	rnh, err := Create(s, store.FamilyIPv4, []byte{10, 0, 0, 1})
	require.NoError(t, err)

	res, err := Resolve(s, rt, rnh, 32, 0)
	require.NoError(t, err)
	require.Equal(t, BecameResolved, res.Outcome)
	require.Equal(t, d, res.ResolvedTo)
}

func TestResolveIdempotentWhenUnchanged(t *testing.T) {
	s := store.New(store.Config{})
	rt := routetable.NewMemory()
	d := directHop(t, s)
	_, err := rt.Insert(1, "10.0.0.0/24", d)
	require.NoError(t, err)

	rnh, err := Create(s, store.FamilyIPv4, []byte{10, 0, 0, 1})
	require.NoError(t, err)

	_, err = Resolve(s, rt, rnh, 32, 0)
	require.NoError(t, err)

	res, err := Resolve(s, rt, rnh, 32, 0)
	require.NoError(t, err)
	require.Equal(t, Unchanged, res.Outcome)
}

func TestResolveBecomesUnresolvedOnWithdraw(t *testing.T) {
	s := store.New(store.Config{})
	rt := routetable.NewMemory()
	d := directHop(t, s)
	_, err := rt.Insert(1, "10.0.0.0/24", d)
	require.NoError(t, err)
	rnh, err := Create(s, store.FamilyIPv4, []byte{10, 0, 0, 1})
	require.NoError(t, err)
	_, err = Resolve(s, rt, rnh, 32, 0)
	require.NoError(t, err)

	rt.Remove(1)
	res, err := Resolve(s, rt, rnh, 32, 0)
	require.NoError(t, err)
	require.Equal(t, BecameUnresolved, res.Outcome)
}

func TestResolveSelfLoopExceedsRecursionDepth(t *testing.T) {
	s := store.New(store.Config{})
	rt := routetable.NewMemory()
	rnh, err := Create(s, store.FamilyIPv4, []byte{10, 255, 0, 5})
	require.NoError(t, err)

	// The covering route for the next-hop's own address resolves back
	// through the next-hop itself, so following the chain never
	// terminates and must burn through the depth budget.
	_, err = rt.Insert(7, "10.255.0.5/32", rnh)
	require.NoError(t, err)

	_, err = Resolve(s, rt, rnh, 32, 0)
	require.ErrorIs(t, err, ferrors.ErrRecursionExceeded)

	n, err := s.Get(rnh)
	require.NoError(t, err)
	require.Nil(t, n.Recursive.ResolvedTo, "a rejected resolution must not leave a partial edge")
}

func TestResolveRecordsResolvingRouteID(t *testing.T) {
	s := store.New(store.Config{})
	rt := routetable.NewMemory()
	d := directHop(t, s)
	_, err := rt.Insert(42, "10.0.0.0/24", d)
	require.NoError(t, err)

	rnh, err := Create(s, store.FamilyIPv4, []byte{10, 0, 0, 1})
	require.NoError(t, err)

	res, err := Resolve(s, rt, rnh, 32, 0)
	require.NoError(t, err)
	require.EqualValues(t, 42, res.RouteID)

	n, err := s.Get(rnh)
	require.NoError(t, err)
	require.NotNil(t, n.Recursive.ResolvingRouteID)
	require.EqualValues(t, 42, *n.Recursive.ResolvingRouteID)
}

func TestResolveRecursionExceeded(t *testing.T) {
	s := store.New(store.Config{})
	rt := routetable.NewMemory()
	rnh, err := Create(s, store.FamilyIPv4, []byte{10, 0, 0, 1})
	require.NoError(t, err)

	n, err := s.Get(rnh)
	require.NoError(t, err)
	n.Recursive.RecursionDepth = DefaultMaxRecursionDepth

	_, err = Resolve(s, rt, rnh, 32, 0)
	require.ErrorIs(t, err, ferrors.ErrRecursionExceeded)
}
