package routetable

import (
	"testing"

	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func TestInsertReportsAddedThenModified(t *testing.T) {
	m := NewMemory()
	h := handle.New(handle.KindDirectNextHop, 0, 1)

	change, err := m.Insert(1, "10.0.0.0/24", h)
	require.NoError(t, err)
	require.Equal(t, ChangeAdded, change.Kind)

	change, err = m.Insert(1, "10.0.0.0/24", h)
	require.NoError(t, err)
	require.Equal(t, ChangeModified, change.Kind)
}

func TestInsertRejectsInvalidCIDR(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(1, "not-a-cidr", handle.Nil)
	require.Error(t, err)
}

func TestLookupReturnsMostSpecificCoveringPrefix(t *testing.T) {
	m := NewMemory()
	broad := handle.New(handle.KindDirectNextHop, 0, 1)
	narrow := handle.New(handle.KindDirectNextHop, 0, 2)

	_, err := m.Insert(1, "10.0.0.0/8", broad)
	require.NoError(t, err)
	_, err = m.Insert(2, "10.255.0.0/24", narrow)
	require.NoError(t, err)

	prefixLen, resolution, routeID, ok := m.Lookup(store.FamilyIPv4, []byte{10, 255, 0, 5}, 32)
	require.True(t, ok)
	require.Equal(t, 24, prefixLen)
	require.Equal(t, narrow, resolution)
	require.Equal(t, store.RouteID(2), routeID)
}

func TestLookupRespectsMaxPrefixLen(t *testing.T) {
	m := NewMemory()
	broad := handle.New(handle.KindDirectNextHop, 0, 1)
	narrow := handle.New(handle.KindDirectNextHop, 0, 2)
	_, _ = m.Insert(1, "10.0.0.0/8", broad)
	_, _ = m.Insert(2, "10.255.0.0/24", narrow)

	prefixLen, resolution, routeID, ok := m.Lookup(store.FamilyIPv4, []byte{10, 255, 0, 5}, 16)
	require.True(t, ok)
	require.Equal(t, 8, prefixLen)
	require.Equal(t, broad, resolution)
	require.Equal(t, store.RouteID(1), routeID)
}

func TestLookupMissReturnsNotOK(t *testing.T) {
	m := NewMemory()
	_, _, _, ok := m.Lookup(store.FamilyIPv4, []byte{192, 168, 1, 1}, 32)
	require.False(t, ok)
}

func TestRemoveWithdrawsRouteFromLookup(t *testing.T) {
	m := NewMemory()
	h := handle.New(handle.KindDirectNextHop, 0, 1)
	_, err := m.Insert(1, "10.0.0.0/24", h)
	require.NoError(t, err)

	change := m.Remove(1)
	require.Equal(t, ChangeWithdrawn, change.Kind)

	_, _, _, ok := m.Lookup(store.FamilyIPv4, []byte{10, 0, 0, 1}, 32)
	require.False(t, ok)
}

func TestSubscribeReturnsNoOpUnsubscribe(t *testing.T) {
	m := NewMemory()
	unsubscribe := m.Subscribe(store.FamilyIPv4, []byte{10, 0, 0, 0})
	require.NotPanics(t, unsubscribe)
}
