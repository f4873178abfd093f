package ecmp

import (
	"testing"

	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func directHop(t *testing.T, s *store.Store, port uint32) handle.Handle {
	t.Helper()
	h, err := s.Insert(store.Fields{
		Kind: handle.KindDirectNextHop,
		Direct: &store.DirectNextHop{
			EgressPort: port,
			Reachable:  true,
		},
	})
	require.NoError(t, err)
	return h
}

func TestCreateSizesResilientTable(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1), directHop(t, s, 2), directHop(t, s, 3)}

	g, err := Create(s, store.HashL3, 4, members)
	require.NoError(t, err)

	n, err := s.Get(g)
	require.NoError(t, err)
	require.Len(t, n.Ecmp.ResilientTable, 256, "smallest power of two >= 64*4")
}

func TestSelectDistributesAcrossAllMembers(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1), directHop(t, s, 2), directHop(t, s, 3), directHop(t, s, 4)}
	g, err := Create(s, store.HashL3, 4, members)
	require.NoError(t, err)

	n, _ := s.Get(g)
	seen := map[handle.Handle]bool{}
	for i := 0; i < 2000; i++ {
		key := HashKey([]byte{byte(i), byte(i >> 8), byte(i >> 16), byte(i >> 24)})
		m, _, err := Select(n.Ecmp, key)
		require.NoError(t, err)
		seen[m] = true
	}
	require.Len(t, seen, 4, "every live member should eventually be selected")
}

func TestMarkMemberDownRedistributesOnlyAffectedEntries(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1), directHop(t, s, 2), directHop(t, s, 3), directHop(t, s, 4)}
	g, err := Create(s, store.HashL3, 4, members)
	require.NoError(t, err)

	before, _ := s.Get(g)
	beforeTable := append([]int32(nil), before.Ecmp.ResilientTable...)

	require.NoError(t, MarkMemberDown(s, g, 1))

	after, _ := s.Get(g)
	changed := 0
	for i := range beforeTable {
		if beforeTable[i] != after.Ecmp.ResilientTable[i] {
			changed++
			require.EqualValues(t, 1, beforeTable[i], "only entries that pointed at the failed member should move")
			require.NotEqualValues(t, 1, after.Ecmp.ResilientTable[i], "redistributed entries must not still point at the dead member")
		}
	}
	require.Greater(t, changed, 0)

	// No entry should still reference the dead position.
	for _, pos := range after.Ecmp.ResilientTable {
		require.NotEqualValues(t, 1, pos)
	}
}

func TestMarkMemberUpDoesNotDisturbExistingEntries(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1), directHop(t, s, 2), directHop(t, s, 3), directHop(t, s, 4)}
	g, err := Create(s, store.HashL3, 4, members)
	require.NoError(t, err)
	require.NoError(t, MarkMemberDown(s, g, 1))

	afterDown, _ := s.Get(g)
	snapshot := append([]int32(nil), afterDown.Ecmp.ResilientTable...)

	require.NoError(t, MarkMemberUp(s, g, 1))
	afterUp, _ := s.Get(g)
	require.Equal(t, snapshot, afterUp.Ecmp.ResilientTable, "bringing a member back must not move already-assigned flows")
}

func TestRemoveMemberLeavesPermanentHole(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1), directHop(t, s, 2)}
	g, err := Create(s, store.HashL3, 2, members)
	require.NoError(t, err)

	freed, err := RemoveMember(s, g, 0)
	require.NoError(t, err)
	require.Len(t, freed, 1, "the removed member had no other referent and is destroyed")

	n, _ := s.Get(g)
	require.Len(t, n.Ecmp.Members, 2)
	require.True(t, n.Ecmp.Members[0].IsNil())
	require.Equal(t, members[1], n.Ecmp.Members[1])
}

func TestSelectNoLiveMember(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1)}
	g, err := Create(s, store.HashL3, 1, members)
	require.NoError(t, err)
	require.NoError(t, MarkMemberDown(s, g, 0))

	n, _ := s.Get(g)
	_, _, err = Select(n.Ecmp, HashKey([]byte("x")))
	require.ErrorIs(t, err, ErrNoLiveMember)
}

func TestAddMemberRespectsEcmpFull(t *testing.T) {
	s := store.New(store.Config{})
	members := []handle.Handle{directHop(t, s, 1)}
	g, err := Create(s, store.HashL3, 1, members)
	require.NoError(t, err)

	_, err = AddMember(s, g, directHop(t, s, 2))
	require.Error(t, err)
}
