package sim

import (
	"context"
	"testing"

	"github.com/routingfib/corefib/internal/fib/hal"
	"github.com/stretchr/testify/require"
)

func TestAllocProgramFreeRoundTrip(t *testing.T) {
	s := New(hal.Capabilities{SupportsEedbChaining: true, SupportsBackupFec: true})
	ctx := context.Background()

	eedb, err := s.AllocEedb(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ProgramL2Rewrite(ctx, eedb, hal.L2Rewrite{Port: 5}))

	fec, err := s.AllocFec(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ProgramFecSimple(ctx, fec, eedb, 5))

	fecs, eedbs, _ := s.Counts()
	require.Equal(t, 1, fecs)
	require.Equal(t, 1, eedbs)

	require.NoError(t, s.FreeFec(ctx, fec))
	require.NoError(t, s.FreeEedb(ctx, eedb))
	fecs, eedbs, _ = s.Counts()
	require.Zero(t, fecs)
	require.Zero(t, eedbs)
}

func TestDoubleFreeRejected(t *testing.T) {
	s := New(hal.Capabilities{})
	ctx := context.Background()

	fec, err := s.AllocFec(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FreeFec(ctx, fec))
	require.Error(t, s.FreeFec(ctx, fec), "a double free is a programming bug the simulator must surface")
}

func TestLabelChainMustReferenceAllocatedNext(t *testing.T) {
	s := New(hal.Capabilities{SupportsEedbChaining: true})
	ctx := context.Background()

	eedb, err := s.AllocEedb(ctx)
	require.NoError(t, err)
	err = s.ProgramLabelEedb(ctx, eedb, hal.LabelEntry{Label: 100}, hal.EedbID(999))
	require.Error(t, err)
}

func TestSetActiveRequiresProtectedFec(t *testing.T) {
	s := New(hal.Capabilities{SupportsBackupFec: true})
	ctx := context.Background()

	eedb, err := s.AllocEedb(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ProgramL2Rewrite(ctx, eedb, hal.L2Rewrite{Port: 1}))
	fec, err := s.AllocFec(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ProgramFecSimple(ctx, fec, eedb, 1))

	require.Error(t, s.SetActive(ctx, fec, hal.Backup))

	p, err := s.AllocFec(ctx)
	require.NoError(t, err)
	b, err := s.AllocFec(ctx)
	require.NoError(t, err)
	prot, err := s.AllocFec(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ProgramFecProtected(ctx, prot, p, b))
	require.NoError(t, s.SetActive(ctx, prot, hal.Backup))
}

func TestEcmpMemberLimitEnforced(t *testing.T) {
	s := New(hal.Capabilities{MaxMembersPerEcmp: 4})
	ctx := context.Background()

	_, err := s.AllocEcmp(ctx, 8)
	require.Error(t, err)

	id, err := s.AllocEcmp(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, s.UpdateEcmpMembers(ctx, id, []bool{true, true, false, true}, []int32{0, 1, 3, 0}))
}
