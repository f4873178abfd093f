package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/fibtest"
	"github.com/routingfib/corefib/internal/fib/hal"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAssignsMonotonicSequence(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	key := fib.RouteKey{Prefix: "10.0.0.0", PrefixLen: 24}
	require.NoError(t, j.Append(ctx, Entry{Op: OpInstall, Key: key}))
	require.NoError(t, j.Append(ctx, Entry{Op: OpWithdraw, Key: key}))

	require.Equal(t, uint64(2), j.seq)
}

func TestOpenResumesSequenceAfterReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	ctx := context.Background()

	j, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, Entry{Op: OpInstall, Key: fib.RouteKey{Prefix: "a", PrefixLen: 8}}))
	require.NoError(t, j.Close())

	j2, err := Open(dir)
	require.NoError(t, err)
	defer j2.Close()
	require.Equal(t, uint64(1), j2.seq)

	require.NoError(t, j2.Append(ctx, Entry{Op: OpInstall, Key: fib.RouteKey{Prefix: "b", PrefixLen: 8}}))
	require.Equal(t, uint64(2), j2.seq)
}

func TestReplayReissuesInstallAndWithdraw(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true, SupportsBackupFec: true})
	core := fib.New(fib.Config{}, h, routetable.NewMemory(), fib.NopEventSink{})

	root, err := core.Store().Insert(store.Fields{
		Kind:   handle.KindDirectNextHop,
		Direct: &store.DirectNextHop{EgressPort: 7, Reachable: true},
	})
	require.NoError(t, err)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "10.0.0.0", PrefixLen: 24}
	require.NoError(t, j.Append(ctx, Entry{Op: OpInstall, Key: key, Root: root}))
	require.NoError(t, j.Append(ctx, Entry{Op: OpWithdraw, Key: key}))

	require.NoError(t, Replay(ctx, j, core))
	require.Equal(t, 0, core.Store().Len(), "install then withdraw should return the store to empty")
}

func TestReplayRejectsUnknownOp(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	h := fibtest.NewMockHAL(hal.Capabilities{})
	core := fib.New(fib.Config{}, h, routetable.NewMemory(), fib.NopEventSink{})

	require.NoError(t, j.Append(ctx, Entry{Op: "bogus"}))
	require.Error(t, Replay(ctx, j, core))
}
