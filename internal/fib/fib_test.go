package fib_test

import (
	"context"
	"testing"

	"github.com/routingfib/corefib/internal/fib/ecmp"
	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/fibtest"
	"github.com/routingfib/corefib/internal/fib/frr"
	"github.com/routingfib/corefib/internal/fib/hal"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func newCore(t *testing.T) (*fib.Core, *fibtest.MockHAL, *fibtest.RecordingSink) {
	t.Helper()
	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true, SupportsBackupFec: true})
	sink := &fibtest.RecordingSink{}
	core := fib.New(fib.Config{}, h, routetable.NewMemory(), sink)
	return core, h, sink
}

func directHop(t *testing.T, s *store.Store, port uint32) handle.Handle {
	t.Helper()
	h, err := s.Insert(store.Fields{Kind: handle.KindDirectNextHop, Direct: &store.DirectNextHop{EgressPort: port, Reachable: true}})
	require.NoError(t, err)
	return h
}

// S1: basic install, forward-walk, program.
func TestInstallRouteProgramsLeafHardware(t *testing.T) {
	core, h, sink := newCore(t)
	s := core.Store()
	root := directHop(t, s, 5)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "10.0.0.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, root))

	require.Equal(t, []fib.RouteKey{key}, sink.Activated)
	require.Contains(t, h.CallLog, "ProgramL2Rewrite(eedb=1, port=5)")
	require.Contains(t, h.CallLog, "ProgramFecSimple(fec=1, eedb=1, port=5)")
}

// S1-style L3VPN install: VPN label over a TE tunnel label over a
// recursive next-hop, programmed bottom-up as a chained EEDB pair.
func TestInstallRouteProgramsLabelChainBottomUp(t *testing.T) {
	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true})
	sink := &fibtest.RecordingSink{}
	rt := routetable.NewMemory()
	core := fib.New(fib.Config{}, h, rt, sink)
	s := core.Store()

	hop, err := s.Insert(store.Fields{Kind: handle.KindDirectNextHop, Direct: &store.DirectNextHop{
		DstMAC:     [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		SrcMAC:     [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		VLAN:       100,
		EgressPort: 10,
		Reachable:  true,
	}})
	require.NoError(t, err)
	_, err = rt.Insert(1, "10.255.0.5/32", hop)
	require.NoError(t, err)

	rnh, err := s.Insert(store.Fields{Kind: handle.KindRecursiveNextHop, Recursive: &store.RecursiveNextHop{
		Family:  store.FamilyIPv4,
		Address: []byte{10, 255, 0, 5},
	}})
	require.NoError(t, err)
	tunnel, err := s.Insert(store.Fields{Kind: handle.KindLabelOperation, Label: &store.LabelOperation{
		Op: store.OpPush, Labels: []store.Label{{Value: 50000, TTL: 255}}, Next: rnh,
	}})
	require.NoError(t, err)
	vpn, err := s.Insert(store.Fields{Kind: handle.KindLabelOperation, Label: &store.LabelOperation{
		Op: store.OpPush, Labels: []store.Label{{Value: 100200, TTL: 255}}, Next: tunnel,
	}})
	require.NoError(t, err)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "192.168.1.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, vpn))

	require.Equal(t, []fib.RouteKey{key}, sink.Activated)
	// Stack is [100200, 50000] top-down: the VPN label, pushed nearest
	// the route, is outermost. The HAL chain is built deepest-first, so
	// the tunnel label programs first, chained to the L2 rewrite.
	require.Equal(t, []string{
		"AllocEedb -> 1",
		"ProgramL2Rewrite(eedb=1, port=10)",
		"AllocEedb -> 2",
		"ProgramLabelEedb(eedb=2, label=50000, next=1)",
		"AllocEedb -> 3",
		"ProgramLabelEedb(eedb=3, label=100200, next=2)",
		"AllocFec -> 1",
		"ProgramFecSimple(fec=1, eedb=3, port=10)",
	}, h.CallLog)
}

func TestInstallRouteUnresolvedLeavesRouteInactive(t *testing.T) {
	core, _, sink := newCore(t)
	s := core.Store()
	rnh, err := s.Insert(store.Fields{Kind: handle.KindRecursiveNextHop, Recursive: &store.RecursiveNextHop{}})
	require.NoError(t, err)

	key := fib.RouteKey{Prefix: "10.1.0.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, rnh))
	require.Empty(t, sink.Activated)
}

// S2: PIC Core converges an ECMP group shared by many overlay routes
// with a single dependent-walk pass, without touching routes that hold
// no independent hardware resource.
func TestPicCoreViaOnLinkEventConvergesSharedGroup(t *testing.T) {
	core, h, _ := newCore(t)
	s := core.Store()

	m0 := directHop(t, s, 1)
	m1 := directHop(t, s, 2)
	group, err := ecmp.Create(s, store.HashL3, 8, []handle.Handle{m0, m1})
	require.NoError(t, err)

	core.RegisterEcmpLink("igp-link-0", group, 0)

	key := fib.RouteKey{Prefix: "192.0.2.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, group))

	before := len(h.CallLog)
	require.NoError(t, core.OnLinkEvent(context.Background(), "igp-link-0", false))
	after := len(h.CallLog)

	// The group's own hardware is programmed (it backs an installed
	// route), so OnLinkEvent reprograms that cached group directly with
	// one UpdateEcmpMembers call; it must not fan out per-route.
	require.Greater(t, after, before)
	require.Contains(t, h.CallLog[before:], "UpdateEcmpMembers(ecmp=1, members=2, table=512)")
}

// S3: PIC Edge failover flips the active branch and reprograms exactly
// the protected FEC.
func TestPicEdgeFailoverViaBfd(t *testing.T) {
	core, h, _ := newCore(t)
	s := core.Store()

	p := directHop(t, s, 1)
	b := directHop(t, s, 2)
	protected, err := frr.Create(s, p, b, store.ProtectionLink, 50, true)
	require.NoError(t, err)

	core.RegisterBfdSession("bfd-1", protected, true)

	key := fib.RouteKey{Prefix: "198.51.100.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, protected))

	before := len(h.CallLog)
	require.NoError(t, core.OnBfdDown(context.Background(), "bfd-1"))
	after := len(h.CallLog)
	require.Greater(t, after, before)
	require.Contains(t, h.CallLog[before:], "SetActive(fec=3, branch=1)")
}

// A non-revertive pair holds the backup branch through primary
// recovery until an explicit Failback, which issues one SetActive.
func TestFailbackRestoresPrimaryForNonRevertivePair(t *testing.T) {
	core, h, _ := newCore(t)
	s := core.Store()

	p := directHop(t, s, 1)
	b := directHop(t, s, 2)
	protected, err := frr.Create(s, p, b, store.ProtectionLink, 50, false)
	require.NoError(t, err)
	core.RegisterBfdSession("bfd-2", protected, true)

	key := fib.RouteKey{Prefix: "198.51.100.128", PrefixLen: 25}
	require.NoError(t, core.InstallRoute(context.Background(), key, protected))
	require.NoError(t, core.OnBfdDown(context.Background(), "bfd-2"))
	require.NoError(t, core.OnBfdUp(context.Background(), "bfd-2"))

	n, err := s.Get(protected)
	require.NoError(t, err)
	require.Equal(t, store.UsingBackup, n.Frr.State, "non-revertive pair stays on backup after recovery")

	before := len(h.CallLog)
	require.NoError(t, core.Failback(context.Background(), protected))
	require.Contains(t, h.CallLog[before:], "SetActive(fec=3, branch=0)")

	n, err = s.Get(protected)
	require.NoError(t, err)
	require.Equal(t, store.UsingPrimary, n.Frr.State)
}

// S4: update_route uses make-before-break: the old FEC is quiesced and
// freed only after the new chain is fully programmed.
func TestUpdateRouteMakeBeforeBreak(t *testing.T) {
	core, h, _ := newCore(t)
	s := core.Store()

	oldRoot := directHop(t, s, 1)
	newRoot := directHop(t, s, 2)

	key := fib.RouteKey{Prefix: "203.0.113.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, oldRoot))
	require.NoError(t, core.UpdateRoute(context.Background(), key, newRoot))

	require.Len(t, h.Quiesced, 1)
	require.Equal(t, hal.FecID(1), h.Quiesced[0])
	require.Contains(t, h.FreedFecs, hal.FecID(1))
}

// S5: a next-hop whose covering route resolves back through itself
// burns the recursion depth budget; the route still installs, inactive
// and unprogrammed, and the failure is reported via the event sink.
func TestInstallRouteRecursionLoopReported(t *testing.T) {
	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true})
	sink := &fibtest.RecordingSink{}
	rt := routetable.NewMemory()
	core := fib.New(fib.Config{}, h, rt, sink)
	s := core.Store()

	rnh, err := s.Insert(store.Fields{Kind: handle.KindRecursiveNextHop, Recursive: &store.RecursiveNextHop{
		Family:  store.FamilyIPv4,
		Address: []byte{10, 255, 0, 5},
	}})
	require.NoError(t, err)

	// The only cover for the next-hop's address is the route being
	// installed through it.
	_, err = rt.Insert(1, "10.255.0.5/32", rnh)
	require.NoError(t, err)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "10.9.0.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, rnh))

	require.Equal(t, []fib.RouteKey{key}, sink.RecursionsExceeded)
	require.Empty(t, sink.Activated, "an unresolvable route installs inactive")
	require.Empty(t, h.CallLog, "no hardware is touched for an unresolved route")
}

// Install resolves the chain's recursive next-hops against the LPM, so
// a route over an already-coverable next-hop activates immediately.
func TestInstallRouteResolvesRecursiveNextHop(t *testing.T) {
	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true})
	sink := &fibtest.RecordingSink{}
	rt := routetable.NewMemory()
	core := fib.New(fib.Config{}, h, rt, sink)
	s := core.Store()

	d := directHop(t, s, 3)
	_, err := rt.Insert(9, "10.255.0.0/24", d)
	require.NoError(t, err)

	rnh, err := s.Insert(store.Fields{Kind: handle.KindRecursiveNextHop, Recursive: &store.RecursiveNextHop{
		Family:  store.FamilyIPv4,
		Address: []byte{10, 255, 0, 5},
	}})
	require.NoError(t, err)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "192.168.1.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, rnh))

	require.Equal(t, []fib.RouteKey{key}, sink.Activated)
	require.Contains(t, h.CallLog, "ProgramFecSimple(fec=1, eedb=1, port=3)")
}

// A route installed over a not-yet-coverable next-hop activates when
// the LPM later reports a covering route added.
func TestOnRouteChangeActivatesPendingRoute(t *testing.T) {
	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true})
	sink := &fibtest.RecordingSink{}
	rt := routetable.NewMemory()
	core := fib.New(fib.Config{}, h, rt, sink)
	s := core.Store()

	rnh, err := s.Insert(store.Fields{Kind: handle.KindRecursiveNextHop, Recursive: &store.RecursiveNextHop{
		Family:  store.FamilyIPv4,
		Address: []byte{10, 255, 0, 5},
	}})
	require.NoError(t, err)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "192.168.2.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, rnh))
	require.Empty(t, sink.Activated)

	d := directHop(t, s, 4)
	change, err := rt.Insert(11, "10.255.0.5/32", d)
	require.NoError(t, err)
	require.NoError(t, core.OnRouteChange(context.Background(), change.RouteID, change.Kind))

	require.Equal(t, []fib.RouteKey{key}, sink.Activated)
}

// Withdrawing the covering route deactivates dependents; re-resolving
// against an unchanged table stays quiet (idempotent re-resolution).
func TestOnRouteChangeWithdrawDeactivates(t *testing.T) {
	h := fibtest.NewMockHAL(hal.Capabilities{SupportsEedbChaining: true})
	sink := &fibtest.RecordingSink{}
	rt := routetable.NewMemory()
	core := fib.New(fib.Config{}, h, rt, sink)
	s := core.Store()

	d := directHop(t, s, 4)
	_, err := rt.Insert(11, "10.255.0.5/32", d)
	require.NoError(t, err)

	rnh, err := s.Insert(store.Fields{Kind: handle.KindRecursiveNextHop, Recursive: &store.RecursiveNextHop{
		Family:  store.FamilyIPv4,
		Address: []byte{10, 255, 0, 5},
	}})
	require.NoError(t, err)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "192.168.3.0", PrefixLen: 24}
	require.NoError(t, core.InstallRoute(context.Background(), key, rnh))
	require.Equal(t, []fib.RouteKey{key}, sink.Activated)

	// Unchanged answer: no events, no reprogramming.
	calls := len(h.CallLog)
	require.NoError(t, core.OnRouteChange(context.Background(), 11, routetable.ChangeModified))
	require.Equal(t, calls, len(h.CallLog))

	change := rt.Remove(11)
	require.NoError(t, core.OnRouteChange(context.Background(), change.RouteID, change.Kind))
	require.Equal(t, []fib.RouteKey{key}, sink.Deactivated)
}

// Interface loss deactivates a route rooted directly at a hop on that
// port, and recovery reactivates it.
func TestInterfaceDownDeactivatesDirectRoute(t *testing.T) {
	core, _, sink := newCore(t)
	s := core.Store()
	root := directHop(t, s, 7)

	key := fib.RouteKey{Family: store.FamilyIPv4, Prefix: "10.7.0.0", PrefixLen: 16}
	require.NoError(t, core.InstallRoute(context.Background(), key, root))
	require.Equal(t, []fib.RouteKey{key}, sink.Activated)

	require.NoError(t, core.OnInterfaceDown(context.Background(), 7))
	require.Equal(t, []fib.RouteKey{key}, sink.Deactivated)

	require.NoError(t, core.OnInterfaceUp(context.Background(), 7))
	require.Equal(t, []fib.RouteKey{key, key}, sink.Activated)
}

// S6: withdraw releases a shared child's refcount without destroying
// it while another Route or an extra Retain still holds it.
func TestWithdrawRouteSharedNextHop(t *testing.T) {
	core, _, _ := newCore(t)
	s := core.Store()
	shared := directHop(t, s, 9)

	k1 := fib.RouteKey{Prefix: "10.10.0.0", PrefixLen: 24}
	k2 := fib.RouteKey{Prefix: "10.10.1.0", PrefixLen: 24}
	require.NoError(t, s.Retain(shared))
	require.NoError(t, core.InstallRoute(context.Background(), k1, shared))
	require.NoError(t, s.Retain(shared))
	require.NoError(t, core.InstallRoute(context.Background(), k2, shared))

	require.NoError(t, core.WithdrawRoute(context.Background(), k1))
	inUse, err := s.InUse(shared)
	require.NoError(t, err)
	require.True(t, inUse, "second route and the extra Retain still hold it")

	require.NoError(t, core.WithdrawRoute(context.Background(), k2))
	_, err = s.Get(shared)
	require.NoError(t, err, "extra manual Retain above still keeps it alive")
}
