// Package routetable defines the external LPM route-table collaborator
// the core consults from RecursiveNextHop resolution, plus an in-memory
// reference implementation used by tests and by the corefibd
// standalone daemon. The underlying longest-prefix-match structure
// is github.com/gaissmai/bart's Balanced Routing Table: a popcount-
// compressed multibit trie, the same family of structure a production
// LPM would use, rather than a toy linear scan.
package routetable

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/gaissmai/bart"

	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
)

// ChangeKind enumerates the route-table mutation kinds the core is
// notified of through its OnRouteChange entry point.
type ChangeKind uint8

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeWithdrawn
)

// Change describes a single LPM route mutation.
type Change struct {
	RouteID store.RouteID
	Kind    ChangeKind
}

// LpmRouteTable is the read interface the core consults to resolve a
// RecursiveNextHop. Implementations own the actual longest-prefix-match
// structure; the core never inspects it directly.
type LpmRouteTable interface {
	// Lookup returns the longest matching prefix's resolution handle
	// and originating route id, or ok=false if nothing covers address.
	Lookup(family store.Family, address []byte, maxPrefixLen int) (prefixLen int, resolution handle.Handle, routeID store.RouteID, ok bool)

	// Subscribe registers interest in changes under a family/prefix;
	// returned changes are delivered through the core's OnRouteChange
	// entry point by whatever owns this LpmRouteTable (the routing
	// protocol stack), not pulled by the core itself.
	Subscribe(family store.Family, addressPrefix []byte) (unsubscribe func())
}

// entry is the payload bart.Table stores per covering prefix.
type entry struct {
	routeID    store.RouteID
	resolution handle.Handle
}

// Memory is a correctness-first LPM table backed by bart.Table. It
// exists for tests, examples, and the corefibd standalone daemon; a
// production LPM is owned by the routing protocol stack and reached
// through the LpmRouteTable interface, not this type.
type Memory struct {
	mu   sync.RWMutex
	tbl  bart.Table[entry]
	byID map[store.RouteID]netip.Prefix
}

// NewMemory constructs an empty in-memory route table.
func NewMemory() *Memory {
	return &Memory{byID: make(map[store.RouteID]netip.Prefix)}
}

// Insert adds or replaces a covering route. cidr must be a valid CIDR
// string such as "10.255.0.5/32".
func (m *Memory) Insert(routeID store.RouteID, cidr string, resolution handle.Handle) (Change, error) {
	pfx, err := netip.ParsePrefix(cidr)
	if err != nil {
		return Change{}, fmt.Errorf("parsing route table prefix %q: %w", cidr, err)
	}
	pfx = pfx.Masked()

	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.byID[routeID]
	m.tbl.Insert(pfx, entry{routeID: routeID, resolution: resolution})
	m.byID[routeID] = pfx

	kind := ChangeAdded
	if existed {
		kind = ChangeModified
	}
	return Change{RouteID: routeID, Kind: kind}, nil
}

// Remove withdraws a route.
func (m *Memory) Remove(routeID store.RouteID) Change {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pfx, ok := m.byID[routeID]; ok {
		m.tbl.Delete(pfx)
		delete(m.byID, routeID)
	}
	return Change{RouteID: routeID, Kind: ChangeWithdrawn}
}

// Lookup implements LpmRouteTable via bart's longest-prefix-match,
// bounded to prefixes no longer than maxPrefixLen by querying the
// address itself truncated to that length (bart.LookupPrefixLPM never
// returns a match longer than the query prefix it is given).
func (m *Memory) Lookup(family store.Family, address []byte, maxPrefixLen int) (int, handle.Handle, store.RouteID, bool) {
	addr, ok := addrFromBytes(family, address)
	if !ok {
		return 0, handle.Nil, 0, false
	}
	bits := addr.BitLen()
	if maxPrefixLen >= 0 && maxPrefixLen < bits {
		bits = maxPrefixLen
	}
	query := netip.PrefixFrom(addr, bits)

	m.mu.RLock()
	defer m.mu.RUnlock()

	lpmPfx, e, ok := m.tbl.LookupPrefixLPM(query)
	if !ok {
		return 0, handle.Nil, 0, false
	}
	return lpmPfx.Bits(), e.resolution, e.routeID, true
}

// Subscribe is a no-op for the reference implementation: callers drive
// change notification by calling the core's OnRouteChange directly
// after Insert/Remove.
func (m *Memory) Subscribe(store.Family, []byte) func() {
	return func() {}
}

func addrFromBytes(family store.Family, address []byte) (netip.Addr, bool) {
	switch family {
	case store.FamilyIPv4:
		if len(address) != 4 {
			return netip.Addr{}, false
		}
		return netip.AddrFrom4([4]byte(address)), true
	case store.FamilyIPv6:
		if len(address) != 16 {
			return netip.Addr{}, false
		}
		return netip.AddrFrom16([16]byte(address)), true
	default:
		return netip.Addr{}, false
	}
}
