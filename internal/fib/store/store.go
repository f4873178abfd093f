// Package store is the arena that owns every resolution object: it
// allocates, looks up and frees nodes, maintains forward and reverse
// (dependent) edges, and enforces the two structural invariants that
// make the rest of the FIB core tractable to reason about — acyclicity
// and refcount conservation.
package store

import (
	"sync"

	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
)

// Capability gates mutation of a node's kind-specific fields to the one
// subsystem responsible for it, per the design's "get_mut gated by a
// per-kind capability" contract. The four Capability values are exported
// package-level variables of this package, one per mutable kind (used by
// ecmp, frr, recursive and interface-down handling); the name field is
// unexported, so no other package can construct a value matching a kind.
type Capability struct{ name string }

var (
	EcmpCapability      = Capability{"ecmp"}
	FrrCapability       = Capability{"frr"}
	RecursiveCapability = Capability{"recursive"}
	InterfaceCapability = Capability{"interface"}
)

// Config bounds the store's resource usage.
type Config struct {
	// Capacity is the maximum number of live nodes. Zero means
	// unlimited.
	Capacity int
	// MaxCycleDepth bounds the DFS run at every edge mutation. Because
	// the store enforces acyclicity at every insertion, a full DFS
	// bounded by this depth is cheap. Past this depth the search stops
	// without reporting a cycle; the depth of a chain is not itself
	// limited by the store.
	MaxCycleDepth int
}

func (c Config) withDefaults() Config {
	if c.MaxCycleDepth <= 0 {
		c.MaxCycleDepth = 64
	}
	return c
}

type slot struct {
	generation uint32
	occupied   bool
	node       *Node
}

// Store is the exclusive owner of every resolution object in the FIB
// core. Routes and other objects hold handles into it, never raw
// references.
type Store struct {
	mu       sync.Mutex
	cfg      Config
	slots    []slot
	freeList []uint32
	live     int
}

// New constructs an empty Store.
func New(cfg Config) *Store {
	return &Store{cfg: cfg.withDefaults()}
}

// Len returns the number of currently live nodes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *Store) lookupLocked(h handle.Handle) (*Node, error) {
	if h.IsNil() {
		return nil, ferrors.Wrap(ferrors.CodeUnknownHandle, "nil handle", nil)
	}
	idx := int(h.Index())
	if idx < 0 || idx >= len(s.slots) {
		return nil, ferrors.New(ferrors.CodeUnknownHandle, "handle index out of range")
	}
	sl := &s.slots[idx]
	if !sl.occupied || sl.generation != h.Generation() {
		return nil, ferrors.New(ferrors.CodeUnknownHandle, "stale or unknown handle")
	}
	return sl.node, nil
}

// Get returns the node a handle addresses.
func (s *Store) Get(h handle.Handle) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(h)
}

// GetMut returns a mutable node, gated by the capability matching the
// node's kind. Only the subsystem holding that capability may obtain a
// mutable reference. LabelOperation nodes are never mutable in place
// (edits are insert-new + redirect + release-old), so no capability
// ever unlocks them.
func (s *Store) GetMut(h handle.Handle, cap Capability) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	required, ok := requiredCapability(n.Kind)
	if !ok || required != cap {
		return nil, ferrors.New(ferrors.CodeInvalidArgument, "caller capability does not match node kind")
	}
	return n, nil
}

func requiredCapability(k handle.Kind) (Capability, bool) {
	switch k {
	case handle.KindEcmpGroup:
		return EcmpCapability, true
	case handle.KindFrrProtected:
		return FrrCapability, true
	case handle.KindRecursiveNextHop:
		return RecursiveCapability, true
	case handle.KindDirectNextHop:
		return InterfaceCapability, true
	default:
		return Capability{}, false
	}
}

// children returns the forward edges of a node, used by the cycle
// detector and by the dependent walk.
func (s *Store) children(n *Node) []handle.Handle {
	switch n.Kind {
	case handle.KindDirectNextHop:
		return nil
	case handle.KindLabelOperation:
		if n.Label.Next.IsNil() {
			return nil
		}
		return []handle.Handle{n.Label.Next}
	case handle.KindRecursiveNextHop:
		if n.Recursive.ResolvedTo != nil && !n.Recursive.ResolvedTo.IsNil() {
			return []handle.Handle{*n.Recursive.ResolvedTo}
		}
		return nil
	case handle.KindEcmpGroup:
		out := make([]handle.Handle, 0, len(n.Ecmp.Members))
		for _, m := range n.Ecmp.Members {
			if !m.IsNil() {
				out = append(out, m)
			}
		}
		return out
	case handle.KindFrrProtected:
		out := make([]handle.Handle, 0, 2)
		if !n.Frr.Primary.IsNil() {
			out = append(out, n.Frr.Primary)
		}
		if !n.Frr.Backup.IsNil() {
			out = append(out, n.Frr.Backup)
		}
		return out
	default:
		return nil
	}
}

// Children exposes the forward edges of a handle for the forward and
// dependent walks.
func (s *Store) Children(h handle.Handle) ([]handle.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	return s.children(n), nil
}

// hasPathLocked reports whether target is reachable from start by
// following forward edges, bounded by the configured max cycle depth.
// Used both to detect self-reference at insertion (always negative, by
// construction — see Insert's doc comment) and at edge redirection,
// where it is the operative check.
func (s *Store) hasPathLocked(start, target handle.Handle) bool {
	visited := make(map[handle.Handle]bool)
	var walk func(h handle.Handle, depth int) bool
	walk = func(h handle.Handle, depth int) bool {
		if depth > s.cfg.MaxCycleDepth {
			return false
		}
		n, err := s.lookupLocked(h)
		if err != nil {
			return false
		}
		for _, c := range s.children(n) {
			if c == target {
				return true
			}
			if visited[c] {
				continue
			}
			visited[c] = true
			if walk(c, depth+1) {
				return true
			}
		}
		return false
	}
	return walk(start, 0)
}

func (s *Store) allocSlot() (uint32, uint32) {
	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.slots[idx].generation++
		return idx, s.slots[idx].generation
	}
	s.slots = append(s.slots, slot{generation: 1, occupied: false})
	idx := uint32(len(s.slots) - 1)
	return idx, s.slots[idx].generation
}

// Insert allocates a new resolution object referencing the handles given
// in fields, increments their refcounts, and inserts reverse (dependent)
// edges. Insert can never introduce a cycle on its own: a brand-new node
// has no handle until after this call completes, so nothing can yet
// reference it, and its own forward edges only ever point at handles
// that already existed before this call. The cycle check below is
// therefore a defensive, literal application of the store's standing
// invariant — the operative enforcement point for real cycles is
// redirectLocked, called when an existing edge (an ECMP member, an FRR
// primary/backup, or a RecursiveNextHop's resolved_to) is repointed at a
// handle that can already reach back to it.
func (s *Store) Insert(f Fields) (handle.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Capacity > 0 && s.live >= s.cfg.Capacity {
		return handle.Nil, ferrors.New(ferrors.CodeCapacityExhausted, "node store capacity exhausted")
	}

	node := &Node{Kind: f.Kind}
	switch f.Kind {
	case handle.KindDirectNextHop:
		if f.Direct == nil {
			return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "DirectNextHop fields required")
		}
		d := *f.Direct
		node.Direct = &d
	case handle.KindLabelOperation:
		if f.Label == nil {
			return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "LabelOperation fields required")
		}
		if err := s.validateHandleLocked(f.Label.Next); err != nil {
			return handle.Nil, err
		}
		l := *f.Label
		l.Labels = append([]Label(nil), f.Label.Labels...)
		node.Label = &l
	case handle.KindRecursiveNextHop:
		if f.Recursive == nil {
			return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "RecursiveNextHop fields required")
		}
		r := *f.Recursive
		if f.Recursive.ResolvedTo != nil {
			if err := s.validateHandleLocked(*f.Recursive.ResolvedTo); err != nil {
				return handle.Nil, err
			}
			resolved := *f.Recursive.ResolvedTo
			r.ResolvedTo = &resolved
		}
		node.Recursive = &r
	case handle.KindEcmpGroup:
		if f.Ecmp == nil {
			return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "EcmpGroup fields required")
		}
		for _, m := range f.Ecmp.Members {
			if m.IsNil() {
				continue
			}
			if err := s.validateHandleLocked(m); err != nil {
				return handle.Nil, err
			}
		}
		g := *f.Ecmp
		g.Members = append([]handle.Handle(nil), f.Ecmp.Members...)
		g.MemberLive = append([]bool(nil), f.Ecmp.MemberLive...)
		g.ResilientTable = append([]int32(nil), f.Ecmp.ResilientTable...)
		node.Ecmp = &g
	case handle.KindFrrProtected:
		if f.Frr == nil {
			return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "FrrProtected fields required")
		}
		if !f.Frr.Primary.IsNil() {
			if err := s.validateHandleLocked(f.Frr.Primary); err != nil {
				return handle.Nil, err
			}
		}
		if !f.Frr.Backup.IsNil() {
			if err := s.validateHandleLocked(f.Frr.Backup); err != nil {
				return handle.Nil, err
			}
		}
		p := *f.Frr
		node.Frr = &p
	default:
		return handle.Nil, ferrors.New(ferrors.CodeInvalidArgument, "unknown resolution object kind")
	}

	idx, gen := s.allocSlot()
	h := handle.New(f.Kind, gen, idx)
	node.Handle = h
	s.slots[idx] = slot{generation: gen, occupied: true, node: node}

	if s.hasPathLocked(h, h) {
		// Unreachable for a fresh insert (see doc comment); the standing
		// acyclicity invariant is still checked here unconditionally.
		s.slots[idx] = slot{generation: gen, occupied: false}
		s.freeList = append(s.freeList, idx)
		return handle.Nil, ferrors.ErrCycleDetected
	}

	s.live++
	for _, c := range s.children(node) {
		s.retainLocked(c)
		s.addDependentLocked(c, h, f.Kind)
	}
	return h, nil
}

func (s *Store) validateHandleLocked(h handle.Handle) error {
	if h.IsNil() {
		return nil
	}
	if _, err := s.lookupLocked(h); err != nil {
		return err
	}
	return nil
}

func (s *Store) addDependentLocked(child handle.Handle, parent handle.Handle, parentKind handle.Kind) {
	n, err := s.lookupLocked(child)
	if err != nil {
		return
	}
	n.Dependents = append(n.Dependents, DependentEdge{
		DependentKind:   parentKind,
		DependentHandle: parent,
		// ECMP groups and FrrProtected pairs are the kinds that hold
		// long-lived hardware state of their own; a change beneath them
		// must reach hardware even under the Conditional strategy.
		RequiresHWUpdate: parentKind == handle.KindEcmpGroup || parentKind == handle.KindFrrProtected,
	})
}

func (s *Store) removeDependentLocked(child, parent handle.Handle) {
	n, err := s.lookupLocked(child)
	if err != nil {
		return
	}
	out := n.Dependents[:0]
	removed := false
	for _, d := range n.Dependents {
		if !removed && d.DependentHandle == parent {
			removed = true
			continue
		}
		out = append(out, d)
	}
	n.Dependents = out
}

func (s *Store) retainLocked(h handle.Handle) {
	if h.IsNil() {
		return
	}
	if n, err := s.lookupLocked(h); err == nil {
		n.Refcount++
	}
}

// Retain increments a handle's refcount, for a new Route (or other
// external owner) pointing directly at it.
func (s *Store) Retain(h handle.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookupLocked(h); err != nil {
		return err
	}
	s.retainLocked(h)
	return nil
}

// Dependents returns the reverse-edge list for a handle.
func (s *Store) Dependents(h handle.Handle) ([]DependentEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	out := make([]DependentEdge, len(n.Dependents))
	copy(out, n.Dependents)
	return out, nil
}

// Freed describes a node the store actually destroyed as part of a
// Release cascade, carrying whatever hardware resource bookkeeping the
// orchestration layer had recorded for it so the caller can issue the
// matching HAL free calls. The store never calls the HAL itself — it
// has no dependency on that package — it only reports what was freed.
type Freed struct {
	Handle handle.Handle
	Kind   handle.Kind
	Hw     HwResource
}

// Release decrements a handle's refcount (an external owner, typically
// a Route, giving up its reference) and, if it reaches zero, destroys
// the node and recursively releases the children it held forward
// references to, cascading further destructions. Every destroyed node
// is returned so the caller can free its hardware resources via the
// HAL.
func (s *Store) Release(h handle.Handle) ([]Freed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	n.Refcount--
	if n.Refcount > 0 {
		return nil, nil
	}
	if n.Refcount < 0 {
		n.Refcount = 0
	}
	return s.destroyLocked(h)
}

func (s *Store) destroyLocked(h handle.Handle) ([]Freed, error) {
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	freed := []Freed{{Handle: h, Kind: n.Kind, Hw: n.Hw}}
	children := s.children(n)

	idx := h.Index()
	s.slots[idx] = slot{generation: s.slots[idx].generation, occupied: false}
	s.freeList = append(s.freeList, idx)
	s.live--

	for _, c := range children {
		s.removeDependentLocked(c, h)
		cn, err := s.lookupLocked(c)
		if err != nil {
			continue
		}
		cn.Refcount--
		if cn.Refcount <= 0 {
			more, err := s.destroyLocked(c)
			if err == nil {
				freed = append(freed, more...)
			}
		}
	}
	return freed, nil
}

// Destroy removes a node outright, bypassing refcounting. It fails
// with InUse while any route or other object still references the
// node; Release is the normal teardown path.
func (s *Store) Destroy(h handle.Handle) ([]Freed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	if n.Refcount > 0 {
		return nil, ferrors.ErrInUse
	}
	return s.destroyLocked(h)
}

// InUse reports whether a handle's refcount is non-zero, the condition
// under which a caller-initiated destroy attempt must fail with InUse.
func (s *Store) InUse(h handle.Handle) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return false, err
	}
	return n.Refcount > 0, nil
}

// SetHwResource records the hardware resources the orchestration layer
// programmed for a node, consulted later by Release. Called only by the
// orchestration layer, never by resolution subsystems.
func (s *Store) SetHwResource(h handle.Handle, hw HwResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return err
	}
	n.Hw = hw
	return nil
}

// redirectLocked points an existing node's single-child forward edge
// (set via setter) from whatever it previously referenced to newChild,
// rejecting the change if it would close a cycle, and otherwise
// adjusting refcounts and dependent edges to match. If dropping the old
// edge takes the old child's refcount to zero, the child (and anything
// it alone kept alive) is destroyed, and the destroyed nodes are
// returned so the caller can free their hardware resources.
func (s *Store) redirectLocked(parent handle.Handle, oldChild, newChild handle.Handle, apply func()) ([]Freed, error) {
	if !newChild.IsNil() {
		if _, err := s.lookupLocked(newChild); err != nil {
			return nil, err
		}
		if newChild == parent || s.hasPathLocked(newChild, parent) {
			return nil, ferrors.ErrCycleDetected
		}
	}
	apply()
	var freed []Freed
	if oldChild != newChild {
		if !newChild.IsNil() {
			if pn, err := s.lookupLocked(parent); err == nil {
				s.retainLocked(newChild)
				s.addDependentLocked(newChild, parent, pn.Kind)
			}
		}
		if !oldChild.IsNil() {
			s.removeDependentLocked(oldChild, parent)
			if on, err := s.lookupLocked(oldChild); err == nil {
				on.Refcount--
				if on.Refcount <= 0 {
					freed, _ = s.destroyLocked(oldChild)
				}
			}
		}
	}
	return freed, nil
}

// SetResolvedTo updates a RecursiveNextHop's resolved_to forward edge.
// Gated by RecursiveCapability. Returns any nodes destroyed by the old
// resolution target losing its last reference.
func (s *Store) SetResolvedTo(cap Capability, h handle.Handle, target handle.Handle) ([]Freed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	if n.Kind != handle.KindRecursiveNextHop || cap != RecursiveCapability {
		return nil, ferrors.ErrInvalidArgument
	}
	var old handle.Handle
	if n.Recursive.ResolvedTo != nil {
		old = *n.Recursive.ResolvedTo
	}
	return s.redirectLocked(h, old, target, func() {
		if target.IsNil() {
			n.Recursive.ResolvedTo = nil
		} else {
			t := target
			n.Recursive.ResolvedTo = &t
		}
	})
}

// SetResolvingRouteID records (or clears, with nil) which external LPM
// route currently answers for a RecursiveNextHop's address, so a later
// change to that route can be routed back to this next-hop.
func (s *Store) SetResolvingRouteID(cap Capability, h handle.Handle, routeID *RouteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return err
	}
	if n.Kind != handle.KindRecursiveNextHop || cap != RecursiveCapability {
		return ferrors.ErrInvalidArgument
	}
	if routeID == nil {
		n.Recursive.ResolvingRouteID = nil
	} else {
		rid := *routeID
		n.Recursive.ResolvingRouteID = &rid
	}
	return nil
}

// SetEcmpMember replaces (or clears, with handle.Nil) the member at a
// fixed position. Positions are never compacted — the resilient-hashing
// table identifies members by position, so removing a member sets its
// slot to handle.Nil and its liveness to false but does not shift later
// members down. Returns any nodes the
// displaced member's release cascaded into destroying.
func (s *Store) SetEcmpMember(cap Capability, group handle.Handle, pos int, newMember handle.Handle) ([]Freed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(group)
	if err != nil {
		return nil, err
	}
	if n.Kind != handle.KindEcmpGroup || cap != EcmpCapability {
		return nil, ferrors.ErrInvalidArgument
	}
	if pos < 0 || pos >= len(n.Ecmp.Members) {
		return nil, ferrors.New(ferrors.CodeInvalidArgument, "ECMP member position out of range")
	}
	old := n.Ecmp.Members[pos]
	return s.redirectLocked(group, old, newMember, func() {
		n.Ecmp.Members[pos] = newMember
		if newMember.IsNil() {
			n.Ecmp.MemberLive[pos] = false
		}
	})
}

// SetMemberLive flips the liveness bit for one ECMP member position,
// leaving membership untouched. A removed (handle.Nil) position cannot
// be marked live again.
func (s *Store) SetMemberLive(cap Capability, group handle.Handle, pos int, live bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(group)
	if err != nil {
		return err
	}
	if n.Kind != handle.KindEcmpGroup || cap != EcmpCapability {
		return ferrors.ErrInvalidArgument
	}
	if pos < 0 || pos >= len(n.Ecmp.MemberLive) {
		return ferrors.New(ferrors.CodeInvalidArgument, "ECMP member position out of range")
	}
	if live && (pos >= len(n.Ecmp.Members) || n.Ecmp.Members[pos].IsNil()) {
		return ferrors.New(ferrors.CodeInvalidArgument, "ECMP member position was removed")
	}
	n.Ecmp.MemberLive[pos] = live
	return nil
}

// SetResilientTable installs a new resilient-hashing table snapshot.
func (s *Store) SetResilientTable(cap Capability, group handle.Handle, table []int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(group)
	if err != nil {
		return err
	}
	if n.Kind != handle.KindEcmpGroup || cap != EcmpCapability {
		return ferrors.ErrInvalidArgument
	}
	n.Ecmp.ResilientTable = table
	return nil
}

// AppendEcmpMember grows the group by one member, at a brand-new
// position (never reusing a compacted slot).
func (s *Store) AppendEcmpMember(cap Capability, group handle.Handle, member handle.Handle, live bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(group)
	if err != nil {
		return -1, err
	}
	if n.Kind != handle.KindEcmpGroup || cap != EcmpCapability {
		return -1, ferrors.ErrInvalidArgument
	}
	if !member.IsNil() {
		if _, err := s.lookupLocked(member); err != nil {
			return -1, err
		}
		if member == group || s.hasPathLocked(member, group) {
			return -1, ferrors.ErrCycleDetected
		}
	}
	pos := len(n.Ecmp.Members)
	n.Ecmp.Members = append(n.Ecmp.Members, member)
	n.Ecmp.MemberLive = append(n.Ecmp.MemberLive, live)
	if !member.IsNil() {
		s.retainLocked(member)
		s.addDependentLocked(member, group, n.Kind)
	}
	return pos, nil
}

// SetFrrPrimary redirects an FrrProtected node's primary branch.
func (s *Store) SetFrrPrimary(cap Capability, h handle.Handle, newPrimary handle.Handle) ([]Freed, error) {
	return s.setFrrBranch(cap, h, newPrimary, true)
}

// SetFrrBackup redirects an FrrProtected node's backup branch.
func (s *Store) SetFrrBackup(cap Capability, h handle.Handle, newBackup handle.Handle) ([]Freed, error) {
	return s.setFrrBranch(cap, h, newBackup, false)
}

func (s *Store) setFrrBranch(cap Capability, h handle.Handle, newTarget handle.Handle, primary bool) ([]Freed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	if n.Kind != handle.KindFrrProtected || cap != FrrCapability {
		return nil, ferrors.ErrInvalidArgument
	}
	old := n.Frr.Backup
	if primary {
		old = n.Frr.Primary
	}
	return s.redirectLocked(h, old, newTarget, func() {
		if primary {
			n.Frr.Primary = newTarget
		} else {
			n.Frr.Backup = newTarget
		}
	})
}

// SetFrrState transitions an FrrProtected node's active-branch state.
func (s *Store) SetFrrState(cap Capability, h handle.Handle, state FrrState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return err
	}
	if n.Kind != handle.KindFrrProtected || cap != FrrCapability {
		return ferrors.ErrInvalidArgument
	}
	n.Frr.State = state
	return nil
}

// SetDirectReachable flips a DirectNextHop's reachability, used by
// on_interface_down/up.
func (s *Store) SetDirectReachable(cap Capability, h handle.Handle, reachable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupLocked(h)
	if err != nil {
		return err
	}
	if n.Kind != handle.KindDirectNextHop || cap != InterfaceCapability {
		return ferrors.ErrInvalidArgument
	}
	n.Direct.Reachable = reachable
	return nil
}

// AllHandles returns every live handle, in slot order. The
// orchestration layer's port-down fan-out does not use it; it keeps its
// own port index instead.
func (s *Store) AllHandles() []handle.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]handle.Handle, 0, s.live)
	for i := range s.slots {
		if s.slots[i].occupied {
			out = append(out, s.slots[i].node.Handle)
		}
	}
	return out
}
