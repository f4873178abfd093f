// Package fib is the orchestration layer: the core's public surface.
// It sequences the forward walk, the HAL, and the dependent walk behind
// a single-threaded cooperative API, and owns the route-to-resolution-
// object table the lower packages don't know about.
package fib

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/hal"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/pic"
	"github.com/routingfib/corefib/internal/fib/recursive"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/routingfib/corefib/internal/fib/walk/dependent"
	"github.com/routingfib/corefib/internal/fib/walk/forward"
	"github.com/routingfib/corefib/internal/logger"
	"github.com/routingfib/corefib/internal/telemetry"
)

// RouteKey identifies a Route: address family, prefix, and the
// administrative context that would otherwise disambiguate two
// protocols installing the same prefix. It is comparable so it can key
// the route table directly.
type RouteKey struct {
	Family    store.Family
	Prefix    string // raw prefix bytes, as a string for comparability
	PrefixLen int
	Protocol  uint8
	AdminPref uint8
}

func (k RouteKey) String() string {
	return fmt.Sprintf("%v/%d(proto=%d,pref=%d)", []byte(k.Prefix), k.PrefixLen, k.Protocol, k.AdminPref)
}

// Route is the orchestrator's record of one installed prefix: which
// resolution object it points at, whether it is currently active
// (resolved and programmed), and the hardware resources programmed for
// it. fecOwned distinguishes a FEC allocated for this route alone (a
// plain rewrite/label chain) from one shared through a node-cached
// ECMP group or FrrProtected pair, which the store's release cascade
// frees instead.
type Route struct {
	Key        RouteKey
	Resolution handle.Handle
	Active     bool
	Fec        hal.FecID
	fecValid   bool
	fecOwned   bool
	eedbs      []hal.EedbID
}

// EventSink receives every outcome the orchestrator produces.
type EventSink interface {
	RouteActivated(key RouteKey)
	RouteDeactivated(key RouteKey)
	HwResourceExhausted(key RouteKey, err error)
	PartiallyApplied(key RouteKey, err error)
	CycleDetected(key RouteKey, err error)
	RecursionExceeded(key RouteKey, err error)
}

// NopEventSink discards every event; useful as a default or in tests
// that don't assert on notifications.
type NopEventSink struct{}

func (NopEventSink) RouteActivated(RouteKey)             {}
func (NopEventSink) RouteDeactivated(RouteKey)           {}
func (NopEventSink) HwResourceExhausted(RouteKey, error) {}
func (NopEventSink) PartiallyApplied(RouteKey, error)    {}
func (NopEventSink) CycleDetected(RouteKey, error)       {}
func (NopEventSink) RecursionExceeded(RouteKey, error)   {}

// Config bounds the core's resource usage and walk behavior.
type Config struct {
	Store             store.Config
	MaxWalkDepth      int
	MaxPrefixLen      int
	MaxRecursionDepth int
}

// ecmpLinkRef ties an externally-named link to the ECMP group position
// it represents, so OnLinkEvent can route straight into PIC Core.
type ecmpLinkRef struct {
	group handle.Handle
	pos   int
}

// frrBranch tracks which branch (primary or backup) of an FrrProtected
// node a link or BFD session corresponds to.
type frrBranch struct {
	frr     handle.Handle
	primary bool
}

// Core is the single-threaded cooperative orchestrator. Every exported
// method is expected to be called from the one worker goroutine that
// drains the event queue; Core itself does not spawn that worker
// or own the queue — that belongs to the caller, the same way the
// node store, HAL and LPM are all owned by it and never touched
// concurrently.
type Core struct {
	mu sync.Mutex

	store *store.Store
	hal   hal.HardwareAbstraction
	rt    routetable.LpmRouteTable
	sink  EventSink

	maxWalkDepth      int
	maxPrefixLen      int
	maxRecursionDepth int

	routes map[RouteKey]*Route

	// links maps an operator-assigned link identifier to whichever
	// protection construct it feeds: an ECMP member position (PIC Core)
	// or an FrrProtected branch (PIC Edge). A link is registered by
	// whatever installs the protection construct (RegisterEcmpLink /
	// RegisterFrrLink), mirroring how a real control plane ties IGP
	// adjacencies and BFD sessions to forwarding state.
	ecmpLinks map[string]ecmpLinkRef
	frrLinks  map[string]frrBranch
	bfd       map[string]frrBranch

	// frrLiveness tracks the last known liveness of each branch of every
	// FrrProtected node the orchestrator manages, since store.FrrProtected
	// itself only records which branch is active, not raw liveness.
	frrLiveness map[handle.Handle][2]bool // [primaryLive, backupLive]

	// routeIndex maps an external LPM route id to the RecursiveNextHop
	// handles whose current resolution depends on it, and rnhRoute is
	// its inverse, so a re-resolution that lands on a different covering
	// route moves the next-hop between buckets instead of leaving a
	// stale entry behind.
	routeIndex map[store.RouteID]map[handle.Handle]bool
	rnhRoute   map[handle.Handle]store.RouteID

	// rnhs is every RecursiveNextHop discovered in an installed route's
	// chain, resolved or not. An unresolved next-hop has no route id to
	// bucket under, so a newly added LPM route triggers a re-resolution
	// sweep over the unresolved subset of this set.
	rnhs map[handle.Handle]bool

	// portIndex maps an egress port to every DirectNextHop handle
	// reachable from an installed route, so on_interface_down can find
	// them without a full store scan. Pruned when the store destroys
	// the hop.
	portIndex map[uint32]map[handle.Handle]bool

	// rootIndex maps a resolution-object handle directly back to every
	// Route installed with that handle as its root, so the dependent
	// walk's Updater can tell when a propagating change has reached a
	// Route (and must reprogram it) versus an intermediate node whose
	// own parent will be visited next.
	rootIndex map[handle.Handle][]RouteKey

	// metrics is nil unless the caller supplies a Prometheus registerer
	// via WithMetrics; every observation call is nil-safe.
	metrics *telemetry.FibMetrics
}

// WithMetrics registers the core's Prometheus counters against reg and
// starts recording them. Call once, right after New.
func (c *Core) WithMetrics(reg prometheus.Registerer) *Core {
	c.metrics = telemetry.NewFibMetrics(reg)
	return c
}

// New constructs a Core around its three external collaborators: the
// node store's own configuration, a HardwareAbstraction implementation,
// and an LpmRouteTable. Pass fib.NopEventSink{} if the caller doesn't
// need notifications.
func New(cfg Config, h hal.HardwareAbstraction, rt routetable.LpmRouteTable, sink EventSink) *Core {
	if cfg.MaxWalkDepth <= 0 {
		cfg.MaxWalkDepth = forward.DefaultMaxDepth
	}
	if cfg.MaxPrefixLen <= 0 {
		cfg.MaxPrefixLen = 128
	}
	if cfg.MaxRecursionDepth <= 0 {
		cfg.MaxRecursionDepth = recursive.DefaultMaxRecursionDepth
	}
	if sink == nil {
		sink = NopEventSink{}
	}
	return &Core{
		store:             store.New(cfg.Store),
		hal:               h,
		rt:                rt,
		sink:              sink,
		maxWalkDepth:      cfg.MaxWalkDepth,
		maxPrefixLen:      cfg.MaxPrefixLen,
		maxRecursionDepth: cfg.MaxRecursionDepth,
		routes:            make(map[RouteKey]*Route),
		ecmpLinks:         make(map[string]ecmpLinkRef),
		frrLinks:          make(map[string]frrBranch),
		bfd:               make(map[string]frrBranch),
		frrLiveness:       make(map[handle.Handle][2]bool),
		routeIndex:        make(map[store.RouteID]map[handle.Handle]bool),
		rnhRoute:          make(map[handle.Handle]store.RouteID),
		rnhs:              make(map[handle.Handle]bool),
		portIndex:         make(map[uint32]map[handle.Handle]bool),
		rootIndex:         make(map[handle.Handle][]RouteKey),
	}
}

// Store exposes the underlying node store for subsystems (ecmp, frr,
// recursive, pic) that need direct access; the orchestrator does not
// wrap every one of their operations.
func (c *Core) Store() *store.Store { return c.store }

// RegisterEcmpLink ties an operator-visible link identifier to a
// position within an ECMP group, so a later OnLinkEvent drives PIC Core
// instead of a generic dependent walk.
func (c *Core) RegisterEcmpLink(link string, group handle.Handle, pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ecmpLinks[link] = ecmpLinkRef{group: group, pos: pos}
}

// RegisterFrrLink ties a link identifier to one branch of an
// FrrProtected pair, for IGP/interface-driven failover.
func (c *Core) RegisterFrrLink(link string, frr handle.Handle, primary bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frrLinks[link] = frrBranch{frr: frr, primary: primary}
	c.initFrrLiveness(frr)
}

// RegisterBfdSession ties a BFD session identifier to one branch of an
// FrrProtected pair, for PIC Edge.
func (c *Core) RegisterBfdSession(session string, frr handle.Handle, primary bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bfd[session] = frrBranch{frr: frr, primary: primary}
	c.initFrrLiveness(frr)
}

func (c *Core) initFrrLiveness(frr handle.Handle) {
	if _, ok := c.frrLiveness[frr]; !ok {
		c.frrLiveness[frr] = [2]bool{true, true}
	}
}

// hwUpdater adapts the orchestrator's HAL reprogramming into the
// dependent walk's Updater hook. Intermediate dependents (label
// operations, ECMP groups, FrrProtected pairs that are themselves
// nested under something else) need no action here: their own parent
// is visited next by the same walk, all the way up to whichever Route
// roots are ultimately affected. Only once the walk reaches a handle
// that is itself a Route's root does this re-run the forward walk and
// reprogram hardware, via rootIndex.
type hwUpdater struct {
	core *Core
}

func (u hwUpdater) Update(ctx context.Context, n *store.Node, kind dependent.ChangeKind) error {
	logger.Debug("dependent walk visiting node",
		"handle", n.Handle.String(), "kind", n.Kind.String(), "change_kind", kind)
	return u.core.reprogramRootRoutes(ctx, n.Handle)
}

// reprogramRootRoutes re-runs the forward walk and hardware programming
// for every installed Route whose root is h.
func (c *Core) reprogramRootRoutes(ctx context.Context, h handle.Handle) error {
	for _, key := range c.rootIndex[h] {
		route, ok := c.routes[key]
		if !ok {
			continue
		}
		if err := c.programRoute(ctx, route); err != nil {
			return c.reportProgramError(key, err)
		}
	}
	return nil
}

func routeLogCtx(op string, key RouteKey) context.Context {
	lc := logger.NewLogContext(op).WithRouteKey(key.String())
	return logger.WithContext(context.Background(), lc)
}

// InstallRoute resolves root's chain, forward-walks it, programs the
// hardware bottom-up, and marks the route active — or, if the walk
// reports Unresolved, installs the route inactive, awaiting a future
// resolution event: an Unresolved branch is not itself an error, and
// neither is a resolution chain the route table cannot yet terminate
// (RecursionExceeded is reported through the sink, the route stays
// installed and inactive).
func (c *Core) InstallRoute(ctx context.Context, key RouteKey, root handle.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lc := routeLogCtx("install_route", key)
	logger.InfoCtx(lc, "installing route")

	if _, exists := c.routes[key]; exists {
		return ferrors.New(ferrors.CodeInvalidArgument, "route already installed; use UpdateRoute")
	}

	if err := c.store.Retain(root); err != nil {
		return err
	}

	route := &Route{Key: key, Resolution: root}
	c.routes[key] = route
	c.rootIndex[root] = append(c.rootIndex[root], key)

	c.resolveAndIndexChain(ctx, lc, key, root)

	if err := c.programRoute(ctx, route); err != nil {
		return c.reportProgramError(key, err)
	}
	return nil
}

// UpdateRoute points key at a new resolution-object root using
// make-before-break sequencing: the new chain is fully allocated and
// programmed, the route's hardware handle is swapped, the HAL drains
// in-flight packets against the old resource, and only then are the
// old chain's resources freed.
func (c *Core) UpdateRoute(ctx context.Context, key RouteKey, newRoot handle.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lc := routeLogCtx("update_route", key)
	logger.InfoCtx(lc, "updating route")

	route, ok := c.routes[key]
	if !ok {
		return ferrors.New(ferrors.CodeInvalidArgument, "route not installed")
	}

	if err := c.store.Retain(newRoot); err != nil {
		return err
	}

	oldRoot := route.Resolution
	route.Resolution = newRoot
	c.rootIndex[oldRoot] = removeRouteKey(c.rootIndex[oldRoot], key)
	c.rootIndex[newRoot] = append(c.rootIndex[newRoot], key)

	c.resolveAndIndexChain(ctx, lc, key, newRoot)

	if err := c.programRoute(ctx, route); err != nil {
		// Roll the route record back to the old root; the new chain's
		// refcount is released below regardless of outcome.
		route.Resolution = oldRoot
		c.rootIndex[newRoot] = removeRouteKey(c.rootIndex[newRoot], key)
		c.rootIndex[oldRoot] = append(c.rootIndex[oldRoot], key)
		if relFreed, relErr := c.store.Release(newRoot); relErr != nil {
			logger.ErrorCtx(lc, "failed to release rolled-back chain", logger.Err(relErr))
		} else {
			c.reclaim(ctx, lc, relFreed)
		}
		return c.reportProgramError(key, err)
	}

	freed, err := c.store.Release(oldRoot)
	if err != nil {
		logger.ErrorCtx(lc, "failed to release superseded resolution chain", logger.Err(err))
	} else {
		c.reclaim(ctx, lc, freed)
	}
	return nil
}

// WithdrawRoute releases the route's reference to its resolution
// object, freeing the chain (and its hardware) if nothing else holds
// it, and marks the route deactivated.
func (c *Core) WithdrawRoute(ctx context.Context, key RouteKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lc := routeLogCtx("withdraw_route", key)
	logger.InfoCtx(lc, "withdrawing route")

	route, ok := c.routes[key]
	if !ok {
		return ferrors.New(ferrors.CodeInvalidArgument, "route not installed")
	}

	c.freeRouteOwnedHardware(ctx, lc, route)

	freed, err := c.store.Release(route.Resolution)
	if err != nil {
		return err
	}
	c.reclaim(ctx, lc, freed)

	c.rootIndex[route.Resolution] = removeRouteKey(c.rootIndex[route.Resolution], key)
	delete(c.routes, key)

	if route.Active {
		c.sink.RouteDeactivated(key)
	}
	return nil
}

func (c *Core) reportProgramError(key RouteKey, err error) error {
	switch {
	case ferrorsIsCode(err, ferrors.CodeHwResourceExhausted):
		c.sink.HwResourceExhausted(key, err)
	case ferrorsIsCode(err, ferrors.CodeCycleDetected):
		c.sink.CycleDetected(key, err)
	case ferrorsIsCode(err, ferrors.CodeRecursionExceeded):
		c.sink.RecursionExceeded(key, err)
	case ferrorsIsCode(err, ferrors.CodePartiallyApplied) || ferrorsIsCode(err, ferrors.CodeHwDrainTimeout):
		c.sink.PartiallyApplied(key, err)
	}
	return err
}

func ferrorsIsCode(err error, code ferrors.Code) bool {
	fe, ok := err.(*ferrors.Error)
	return ok && fe.Code == code
}

// resolveAndIndexChain walks the resolution chain under root, resolves
// every RecursiveNextHop it finds, and records the chain's
// DirectNextHops (by egress port) and next-hops (by covering route id)
// in the event-routing indexes. Resolution failures are not install
// failures: RecursionExceeded and CycleDetected leave the chain
// unresolved and are reported through the sink, matching the contract
// that a route with no valid path installs inactive.
func (c *Core) resolveAndIndexChain(ctx context.Context, lc context.Context, key RouteKey, root handle.Handle) {
	// A resolution can expose more chain (the resolved_to edge), which
	// can contain further unresolved next-hops; iterate until a pass
	// resolves nothing new. Depth bounding inside Resolve keeps this
	// finite even against an adversarial route table.
	for pass := 0; pass <= c.maxRecursionDepth; pass++ {
		resolvedAny := false
		for _, h := range c.collectChain(root) {
			n, err := c.store.Get(h)
			if err != nil {
				continue
			}
			switch n.Kind {
			case handle.KindDirectNextHop:
				c.indexPort(n.Direct.EgressPort, h)
			case handle.KindRecursiveNextHop:
				c.rnhs[h] = true
				if n.Recursive.ResolvedTo != nil {
					continue
				}
				res, err := recursive.Resolve(c.store, c.rt, h, c.maxPrefixLen, c.maxRecursionDepth)
				if err != nil {
					c.reportProgramError(key, err)
					logger.WarnCtx(lc, "next-hop resolution failed",
						"handle", h.String(), logger.Err(err))
					continue
				}
				if res.Outcome == recursive.BecameResolved || res.Outcome == recursive.Modified {
					resolvedAny = true
					c.reindexRnh(h, res.RouteID)
					c.reclaim(ctx, lc, res.Freed)
				}
			}
		}
		if !resolvedAny {
			return
		}
	}
}

// collectChain returns every handle reachable from root through forward
// edges, root first, each handle once.
func (c *Core) collectChain(root handle.Handle) []handle.Handle {
	seen := map[handle.Handle]bool{root: true}
	out := []handle.Handle{root}
	for i := 0; i < len(out); i++ {
		children, err := c.store.Children(out[i])
		if err != nil {
			continue
		}
		for _, ch := range children {
			if !seen[ch] {
				seen[ch] = true
				out = append(out, ch)
			}
		}
	}
	return out
}

func (c *Core) indexPort(port uint32, h handle.Handle) {
	if c.portIndex[port] == nil {
		c.portIndex[port] = make(map[handle.Handle]bool)
	}
	c.portIndex[port][h] = true
}

// reindexRnh moves a RecursiveNextHop between route-id buckets when its
// covering route changes.
func (c *Core) reindexRnh(h handle.Handle, routeID store.RouteID) {
	if old, ok := c.rnhRoute[h]; ok && old != routeID {
		delete(c.routeIndex[old], h)
	}
	c.rnhRoute[h] = routeID
	if c.routeIndex[routeID] == nil {
		c.routeIndex[routeID] = make(map[handle.Handle]bool)
	}
	c.routeIndex[routeID][h] = true
}

// programmed reports what one program call materialized: the FEC the
// caller should reference, and — when the resources were allocated for
// this call alone rather than cached on a shared node — the owned FEC
// and EEDB chain the caller must eventually quiesce and free.
type programmed struct {
	fec   hal.FecID
	owned bool
	eedbs []hal.EedbID
}

// programRoute forward-walks route.Resolution and, if resolvable,
// programs hardware for it bottom-up, recording the route's FEC and
// flipping Active. An Unresolved outcome is not an error: the route is
// left inactive (its previously programmed hardware, if any, stays
// allocated for when resolution returns). A successful reprogram
// replaces the route's owned resources make-before-break: the new
// chain is fully programmed before the old FEC is drained and freed.
func (c *Core) programRoute(ctx context.Context, route *Route) error {
	assembly, err := forward.Walk(c.store, route.Resolution, c.maxWalkDepth)
	if err != nil {
		return err
	}
	if assembly.Unresolved {
		if route.Active {
			route.Active = false
			c.sink.RouteDeactivated(route.Key)
		}
		return nil
	}

	res, err := c.program(ctx, assembly)
	if err != nil {
		return err
	}

	oldFec, oldValid, oldOwned, oldEedbs := route.Fec, route.fecValid, route.fecOwned, route.eedbs
	route.Fec = res.fec
	route.fecValid = true
	route.fecOwned = res.owned
	route.eedbs = res.eedbs
	if !route.Active {
		route.Active = true
		c.sink.RouteActivated(route.Key)
	}

	// Break only after the make: drain the superseded FEC, then free it
	// and its encapsulation chain.
	if oldValid && oldOwned && oldFec != res.fec {
		if err := c.hal.Quiesce(ctx, oldFec); err != nil {
			return ferrors.Wrap(ferrors.CodePartiallyApplied, "drain of superseded FEC failed", err)
		}
		if err := c.hal.FreeFec(ctx, oldFec); err != nil {
			logger.Debug("failed to free superseded fec", logger.Err(err))
		}
		for _, e := range oldEedbs {
			if err := c.hal.FreeEedb(ctx, e); err != nil {
				logger.Debug("failed to free superseded eedb", logger.Err(err))
			}
		}
	}
	return nil
}

// program materializes one ForwardingAssembly into hardware, bottom-up:
// L2 rewrite EEDB, then the label-EEDB chain (deepest label first), then
// the FEC — or, for an ECMP/FRR decision, the member/branch FECs first
// and the decision's own FEC last.
func (c *Core) program(ctx context.Context, a *forward.Assembly) (programmed, error) {
	switch {
	case a.Ecmp != nil:
		return c.programEcmp(ctx, a.Ecmp)
	case a.Frr != nil:
		return c.programFrr(ctx, a.Frr)
	case a.Terminal != nil:
		return c.programLeaf(ctx, a)
	default:
		return programmed{}, ferrors.New(ferrors.CodeInvalidArgument, "assembly has neither terminal, ECMP nor FRR decision")
	}
}

func (c *Core) programLeaf(ctx context.Context, a *forward.Assembly) (programmed, error) {
	var eedbs []hal.EedbID

	eedb, err := c.hal.AllocEedb(ctx)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "eedb allocation failed", err)
	}
	eedbs = append(eedbs, eedb)
	c.metrics.ObserveHalOp("alloc_eedb")
	if err := c.hal.ProgramL2Rewrite(ctx, eedb, hal.L2Rewrite{
		DstMAC: a.Terminal.DstMAC,
		SrcMAC: a.Terminal.SrcMAC,
		VLAN:   a.Terminal.VLAN,
		Port:   a.Terminal.EgressPort,
	}); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "l2 rewrite program failed", err)
	}
	c.metrics.ObserveHalOp("program_l2_rewrite")

	caps, err := c.hal.Capabilities(ctx)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "capabilities query failed", err)
	}
	if caps.MaxLabelStackDepth > 0 && len(a.Labels) > int(caps.MaxLabelStackDepth) {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted,
			"label stack deeper than hardware supports", nil)
	}

	top := eedb
	if len(a.Labels) > 0 {
		if caps.SupportsEedbChaining {
			// Deepest label (closest to the terminal, last in our
			// outermost-first slice) is programmed first, chaining to
			// the L2-rewrite EEDB; each subsequent EEDB chains to the
			// previous one, ending with the outermost label on top.
			for i := len(a.Labels) - 1; i >= 0; i-- {
				next, err := c.hal.AllocEedb(ctx)
				if err != nil {
					return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "label eedb allocation failed", err)
				}
				eedbs = append(eedbs, next)
				l := a.Labels[i]
				if err := c.hal.ProgramLabelEedb(ctx, next, hal.LabelEntry{Label: l.Value, TC: l.TC, TTL: l.TTL}, top); err != nil {
					return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "label eedb program failed", err)
				}
				c.metrics.ObserveHalOp("program_label_eedb")
				top = next
			}
		} else {
			// HAL cannot chain EEDBs: collapse the whole stack into one
			// label EEDB entry whose full-stack format the HAL owns
			// internally. Only the outermost label crosses this
			// interface.
			collapsed, err := c.hal.AllocEedb(ctx)
			if err != nil {
				return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "collapsed label eedb allocation failed", err)
			}
			eedbs = append(eedbs, collapsed)
			outer := a.Labels[0]
			if err := c.hal.ProgramLabelEedb(ctx, collapsed, hal.LabelEntry{Label: outer.Value, TC: outer.TC, TTL: outer.TTL}, top); err != nil {
				return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "collapsed label eedb program failed", err)
			}
			c.metrics.ObserveHalOp("program_label_eedb")
			top = collapsed
		}
	}

	fec, err := c.hal.AllocFec(ctx)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "fec allocation failed", err)
	}
	c.metrics.ObserveHalOp("alloc_fec")
	if err := c.hal.ProgramFecSimple(ctx, fec, top, a.Terminal.EgressPort); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "fec program failed", err)
	}
	c.metrics.ObserveHalOp("program_fec_simple")
	return programmed{fec: fec, owned: true, eedbs: eedbs}, nil
}

// programEcmp allocates one HAL ECMP group and fills it from the live
// group's actual member/liveness/resilient-table state (fetched from
// the store by d.Handle, not reconstructed from the sub-assemblies
// alone), so the hardware bitmap and resilient table always match what
// ecmp.Select would compute, including the position-stable holes left
// by a removed member.
//
// A group already programmed for an earlier Route is never re-allocated:
// every Route sharing the same EcmpGroup handle shares the same hardware
// group, which is what lets PIC Core reprogram it once (in
// reprogramEcmpHardware) regardless of how many Routes depend on it.
// The member FECs and EEDBs programmed beneath the group are recorded
// on the group's node, so the store's release cascade frees them with
// the group.
func (c *Core) programEcmp(ctx context.Context, d *forward.EcmpDecision) (programmed, error) {
	n, err := c.store.Get(d.Handle)
	if err != nil {
		return programmed{}, err
	}
	if n.Hw.Programmed && n.Hw.HasEcmp {
		return programmed{fec: hal.FecID(n.Hw.FecID)}, nil
	}

	caps, err := c.hal.Capabilities(ctx)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "capabilities query failed", err)
	}
	ecmpID, err := c.hal.AllocEcmp(ctx, caps.MaxMembersPerEcmp)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "ecmp allocation failed", err)
	}
	c.metrics.ObserveHalOp("alloc_ecmp")

	var memberEedbs, memberFecs []uint32
	for _, m := range d.Members {
		mres, err := c.program(ctx, m.Assembly)
		if err != nil {
			return programmed{}, err
		}
		if mres.owned {
			memberFecs = append(memberFecs, uint32(mres.fec))
			for _, e := range mres.eedbs {
				memberEedbs = append(memberEedbs, uint32(e))
			}
		}
	}

	if err := c.hal.UpdateEcmpMembers(ctx, ecmpID, n.Ecmp.MemberLive, n.Ecmp.ResilientTable); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "ecmp member program failed", err)
	}
	c.metrics.ObserveHalOp("update_ecmp_members")

	fec, err := c.hal.AllocFec(ctx)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "fec allocation failed", err)
	}
	c.metrics.ObserveHalOp("alloc_fec")
	if err := c.hal.ProgramFecEcmp(ctx, fec, ecmpID); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "fec-ecmp program failed", err)
	}
	c.metrics.ObserveHalOp("program_fec_ecmp")
	if err := c.store.SetHwResource(d.Handle, store.HwResource{
		Programmed: true,
		FecID:      uint32(fec),
		EcmpID:     uint32(ecmpID),
		HasEcmp:    true,
		Eedbs:      memberEedbs,
		SubFecs:    memberFecs,
	}); err != nil {
		return programmed{}, err
	}
	return programmed{fec: fec}, nil
}

// programFrr mirrors programEcmp's caching: an FrrProtected handle
// already backing an installed Route keeps its one FEC, and PIC Edge
// flips it in place via reprogramFrrHardware instead of this function
// re-running per dependent Route.
func (c *Core) programFrr(ctx context.Context, d *forward.FrrDecision) (programmed, error) {
	n, err := c.store.Get(d.Handle)
	if err != nil {
		return programmed{}, err
	}
	if n.Hw.Programmed {
		return programmed{fec: hal.FecID(n.Hw.FecID)}, nil
	}

	var branchEedbs, branchFecs []uint32
	var primaryFec, backupFec hal.FecID
	programBranch := func(a *forward.Assembly) (hal.FecID, error) {
		bres, err := c.program(ctx, a)
		if err != nil {
			return 0, err
		}
		if bres.owned {
			branchFecs = append(branchFecs, uint32(bres.fec))
			for _, e := range bres.eedbs {
				branchEedbs = append(branchEedbs, uint32(e))
			}
		}
		return bres.fec, nil
	}
	if !d.Primary.Unresolved {
		if primaryFec, err = programBranch(d.Primary); err != nil {
			return programmed{}, err
		}
	}
	if !d.Backup.Unresolved {
		if backupFec, err = programBranch(d.Backup); err != nil {
			return programmed{}, err
		}
	}

	fec, err := c.hal.AllocFec(ctx)
	if err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwResourceExhausted, "fec allocation failed", err)
	}
	c.metrics.ObserveHalOp("alloc_fec")
	if err := c.hal.ProgramFecProtected(ctx, fec, primaryFec, backupFec); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "fec-protected program failed", err)
	}
	c.metrics.ObserveHalOp("program_fec_protected")
	if err := c.hal.LinkBackup(ctx, primaryFec, backupFec); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "link-backup failed", err)
	}
	branch := hal.Primary
	if d.Primary.Unresolved {
		branch = hal.Backup
	}
	if err := c.hal.SetActive(ctx, fec, branch); err != nil {
		return programmed{}, ferrors.Wrap(ferrors.CodeHwProgramFailed, "set-active failed", err)
	}
	c.metrics.ObserveHalOp("set_active")
	if err := c.store.SetHwResource(d.Handle, store.HwResource{
		Programmed: true,
		FecID:      uint32(fec),
		Eedbs:      branchEedbs,
		SubFecs:    branchFecs,
	}); err != nil {
		return programmed{}, err
	}
	return programmed{fec: fec}, nil
}

// reprogramEcmpHardware issues the single HAL call PIC Core needs after
// ecmp.MarkMemberDown/Up mutates a group's member-liveness and resilient
// table: it updates the one cached hardware group directly, in O(1)
// regardless of how many Routes the group backs. A group with no
// cached hardware yet (no Route has forward-walked it) has nothing to
// reprogram; the next InstallRoute/UpdateRoute through it will pick up
// the current member state when it first allocates.
func (c *Core) reprogramEcmpHardware(ctx context.Context, group handle.Handle) error {
	n, err := c.store.Get(group)
	if err != nil {
		return err
	}
	if !n.Hw.Programmed || !n.Hw.HasEcmp {
		return nil
	}
	c.metrics.ObservePicConvergence("ecmp")
	return c.hal.UpdateEcmpMembers(ctx, hal.EcmpID(n.Hw.EcmpID), n.Ecmp.MemberLive, n.Ecmp.ResilientTable)
}

// reprogramFrrHardware is reprogramEcmpHardware's PIC Edge counterpart:
// one SetActive call against the cached FEC after frr.Transition/Failback
// flips the active branch in the store.
func (c *Core) reprogramFrrHardware(ctx context.Context, frrHandle handle.Handle) error {
	n, err := c.store.Get(frrHandle)
	if err != nil {
		return err
	}
	if !n.Hw.Programmed {
		return nil
	}
	branch := hal.Primary
	if n.Frr.State == store.UsingBackup {
		branch = hal.Backup
	}
	c.metrics.ObservePicConvergence("frr")
	return c.hal.SetActive(ctx, hal.FecID(n.Hw.FecID), branch)
}

// freeRouteOwnedHardware frees the FEC and EEDB chain a route owns
// outright (a plain rewrite/label chain programmed for it alone).
// Shared, node-cached hardware is freed by the store's release cascade
// through reclaim instead.
func (c *Core) freeRouteOwnedHardware(ctx context.Context, lc context.Context, route *Route) {
	if !route.fecValid || !route.fecOwned {
		return
	}
	if err := c.hal.FreeFec(ctx, route.Fec); err != nil {
		logger.ErrorCtx(lc, "failed to free route fec", logger.Err(err))
	}
	for _, e := range route.eedbs {
		if err := c.hal.FreeEedb(ctx, e); err != nil {
			logger.ErrorCtx(lc, "failed to free route eedb", logger.Err(err))
		}
	}
	route.fecValid = false
	route.fecOwned = false
	route.eedbs = nil
}

// reclaim issues the matching HAL free calls for every node a release
// cascade actually destroyed, per store.Freed's contract (the store
// only reports what was freed, the orchestrator owns the HAL), and
// prunes the destroyed handles from the event-routing indexes.
func (c *Core) reclaim(ctx context.Context, lc context.Context, freed []store.Freed) {
	for _, f := range freed {
		switch f.Kind {
		case handle.KindDirectNextHop:
			for _, hs := range c.portIndex {
				delete(hs, f.Handle)
			}
		case handle.KindRecursiveNextHop:
			delete(c.rnhs, f.Handle)
			if rid, ok := c.rnhRoute[f.Handle]; ok {
				delete(c.routeIndex[rid], f.Handle)
				delete(c.rnhRoute, f.Handle)
			}
		}

		if !f.Hw.Programmed {
			continue
		}
		if f.Hw.HasEcmp {
			if err := c.hal.FreeEcmp(ctx, hal.EcmpID(f.Hw.EcmpID)); err != nil {
				logger.ErrorCtx(lc, "failed to free ecmp group", logger.Err(err))
			}
		}
		for _, e := range f.Hw.Eedbs {
			if err := c.hal.FreeEedb(ctx, hal.EedbID(e)); err != nil {
				logger.ErrorCtx(lc, "failed to free eedb", logger.Err(err))
			}
		}
		for _, sf := range f.Hw.SubFecs {
			if err := c.hal.FreeFec(ctx, hal.FecID(sf)); err != nil {
				logger.ErrorCtx(lc, "failed to free member fec", logger.Err(err))
			}
		}
		if err := c.hal.FreeFec(ctx, hal.FecID(f.Hw.FecID)); err != nil {
			logger.ErrorCtx(lc, "failed to free fec", logger.Err(err))
		}
	}
}

func removeRouteKey(list []RouteKey, key RouteKey) []RouteKey {
	out := list[:0]
	for _, x := range list {
		if x != key {
			out = append(out, x)
		}
	}
	return out
}

// OnInterfaceDown flips every DirectNextHop reachable on port to
// unreachable and drives a dependent walk from each so affected routes
// reprogram or deactivate.
func (c *Core) OnInterfaceDown(ctx context.Context, port uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setInterfaceReachability(ctx, port, false)
}

// OnInterfaceUp is the recovery counterpart of OnInterfaceDown.
func (c *Core) OnInterfaceUp(ctx context.Context, port uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setInterfaceReachability(ctx, port, true)
}

func (c *Core) setInterfaceReachability(ctx context.Context, port uint32, reachable bool) error {
	for h := range c.portIndex[port] {
		if err := c.store.SetDirectReachable(store.InterfaceCapability, h, reachable); err != nil {
			continue
		}
		kind := dependent.InterfaceUp
		if !reachable {
			kind = dependent.InterfaceDown
		}
		// Routes rooted directly at this hop first, then everything
		// that reaches it through intermediate objects.
		if err := c.reprogramRootRoutes(ctx, h); err != nil {
			return err
		}
		outcome, err := dependent.Walk(ctx, c.store, h, kind, dependent.Full, 0, hwUpdater{core: c})
		if err != nil {
			return err
		}
		c.metrics.ObserveDependentWalkFanout(len(outcome.Visited))
	}
	return nil
}

// OnLinkEvent reports a link transition. If the link was registered as
// an ECMP member (RegisterEcmpLink), it is routed into PIC Core; if it
// was registered as an FRR branch (RegisterFrrLink), into PIC Edge.
// An unregistered link is a no-op: the caller is responsible for
// registering topology before driving events through it.
func (c *Core) OnLinkEvent(ctx context.Context, link string, up bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ref, ok := c.ecmpLinks[link]; ok {
		updater := hwUpdater{core: c}
		var err error
		if up {
			_, err = pic.OnIgpPathUp(ctx, c.store, ref.group, ref.pos, updater)
		} else {
			_, err = pic.OnIgpPathDown(ctx, c.store, ref.group, ref.pos, updater)
		}
		if err != nil {
			return err
		}
		// The group itself may be a Route's own hardware-programmed root
		// (not merely an ancestor the dependent walk's Updater reaches),
		// so reprogram its cached hardware directly: one HAL call no
		// matter how many Routes share this group.
		return c.reprogramEcmpHardware(ctx, ref.group)
	}
	if fb, ok := c.frrLinks[link]; ok {
		return c.applyFrrLiveness(ctx, fb.frr, fb.primary, up)
	}
	return nil
}

// OnBfdDown reports a BFD session failure for one branch of an
// FrrProtected pair, driving PIC Edge failover.
func (c *Core) OnBfdDown(ctx context.Context, session string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, ok := c.bfd[session]
	if !ok {
		return nil
	}
	return c.applyFrrLiveness(ctx, fb.frr, fb.primary, false)
}

// OnBfdUp is the recovery counterpart of OnBfdDown.
func (c *Core) OnBfdUp(ctx context.Context, session string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb, ok := c.bfd[session]
	if !ok {
		return nil
	}
	return c.applyFrrLiveness(ctx, fb.frr, fb.primary, true)
}

func (c *Core) applyFrrLiveness(ctx context.Context, frrHandle handle.Handle, primary bool, live bool) error {
	cur := c.frrLiveness[frrHandle]
	if primary {
		cur[0] = live
	} else {
		cur[1] = live
	}
	c.frrLiveness[frrHandle] = cur

	changed, _, err := pic.OnRemoteNextHopLivenessChange(ctx, c.store, frrHandle, cur[0], cur[1], hwUpdater{core: c})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return c.reprogramFrrHardware(ctx, frrHandle)
}

// Failback forces a non-revertive FrrProtected pair currently on its
// backup branch back onto the primary, typically after an operator has
// confirmed the primary path is stable again, and reprograms the
// protected FEC if the active branch actually moved.
func (c *Core) Failback(ctx context.Context, frrHandle handle.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed, _, err := pic.OnFailback(ctx, c.store, frrHandle, hwUpdater{core: c})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return c.reprogramFrrHardware(ctx, frrHandle)
}

// OnRouteChange is the LPM callback: re-resolves every
// RecursiveNextHop whose resolution depends on routeID (plus, for an
// added route, every next-hop still awaiting any resolution at all),
// re-programs the routes that depend on each one whose resolution
// actually changed, and is a no-op for re-resolutions that come back
// Unchanged.
func (c *Core) OnRouteChange(ctx context.Context, routeID store.RouteID, change routetable.ChangeKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lc := routeLogCtx("on_route_change", RouteKey{})

	candidates := make([]handle.Handle, 0, len(c.routeIndex[routeID]))
	for h := range c.routeIndex[routeID] {
		candidates = append(candidates, h)
	}
	if change == routetable.ChangeAdded {
		// A brand-new covering route can satisfy next-hops that had no
		// route id to be bucketed under yet.
		for h := range c.rnhs {
			n, err := c.store.Get(h)
			if err != nil || n.Recursive.ResolvedTo != nil {
				continue
			}
			candidates = append(candidates, h)
		}
	}

	for _, rnh := range candidates {
		res, err := recursive.Resolve(c.store, c.rt, rnh, c.maxPrefixLen, c.maxRecursionDepth)
		if err != nil {
			logger.WarnCtx(lc, "re-resolution failed", "handle", rnh.String(), logger.Err(err))
			continue
		}
		if res.Outcome == recursive.Unchanged {
			continue
		}
		c.reclaim(ctx, lc, res.Freed)
		switch res.Outcome {
		case recursive.BecameResolved, recursive.Modified:
			c.reindexRnh(rnh, res.RouteID)
		case recursive.BecameUnresolved:
			if rid, ok := c.rnhRoute[rnh]; ok {
				delete(c.routeIndex[rid], rnh)
				delete(c.rnhRoute, rnh)
			}
		}

		kind := dependent.Modified
		switch res.Outcome {
		case recursive.BecameResolved:
			kind = dependent.BecameResolved
		case recursive.BecameUnresolved:
			kind = dependent.BecameUnresolved
		}
		if err := c.reprogramRootRoutes(ctx, rnh); err != nil {
			return err
		}
		outcome, err := dependent.Walk(ctx, c.store, rnh, kind, dependent.Full, 0, hwUpdater{core: c})
		if err != nil {
			return err
		}
		c.metrics.ObserveDependentWalkFanout(len(outcome.Visited))
	}
	return nil
}
