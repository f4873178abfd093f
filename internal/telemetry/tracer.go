package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for FIB core operations. Orchestration-level keys use
// the "route."/"resolution."/"walk." prefixes; hardware-facing keys use
// "hal."; ECMP/FRR keys use "ecmp."/"frr."; external-collaborator keys
// use their own prefix (lpm, link, bfd, interface).
const (
	// ========================================================================
	// Orchestration attributes
	// ========================================================================
	AttrRouteKey       = "route.key"
	AttrRouteActive    = "route.active"
	AttrResolutionRoot = "resolution.root"
	AttrResolutionKind = "resolution.kind"

	// ========================================================================
	// Walk attributes
	// ========================================================================
	AttrWalkDepth      = "walk.depth"
	AttrWalkStrategy   = "walk.strategy"
	AttrWalkChangeKind = "walk.change_kind"
	AttrWalkVisited    = "walk.visited"
	AttrWalkStale      = "walk.stale"

	// ========================================================================
	// Hardware Abstraction Layer attributes
	// ========================================================================
	AttrHalOp   = "hal.op"
	AttrHalFec  = "hal.fec"
	AttrHalEedb = "hal.eedb"
	AttrHalEcmp = "hal.ecmp"

	// ========================================================================
	// ECMP / FRR attributes
	// ========================================================================
	AttrEcmpMemberPos   = "ecmp.member_pos"
	AttrEcmpLiveMembers = "ecmp.live_members"
	AttrEcmpHashMode    = "ecmp.hash_mode"
	AttrFrrState        = "frr.state"
	AttrFrrProtection   = "frr.protection"

	// ========================================================================
	// External collaborator attributes
	// ========================================================================
	AttrLpmRouteID   = "lpm.route_id"
	AttrLpmPrefixLen = "lpm.prefix_len"
	AttrLinkID       = "link.id"
	AttrBfdSession   = "bfd.session"
	AttrPort         = "interface.port"
)

// Span names. Format: <component>.<operation>.
const (
	// Orchestration spans
	SpanInstallRoute  = "fib.install_route"
	SpanUpdateRoute   = "fib.update_route"
	SpanWithdrawRoute = "fib.withdraw_route"
	SpanRouteChange   = "fib.on_route_change"
	SpanLinkEvent     = "fib.on_link_event"
	SpanBfdEvent      = "fib.on_bfd_event"
	SpanInterface     = "fib.on_interface_event"

	// Walk spans
	SpanForwardWalk   = "walk.forward"
	SpanDependentWalk = "walk.dependent"
	SpanResolve       = "resolve.recursive"

	// HAL spans
	SpanHalAlloc   = "hal.alloc"
	SpanHalProgram = "hal.program"
	SpanHalFree    = "hal.free"
	SpanHalQuiesce = "hal.quiesce"
)

// RouteKey returns an attribute for a route key's string form.
func RouteKey(key string) attribute.KeyValue {
	return attribute.String(AttrRouteKey, key)
}

// RouteActive returns an attribute for a route's active flag.
func RouteActive(active bool) attribute.KeyValue {
	return attribute.Bool(AttrRouteActive, active)
}

// ResolutionRoot returns an attribute for a resolution-object handle's
// string form.
func ResolutionRoot(h string) attribute.KeyValue {
	return attribute.String(AttrResolutionRoot, h)
}

// ResolutionKind returns an attribute for a resolution-object kind.
func ResolutionKind(kind string) attribute.KeyValue {
	return attribute.String(AttrResolutionKind, kind)
}

// WalkDepth returns an attribute for a forward walk's depth.
func WalkDepth(depth int) attribute.KeyValue {
	return attribute.Int(AttrWalkDepth, depth)
}

// WalkStrategy returns an attribute for a dependent walk's strategy.
func WalkStrategy(s string) attribute.KeyValue {
	return attribute.String(AttrWalkStrategy, s)
}

// WalkChangeKind returns an attribute for the change kind that triggered
// a dependent walk.
func WalkChangeKind(kind string) attribute.KeyValue {
	return attribute.String(AttrWalkChangeKind, kind)
}

// WalkVisited returns an attribute for how many dependents a walk
// notified.
func WalkVisited(n int) attribute.KeyValue {
	return attribute.Int(AttrWalkVisited, n)
}

// WalkStale returns an attribute for how many dependents a walk left
// stale after a mid-walk failure.
func WalkStale(n int) attribute.KeyValue {
	return attribute.Int(AttrWalkStale, n)
}

// HalOp returns an attribute naming a HAL operation.
func HalOp(op string) attribute.KeyValue {
	return attribute.String(AttrHalOp, op)
}

// Fec returns an attribute for a HAL FEC identifier.
func Fec(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrHalFec, int64(id))
}

// Eedb returns an attribute for a HAL EEDB identifier.
func Eedb(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrHalEedb, int64(id))
}

// Ecmp returns an attribute for a HAL ECMP group identifier.
func Ecmp(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrHalEcmp, int64(id))
}

// EcmpMemberPos returns an attribute for an ECMP member position.
func EcmpMemberPos(pos int) attribute.KeyValue {
	return attribute.Int(AttrEcmpMemberPos, pos)
}

// EcmpLiveMembers returns an attribute for a group's live member count.
func EcmpLiveMembers(n int) attribute.KeyValue {
	return attribute.Int(AttrEcmpLiveMembers, n)
}

// EcmpHashMode returns an attribute for a group's hash policy.
func EcmpHashMode(mode string) attribute.KeyValue {
	return attribute.String(AttrEcmpHashMode, mode)
}

// FrrState returns an attribute for an FrrProtected pair's active-branch
// state.
func FrrState(state string) attribute.KeyValue {
	return attribute.String(AttrFrrState, state)
}

// FrrProtection returns an attribute for an FRR protection type.
func FrrProtection(p string) attribute.KeyValue {
	return attribute.String(AttrFrrProtection, p)
}

// LpmRouteID returns an attribute for an external LPM route id.
func LpmRouteID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrLpmRouteID, int64(id))
}

// LpmPrefixLen returns an attribute for the matched prefix length of an
// LPM lookup.
func LpmPrefixLen(bits int) attribute.KeyValue {
	return attribute.Int(AttrLpmPrefixLen, bits)
}

// LinkID returns an attribute for a link identifier.
func LinkID(id string) attribute.KeyValue {
	return attribute.String(AttrLinkID, id)
}

// BfdSession returns an attribute for a BFD session identifier.
func BfdSession(id string) attribute.KeyValue {
	return attribute.String(AttrBfdSession, id)
}

// Port returns an attribute for an interface/egress port.
func Port(port uint32) attribute.KeyValue {
	return attribute.Int64(AttrPort, int64(port))
}

// StartRouteSpan starts a span for one orchestration operation on a
// route (install/update/withdraw), stamping the route key.
func StartRouteSpan(ctx context.Context, span string, routeKey string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{RouteKey(routeKey)}, attrs...)
	return StartSpan(ctx, span, trace.WithAttributes(allAttrs...))
}

// StartWalkSpan starts a span for a forward or dependent walk rooted at
// the given resolution object.
func StartWalkSpan(ctx context.Context, span string, root string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ResolutionRoot(root)}, attrs...)
	return StartSpan(ctx, span, trace.WithAttributes(allAttrs...))
}

// StartHalSpan starts a span for a HAL call.
func StartHalSpan(ctx context.Context, span string, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{HalOp(op)}, attrs...)
	return StartSpan(ctx, span, trace.WithAttributes(allAttrs...))
}
