package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the FIB core.
// Use these keys consistently across all log statements for log
// aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Orchestration
	// ========================================================================
	KeyOperation  = "operation" // install_route, update_route, withdraw_route, ...
	KeyRouteKey   = "route_key" // string form of (family, prefix, prefix_len, protocol)
	KeyHandle     = "handle"    // opaque resolution-object handle
	KeyHandleKind = "handle_kind"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"

	// ========================================================================
	// Node store / walks
	// ========================================================================
	KeyRefcount   = "refcount"
	KeyDepth      = "depth"
	KeyStrategy   = "strategy"
	KeyChangeKind = "change_kind"
	KeyVisited    = "visited_count"
	KeyStaleCount = "stale_count"

	// ========================================================================
	// ECMP / FRR
	// ========================================================================
	KeyEcmpGroup = "ecmp_group"
	KeyMemberPos = "member_pos"
	KeyFrrState  = "frr_state"
	KeyProtection = "protection"
	KeyRevertive  = "revertive"

	// ========================================================================
	// Hardware Abstraction Layer
	// ========================================================================
	KeyFecID  = "fec_id"
	KeyEedbID = "eedb_id"
	KeyEcmpID = "ecmp_id"
	KeyHalOp  = "hal_op"

	// ========================================================================
	// External collaborators
	// ========================================================================
	KeyRouteID    = "route_id"
	KeyLinkID     = "link_id"
	KeyPort       = "port"
	KeyBfdSession = "bfd_session"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the orchestration operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// RouteKey returns a slog.Attr for a route key's string form.
func RouteKey(key string) slog.Attr {
	return slog.String(KeyRouteKey, key)
}

// Handle returns a slog.Attr for an opaque handle's string form.
func Handle(h string) slog.Attr {
	return slog.String(KeyHandle, h)
}

// HandleKind returns a slog.Attr for a handle's resolution-object kind.
func HandleKind(kind string) slog.Attr {
	return slog.String(KeyHandleKind, kind)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Refcount returns a slog.Attr for a node's refcount.
func Refcount(n int32) slog.Attr {
	return slog.Int64(KeyRefcount, int64(n))
}

// Depth returns a slog.Attr for walk depth.
func Depth(d int) slog.Attr {
	return slog.Int(KeyDepth, d)
}

// Strategy returns a slog.Attr for a dependent-walk strategy.
func Strategy(s string) slog.Attr {
	return slog.String(KeyStrategy, s)
}

// ChangeKind returns a slog.Attr for a change kind.
func ChangeKind(k string) slog.Attr {
	return slog.String(KeyChangeKind, k)
}

// Visited returns a slog.Attr for how many dependents a walk visited.
func Visited(n int) slog.Attr {
	return slog.Int(KeyVisited, n)
}

// StaleCount returns a slog.Attr for how many dependents a walk left stale.
func StaleCount(n int) slog.Attr {
	return slog.Int(KeyStaleCount, n)
}

// EcmpGroup returns a slog.Attr for an ECMP group handle's string form.
func EcmpGroup(h string) slog.Attr {
	return slog.String(KeyEcmpGroup, h)
}

// MemberPos returns a slog.Attr for an ECMP member position.
func MemberPos(pos int) slog.Attr {
	return slog.Int(KeyMemberPos, pos)
}

// FrrState returns a slog.Attr for an FrrProtected state.
func FrrState(s string) slog.Attr {
	return slog.String(KeyFrrState, s)
}

// Protection returns a slog.Attr for an FRR protection type.
func Protection(p string) slog.Attr {
	return slog.String(KeyProtection, p)
}

// Revertive returns a slog.Attr for an FRR revertive flag.
func Revertive(r bool) slog.Attr {
	return slog.Bool(KeyRevertive, r)
}

// FecID returns a slog.Attr for a HAL FEC identifier.
func FecID(id uint32) slog.Attr {
	return slog.Any(KeyFecID, id)
}

// EedbID returns a slog.Attr for a HAL EEDB identifier.
func EedbID(id uint32) slog.Attr {
	return slog.Any(KeyEedbID, id)
}

// EcmpID returns a slog.Attr for a HAL ECMP group identifier.
func EcmpID(id uint32) slog.Attr {
	return slog.Any(KeyEcmpID, id)
}

// HalOp returns a slog.Attr naming the HAL operation being performed.
func HalOp(op string) slog.Attr {
	return slog.String(KeyHalOp, op)
}

// RouteID returns a slog.Attr for an external LPM route table entry id.
func RouteID(id uint64) slog.Attr {
	return slog.Uint64(KeyRouteID, id)
}

// LinkID returns a slog.Attr for a link identifier.
func LinkID(id string) slog.Attr {
	return slog.String(KeyLinkID, id)
}

// Port returns a slog.Attr for an interface/port identifier.
func Port(port uint32) slog.Attr {
	return slog.Any(KeyPort, port)
}

// BfdSession returns a slog.Attr for a BFD session identifier.
func BfdSession(id string) slog.Attr {
	return slog.String(KeyBfdSession, id)
}
