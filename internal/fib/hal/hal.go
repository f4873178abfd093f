// Package hal defines the Hardware Abstraction Layer trait the core
// calls to materialize the resolution hierarchy into ASIC-style tables.
// Implementations live outside the core; this package only states the
// contract and the opaque identifier types.
package hal

import "context"

// FecID, EedbID and EcmpID are opaque identifiers owned by the HAL
// implementation. The core never interprets their bit layout.
type FecID uint32
type EedbID uint32
type EcmpID uint32

// L2Rewrite is the egress rewrite programmed into an EEDB entry.
type L2Rewrite struct {
	DstMAC [6]byte
	SrcMAC [6]byte
	VLAN   uint16
	Port   uint32
}

// LabelEntry is a single MPLS label programmed into a label-EEDB chain
// link.
type LabelEntry struct {
	Label uint32
	TC    uint8
	TTL   uint8
}

// ActiveBranch selects which half of a protected FEC is live.
type ActiveBranch uint8

const (
	Primary ActiveBranch = iota
	Backup
)

// Capabilities reports the limits and optional features of a concrete
// HAL implementation, consulted by the orchestration layer to decide,
// e.g., whether to collapse a label stack into one EEDB entry.
type Capabilities struct {
	MaxFec               uint32
	MaxEedb              uint32
	MaxEcmp              uint32
	MaxMembersPerEcmp    uint32
	MaxLabelStackDepth   uint32
	SupportsBackupFec    bool
	SupportsEedbChaining bool
}

// HardwareAbstraction is the trait the core calls to program the ASIC.
// The core does not retry on failure; failures are surfaced to the
// orchestrator via the returned error, which the caller maps onto the
// hardware error taxonomy in ferrors.
type HardwareAbstraction interface {
	Capabilities(ctx context.Context) (Capabilities, error)

	AllocFec(ctx context.Context) (FecID, error)
	FreeFec(ctx context.Context, fec FecID) error

	AllocEedb(ctx context.Context) (EedbID, error)
	FreeEedb(ctx context.Context, eedb EedbID) error

	AllocEcmp(ctx context.Context, maxMembers uint32) (EcmpID, error)
	FreeEcmp(ctx context.Context, ecmp EcmpID) error

	ProgramL2Rewrite(ctx context.Context, eedb EedbID, rw L2Rewrite) error
	// ProgramLabelEedb chains a label-push entry to nextEedb (which may
	// be the L2-rewrite EEDB at the bottom, or another label EEDB).
	ProgramLabelEedb(ctx context.Context, eedb EedbID, label LabelEntry, nextEedb EedbID) error

	ProgramFecSimple(ctx context.Context, fec FecID, eedb EedbID, port uint32) error
	ProgramFecEcmp(ctx context.Context, fec FecID, ecmp EcmpID) error
	ProgramFecProtected(ctx context.Context, fec FecID, primaryFec, backupFec FecID) error

	UpdateEcmpMembers(ctx context.Context, ecmp EcmpID, liveBitmap []bool, resilientTable []int32) error

	LinkBackup(ctx context.Context, primaryFec, backupFec FecID) error
	SetActive(ctx context.Context, protectedFec FecID, branch ActiveBranch) error

	// Quiesce is the make-before-break drain barrier: it blocks until
	// the hardware confirms all in-flight packets have drained from the
	// resource being replaced, or returns an error (surfaced by the
	// orchestrator as PartiallyApplied) if ctx expires first.
	Quiesce(ctx context.Context, fec FecID) error
}
