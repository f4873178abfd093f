package store

import "github.com/routingfib/corefib/internal/fib/handle"

// Family identifies the address family a RecursiveNextHop or Route is
// keyed on.
type Family uint8

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

// DirectNextHop is the only terminal resolution-object kind: an L2
// rewrite plus an egress port.
type DirectNextHop struct {
	DstMAC     [6]byte
	SrcMAC     [6]byte
	VLAN       uint16 // 0 = untagged
	EgressPort uint32
	Reachable  bool
}

// LabelOp enumerates the MPLS label operations a LabelOperation node can
// perform.
type LabelOp uint8

const (
	OpPush LabelOp = iota
	OpSwap
	OpPop
	OpPopAndForward
	OpSwapAndPush
)

func (op LabelOp) String() string {
	switch op {
	case OpPush:
		return "Push"
	case OpSwap:
		return "Swap"
	case OpPop:
		return "Pop"
	case OpPopAndForward:
		return "PopAndForward"
	case OpSwapAndPush:
		return "SwapAndPush"
	default:
		return "UnknownOp"
	}
}

// Label is a single MPLS label entry. Bottom-of-stack is derived at
// programming time from position in the assembled stack, never stored
// as ground truth here.
type Label struct {
	Value uint32 // 20-bit
	TC    uint8  // 3-bit
	TTL   uint8
}

// LabelOperation pushes, swaps or pops one or more labels before
// chaining to Next. Labels are stored in stack order: index 0 becomes
// top-of-stack.
type LabelOperation struct {
	Op     LabelOp
	Labels []Label
	Next   handle.Handle
}

// RouteID identifies an external LPM route table entry, used to track
// which covering route a RecursiveNextHop's resolution depends on.
type RouteID uint64

// RecursiveNextHop resolves an IP address via the external LPM route
// table. ResolvedTo is nil until a successful resolution.
type RecursiveNextHop struct {
	Family           Family
	Address          []byte
	ResolvedTo       *handle.Handle
	RecursionDepth   uint8
	ResolvingRouteID *RouteID
}

// HashMode enumerates the ECMP member-selection hash policies.
type HashMode uint8

const (
	HashL3 HashMode = iota
	HashL3L4
	HashFlowLabel
	HashMplsLabel
)

// EcmpGroup is an ordered, position-stable set of member resolution
// objects. Member positions are never
// compacted on removal — a removed member's slot is marked empty but
// retains its index until the group itself is destroyed.
type EcmpGroup struct {
	Members        []handle.Handle // handle.Nil marks a removed (but not yet compacted) slot
	MemberLive     []bool
	HashMode       HashMode
	ResilientTable []int32 // index into Members; -1 means no live member assigned yet
}

// ProtectionType enumerates the class of failure an FrrProtected pair
// guards against.
type ProtectionType uint8

const (
	ProtectionLink ProtectionType = iota
	ProtectionNode
	ProtectionSrlg
	ProtectionPath
)

// FrrState is the three-state machine governing which branch of an
// FrrProtected pair is the active forwarding choice.
type FrrState uint8

const (
	UsingPrimary FrrState = iota
	UsingBackup
	BothFailed
)

func (s FrrState) String() string {
	switch s {
	case UsingPrimary:
		return "UsingPrimary"
	case UsingBackup:
		return "UsingBackup"
	case BothFailed:
		return "BothFailed"
	default:
		return "UnknownState"
	}
}

// FrrProtected pairs a preinstalled primary and backup resolution
// object. Revertive behaviour (whether the primary is restored
// automatically when it recovers) is an explicit per-object flag set at
// construction, never a process-wide default.
type FrrProtected struct {
	Primary     handle.Handle
	Backup      handle.Handle
	Protection  ProtectionType
	State       FrrState
	DetectionMS uint16
	Revertive   bool
}

// DependentEdge is a weak reverse pointer: a relation and a lookup, but
// never ownership. Maintained symmetrically with forward edges.
type DependentEdge struct {
	DependentKind    handle.Kind
	DependentHandle  handle.Handle
	RequiresHWUpdate bool
}

// HwResource records the hardware resources the orchestration layer has
// programmed for a node, so a Release cascade can report what needs
// freeing when refcount hits zero. The store never interprets these
// values; they are opaque to it.
type HwResource struct {
	Programmed bool
	FecID      uint32
	EcmpID     uint32
	HasEcmp    bool
	// Eedbs lists every egress-encapsulation entry programmed under this
	// node, in programming order: each chain's L2-rewrite entry first and
	// its outermost label entry last.
	Eedbs []uint32
	// SubFecs lists member/branch FECs programmed beneath this node's own
	// FEC (ECMP members, FRR primary/backup).
	SubFecs []uint32
}

// Node is the tagged-variant resolution object. Kind selects exactly one
// of the five typed pointer fields as the live payload; the rest are nil.
// This is the Go-idiomatic substitute for the source's enum+union: a
// plain struct with variant-specific fields, dispatched with a switch
// over Kind rather than virtual calls.
type Node struct {
	Handle   handle.Handle
	Kind     handle.Kind
	Refcount int32

	Direct    *DirectNextHop
	Label     *LabelOperation
	Recursive *RecursiveNextHop
	Ecmp      *EcmpGroup
	Frr       *FrrProtected

	Dependents []DependentEdge
	Hw         HwResource
}

// Fields is the caller-supplied payload for Insert: exactly one of the
// five pointer fields must be set, matching Kind.
type Fields struct {
	Kind      handle.Kind
	Direct    *DirectNextHop
	Label     *LabelOperation
	Recursive *RecursiveNextHop
	Ecmp      *EcmpGroup
	Frr       *FrrProtected
}
