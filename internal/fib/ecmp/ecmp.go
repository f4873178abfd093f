// Package ecmp implements the ECMP engine: membership, per-member
// liveness, and the resilient hashing table that bounds flow
// redistribution to approximately 1/N of flows on a single-member
// failure.
package ecmp

import (
	"hash/fnv"

	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
)

const defaultTableMultiplier = 64

// noLiveMember sentinel stored in a resilient-table slot that has never
// been assigned a live member.
const noLiveMember int32 = -1

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	if p < 1 {
		p = 1
	}
	return p
}

// Create allocates a new EcmpGroup. maxMembers bounds the group's
// eventual membership and sizes the resilient-hashing table to the
// smallest power of two >= 64*maxMembers.
func Create(s *store.Store, hashMode store.HashMode, maxMembers int, initialMembers []handle.Handle) (handle.Handle, error) {
	if maxMembers <= 0 {
		maxMembers = 1
	}
	tableSize := nextPow2(defaultTableMultiplier * maxMembers)
	table := make([]int32, tableSize)
	for i := range table {
		table[i] = noLiveMember
	}

	live := make([]bool, len(initialMembers))
	for i := range live {
		live[i] = !initialMembers[i].IsNil()
	}

	h, err := s.Insert(store.Fields{
		Kind: handle.KindEcmpGroup,
		Ecmp: &store.EcmpGroup{
			Members:        append([]handle.Handle(nil), initialMembers...),
			MemberLive:     live,
			HashMode:       hashMode,
			ResilientTable: table,
		},
	})
	if err != nil {
		return handle.Nil, err
	}
	if err := rebuildAssignments(s, h); err != nil {
		return handle.Nil, err
	}
	return h, nil
}

// AddMember appends a new member at a fresh position; positions are
// never reused for a different member once assigned. Returns EcmpFull
// if the group has reached the maxMembers capacity implied by its
// resilient table size.
func AddMember(s *store.Store, group handle.Handle, member handle.Handle) (int, error) {
	n, err := s.Get(group)
	if err != nil {
		return -1, err
	}
	if n.Kind != handle.KindEcmpGroup {
		return -1, ferrors.ErrInvalidArgument
	}
	maxMembers := len(n.Ecmp.ResilientTable) / defaultTableMultiplier
	if maxMembers > 0 && len(n.Ecmp.Members) >= maxMembers {
		return -1, ferrors.ErrEcmpFull
	}
	pos, err := s.AppendEcmpMember(store.EcmpCapability, group, member, true)
	if err != nil {
		return -1, err
	}
	if err := assignFreeSlots(s, group); err != nil {
		return -1, err
	}
	return pos, nil
}

// RemoveMember decrements the group's reference to the member at pos
// and redistributes that position's resilient-table entries across the
// remaining live members. Positions are never compacted: pos becomes a
// permanent hole (handle.Nil) until the group itself is destroyed, so
// resilient-table entries keep meaning the same member. Returns any nodes destroyed by the removed
// member losing its last reference, so the caller can free their
// hardware resources.
func RemoveMember(s *store.Store, group handle.Handle, pos int) ([]store.Freed, error) {
	freed, err := s.SetEcmpMember(store.EcmpCapability, group, pos, handle.Nil)
	if err != nil {
		return nil, err
	}
	if err := redistribute(s, group, pos); err != nil {
		return freed, err
	}
	return freed, nil
}

// MarkMemberDown flips position pos to not-live and redistributes
// exactly the resilient-table entries that pointed at it — a minimal
// disruption guarantee: no other entry is touched.
func MarkMemberDown(s *store.Store, group handle.Handle, pos int) error {
	if err := s.SetMemberLive(store.EcmpCapability, group, pos, false); err != nil {
		return err
	}
	return redistribute(s, group, pos)
}

// MarkMemberUp flips position pos back to live. Existing resilient-table
// entries are left untouched — bringing a member back does not itself
// move traffic off the members that absorbed its load, avoiding a
// second round of disruption; the recovered member only starts
// absorbing new entries assigned after this call (via assignFreeSlots)
// or future redistribution.
func MarkMemberUp(s *store.Store, group handle.Handle, pos int) error {
	if err := s.SetMemberLive(store.EcmpCapability, group, pos, true); err != nil {
		return err
	}
	return assignFreeSlots(s, group)
}

// redistribute reassigns every resilient-table entry currently pointing
// at failedPos to the remaining live members, round-robin in increasing
// position order. No entry pointing elsewhere is modified.
func redistribute(s *store.Store, group handle.Handle, failedPos int) error {
	n, err := s.Get(group)
	if err != nil {
		return err
	}
	liveOrder := livePositions(n.Ecmp)
	table := append([]int32(nil), n.Ecmp.ResilientTable...)

	if len(liveOrder) == 0 {
		for i := range table {
			if table[i] == int32(failedPos) {
				table[i] = noLiveMember
			}
		}
		return s.SetResilientTable(store.EcmpCapability, group, table)
	}

	cursor := 0
	for i := range table {
		if table[i] == int32(failedPos) {
			table[i] = liveOrder[cursor%len(liveOrder)]
			cursor++
		}
	}
	return s.SetResilientTable(store.EcmpCapability, group, table)
}

// assignFreeSlots fills any resilient-table entry still pointing at
// noLiveMember with a live member, round-robin. Used after group
// creation and after a member recovers.
func assignFreeSlots(s *store.Store, group handle.Handle) error {
	n, err := s.Get(group)
	if err != nil {
		return err
	}
	liveOrder := livePositions(n.Ecmp)
	if len(liveOrder) == 0 {
		return nil
	}
	table := append([]int32(nil), n.Ecmp.ResilientTable...)
	cursor := 0
	for i := range table {
		if table[i] == noLiveMember {
			table[i] = liveOrder[cursor%len(liveOrder)]
			cursor++
		}
	}
	return s.SetResilientTable(store.EcmpCapability, group, table)
}

// rebuildAssignments assigns every table entry from scratch, used only
// at group creation.
func rebuildAssignments(s *store.Store, group handle.Handle) error {
	return assignFreeSlots(s, group)
}

func livePositions(g *store.EcmpGroup) []int32 {
	var out []int32
	for i, live := range g.MemberLive {
		if live && !g.Members[i].IsNil() {
			out = append(out, int32(i))
		}
	}
	return out
}

// ErrNoLiveMember is surfaced to the forward walk as Unresolved when a
// selection is attempted against a group with zero live members.
var ErrNoLiveMember = ferrors.New(ferrors.CodeUnresolved, "ECMP group has no live member")

// Select deterministically chooses a member handle for a flow, given the
// group's current resilient-table snapshot and a policy-specific key.
// Returns ErrNoLiveMember if the group is unresolved (the Empty state of the
// Healthy/Degraded/Empty lifecycle).
func Select(g *store.EcmpGroup, key []byte) (handle.Handle, int, error) {
	if len(g.ResilientTable) == 0 {
		return handle.Nil, -1, ErrNoLiveMember
	}
	idx := hashKey(key) % uint32(len(g.ResilientTable))
	pos := g.ResilientTable[idx]
	if pos == noLiveMember {
		return handle.Nil, -1, ErrNoLiveMember
	}
	return g.Members[pos], int(pos), nil
}

// HashKey builds the selection key for a given hash mode from packet
// fields. Combining all fields unconditionally is deterministic and
// policy-appropriate: L3 mode callers pass only src/dst, L3L4 callers
// additionally pass ports+protocol, etc. — the mode only dictates what
// the caller includes in fields, not how this function mixes them.
func HashKey(fields ...[]byte) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

func hashKey(key []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return h.Sum32()
}
