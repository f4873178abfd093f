// Package sim is a software-simulated HardwareAbstraction backend: it
// keeps the FEC/EEDB/ECMP tables a real ASIC driver would program in
// plain in-memory maps. corefibd's standalone mode runs against it, so
// the whole orchestration path — including make-before-break
// sequencing and resource accounting — can be driven end to end on a
// machine with no forwarding hardware at all.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/routingfib/corefib/internal/fib/hal"
)

type fecEntry struct {
	kind    string // simple | ecmp | protected
	eedb    hal.EedbID
	port    uint32
	ecmp    hal.EcmpID
	primary hal.FecID
	backup  hal.FecID
	active  hal.ActiveBranch
}

type eedbEntry struct {
	rewrite *hal.L2Rewrite
	label   *hal.LabelEntry
	next    hal.EedbID
}

type ecmpEntry struct {
	maxMembers uint32
	live       []bool
	table      []int32
}

// HAL implements hal.HardwareAbstraction entirely in memory.
type HAL struct {
	mu sync.Mutex

	caps hal.Capabilities

	nextFec  uint32
	nextEedb uint32
	nextEcmp uint32

	fecs  map[hal.FecID]*fecEntry
	eedbs map[hal.EedbID]*eedbEntry
	ecmps map[hal.EcmpID]*ecmpEntry
}

// New constructs a simulated HAL advertising caps. Zero-valued limits
// are raised to workable defaults.
func New(caps hal.Capabilities) *HAL {
	if caps.MaxFec == 0 {
		caps.MaxFec = 1 << 16
	}
	if caps.MaxEedb == 0 {
		caps.MaxEedb = 1 << 16
	}
	if caps.MaxEcmp == 0 {
		caps.MaxEcmp = 1 << 10
	}
	if caps.MaxMembersPerEcmp == 0 {
		caps.MaxMembersPerEcmp = 64
	}
	if caps.MaxLabelStackDepth == 0 {
		caps.MaxLabelStackDepth = 8
	}
	return &HAL{
		caps:  caps,
		fecs:  make(map[hal.FecID]*fecEntry),
		eedbs: make(map[hal.EedbID]*eedbEntry),
		ecmps: make(map[hal.EcmpID]*ecmpEntry),
	}
}

func (s *HAL) Capabilities(context.Context) (hal.Capabilities, error) {
	return s.caps, nil
}

func (s *HAL) AllocFec(context.Context) (hal.FecID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint32(len(s.fecs)) >= s.caps.MaxFec {
		return 0, fmt.Errorf("fec table full (%d entries)", s.caps.MaxFec)
	}
	s.nextFec++
	id := hal.FecID(s.nextFec)
	s.fecs[id] = &fecEntry{}
	return id, nil
}

func (s *HAL) FreeFec(_ context.Context, fec hal.FecID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fecs[fec]; !ok {
		return fmt.Errorf("free of unallocated fec %d", fec)
	}
	delete(s.fecs, fec)
	return nil
}

func (s *HAL) AllocEedb(context.Context) (hal.EedbID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint32(len(s.eedbs)) >= s.caps.MaxEedb {
		return 0, fmt.Errorf("eedb table full (%d entries)", s.caps.MaxEedb)
	}
	s.nextEedb++
	id := hal.EedbID(s.nextEedb)
	s.eedbs[id] = &eedbEntry{}
	return id, nil
}

func (s *HAL) FreeEedb(_ context.Context, eedb hal.EedbID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eedbs[eedb]; !ok {
		return fmt.Errorf("free of unallocated eedb %d", eedb)
	}
	delete(s.eedbs, eedb)
	return nil
}

func (s *HAL) AllocEcmp(_ context.Context, maxMembers uint32) (hal.EcmpID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint32(len(s.ecmps)) >= s.caps.MaxEcmp {
		return 0, fmt.Errorf("ecmp table full (%d entries)", s.caps.MaxEcmp)
	}
	if maxMembers > s.caps.MaxMembersPerEcmp {
		return 0, fmt.Errorf("ecmp group of %d members exceeds limit %d", maxMembers, s.caps.MaxMembersPerEcmp)
	}
	s.nextEcmp++
	id := hal.EcmpID(s.nextEcmp)
	s.ecmps[id] = &ecmpEntry{maxMembers: maxMembers}
	return id, nil
}

func (s *HAL) FreeEcmp(_ context.Context, ecmp hal.EcmpID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ecmps[ecmp]; !ok {
		return fmt.Errorf("free of unallocated ecmp group %d", ecmp)
	}
	delete(s.ecmps, ecmp)
	return nil
}

func (s *HAL) ProgramL2Rewrite(_ context.Context, eedb hal.EedbID, rw hal.L2Rewrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.eedbs[eedb]
	if !ok {
		return fmt.Errorf("program of unallocated eedb %d", eedb)
	}
	e.rewrite = &rw
	e.label = nil
	e.next = 0
	return nil
}

func (s *HAL) ProgramLabelEedb(_ context.Context, eedb hal.EedbID, label hal.LabelEntry, next hal.EedbID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.eedbs[eedb]
	if !ok {
		return fmt.Errorf("program of unallocated eedb %d", eedb)
	}
	if _, ok := s.eedbs[next]; !ok {
		return fmt.Errorf("label eedb %d chains to unallocated eedb %d", eedb, next)
	}
	e.label = &label
	e.rewrite = nil
	e.next = next
	return nil
}

func (s *HAL) ProgramFecSimple(_ context.Context, fec hal.FecID, eedb hal.EedbID, port uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fecs[fec]
	if !ok {
		return fmt.Errorf("program of unallocated fec %d", fec)
	}
	if _, ok := s.eedbs[eedb]; !ok {
		return fmt.Errorf("fec %d references unallocated eedb %d", fec, eedb)
	}
	*f = fecEntry{kind: "simple", eedb: eedb, port: port}
	return nil
}

func (s *HAL) ProgramFecEcmp(_ context.Context, fec hal.FecID, ecmp hal.EcmpID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fecs[fec]
	if !ok {
		return fmt.Errorf("program of unallocated fec %d", fec)
	}
	if _, ok := s.ecmps[ecmp]; !ok {
		return fmt.Errorf("fec %d references unallocated ecmp group %d", fec, ecmp)
	}
	*f = fecEntry{kind: "ecmp", ecmp: ecmp}
	return nil
}

func (s *HAL) ProgramFecProtected(_ context.Context, fec hal.FecID, primary, backup hal.FecID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fecs[fec]
	if !ok {
		return fmt.Errorf("program of unallocated fec %d", fec)
	}
	if !s.caps.SupportsBackupFec {
		return fmt.Errorf("backup fec unsupported by this table profile")
	}
	*f = fecEntry{kind: "protected", primary: primary, backup: backup, active: hal.Primary}
	return nil
}

func (s *HAL) UpdateEcmpMembers(_ context.Context, ecmp hal.EcmpID, live []bool, table []int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ecmps[ecmp]
	if !ok {
		return fmt.Errorf("update of unallocated ecmp group %d", ecmp)
	}
	e.live = append(e.live[:0], live...)
	e.table = append(e.table[:0], table...)
	return nil
}

func (s *HAL) LinkBackup(_ context.Context, primary, backup hal.FecID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.caps.SupportsBackupFec {
		return fmt.Errorf("backup fec unsupported by this table profile")
	}
	_, _ = primary, backup
	return nil
}

func (s *HAL) SetActive(_ context.Context, protectedFec hal.FecID, branch hal.ActiveBranch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fecs[protectedFec]
	if !ok {
		return fmt.Errorf("set-active of unallocated fec %d", protectedFec)
	}
	if f.kind != "protected" {
		return fmt.Errorf("set-active of non-protected fec %d", protectedFec)
	}
	f.active = branch
	return nil
}

// Quiesce is immediate: simulated forwarding has no in-flight packets
// to drain.
func (s *HAL) Quiesce(ctx context.Context, _ hal.FecID) error {
	return ctx.Err()
}

// Counts reports the currently allocated table sizes, for health
// endpoints and tests.
func (s *HAL) Counts() (fecs, eedbs, ecmps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fecs), len(s.eedbs), len(s.ecmps)
}
