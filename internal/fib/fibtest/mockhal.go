// Package fibtest provides test doubles for the orchestration layer:
// an in-memory HardwareAbstraction that records every call instead of
// touching real ASIC state, and a recording EventSink, so scenario
// tests can assert on exactly what the core would have programmed.
package fibtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/hal"
)

// MockHAL implements hal.HardwareAbstraction entirely in memory. It
// never fails unless FailNextAlloc/FailNextProgram is armed, so
// scenario tests can inject exactly one hardware failure and observe
// PartiallyApplied handling.
type MockHAL struct {
	mu sync.Mutex

	caps hal.Capabilities

	nextFec  uint32
	nextEedb uint32
	nextEcmp uint32

	FreedFecs  []hal.FecID
	FreedEedbs []hal.EedbID
	FreedEcmps []hal.EcmpID

	Quiesced []hal.FecID

	// CallLog records every method invocation in order, for assertions
	// like "PIC Core made zero HAL calls for the 500 dependent routes".
	CallLog []string

	FailNextAlloc   error
	FailNextProgram error
}

// NewMockHAL constructs a MockHAL with generous default capabilities.
func NewMockHAL(caps hal.Capabilities) *MockHAL {
	if caps.MaxMembersPerEcmp == 0 {
		caps.MaxMembersPerEcmp = 64
	}
	if caps.MaxLabelStackDepth == 0 {
		caps.MaxLabelStackDepth = 8
	}
	return &MockHAL{caps: caps}
}

func (m *MockHAL) log(format string, args ...any) {
	m.CallLog = append(m.CallLog, fmt.Sprintf(format, args...))
}

func (m *MockHAL) Capabilities(context.Context) (hal.Capabilities, error) {
	return m.caps, nil
}

func (m *MockHAL) takeAllocFailure() error {
	err := m.FailNextAlloc
	m.FailNextAlloc = nil
	return err
}

func (m *MockHAL) takeProgramFailure() error {
	err := m.FailNextProgram
	m.FailNextProgram = nil
	return err
}

func (m *MockHAL) AllocFec(context.Context) (hal.FecID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeAllocFailure(); err != nil {
		return 0, err
	}
	m.nextFec++
	m.log("AllocFec -> %d", m.nextFec)
	return hal.FecID(m.nextFec), nil
}

func (m *MockHAL) FreeFec(_ context.Context, fec hal.FecID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FreedFecs = append(m.FreedFecs, fec)
	m.log("FreeFec(%d)", fec)
	return nil
}

func (m *MockHAL) AllocEedb(context.Context) (hal.EedbID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeAllocFailure(); err != nil {
		return 0, err
	}
	m.nextEedb++
	m.log("AllocEedb -> %d", m.nextEedb)
	return hal.EedbID(m.nextEedb), nil
}

func (m *MockHAL) FreeEedb(_ context.Context, eedb hal.EedbID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FreedEedbs = append(m.FreedEedbs, eedb)
	m.log("FreeEedb(%d)", eedb)
	return nil
}

func (m *MockHAL) AllocEcmp(_ context.Context, maxMembers uint32) (hal.EcmpID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeAllocFailure(); err != nil {
		return 0, err
	}
	m.nextEcmp++
	m.log("AllocEcmp(max=%d) -> %d", maxMembers, m.nextEcmp)
	return hal.EcmpID(m.nextEcmp), nil
}

func (m *MockHAL) FreeEcmp(_ context.Context, ecmp hal.EcmpID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FreedEcmps = append(m.FreedEcmps, ecmp)
	m.log("FreeEcmp(%d)", ecmp)
	return nil
}

func (m *MockHAL) ProgramL2Rewrite(_ context.Context, eedb hal.EedbID, rw hal.L2Rewrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeProgramFailure(); err != nil {
		return err
	}
	m.log("ProgramL2Rewrite(eedb=%d, port=%d)", eedb, rw.Port)
	return nil
}

func (m *MockHAL) ProgramLabelEedb(_ context.Context, eedb hal.EedbID, label hal.LabelEntry, next hal.EedbID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeProgramFailure(); err != nil {
		return err
	}
	m.log("ProgramLabelEedb(eedb=%d, label=%d, next=%d)", eedb, label.Label, next)
	return nil
}

func (m *MockHAL) ProgramFecSimple(_ context.Context, fec hal.FecID, eedb hal.EedbID, port uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeProgramFailure(); err != nil {
		return err
	}
	m.log("ProgramFecSimple(fec=%d, eedb=%d, port=%d)", fec, eedb, port)
	return nil
}

func (m *MockHAL) ProgramFecEcmp(_ context.Context, fec hal.FecID, ecmp hal.EcmpID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeProgramFailure(); err != nil {
		return err
	}
	m.log("ProgramFecEcmp(fec=%d, ecmp=%d)", fec, ecmp)
	return nil
}

func (m *MockHAL) ProgramFecProtected(_ context.Context, fec hal.FecID, primary, backup hal.FecID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeProgramFailure(); err != nil {
		return err
	}
	m.log("ProgramFecProtected(fec=%d, primary=%d, backup=%d)", fec, primary, backup)
	return nil
}

func (m *MockHAL) UpdateEcmpMembers(_ context.Context, ecmp hal.EcmpID, live []bool, table []int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeProgramFailure(); err != nil {
		return err
	}
	m.log("UpdateEcmpMembers(ecmp=%d, members=%d, table=%d)", ecmp, len(live), len(table))
	return nil
}

func (m *MockHAL) LinkBackup(_ context.Context, primary, backup hal.FecID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("LinkBackup(primary=%d, backup=%d)", primary, backup)
	return nil
}

func (m *MockHAL) SetActive(_ context.Context, fec hal.FecID, branch hal.ActiveBranch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("SetActive(fec=%d, branch=%d)", fec, branch)
	return nil
}

func (m *MockHAL) Quiesce(_ context.Context, fec hal.FecID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Quiesced = append(m.Quiesced, fec)
	m.log("Quiesce(%d)", fec)
	return nil
}

// RecordingSink captures every EventSink callback for test assertions.
type RecordingSink struct {
	mu sync.Mutex

	Activated            []fib.RouteKey
	Deactivated          []fib.RouteKey
	HwExhausted          []fib.RouteKey
	PartiallyAppliedKeys []fib.RouteKey
	CyclesDetected       []fib.RouteKey
	RecursionsExceeded   []fib.RouteKey
}

func (s *RecordingSink) RouteActivated(key fib.RouteKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Activated = append(s.Activated, key)
}

func (s *RecordingSink) RouteDeactivated(key fib.RouteKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deactivated = append(s.Deactivated, key)
}

func (s *RecordingSink) HwResourceExhausted(key fib.RouteKey, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HwExhausted = append(s.HwExhausted, key)
}

func (s *RecordingSink) PartiallyApplied(key fib.RouteKey, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PartiallyAppliedKeys = append(s.PartiallyAppliedKeys, key)
}

func (s *RecordingSink) CycleDetected(key fib.RouteKey, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CyclesDetected = append(s.CyclesDetected, key)
}

func (s *RecordingSink) RecursionExceeded(key fib.RouteKey, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecursionsExceeded = append(s.RecursionsExceeded, key)
}
