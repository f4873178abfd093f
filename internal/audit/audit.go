// Package audit records every hardware-programming call the
// orchestrator issues to a durable Postgres table, via gorm, so the
// exact make-before-break sequence behind an incident can be
// reconstructed after the fact — something HAL call logs alone, kept
// only in process memory, cannot survive a crash to provide.
package audit

import (
	"context"
	"time"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/routingfib/corefib/internal/fib/hal"
)

// Record is one audited HAL call.
type Record struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Op        string `gorm:"index"`
	FecID     uint32
	EedbID    uint32
	EcmpID    uint32
	Primary   uint32
	Backup    uint32
	Branch    uint8
	Err       string
	Timestamp time.Time `gorm:"index"`
}

// Open connects to Postgres via dsn, runs the embedded schema migrations
// through golang-migrate, and returns a gorm handle for recording audit
// entries through it.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	if err := runMigrations(ctx, dsn); err != nil {
		return nil, err
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// auditingHAL is a decorator: it wraps another
// HardwareAbstraction and persists a Record for every call other than
// Capabilities before
// returning the inner implementation's result unmodified, so auditing
// can be added to any HAL (mock or real) without touching its code.
type auditingHAL struct {
	inner hal.HardwareAbstraction
	db    *gorm.DB
}

// Wrap returns a HardwareAbstraction that behaves exactly like inner
// but additionally persists an audit Record for every call other than
// Capabilities.
func Wrap(inner hal.HardwareAbstraction, db *gorm.DB) hal.HardwareAbstraction {
	return &auditingHAL{inner: inner, db: db}
}

func (a *auditingHAL) record(r Record, err error) {
	r.Timestamp = time.Now()
	if err != nil {
		r.Err = err.Error()
	}
	// Audit logging failures must never mask the underlying HAL
	// outcome; best effort only.
	_ = a.db.WithContext(context.Background()).Create(&r).Error
}

func (a *auditingHAL) Capabilities(ctx context.Context) (hal.Capabilities, error) {
	return a.inner.Capabilities(ctx)
}

func (a *auditingHAL) AllocFec(ctx context.Context) (hal.FecID, error) {
	fec, err := a.inner.AllocFec(ctx)
	a.record(Record{Op: "alloc_fec", FecID: uint32(fec)}, err)
	return fec, err
}

func (a *auditingHAL) FreeFec(ctx context.Context, fec hal.FecID) error {
	err := a.inner.FreeFec(ctx, fec)
	a.record(Record{Op: "free_fec", FecID: uint32(fec)}, err)
	return err
}

func (a *auditingHAL) AllocEedb(ctx context.Context) (hal.EedbID, error) {
	eedb, err := a.inner.AllocEedb(ctx)
	a.record(Record{Op: "alloc_eedb", EedbID: uint32(eedb)}, err)
	return eedb, err
}

func (a *auditingHAL) FreeEedb(ctx context.Context, eedb hal.EedbID) error {
	err := a.inner.FreeEedb(ctx, eedb)
	a.record(Record{Op: "free_eedb", EedbID: uint32(eedb)}, err)
	return err
}

func (a *auditingHAL) AllocEcmp(ctx context.Context, maxMembers uint32) (hal.EcmpID, error) {
	ecmpID, err := a.inner.AllocEcmp(ctx, maxMembers)
	a.record(Record{Op: "alloc_ecmp", EcmpID: uint32(ecmpID)}, err)
	return ecmpID, err
}

func (a *auditingHAL) FreeEcmp(ctx context.Context, ecmpID hal.EcmpID) error {
	err := a.inner.FreeEcmp(ctx, ecmpID)
	a.record(Record{Op: "free_ecmp", EcmpID: uint32(ecmpID)}, err)
	return err
}

func (a *auditingHAL) ProgramL2Rewrite(ctx context.Context, eedb hal.EedbID, rw hal.L2Rewrite) error {
	err := a.inner.ProgramL2Rewrite(ctx, eedb, rw)
	a.record(Record{Op: "program_l2_rewrite", EedbID: uint32(eedb)}, err)
	return err
}

func (a *auditingHAL) ProgramLabelEedb(ctx context.Context, eedb hal.EedbID, label hal.LabelEntry, next hal.EedbID) error {
	err := a.inner.ProgramLabelEedb(ctx, eedb, label, next)
	a.record(Record{Op: "program_label_eedb", EedbID: uint32(eedb)}, err)
	return err
}

func (a *auditingHAL) ProgramFecSimple(ctx context.Context, fec hal.FecID, eedb hal.EedbID, port uint32) error {
	err := a.inner.ProgramFecSimple(ctx, fec, eedb, port)
	a.record(Record{Op: "program_fec_simple", FecID: uint32(fec), EedbID: uint32(eedb)}, err)
	return err
}

func (a *auditingHAL) ProgramFecEcmp(ctx context.Context, fec hal.FecID, ecmpID hal.EcmpID) error {
	err := a.inner.ProgramFecEcmp(ctx, fec, ecmpID)
	a.record(Record{Op: "program_fec_ecmp", FecID: uint32(fec), EcmpID: uint32(ecmpID)}, err)
	return err
}

func (a *auditingHAL) ProgramFecProtected(ctx context.Context, fec hal.FecID, primary, backup hal.FecID) error {
	err := a.inner.ProgramFecProtected(ctx, fec, primary, backup)
	a.record(Record{Op: "program_fec_protected", FecID: uint32(fec), Primary: uint32(primary), Backup: uint32(backup)}, err)
	return err
}

func (a *auditingHAL) UpdateEcmpMembers(ctx context.Context, ecmpID hal.EcmpID, live []bool, table []int32) error {
	err := a.inner.UpdateEcmpMembers(ctx, ecmpID, live, table)
	a.record(Record{Op: "update_ecmp_members", EcmpID: uint32(ecmpID)}, err)
	return err
}

func (a *auditingHAL) LinkBackup(ctx context.Context, primary, backup hal.FecID) error {
	err := a.inner.LinkBackup(ctx, primary, backup)
	a.record(Record{Op: "link_backup", Primary: uint32(primary), Backup: uint32(backup)}, err)
	return err
}

func (a *auditingHAL) SetActive(ctx context.Context, fec hal.FecID, branch hal.ActiveBranch) error {
	err := a.inner.SetActive(ctx, fec, branch)
	a.record(Record{Op: "set_active", FecID: uint32(fec), Branch: uint8(branch)}, err)
	return err
}

func (a *auditingHAL) Quiesce(ctx context.Context, fec hal.FecID) error {
	err := a.inner.Quiesce(ctx, fec)
	a.record(Record{Op: "quiesce", FecID: uint32(fec)}, err)
	return err
}
