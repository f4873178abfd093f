// Package replay supplies the append-only journal the orchestrator
// leaves as the caller's own responsibility: the caller records each
// InstallRoute/UpdateRoute/WithdrawRoute/OnRouteChange call it makes with
// Append (the core itself writes nothing to the journal), the entries are
// kept in a badger-backed log in append order, and Replay re-issues that log
// against a freshly constructed fib.Core after a restart, giving
// "restart reconstruction" a concrete implementation.
package replay

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/routingfib/corefib/internal/logger"
)

// Op names one of the four orchestration calls the journal can replay.
type Op string

const (
	OpInstall      Op = "install_route"
	OpUpdate       Op = "update_route"
	OpWithdraw     Op = "withdraw_route"
	OpRouteChanged Op = "on_route_change"
)

// Entry is one journaled call, in the order the orchestrator received
// it. Root/NewRoot are resolution-object handles: replay assumes
// whatever rebuilt the node store (not this package's concern) assigned
// them the same handles, which holds for a process that reconstructs
// its resolution graph deterministically before calling Replay.
type Entry struct {
	ID      string                `json:"id"`
	Seq     uint64                `json:"seq"`
	Op      Op                    `json:"op"`
	Key     fib.RouteKey          `json:"key"`
	Root    handle.Handle         `json:"root,omitempty"`
	NewRoot handle.Handle         `json:"new_root,omitempty"`
	RouteID store.RouteID         `json:"route_id,omitempty"`
	Change  routetable.ChangeKind `json:"change,omitempty"`
}

// Journal appends Entry records to a badger database and can replay
// them in sequence order.
type Journal struct {
	db  *badger.DB
	seq uint64
}

// Open opens (creating if absent) a badger database at path for use as
// a replay journal.
func Open(path string) (*Journal, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening replay journal at %s: %w", path, err)
	}
	j := &Journal{db: db}
	j.seq, err = j.lastSeq()
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close releases the underlying badger database.
func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) lastSeq() (uint64, error) {
	var max uint64
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var e Entry
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
			if e.Seq > max {
				max = e.Seq
			}
		}
		return nil
	})
	return max, err
}

// Append records one journaled call. It is the caller's responsibility
// to call Append before (or, for make-before-break operations, after
// the point where replaying it would be harmless) invoking the
// corresponding fib.Core method.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.seq++
	e.Seq = j.seq
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling replay entry: %w", err)
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seqKey(e.Seq), data)
	})
}

func seqKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("seq:%020d", seq))
}

// Replay re-issues every journaled call against core, in sequence
// order. A route-change entry re-resolves via core.OnRouteChange rather
// than replaying the LPM mutation itself — the external LPM's own state
// is assumed already reconstructed by the caller.
func Replay(ctx context.Context, j *Journal, core *fib.Core) error {
	return j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
			if err := replayOne(ctx, core, e); err != nil {
				logger.Error("replay entry failed", "seq", e.Seq, "op", string(e.Op), "err", err)
				return fmt.Errorf("replaying entry %d (%s): %w", e.Seq, e.Op, err)
			}
		}
		return nil
	})
}

func replayOne(ctx context.Context, core *fib.Core, e Entry) error {
	switch e.Op {
	case OpInstall:
		return core.InstallRoute(ctx, e.Key, e.Root)
	case OpUpdate:
		return core.UpdateRoute(ctx, e.Key, e.NewRoot)
	case OpWithdraw:
		return core.WithdrawRoute(ctx, e.Key)
	case OpRouteChanged:
		return core.OnRouteChange(ctx, e.RouteID, e.Change)
	default:
		return fmt.Errorf("unknown replay op %q", e.Op)
	}
}
