package storage

import (
	"meterchain/core/state"
	"meterchain/core/types"
)

// Backend is the persistence contract of the engine: an append-only
// transaction log plus an optional point-in-time snapshot. Log ids are dense,
// monotone, and zero-based. Appends and snapshot writes must be durable
// before they return; correctness never requires the snapshot, only the log.
type Backend interface {
	// AppendTx durably appends the canonical encoding of tx and returns the
	// assigned id.
	AppendTx(tx *types.Tx) (uint64, error)
	// LoadState returns the latest snapshot. ok is false when none exists,
	// which is equivalent to the genesis snapshot (empty state, 0).
	LoadState() (st *state.State, nextTxID uint64, ok bool, err error)
	// PersistState durably replaces the snapshot.
	PersistState(st *state.State, nextTxID uint64) error
	// LoadTxsFrom returns every logged transaction with id >= fromTxID, in
	// log order.
	LoadTxsFrom(fromTxID uint64) ([]*types.Tx, error)
	Close() error
}
