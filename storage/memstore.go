package storage

import (
	"sync"

	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
)

// MemStore is an in-memory Backend for tests. It stores canonical bytes, not
// live pointers, so loads decode fresh values exactly like the durable
// backends.
type MemStore struct {
	mu       sync.Mutex
	txs      [][]byte
	snapshot []byte
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// AppendTx implements Backend.
func (s *MemStore) AppendTx(tx *types.Tx) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := tx.CanonicalBytes()
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "encode transaction", err)
	}
	s.txs = append(s.txs, raw)
	return uint64(len(s.txs) - 1), nil
}

// LoadState implements Backend.
func (s *MemStore) LoadState() (*state.State, uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, 0, false, nil
	}
	st, next, err := state.DecodeSnapshot(s.snapshot)
	if err != nil {
		return nil, 0, false, err
	}
	return st, next, true, nil
}

// PersistState implements Backend.
func (s *MemStore) PersistState(st *state.State, nextTxID uint64) error {
	raw, err := state.EncodeSnapshot(st, nextTxID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snapshot = raw
	s.mu.Unlock()
	return nil
}

// LoadTxsFrom implements Backend.
func (s *MemStore) LoadTxsFrom(fromTxID uint64) ([]*types.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fromTxID >= uint64(len(s.txs)) {
		return nil, nil
	}
	out := make([]*types.Tx, 0, uint64(len(s.txs))-fromTxID)
	for _, raw := range s.txs[fromTxID:] {
		tx, err := types.DecodeTx(raw)
		if err != nil {
			return nil, errors.Wrap(errors.CodeStorage, "decode transaction", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// NextTxID returns the id the next append will receive.
func (s *MemStore) NextTxID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.txs))
}

// Close implements Backend.
func (s *MemStore) Close() error { return nil }
