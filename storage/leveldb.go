package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
)

var (
	keyMetaNext = []byte("meta/next")
	keySnapshot = []byte("snapshot")
	txPrefix    = []byte("tx/")
)

// LevelDBStore implements Backend over a goleveldb database. Transactions
// live under fixed-width hex keys so iteration order equals log order; all
// writes are synced.
type LevelDBStore struct {
	mu     sync.Mutex
	db     *leveldb.DB
	nextID uint64
}

// OpenLevelDBStore opens or creates the database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "open leveldb", err)
	}
	s := &LevelDBStore{db: db}
	raw, err := db.Get(keyMetaNext, nil)
	switch {
	case err == nil:
		if len(raw) != 8 {
			db.Close()
			return nil, errors.New(errors.CodeStorage, "corrupt next-id marker")
		}
		s.nextID = binary.LittleEndian.Uint64(raw)
	case err == ldberrors.ErrNotFound:
	default:
		db.Close()
		return nil, errors.Wrap(errors.CodeStorage, "read next-id marker", err)
	}
	return s, nil
}

func txKey(id uint64) []byte {
	return []byte(fmt.Sprintf("tx/%016x", id))
}

var syncWrite = &opt.WriteOptions{Sync: true}

// AppendTx implements Backend.
func (s *LevelDBStore) AppendTx(tx *types.Tx) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := tx.CanonicalBytes()
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "encode transaction", err)
	}
	id := s.nextID
	batch := new(leveldb.Batch)
	batch.Put(txKey(id), raw)
	var next [8]byte
	binary.LittleEndian.PutUint64(next[:], id+1)
	batch.Put(keyMetaNext, next[:])
	if err := s.db.Write(batch, syncWrite); err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "append transaction", err)
	}
	s.nextID = id + 1
	return id, nil
}

// LoadState implements Backend.
func (s *LevelDBStore) LoadState() (*state.State, uint64, bool, error) {
	raw, err := s.db.Get(keySnapshot, nil)
	if err == ldberrors.ErrNotFound {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, errors.Wrap(errors.CodeStorage, "read snapshot", err)
	}
	st, next, err := state.DecodeSnapshot(raw)
	if err != nil {
		return nil, 0, false, err
	}
	return st, next, true, nil
}

// PersistState implements Backend.
func (s *LevelDBStore) PersistState(st *state.State, nextTxID uint64) error {
	raw, err := state.EncodeSnapshot(st, nextTxID)
	if err != nil {
		return err
	}
	if err := s.db.Put(keySnapshot, raw, syncWrite); err != nil {
		return errors.Wrap(errors.CodeStorage, "write snapshot", err)
	}
	return nil
}

// LoadTxsFrom implements Backend.
func (s *LevelDBStore) LoadTxsFrom(fromTxID uint64) ([]*types.Tx, error) {
	iter := s.db.NewIterator(&util.Range{Start: txKey(fromTxID), Limit: nil}, nil)
	defer iter.Release()
	var out []*types.Tx
	for iter.Next() {
		key := iter.Key()
		if len(key) < len(txPrefix) || string(key[:len(txPrefix)]) != string(txPrefix) {
			continue
		}
		tx, err := types.DecodeTx(iter.Value())
		if err != nil {
			return nil, errors.Wrap(errors.CodeStorage, fmt.Sprintf("decode tx at %s", key), err)
		}
		out = append(out, tx)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "iterate tx log", err)
	}
	return out, nil
}

// NextTxID returns the id the next append will receive.
func (s *LevelDBStore) NextTxID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Close implements Backend.
func (s *LevelDBStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.CodeStorage, "close leveldb", err)
	}
	return nil
}
