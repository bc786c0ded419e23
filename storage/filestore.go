package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
)

const (
	logFileName  = "tx.log"
	snapFileName = "state.snap"
)

// FileStore persists the log and snapshot as two files in one directory. Log
// records are framed with a little-endian u64 length prefix. Every append
// fsyncs before returning; snapshots go through a temp file, fsync, and an
// atomic rename followed by a directory fsync.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	log    *os.File
	nextID uint64
}

// OpenFileStore opens or creates the store under dir and scans the log to
// recover the next transaction id.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "create data dir", err)
	}
	logPath := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "open tx log", err)
	}
	count, err := countLogRecords(logPath)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileStore{dir: dir, log: f, nextID: count}, nil
}

func countLogRecords(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "open tx log", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var count uint64
	for {
		var frame [8]byte
		if _, err := io.ReadFull(r, frame[:]); err != nil {
			if err == io.EOF {
				return count, nil
			}
			return 0, errors.Wrap(errors.CodeStorage, "tx log truncated", err)
		}
		n := binary.LittleEndian.Uint64(frame[:])
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return 0, errors.Wrap(errors.CodeStorage, "tx log truncated", err)
		}
		count++
	}
}

// AppendTx implements Backend.
func (s *FileStore) AppendTx(tx *types.Tx) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := tx.CanonicalBytes()
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "encode transaction", err)
	}
	var frame [8]byte
	binary.LittleEndian.PutUint64(frame[:], uint64(len(raw)))
	if _, err := s.log.Write(frame[:]); err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "append transaction", err)
	}
	if _, err := s.log.Write(raw); err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "append transaction", err)
	}
	if err := s.log.Sync(); err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "sync tx log", err)
	}
	id := s.nextID
	s.nextID++
	return id, nil
}

// LoadState implements Backend.
func (s *FileStore) LoadState() (*state.State, uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(filepath.Join(s.dir, snapFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, errors.Wrap(errors.CodeStorage, "read snapshot", err)
	}
	st, next, err := state.DecodeSnapshot(raw)
	if err != nil {
		return nil, 0, false, err
	}
	return st, next, true, nil
}

// PersistState implements Backend.
func (s *FileStore) PersistState(st *state.State, nextTxID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := state.EncodeSnapshot(st, nextTxID)
	if err != nil {
		return err
	}
	final := filepath.Join(s.dir, snapFileName)
	tmp := final + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(errors.CodeStorage, "create snapshot temp", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return errors.Wrap(errors.CodeStorage, "write snapshot", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(errors.CodeStorage, "sync snapshot", err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.CodeStorage, "close snapshot", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errors.Wrap(errors.CodeStorage, "rename snapshot", err)
	}
	return syncDir(s.dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return errors.Wrap(errors.CodeStorage, "open data dir", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return errors.Wrap(errors.CodeStorage, "sync data dir", err)
	}
	return nil
}

// LoadTxsFrom implements Backend.
func (s *FileStore) LoadTxsFrom(fromTxID uint64) ([]*types.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(filepath.Join(s.dir, logFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.CodeStorage, "open tx log", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var (
		out []*types.Tx
		id  uint64
	)
	for {
		var frame [8]byte
		if _, err := io.ReadFull(r, frame[:]); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, errors.Wrap(errors.CodeStorage, "tx log truncated", err)
		}
		n := binary.LittleEndian.Uint64(frame[:])
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, errors.Wrap(errors.CodeStorage, "tx log truncated", err)
		}
		if id >= fromTxID {
			tx, err := types.DecodeTx(raw)
			if err != nil {
				return nil, errors.Wrap(errors.CodeStorage, fmt.Sprintf("decode tx %d", id), err)
			}
			out = append(out, tx)
		}
		id++
	}
}

// NextTxID returns the id the next append will receive.
func (s *FileStore) NextTxID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Close implements Backend.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.log.Close(); err != nil {
		return errors.Wrap(errors.CodeStorage, "close tx log", err)
	}
	return nil
}
