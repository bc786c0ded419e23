package storage

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"meterchain/core/errors"
	"meterchain/core/types"
)

var bucketEvidence = []byte("evidence")

// EvidenceArchive keeps resolved-dispute evidence bundles in a bbolt file for
// auditors. The archive is a side record: engine correctness never reads it.
type EvidenceArchive struct {
	db *bolt.DB
}

// OpenEvidenceArchive opens or creates the archive at path.
func OpenEvidenceArchive(path string) (*EvidenceArchive, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "open evidence archive", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvidence)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(errors.CodeStorage, "create evidence bucket", err)
	}
	return &EvidenceArchive{db: db}, nil
}

// Put stores the bundle under its settlement key, replacing any prior record.
func (a *EvidenceArchive) Put(bundle *types.EvidenceBundle) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return errors.Wrap(errors.CodeStorage, "encode evidence bundle", err)
	}
	err = a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvidence).Put([]byte(bundle.SettlementKey), raw)
	})
	if err != nil {
		return errors.Wrap(errors.CodeStorage, "store evidence bundle", err)
	}
	return nil
}

// Get returns the archived bundle for a settlement key.
func (a *EvidenceArchive) Get(settlementKey string) (*types.EvidenceBundle, bool, error) {
	var raw []byte
	err := a.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketEvidence).Get([]byte(settlementKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(errors.CodeStorage, "read evidence bundle", err)
	}
	if raw == nil {
		return nil, false, nil
	}
	var bundle types.EvidenceBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, false, errors.Wrap(errors.CodeStorage, "decode evidence bundle", err)
	}
	return &bundle, true, nil
}

// Close releases the archive file.
func (a *EvidenceArchive) Close() error {
	if err := a.db.Close(); err != nil {
		return errors.Wrap(errors.CodeStorage, "close evidence archive", err)
	}
	return nil
}
