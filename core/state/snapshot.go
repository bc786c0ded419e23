package state

import (
	"encoding/json"

	"meterchain/core/errors"
	"meterchain/core/types"
)

// Snapshot is the persisted point-in-time form of the state plus the id the
// next appended transaction will receive.
type Snapshot struct {
	State    *State `json:"state"`
	NextTxID uint64 `json:"nextTxId"`
}

// EncodeSnapshot produces the canonical snapshot bytes. Map keys sort, so the
// same state always encodes to the same bytes.
func EncodeSnapshot(s *State, nextTxID uint64) ([]byte, error) {
	b, err := json.Marshal(Snapshot{State: s, NextTxID: nextTxID})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "encode snapshot", err)
	}
	return b, nil
}

// DecodeSnapshot parses snapshot bytes written by EncodeSnapshot. Nil maps
// from older snapshots are normalized so callers can index freely.
func DecodeSnapshot(data []byte) (*State, uint64, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, 0, errors.Wrap(errors.CodeStorage, "decode snapshot", err)
	}
	if snap.State == nil {
		snap.State = New()
	}
	normalize(snap.State)
	return snap.State, snap.NextTxID, nil
}

func normalize(s *State) {
	if s.Accounts == nil {
		s.Accounts = map[string]*types.Account{}
	}
	if s.Meters == nil {
		s.Meters = map[string]*types.Meter{}
	}
	if s.Settlements == nil {
		s.Settlements = map[string]*types.Settlement{}
	}
	if s.Claims == nil {
		s.Claims = map[string]*types.Claim{}
	}
	if s.Disputes == nil {
		s.Disputes = map[string]*types.Dispute{}
	}
	if s.Policies == nil {
		s.Policies = map[string]*types.PolicyVersion{}
	}
	if s.LatestPolicy == nil {
		s.LatestPolicy = map[string]uint64{}
	}
	if s.Revoked == nil {
		s.Revoked = map[string]bool{}
	}
	if s.Consumption == nil {
		s.Consumption = map[string]*types.CapabilityConsumption{}
	}
}
