package types

import "meterchain/core/errors"

// Protocol versions accepted by this build. Any change to the canonical
// encoding bumps ReplayProtocolVersion.
const (
	ReplayProtocolVersion uint32 = 1
	EvidenceSchemaVersion uint32 = 1
)

// ReplaySummary is the deterministic digest of replaying one settlement
// window. Equal summaries are comparable with ==.
type ReplaySummary struct {
	FromTxID      uint64 `json:"fromTxId"`
	ToTxID        uint64 `json:"toTxId"`
	TxCount       uint64 `json:"txCount"`
	GrossSpent    uint64 `json:"grossSpent"`
	OperatorShare uint64 `json:"operatorShare"`
	ProtocolFee   uint64 `json:"protocolFee"`
	ReserveLocked uint64 `json:"reserveLocked"`
}

// EvidenceBundle packages the replay evidence submitted with ResolveDispute
// and archived for auditors.
type EvidenceBundle struct {
	SettlementKey         string        `json:"settlementKey"`
	FromTxID              uint64        `json:"fromTxId"`
	ToTxID                uint64        `json:"toTxId"`
	EvidenceHash          string        `json:"evidenceHash"`
	ReplayHash            string        `json:"replayHash"`
	ReplaySummary         ReplaySummary `json:"replaySummary"`
	SchemaVersion         uint32        `json:"schemaVersion"`
	ReplayProtocolVersion uint32        `json:"replayProtocolVersion"`
}

// ValidateShape checks the bundle's internal consistency without touching
// state or storage.
func (b *EvidenceBundle) ValidateShape() error {
	if b.SchemaVersion != EvidenceSchemaVersion {
		return errors.Newf(errors.CodeUnsupportedSchemaVersion, "evidence schema version %d unsupported", b.SchemaVersion)
	}
	if b.ReplayProtocolVersion != ReplayProtocolVersion {
		return errors.Newf(errors.CodeReplayProtocolMismatch, "replay protocol version %d unsupported", b.ReplayProtocolVersion)
	}
	if b.FromTxID >= b.ToTxID {
		return errors.New(errors.CodeInvalidEvidenceBundle, "evidence window is empty")
	}
	if b.ReplaySummary.TxCount != b.ToTxID-b.FromTxID {
		return errors.New(errors.CodeInvalidEvidenceBundle, "summary tx count does not cover the window")
	}
	if b.ReplayHash == "" {
		return errors.New(errors.CodeInvalidEvidenceBundle, "replay hash missing")
	}
	if b.SettlementKey == "" {
		return errors.New(errors.CodeInvalidEvidenceBundle, "settlement key missing")
	}
	return nil
}
