package types

// SettlementStatus is the lifecycle state of a settlement window.
type SettlementStatus string

const (
	SettlementProposed  SettlementStatus = "proposed"
	SettlementFinalized SettlementStatus = "finalized"
	SettlementDisputed  SettlementStatus = "disputed"
	SettlementResolved  SettlementStatus = "resolved"
)

// Settlement aggregates the usage of one meter over the half-open tx window
// [FromTxID, ToTxID). The split always satisfies
// OperatorShare + ProtocolFee + ReserveLocked == GrossSpent. Policy values
// resolved at propose time are pinned into the record and never re-read.
type Settlement struct {
	Owner         string           `json:"owner"`
	ServiceID     string           `json:"serviceId"`
	WindowID      string           `json:"windowId"`
	Status        SettlementStatus `json:"status"`
	FromTxID      uint64           `json:"fromTxId"`
	ToTxID        uint64           `json:"toTxId"`
	GrossSpent    uint64           `json:"grossSpent"`
	OperatorShare uint64           `json:"operatorShare"`
	ProtocolFee   uint64           `json:"protocolFee"`
	ReserveLocked uint64           `json:"reserveLocked"`
	EvidenceHash  string           `json:"evidenceHash"`
	TotalPaid     uint64           `json:"totalPaid"`
	SchemaVersion uint32           `json:"schemaVersion"`

	FinalizedAt       *uint64 `json:"finalizedAt,omitempty"`
	PolicyScopeKey    string  `json:"policyScopeKey,omitempty"`
	PolicyVersion     uint64  `json:"policyVersion,omitempty"`
	DisputeWindowSecs *uint64 `json:"disputeWindowSecs,omitempty"`

	ReplayHash    string         `json:"replayHash,omitempty"`
	ReplaySummary *ReplaySummary `json:"replaySummary,omitempty"`
}

// Key is the state index for s.
func (s *Settlement) Key() string {
	return SettlementKey(s.Owner, s.ServiceID, s.WindowID)
}

// Payable is the operator share still unclaimed by paid claims.
func (s *Settlement) Payable() uint64 {
	if s.TotalPaid >= s.OperatorShare {
		return 0
	}
	return s.OperatorShare - s.TotalPaid
}

// SettlementKey is the composite index shared by settlements, claims, and
// disputes.
func SettlementKey(owner, serviceID, windowID string) string {
	return owner + ":" + serviceID + ":" + windowID
}

// ClaimStatus is the lifecycle state of an operator claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimPaid     ClaimStatus = "paid"
	ClaimRejected ClaimStatus = "rejected"
)

// Claim is an operator's request for payout against a finalized settlement.
// PaidAmount records the capped amount actually credited.
type Claim struct {
	Operator      string      `json:"operator"`
	SettlementKey string      `json:"settlementKey"`
	Amount        uint64      `json:"amount"`
	PaidAmount    uint64      `json:"paidAmount"`
	Status        ClaimStatus `json:"status"`
}

// ClaimKey is the state index for a claim. One claim per operator per
// settlement.
func ClaimKey(operator, settlementKey string) string {
	return operator + ":" + settlementKey
}

// DisputeStatus is the lifecycle state of a dispute. Resolution is terminal.
type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "open"
	DisputeUpheld    DisputeStatus = "upheld"
	DisputeDismissed DisputeStatus = "dismissed"
)

// ResolutionAudit records the replay evidence that justified a verdict.
type ResolutionAudit struct {
	ReplayHash            string        `json:"replayHash"`
	ReplaySummary         ReplaySummary `json:"replaySummary"`
	ReplayProtocolVersion uint32        `json:"replayProtocolVersion"`
}

// Dispute challenges a finalized settlement. At most one dispute exists per
// settlement key.
type Dispute struct {
	SettlementKey string           `json:"settlementKey"`
	Status        DisputeStatus    `json:"status"`
	OpenedAt      *uint64          `json:"openedAt,omitempty"`
	ReasonCode    string           `json:"reasonCode,omitempty"`
	Resolution    *ResolutionAudit `json:"resolution,omitempty"`
}
