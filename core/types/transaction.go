package types

import (
	"encoding/json"
	"fmt"
)

// TxType identifies the transaction kind carried by the envelope. Values are
// wire identifiers and must never be renumbered.
type TxType byte

const (
	TxTypeMint                   TxType = 0x01
	TxTypeOpenMeter              TxType = 0x02
	TxTypeConsume                TxType = 0x03
	TxTypeCloseMeter             TxType = 0x04
	TxTypeRevokeDelegation       TxType = 0x05
	TxTypeProposeSettlement      TxType = 0x06
	TxTypeFinalizeSettlement     TxType = 0x07
	TxTypeSubmitClaim            TxType = 0x08
	TxTypePayClaim               TxType = 0x09
	TxTypeOpenDispute            TxType = 0x0a
	TxTypeResolveDispute         TxType = 0x0b
	TxTypePublishPolicyVersion   TxType = 0x0c
	TxTypeSupersedePolicyVersion TxType = 0x0d
)

func (t TxType) String() string {
	switch t {
	case TxTypeMint:
		return "mint"
	case TxTypeOpenMeter:
		return "open_meter"
	case TxTypeConsume:
		return "consume"
	case TxTypeCloseMeter:
		return "close_meter"
	case TxTypeRevokeDelegation:
		return "revoke_delegation"
	case TxTypeProposeSettlement:
		return "propose_settlement"
	case TxTypeFinalizeSettlement:
		return "finalize_settlement"
	case TxTypeSubmitClaim:
		return "submit_claim"
	case TxTypePayClaim:
		return "pay_claim"
	case TxTypeOpenDispute:
		return "open_dispute"
	case TxTypeResolveDispute:
		return "resolve_dispute"
	case TxTypePublishPolicyVersion:
		return "publish_policy_version"
	case TxTypeSupersedePolicyVersion:
		return "supersede_policy_version"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// Envelope payload versions. V2 is required for delegated consumes; everything
// else accepts V1 (the zero value decodes as V1).
const (
	PayloadVersionV1 uint16 = 1
	PayloadVersionV2 uint16 = 2
)

// DisputeVerdict is the outcome requested by a ResolveDispute transaction.
type DisputeVerdict string

const (
	VerdictUpheld    DisputeVerdict = "upheld"
	VerdictDismissed DisputeVerdict = "dismissed"
)

type MintPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type OpenMeterPayload struct {
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
	Deposit   uint64 `json:"deposit"`
}

type ConsumePayload struct {
	Owner     string  `json:"owner"`
	ServiceID string  `json:"serviceId"`
	Units     uint64  `json:"units"`
	Pricing   Pricing `json:"pricing"`
}

type CloseMeterPayload struct {
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
}

type RevokeDelegationPayload struct {
	Owner        string `json:"owner"`
	CapabilityID string `json:"capabilityId"`
}

type ProposeSettlementPayload struct {
	Owner         string `json:"owner"`
	ServiceID     string `json:"serviceId"`
	WindowID      string `json:"windowId"`
	FromTxID      uint64 `json:"fromTxId"`
	ToTxID        uint64 `json:"toTxId"`
	GrossSpent    uint64 `json:"grossSpent"`
	OperatorShare uint64 `json:"operatorShare"`
	ProtocolFee   uint64 `json:"protocolFee"`
	ReserveLocked uint64 `json:"reserveLocked"`
	EvidenceHash  string `json:"evidenceHash"`
}

type FinalizeSettlementPayload struct {
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
	WindowID  string `json:"windowId"`
}

type SubmitClaimPayload struct {
	Operator  string `json:"operator"`
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
	WindowID  string `json:"windowId"`
	Amount    uint64 `json:"amount"`
}

type PayClaimPayload struct {
	Operator  string `json:"operator"`
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
	WindowID  string `json:"windowId"`
}

type OpenDisputePayload struct {
	Owner        string `json:"owner"`
	ServiceID    string `json:"serviceId"`
	WindowID     string `json:"windowId"`
	ReasonCode   string `json:"reasonCode,omitempty"`
	EvidenceHash string `json:"evidenceHash,omitempty"`
}

type ResolveDisputePayload struct {
	Owner          string          `json:"owner"`
	ServiceID      string          `json:"serviceId"`
	WindowID       string          `json:"windowId"`
	Verdict        DisputeVerdict  `json:"verdict"`
	ReplaySummary  ReplaySummary   `json:"replaySummary"`
	ReplayHash     string          `json:"replayHash"`
	EvidenceBundle *EvidenceBundle `json:"evidenceBundle"`
}

type PublishPolicyVersionPayload struct {
	Scope             PolicyScope `json:"scope"`
	Version           uint64      `json:"version"`
	EffectiveFromTxID uint64      `json:"effectiveFromTxId"`
	OperatorShareBps  uint32      `json:"operatorShareBps"`
	ProtocolFeeBps    uint32      `json:"protocolFeeBps"`
	ReserveBps        uint32      `json:"reserveBps"`
	DisputeWindowSecs uint64      `json:"disputeWindowSecs"`
}

type SupersedePolicyVersionPayload struct {
	Scope   PolicyScope `json:"scope"`
	Version uint64      `json:"version"`
}

// Tx is the transaction envelope shared by the engine, the log, and every
// client. Exactly one payload pointer is set, matching Type. Canonical bytes
// are the JSON encoding of the struct in declared field order; the signature
// is excluded from the signing payload.
type Tx struct {
	Signer         string `json:"signer"`
	Nonce          uint64 `json:"nonce"`
	PayloadVersion uint16 `json:"payloadVersion,omitempty"`
	Type           TxType `json:"type"`

	Mint               *MintPayload                   `json:"mint,omitempty"`
	OpenMeter          *OpenMeterPayload              `json:"openMeter,omitempty"`
	Consume            *ConsumePayload                `json:"consume,omitempty"`
	CloseMeter         *CloseMeterPayload             `json:"closeMeter,omitempty"`
	RevokeDelegation   *RevokeDelegationPayload       `json:"revokeDelegation,omitempty"`
	ProposeSettlement  *ProposeSettlementPayload      `json:"proposeSettlement,omitempty"`
	FinalizeSettlement *FinalizeSettlementPayload     `json:"finalizeSettlement,omitempty"`
	SubmitClaim        *SubmitClaimPayload            `json:"submitClaim,omitempty"`
	PayClaim           *PayClaimPayload               `json:"payClaim,omitempty"`
	OpenDispute        *OpenDisputePayload            `json:"openDispute,omitempty"`
	ResolveDispute     *ResolveDisputePayload         `json:"resolveDispute,omitempty"`
	PublishPolicy      *PublishPolicyVersionPayload   `json:"publishPolicyVersion,omitempty"`
	SupersedePolicy    *SupersedePolicyVersionPayload `json:"supersedePolicyVersion,omitempty"`

	NonceAccount    string           `json:"nonceAccount,omitempty"`
	ValidAt         *uint64          `json:"validAt,omitempty"`
	DelegationProof *DelegationProof `json:"delegationProof,omitempty"`
	Signature       []byte           `json:"signature,omitempty"`
}

// EffectivePayloadVersion maps the zero value to V1 so that legacy encodings
// without the field keep their meaning.
func (tx *Tx) EffectivePayloadVersion() uint16 {
	if tx.PayloadVersion == 0 {
		return PayloadVersionV1
	}
	return tx.PayloadVersion
}

// NonceAccountOrSigner returns the account whose nonce this transaction
// consumes: the explicit nonce account for delegated consumes, the signer
// otherwise.
func (tx *Tx) NonceAccountOrSigner() string {
	if tx.NonceAccount != "" {
		return tx.NonceAccount
	}
	return tx.Signer
}

// IsDelegated reports whether the envelope carries a delegation proof.
func (tx *Tx) IsDelegated() bool {
	return tx.DelegationProof != nil
}

// CanonicalBytes is the stable encoding appended to the log and fed to the
// replay hash.
func (tx *Tx) CanonicalBytes() ([]byte, error) {
	return json.Marshal(tx)
}

// SigningBytes is the canonical encoding with the signature removed. Both the
// signer and the verifier operate on this payload.
func (tx *Tx) SigningBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signature = nil
	return json.Marshal(&unsigned)
}

// DecodeTx parses a canonical transaction record.
func DecodeTx(data []byte) (*Tx, error) {
	var tx Tx
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("types: decode transaction: %w", err)
	}
	return &tx, nil
}
