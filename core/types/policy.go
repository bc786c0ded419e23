package types

import (
	"fmt"
	"math"
)

// Policy scope kinds, from narrowest to widest precedence order at
// resolution: owner_service, owner, global.
const (
	ScopeGlobal       = "global"
	ScopeOwner        = "owner"
	ScopeOwnerService = "owner_service"
)

// PolicyScope names the slice of the ledger a policy version governs.
type PolicyScope struct {
	Kind      string `json:"kind"`
	Owner     string `json:"owner,omitempty"`
	ServiceID string `json:"serviceId,omitempty"`
}

// GlobalScope covers every meter without a narrower binding.
func GlobalScope() PolicyScope {
	return PolicyScope{Kind: ScopeGlobal}
}

// OwnerScope covers all meters of one owner.
func OwnerScope(owner string) PolicyScope {
	return PolicyScope{Kind: ScopeOwner, Owner: owner}
}

// OwnerServiceScope covers a single meter key.
func OwnerServiceScope(owner, serviceID string) PolicyScope {
	return PolicyScope{Kind: ScopeOwnerService, Owner: owner, ServiceID: serviceID}
}

// Valid reports whether the scope carries the fields its kind requires.
func (s PolicyScope) Valid() bool {
	switch s.Kind {
	case ScopeGlobal:
		return s.Owner == "" && s.ServiceID == ""
	case ScopeOwner:
		return s.Owner != "" && s.ServiceID == ""
	case ScopeOwnerService:
		return s.Owner != "" && s.ServiceID != ""
	default:
		return false
	}
}

// Key is the stable string form stored in state and pinned into settlements.
func (s PolicyScope) Key() string {
	switch s.Kind {
	case ScopeOwner:
		return "owner:" + s.Owner
	case ScopeOwnerService:
		return "owner_service:" + s.Owner + ":" + s.ServiceID
	default:
		return "global"
	}
}

// PolicyStatus is the lifecycle state of a published policy version.
type PolicyStatus string

const (
	PolicyPublished  PolicyStatus = "published"
	PolicySuperseded PolicyStatus = "superseded"
)

// PolicyVersion is an immutable revenue-split ruleset for one scope. Versions
// within a scope increase strictly and never apply retroactively.
type PolicyVersion struct {
	ScopeKey          string       `json:"scopeKey"`
	Version           uint64       `json:"version"`
	EffectiveFromTxID uint64       `json:"effectiveFromTxId"`
	Status            PolicyStatus `json:"status"`
	OperatorShareBps  uint32       `json:"operatorShareBps"`
	ProtocolFeeBps    uint32       `json:"protocolFeeBps"`
	ReserveBps        uint32       `json:"reserveBps"`
	DisputeWindowSecs uint64       `json:"disputeWindowSecs"`
}

// PolicyKey is the state index for one published version.
func PolicyKey(scopeKey string, version uint64) string {
	return fmt.Sprintf("%s:%d", scopeKey, version)
}

// BpsDenominator is the basis-point scale for split parameters.
const BpsDenominator = 10_000

// Split divides gross according to the policy's basis points. ProtocolFee and
// ReserveLocked round down; the residue lands in OperatorShare so the three
// parts always sum to gross. ok is false on 64-bit overflow.
func (p *PolicyVersion) Split(gross uint64) (operatorShare, protocolFee, reserveLocked uint64, ok bool) {
	protocolFee, ok = bpsOf(gross, p.ProtocolFeeBps)
	if !ok {
		return 0, 0, 0, false
	}
	reserveLocked, ok = bpsOf(gross, p.ReserveBps)
	if !ok {
		return 0, 0, 0, false
	}
	if protocolFee > gross || reserveLocked > gross-protocolFee {
		return 0, 0, 0, false
	}
	operatorShare = gross - protocolFee - reserveLocked
	return operatorShare, protocolFee, reserveLocked, true
}

func bpsOf(amount uint64, bps uint32) (uint64, bool) {
	b := uint64(bps)
	if b != 0 && amount > math.MaxUint64/b {
		return 0, false
	}
	return amount * b / BpsDenominator, true
}
