package types

import "encoding/json"

// Caveats bound how much a delegated capability may consume over its whole
// lifetime. Nil means unlimited.
type Caveats struct {
	MaxUnits *uint64 `json:"maxUnits,omitempty"`
	MaxCost  *uint64 `json:"maxCost,omitempty"`
}

// DelegationProof is a capability issued by a meter owner to an audience,
// scoped to one service and ability, valid in [iat, exp). The issuer signs
// the claim bytes; the signature is excluded from the capability id so that
// the id is stable across re-signing.
type DelegationProof struct {
	Issuer    string  `json:"issuer"`
	Audience  string  `json:"audience"`
	ServiceID string  `json:"serviceId"`
	Ability   string  `json:"ability"`
	IssuedAt  uint64  `json:"iat"`
	ExpiresAt uint64  `json:"exp"`
	Caveats   Caveats `json:"caveats"`
	Signature []byte  `json:"signature,omitempty"`
}

// ClaimBytes is the canonical encoding of the proof without its signature.
func (p *DelegationProof) ClaimBytes() ([]byte, error) {
	claim := *p
	claim.Signature = nil
	return json.Marshal(&claim)
}

// CapabilityID derives the stable identifier used for revocation and caveat
// accounting.
func (p *DelegationProof) CapabilityID() (string, error) {
	b, err := p.ClaimBytes()
	if err != nil {
		return "", err
	}
	return HashHex(b), nil
}
