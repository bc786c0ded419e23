package state

import (
	"sort"

	"meterchain/core/types"
)

// State is the complete domain state of the ledger. All collections are plain
// maps; snapshot encoding relies on encoding/json's sorted map keys for
// byte-identical output across nodes. The engine owns the state exclusively
// while applying; readers must not retain references across applies.
type State struct {
	Accounts     map[string]*types.Account               `json:"accounts"`
	Meters       map[string]*types.Meter                 `json:"meters"`
	Settlements  map[string]*types.Settlement            `json:"settlements"`
	Claims       map[string]*types.Claim                 `json:"claims"`
	Disputes     map[string]*types.Dispute               `json:"disputes"`
	Policies     map[string]*types.PolicyVersion         `json:"policies"`
	LatestPolicy map[string]uint64                       `json:"latestPolicy"`
	Revoked      map[string]bool                         `json:"revoked"`
	Consumption  map[string]*types.CapabilityConsumption `json:"consumption"`

	AuthorizedMinters []string `json:"authorizedMinters"`
	NextTxID          uint64   `json:"nextTxId"`
}

// New returns the genesis state.
func New() *State {
	return &State{
		Accounts:     make(map[string]*types.Account),
		Meters:       make(map[string]*types.Meter),
		Settlements:  make(map[string]*types.Settlement),
		Claims:       make(map[string]*types.Claim),
		Disputes:     make(map[string]*types.Dispute),
		Policies:     make(map[string]*types.PolicyVersion),
		LatestPolicy: make(map[string]uint64),
		Revoked:      make(map[string]bool),
		Consumption:  make(map[string]*types.CapabilityConsumption),
	}
}

// Account returns a copy of the stored account or a zero-value account.
// Mutations must go through EnsureAccount.
func (s *State) Account(addr string) types.Account {
	if acc, ok := s.Accounts[addr]; ok {
		return *acc
	}
	return types.Account{}
}

// EnsureAccount returns the mutable account record, creating it when absent.
func (s *State) EnsureAccount(addr string) *types.Account {
	acc, ok := s.Accounts[addr]
	if !ok {
		acc = &types.Account{}
		s.Accounts[addr] = acc
	}
	return acc
}

// Meter looks up the meter for (owner, serviceID).
func (s *State) Meter(owner, serviceID string) (*types.Meter, bool) {
	m, ok := s.Meters[types.MeterKey(owner, serviceID)]
	return m, ok
}

// Settlement looks up a settlement by its composite key.
func (s *State) Settlement(key string) (*types.Settlement, bool) {
	st, ok := s.Settlements[key]
	return st, ok
}

// Claim looks up a claim by operator and settlement key.
func (s *State) Claim(operator, settlementKey string) (*types.Claim, bool) {
	c, ok := s.Claims[types.ClaimKey(operator, settlementKey)]
	return c, ok
}

// Dispute looks up the dispute attached to a settlement.
func (s *State) Dispute(settlementKey string) (*types.Dispute, bool) {
	d, ok := s.Disputes[settlementKey]
	return d, ok
}

// CapabilityUsage returns the recorded lifetime consumption for a capability,
// zero when the capability has never been used.
func (s *State) CapabilityUsage(capabilityID string) types.CapabilityConsumption {
	if c, ok := s.Consumption[capabilityID]; ok {
		return *c
	}
	return types.CapabilityConsumption{}
}

// IsRevoked reports whether the capability id has been revoked. Revocation is
// permanent.
func (s *State) IsRevoked(capabilityID string) bool {
	return s.Revoked[capabilityID]
}

// IsMinter reports whether addr belongs to the genesis minter snapshot.
func (s *State) IsMinter(addr string) bool {
	for _, m := range s.AuthorizedMinters {
		if m == addr {
			return true
		}
	}
	return false
}

// SetMinters installs the genesis minter snapshot, kept sorted so snapshot
// encoding stays stable.
func (s *State) SetMinters(addrs []string) {
	minters := append([]string(nil), addrs...)
	sort.Strings(minters)
	s.AuthorizedMinters = minters
}

// ResolvePolicy returns the policy version governing (owner, serviceID) at
// tx position atTxID. Narrower scopes win: owner_service, then owner, then
// global. Within a scope the highest version whose effectiveFromTxId has been
// reached applies, whether or not a later version superseded it.
func (s *State) ResolvePolicy(owner, serviceID string, atTxID uint64) (*types.PolicyVersion, bool) {
	scopeKeys := []string{
		types.OwnerServiceScope(owner, serviceID).Key(),
		types.OwnerScope(owner).Key(),
		types.GlobalScope().Key(),
	}
	for _, scopeKey := range scopeKeys {
		latest, ok := s.LatestPolicy[scopeKey]
		if !ok {
			continue
		}
		for v := latest; v >= 1; v-- {
			pv, ok := s.Policies[types.PolicyKey(scopeKey, v)]
			if !ok {
				continue
			}
			if pv.EffectiveFromTxID <= atTxID {
				return pv, true
			}
		}
	}
	return nil, false
}

// Clone deep-copies the state. Replay over a slice starts from a clone so the
// base state survives unchanged.
func (s *State) Clone() *State {
	out := New()
	for k, v := range s.Accounts {
		cp := *v
		out.Accounts[k] = &cp
	}
	for k, v := range s.Meters {
		cp := *v
		out.Meters[k] = &cp
	}
	for k, v := range s.Settlements {
		cp := *v
		if v.FinalizedAt != nil {
			t := *v.FinalizedAt
			cp.FinalizedAt = &t
		}
		if v.DisputeWindowSecs != nil {
			w := *v.DisputeWindowSecs
			cp.DisputeWindowSecs = &w
		}
		if v.ReplaySummary != nil {
			rs := *v.ReplaySummary
			cp.ReplaySummary = &rs
		}
		out.Settlements[k] = &cp
	}
	for k, v := range s.Claims {
		cp := *v
		out.Claims[k] = &cp
	}
	for k, v := range s.Disputes {
		cp := *v
		if v.OpenedAt != nil {
			t := *v.OpenedAt
			cp.OpenedAt = &t
		}
		if v.Resolution != nil {
			r := *v.Resolution
			cp.Resolution = &r
		}
		out.Disputes[k] = &cp
	}
	for k, v := range s.Policies {
		cp := *v
		out.Policies[k] = &cp
	}
	for k, v := range s.LatestPolicy {
		out.LatestPolicy[k] = v
	}
	for k := range s.Revoked {
		out.Revoked[k] = true
	}
	for k, v := range s.Consumption {
		cp := *v
		out.Consumption[k] = &cp
	}
	out.AuthorizedMinters = append([]string(nil), s.AuthorizedMinters...)
	out.NextTxID = s.NextTxID
	return out
}
