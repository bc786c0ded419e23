package engine

import (
	"meterchain/core/state"
	"meterchain/core/types"
)

// Apply performs the state transition for a transaction that already passed
// Validate. It never fails: every rule lives in the validator, so a hint set
// reaching this point describes a legal transition. The input state is left
// untouched; the returned state is a mutated clone.
func Apply(st *state.State, tx *types.Tx, ctx Context, hints *ApplyHints) *state.State {
	next := st.Clone()

	switch tx.Type {
	case types.TxTypeMint:
		next.EnsureAccount(tx.Mint.To).Balance += tx.Mint.Amount

	case types.TxTypeOpenMeter:
		p := tx.OpenMeter
		next.EnsureAccount(p.Owner).Balance -= p.Deposit
		key := types.MeterKey(p.Owner, p.ServiceID)
		m, ok := next.Meters[key]
		if !ok {
			m = &types.Meter{Owner: p.Owner, ServiceID: p.ServiceID}
			next.Meters[key] = m
		}
		m.LockedDeposit += p.Deposit
		m.Active = true

	case types.TxTypeConsume:
		p := tx.Consume
		next.EnsureAccount(p.Owner).Balance -= hints.Cost
		m := next.Meters[types.MeterKey(p.Owner, p.ServiceID)]
		m.TotalUnits += p.Units
		m.TotalSpent += hints.Cost
		if hints.CapabilityID != "" {
			usage, ok := next.Consumption[hints.CapabilityID]
			if !ok {
				usage = &types.CapabilityConsumption{}
				next.Consumption[hints.CapabilityID] = usage
			}
			usage.UnitsUsed += p.Units
			usage.CostUsed += hints.Cost
		}

	case types.TxTypeCloseMeter:
		p := tx.CloseMeter
		m := next.Meters[types.MeterKey(p.Owner, p.ServiceID)]
		next.EnsureAccount(p.Owner).Balance += m.LockedDeposit
		m.LockedDeposit = 0
		m.Active = false

	case types.TxTypeRevokeDelegation:
		next.Revoked[tx.RevokeDelegation.CapabilityID] = true

	case types.TxTypeProposeSettlement:
		p := tx.ProposeSettlement
		s := &types.Settlement{
			Owner:         p.Owner,
			ServiceID:     p.ServiceID,
			WindowID:      p.WindowID,
			Status:        types.SettlementProposed,
			FromTxID:      p.FromTxID,
			ToTxID:        p.ToTxID,
			GrossSpent:    p.GrossSpent,
			OperatorShare: p.OperatorShare,
			ProtocolFee:   p.ProtocolFee,
			ReserveLocked: p.ReserveLocked,
			EvidenceHash:  p.EvidenceHash,
			SchemaVersion: types.EvidenceSchemaVersion,
		}
		if pv, ok := next.ResolvePolicy(p.Owner, p.ServiceID, ctx.NextTxID); ok {
			s.PolicyScopeKey = pv.ScopeKey
			s.PolicyVersion = pv.Version
			window := pv.DisputeWindowSecs
			s.DisputeWindowSecs = &window
		}
		next.Settlements[s.Key()] = s

	case types.TxTypeFinalizeSettlement:
		p := tx.FinalizeSettlement
		s := next.Settlements[types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)]
		s.Status = types.SettlementFinalized
		if ctx.Now != nil {
			at := *ctx.Now
			s.FinalizedAt = &at
		}

	case types.TxTypeSubmitClaim:
		p := tx.SubmitClaim
		key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
		next.Claims[types.ClaimKey(p.Operator, key)] = &types.Claim{
			Operator:      p.Operator,
			SettlementKey: key,
			Amount:        p.Amount,
			Status:        types.ClaimPending,
		}

	case types.TxTypePayClaim:
		p := tx.PayClaim
		key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
		s := next.Settlements[key]
		c := next.Claims[types.ClaimKey(p.Operator, key)]
		paid := c.Amount
		if payable := s.Payable(); paid > payable {
			paid = payable
		}
		if paid == 0 {
			c.Status = types.ClaimRejected
			break
		}
		c.Status = types.ClaimPaid
		c.PaidAmount = paid
		s.TotalPaid += paid
		next.EnsureAccount(p.Operator).Balance += paid

	case types.TxTypeOpenDispute:
		p := tx.OpenDispute
		key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
		d := &types.Dispute{SettlementKey: key, Status: types.DisputeOpen, ReasonCode: p.ReasonCode}
		if ctx.Now != nil {
			at := *ctx.Now
			d.OpenedAt = &at
		}
		next.Disputes[key] = d
		next.Settlements[key].Status = types.SettlementDisputed

	case types.TxTypeResolveDispute:
		p := tx.ResolveDispute
		key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
		d := next.Disputes[key]
		s := next.Settlements[key]
		summary := p.ReplaySummary
		d.Resolution = &types.ResolutionAudit{
			ReplayHash:            p.ReplayHash,
			ReplaySummary:         summary,
			ReplayProtocolVersion: p.EvidenceBundle.ReplayProtocolVersion,
		}
		s.ReplayHash = p.ReplayHash
		s.ReplaySummary = &summary
		if p.Verdict == types.VerdictUpheld {
			d.Status = types.DisputeUpheld
			s.Status = types.SettlementResolved
		} else {
			d.Status = types.DisputeDismissed
			s.Status = types.SettlementFinalized
		}

	case types.TxTypePublishPolicyVersion:
		p := tx.PublishPolicy
		scopeKey := p.Scope.Key()
		pv := &types.PolicyVersion{
			ScopeKey:          scopeKey,
			Version:           p.Version,
			EffectiveFromTxID: p.EffectiveFromTxID,
			Status:            types.PolicyPublished,
			OperatorShareBps:  p.OperatorShareBps,
			ProtocolFeeBps:    p.ProtocolFeeBps,
			ReserveBps:        p.ReserveBps,
			DisputeWindowSecs: p.DisputeWindowSecs,
		}
		next.Policies[types.PolicyKey(scopeKey, p.Version)] = pv
		next.LatestPolicy[scopeKey] = p.Version

	case types.TxTypeSupersedePolicyVersion:
		p := tx.SupersedePolicy
		next.Policies[types.PolicyKey(p.Scope.Key(), p.Version)].Status = types.PolicySuperseded
	}

	if hints.ConsumesNonce {
		next.EnsureAccount(hints.NonceAccount).Nonce++
	}
	next.NextTxID = ctx.NextTxID + 1
	return next
}
