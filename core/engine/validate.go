package engine

import (
	"math"

	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
)

// MintersFrom builds the authorization set the validator consumes from the
// state's genesis minter snapshot. Replay callers pass nil instead to skip
// minter enforcement for legacy logs.
func MintersFrom(st *state.State) map[string]bool {
	set := make(map[string]bool, len(st.AuthorizedMinters))
	for _, m := range st.AuthorizedMinters {
		set[m] = true
	}
	return set
}

// Validate runs the full validation pipeline against st without mutating it.
// The pipeline order is fixed for every kind: shape, authorization, nonce,
// domain rules, then kind-specific checks. On success the returned hints feed
// Apply.
func Validate(st *state.State, tx *types.Tx, ctx Context, minters map[string]bool) (*ApplyHints, error) {
	if tx == nil {
		return nil, errors.New(errors.CodeInvalidTransaction, "nil transaction")
	}
	if ctx.Mode == ModeLive && (ctx.Now == nil || ctx.MaxAge == nil) {
		return nil, errors.New(errors.CodeInternal, "live validation requires a reference time and max age")
	}
	if tx.Signer == "" {
		return nil, errors.New(errors.CodeInvalidTransaction, "signer missing")
	}

	hints := &ApplyHints{
		NonceAccount:  tx.NonceAccountOrSigner(),
		ConsumesNonce: tx.Type != types.TxTypeMint,
	}

	switch tx.Type {
	case types.TxTypeMint:
		return hints, validateMint(st, tx, minters)
	case types.TxTypeOpenMeter:
		return hints, validateOpenMeter(st, tx)
	case types.TxTypeConsume:
		return validateConsume(st, tx, ctx, hints)
	case types.TxTypeCloseMeter:
		return hints, validateCloseMeter(st, tx)
	case types.TxTypeRevokeDelegation:
		return hints, validateRevokeDelegation(st, tx)
	case types.TxTypeProposeSettlement:
		return hints, validateProposeSettlement(st, tx, ctx)
	case types.TxTypeFinalizeSettlement:
		return hints, validateFinalizeSettlement(st, tx)
	case types.TxTypeSubmitClaim:
		return hints, validateSubmitClaim(st, tx)
	case types.TxTypePayClaim:
		return hints, validatePayClaim(st, tx)
	case types.TxTypeOpenDispute:
		return hints, validateOpenDispute(st, tx, ctx)
	case types.TxTypeResolveDispute:
		return hints, validateResolveDispute(st, tx)
	case types.TxTypePublishPolicyVersion:
		return hints, validatePublishPolicy(st, tx, ctx, minters)
	case types.TxTypeSupersedePolicyVersion:
		return hints, validateSupersedePolicy(st, tx, minters)
	default:
		return nil, errors.Newf(errors.CodeInvalidTransaction, "unknown transaction kind %s", tx.Type)
	}
}

func checkNonce(st *state.State, addr string, nonce uint64) error {
	acc := st.Account(addr)
	if acc.Nonce != nonce {
		return errors.Newf(errors.CodeInvalidTransaction, "nonce mismatch for %s: expected %d, got %d", addr, acc.Nonce, nonce)
	}
	return nil
}

func validateMint(st *state.State, tx *types.Tx, minters map[string]bool) error {
	p := tx.Mint
	if p == nil || p.To == "" {
		return errors.New(errors.CodeInvalidTransaction, "mint payload incomplete")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidTransaction, "mint amount must be positive")
	}
	if minters != nil && !minters[tx.Signer] {
		return errors.Newf(errors.CodeInvalidTransaction, "%s is not an authorized minter", tx.Signer)
	}
	if acc := st.Account(p.To); acc.Balance > math.MaxUint64-p.Amount {
		return errors.New(errors.CodeInvalidTransaction, "mint would overflow recipient balance")
	}
	return nil
}

func validateOpenMeter(st *state.State, tx *types.Tx) error {
	p := tx.OpenMeter
	if p == nil || p.Owner == "" || p.ServiceID == "" {
		return errors.New(errors.CodeInvalidTransaction, "open meter payload incomplete")
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the owner may open a meter")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	if p.Deposit == 0 {
		return errors.New(errors.CodeInvalidTransaction, "deposit must be positive")
	}
	if st.Account(p.Owner).Balance < p.Deposit {
		return errors.New(errors.CodeInvalidTransaction, "insufficient balance for deposit")
	}
	if m, ok := st.Meter(p.Owner, p.ServiceID); ok && m.Active {
		return errors.Newf(errors.CodeInvalidTransaction, "meter %s already active", types.MeterKey(p.Owner, p.ServiceID))
	}
	return nil
}

func validateConsume(st *state.State, tx *types.Tx, ctx Context, hints *ApplyHints) (*ApplyHints, error) {
	p := tx.Consume
	if p == nil || p.Owner == "" || p.ServiceID == "" {
		return nil, errors.New(errors.CodeInvalidTransaction, "consume payload incomplete")
	}
	if p.Units == 0 {
		return nil, errors.New(errors.CodeInvalidTransaction, "consume units must be positive")
	}
	if !p.Pricing.Valid() {
		return nil, errors.New(errors.CodeInvalidTransaction, "pricing must carry exactly one positive variant")
	}

	delegated := tx.IsDelegated()
	if delegated {
		if tx.EffectivePayloadVersion() != types.PayloadVersionV2 {
			return nil, errors.New(errors.CodeDelegatedConsumeRequiresV2, "delegated consume requires payload version 2")
		}
		if tx.ValidAt == nil {
			return nil, errors.New(errors.CodeValidAtMissing, "delegated consume requires validAt")
		}
		if tx.NonceAccount == "" || tx.NonceAccount != p.Owner {
			return nil, errors.New(errors.CodeNonceAccountMissingOrInvalid, "nonce account must be the meter owner")
		}
	} else if tx.Signer != p.Owner {
		return nil, errors.New(errors.CodeDelegationProofMissing, "consume by a non-owner requires a delegation proof")
	}

	nonceAccount := hints.NonceAccount
	if acc := st.Account(nonceAccount); acc.Nonce != tx.Nonce {
		if delegated {
			return nil, errors.Newf(errors.CodeNonceAccountMissingOrInvalid, "nonce mismatch for %s: expected %d, got %d", nonceAccount, acc.Nonce, tx.Nonce)
		}
		return nil, errors.Newf(errors.CodeInvalidTransaction, "nonce mismatch for %s: expected %d, got %d", nonceAccount, acc.Nonce, tx.Nonce)
	}

	m, ok := st.Meter(p.Owner, p.ServiceID)
	if !ok || !m.Active {
		return nil, errors.Newf(errors.CodeInvalidTransaction, "no active meter for %s", types.MeterKey(p.Owner, p.ServiceID))
	}
	cost, ok := p.Pricing.Cost(p.Units)
	if !ok {
		return nil, errors.New(errors.CodeInvalidTransaction, "cost arithmetic overflow")
	}
	if st.Account(p.Owner).Balance < cost {
		return nil, errors.Newf(errors.CodeInvalidTransaction, "insufficient balance: need %d", cost)
	}
	if m.TotalUnits > math.MaxUint64-p.Units || m.TotalSpent > math.MaxUint64-cost {
		return nil, errors.New(errors.CodeInvalidTransaction, "meter totals overflow")
	}
	hints.Cost = cost

	if delegated {
		if err := validateDelegation(st, tx, ctx, p, cost, hints); err != nil {
			return nil, err
		}
	}
	return hints, nil
}

func validateDelegation(st *state.State, tx *types.Tx, ctx Context, p *types.ConsumePayload, cost uint64, hints *ApplyHints) error {
	proof := tx.DelegationProof
	if proof.Issuer != p.Owner {
		return errors.New(errors.CodeDelegationIssuerOwnerMismatch, "proof issuer is not the meter owner")
	}
	if proof.Audience != tx.Signer {
		return errors.New(errors.CodeDelegationAudienceSignerMismatch, "proof audience is not the signer")
	}
	if proof.ServiceID != p.ServiceID {
		return errors.New(errors.CodeDelegationScopeMismatch, "proof is scoped to a different service")
	}
	capID, err := proof.CapabilityID()
	if err != nil {
		return errors.Wrap(errors.CodeInvalidTransaction, "derive capability id", err)
	}
	if st.IsRevoked(capID) {
		return errors.New(errors.CodeDelegationRevoked, "capability has been revoked")
	}

	validAt := *tx.ValidAt
	if validAt < proof.IssuedAt || validAt >= proof.ExpiresAt {
		return errors.New(errors.CodeDelegationExpiredOrNotYetValid, "validAt outside the proof validity window")
	}
	if ctx.Mode == ModeLive {
		now, maxAge := *ctx.Now, *ctx.MaxAge
		if validAt > now {
			return errors.New(errors.CodeReferenceTimeFuture, "validAt is in the future")
		}
		if now-validAt > maxAge {
			return errors.New(errors.CodeReferenceTimeTooOld, "validAt is older than the accepted window")
		}
	}

	usage := st.CapabilityUsage(capID)
	if max := proof.Caveats.MaxUnits; max != nil {
		if usage.UnitsUsed > math.MaxUint64-p.Units || usage.UnitsUsed+p.Units > *max {
			return errors.New(errors.CodeCapabilityLimitExceeded, "caveat max units exceeded")
		}
	}
	if max := proof.Caveats.MaxCost; max != nil {
		if usage.CostUsed > math.MaxUint64-cost || usage.CostUsed+cost > *max {
			return errors.New(errors.CodeCapabilityLimitExceeded, "caveat max cost exceeded")
		}
	}
	hints.CapabilityID = capID
	return nil
}

func validateCloseMeter(st *state.State, tx *types.Tx) error {
	p := tx.CloseMeter
	if p == nil || p.Owner == "" || p.ServiceID == "" {
		return errors.New(errors.CodeInvalidTransaction, "close meter payload incomplete")
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the owner may close a meter")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	m, ok := st.Meter(p.Owner, p.ServiceID)
	if !ok || !m.Active {
		return errors.Newf(errors.CodeInvalidTransaction, "no active meter for %s", types.MeterKey(p.Owner, p.ServiceID))
	}
	if st.Account(p.Owner).Balance > math.MaxUint64-m.LockedDeposit {
		return errors.New(errors.CodeInvalidTransaction, "deposit return would overflow balance")
	}
	return nil
}

func validateRevokeDelegation(st *state.State, tx *types.Tx) error {
	p := tx.RevokeDelegation
	if p == nil || p.Owner == "" || p.CapabilityID == "" {
		return errors.New(errors.CodeInvalidTransaction, "revoke delegation payload incomplete")
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the issuer may revoke a delegation")
	}
	return checkNonce(st, tx.Signer, tx.Nonce)
}

func validateProposeSettlement(st *state.State, tx *types.Tx, ctx Context) error {
	p := tx.ProposeSettlement
	if p == nil || p.Owner == "" || p.ServiceID == "" || p.WindowID == "" {
		return errors.New(errors.CodeInvalidTransaction, "propose settlement payload incomplete")
	}
	if p.EvidenceHash == "" {
		return errors.New(errors.CodeInvalidTransaction, "evidence hash missing")
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the owner may propose a settlement")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	if p.FromTxID >= p.ToTxID {
		return errors.New(errors.CodeInvalidTransaction, "settlement window is empty")
	}
	sum := p.OperatorShare
	for _, part := range []uint64{p.ProtocolFee, p.ReserveLocked} {
		if sum > math.MaxUint64-part {
			return errors.New(errors.CodeSettlementConservationViolation, "split overflows")
		}
		sum += part
	}
	if sum != p.GrossSpent {
		return errors.Newf(errors.CodeSettlementConservationViolation, "split sums to %d, gross is %d", sum, p.GrossSpent)
	}
	key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
	if _, ok := st.Settlement(key); ok {
		return errors.Newf(errors.CodeDuplicateSettlementWindow, "settlement %s already exists", key)
	}
	prefix := types.MeterKey(p.Owner, p.ServiceID)
	for _, existing := range st.Settlements {
		if existing.Owner != p.Owner || existing.ServiceID != p.ServiceID {
			continue
		}
		if p.FromTxID < existing.ToTxID && existing.FromTxID < p.ToTxID {
			return errors.Newf(errors.CodeDuplicateSettlementWindow, "window overlaps settlement %s for %s", existing.WindowID, prefix)
		}
	}
	if pv, ok := st.ResolvePolicy(p.Owner, p.ServiceID, ctx.NextTxID); ok {
		operator, fee, reserve, ok := pv.Split(p.GrossSpent)
		if !ok {
			return errors.New(errors.CodeInvalidTransaction, "policy split overflows")
		}
		if operator != p.OperatorShare || fee != p.ProtocolFee || reserve != p.ReserveLocked {
			return errors.Newf(errors.CodeInvalidTransaction, "split does not match policy %s v%d", pv.ScopeKey, pv.Version)
		}
	}
	return nil
}

func validateFinalizeSettlement(st *state.State, tx *types.Tx) error {
	p := tx.FinalizeSettlement
	if p == nil || p.Owner == "" || p.ServiceID == "" || p.WindowID == "" {
		return errors.New(errors.CodeInvalidTransaction, "finalize settlement payload incomplete")
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the owner may finalize a settlement")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
	s, ok := st.Settlement(key)
	if !ok {
		return errors.Newf(errors.CodeSettlementNotFound, "settlement %s not found", key)
	}
	if s.Status != types.SettlementProposed {
		return errors.Newf(errors.CodeSettlementNotProposed, "settlement %s is %s", key, s.Status)
	}
	return nil
}

func validateSubmitClaim(st *state.State, tx *types.Tx) error {
	p := tx.SubmitClaim
	if p == nil || p.Operator == "" || p.Owner == "" || p.ServiceID == "" || p.WindowID == "" {
		return errors.New(errors.CodeInvalidTransaction, "submit claim payload incomplete")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidTransaction, "claim amount must be positive")
	}
	if tx.Signer != p.Operator {
		return errors.New(errors.CodeInvalidTransaction, "only the operator may submit a claim")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
	s, ok := st.Settlement(key)
	if !ok {
		return errors.Newf(errors.CodeSettlementNotFound, "settlement %s not found", key)
	}
	if s.Status != types.SettlementFinalized {
		return errors.Newf(errors.CodeSettlementNotFinalized, "settlement %s is %s", key, s.Status)
	}
	if _, ok := st.Claim(p.Operator, key); ok {
		return errors.Newf(errors.CodeInvalidTransaction, "claim already submitted for %s", key)
	}
	if p.Amount > s.Payable() {
		return errors.Newf(errors.CodeClaimAmountExceedsPayable, "claim %d exceeds payable %d", p.Amount, s.Payable())
	}
	return nil
}

func validatePayClaim(st *state.State, tx *types.Tx) error {
	p := tx.PayClaim
	if p == nil || p.Operator == "" || p.Owner == "" || p.ServiceID == "" || p.WindowID == "" {
		return errors.New(errors.CodeInvalidTransaction, "pay claim payload incomplete")
	}
	if tx.Signer != p.Operator {
		return errors.New(errors.CodeInvalidTransaction, "only the operator may collect a claim")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
	s, ok := st.Settlement(key)
	if !ok {
		return errors.Newf(errors.CodeSettlementNotFound, "settlement %s not found", key)
	}
	if s.Status != types.SettlementFinalized {
		return errors.Newf(errors.CodeSettlementNotFinalized, "settlement %s is %s", key, s.Status)
	}
	c, ok := st.Claim(p.Operator, key)
	if !ok {
		return errors.Newf(errors.CodeClaimNotPending, "no claim by %s against %s", p.Operator, key)
	}
	if c.Status != types.ClaimPending {
		return errors.Newf(errors.CodeClaimNotPending, "claim is %s", c.Status)
	}
	if st.Account(p.Operator).Balance > math.MaxUint64-c.Amount {
		return errors.New(errors.CodeInvalidTransaction, "payout would overflow operator balance")
	}
	return nil
}

func validateOpenDispute(st *state.State, tx *types.Tx, ctx Context) error {
	p := tx.OpenDispute
	if p == nil || p.Owner == "" || p.ServiceID == "" || p.WindowID == "" {
		return errors.New(errors.CodeInvalidTransaction, "open dispute payload incomplete")
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the owner may open a dispute")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
	s, ok := st.Settlement(key)
	if !ok {
		return errors.Newf(errors.CodeSettlementNotFound, "settlement %s not found", key)
	}
	if d, ok := st.Dispute(key); ok && d.Status == types.DisputeOpen {
		return errors.Newf(errors.CodeDisputeAlreadyOpen, "dispute already open for %s", key)
	}
	if s.Status != types.SettlementFinalized {
		return errors.Newf(errors.CodeSettlementNotFinalized, "settlement %s is %s", key, s.Status)
	}
	// The window check only runs when a reference time is available; replay
	// and clock-less callers skip it.
	if s.DisputeWindowSecs != nil && s.FinalizedAt != nil && ctx.Now != nil {
		deadline := *s.FinalizedAt
		if deadline <= math.MaxUint64-*s.DisputeWindowSecs {
			deadline += *s.DisputeWindowSecs
			if *ctx.Now > deadline {
				return errors.Newf(errors.CodeDisputeWindowClosed, "dispute window for %s closed at %d", key, deadline)
			}
		}
	}
	return nil
}

func validateResolveDispute(st *state.State, tx *types.Tx) error {
	p := tx.ResolveDispute
	if p == nil || p.Owner == "" || p.ServiceID == "" || p.WindowID == "" {
		return errors.New(errors.CodeInvalidTransaction, "resolve dispute payload incomplete")
	}
	if p.Verdict != types.VerdictUpheld && p.Verdict != types.VerdictDismissed {
		return errors.Newf(errors.CodeInvalidTransaction, "unknown verdict %q", p.Verdict)
	}
	if tx.Signer != p.Owner {
		return errors.New(errors.CodeInvalidTransaction, "only the owner may resolve a dispute")
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	key := types.SettlementKey(p.Owner, p.ServiceID, p.WindowID)
	s, ok := st.Settlement(key)
	if !ok {
		return errors.Newf(errors.CodeSettlementNotFound, "settlement %s not found", key)
	}
	d, ok := st.Dispute(key)
	if !ok {
		return errors.Newf(errors.CodeDisputeNotFound, "no dispute for %s", key)
	}
	if d.Status != types.DisputeOpen {
		return errors.Newf(errors.CodeDisputeNotOpen, "dispute is %s", d.Status)
	}

	bundle := p.EvidenceBundle
	if bundle == nil {
		return errors.New(errors.CodeInvalidEvidenceBundle, "evidence bundle missing")
	}
	if err := bundle.ValidateShape(); err != nil {
		return err
	}
	if p.ReplayHash == "" {
		return errors.New(errors.CodeInvalidEvidenceBundle, "replay hash missing")
	}
	if bundle.SettlementKey != key {
		return errors.New(errors.CodeInvalidEvidenceBundle, "bundle names a different settlement")
	}
	if bundle.FromTxID != s.FromTxID || bundle.ToTxID != s.ToTxID {
		return errors.New(errors.CodeInvalidEvidenceBundle, "bundle window does not match the settlement")
	}
	if bundle.EvidenceHash != s.EvidenceHash {
		return errors.New(errors.CodeInvalidEvidenceBundle, "bundle evidence hash does not match the settlement")
	}
	if bundle.ReplayHash != p.ReplayHash || bundle.ReplaySummary != p.ReplaySummary {
		return errors.New(errors.CodeInvalidEvidenceBundle, "bundle disagrees with the transaction evidence")
	}

	sum := p.ReplaySummary
	if sum.FromTxID != s.FromTxID || sum.ToTxID != s.ToTxID {
		return errors.New(errors.CodeReplayMismatch, "summary window does not match the settlement")
	}
	if sum.GrossSpent != s.GrossSpent || sum.OperatorShare != s.OperatorShare ||
		sum.ProtocolFee != s.ProtocolFee || sum.ReserveLocked != s.ReserveLocked {
		return errors.New(errors.CodeReplayMismatch, "summary totals do not match the settlement")
	}
	if p.ReplayHash != s.EvidenceHash {
		return errors.New(errors.CodeReplayMismatch, "replay hash does not match the recorded evidence")
	}
	return nil
}

func validatePublishPolicy(st *state.State, tx *types.Tx, ctx Context, minters map[string]bool) error {
	p := tx.PublishPolicy
	if p == nil {
		return errors.New(errors.CodeInvalidTransaction, "publish policy payload incomplete")
	}
	if !p.Scope.Valid() {
		return errors.New(errors.CodeInvalidPolicyParameters, "malformed policy scope")
	}
	if p.OperatorShareBps > types.BpsDenominator || p.ProtocolFeeBps > types.BpsDenominator || p.ReserveBps > types.BpsDenominator {
		return errors.New(errors.CodeInvalidPolicyParameters, "basis points out of range")
	}
	if p.OperatorShareBps+p.ProtocolFeeBps+p.ReserveBps != types.BpsDenominator {
		return errors.New(errors.CodeInvalidPolicyParameters, "basis points must sum to 10000")
	}
	if minters != nil && !minters[tx.Signer] {
		return errors.Newf(errors.CodeInvalidTransaction, "%s is not authorized to publish policy", tx.Signer)
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	scopeKey := p.Scope.Key()
	latest, exists := st.LatestPolicy[scopeKey]
	if !exists {
		if p.Version != 1 {
			return errors.Newf(errors.CodePolicyVersionConflict, "first version for %s must be 1, got %d", scopeKey, p.Version)
		}
	} else if p.Version != latest+1 {
		return errors.Newf(errors.CodePolicyVersionConflict, "expected version %d for %s, got %d", latest+1, scopeKey, p.Version)
	}
	if p.EffectiveFromTxID < ctx.NextTxID {
		return errors.Newf(errors.CodeRetroactivePolicyForbidden, "effectiveFromTxId %d is in the past (next tx id %d)", p.EffectiveFromTxID, ctx.NextTxID)
	}
	return nil
}

func validateSupersedePolicy(st *state.State, tx *types.Tx, minters map[string]bool) error {
	p := tx.SupersedePolicy
	if p == nil {
		return errors.New(errors.CodeInvalidTransaction, "supersede policy payload incomplete")
	}
	if !p.Scope.Valid() {
		return errors.New(errors.CodeInvalidPolicyParameters, "malformed policy scope")
	}
	if minters != nil && !minters[tx.Signer] {
		return errors.Newf(errors.CodeInvalidTransaction, "%s is not authorized to supersede policy", tx.Signer)
	}
	if err := checkNonce(st, tx.Signer, tx.Nonce); err != nil {
		return err
	}
	key := types.PolicyKey(p.Scope.Key(), p.Version)
	pv, ok := st.Policies[key]
	if !ok {
		return errors.Newf(errors.CodePolicyNotFound, "policy %s not found", key)
	}
	if pv.Status != types.PolicyPublished {
		return errors.Newf(errors.CodePolicyVersionConflict, "policy %s is already %s", key, pv.Status)
	}
	return nil
}
