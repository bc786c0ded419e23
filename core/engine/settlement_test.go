package engine

import (
	"testing"

	"meterchain/core/errors"
	"meterchain/core/types"
)

const evidenceHash = "6c1f"

func publishPolicyTx(nonce uint64, scope types.PolicyScope, version, effective uint64, op, fee, res uint32, window uint64) *types.Tx {
	return &types.Tx{
		Signer: minter, Nonce: nonce, Type: types.TxTypePublishPolicyVersion,
		PublishPolicy: &types.PublishPolicyVersionPayload{
			Scope: scope, Version: version, EffectiveFromTxID: effective,
			OperatorShareBps: op, ProtocolFeeBps: fee, ReserveBps: res,
			DisputeWindowSecs: window,
		},
	}
}

func proposeTx(nonce uint64, windowID string, from, to, gross, op, fee, res uint64) *types.Tx {
	return &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeProposeSettlement,
		ProposeSettlement: &types.ProposeSettlementPayload{
			Owner: owner, ServiceID: svc, WindowID: windowID,
			FromTxID: from, ToTxID: to, GrossSpent: gross,
			OperatorShare: op, ProtocolFee: fee, ReserveLocked: res,
			EvidenceHash: evidenceHash,
		},
	}
}

func finalizeTx(nonce uint64, windowID string) *types.Tx {
	return &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeFinalizeSettlement,
		FinalizeSettlement: &types.FinalizeSettlementPayload{Owner: owner, ServiceID: svc, WindowID: windowID},
	}
}

func claimTx(op string, nonce, amount uint64, windowID string) *types.Tx {
	return &types.Tx{
		Signer: op, Nonce: nonce, Type: types.TxTypeSubmitClaim,
		SubmitClaim: &types.SubmitClaimPayload{Operator: op, Owner: owner, ServiceID: svc, WindowID: windowID, Amount: amount},
	}
}

func payTx(op string, nonce uint64, windowID string) *types.Tx {
	return &types.Tx{
		Signer: op, Nonce: nonce, Type: types.TxTypePayClaim,
		PayClaim: &types.PayClaimPayload{Operator: op, Owner: owner, ServiceID: svc, WindowID: windowID},
	}
}

func disputeTx(nonce uint64, windowID string) *types.Tx {
	return &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeOpenDispute,
		OpenDispute: &types.OpenDisputePayload{Owner: owner, ServiceID: svc, WindowID: windowID, ReasonCode: "totals"},
	}
}

func matchingBundle(s *types.Settlement) *types.EvidenceBundle {
	return &types.EvidenceBundle{
		SettlementKey: s.Key(),
		FromTxID:      s.FromTxID,
		ToTxID:        s.ToTxID,
		EvidenceHash:  s.EvidenceHash,
		ReplayHash:    s.EvidenceHash,
		ReplaySummary: types.ReplaySummary{
			FromTxID: s.FromTxID, ToTxID: s.ToTxID, TxCount: s.ToTxID - s.FromTxID,
			GrossSpent: s.GrossSpent, OperatorShare: s.OperatorShare,
			ProtocolFee: s.ProtocolFee, ReserveLocked: s.ReserveLocked,
		},
		SchemaVersion:         types.EvidenceSchemaVersion,
		ReplayProtocolVersion: types.ReplayProtocolVersion,
	}
}

func resolveTx(nonce uint64, windowID string, verdict types.DisputeVerdict, bundle *types.EvidenceBundle) *types.Tx {
	tx := &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeResolveDispute,
		ResolveDispute: &types.ResolveDisputePayload{
			Owner: owner, ServiceID: svc, WindowID: windowID, Verdict: verdict,
			EvidenceBundle: bundle,
		},
	}
	if bundle != nil {
		tx.ResolveDispute.ReplayHash = bundle.ReplayHash
		tx.ResolveDispute.ReplaySummary = bundle.ReplaySummary
	}
	return tx
}

// settledLedger runs publish policy (80/15/5, dispute window 100s), mint, open,
// and a single consume worth 300, leaving the window [3,4) ready to settle.
func settledLedger(t *testing.T) *ledger {
	l := newLedger(t)
	l.mustApply(publishPolicyTx(0, types.GlobalScope(), 1, 0, 8_000, 1_500, 500, 100))
	l.mustApply(mintTx(owner, 1_000))
	l.mustApply(openTx(0, 100))
	l.mustApply(consumeTx(1, 100, 3))
	return l
}

func TestSettlementLifecycle(t *testing.T) {
	l := settledLedger(t)

	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	s, ok := l.st.Settlement(types.SettlementKey(owner, svc, "w1"))
	if !ok || s.Status != types.SettlementProposed {
		t.Fatalf("settlement after propose = %+v", s)
	}
	if s.PolicyScopeKey != "global" || s.PolicyVersion != 1 {
		t.Fatalf("policy not pinned: %+v", s)
	}
	if s.DisputeWindowSecs == nil || *s.DisputeWindowSecs != 100 {
		t.Fatalf("dispute window not pinned: %+v", s.DisputeWindowSecs)
	}

	l.mustApply(finalizeTx(3, "w1"))
	s, _ = l.st.Settlement(types.SettlementKey(owner, svc, "w1"))
	if s.Status != types.SettlementFinalized || s.FinalizedAt == nil || *s.FinalizedAt != l.now {
		t.Fatalf("settlement after finalize = %+v", s)
	}

	l.mustApply(claimTx(operator, 0, 240, "w1"))
	l.mustApply(payTx(operator, 1, "w1"))
	if got := l.st.Account(operator).Balance; got != 240 {
		t.Fatalf("operator balance after payout = %d", got)
	}
	s, _ = l.st.Settlement(types.SettlementKey(owner, svc, "w1"))
	if s.TotalPaid != 240 || s.Payable() != 0 {
		t.Fatalf("settlement after payout: paid=%d payable=%d", s.TotalPaid, s.Payable())
	}
	c, _ := l.st.Claim(operator, s.Key())
	if c.Status != types.ClaimPaid || c.PaidAmount != 240 {
		t.Fatalf("claim after payout = %+v", c)
	}
}

func TestProposeRejections(t *testing.T) {
	l := settledLedger(t)

	l.mustReject(proposeTx(2, "w1", 4, 4, 0, 0, 0, 0), errors.CodeInvalidTransaction) // empty window
	l.mustReject(proposeTx(2, "w1", 3, 4, 300, 240, 45, 10), errors.CodeSettlementConservationViolation)
	l.mustReject(proposeTx(2, "w1", 3, 4, 300, 239, 46, 15), errors.CodeInvalidTransaction) // conserved but off-policy

	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustReject(proposeTx(3, "w1", 3, 4, 300, 240, 45, 15), errors.CodeDuplicateSettlementWindow)
	// A different window id covering overlapping positions is still a duplicate.
	l.mustReject(proposeTx(3, "w2", 3, 5, 300, 240, 45, 15), errors.CodeDuplicateSettlementWindow)

	// Adjacent half-open windows do not overlap.
	l.mustApply(consumeTx(3, 10, 3))
	l.mustApply(proposeTx(4, "w2", 4, 6, 30, 25, 4, 1))
}

func TestProposeWithoutPolicySkipsCrossCheck(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 1_000))
	l.mustApply(openTx(0, 100))
	l.mustApply(consumeTx(1, 100, 3))

	// Any conserved split is acceptable when no policy governs the meter.
	l.mustApply(proposeTx(2, "w1", 2, 3, 300, 100, 100, 100))
	s, _ := l.st.Settlement(types.SettlementKey(owner, svc, "w1"))
	if s.PolicyScopeKey != "" || s.DisputeWindowSecs != nil {
		t.Fatalf("unexpected policy pin: %+v", s)
	}
}

func TestClaimRejections(t *testing.T) {
	l := settledLedger(t)
	l.mustReject(claimTx(operator, 0, 240, "w1"), errors.CodeSettlementNotFound)

	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustReject(claimTx(operator, 0, 240, "w1"), errors.CodeSettlementNotFinalized)
	l.mustReject(payTx(operator, 0, "w1"), errors.CodeSettlementNotFinalized)

	l.mustApply(finalizeTx(3, "w1"))
	l.mustReject(claimTx(operator, 0, 241, "w1"), errors.CodeClaimAmountExceedsPayable)
	l.mustReject(payTx(operator, 0, "w1"), errors.CodeClaimNotPending)

	l.mustApply(claimTx(operator, 0, 240, "w1"))
	l.mustReject(claimTx(operator, 1, 10, "w1"), errors.CodeInvalidTransaction) // one claim per operator

	l.mustApply(payTx(operator, 1, "w1"))
	l.mustReject(payTx(operator, 2, "w1"), errors.CodeClaimNotPending)
}

// Two operators may each claim the full payable amount; the second payout is
// capped at whatever remains.
func TestPayClaimCapsAtPayable(t *testing.T) {
	other := "0x00000000000000000000000000000000000000dd"
	l := settledLedger(t)
	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustApply(finalizeTx(3, "w1"))

	l.mustApply(claimTx(operator, 0, 240, "w1"))
	l.mustApply(claimTx(other, 0, 240, "w1"))
	l.mustApply(payTx(operator, 1, "w1"))
	l.mustApply(payTx(other, 1, "w1"))

	if got := l.st.Account(other).Balance; got != 0 {
		t.Fatalf("late claimant must receive nothing, got %d", got)
	}
	key := types.SettlementKey(owner, svc, "w1")
	c, _ := l.st.Claim(other, key)
	if c.Status != types.ClaimRejected || c.PaidAmount != 0 {
		t.Fatalf("exhausted claim = %+v", c)
	}
	s, _ := l.st.Settlement(key)
	if s.TotalPaid != 240 {
		t.Fatalf("total paid = %d", s.TotalPaid)
	}
}

func TestDisputeWindowDeadline(t *testing.T) {
	l := settledLedger(t)
	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustApply(finalizeTx(3, "w1")) // finalized at 1000, window 100s

	l.now = 1_101
	l.mustReject(disputeTx(4, "w1"), errors.CodeDisputeWindowClosed)

	// The deadline itself is still inside the window.
	l.now = 1_100
	l.mustApply(disputeTx(4, "w1"))
	s, _ := l.st.Settlement(types.SettlementKey(owner, svc, "w1"))
	if s.Status != types.SettlementDisputed {
		t.Fatalf("settlement after dispute = %+v", s)
	}
	l.mustReject(disputeTx(5, "w1"), errors.CodeDisputeAlreadyOpen)
}

func TestResolveDisputeUpheld(t *testing.T) {
	l := settledLedger(t)
	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustApply(finalizeTx(3, "w1"))
	l.mustApply(disputeTx(4, "w1"))

	key := types.SettlementKey(owner, svc, "w1")
	s, _ := l.st.Settlement(key)
	l.mustApply(resolveTx(5, "w1", types.VerdictUpheld, matchingBundle(s)))

	s, _ = l.st.Settlement(key)
	if s.Status != types.SettlementResolved {
		t.Fatalf("upheld verdict must freeze the settlement, got %s", s.Status)
	}
	d, _ := l.st.Dispute(key)
	if d.Status != types.DisputeUpheld || d.Resolution == nil {
		t.Fatalf("dispute after upheld verdict = %+v", d)
	}
	if d.Resolution.ReplayHash != s.EvidenceHash {
		t.Fatalf("audit hash = %q", d.Resolution.ReplayHash)
	}
}

func TestResolveDisputeDismissed(t *testing.T) {
	l := settledLedger(t)
	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustApply(finalizeTx(3, "w1"))
	l.mustApply(disputeTx(4, "w1"))

	key := types.SettlementKey(owner, svc, "w1")
	s, _ := l.st.Settlement(key)
	l.mustApply(resolveTx(5, "w1", types.VerdictDismissed, matchingBundle(s)))

	s, _ = l.st.Settlement(key)
	if s.Status != types.SettlementFinalized {
		t.Fatalf("dismissed verdict must restore the settlement, got %s", s.Status)
	}
	d, _ := l.st.Dispute(key)
	if d.Status != types.DisputeDismissed {
		t.Fatalf("dispute after dismissed verdict = %+v", d)
	}

	// Claims resume against the restored settlement.
	l.mustApply(claimTx(operator, 0, 240, "w1"))
	l.mustApply(payTx(operator, 1, "w1"))
	if got := l.st.Account(operator).Balance; got != 240 {
		t.Fatalf("payout after dismissal = %d", got)
	}
}

func TestResolveDisputeEvidenceChecks(t *testing.T) {
	l := settledLedger(t)
	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustApply(finalizeTx(3, "w1"))
	l.mustApply(disputeTx(4, "w1"))
	s, _ := l.st.Settlement(types.SettlementKey(owner, svc, "w1"))

	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, nil), errors.CodeInvalidEvidenceBundle)

	wrongKey := matchingBundle(s)
	wrongKey.SettlementKey = "0xother:api:w1"
	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, wrongKey), errors.CodeInvalidEvidenceBundle)

	wrongWindow := matchingBundle(s)
	wrongWindow.FromTxID = 2
	wrongWindow.ReplaySummary.TxCount = 2
	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, wrongWindow), errors.CodeInvalidEvidenceBundle)

	wrongEvidence := matchingBundle(s)
	wrongEvidence.EvidenceHash = "beef"
	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, wrongEvidence), errors.CodeInvalidEvidenceBundle)

	staleSchema := matchingBundle(s)
	staleSchema.SchemaVersion = 2
	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, staleSchema), errors.CodeUnsupportedSchemaVersion)

	// A consistent bundle whose replayed totals disagree with the settlement is
	// a replay mismatch, not a malformed bundle.
	wrongTotals := matchingBundle(s)
	wrongTotals.ReplaySummary.GrossSpent = 299
	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, wrongTotals), errors.CodeReplayMismatch)

	wrongHash := matchingBundle(s)
	wrongHash.ReplayHash = "beef"
	l.mustReject(resolveTx(5, "w1", types.VerdictUpheld, wrongHash), errors.CodeReplayMismatch)

	l.mustReject(&types.Tx{
		Signer: owner, Nonce: 5, Type: types.TxTypeResolveDispute,
		ResolveDispute: &types.ResolveDisputePayload{
			Owner: owner, ServiceID: svc, WindowID: "w1", Verdict: "split",
			EvidenceBundle: matchingBundle(s),
		},
	}, errors.CodeInvalidTransaction)
}

func TestResolveRequiresOpenDispute(t *testing.T) {
	l := settledLedger(t)
	l.mustApply(proposeTx(2, "w1", 3, 4, 300, 240, 45, 15))
	l.mustApply(finalizeTx(3, "w1"))
	s, _ := l.st.Settlement(types.SettlementKey(owner, svc, "w1"))

	l.mustReject(resolveTx(4, "w1", types.VerdictUpheld, matchingBundle(s)), errors.CodeDisputeNotFound)

	l.mustApply(disputeTx(4, "w1"))
	l.mustApply(resolveTx(5, "w1", types.VerdictDismissed, matchingBundle(s)))
	l.mustReject(resolveTx(6, "w1", types.VerdictUpheld, matchingBundle(s)), errors.CodeDisputeNotOpen)
}
