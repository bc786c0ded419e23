package engine

import (
	"bytes"
	"math"
	"testing"

	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
)

const (
	minter   = "0x00000000000000000000000000000000000000aa"
	owner    = "0x00000000000000000000000000000000000000bb"
	operator = "0x00000000000000000000000000000000000000cc"
	svc      = "api.translate"
)

func u64(v uint64) *uint64 { return &v }

// ledger drives validate+apply sequences against an in-memory state, tracking
// the position counter the way the daemon does.
type ledger struct {
	t    *testing.T
	st   *state.State
	next uint64
	now  uint64
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	st := state.New()
	st.SetMinters([]string{minter})
	return &ledger{t: t, st: st, now: 1_000}
}

func (l *ledger) ctx() Context {
	return LiveContext(l.now, 300, l.next)
}

func (l *ledger) mustApply(tx *types.Tx) {
	l.t.Helper()
	ctx := l.ctx()
	hints, err := Validate(l.st, tx, ctx, MintersFrom(l.st))
	if err != nil {
		l.t.Fatalf("tx %s rejected: %v", tx.Type, err)
	}
	l.st = Apply(l.st, tx, ctx, hints)
	l.next++
}

func (l *ledger) mustReject(tx *types.Tx, code string) {
	l.t.Helper()
	_, err := Validate(l.st, tx, l.ctx(), MintersFrom(l.st))
	if err == nil {
		l.t.Fatalf("tx %s accepted, expected %s", tx.Type, code)
	}
	if got := errors.CodeOf(err); got != code {
		l.t.Fatalf("tx %s rejected with %s, expected %s: %v", tx.Type, got, code, err)
	}
}

func (l *ledger) nonce(addr string) uint64 {
	return l.st.Account(addr).Nonce
}

func mintTx(to string, amount uint64) *types.Tx {
	return &types.Tx{Signer: minter, Type: types.TxTypeMint, Mint: &types.MintPayload{To: to, Amount: amount}}
}

func openTx(nonce, deposit uint64) *types.Tx {
	return &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeOpenMeter,
		OpenMeter: &types.OpenMeterPayload{Owner: owner, ServiceID: svc, Deposit: deposit},
	}
}

func consumeTx(nonce, units, unitPrice uint64) *types.Tx {
	return &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeConsume,
		Consume: &types.ConsumePayload{Owner: owner, ServiceID: svc, Units: units, Pricing: types.Pricing{UnitPrice: u64(unitPrice)}},
	}
}

func closeTx(nonce uint64) *types.Tx {
	return &types.Tx{
		Signer: owner, Nonce: nonce, Type: types.TxTypeCloseMeter,
		CloseMeter: &types.CloseMeterPayload{Owner: owner, ServiceID: svc},
	}
}

func TestMintRequiresAuthorization(t *testing.T) {
	l := newLedger(t)
	tx := &types.Tx{Signer: owner, Type: types.TxTypeMint, Mint: &types.MintPayload{To: owner, Amount: 10}}
	l.mustReject(tx, errors.CodeInvalidTransaction)
	l.mustApply(mintTx(owner, 10))
	if got := l.st.Account(owner).Balance; got != 10 {
		t.Fatalf("balance = %d", got)
	}
}

func TestMintDoesNotConsumeNonce(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 10))
	l.mustApply(mintTx(owner, 10))
	if l.nonce(minter) != 0 || l.nonce(owner) != 0 {
		t.Fatalf("mint must not touch nonces: minter=%d owner=%d", l.nonce(minter), l.nonce(owner))
	}
}

func TestMeterLifecycle(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 1_000))
	l.mustApply(openTx(0, 100))

	if got := l.st.Account(owner).Balance; got != 900 {
		t.Fatalf("balance after deposit = %d", got)
	}
	m, ok := l.st.Meter(owner, svc)
	if !ok || !m.Active || m.LockedDeposit != 100 {
		t.Fatalf("meter after open = %+v", m)
	}

	l.mustApply(consumeTx(1, 10, 3))
	if got := l.st.Account(owner).Balance; got != 870 {
		t.Fatalf("balance after consume = %d", got)
	}
	m, _ = l.st.Meter(owner, svc)
	if m.TotalUnits != 10 || m.TotalSpent != 30 {
		t.Fatalf("meter totals = %d/%d", m.TotalUnits, m.TotalSpent)
	}

	l.mustApply(closeTx(2))
	if got := l.st.Account(owner).Balance; got != 970 {
		t.Fatalf("balance after close = %d", got)
	}
	m, _ = l.st.Meter(owner, svc)
	if m.Active || m.LockedDeposit != 0 {
		t.Fatalf("meter after close = %+v", m)
	}
	if m.TotalUnits != 10 || m.TotalSpent != 30 {
		t.Fatal("close must preserve lifetime totals")
	}

	// Reopen keeps the historical totals.
	l.mustApply(openTx(3, 50))
	m, _ = l.st.Meter(owner, svc)
	if !m.Active || m.LockedDeposit != 50 || m.TotalUnits != 10 || m.TotalSpent != 30 {
		t.Fatalf("meter after reopen = %+v", m)
	}
}

func TestConsumeRejections(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 100))

	l.mustReject(consumeTx(0, 5, 2), errors.CodeInvalidTransaction) // no meter

	l.mustApply(openTx(0, 50))
	l.mustReject(consumeTx(1, 0, 2), errors.CodeInvalidTransaction) // zero units
	l.mustReject(&types.Tx{
		Signer: owner, Nonce: 1, Type: types.TxTypeConsume,
		Consume: &types.ConsumePayload{Owner: owner, ServiceID: svc, Units: 5},
	}, errors.CodeInvalidTransaction) // no pricing variant
	l.mustReject(consumeTx(1, 100, 10), errors.CodeInvalidTransaction) // insufficient balance
	l.mustReject(consumeTx(1, 2, math.MaxUint64), errors.CodeInvalidTransaction) // cost overflow

	l.mustApply(closeTx(1))
	l.mustReject(consumeTx(2, 5, 2), errors.CodeInvalidTransaction) // closed meter
}

func TestNonceEnforcement(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 1_000))
	l.mustReject(openTx(5, 100), errors.CodeInvalidTransaction)
	l.mustApply(openTx(0, 100))
	if l.nonce(owner) != 1 {
		t.Fatalf("nonce after open = %d", l.nonce(owner))
	}
	l.mustReject(consumeTx(0, 1, 1), errors.CodeInvalidTransaction) // replayed nonce
	l.mustApply(consumeTx(1, 1, 1))
	if l.nonce(owner) != 2 {
		t.Fatalf("nonce after consume = %d", l.nonce(owner))
	}
}

// Balances plus locked deposits plus meter spend always equal the minted
// supply while only mint, open, consume and close have been applied.
func TestValueConservation(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 1_000))
	l.mustApply(openTx(0, 250))
	l.mustApply(consumeTx(1, 7, 11))
	l.mustApply(consumeTx(2, 3, 20))
	l.mustApply(closeTx(3))

	var balances, locked, spent uint64
	for _, acc := range l.st.Accounts {
		balances += acc.Balance
	}
	for _, m := range l.st.Meters {
		locked += m.LockedDeposit
		spent += m.TotalSpent
	}
	if balances+locked+spent != 1_000 {
		t.Fatalf("conservation broken: balances=%d locked=%d spent=%d", balances, locked, spent)
	}
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	l := newLedger(t)
	l.mustApply(mintTx(owner, 100))
	before := l.st
	beforeBalance := before.Account(owner).Balance

	ctx := l.ctx()
	hints, err := Validate(before, openTx(0, 50), ctx, MintersFrom(before))
	if err != nil {
		t.Fatal(err)
	}
	next := Apply(before, openTx(0, 50), ctx, hints)
	if before.Account(owner).Balance != beforeBalance {
		t.Fatal("apply mutated its input state")
	}
	if next.Account(owner).Balance != beforeBalance-50 {
		t.Fatal("apply result missing the transition")
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []byte {
		l := newLedger(t)
		l.mustApply(mintTx(owner, 1_000))
		l.mustApply(openTx(0, 100))
		l.mustApply(consumeTx(1, 10, 3))
		l.mustApply(consumeTx(2, 4, 5))
		l.mustApply(closeTx(3))
		raw, err := state.EncodeSnapshot(l.st, l.next)
		if err != nil {
			t.Fatal(err)
		}
		return raw
	}
	if !bytes.Equal(run(), run()) {
		t.Fatal("identical sequences produced different states")
	}
}
