package replay

import (
	"bytes"
	"testing"

	"meterchain/core/evidence"
	"meterchain/core/state"
	"meterchain/core/types"
	"meterchain/crypto"
	"meterchain/storage"
)

const (
	owner = "0x00000000000000000000000000000000000000aa"
	svc   = "api.translate"
)

func u64(v uint64) *uint64 { return &v }

// seededStore appends a mint, open, two consumes, and a close. Entries are
// unsigned the way a legacy log would carry them.
func seededStore(t *testing.T) (*storage.MemStore, []*types.Tx) {
	t.Helper()
	txs := []*types.Tx{
		{Signer: owner, Type: types.TxTypeMint, Mint: &types.MintPayload{To: owner, Amount: 1_000}},
		{Signer: owner, Nonce: 0, Type: types.TxTypeOpenMeter, OpenMeter: &types.OpenMeterPayload{Owner: owner, ServiceID: svc, Deposit: 100}},
		{Signer: owner, Nonce: 1, Type: types.TxTypeConsume, Consume: &types.ConsumePayload{Owner: owner, ServiceID: svc, Units: 10, Pricing: types.Pricing{UnitPrice: u64(3)}}},
		{Signer: owner, Nonce: 2, Type: types.TxTypeConsume, Consume: &types.ConsumePayload{Owner: owner, ServiceID: svc, Units: 4, Pricing: types.Pricing{UnitPrice: u64(5)}}},
		{Signer: owner, Nonce: 3, Type: types.TxTypeCloseMeter, CloseMeter: &types.CloseMeterPayload{Owner: owner, ServiceID: svc}},
	}
	store := storage.NewMemStore()
	for _, tx := range txs {
		if _, err := store.AppendTx(tx); err != nil {
			t.Fatal(err)
		}
	}
	return store, txs
}

func encode(t *testing.T, st *state.State, next uint64) []byte {
	t.Helper()
	raw, err := state.EncodeSnapshot(st, next)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestToTipFromGenesis(t *testing.T) {
	store, txs := seededStore(t)
	st, next, err := ToTip(store)
	if err != nil {
		t.Fatal(err)
	}
	if next != uint64(len(txs)) {
		t.Fatalf("next tx id = %d", next)
	}
	// 1000 minted, deposit returned by the close, 50 spent.
	if got := st.Account(owner).Balance; got != 950 {
		t.Fatalf("balance at tip = %d", got)
	}
	m, ok := st.Meter(owner, svc)
	if !ok || m.Active || m.TotalSpent != 50 || m.TotalUnits != 14 {
		t.Fatalf("meter at tip = %+v", m)
	}
}

func TestToTipResumesFromSnapshot(t *testing.T) {
	store, txs := seededStore(t)
	mid, err := UpTo(store, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PersistState(mid, 2); err != nil {
		t.Fatal(err)
	}

	st, next, err := ToTip(store)
	if err != nil {
		t.Fatal(err)
	}
	full, err := UpTo(store, uint64(len(txs)))
	if err != nil {
		t.Fatal(err)
	}
	if next != uint64(len(txs)) || !bytes.Equal(encode(t, st, next), encode(t, full, next)) {
		t.Fatal("snapshot resume diverged from a genesis replay")
	}
}

func TestUpToIgnoresSnapshots(t *testing.T) {
	store, _ := seededStore(t)
	poisoned := state.New()
	poisoned.EnsureAccount(owner).Balance = 1
	if err := store.PersistState(poisoned, 1); err != nil {
		t.Fatal(err)
	}

	st, err := UpTo(store, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := st.Account(owner).Balance; got != 1_000 {
		t.Fatalf("historical replay must start at genesis, balance = %d", got)
	}
}

func TestSliceLeavesBaseUntouched(t *testing.T) {
	store, txs := seededStore(t)
	base, err := UpTo(store, 2)
	if err != nil {
		t.Fatal(err)
	}
	before := base.Account(owner).Balance

	st, err := Slice(base, txs[2:4], 2)
	if err != nil {
		t.Fatal(err)
	}
	if base.Account(owner).Balance != before {
		t.Fatal("slice mutated its base state")
	}
	if got := st.Account(owner).Balance; got != before-50 {
		t.Fatalf("balance after slice = %d", got)
	}
}

func TestSliceToSummary(t *testing.T) {
	store, txs := seededStore(t)
	sum, hash, err := SliceToSummary(store, 2, 4, owner, svc, 40, 7, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sum.FromTxID != 2 || sum.ToTxID != 4 || sum.TxCount != 2 {
		t.Fatalf("summary window = %+v", sum)
	}
	if sum.GrossSpent != 50 {
		t.Fatalf("gross spent = %d", sum.GrossSpent)
	}
	if sum.OperatorShare != 40 || sum.ProtocolFee != 7 || sum.ReserveLocked != 3 {
		t.Fatalf("split passthrough = %+v", sum)
	}

	want, err := evidence.TxSliceHash(txs[2:4])
	if err != nil {
		t.Fatal(err)
	}
	if hash != want {
		t.Fatalf("replay hash = %q, want %q", hash, want)
	}

	if _, _, err := SliceToSummary(store, 4, 4, owner, svc, 0, 0, 0); err == nil {
		t.Fatal("empty window must fail")
	}
}

func TestReplayHaltsOnInvalidLogEntry(t *testing.T) {
	store, _ := seededStore(t)
	bad := &types.Tx{
		Signer: owner, Nonce: 99, Type: types.TxTypeCloseMeter,
		CloseMeter: &types.CloseMeterPayload{Owner: owner, ServiceID: svc},
	}
	if _, err := store.AppendTx(bad); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ToTip(store); err == nil {
		t.Fatal("replay must halt on an invalid logged transaction")
	}
}

func TestReplayVerifiesSignedEntries(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	addr := key.Address()
	tx := &types.Tx{Signer: addr, Type: types.TxTypeMint, Mint: &types.MintPayload{To: addr, Amount: 5}}
	if err := key.SignTx(tx); err != nil {
		t.Fatal(err)
	}

	store := storage.NewMemStore()
	if _, err := store.AppendTx(tx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ToTip(store); err != nil {
		t.Fatalf("signed entry rejected: %v", err)
	}

	forged := &types.Tx{Signer: owner, Type: types.TxTypeMint, Mint: &types.MintPayload{To: owner, Amount: 5}}
	forged.Signature = tx.Signature
	if _, err := store.AppendTx(forged); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ToTip(store); err == nil {
		t.Fatal("forged signature must halt replay")
	}
}
