package crypto

import (
	"strings"
	"testing"

	"meterchain/core/errors"
	"meterchain/core/types"
)

func u64(v uint64) *uint64 { return &v }

func TestAddressForm(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	addr := key.Address()
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
		t.Fatalf("address form %q", addr)
	}
	if addr != strings.ToLower(addr) {
		t.Fatalf("address must be lowercase: %q", addr)
	}
}

func TestSignAndVerifyTx(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	tx := &types.Tx{
		Signer: key.Address(), Nonce: 1, Type: types.TxTypeOpenMeter,
		OpenMeter: &types.OpenMeterPayload{Owner: key.Address(), ServiceID: "api", Deposit: 10},
	}
	if err := key.SignTx(tx); err != nil {
		t.Fatal(err)
	}
	if err := VerifyTx(tx); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	tx.OpenMeter.Deposit = 11
	if err := VerifyTx(tx); err == nil {
		t.Fatal("tampered payload must not verify")
	} else if errors.CodeOf(err) != errors.CodeSignatureVerificationFailed {
		t.Fatalf("code = %s", errors.CodeOf(err))
	}

	tx.OpenMeter.Deposit = 10
	other, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	tx.Signer = other.Address()
	if err := VerifyTx(tx); err == nil {
		t.Fatal("signature must bind the signer address")
	}
}

func TestRecoveringVerifier(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	tx := &types.Tx{
		Signer: key.Address(), Type: types.TxTypeMint,
		Mint: &types.MintPayload{To: key.Address(), Amount: 1},
	}
	v := RecoveringVerifier{}
	if err := v.Verify(tx); errors.CodeOf(err) != errors.CodeSignatureVerificationFailed {
		t.Fatalf("unsigned envelope: %v", err)
	}
	if err := key.SignTx(tx); err != nil {
		t.Fatal(err)
	}
	if err := v.Verify(tx); err != nil {
		t.Fatalf("signed envelope rejected: %v", err)
	}
	if err := (NopVerifier{}).Verify(&types.Tx{}); err != nil {
		t.Fatalf("nop verifier: %v", err)
	}
}

func TestSignAndVerifyProof(t *testing.T) {
	issuer, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	audience, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	proof := &types.DelegationProof{
		Issuer:    issuer.Address(),
		Audience:  audience.Address(),
		ServiceID: "api",
		Ability:   "consume",
		IssuedAt:  100,
		ExpiresAt: 200,
		Caveats:   types.Caveats{MaxUnits: u64(50)},
	}
	if err := VerifyProof(proof); err == nil {
		t.Fatal("unsigned proof must not verify")
	}
	if err := issuer.SignProof(proof); err != nil {
		t.Fatal(err)
	}
	if err := VerifyProof(proof); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}

	// The capability id must survive signing unchanged.
	unsigned := *proof
	unsigned.Signature = nil
	idBefore, err := unsigned.CapabilityID()
	if err != nil {
		t.Fatal(err)
	}
	idAfter, err := proof.CapabilityID()
	if err != nil {
		t.Fatal(err)
	}
	if idBefore != idAfter {
		t.Fatal("capability id changed under signature")
	}

	proof.ExpiresAt = 300
	if err := VerifyProof(proof); err == nil {
		t.Fatal("tampered claims must not verify")
	}
}

func TestVerifierChecksEmbeddedProof(t *testing.T) {
	ownerKey, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	operatorKey, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	proof := &types.DelegationProof{
		Issuer:    ownerKey.Address(),
		Audience:  operatorKey.Address(),
		ServiceID: "api",
		Ability:   "consume",
		IssuedAt:  100,
		ExpiresAt: 200,
	}
	tx := &types.Tx{
		Signer: operatorKey.Address(), PayloadVersion: types.PayloadVersionV2, Type: types.TxTypeConsume,
		Consume: &types.ConsumePayload{
			Owner: ownerKey.Address(), ServiceID: "api", Units: 1, Pricing: types.Pricing{UnitPrice: u64(1)},
		},
		NonceAccount:    ownerKey.Address(),
		ValidAt:         u64(150),
		DelegationProof: proof,
	}
	if err := operatorKey.SignTx(tx); err != nil {
		t.Fatal(err)
	}

	v := RecoveringVerifier{}
	if err := v.Verify(tx); errors.CodeOf(err) != errors.CodeSignatureVerificationFailed {
		t.Fatalf("unsigned embedded proof: %v", err)
	}
	if err := ownerKey.SignProof(proof); err != nil {
		t.Fatal(err)
	}
	if err := operatorKey.SignTx(tx); err != nil {
		t.Fatal(err)
	}
	if err := v.Verify(tx); err != nil {
		t.Fatalf("delegated envelope rejected: %v", err)
	}
}

func TestFromHexRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	raw := key.ECDSA().D.Text(16)
	for len(raw) < 64 {
		raw = "0" + raw
	}
	parsed, err := FromHex("0x" + raw)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Address() != key.Address() {
		t.Fatal("hex round trip changed the address")
	}
}

func TestKeystoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	ks := OpenKeystore(dir)
	if got := ks.Addresses(); len(got) != 0 {
		t.Fatalf("fresh keystore lists %v", got)
	}

	addr, err := ks.NewAccount("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if addr != strings.ToLower(addr) || !strings.HasPrefix(addr, "0x") {
		t.Fatalf("stored address form %q", addr)
	}

	reopened := OpenKeystore(dir)
	found := false
	for _, a := range reopened.Addresses() {
		if a == addr {
			found = true
		}
	}
	if !found {
		t.Fatalf("account %s lost after reopen", addr)
	}

	key, err := reopened.Key(addr, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if key.Address() != addr {
		t.Fatalf("decrypted key address = %s", key.Address())
	}
	if _, err := reopened.Key(addr, "wrong"); err == nil {
		t.Fatal("wrong passphrase must not decrypt")
	}
}
