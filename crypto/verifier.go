package crypto

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"meterchain/core/errors"
	"meterchain/core/types"
)

// Verifier authenticates transaction envelopes before they reach the engine.
// The engine itself never inspects signatures.
type Verifier interface {
	Verify(tx *types.Tx) error
}

// RecoveringVerifier requires a signature on every envelope and recovers the
// signer from it. This is the live submission verifier.
type RecoveringVerifier struct{}

// Verify implements Verifier.
func (RecoveringVerifier) Verify(tx *types.Tx) error {
	if len(tx.Signature) == 0 {
		return errors.New(errors.CodeSignatureVerificationFailed, "signature missing")
	}
	if err := VerifyTx(tx); err != nil {
		return err
	}
	if tx.DelegationProof != nil {
		return VerifyProof(tx.DelegationProof)
	}
	return nil
}

// NopVerifier accepts everything. Replay does not go through a Verifier: it
// passes unsigned legacy log entries and checks signed ones with VerifyTx.
type NopVerifier struct{}

// Verify implements Verifier.
func (NopVerifier) Verify(*types.Tx) error { return nil }

// VerifyTx recovers the signer address from the envelope signature and
// compares it to tx.Signer.
func VerifyTx(tx *types.Tx) error {
	payload, err := tx.SigningBytes()
	if err != nil {
		return errors.Wrap(errors.CodeSignatureVerificationFailed, "signing bytes", err)
	}
	pub, err := ethcrypto.SigToPub(ethcrypto.Keccak256(payload), tx.Signature)
	if err != nil {
		return errors.Wrap(errors.CodeSignatureVerificationFailed, "recover signer", err)
	}
	if AddressOf(pub) != tx.Signer {
		return errors.New(errors.CodeSignatureVerificationFailed, "signature does not match signer")
	}
	return nil
}

// VerifyProof recovers the issuer address from the proof signature and
// compares it to proof.Issuer.
func VerifyProof(proof *types.DelegationProof) error {
	if len(proof.Signature) == 0 {
		return errors.New(errors.CodeSignatureVerificationFailed, "proof signature missing")
	}
	claim, err := proof.ClaimBytes()
	if err != nil {
		return errors.Wrap(errors.CodeSignatureVerificationFailed, "proof claim bytes", err)
	}
	pub, err := ethcrypto.SigToPub(ethcrypto.Keccak256(claim), proof.Signature)
	if err != nil {
		return errors.Wrap(errors.CodeSignatureVerificationFailed, "recover issuer", err)
	}
	if AddressOf(pub) != proof.Issuer {
		return errors.New(errors.CodeSignatureVerificationFailed, "proof signature does not match issuer")
	}
	return nil
}
