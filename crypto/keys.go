package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"meterchain/core/types"
)

// PrivateKey wraps a secp256k1 key. Addresses are the lowercase 0x-hex form
// of the 20-byte account derived from the public key; equality is plain byte
// equality.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// GenerateKey creates a fresh secp256k1 key.
func GenerateKey() (*PrivateKey, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// FromECDSA wraps an existing key, e.g. one loaded from the keystore.
func FromECDSA(key *ecdsa.PrivateKey) *PrivateKey {
	return &PrivateKey{key: key}
}

// FromHex parses a raw 32-byte hex private key.
func FromHex(s string) (*PrivateKey, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("crypto: parse key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// Address returns the account address for this key.
func (k *PrivateKey) Address() string {
	return AddressOf(&k.key.PublicKey)
}

// ECDSA exposes the underlying key for keystore encryption.
func (k *PrivateKey) ECDSA() *ecdsa.PrivateKey {
	return k.key
}

// AddressOf derives the lowercase 0x-hex address of a public key.
func AddressOf(pub *ecdsa.PublicKey) string {
	addr := ethcrypto.PubkeyToAddress(*pub)
	return "0x" + hex.EncodeToString(addr.Bytes())
}

// SignTx signs the transaction's signing bytes and attaches the signature to
// the envelope.
func (k *PrivateKey) SignTx(tx *types.Tx) error {
	payload, err := tx.SigningBytes()
	if err != nil {
		return fmt.Errorf("crypto: signing bytes: %w", err)
	}
	sig, err := ethcrypto.Sign(ethcrypto.Keccak256(payload), k.key)
	if err != nil {
		return fmt.Errorf("crypto: sign transaction: %w", err)
	}
	tx.Signature = sig
	return nil
}

// SignProof signs a delegation proof's claim bytes as the issuer.
func (k *PrivateKey) SignProof(proof *types.DelegationProof) error {
	claim, err := proof.ClaimBytes()
	if err != nil {
		return fmt.Errorf("crypto: proof claim bytes: %w", err)
	}
	sig, err := ethcrypto.Sign(ethcrypto.Keccak256(claim), k.key)
	if err != nil {
		return fmt.Errorf("crypto: sign proof: %w", err)
	}
	proof.Signature = sig
	return nil
}
