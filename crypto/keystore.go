package crypto

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// Keystore wraps an encrypted on-disk key directory in the standard v3
// format, used by the CLI wallet commands.
type Keystore struct {
	ks *keystore.KeyStore
}

// OpenKeystore opens or creates the key directory.
func OpenKeystore(dir string) *Keystore {
	return &Keystore{ks: keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)}
}

// NewAccount generates and stores a key, returning its address.
func (k *Keystore) NewAccount(passphrase string) (string, error) {
	acct, err := k.ks.NewAccount(passphrase)
	if err != nil {
		return "", fmt.Errorf("crypto: create account: %w", err)
	}
	return normalizeAddress(acct.Address), nil
}

// Addresses lists every stored account address.
func (k *Keystore) Addresses() []string {
	accts := k.ks.Accounts()
	out := make([]string, 0, len(accts))
	for _, a := range accts {
		out = append(out, normalizeAddress(a.Address))
	}
	return out
}

// Key decrypts and returns the private key for addr.
func (k *Keystore) Key(addr, passphrase string) (*PrivateKey, error) {
	acct, err := k.ks.Find(accounts.Account{Address: common.HexToAddress(addr)})
	if err != nil {
		return nil, fmt.Errorf("crypto: account %s not found: %w", addr, err)
	}
	raw, err := k.ks.Export(acct, passphrase, passphrase)
	if err != nil {
		return nil, fmt.Errorf("crypto: export key: %w", err)
	}
	key, err := keystore.DecryptKey(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt key: %w", err)
	}
	return FromECDSA(key.PrivateKey), nil
}

func normalizeAddress(addr common.Address) string {
	return "0x" + strings.ToLower(addr.Hex()[2:])
}
