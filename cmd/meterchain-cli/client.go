package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"meterchain/core/types"
	"meterchain/crypto"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

func getJSON(path string, out any) error {
	resp, err := httpClient.Get(nodeEndpoint + path)
	if err != nil {
		return fmt.Errorf("node request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(nodeEndpoint+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("node request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var remote struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &remote) == nil && remote.Code != "" {
			return fmt.Errorf("%s: %s", remote.Code, remote.Message)
		}
		return fmt.Errorf("node returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func fetchAccount(addr string) (types.Account, error) {
	var acct types.Account
	err := getJSON("/v1/accounts/"+url.PathEscape(addr), &acct)
	return acct, err
}

// signAndSubmit fills the envelope nonce from the node, signs it with the
// keystore key for from and posts it.
func signAndSubmit(from string, tx *types.Tx) error {
	key, err := unlockKey(from)
	if err != nil {
		return err
	}
	tx.Signer = key.Address()
	if tx.Type != types.TxTypeMint {
		acct, err := fetchAccount(tx.NonceAccountOrSigner())
		if err != nil {
			return err
		}
		tx.Nonce = acct.Nonce
	}
	if err := key.SignTx(tx); err != nil {
		return err
	}
	var resp struct {
		TxID uint64 `json:"txId"`
	}
	if err := postJSON("/v1/tx", tx, &resp); err != nil {
		return err
	}
	fmt.Printf("accepted: tx %d\n", resp.TxID)
	return nil
}

func unlockKey(addr string) (*crypto.PrivateKey, error) {
	if addr == "" {
		return nil, fmt.Errorf("--from is required")
	}
	pass, err := readPassphrase(fmt.Sprintf("Passphrase for %s: ", addr))
	if err != nil {
		return nil, err
	}
	ks := crypto.OpenKeystore(keystoreDir)
	key, err := ks.Key(addr, pass)
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", addr, err)
	}
	return key, nil
}

func readPassphrase(prompt string) (string, error) {
	if v := os.Getenv("METERCHAIN_PASSPHRASE"); v != "" {
		return v, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// addrArg normalizes a user-typed address to the keystore's lowercase form so
// payload fields compare equal to recovered signer addresses.
func addrArg(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
