package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"meterchain/core/types"
)

// parseScope reads "global", "owner:<addr>" or "owner_service:<addr>:<svc>".
func parseScope(s string) (types.PolicyScope, error) {
	parts := strings.SplitN(s, ":", 3)
	switch parts[0] {
	case "global":
		return types.GlobalScope(), nil
	case "owner":
		if len(parts) != 2 || parts[1] == "" {
			return types.PolicyScope{}, fmt.Errorf("owner scope needs an address: owner:<addr>")
		}
		return types.OwnerScope(parts[1]), nil
	case "owner_service":
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return types.PolicyScope{}, fmt.Errorf("owner_service scope needs address and service: owner_service:<addr>:<svc>")
		}
		return types.OwnerServiceScope(parts[1], parts[2]), nil
	default:
		return types.PolicyScope{}, fmt.Errorf("unknown scope kind %q", parts[0])
	}
}

func runPublishPolicy(args []string) error {
	fs := flag.NewFlagSet("publish-policy", flag.ContinueOnError)
	from := fs.String("from", "", "authorized minter address")
	scopeStr := fs.String("scope", "", "global | owner:<addr> | owner_service:<addr>:<svc>")
	version := fs.Uint64("version", 0, "policy version, starts at 1 per scope")
	effective := fs.Uint64("effective-from", 0, "first transaction id the policy governs")
	operatorBps := fs.Uint("operator-bps", 0, "operator share in basis points")
	protocolBps := fs.Uint("protocol-bps", 0, "protocol fee in basis points")
	reserveBps := fs.Uint("reserve-bps", 0, "reserve lock in basis points")
	disputeWindow := fs.Uint64("dispute-window", 0, "dispute window in seconds, zero for none")
	if err := fs.Parse(args); err != nil {
		return err
	}
	scope, err := parseScope(*scopeStr)
	if err != nil {
		return err
	}
	tx := &types.Tx{
		Type: types.TxTypePublishPolicyVersion,
		PublishPolicy: &types.PublishPolicyVersionPayload{
			Scope:             scope,
			Version:           *version,
			EffectiveFromTxID: *effective,
			OperatorShareBps:  uint32(*operatorBps),
			ProtocolFeeBps:    uint32(*protocolBps),
			ReserveBps:        uint32(*reserveBps),
			DisputeWindowSecs: *disputeWindow,
		},
	}
	return signAndSubmit(*from, tx)
}

func runSupersedePolicy(args []string) error {
	fs := flag.NewFlagSet("supersede-policy", flag.ContinueOnError)
	from := fs.String("from", "", "authorized minter address")
	scopeStr := fs.String("scope", "", "global | owner:<addr> | owner_service:<addr>:<svc>")
	version := fs.Uint64("version", 0, "version to supersede")
	if err := fs.Parse(args); err != nil {
		return err
	}
	scope, err := parseScope(*scopeStr)
	if err != nil {
		return err
	}
	tx := &types.Tx{
		Type: types.TxTypeSupersedePolicyVersion,
		SupersedePolicy: &types.SupersedePolicyVersionPayload{
			Scope:   scope,
			Version: *version,
		},
	}
	return signAndSubmit(*from, tx)
}

// runSubmit signs and submits a prepared envelope from a file or stdin.
func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	from := fs.String("from", "", "signer address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: submit --from A <file.json|->")
	}
	var raw []byte
	var err error
	if rest[0] == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(rest[0])
	}
	if err != nil {
		return err
	}
	tx, err := types.DecodeTx(raw)
	if err != nil {
		return err
	}
	return signAndSubmit(*from, tx)
}
