package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"meterchain/core/types"
)

// runDelegate signs a delegation proof off-chain. The proof is handed to the
// audience out of band; nothing is submitted to the node.
func runDelegate(args []string) error {
	fs := flag.NewFlagSet("delegate", flag.ContinueOnError)
	from := fs.String("from", "", "issuer (meter owner) address")
	audience := fs.String("audience", "", "address allowed to consume")
	service := fs.String("service", "", "service the capability is scoped to")
	ability := fs.String("ability", "consume", "granted ability")
	issuedAt := fs.Uint64("issued-at", 0, "validity start, unix seconds")
	expires := fs.Uint64("expires", 0, "validity end, unix seconds (exclusive)")
	maxUnits := fs.Uint64("max-units", 0, "lifetime unit cap, zero for none")
	maxCost := fs.Uint64("max-cost", 0, "lifetime cost cap, zero for none")
	out := fs.String("out", "", "write the proof to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *audience == "" || *service == "" || *expires == 0 {
		return fmt.Errorf("--audience, --service and --expires are required")
	}

	key, err := unlockKey(*from)
	if err != nil {
		return err
	}
	proof := &types.DelegationProof{
		Issuer:    key.Address(),
		Audience:  addrArg(*audience),
		ServiceID: *service,
		Ability:   *ability,
		IssuedAt:  *issuedAt,
		ExpiresAt: *expires,
	}
	if *maxUnits > 0 {
		proof.Caveats.MaxUnits = maxUnits
	}
	if *maxCost > 0 {
		proof.Caveats.MaxCost = maxCost
	}
	if err := key.SignProof(proof); err != nil {
		return err
	}

	capID, err := proof.CapabilityID()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return err
	}
	if *out != "" {
		if err := os.WriteFile(*out, raw, 0o600); err != nil {
			return err
		}
		fmt.Printf("capability %s written to %s\n", capID, *out)
		return nil
	}
	fmt.Println(string(raw))
	fmt.Fprintf(os.Stderr, "capability id: %s\n", capID)
	return nil
}

func runRevoke(args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	from := fs.String("from", "", "meter owner address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: revoke --from A <capability-id>")
	}
	tx := &types.Tx{
		Type:             types.TxTypeRevokeDelegation,
		RevokeDelegation: &types.RevokeDelegationPayload{Owner: addrArg(*from), CapabilityID: rest[0]},
	}
	return signAndSubmit(*from, tx)
}
