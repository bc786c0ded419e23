package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"meterchain/core/types"
)

func runMint(args []string) error {
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	from := fs.String("from", "", "minter address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: mint --from A <to> <amount>")
	}
	amount, err := strconv.ParseUint(rest[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad amount: %w", err)
	}
	tx := &types.Tx{
		Type: types.TxTypeMint,
		Mint: &types.MintPayload{To: addrArg(rest[0]), Amount: amount},
	}
	return signAndSubmit(*from, tx)
}

func runOpenMeter(args []string) error {
	fs := flag.NewFlagSet("open-meter", flag.ContinueOnError)
	from := fs.String("from", "", "meter owner address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: open-meter --from A <service> <deposit>")
	}
	deposit, err := strconv.ParseUint(rest[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad deposit: %w", err)
	}
	tx := &types.Tx{
		Type:      types.TxTypeOpenMeter,
		OpenMeter: &types.OpenMeterPayload{Owner: addrArg(*from), ServiceID: rest[0], Deposit: deposit},
	}
	return signAndSubmit(*from, tx)
}

func runConsume(args []string) error {
	fs := flag.NewFlagSet("consume", flag.ContinueOnError)
	from := fs.String("from", "", "signer address")
	unitPrice := fs.Uint64("unit-price", 0, "price per unit")
	fixedCost := fs.Uint64("fixed-cost", 0, "flat cost for the whole consume")
	proofPath := fs.String("proof", "", "delegation proof file for consuming on another owner's meter")
	validAt := fs.Uint64("valid-at", 0, "reference unix time for a delegated consume")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return fmt.Errorf("usage: consume --from A <owner> <service> <units> (--unit-price P | --fixed-cost C)")
	}
	units, err := strconv.ParseUint(rest[2], 10, 64)
	if err != nil {
		return fmt.Errorf("bad units: %w", err)
	}
	var pricing types.Pricing
	switch {
	case *unitPrice > 0 && *fixedCost > 0:
		return fmt.Errorf("--unit-price and --fixed-cost are mutually exclusive")
	case *unitPrice > 0:
		pricing.UnitPrice = unitPrice
	case *fixedCost > 0:
		pricing.FixedCost = fixedCost
	default:
		return fmt.Errorf("one of --unit-price or --fixed-cost is required")
	}

	owner := addrArg(rest[0])
	tx := &types.Tx{
		Type:    types.TxTypeConsume,
		Consume: &types.ConsumePayload{Owner: owner, ServiceID: rest[1], Units: units, Pricing: pricing},
	}
	if *proofPath != "" {
		raw, err := os.ReadFile(*proofPath)
		if err != nil {
			return fmt.Errorf("read proof: %w", err)
		}
		var proof types.DelegationProof
		if err := json.Unmarshal(raw, &proof); err != nil {
			return fmt.Errorf("parse proof: %w", err)
		}
		if *validAt == 0 {
			return fmt.Errorf("--valid-at is required with --proof")
		}
		tx.PayloadVersion = types.PayloadVersionV2
		tx.DelegationProof = &proof
		tx.ValidAt = validAt
		tx.NonceAccount = owner
	}
	return signAndSubmit(*from, tx)
}

func runCloseMeter(args []string) error {
	fs := flag.NewFlagSet("close-meter", flag.ContinueOnError)
	from := fs.String("from", "", "meter owner address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: close-meter --from A <service>")
	}
	tx := &types.Tx{
		Type:       types.TxTypeCloseMeter,
		CloseMeter: &types.CloseMeterPayload{Owner: addrArg(*from), ServiceID: rest[0]},
	}
	return signAndSubmit(*from, tx)
}
