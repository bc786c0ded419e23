package main

import (
	"flag"
	"fmt"
	"net/url"
	"strconv"

	"meterchain/core/types"
)

func runSettle(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: settle <propose|finalize|show>")
	}
	switch args[0] {
	case "propose":
		return runSettlePropose(args[1:])
	case "finalize":
		return runSettleFinalize(args[1:])
	case "show":
		return runSettleShow(args[1:])
	default:
		return fmt.Errorf("unknown settle command %q", args[0])
	}
}

// runSettlePropose asks the node for a window draft, then signs and submits
// it. The draft pins the gross spend, the split under the policy in force and
// the evidence hash over the window's log bytes.
func runSettlePropose(args []string) error {
	fs := flag.NewFlagSet("settle propose", flag.ContinueOnError)
	from := fs.String("from", "", "meter owner address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 4 {
		return fmt.Errorf("usage: settle propose --from A <owner> <service> <from-tx> <to-tx>")
	}
	fromTx, err := strconv.ParseUint(rest[2], 10, 64)
	if err != nil {
		return fmt.Errorf("bad from-tx: %w", err)
	}
	toTx, err := strconv.ParseUint(rest[3], 10, 64)
	if err != nil {
		return fmt.Errorf("bad to-tx: %w", err)
	}

	var payload types.ProposeSettlementPayload
	req := map[string]any{"owner": addrArg(rest[0]), "serviceId": rest[1], "fromTxId": fromTx, "toTxId": toTx}
	if err := postJSON("/v1/settlements/draft", req, &payload); err != nil {
		return err
	}
	fmt.Printf("window %s: gross=%d operator=%d protocol=%d reserve=%d\n",
		payload.WindowID, payload.GrossSpent, payload.OperatorShare, payload.ProtocolFee, payload.ReserveLocked)

	tx := &types.Tx{
		Type:              types.TxTypeProposeSettlement,
		ProposeSettlement: &payload,
	}
	return signAndSubmit(*from, tx)
}

func runSettleFinalize(args []string) error {
	fs := flag.NewFlagSet("settle finalize", flag.ContinueOnError)
	from := fs.String("from", "", "meter owner address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return fmt.Errorf("usage: settle finalize --from A <owner> <service> <window-id>")
	}
	tx := &types.Tx{
		Type:               types.TxTypeFinalizeSettlement,
		FinalizeSettlement: &types.FinalizeSettlementPayload{Owner: addrArg(rest[0]), ServiceID: rest[1], WindowID: rest[2]},
	}
	return signAndSubmit(*from, tx)
}

func runSettleShow(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: settle show <owner> <service> <window-id>")
	}
	var s types.Settlement
	path := "/v1/settlements/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1]) + "/" + url.PathEscape(args[2])
	if err := getJSON(path, &s); err != nil {
		return err
	}
	return printJSON(s)
}

func runClaim(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: claim <submit|pay>")
	}
	switch args[0] {
	case "submit":
		return runClaimSubmit(args[1:])
	case "pay":
		return runClaimPay(args[1:])
	default:
		return fmt.Errorf("unknown claim command %q", args[0])
	}
}

func runClaimSubmit(args []string) error {
	fs := flag.NewFlagSet("claim submit", flag.ContinueOnError)
	from := fs.String("from", "", "operator address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 4 {
		return fmt.Errorf("usage: claim submit --from OP <owner> <service> <window-id> <amount>")
	}
	amount, err := strconv.ParseUint(rest[3], 10, 64)
	if err != nil {
		return fmt.Errorf("bad amount: %w", err)
	}
	tx := &types.Tx{
		Type: types.TxTypeSubmitClaim,
		SubmitClaim: &types.SubmitClaimPayload{
			Operator: addrArg(*from), Owner: addrArg(rest[0]), ServiceID: rest[1], WindowID: rest[2], Amount: amount,
		},
	}
	return signAndSubmit(*from, tx)
}

func runClaimPay(args []string) error {
	fs := flag.NewFlagSet("claim pay", flag.ContinueOnError)
	from := fs.String("from", "", "operator address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return fmt.Errorf("usage: claim pay --from OP <owner> <service> <window-id>")
	}
	tx := &types.Tx{
		Type: types.TxTypePayClaim,
		PayClaim: &types.PayClaimPayload{
			Operator: addrArg(*from), Owner: addrArg(rest[0]), ServiceID: rest[1], WindowID: rest[2],
		},
	}
	return signAndSubmit(*from, tx)
}

func runDispute(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: dispute <open|resolve>")
	}
	switch args[0] {
	case "open":
		return runDisputeOpen(args[1:])
	case "resolve":
		return runDisputeResolve(args[1:])
	default:
		return fmt.Errorf("unknown dispute command %q", args[0])
	}
}

func runDisputeOpen(args []string) error {
	fs := flag.NewFlagSet("dispute open", flag.ContinueOnError)
	from := fs.String("from", "", "disputant address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 3 || len(rest) > 4 {
		return fmt.Errorf("usage: dispute open --from A <owner> <service> <window-id> [reason]")
	}
	payload := &types.OpenDisputePayload{Owner: addrArg(rest[0]), ServiceID: rest[1], WindowID: rest[2]}
	if len(rest) == 4 {
		payload.ReasonCode = rest[3]
	}
	tx := &types.Tx{Type: types.TxTypeOpenDispute, OpenDispute: payload}
	return signAndSubmit(*from, tx)
}

// runDisputeResolve asks the node to replay the disputed window, prints the
// recomputed summary and submits the resolution with its evidence bundle.
func runDisputeResolve(args []string) error {
	fs := flag.NewFlagSet("dispute resolve", flag.ContinueOnError)
	from := fs.String("from", "", "resolver address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 4 {
		return fmt.Errorf("usage: dispute resolve --from A <owner> <service> <window-id> <upheld|dismissed>")
	}
	verdict := types.DisputeVerdict(rest[3])
	if verdict != types.VerdictUpheld && verdict != types.VerdictDismissed {
		return fmt.Errorf("verdict must be upheld or dismissed")
	}

	var payload types.ResolveDisputePayload
	req := map[string]any{"owner": addrArg(rest[0]), "serviceId": rest[1], "windowId": rest[2], "verdict": string(verdict)}
	if err := postJSON("/v1/disputes/resolution", req, &payload); err != nil {
		return err
	}
	fmt.Printf("replay %s: gross=%d txs=%d\n",
		payload.ReplayHash, payload.ReplaySummary.GrossSpent, payload.ReplaySummary.TxCount)

	tx := &types.Tx{Type: types.TxTypeResolveDispute, ResolveDispute: &payload}
	return signAndSubmit(*from, tx)
}
