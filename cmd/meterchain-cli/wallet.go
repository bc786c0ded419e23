package main

import (
	"fmt"
	"net/url"

	"meterchain/core/types"
	"meterchain/crypto"
	"meterchain/native/settlement"
)

func runWallet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wallet <new|list>")
	}
	ks := crypto.OpenKeystore(keystoreDir)
	switch args[0] {
	case "new":
		pass, err := readPassphrase("New key passphrase: ")
		if err != nil {
			return err
		}
		addr, err := ks.NewAccount(pass)
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	case "list":
		for _, addr := range ks.Addresses() {
			fmt.Println(addr)
		}
		return nil
	default:
		return fmt.Errorf("unknown wallet command %q", args[0])
	}
}

func runBalance(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: balance <address>")
	}
	acct, err := fetchAccount(args[0])
	if err != nil {
		return err
	}
	return printJSON(acct)
}

func runMeter(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: meter <owner> <service>")
	}
	var m types.Meter
	if err := getJSON("/v1/meters/"+url.PathEscape(args[0])+"/"+url.PathEscape(args[1]), &m); err != nil {
		return err
	}
	return printJSON(m)
}

func runWindow(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: window <owner> <service>")
	}
	var totals settlement.WindowTotals
	if err := getJSON("/v1/meters/"+url.PathEscape(args[0])+"/"+url.PathEscape(args[1])+"/window", &totals); err != nil {
		return err
	}
	return printJSON(totals)
}

func runPolicy(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: policy <owner> <service>")
	}
	var pv types.PolicyVersion
	if err := getJSON("/v1/policies/"+url.PathEscape(args[0])+"/"+url.PathEscape(args[1]), &pv); err != nil {
		return err
	}
	return printJSON(pv)
}
