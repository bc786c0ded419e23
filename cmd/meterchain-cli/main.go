package main

import (
	"fmt"
	"os"
	"strings"
)

var nodeEndpoint = defaultNodeEndpoint()
var keystoreDir = defaultKeystoreDir()

func defaultNodeEndpoint() string {
	if v := os.Getenv("METERCHAIN_NODE"); v != "" {
		return v
	}
	return "http://127.0.0.1:8553"
}

func defaultKeystoreDir() string {
	if v := os.Getenv("METERCHAIN_KEYSTORE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./keystore"
	}
	return home + "/.meterchain/keystore"
}

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	rest := args[1:]
	switch command {
	case "wallet":
		err = runWallet(rest)
	case "balance":
		err = runBalance(rest)
	case "meter":
		err = runMeter(rest)
	case "window":
		err = runWindow(rest)
	case "policy":
		err = runPolicy(rest)
	case "mint":
		err = runMint(rest)
	case "open-meter":
		err = runOpenMeter(rest)
	case "consume":
		err = runConsume(rest)
	case "close-meter":
		err = runCloseMeter(rest)
	case "delegate":
		err = runDelegate(rest)
	case "revoke":
		err = runRevoke(rest)
	case "settle":
		err = runSettle(rest)
	case "claim":
		err = runClaim(rest)
	case "dispute":
		err = runDispute(rest)
	case "publish-policy":
		err = runPublishPolicy(rest)
	case "supersede-policy":
		err = runSupersedePolicy(rest)
	case "submit":
		err = runSubmit(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyGlobalFlags strips --node and --keystore before subcommand dispatch.
func applyGlobalFlags(args []string) ([]string, error) {
	out := args[:0:0]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--node":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--node requires a value")
			}
			i++
			nodeEndpoint = args[i]
		case strings.HasPrefix(args[i], "--node="):
			nodeEndpoint = strings.TrimPrefix(args[i], "--node=")
		case args[i] == "--keystore":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--keystore requires a value")
			}
			i++
			keystoreDir = args[i]
		case strings.HasPrefix(args[i], "--keystore="):
			keystoreDir = strings.TrimPrefix(args[i], "--keystore=")
		default:
			out = append(out, args[i])
		}
	}
	return out, nil
}

func printUsage() {
	fmt.Println(`Usage: meterchain-cli [--node URL] [--keystore DIR] <command> [args]

Wallet:
  wallet new                                   create a key in the keystore
  wallet list                                  list keystore addresses

Queries:
  balance <address>                            account balance and nonce
  meter <owner> <service>                      meter totals
  window <owner> <service>                     consumption applied since the node started
  policy <owner> <service>                     policy version in force
  settle show <owner> <service> <window-id>    settlement record

Transactions (all sign with --from and prompt for the passphrase):
  mint --from A <to> <amount>
  open-meter --from A <service> <deposit>
  consume --from A <owner> <service> <units> (--unit-price P | --fixed-cost C)
          [--proof FILE --valid-at T]
  close-meter --from A <service>
  delegate --from A --audience B --service S --expires T
           [--issued-at T] [--max-units N] [--max-cost N] [--out FILE]
  revoke --from A <capability-id>
  settle propose --from A <owner> <service> <from-tx> <to-tx>
  settle finalize --from A <owner> <service> <window-id>
  claim submit --from OP <owner> <service> <window-id> <amount>
  claim pay --from OP <owner> <service> <window-id>
  dispute open --from A <owner> <service> <window-id> [reason]
  dispute resolve --from A <owner> <service> <window-id> <upheld|dismissed>
  publish-policy --from M --scope SCOPE --version V --effective-from TX
                 --operator-bps N --protocol-bps N --reserve-bps N [--dispute-window SECS]
  supersede-policy --from M --scope SCOPE --version V
  submit <file.json>                           sign and submit a prepared envelope`)
}
