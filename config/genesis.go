package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Genesis provisions the ledger before the first transaction: the accounts
// allowed to mint and, optionally, an initial global policy version.
type Genesis struct {
	AuthorizedMinters []string       `yaml:"authorized_minters"`
	GlobalPolicy      *GenesisPolicy `yaml:"global_policy,omitempty"`
}

// GenesisPolicy describes the initial global split published as version 1 at
// tx position 0.
type GenesisPolicy struct {
	OperatorShareBps  uint32 `yaml:"operator_share_bps"`
	ProtocolFeeBps    uint32 `yaml:"protocol_fee_bps"`
	ReserveBps        uint32 `yaml:"reserve_bps"`
	DisputeWindowSecs uint64 `yaml:"dispute_window_secs"`
}

// LoadGenesis reads the YAML genesis document at path. A missing file yields
// an empty document: no minters, no initial policy.
func LoadGenesis(path string) (Genesis, error) {
	var g Genesis
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return g, fmt.Errorf("config: read genesis %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return g, fmt.Errorf("config: parse genesis %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return g, err
	}
	return g, nil
}

// Validate rejects malformed genesis documents.
func (g Genesis) Validate() error {
	for _, m := range g.AuthorizedMinters {
		if m == "" {
			return fmt.Errorf("config: empty minter address in genesis")
		}
	}
	if p := g.GlobalPolicy; p != nil {
		if p.OperatorShareBps+p.ProtocolFeeBps+p.ReserveBps != 10_000 {
			return fmt.Errorf("config: genesis policy basis points must sum to 10000")
		}
	}
	return nil
}

// WriteGenesis serializes the genesis document to path.
func (g Genesis) WriteGenesis(path string) error {
	raw, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("config: encode genesis: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write genesis %s: %w", path, err)
	}
	return nil
}
