package types

// Account is an address-identified ledger entry. Accounts are created lazily
// on first credit and never destroyed. The nonce increases by exactly one on
// each accepted transaction issued against the account.
type Account struct {
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// Meter accumulates usage for one (owner, serviceId) pair. TotalUnits and
// TotalSpent are monotone across the meter's lifetime, including close and
// reopen.
type Meter struct {
	Owner         string `json:"owner"`
	ServiceID     string `json:"serviceId"`
	TotalUnits    uint64 `json:"totalUnits"`
	TotalSpent    uint64 `json:"totalSpent"`
	LockedDeposit uint64 `json:"lockedDeposit"`
	Active        bool   `json:"active"`
}

// MeterKey is the state index for a meter.
func MeterKey(owner, serviceID string) string {
	return owner + ":" + serviceID
}

// CapabilityConsumption tracks lifetime usage charged against one capability,
// enforcing delegation caveats across transactions.
type CapabilityConsumption struct {
	UnitsUsed uint64 `json:"unitsUsed"`
	CostUsed  uint64 `json:"costUsed"`
}
