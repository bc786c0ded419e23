package engine

// ApplyHints carries quantities the validator already computed so the applier
// does not repeat them.
type ApplyHints struct {
	// Cost is the consume charge, zero for other kinds.
	Cost uint64
	// CapabilityID is set for delegated consumes.
	CapabilityID string
	// NonceAccount is the account whose nonce the transaction consumes.
	NonceAccount string
	// ConsumesNonce is false for Mint only.
	ConsumesNonce bool
}
