package types

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// HashHex returns the lowercase hex blake3-256 digest of b. Capability ids use
// it; evidence and replay hashes use the same digest, computed incrementally
// over a transaction window by evidence.TxSliceHash.
func HashHex(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
