package evidence

import (
	"encoding/hex"

	"lukechampine.com/blake3"

	"meterchain/core/errors"
	"meterchain/core/types"
)

// TxSliceHash commits to the canonical bytes of a transaction window. The
// same function produces the evidence hash pinned at propose time and the
// replay hash recomputed at resolve time; equality of the two is the replay
// binding.
func TxSliceHash(txs []*types.Tx) (string, error) {
	h := blake3.New(32, nil)
	for _, tx := range txs {
		raw, err := tx.CanonicalBytes()
		if err != nil {
			return "", errors.Wrap(errors.CodeInternal, "encode transaction", err)
		}
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewBundle packages replay evidence for a settlement. The bundle carries the
// settlement's pinned window and evidence hash together with the freshly
// recomputed summary and replay hash.
func NewBundle(s *types.Settlement, summary types.ReplaySummary, replayHash string) *types.EvidenceBundle {
	return &types.EvidenceBundle{
		SettlementKey:         s.Key(),
		FromTxID:              s.FromTxID,
		ToTxID:                s.ToTxID,
		EvidenceHash:          s.EvidenceHash,
		ReplayHash:            replayHash,
		ReplaySummary:         summary,
		SchemaVersion:         types.EvidenceSchemaVersion,
		ReplayProtocolVersion: types.ReplayProtocolVersion,
	}
}
