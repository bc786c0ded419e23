package replay

import (
	"meterchain/core/engine"
	"meterchain/core/errors"
	"meterchain/core/evidence"
	"meterchain/core/state"
	"meterchain/core/types"
	"meterchain/crypto"
	"meterchain/storage"
)

// applyLogged re-applies one logged transaction. Signed entries are checked
// for log integrity; unsigned legacy entries pass through. Replay context
// disables wall-clock rules and minter enforcement.
func applyLogged(st *state.State, tx *types.Tx, txID uint64) (*state.State, error) {
	if len(tx.Signature) > 0 {
		if err := crypto.VerifyTx(tx); err != nil {
			return nil, err
		}
	}
	ctx := engine.ReplayContext(txID)
	hints, err := engine.Validate(st, tx, ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeOf(err), "replay halted by logged transaction", err)
	}
	return engine.Apply(st, tx, ctx, hints), nil
}

// ToTip loads the latest snapshot (or genesis) and re-applies the log to its
// end, returning the current state and the next transaction id.
func ToTip(backend storage.Backend) (*state.State, uint64, error) {
	st, next, ok, err := backend.LoadState()
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		st, next = state.New(), 0
	}
	txs, err := backend.LoadTxsFrom(next)
	if err != nil {
		return nil, 0, err
	}
	for _, tx := range txs {
		st, err = applyLogged(st, tx, next)
		if err != nil {
			return nil, 0, err
		}
		next++
	}
	return st, next, nil
}

// UpTo replays the log from genesis through transaction upToTxID exclusive.
// Snapshots are ignored so the result is well defined for any historical
// position.
func UpTo(backend storage.Backend, upToTxID uint64) (*state.State, error) {
	txs, err := backend.LoadTxsFrom(0)
	if err != nil {
		return nil, err
	}
	if uint64(len(txs)) > upToTxID {
		txs = txs[:upToTxID]
	}
	st := state.New()
	for i, tx := range txs {
		st, err = applyLogged(st, tx, uint64(i))
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Slice applies txs on top of base, numbering them from startTxID. The base
// state is not modified.
func Slice(base *state.State, txs []*types.Tx, startTxID uint64) (*state.State, error) {
	st := base
	for i, tx := range txs {
		next, err := applyLogged(st, tx, startTxID+uint64(i))
		if err != nil {
			return nil, err
		}
		st = next
	}
	return st, nil
}

// SliceToSummary replays the window [fromTxID, toTxID) and derives the
// evidence for it. GrossSpent comes from the meter's total spend delta across
// the window; the split values are taken from the caller (the settlement's
// recorded split) so the summary can be compared against the settlement at
// resolve time. The returned hash commits to the window's transaction bytes.
func SliceToSummary(backend storage.Backend, fromTxID, toTxID uint64, owner, serviceID string, operatorShare, protocolFee, reserveLocked uint64) (types.ReplaySummary, string, error) {
	if fromTxID >= toTxID {
		return types.ReplaySummary{}, "", errors.New(errors.CodeInvalidEvidenceBundle, "replay window is empty")
	}
	stateFrom, err := UpTo(backend, fromTxID)
	if err != nil {
		return types.ReplaySummary{}, "", err
	}
	txs, err := backend.LoadTxsFrom(fromTxID)
	if err != nil {
		return types.ReplaySummary{}, "", err
	}
	span := toTxID - fromTxID
	if uint64(len(txs)) > span {
		txs = txs[:span]
	}
	stateTo, err := Slice(stateFrom, txs, fromTxID)
	if err != nil {
		return types.ReplaySummary{}, "", err
	}

	var spentFrom, spentTo uint64
	if m, ok := stateFrom.Meter(owner, serviceID); ok {
		spentFrom = m.TotalSpent
	}
	if m, ok := stateTo.Meter(owner, serviceID); ok {
		spentTo = m.TotalSpent
	}
	gross := uint64(0)
	if spentTo > spentFrom {
		gross = spentTo - spentFrom
	}

	hash, err := evidence.TxSliceHash(txs)
	if err != nil {
		return types.ReplaySummary{}, "", err
	}
	summary := types.ReplaySummary{
		FromTxID:      fromTxID,
		ToTxID:        toTxID,
		TxCount:       uint64(len(txs)),
		GrossSpent:    gross,
		OperatorShare: operatorShare,
		ProtocolFee:   protocolFee,
		ReserveLocked: reserveLocked,
	}
	return summary, hash, nil
}
