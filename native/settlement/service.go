package settlement

import (
	"github.com/google/uuid"

	"meterchain/core/errors"
	"meterchain/core/evidence"
	"meterchain/core/replay"
	"meterchain/core/types"
	"meterchain/storage"
)

// Service builds settlement workflow payloads from the transaction log. It is
// a client-side helper: every state change still travels through ordinary
// transactions, so the service holds no authority of its own.
type Service struct {
	backend storage.Backend
}

// NewService wraps a storage backend.
func NewService(backend storage.Backend) *Service {
	return &Service{backend: backend}
}

// BuildWindow derives a ready-to-sign ProposeSettlement payload for the
// window [fromTxID, toTxID). GrossSpent is the meter's spend delta across the
// window, the split follows the policy in force at the current tip, and the
// evidence hash commits to the window's transaction bytes. The window id is
// generated here; the engine never invents identifiers.
func (s *Service) BuildWindow(owner, serviceID string, fromTxID, toTxID uint64) (*types.ProposeSettlementPayload, error) {
	if fromTxID >= toTxID {
		return nil, errors.New(errors.CodeInvalidTransaction, "settlement window is empty")
	}
	stateFrom, err := replay.UpTo(s.backend, fromTxID)
	if err != nil {
		return nil, err
	}
	txs, err := s.backend.LoadTxsFrom(fromTxID)
	if err != nil {
		return nil, err
	}
	tipTxID := fromTxID + uint64(len(txs))
	span := toTxID - fromTxID
	if uint64(len(txs)) < span {
		return nil, errors.Newf(errors.CodeInvalidTransaction, "log ends at %d, window runs to %d", tipTxID, toTxID)
	}
	window := txs[:span]
	stateTo, err := replay.Slice(stateFrom, window, fromTxID)
	if err != nil {
		return nil, err
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

	evidenceHash, err := evidence.TxSliceHash(window)
	if err != nil {
		return nil, err
	}

	tip, err := replay.Slice(stateTo, txs[span:], toTxID)
	if err != nil {
		return nil, err
	}
	operatorShare, protocolFee, reserveLocked := gross, uint64(0), uint64(0)
	if pv, ok := tip.ResolvePolicy(owner, serviceID, tipTxID); ok {
		operatorShare, protocolFee, reserveLocked, ok = pv.Split(gross)
		if !ok {
			return nil, errors.New(errors.CodeInvalidTransaction, "policy split overflows")
		}
	}

	return &types.ProposeSettlementPayload{
		Owner:         owner,
		ServiceID:     serviceID,
		WindowID:      uuid.NewString(),
		FromTxID:      fromTxID,
		ToTxID:        toTxID,
		GrossSpent:    gross,
		OperatorShare: operatorShare,
		ProtocolFee:   protocolFee,
		ReserveLocked: reserveLocked,
		EvidenceHash:  evidenceHash,
	}, nil
}

// Resolution recomputes the replay evidence over a settlement's pinned
// window for submission with ResolveDispute.
func (s *Service) Resolution(settlement *types.Settlement) (types.ReplaySummary, string, error) {
	return replay.SliceToSummary(s.backend, settlement.FromTxID, settlement.ToTxID,
		settlement.Owner, settlement.ServiceID,
		settlement.OperatorShare, settlement.ProtocolFee, settlement.ReserveLocked)
}

// ResolutionPayload assembles the complete ResolveDispute payload, bundle
// included.
func (s *Service) ResolutionPayload(settlement *types.Settlement, verdict types.DisputeVerdict) (*types.ResolveDisputePayload, error) {
	summary, replayHash, err := s.Resolution(settlement)
	if err != nil {
		return nil, err
	}
	return &types.ResolveDisputePayload{
		Owner:          settlement.Owner,
		ServiceID:      settlement.ServiceID,
		WindowID:       settlement.WindowID,
		Verdict:        verdict,
		ReplaySummary:  summary,
		ReplayHash:     replayHash,
		EvidenceBundle: evidence.NewBundle(settlement, summary, replayHash),
	}, nil
}
