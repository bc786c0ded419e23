package main

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"meterchain/config"
	"meterchain/core/engine"
	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
	"meterchain/crypto"
	"meterchain/native/settlement"
	"meterchain/observability/metrics"
	"meterchain/storage"
)

// Node holds the live ledger. All submissions funnel through a single mutex so
// appended ids stay dense and the in-memory state always matches the log tip.
type Node struct {
	mu       sync.Mutex
	st       *state.State
	nextTxID uint64

	cfg      config.Node
	backend  storage.Backend
	sm       *engine.StateMachine
	verifier crypto.Verifier
	metrics  *metrics.Engine
	archive  *storage.EvidenceArchive
	windows  *settlement.WindowHook
	svc      *settlement.Service
	limiter  *rate.Limiter
	logger   *slog.Logger

	appendsSinceSnapshot uint64
}

func NewNode(cfg config.Node, backend storage.Backend, st *state.State, nextTxID uint64, m *metrics.Engine, archive *storage.EvidenceArchive, logger *slog.Logger) *Node {
	var limiter *rate.Limiter
	if cfg.Submission.RatePerSecond > 0 {
		burst := cfg.Submission.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Submission.RatePerSecond), burst)
	}
	windows := settlement.NewWindowHook()
	sm := engine.NewStateMachine()
	sm.SetHook(windows)
	return &Node{
		st:       st,
		nextTxID: nextTxID,
		cfg:      cfg,
		backend:  backend,
		sm:       sm,
		verifier: crypto.RecoveringVerifier{},
		metrics:  m,
		archive:  archive,
		windows:  windows,
		svc:      settlement.NewService(backend),
		limiter:  limiter,
		logger:   logger,
	}
}

// Submit verifies, applies and durably appends one transaction. The returned
// id is the position the transaction occupies in the log.
func (n *Node) Submit(tx *types.Tx) (uint64, error) {
	if err := n.verifier.Verify(tx); err != nil {
		n.metrics.Rejected.WithLabelValues(tx.Type.String(), errors.CodeOf(err)).Inc()
		return 0, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ctx := engine.LiveContext(uint64(time.Now().Unix()), n.cfg.Submission.MaxAgeSecs, n.nextTxID)

	start := time.Now()
	next, err := n.sm.Apply(n.st, tx, ctx, engine.MintersFrom(n.st))
	n.metrics.ApplySeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		n.metrics.Rejected.WithLabelValues(tx.Type.String(), errors.CodeOf(err)).Inc()
		return 0, err
	}

	id, err := n.backend.AppendTx(tx)
	if err != nil {
		n.metrics.Rejected.WithLabelValues(tx.Type.String(), errors.CodeOf(err)).Inc()
		return 0, err
	}

	n.st = next
	n.nextTxID = id + 1
	n.metrics.Applied.WithLabelValues(tx.Type.String()).Inc()
	n.metrics.NextTxID.Set(float64(n.nextTxID))

	n.archiveResolution(tx)

	n.appendsSinceSnapshot++
	if interval := n.cfg.Storage.SnapshotInterval; interval > 0 && n.appendsSinceSnapshot >= interval {
		if err := n.backend.PersistState(n.st, n.nextTxID); err != nil {
			n.logger.Error("periodic snapshot failed", "error", err)
		} else {
			n.appendsSinceSnapshot = 0
		}
	}

	n.logger.Info("tx applied", "id", id, "kind", tx.Type.String(), "signer", tx.Signer)
	return id, nil
}

func (n *Node) archiveResolution(tx *types.Tx) {
	if n.archive == nil || tx.Type != types.TxTypeResolveDispute || tx.ResolveDispute == nil {
		return
	}
	bundle := tx.ResolveDispute.EvidenceBundle
	if bundle == nil {
		return
	}
	if err := n.archive.Put(bundle); err != nil {
		n.logger.Error("evidence archive write failed", "settlement", bundle.SettlementKey, "error", err)
	}
}

// Snapshot persists the current state unconditionally.
func (n *Node) Snapshot() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.backend.PersistState(n.st, n.nextTxID); err != nil {
		return err
	}
	n.appendsSinceSnapshot = 0
	return nil
}

// View runs fn against the current state under the submission lock. fn must
// not retain the state.
func (n *Node) View(fn func(st *state.State, nextTxID uint64)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n.st, n.nextTxID)
}

// WindowTotals reports the consumption this process has applied for a meter
// since it started. The daemon never marks windows, and replay at startup
// does not feed the hook.
func (n *Node) WindowTotals(owner, serviceID string) settlement.WindowTotals {
	return n.windows.Peek(owner, serviceID)
}
