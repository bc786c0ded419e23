package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"meterchain/config"
	"meterchain/core/replay"
	"meterchain/core/state"
	"meterchain/core/types"
	"meterchain/observability/logging"
	"meterchain/observability/metrics"
	"meterchain/storage"
)

func main() {
	configPath := flag.String("config", "./meterchaind.toml", "path to the node configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.SetupWithOptions("meterchaind", cfg.Environment, logging.Options{
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Node, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngine(registry)

	if err := provisionGenesis(cfg, backend, logger); err != nil {
		return err
	}

	replayStart := time.Now()
	st, nextTxID, err := replay.ToTip(backend)
	if err != nil {
		return fmt.Errorf("replay to tip: %w", err)
	}
	engineMetrics.ReplaySeconds.Observe(time.Since(replayStart).Seconds())
	engineMetrics.NextTxID.Set(float64(nextTxID))
	logger.Info("ledger replayed", "next_tx_id", nextTxID, "elapsed", time.Since(replayStart).String())

	var archive *storage.EvidenceArchive
	if cfg.Storage.EvidenceArchivePath != "" {
		archive, err = storage.OpenEvidenceArchive(cfg.Storage.EvidenceArchivePath)
		if err != nil {
			return err
		}
		defer archive.Close()
		logger.Info("evidence archive enabled", "path", cfg.Storage.EvidenceArchivePath)
	}

	node := NewNode(cfg, backend, st, nextTxID, engineMetrics, archive, logger)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           node.Router(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := node.Snapshot(); err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	return nil
}

func openBackend(cfg config.Node) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendLevelDB:
		return storage.OpenLevelDBStore(cfg.StoragePath())
	default:
		return storage.OpenFileStore(cfg.StoragePath())
	}
}

// provisionGenesis seeds an empty ledger from the genesis document. A ledger
// that already holds a snapshot or any transactions is left untouched.
func provisionGenesis(cfg config.Node, backend storage.Backend, logger *slog.Logger) error {
	_, _, ok, err := backend.LoadState()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	txs, err := backend.LoadTxsFrom(0)
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		return nil
	}
	if cfg.GenesisPath == "" {
		return nil
	}
	gen, err := config.LoadGenesis(cfg.GenesisPath)
	if err != nil {
		return err
	}
	if len(gen.AuthorizedMinters) == 0 && gen.GlobalPolicy == nil {
		return nil
	}

	st := state.New()
	st.SetMinters(gen.AuthorizedMinters)
	if p := gen.GlobalPolicy; p != nil {
		scope := types.GlobalScope()
		pv := types.PolicyVersion{
			ScopeKey:          scope.Key(),
			Version:           1,
			EffectiveFromTxID: 0,
			OperatorShareBps:  p.OperatorShareBps,
			ProtocolFeeBps:    p.ProtocolFeeBps,
			ReserveBps:        p.ReserveBps,
			DisputeWindowSecs: p.DisputeWindowSecs,
			Status:            types.PolicyPublished,
		}
		st.Policies[types.PolicyKey(scope.Key(), 1)] = &pv
		st.LatestPolicy[scope.Key()] = 1
	}
	if err := backend.PersistState(st, 0); err != nil {
		return err
	}
	logger.Info("genesis provisioned",
		"minters", len(gen.AuthorizedMinters),
		"global_policy", gen.GlobalPolicy != nil)
	return nil
}
