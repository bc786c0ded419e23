package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	def := Default()
	require.Equal(t, def.ListenAddr, cfg.ListenAddr)
	require.Equal(t, BackendFile, cfg.Storage.Backend)
	require.Equal(t, uint64(300), cfg.Submission.MaxAgeSecs)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeFile(t, "node.toml", `
listen_addr = "0.0.0.0:9000"

[storage]
backend = "leveldb"
snapshot_interval = 16
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	require.Equal(t, BackendLevelDB, cfg.Storage.Backend)
	require.Equal(t, uint64(16), cfg.Storage.SnapshotInterval)
	// Untouched sections keep their defaults.
	require.Equal(t, float64(50), cfg.Submission.RatePerSecond)
	require.Equal(t, 64, cfg.Log.MaxSizeMB)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeFile(t, "node.toml", `
[storage]
backend = "cassandra"
`)
	_, err := Load(path)
	require.Error(t, err)

	path = writeFile(t, "node.toml", `
[submission]
rate_per_second = -1.0
`)
	_, err = Load(path)
	require.Error(t, err)
}

func TestStoragePath(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/meterchain"
	require.Equal(t, "/var/lib/meterchain", cfg.StoragePath())
	cfg.Storage.Backend = BackendLevelDB
	require.Equal(t, filepath.Join("/var/lib/meterchain", "ledger.db"), cfg.StoragePath())
}

func TestConfigWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "node.toml")
	cfg := Default()
	cfg.ListenAddr = "127.0.0.1:7777"
	require.NoError(t, cfg.Write(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7777", got.ListenAddr)
	require.Equal(t, cfg.Storage.SnapshotInterval, got.Storage.SnapshotInterval)
}

func TestLoadGenesis(t *testing.T) {
	path := writeFile(t, "genesis.yaml", `
authorized_minters:
  - "0x00000000000000000000000000000000000000aa"
global_policy:
  operator_share_bps: 8000
  protocol_fee_bps: 1500
  reserve_bps: 500
  dispute_window_secs: 3600
`)
	g, err := LoadGenesis(path)
	require.NoError(t, err)
	require.Len(t, g.AuthorizedMinters, 1)
	require.NotNil(t, g.GlobalPolicy)
	require.Equal(t, uint64(3600), g.GlobalPolicy.DisputeWindowSecs)

	missing, err := LoadGenesis(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Empty(t, missing.AuthorizedMinters)
	require.Nil(t, missing.GlobalPolicy)
}

func TestGenesisValidation(t *testing.T) {
	bad := writeFile(t, "genesis.yaml", `
global_policy:
  operator_share_bps: 8000
  protocol_fee_bps: 1500
  reserve_bps: 400
`)
	_, err := LoadGenesis(bad)
	require.Error(t, err)

	empty := writeFile(t, "genesis.yaml", `
authorized_minters:
  - ""
`)
	_, err = LoadGenesis(empty)
	require.Error(t, err)
}
