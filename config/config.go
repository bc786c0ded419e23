package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Backend selection values for Node.Storage.Backend.
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
)

// Node is the daemon configuration, loaded from TOML.
type Node struct {
	DataDir     string  `toml:"data_dir"`
	ListenAddr  string  `toml:"listen_addr"`
	Environment string  `toml:"environment"`
	GenesisPath string  `toml:"genesis_path"`
	Storage     Storage `toml:"storage"`
	Submission  Submit  `toml:"submission"`
	Log         Log     `toml:"log"`
}

// Storage selects and tunes the persistence backend.
type Storage struct {
	Backend string `toml:"backend"`
	// SnapshotInterval is the number of appends between automatic snapshots.
	// Zero disables periodic snapshots.
	SnapshotInterval uint64 `toml:"snapshot_interval"`
	// EvidenceArchivePath enables the bbolt audit archive when non-empty.
	EvidenceArchivePath string `toml:"evidence_archive_path"`
}

// Submit tunes the transaction submission endpoint.
type Submit struct {
	// RatePerSecond caps accepted submissions; zero means unlimited.
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
	// MaxAgeSecs is the accepted staleness of validAt on delegated consumes.
	MaxAgeSecs uint64 `toml:"max_age_secs"`
}

// Log configures structured log output.
type Log struct {
	FilePath   string `toml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the configuration used when no file is present.
func Default() Node {
	return Node{
		DataDir:     "./data",
		ListenAddr:  "127.0.0.1:8553",
		Environment: "dev",
		Storage: Storage{
			Backend:          BackendFile,
			SnapshotInterval: 256,
		},
		Submission: Submit{
			RatePerSecond: 50,
			Burst:         100,
			MaxAgeSecs:    300,
		},
		Log: Log{MaxSizeMB: 64, MaxBackups: 4, MaxAgeDays: 14},
	}
}

// Load reads the TOML file at path, layering it over defaults. A missing file
// yields the defaults.
func Load(path string) (Node, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (n Node) Validate() error {
	switch n.Storage.Backend {
	case BackendFile, BackendLevelDB:
	default:
		return fmt.Errorf("config: unknown storage backend %q", n.Storage.Backend)
	}
	if n.DataDir == "" {
		return fmt.Errorf("config: data_dir must be set")
	}
	if n.Submission.RatePerSecond < 0 {
		return fmt.Errorf("config: rate_per_second must not be negative")
	}
	return nil
}

// StoragePath resolves the backend location under the data directory.
func (n Node) StoragePath() string {
	if n.Storage.Backend == BackendLevelDB {
		return filepath.Join(n.DataDir, "ledger.db")
	}
	return n.DataDir
}

// Write serializes the configuration to path, creating parent directories.
func (n Node) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(n); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}
