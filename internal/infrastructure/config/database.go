package config

// DatabaseConfig holds the checkpoint/ledger database location. The
// substrate is a single-process simulation run backed by sqlite only (see
// internal/infrastructure/database).
type DatabaseConfig struct {
	// Path is the sqlite file path. Empty means an in-memory database.
	Path string `mapstructure:"path"`
}
