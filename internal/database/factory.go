package database

import (
	"fmt"
	"os"
	"path/filepath"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// NewStoreFromConfig creates the device key-value store based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig, deviceID string, clock salat.Clock) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, deviceID+".db"), clock)
	case "memory":
		return NewSQLiteStore(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
