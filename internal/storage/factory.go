package storage

import (
	"fmt"
	"log/slog"

	"labbudget/internal/config"
)

// BackendResult bundles a blob store with its cleanup hook.
type BackendResult struct {
	Blobs   BlobStore
	Cleanup func() error
}

// NewBackend selects the blob store from the configured backend.
func NewBackend(cfg *config.Config) (*BackendResult, error) {
	switch cfg.DataBackend {
	case "sqlite":
		store, err := NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		slog.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &BackendResult{Blobs: store, Cleanup: store.Close}, nil
	case "memory":
		slog.Info("Initialized memory backend")
		return &BackendResult{Blobs: NewMemoryStore(), Cleanup: nil}, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
