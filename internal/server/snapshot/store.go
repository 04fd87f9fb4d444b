// Package snapshot persists whole-dataset snapshots by name. The credential
// store and the session store each serialize their full state and hand it
// to a Store on every mutation.
package snapshot

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/medchat/internal/filex"
	"github.com/dmitrijs2005/medchat/internal/server/config"
)

// Snapshot names.
const (
	NameUsers       = "users"
	NameChatHistory = "chat_history"
)

// Store loads and replaces named snapshots.
type Store interface {
	// Load returns the latest snapshot or common.ErrorNotFound.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save replaces the snapshot atomically.
	Save(ctx context.Context, name string, data []byte) error
	Close() error
}

// Open builds the backend selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageFile:
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return NewFileStore(dir), nil
	case config.StorageSQLite:
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, filepath.Join(dir, "medchat.db"))
	case config.StoragePostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case config.StorageS3:
		return NewS3Store(ctx, cfg)
	case config.StorageRedis:
		return NewRedisStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
