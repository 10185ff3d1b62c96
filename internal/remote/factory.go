package remote

import (
	"context"
	"errors"
	"fmt"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// NewRemoteFromConfig creates the RemoteStore named by cfg.Type.
// The "none" type yields a store that refuses every call, which keeps writes
// pending until a real backend is configured.
func NewRemoteFromConfig(ctx context.Context, cfg config.RemoteConfig) (salat.RemoteStore, error) {
	switch cfg.Type {
	case "none", "":
		return NoneStore{}, nil
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem remote requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.FSRoot)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres remote requires postgres_dsn to be set")
		}
		return NewPostgresStore(cfg.PostgresDSN)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 remote requires s3_bucket to be set")
		}
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}

// ErrNoRemote is returned by NoneStore.
var ErrNoRemote = errors.New("no remote store configured")

// NoneStore is the RemoteStore used when remote.type is "none".
type NoneStore struct{}

var _ salat.RemoteStore = NoneStore{}

func (NoneStore) Select(context.Context, string, salat.Date, salat.Date) ([]salat.DayRecord, error) {
	return nil, ErrNoRemote
}

func (NoneStore) Upsert(context.Context, string, []salat.DayRecord) error {
	return ErrNoRemote
}

func (NoneStore) ValidateSetup(context.Context) error {
	return ErrNoRemote
}
