// Package store persists model snapshots so a predictor can be rebuilt
// without retraining. Backends: a JSON file, a PostgreSQL table and a Redis key.
package store

import (
	"context"
	"time"

	"github.com/YuminosukeSato/loangate/config"
	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/pkg/errors"
)

// Store saves snapshots and loads the most recent one.
// Load returns an error wrapping errors.ErrSnapshotNotFound when nothing has been saved.
type Store interface {
	Save(ctx context.Context, s *model.Snapshot) error
	Load(ctx context.Context) (*model.Snapshot, error)
	Close() error
}

// Open builds the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	timeout := time.Duration(cfg.Timeout)
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.Path), nil
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, timeout)
	case config.DriverRedis:
		return OpenRedis(ctx, cfg.Addr, cfg.Key, timeout)
	default:
		return nil, errors.NewValidationError("store.driver", "must be one of file, postgres, redis", cfg.Driver)
	}
}

// withTimeout bounds ctx when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
