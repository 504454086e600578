// Package storage defines what every backend offers beyond the per-domain
// session providers: liveness, pool statistics and schema state.
package storage

import (
	"context"

	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
)

// PoolStats is a backend-neutral snapshot of the connection pool.
type PoolStats struct {
	Open    int
	InUse   int
	Idle    int
	MaxOpen int
}

// MigrationState mirrors the schema_migrations row kept by golang-migrate.
type MigrationState struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Store is built once at startup and shared by every request. Each
// WithAccounts/WithEvents call runs on its own session.
type Store interface {
	accounts.SessionProvider
	events.SessionProvider

	Ping(ctx context.Context) error
	Stats() PoolStats
	MigrationState(ctx context.Context) (MigrationState, error)
	Close() error
}
