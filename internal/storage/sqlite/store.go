// Package sqlite stores accounts and events in a single SQLite file through
// database/sql and mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eventnest/server/internal/config"
	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
	"github.com/eventnest/server/internal/metrics"
	"github.com/eventnest/server/internal/storage"
	"github.com/eventnest/server/internal/telemetry"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/codes"
)

const (
	busyTimeout = 5 * time.Second
	tracerName  = "github.com/eventnest/server/internal/storage/sqlite"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file named by cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	path := cfg.SQLitePath()
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty database path in %q", cfg.URL)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) WithAccounts(ctx context.Context, fn func(context.Context, accounts.Repository) error) error {
	return s.withConn(ctx, "accounts", func(ctx context.Context, conn *sql.Conn) error {
		return fn(ctx, &AccountRepository{conn: conn})
	})
}

func (s *Store) WithEvents(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	return s.withConn(ctx, "events", func(ctx context.Context, conn *sql.Conn) error {
		return fn(ctx, &EventRepository{conn: conn})
	})
}

// withConn pins one pooled connection for the duration of fn. The
// connection goes back to the pool even if fn panics.
func (s *Store) withConn(ctx context.Context, name string, fn func(ctx context.Context, conn *sql.Conn) error) error {
	ctx, span := telemetry.GetTracer(tracerName).Start(ctx, "storage.session "+name)
	defer span.End()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "acquire session")
		return fmt.Errorf("acquire session: %w", err)
	}
	defer conn.Close()

	if err := fn(ctx, conn); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Stats() storage.PoolStats {
	stat := s.db.Stats()
	return storage.PoolStats{
		Open:    stat.OpenConnections,
		InUse:   stat.InUse,
		Idle:    stat.Idle,
		MaxOpen: stat.MaxOpenConnections,
	}
}

func (s *Store) MigrationState(ctx context.Context) (storage.MigrationState, error) {
	var tables int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`,
	).Scan(&tables)
	if err != nil {
		return storage.MigrationState{}, fmt.Errorf("check migrations table: %w", err)
	}
	if tables == 0 {
		return storage.MigrationState{}, nil
	}

	var state storage.MigrationState
	err = s.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).
		Scan(&state.Version, &state.Dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MigrationState{}, nil
	}
	if err != nil {
		return storage.MigrationState{}, fmt.Errorf("read migration version: %w", err)
	}
	state.Applied = true
	return state, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// observe records a storage operation. A missing row is a normal outcome
// and is not counted as an error.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, events.ErrNotFound) {
		err = nil
	}
	metrics.RecordQuery(operation, start, err)
}
