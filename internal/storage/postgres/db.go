// Package postgres stores accounts and events in PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventnest/server/internal/config"
	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
	"github.com/eventnest/server/internal/metrics"
	"github.com/eventnest/server/internal/storage"
	"github.com/eventnest/server/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/eventnest/server/internal/storage/postgres"

var _ storage.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// Open creates a pool from cfg and checks that the server is reachable.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres store: pool is nil")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) WithAccounts(ctx context.Context, fn func(context.Context, accounts.Repository) error) error {
	return s.withConn(ctx, "accounts", func(ctx context.Context, conn *pgxpool.Conn) error {
		return fn(ctx, &AccountRepository{db: conn})
	})
}

func (s *Store) WithEvents(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	return s.withConn(ctx, "events", func(ctx context.Context, conn *pgxpool.Conn) error {
		return fn(ctx, &EventRepository{db: conn})
	})
}

// withConn acquires one pooled connection for fn and releases it on every
// exit path, panics included. Statements run outside any transaction, so
// each one commits on its own.
func (s *Store) withConn(ctx context.Context, name string, fn func(ctx context.Context, conn *pgxpool.Conn) error) error {
	ctx, span := telemetry.GetTracer(tracerName).Start(ctx, "storage.session "+name)
	defer span.End()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "acquire session")
		return fmt.Errorf("acquire session: %w", err)
	}
	defer conn.Release()

	if err := fn(ctx, conn); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Stats() storage.PoolStats {
	stat := s.pool.Stat()
	return storage.PoolStats{
		Open:    int(stat.TotalConns()),
		InUse:   int(stat.AcquiredConns()),
		Idle:    int(stat.IdleConns()),
		MaxOpen: int(stat.MaxConns()),
	}
}

func (s *Store) MigrationState(ctx context.Context) (storage.MigrationState, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return storage.MigrationState{}, fmt.Errorf("check migrations table: %w", err)
	}
	if !exists {
		return storage.MigrationState{}, nil
	}

	var version int64
	var dirty bool
	err := s.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MigrationState{}, nil
	}
	if err != nil {
		return storage.MigrationState{}, fmt.Errorf("read migration version: %w", err)
	}
	return storage.MigrationState{Version: uint(version), Dirty: dirty, Applied: true}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func observe(operation string, start time.Time, err error) {
	if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, events.ErrNotFound) {
		err = nil
	}
	metrics.RecordQuery(operation, start, err)
}
