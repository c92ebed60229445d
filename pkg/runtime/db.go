package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools, connections and
// transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB represents a database handle bound either to a connection pool or to
// an open transaction. Every error it returns has gone through
// TranslateError.
type DB struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// Config represents database configuration.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// Connect creates a new DB instance by connecting to PostgreSQL.
func Connect(ctx context.Context, config *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = config.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// ConnectWithURL creates a new DB instance using a connection URL.
func ConnectWithURL(ctx context.Context, url string) (*DB, error) {
	return Connect(ctx, &Config{URL: url})
}

// Close closes the database connection pool. It is a no-op on a
// transaction-bound handle.
func (db *DB) Close() {
	if db.tx == nil && db.pool != nil {
		db.pool.Close()
	}
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.tx != nil {
		_, err := db.tx.Exec(ctx, "SELECT 1")
		return TranslateError(err)
	}
	return db.pool.Ping(ctx)
}

func (db *DB) querier() Querier {
	if db.tx != nil {
		return db.tx
	}
	return db.pool
}

// InTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Called on a transaction-bound
// handle it opens a savepoint.
func (db *DB) InTx(ctx context.Context, fn func(tx *DB) error) error {
	var (
		tx  pgx.Tx
		err error
	)
	if db.tx != nil {
		tx, err = db.tx.Begin(ctx)
	} else {
		tx, err = db.pool.Begin(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", TranslateError(err))
	}

	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&DB{pool: db.pool, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", TranslateError(err))
	}
	return nil
}

// Exec executes a query without returning any rows.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	result, err := db.querier().Exec(ctx, sql, args...)
	if err != nil {
		return 0, &QueryError{Query: sql, Err: TranslateError(err)}
	}
	return result.RowsAffected(), nil
}

// Query executes a query that returns rows. Errors surfaced later through
// rows.Err are translated as well.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := db.querier().Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Query: sql, Err: TranslateError(err)}
	}
	return &translatedRows{Rows: rows, sql: sql}, nil
}

// QueryRow executes a query that returns at most one row. A missing row
// scans as ErrNotFound.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &translatedRow{row: db.querier().QueryRow(ctx, sql, args...), sql: sql}
}

type translatedRows struct {
	pgx.Rows
	sql string
}

func (r *translatedRows) Err() error {
	if err := r.Rows.Err(); err != nil {
		return &QueryError{Query: r.sql, Err: TranslateError(err)}
	}
	return nil
}

type translatedRow struct {
	row pgx.Row
	sql string
}

func (r *translatedRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TranslateError(err)
		}
		return &QueryError{Query: r.sql, Err: TranslateError(err)}
	}
	return nil
}
