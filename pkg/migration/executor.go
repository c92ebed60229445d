package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
)

// DefaultLockID is the advisory lock key taken while migrations run.
const DefaultLockID int64 = 7_412_031_337

// Executor executes and tracks database migrations.
type Executor struct {
	db     *runtime.DB
	lockID int64
}

// NewExecutor creates a new migration executor.
func NewExecutor(db *runtime.DB) *Executor {
	return &Executor{
		db:     db,
		lockID: DefaultLockID,
	}
}

// WithLockID sets a custom advisory lock ID.
func (e *Executor) WithLockID(lockID int64) *Executor {
	e.lockID = lockID
	return e
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (e *Executor) Initialize(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			applied_at TIMESTAMP,
			error TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`

	if _, err := e.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// lock takes a transaction-scoped advisory lock so concurrent appliers
// serialize. It is released on commit or rollback, which keeps it on the
// same connection as the migration itself.
func (e *Executor) lock(ctx context.Context, tx *runtime.DB) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", e.lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	return nil
}

// GetAllMigrations returns all migration records.
func (e *Executor) GetAllMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return e.queryRecords(ctx, e.db, `
		SELECT version, name, status, applied_at, error
		FROM schema_migrations
		ORDER BY version ASC
	`)
}

func (e *Executor) queryRecords(ctx context.Context, db *runtime.DB, query string) ([]MigrationRecord, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var record MigrationRecord
		if err := rows.Scan(&record.Version, &record.Name, &record.Status, &record.AppliedAt, &record.Error); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func isApplied(ctx context.Context, db *runtime.DB, version string) (bool, error) {
	var count int
	err := db.QueryRow(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = $1 AND status = 'applied'",
		version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// Apply executes a migration's up SQL in one transaction and records it.
// Applying a migration that is already recorded is a no-op and reports
// applied=false.
func (e *Executor) Apply(ctx context.Context, migration Migration) (applied bool, err error) {
	if err := e.Initialize(ctx); err != nil {
		return false, err
	}

	err = e.db.InTx(ctx, func(tx *runtime.DB) error {
		if err := e.lock(ctx, tx); err != nil {
			return err
		}

		done, err := isApplied(ctx, tx, migration.Version)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		for i, stmt := range splitSQL(migration.UpSQL) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return &runtime.MigrationError{
					Version: migration.Version,
					Message: fmt.Sprintf("statement %d failed", i+1),
					Err:     err,
				}
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO schema_migrations (version, name, status, applied_at)
			VALUES ($1, $2, 'applied', $3)
			ON CONFLICT (version) DO UPDATE
			SET status = 'applied', applied_at = EXCLUDED.applied_at, error = NULL
		`, migration.Version, migration.Name, time.Now())
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		e.recordFailure(ctx, migration, err)
		return false, err
	}
	return applied, nil
}

// recordFailure stores the error outside the rolled back transaction so
// `status` can show it.
func (e *Executor) recordFailure(ctx context.Context, migration Migration, cause error) {
	var migErr *runtime.MigrationError
	if !errors.As(cause, &migErr) {
		return
	}
	_, _ = e.db.Exec(ctx, `
		INSERT INTO schema_migrations (version, name, status, error)
		VALUES ($1, $2, 'failed', $3)
		ON CONFLICT (version) DO UPDATE SET status = 'failed', error = EXCLUDED.error
	`, migration.Version, migration.Name, cause.Error())
}

// Rollback executes a migration's down SQL and removes its record.
// Rolling back a migration that is not applied is a no-op.
func (e *Executor) Rollback(ctx context.Context, migration Migration) (rolledBack bool, err error) {
	if err := e.Initialize(ctx); err != nil {
		return false, err
	}

	err = e.db.InTx(ctx, func(tx *runtime.DB) error {
		if err := e.lock(ctx, tx); err != nil {
			return err
		}

		done, err := isApplied(ctx, tx, migration.Version)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}

		for i, stmt := range splitSQL(migration.DownSQL) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return &runtime.MigrationError{
					Version: migration.Version,
					Message: fmt.Sprintf("rollback statement %d failed", i+1),
					Err:     err,
				}
			}
		}

		if _, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", migration.Version); err != nil {
			return fmt.Errorf("failed to delete migration record: %w", err)
		}
		rolledBack = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return rolledBack, nil
}

// GetStatus returns the status of all migrations.
func (e *Executor) GetStatus(ctx context.Context, migrations []Migration) ([]MigrationRecord, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}

	known := make(map[string]MigrationRecord)
	all, err := e.GetAllMigrations(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range all {
		known[m.Version] = m
	}

	records := make([]MigrationRecord, 0, len(migrations))
	for _, migration := range migrations {
		if record, exists := known[migration.Version]; exists {
			records = append(records, record)
			continue
		}
		records = append(records, MigrationRecord{
			Version: migration.Version,
			Name:    migration.Name,
			Status:  StatusPending,
		})
	}
	return records, nil
}

// SplitStatements splits a SQL script the way Apply does.
func SplitStatements(sql string) []string {
	return splitSQL(sql)
}

// splitSQL splits a script into statements on top-level semicolons.
// Semicolons inside quoted strings, quoted identifiers, dollar-quoted
// bodies ($$ ... $$ or $tag$ ... $tag$) and comments do not split.
// Comment-only fragments are dropped.
func splitSQL(sql string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if stmt != "" && !isCommentOnly(stmt) {
			statements = append(statements, stmt)
		}
	}

	for i := 0; i < len(sql); {
		ch := sql[i]
		switch {
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			current.WriteString(sql[i : i+end])
			i += end

		case ch == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				current.WriteString(sql[i:])
				i = len(sql)
				break
			}
			current.WriteString(sql[i : i+2+end+2])
			i += 2 + end + 2

		case ch == '\'' || ch == '"':
			j := i + 1
			for j < len(sql) {
				if sql[j] == ch {
					if j+1 < len(sql) && sql[j+1] == ch {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= len(sql) {
				current.WriteString(sql[i:])
				i = len(sql)
				break
			}
			current.WriteString(sql[i : j+1])
			i = j + 1

		case ch == '$':
			tag, ok := dollarTag(sql[i:])
			if !ok {
				current.WriteByte(ch)
				i++
				break
			}
			end := strings.Index(sql[i+len(tag):], tag)
			if end < 0 {
				current.WriteString(sql[i:])
				i = len(sql)
				break
			}
			stop := i + len(tag) + end + len(tag)
			current.WriteString(sql[i:stop])
			i = stop

		case ch == ';':
			flush()
			i++

		default:
			current.WriteByte(ch)
			i++
		}
	}
	flush()

	return statements
}

// dollarTag returns the opening tag ($$ or $name$) at the start of s.
func dollarTag(s string) (string, bool) {
	for j := 1; j < len(s); j++ {
		c := s[j]
		if c == '$' {
			return s[:j+1], true
		}
		isIdent := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (j > 1 && c >= '0' && c <= '9')
		if !isIdent {
			return "", false
		}
	}
	return "", false
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return false
		}
	}
	return true
}
