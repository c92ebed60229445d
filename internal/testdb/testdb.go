//go:build integration

// Package testdb runs a disposable PostgreSQL container for integration
// tests and hands out one fresh, optionally migrated database per test.
package testdb

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/internal/logging"
	"github.com/marshallshelly/pebble-catalog/internal/seed"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/migration"
	"github.com/marshallshelly/pebble-catalog/pkg/registry"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

const image = "postgres:16-alpine"

type Container struct {
	pg    *postgres.PostgresContainer
	url   *url.URL
	admin *runtime.DB
	seq   atomic.Int64
}

// Start launches the container. Call it once from TestMain.
func Start(ctx context.Context) (*Container, error) {
	pg, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "start postgres container")
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, errors.Wrap(err, "connection string")
	}
	u, err := url.Parse(connStr)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, errors.Wrap(err, "parse connection string")
	}

	admin, err := runtime.ConnectWithURL(ctx, connStr)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, err
	}

	return &Container{pg: pg, url: u, admin: admin}, nil
}

func (c *Container) Terminate(ctx context.Context) error {
	c.admin.Close()
	return c.pg.Terminate(ctx)
}

// DB is one test database.
type DB struct {
	URL      string
	Runtime  *runtime.DB
	Builder  *builder.DB
	Registry *registry.Registry
}

// Migration returns the catalog schema migration for this database.
func (d *DB) Migration(t testing.TB) migration.Migration {
	t.Helper()

	m, err := catalog.Migration(d.Registry)
	if err != nil {
		t.Fatalf("build migration: %v", err)
	}
	return m
}

// Empty creates a database with no schema. It is dropped when the test
// ends.
func (c *Container) Empty(t testing.TB) *DB {
	t.Helper()
	ctx := context.Background()

	name := fmt.Sprintf("test_%d", c.seq.Add(1))
	if _, err := c.admin.Exec(ctx, "CREATE DATABASE "+name); err != nil {
		t.Fatalf("create database %s: %v", name, err)
	}

	u := *c.url
	u.Path = "/" + name
	db, err := runtime.ConnectWithURL(ctx, u.String())
	if err != nil {
		t.Fatalf("connect to %s: %v", name, err)
	}

	t.Cleanup(func() {
		db.Close()
		if _, err := c.admin.Exec(context.Background(), "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)"); err != nil {
			t.Logf("drop database %s: %v", name, err)
		}
	})

	reg, err := catalog.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	return &DB{URL: u.String(), Runtime: db, Builder: builder.New(db, reg), Registry: reg}
}

// Migrated creates a database with the catalog schema applied.
func (c *Container) Migrated(t testing.TB) *DB {
	t.Helper()

	d := c.Empty(t)
	exec := migration.NewExecutor(d.Runtime)
	ctx := context.Background()
	if err := exec.Initialize(ctx); err != nil {
		t.Fatalf("initialize migrations: %v", err)
	}
	if _, err := exec.Apply(ctx, d.Migration(t)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	return d
}

// Seeded creates a migrated database loaded with the reference dataset.
// Passwords are hashed at the minimum bcrypt cost.
func (c *Container) Seeded(t testing.TB) *DB {
	t.Helper()

	d := c.Migrated(t)
	loader := seed.NewLoader(d.Builder, logging.Discard())
	if _, err := loader.Load(context.Background(), seed.Reference(), seed.Options{BcryptCost: bcrypt.MinCost}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return d
}

// Main runs the tests of a package against one container and exits.
func Main(m *testing.M, container **Container) {
	ctx := context.Background()

	c, err := Start(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "testdb:", err)
		os.Exit(1)
	}
	*container = c

	code := m.Run()
	if err := c.Terminate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "testdb: terminate:", err)
	}
	os.Exit(code)
}
