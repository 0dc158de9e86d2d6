// Package testdb connects integration tests to a disposable Postgres
// database named by TEST_DATABASE_URI.
package testdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MikeRez0/campuscafe/internal/adapter/config"
	"github.com/MikeRez0/campuscafe/internal/adapter/storage"
)

const lockID int64 = 20230901

// New returns a migrated database with every table but the menu emptied.
// The test is skipped when no database is reachable.
func New(t *testing.T) *storage.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set, skipping Postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := storage.NewDBStorage(ctx, &config.Database{DSN: dsn})
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	t.Cleanup(db.Close)

	lock(t, db)

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	_, err = db.Exec(ctx,
		`TRUNCATE order_lines, orders, loyalty_transactions, loyalty_accounts, students RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// lock serializes test packages sharing one database.
func lock(t *testing.T, db *storage.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
		conn.Release()
	})
}
