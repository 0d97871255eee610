package db

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/benx421/payment-gateway/checkout/internal/config"
)

// NewMemoryDB opens a migrated, private in-memory SQLite database that is
// closed when the test finishes.
func NewMemoryDB(t testing.TB) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database, err := Connect(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("failed to open memory database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate memory database: %v", err)
	}

	return database
}
