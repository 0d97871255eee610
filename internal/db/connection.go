// Package db provides database connection and management utilities.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benx421/payment-gateway/checkout/internal/config"

	// Import database drivers for registration with database/sql
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection pool
type DB struct {
	*sql.DB
	logger  *slog.Logger
	dialect Dialect
}

// Connect establishes a connection to the configured database
func Connect(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	logger.Info("connecting to database",
		"driver", cfg.Driver,
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DBName,
	)

	dsn := cfg.DSN()
	inMemory := dialect == SQLite && isInMemory(cfg.SQLitePath)
	if dialect == SQLite && !inMemory {
		dsn = sqliteFileDSN(cfg.SQLitePath)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		logger.Error("failed to open database connection", "error", err)
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	maxOpen, maxIdle, lifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime
	if inMemory {
		// every connection to :memory: is a separate database
		maxOpen, maxIdle, lifetime = 1, 1, 0
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		logger.Error("failed to ping database", "error", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if inMemory {
		if err := applyPragmas(ctx, db); err != nil {
			_ = db.Close() //nolint:errcheck // already failing
			return nil, err
		}
	}

	logger.Info("successfully connected to database",
		"max_open_conns", maxOpen,
		"max_idle_conns", maxIdle,
		"conn_max_lifetime", lifetime,
	)

	return &DB{
		DB:      db,
		logger:  logger,
		dialect: dialect,
	}, nil
}

// Dialect reports which SQL dialect the connection speaks
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the database connection and logs the closure.
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

// sqliteFileDSN attaches pragmas to the DSN so every pooled connection gets them
func sqliteFileDSN(path string) string {
	params := make([]string, len(sqlitePragmas))
	for i, p := range sqlitePragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	for _, p := range sqlitePragmas {
		name, arg, _ := strings.Cut(strings.TrimSuffix(p, ")"), "(")
		p = fmt.Sprintf("PRAGMA %s = %s", name, arg)
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

func isInMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
