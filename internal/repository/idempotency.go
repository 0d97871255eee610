package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/payment-gateway/checkout/internal/db"
	"github.com/benx421/payment-gateway/checkout/internal/models"
)

// IdempotencyRepository defines the interface for idempotency key data access
type IdempotencyRepository interface {
	Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Store(ctx context.Context, idempotencyKey *models.IdempotencyKey) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// idempotencyRepository implements IdempotencyRepository
type idempotencyRepository struct {
	db *db.DB
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(database *db.DB) IdempotencyRepository {
	return &idempotencyRepository{db: database}
}

func (r *idempotencyRepository) query(q string) string {
	if r.db.Dialect() == db.SQLite {
		return rebind(q)
	}
	return q
}

// Get retrieves a stored response by key and path. A missing key is not an
// error; it returns nil.
func (r *idempotencyRepository) Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	query := r.query(`
		SELECT key, request_path, request_id, response_status, response_body, created_at
		FROM idempotency_keys
		WHERE key = $1 AND request_path = $2
	`)

	var (
		idemKey   models.IdempotencyKey
		createdAt any
	)
	err := r.db.QueryRowContext(ctx, query, key, requestPath).Scan(
		&idemKey.Key,
		&idemKey.RequestPath,
		&idemKey.RequestID,
		&idemKey.ResponseStatus,
		&idemKey.ResponseBody,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	if idemKey.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &idemKey, nil
}

// Store saves a response. The first response stored for a key and path wins.
func (r *idempotencyRepository) Store(ctx context.Context, idempotencyKey *models.IdempotencyKey) error {
	query := r.query(`
		INSERT INTO idempotency_keys (key, request_path, request_id, response_status, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key, request_path) DO NOTHING
	`)

	if idempotencyKey.CreatedAt.IsZero() {
		idempotencyKey.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		idempotencyKey.Key,
		idempotencyKey.RequestPath,
		idempotencyKey.RequestID,
		idempotencyKey.ResponseStatus,
		idempotencyKey.ResponseBody,
		r.db.Dialect().TimeArg(idempotencyKey.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return nil
}

// DeleteOlderThan removes keys created before cutoff and reports how many went
func (r *idempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.query(`DELETE FROM idempotency_keys WHERE created_at < $1`)

	result, err := r.db.ExecContext(ctx, query, r.db.Dialect().TimeArg(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency keys: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
