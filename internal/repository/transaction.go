// Package repository provides data access layer implementations for the checkout service.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/benx421/payment-gateway/checkout/internal/db"
	"github.com/benx421/payment-gateway/checkout/internal/models"
)

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByTxnID(ctx context.Context, txnID string) (*models.Transaction, error)
	// Reconcile merges txn into the record stored under txn.TxnID in one
	// atomic statement, inserting it when absent. A stored terminal status is
	// never replaced by a different one; in that case only verified_at is
	// touched and applied is false.
	Reconcile(ctx context.Context, txn *models.Transaction) (stored *models.Transaction, applied bool, err error)
}

// transactionRepository implements TransactionRepository
type transactionRepository struct {
	db      *db.DB
	queries transactionQueries
}

type transactionQueries struct {
	insert    string
	findByID  string
	reconcile string
	touch     string
}

const transactionColumns = `txn_id, amount, product_info, first_name, email, phone, service_duration, status,
	gateway_txn_id, bank_ref_num, payment_mode, error_message, additional_charges, net_amount_debit,
	payment_source, card_type, bank_code, udf1, udf2, udf3, udf4, udf5,
	verified_at, raw_response, extra, created_at, updated_at`

const transactionColumnCount = 27

// reconcileMerge is shared by both dialects; only the JSON merge differs.
const reconcileMerge = `
	ON CONFLICT (txn_id) DO UPDATE SET
		status = excluded.status,
		product_info = COALESCE(NULLIF(transactions.product_info, ''), excluded.product_info),
		first_name = COALESCE(NULLIF(transactions.first_name, ''), excluded.first_name),
		email = COALESCE(NULLIF(transactions.email, ''), excluded.email),
		phone = COALESCE(NULLIF(transactions.phone, ''), excluded.phone),
		gateway_txn_id = COALESCE(NULLIF(excluded.gateway_txn_id, ''), transactions.gateway_txn_id),
		bank_ref_num = COALESCE(NULLIF(excluded.bank_ref_num, ''), transactions.bank_ref_num),
		payment_mode = COALESCE(NULLIF(excluded.payment_mode, ''), transactions.payment_mode),
		error_message = COALESCE(NULLIF(excluded.error_message, ''), transactions.error_message),
		additional_charges = COALESCE(excluded.additional_charges, transactions.additional_charges),
		net_amount_debit = COALESCE(excluded.net_amount_debit, transactions.net_amount_debit),
		payment_source = COALESCE(NULLIF(excluded.payment_source, ''), transactions.payment_source),
		card_type = COALESCE(NULLIF(excluded.card_type, ''), transactions.card_type),
		bank_code = COALESCE(NULLIF(excluded.bank_code, ''), transactions.bank_code),
		udf1 = COALESCE(NULLIF(excluded.udf1, ''), transactions.udf1),
		udf2 = COALESCE(NULLIF(excluded.udf2, ''), transactions.udf2),
		udf3 = COALESCE(NULLIF(excluded.udf3, ''), transactions.udf3),
		udf4 = COALESCE(NULLIF(excluded.udf4, ''), transactions.udf4),
		udf5 = COALESCE(NULLIF(excluded.udf5, ''), transactions.udf5),
		verified_at = excluded.verified_at,
		raw_response = excluded.raw_response,
		extra = %s,
		updated_at = excluded.updated_at
	WHERE transactions.status NOT IN ('success', 'failed') OR transactions.status = excluded.status
	RETURNING ` + transactionColumns

var placeholderPattern = regexp.MustCompile(`\$\d+`)

func newTransactionQueries(dialect db.Dialect) transactionQueries {
	values := placeholders(transactionColumnCount)

	jsonMerge := "transactions.extra || excluded.extra"
	if dialect == db.SQLite {
		jsonMerge = "json_patch(transactions.extra, excluded.extra)"
	}

	q := transactionQueries{
		insert: `INSERT INTO transactions (` + transactionColumns + `) VALUES (` + values + `)
			ON CONFLICT (txn_id) DO NOTHING`,
		findByID: `SELECT ` + transactionColumns + ` FROM transactions WHERE txn_id = $1`,
		reconcile: `INSERT INTO transactions (` + transactionColumns + `) VALUES (` + values + `)` +
			fmt.Sprintf(reconcileMerge, jsonMerge),
		touch: `UPDATE transactions SET verified_at = $1, updated_at = $2 WHERE txn_id = $3
			RETURNING ` + transactionColumns,
	}

	if dialect == db.SQLite {
		q.insert = rebind(q.insert)
		q.findByID = rebind(q.findByID)
		q.reconcile = rebind(q.reconcile)
		q.touch = rebind(q.touch)
	}

	return q
}

// rebind turns $n placeholders into ?. Every query here uses each
// placeholder exactly once and in ascending order.
func rebind(query string) string {
	return placeholderPattern.ReplaceAllString(query, "?")
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{
		db:      database,
		queries: newTransactionQueries(database.Dialect()),
	}
}

// Create inserts a new transaction, failing with ErrDuplicateTransaction if the id is taken
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now

	args, err := r.args(txn)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, r.queries.insert, args...)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrDuplicateTransaction
	}

	return nil
}

// FindByTxnID retrieves a transaction by its merchant transaction id
func (r *transactionRepository) FindByTxnID(ctx context.Context, txnID string) (*models.Transaction, error) {
	txn, err := scanTransaction(r.db.QueryRowContext(ctx, r.queries.findByID, txnID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by id: %w", err)
	}

	return txn, nil
}

// Reconcile atomically upserts txn without regressing a terminal status
func (r *transactionRepository) Reconcile(ctx context.Context, txn *models.Transaction) (*models.Transaction, bool, error) {
	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now
	if txn.VerifiedAt == nil {
		txn.VerifiedAt = &now
	}

	args, err := r.args(txn)
	if err != nil {
		return nil, false, err
	}

	stored, err := scanTransaction(r.db.QueryRowContext(ctx, r.queries.reconcile, args...))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to reconcile transaction: %w", err)
	}

	// Conflict guard rejected the merge; the row exists with a terminal status.
	dialect := r.db.Dialect()
	stored, err = scanTransaction(r.db.QueryRowContext(ctx, r.queries.touch,
		dialect.NullTimeArg(txn.VerifiedAt),
		dialect.TimeArg(now),
		txn.TxnID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to touch transaction: %w", err)
	}

	return stored, false, nil
}

func (r *transactionRepository) args(txn *models.Transaction) ([]any, error) {
	raw, err := marshalStringMap(txn.RawResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw response: %w", err)
	}
	extra, err := marshalStringMap(txn.Extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra fields: %w", err)
	}

	status := txn.Status
	if status == "" {
		status = models.TransactionStatusInitiated
	}
	duration := txn.ServiceDuration
	if duration == "" {
		duration = models.DefaultServiceDuration
	}

	dialect := r.db.Dialect()
	return []any{
		txn.TxnID,
		txn.Amount,
		txn.ProductInfo,
		txn.FirstName,
		txn.Email,
		txn.Phone,
		duration,
		string(status),
		txn.GatewayTxnID,
		txn.BankRefNum,
		txn.PaymentMode,
		txn.ErrorMessage,
		txn.AdditionalCharges,
		txn.NetAmountDebit,
		txn.PaymentSource,
		txn.CardType,
		txn.BankCode,
		txn.UDF1,
		txn.UDF2,
		txn.UDF3,
		txn.UDF4,
		txn.UDF5,
		dialect.NullTimeArg(txn.VerifiedAt),
		raw,
		extra,
		dialect.TimeArg(txn.CreatedAt),
		dialect.TimeArg(txn.UpdatedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		txn        models.Transaction
		status     string
		verifiedAt any
		createdAt  any
		updatedAt  any
		raw        []byte
		extra      []byte
	)

	err := row.Scan(
		&txn.TxnID,
		&txn.Amount,
		&txn.ProductInfo,
		&txn.FirstName,
		&txn.Email,
		&txn.Phone,
		&txn.ServiceDuration,
		&status,
		&txn.GatewayTxnID,
		&txn.BankRefNum,
		&txn.PaymentMode,
		&txn.ErrorMessage,
		&txn.AdditionalCharges,
		&txn.NetAmountDebit,
		&txn.PaymentSource,
		&txn.CardType,
		&txn.BankCode,
		&txn.UDF1,
		&txn.UDF2,
		&txn.UDF3,
		&txn.UDF4,
		&txn.UDF5,
		&verifiedAt,
		&raw,
		&extra,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Status = models.TransactionStatus(status)

	if verifiedAt != nil {
		t, err := db.ParseTime(verifiedAt)
		if err != nil {
			return nil, fmt.Errorf("parse verified_at: %w", err)
		}
		txn.VerifiedAt = &t
	}
	if txn.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if txn.UpdatedAt, err = db.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	if txn.RawResponse, err = unmarshalStringMap(raw); err != nil {
		return nil, fmt.Errorf("decode raw_response: %w", err)
	}
	if txn.Extra, err = unmarshalStringMap(extra); err != nil {
		return nil, fmt.Errorf("decode extra: %w", err)
	}

	return &txn, nil
}

func marshalStringMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStringMap(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
