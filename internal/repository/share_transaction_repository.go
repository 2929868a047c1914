package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
)

// ShareTransactionRepository provides data access methods for the share_transactions table.
type ShareTransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewShareTransactionRepository creates a new ShareTransactionRepository with the provided database connection.
func NewShareTransactionRepository(db *sql.DB) *ShareTransactionRepository {
	return &ShareTransactionRepository{db: db}
}

// WithTx returns a new ShareTransactionRepository scoped to the provided transaction.
func (r *ShareTransactionRepository) WithTx(tx *sql.Tx) *ShareTransactionRepository {
	return &ShareTransactionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *ShareTransactionRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const shareTransactionColumns = `
	id, idempotency_key, transaction_type, fractional_song_id,
	buyer_id, seller_id, shares_quantity, price_per_share, total_amount,
	status, failure_reason, created_at, completed_at
`

// Insert appends a transaction record to the ledger.
// Returns ErrDuplicateEntry if the idempotency key has already been used.
func (r *ShareTransactionRepository) Insert(ctx context.Context, t model.ShareTransaction) error {
	query := `
		INSERT INTO share_transactions (` + shareTransactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var idempotencyKey any
	if t.IdempotencyKey != "" {
		idempotencyKey = t.IdempotencyKey
	}
	var sellerID any
	if t.SellerID != "" {
		sellerID = t.SellerID
	}
	var failureReason any
	if t.FailureReason != "" {
		failureReason = t.FailureReason
	}
	var completedAt any
	if t.CompletedAt != nil {
		completedAt = *t.CompletedAt
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		idempotencyKey,
		t.Type,
		t.FractionalSongID,
		t.BuyerID,
		sellerID,
		t.SharesQuantity,
		t.PricePerShare,
		t.TotalAmount,
		t.Status,
		failureReason,
		t.CreatedAt,
		completedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to insert share transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID.
// Returns ErrTransactionNotFound if no transaction with the given ID exists.
func (r *ShareTransactionRepository) GetByID(id string) (model.ShareTransaction, error) {
	if id == "" {
		return model.ShareTransaction{}, apperrors.ErrEmptyID
	}

	query := `SELECT ` + shareTransactionColumns + ` FROM share_transactions WHERE id = ?`
	return r.scanOne(r.getQuerier().QueryRow(query, id))
}

// GetByIdempotencyKey retrieves the transaction a caller key was attached to.
// Returns ErrTransactionNotFound if the key has never been used.
func (r *ShareTransactionRepository) GetByIdempotencyKey(key string) (model.ShareTransaction, error) {
	if key == "" {
		return model.ShareTransaction{}, apperrors.ErrEmptyID
	}

	query := `SELECT ` + shareTransactionColumns + ` FROM share_transactions WHERE idempotency_key = ?`
	return r.scanOne(r.getQuerier().QueryRow(query, key))
}

// MarkCompleted flips a pending transaction to completed. Runs in the same
// database transaction as the pool and ownership writes it records.
func (r *ShareTransactionRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	query := `
		UPDATE share_transactions
		SET status = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		model.TransactionStatusCompleted, completedAt, id, model.TransactionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to complete share transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// ListBySong retrieves the transaction history of one song, newest first.
func (r *ShareTransactionRepository) ListBySong(fractionalSongID string) ([]model.ShareTransaction, error) {
	query := `
		SELECT ` + shareTransactionColumns + `
		FROM share_transactions
		WHERE fractional_song_id = ?
		ORDER BY created_at DESC, id ASC
	`

	return r.scanMany(query, fractionalSongID)
}

// ListByUser retrieves every transaction a user took part in, on either side.
func (r *ShareTransactionRepository) ListByUser(userID string) ([]model.ShareTransaction, error) {
	if userID == "" {
		return nil, apperrors.ErrEmptyID
	}

	query := `
		SELECT ` + shareTransactionColumns + `
		FROM share_transactions
		WHERE buyer_id = ? OR seller_id = ?
		ORDER BY created_at DESC, id ASC
	`

	return r.scanMany(query, userID, userID)
}

func (r *ShareTransactionRepository) scanOne(row *sql.Row) (model.ShareTransaction, error) {
	var t model.ShareTransaction
	var idempotencyKey, sellerID, failureReason sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&idempotencyKey,
		&t.Type,
		&t.FractionalSongID,
		&t.BuyerID,
		&sellerID,
		&t.SharesQuantity,
		&t.PricePerShare,
		&t.TotalAmount,
		&t.Status,
		&failureReason,
		&t.CreatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return model.ShareTransaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.ShareTransaction{}, fmt.Errorf("failed to scan share transaction: %w", err)
	}

	t.IdempotencyKey = idempotencyKey.String
	t.SellerID = sellerID.String
	t.FailureReason = failureReason.String
	t.CreatedAt = t.CreatedAt.UTC()
	t.CompletedAt = nullTimePtr(completedAt)
	return t, nil
}

func (r *ShareTransactionRepository) scanMany(query string, args ...any) ([]model.ShareTransaction, error) {
	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query share transactions: %w", err)
	}
	defer rows.Close()

	transactions := []model.ShareTransaction{}

	for rows.Next() {
		var t model.ShareTransaction
		var idempotencyKey, sellerID, failureReason sql.NullString
		var completedAt sql.NullTime

		err := rows.Scan(
			&t.ID,
			&idempotencyKey,
			&t.Type,
			&t.FractionalSongID,
			&t.BuyerID,
			&sellerID,
			&t.SharesQuantity,
			&t.PricePerShare,
			&t.TotalAmount,
			&t.Status,
			&failureReason,
			&t.CreatedAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share transaction: %w", err)
		}

		t.IdempotencyKey = idempotencyKey.String
		t.SellerID = sellerID.String
		t.FailureReason = failureReason.String
		t.CreatedAt = t.CreatedAt.UTC()
		t.CompletedAt = nullTimePtr(completedAt)
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share transactions: %w", err)
	}

	return transactions, nil
}
