package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
)

// PriceHistoryRepository provides data access methods for the price_history table.
type PriceHistoryRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceHistoryRepository creates a new PriceHistoryRepository with the provided database connection.
func NewPriceHistoryRepository(db *sql.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// WithTx returns a new PriceHistoryRepository scoped to the provided transaction.
func (r *PriceHistoryRepository) WithTx(tx *sql.Tx) *PriceHistoryRepository {
	return &PriceHistoryRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *PriceHistoryRepository) getQuerier() interface {
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

// Insert records one price point.
func (r *PriceHistoryRepository) Insert(ctx context.Context, fractionalSongID string, price decimal.Decimal, reason string, recordedAt time.Time) error {
	query := `
		INSERT INTO price_history (id, fractional_song_id, price, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		uuid.New().String(),
		fractionalSongID,
		price,
		reason,
		recordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price point: %w", err)
	}

	return nil
}

// ListBySong retrieves a song's price history, oldest first, optionally
// bounded to a date range.
func (r *PriceHistoryRepository) ListBySong(fractionalSongID string, from, to *time.Time) ([]model.PricePoint, error) {
	if fractionalSongID == "" {
		return nil, apperrors.ErrEmptyID
	}

	query := `
		SELECT id, fractional_song_id, price, reason, recorded_at
		FROM price_history
		WHERE fractional_song_id = ?
	`
	args := []any{fractionalSongID}

	if from != nil {
		query += " AND recorded_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND recorded_at <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY recorded_at ASC, id ASC"

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}

	for rows.Next() {
		var p model.PricePoint
		err := rows.Scan(
			&p.ID,
			&p.FractionalSongID,
			&p.Price,
			&p.Reason,
			&p.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		p.RecordedAt = p.RecordedAt.UTC()
		points = append(points, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}

	return points, nil
}
