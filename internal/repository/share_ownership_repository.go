package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
)

// ShareOwnershipRepository provides data access methods for the share_ownerships table.
type ShareOwnershipRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewShareOwnershipRepository creates a new ShareOwnershipRepository with the provided database connection.
func NewShareOwnershipRepository(db *sql.DB) *ShareOwnershipRepository {
	return &ShareOwnershipRepository{db: db}
}

// WithTx returns a new ShareOwnershipRepository scoped to the provided transaction.
func (r *ShareOwnershipRepository) WithTx(tx *sql.Tx) *ShareOwnershipRepository {
	return &ShareOwnershipRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *ShareOwnershipRepository) getQuerier() interface {
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

// GetBySong retrieves every holding in a song, ordered by user ID so callers
// iterate deterministically.
func (r *ShareOwnershipRepository) GetBySong(fractionalSongID string) ([]model.ShareOwnership, error) {
	query := `
		SELECT id, fractional_song_id, user_id, shares_owned,
		       purchase_price, total_earnings, purchase_date, last_earning_date
		FROM share_ownerships
		WHERE fractional_song_id = ?
		ORDER BY user_id ASC
	`

	rows, err := r.getQuerier().Query(query, fractionalSongID)
	if err != nil {
		return nil, fmt.Errorf("failed to query share ownerships: %w", err)
	}
	defer rows.Close()

	ownerships := []model.ShareOwnership{}

	for rows.Next() {
		ownership, err := scanOwnership(rows)
		if err != nil {
			return nil, err
		}
		ownerships = append(ownerships, ownership)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share ownerships: %w", err)
	}

	return ownerships, nil
}

// GetByUserAndSong retrieves one user's holding in one song.
// Returns ErrOwnershipNotFound if the user holds no shares.
func (r *ShareOwnershipRepository) GetByUserAndSong(userID, fractionalSongID string) (model.ShareOwnership, error) {
	query := `
		SELECT id, fractional_song_id, user_id, shares_owned,
		       purchase_price, total_earnings, purchase_date, last_earning_date
		FROM share_ownerships
		WHERE user_id = ? AND fractional_song_id = ?
	`

	var ownership model.ShareOwnership
	var lastEarning sql.NullTime

	err := r.getQuerier().QueryRow(query, userID, fractionalSongID).Scan(
		&ownership.ID,
		&ownership.FractionalSongID,
		&ownership.UserID,
		&ownership.SharesOwned,
		&ownership.PurchasePrice,
		&ownership.TotalEarnings,
		&ownership.PurchaseDate,
		&lastEarning,
	)
	if err == sql.ErrNoRows {
		return model.ShareOwnership{}, apperrors.ErrOwnershipNotFound
	}
	if err != nil {
		return model.ShareOwnership{}, fmt.Errorf("failed to scan share ownership: %w", err)
	}

	ownership.PurchaseDate = ownership.PurchaseDate.UTC()
	ownership.LastEarningDate = nullTimePtr(lastEarning)
	return ownership, nil
}

// Upsert writes a holding, replacing the mutable fields when the user
// already holds shares in the song.
func (r *ShareOwnershipRepository) Upsert(ctx context.Context, ownership model.ShareOwnership) error {
	query := `
		INSERT INTO share_ownerships
			(id, fractional_song_id, user_id, shares_owned, purchase_price, total_earnings, purchase_date, last_earning_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, fractional_song_id) DO UPDATE SET
			shares_owned = excluded.shares_owned,
			purchase_price = excluded.purchase_price
	`

	var lastEarning any
	if ownership.LastEarningDate != nil {
		lastEarning = *ownership.LastEarningDate
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		ownership.ID,
		ownership.FractionalSongID,
		ownership.UserID,
		ownership.SharesOwned,
		ownership.PurchasePrice,
		ownership.TotalEarnings,
		ownership.PurchaseDate,
		lastEarning,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert share ownership: %w", err)
	}

	return nil
}

// Delete removes a holding outright. Used when a transfer drains a seller to
// zero shares; zero-share rows are never stored.
func (r *ShareOwnershipRepository) Delete(ctx context.Context, userID, fractionalSongID string) error {
	query := `DELETE FROM share_ownerships WHERE user_id = ? AND fractional_song_id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, userID, fractionalSongID)
	if err != nil {
		return fmt.Errorf("failed to delete share ownership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrOwnershipNotFound
	}

	return nil
}

// SetEarnings writes back a holding's accumulated earnings. The new total is
// computed by the caller with exact decimal arithmetic; SQLite numeric
// addition would round.
func (r *ShareOwnershipRepository) SetEarnings(ctx context.Context, id string, totalEarnings decimal.Decimal, earnedAt time.Time) error {
	query := `
		UPDATE share_ownerships
		SET total_earnings = ?,
		    last_earning_date = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, totalEarnings, earnedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update earnings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrOwnershipNotFound
	}

	return nil
}

// CountBySong returns the number of distinct holders in a song.
func (r *ShareOwnershipRepository) CountBySong(fractionalSongID string) (int, error) {
	var count int
	err := r.getQuerier().QueryRow(
		`SELECT COUNT(*) FROM share_ownerships WHERE fractional_song_id = ?`,
		fractionalSongID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count share ownerships: %w", err)
	}
	return count, nil
}

// GetHoldingsByUser retrieves a user's holdings across all songs, enriched
// with contract data for valuation.
func (r *ShareOwnershipRepository) GetHoldingsByUser(userID string) ([]model.Holding, error) {
	if userID == "" {
		return nil, apperrors.ErrEmptyID
	}

	query := `
		SELECT
			o.id, o.fractional_song_id, o.user_id, o.shares_owned,
			o.purchase_price, o.total_earnings, o.purchase_date, o.last_earning_date,
			s.song_id, s.title, s.artist_id, s.current_price_per_share, s.fan_available_shares
		FROM share_ownerships o
		JOIN fractional_songs s ON s.id = o.fractional_song_id
		WHERE o.user_id = ?
		ORDER BY o.purchase_date ASC, o.id ASC
	`

	rows, err := r.getQuerier().Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}

	for rows.Next() {
		var h model.Holding
		var lastEarning sql.NullTime

		err := rows.Scan(
			&h.ID,
			&h.FractionalSongID,
			&h.UserID,
			&h.SharesOwned,
			&h.PurchasePrice,
			&h.TotalEarnings,
			&h.PurchaseDate,
			&lastEarning,
			&h.SongID,
			&h.Title,
			&h.ArtistID,
			&h.CurrentPricePerShare,
			&h.FanAvailableShares,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		h.PurchaseDate = h.PurchaseDate.UTC()
		h.LastEarningDate = nullTimePtr(lastEarning)
		h.CurrentValue = h.CurrentPricePerShare.Mul(decimal.NewFromInt(h.SharesOwned))
		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

func scanOwnership(rows *sql.Rows) (model.ShareOwnership, error) {
	var ownership model.ShareOwnership
	var lastEarning sql.NullTime

	err := rows.Scan(
		&ownership.ID,
		&ownership.FractionalSongID,
		&ownership.UserID,
		&ownership.SharesOwned,
		&ownership.PurchasePrice,
		&ownership.TotalEarnings,
		&ownership.PurchaseDate,
		&lastEarning,
	)
	if err != nil {
		return model.ShareOwnership{}, fmt.Errorf("failed to scan share ownership: %w", err)
	}

	ownership.PurchaseDate = ownership.PurchaseDate.UTC()
	ownership.LastEarningDate = nullTimePtr(lastEarning)
	return ownership, nil
}
