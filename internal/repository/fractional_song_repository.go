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

// FractionalSongRepository provides data access methods for the fractional_songs table.
type FractionalSongRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewFractionalSongRepository creates a new FractionalSongRepository with the provided database connection.
func NewFractionalSongRepository(db *sql.DB) *FractionalSongRepository {
	return &FractionalSongRepository{db: db}
}

// WithTx returns a new FractionalSongRepository scoped to the provided transaction.
func (r *FractionalSongRepository) WithTx(tx *sql.Tx) *FractionalSongRepository {
	return &FractionalSongRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *FractionalSongRepository) getQuerier() interface {
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

const fractionalSongColumns = `
	id, song_id, artist_id, title,
	total_shares, artist_reserved_shares, fan_available_shares, available_shares,
	current_price_per_share, artist_revenue_percentage,
	created_at, updated_at
`

// Insert creates a new ownership contract row.
// Returns ErrDuplicateContract if a contract already exists for the song.
func (r *FractionalSongRepository) Insert(ctx context.Context, song model.FractionalSong) error {
	query := `
		INSERT INTO fractional_songs (` + fractionalSongColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		song.ID,
		song.SongID,
		song.ArtistID,
		song.Title,
		song.TotalShares,
		song.ArtistReservedShares,
		song.FanAvailableShares,
		song.AvailableShares,
		song.CurrentPricePerShare,
		song.ArtistRevenuePercentage,
		song.CreatedAt,
		song.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateContract
	}
	if err != nil {
		return fmt.Errorf("failed to insert fractional song: %w", err)
	}

	return nil
}

// GetByID retrieves a contract by its row ID.
// Returns ErrContractNotFound if no contract with the given ID exists.
func (r *FractionalSongRepository) GetByID(id string) (model.FractionalSong, error) {
	if id == "" {
		return model.FractionalSong{}, apperrors.ErrEmptyID
	}

	query := `SELECT ` + fractionalSongColumns + ` FROM fractional_songs WHERE id = ?`
	return r.scanOne(r.getQuerier().QueryRow(query, id))
}

// GetBySongID retrieves the contract covering a catalog song.
// Returns ErrContractNotFound if the song has no contract.
func (r *FractionalSongRepository) GetBySongID(songID string) (model.FractionalSong, error) {
	if songID == "" {
		return model.FractionalSong{}, apperrors.ErrEmptyID
	}

	query := `SELECT ` + fractionalSongColumns + ` FROM fractional_songs WHERE song_id = ?`
	return r.scanOne(r.getQuerier().QueryRow(query, songID))
}

func (r *FractionalSongRepository) scanOne(row *sql.Row) (model.FractionalSong, error) {
	var song model.FractionalSong
	err := row.Scan(
		&song.ID,
		&song.SongID,
		&song.ArtistID,
		&song.Title,
		&song.TotalShares,
		&song.ArtistReservedShares,
		&song.FanAvailableShares,
		&song.AvailableShares,
		&song.CurrentPricePerShare,
		&song.ArtistRevenuePercentage,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return model.FractionalSong{}, apperrors.ErrContractNotFound
	}
	if err != nil {
		return model.FractionalSong{}, fmt.Errorf("failed to scan fractional song: %w", err)
	}

	song.CreatedAt = song.CreatedAt.UTC()
	song.UpdatedAt = song.UpdatedAt.UTC()
	return song, nil
}

// List retrieves one page of contracts ordered by creation date, newest first.
func (r *FractionalSongRepository) List(limit, offset int) ([]model.FractionalSong, error) {
	query := `
		SELECT ` + fractionalSongColumns + `
		FROM fractional_songs
		ORDER BY created_at DESC, id ASC
		LIMIT ? OFFSET ?
	`

	return r.scanMany(query, limit, offset)
}

// ListByArtist retrieves all contracts issued by one artist.
func (r *FractionalSongRepository) ListByArtist(artistID string) ([]model.FractionalSong, error) {
	if artistID == "" {
		return nil, apperrors.ErrEmptyID
	}

	query := `
		SELECT ` + fractionalSongColumns + `
		FROM fractional_songs
		WHERE artist_id = ?
		ORDER BY created_at DESC, id ASC
	`

	return r.scanMany(query, artistID)
}

func (r *FractionalSongRepository) scanMany(query string, args ...any) ([]model.FractionalSong, error) {
	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fractional songs: %w", err)
	}
	defer rows.Close()

	songs := []model.FractionalSong{}

	for rows.Next() {
		var song model.FractionalSong
		err := rows.Scan(
			&song.ID,
			&song.SongID,
			&song.ArtistID,
			&song.Title,
			&song.TotalShares,
			&song.ArtistReservedShares,
			&song.FanAvailableShares,
			&song.AvailableShares,
			&song.CurrentPricePerShare,
			&song.ArtistRevenuePercentage,
			&song.CreatedAt,
			&song.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fractional song: %w", err)
		}
		song.CreatedAt = song.CreatedAt.UTC()
		song.UpdatedAt = song.UpdatedAt.UTC()
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fractional songs: %w", err)
	}

	return songs, nil
}

// Count returns the total number of contracts.
func (r *FractionalSongRepository) Count() (int, error) {
	var count int
	err := r.getQuerier().QueryRow(`SELECT COUNT(*) FROM fractional_songs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fractional songs: %w", err)
	}
	return count, nil
}

// UpdatePool writes back available_shares after a purchase.
func (r *FractionalSongRepository) UpdatePool(ctx context.Context, id string, availableShares int64, updatedAt time.Time) error {
	query := `
		UPDATE fractional_songs
		SET available_shares = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, availableShares, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update share pool: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrContractNotFound
	}

	return nil
}

// UpdatePrice sets a new administrative share price.
func (r *FractionalSongRepository) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, updatedAt time.Time) error {
	query := `
		UPDATE fractional_songs
		SET current_price_per_share = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, price, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update share price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrContractNotFound
	}

	return nil
}

// Delete tears down a contract. Ownership, transaction, distribution and
// price history rows cascade with it.
// Returns ErrContractNotFound if no contract with the given ID exists.
func (r *FractionalSongRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM fractional_songs WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete fractional song: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrContractNotFound
	}

	return nil
}
