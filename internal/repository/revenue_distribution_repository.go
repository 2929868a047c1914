package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
)

// RevenueDistributionRepository provides data access methods for the
// revenue_distributions and individual_revenue_payouts tables.
type RevenueDistributionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewRevenueDistributionRepository creates a new RevenueDistributionRepository with the provided database connection.
func NewRevenueDistributionRepository(db *sql.DB) *RevenueDistributionRepository {
	return &RevenueDistributionRepository{db: db}
}

// WithTx returns a new RevenueDistributionRepository scoped to the provided transaction.
func (r *RevenueDistributionRepository) WithTx(tx *sql.Tx) *RevenueDistributionRepository {
	return &RevenueDistributionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *RevenueDistributionRepository) getQuerier() interface {
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

// InsertDistribution records a distribution event.
// Returns ErrDuplicateDistribution when the song and period have already been distributed.
func (r *RevenueDistributionRepository) InsertDistribution(ctx context.Context, d model.RevenueDistribution) error {
	query := `
		INSERT INTO revenue_distributions
			(id, fractional_song_id, period_id, total_revenue, platform_fee_pct,
			 distributable, shareholders_count, distribution_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		d.ID,
		d.FractionalSongID,
		d.PeriodID,
		d.TotalRevenue,
		d.PlatformFeePct,
		d.Distributable,
		d.ShareholdersCount,
		d.DistributionDate,
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateDistribution
	}
	if err != nil {
		return fmt.Errorf("failed to insert revenue distribution: %w", err)
	}

	return nil
}

// InsertPayouts records all payout rows of one event in a single statement.
func (r *RevenueDistributionRepository) InsertPayouts(ctx context.Context, payouts []model.IndividualPayout) error {
	if len(payouts) == 0 {
		return nil
	}

	placeholders := make([]string, len(payouts))
	args := make([]any, 0, len(payouts)*8)
	for i, p := range payouts {
		placeholders[i] = "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args,
			p.ID,
			p.RevenueDistributionID,
			p.UserID,
			p.SharesOwnedAtTime,
			p.OwnershipPercentage,
			p.PayoutAmount,
			p.IsArtistResidual,
			p.Status,
		)
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		INSERT INTO individual_revenue_payouts
			(id, revenue_distribution_id, user_id, shares_owned_at_time,
			 ownership_percentage, payout_amount, is_artist_residual, status)
		VALUES ` + strings.Join(placeholders, ", ")

	_, err := r.getQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert revenue payouts: %w", err)
	}

	return nil
}

// GetByID retrieves a distribution event by its ID.
// Returns ErrDistributionNotFound if no event with the given ID exists.
func (r *RevenueDistributionRepository) GetByID(id string) (model.RevenueDistribution, error) {
	if id == "" {
		return model.RevenueDistribution{}, apperrors.ErrEmptyID
	}

	query := `
		SELECT id, fractional_song_id, period_id, total_revenue, platform_fee_pct,
		       distributable, shareholders_count, distribution_date
		FROM revenue_distributions
		WHERE id = ?
	`

	var d model.RevenueDistribution
	err := r.getQuerier().QueryRow(query, id).Scan(
		&d.ID,
		&d.FractionalSongID,
		&d.PeriodID,
		&d.TotalRevenue,
		&d.PlatformFeePct,
		&d.Distributable,
		&d.ShareholdersCount,
		&d.DistributionDate,
	)
	if err == sql.ErrNoRows {
		return model.RevenueDistribution{}, apperrors.ErrDistributionNotFound
	}
	if err != nil {
		return model.RevenueDistribution{}, fmt.Errorf("failed to scan revenue distribution: %w", err)
	}

	d.DistributionDate = d.DistributionDate.UTC()
	return d, nil
}

// ListBySong retrieves all distribution events for one song, newest first.
func (r *RevenueDistributionRepository) ListBySong(fractionalSongID string) ([]model.RevenueDistribution, error) {
	query := `
		SELECT id, fractional_song_id, period_id, total_revenue, platform_fee_pct,
		       distributable, shareholders_count, distribution_date
		FROM revenue_distributions
		WHERE fractional_song_id = ?
		ORDER BY distribution_date DESC, id ASC
	`

	rows, err := r.getQuerier().Query(query, fractionalSongID)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue distributions: %w", err)
	}
	defer rows.Close()

	distributions := []model.RevenueDistribution{}

	for rows.Next() {
		var d model.RevenueDistribution
		err := rows.Scan(
			&d.ID,
			&d.FractionalSongID,
			&d.PeriodID,
			&d.TotalRevenue,
			&d.PlatformFeePct,
			&d.Distributable,
			&d.ShareholdersCount,
			&d.DistributionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revenue distribution: %w", err)
		}
		d.DistributionDate = d.DistributionDate.UTC()
		distributions = append(distributions, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue distributions: %w", err)
	}

	return distributions, nil
}

// GetPayoutsByDistribution retrieves the payout rows of one event, ordered by
// user ID with the artist residual row last.
func (r *RevenueDistributionRepository) GetPayoutsByDistribution(distributionID string) ([]model.IndividualPayout, error) {
	if distributionID == "" {
		return nil, apperrors.ErrEmptyID
	}

	query := `
		SELECT id, revenue_distribution_id, user_id, shares_owned_at_time,
		       ownership_percentage, payout_amount, is_artist_residual, status
		FROM individual_revenue_payouts
		WHERE revenue_distribution_id = ?
		ORDER BY is_artist_residual ASC, user_id ASC
	`

	rows, err := r.getQuerier().Query(query, distributionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue payouts: %w", err)
	}
	defer rows.Close()

	payouts := []model.IndividualPayout{}

	for rows.Next() {
		var p model.IndividualPayout
		err := rows.Scan(
			&p.ID,
			&p.RevenueDistributionID,
			&p.UserID,
			&p.SharesOwnedAtTime,
			&p.OwnershipPercentage,
			&p.PayoutAmount,
			&p.IsArtistResidual,
			&p.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revenue payout: %w", err)
		}
		payouts = append(payouts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue payouts: %w", err)
	}

	return payouts, nil
}

// GetUserEarnings summarises what one user earned from one song: current
// shares (zero once sold out), summed payouts and the latest event date.
// Payout amounts are summed in Go so the total stays exact.
func (r *RevenueDistributionRepository) GetUserEarnings(userID, fractionalSongID string) (model.UserEarnings, error) {
	if userID == "" || fractionalSongID == "" {
		return model.UserEarnings{}, apperrors.ErrEmptyID
	}

	headQuery := `
		SELECT s.song_id, COALESCE(o.shares_owned, 0)
		FROM fractional_songs s
		LEFT JOIN share_ownerships o ON o.fractional_song_id = s.id AND o.user_id = ?
		WHERE s.id = ?
	`

	earnings := model.UserEarnings{
		UserID:           userID,
		FractionalSongID: fractionalSongID,
		TotalEarnings:    decimal.Zero,
	}

	err := r.getQuerier().QueryRow(headQuery, userID, fractionalSongID).Scan(
		&earnings.SongID,
		&earnings.SharesOwned,
	)
	if err == sql.ErrNoRows {
		return model.UserEarnings{}, apperrors.ErrContractNotFound
	}
	if err != nil {
		return model.UserEarnings{}, fmt.Errorf("failed to scan user earnings: %w", err)
	}

	payoutQuery := `
		SELECT p.payout_amount, d.distribution_date
		FROM individual_revenue_payouts p
		JOIN revenue_distributions d ON d.id = p.revenue_distribution_id
		WHERE d.fractional_song_id = ? AND p.user_id = ?
	`

	rows, err := r.getQuerier().Query(payoutQuery, fractionalSongID, userID)
	if err != nil {
		return model.UserEarnings{}, fmt.Errorf("failed to query user payouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var amount decimal.Decimal
		var at time.Time
		if err := rows.Scan(&amount, &at); err != nil {
			return model.UserEarnings{}, fmt.Errorf("failed to scan user payout: %w", err)
		}

		earnings.TotalEarnings = earnings.TotalEarnings.Add(amount)
		earnings.PayoutCount++
		at = at.UTC()
		if earnings.LastEarningDate == nil || at.After(*earnings.LastEarningDate) {
			earnings.LastEarningDate = &at
		}
	}

	if err = rows.Err(); err != nil {
		return model.UserEarnings{}, fmt.Errorf("error iterating user payouts: %w", err)
	}

	return earnings, nil
}
