package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/api/request"
	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/database"
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
)

// DistributionService runs revenue distribution events and serves their
// history. Distribution shares the per-song lock manager with trading, so a
// distribution never interleaves with a purchase on the same song.
type DistributionService struct {
	db            *sql.DB
	songRepo      *repository.FractionalSongRepository
	ownershipRepo *repository.ShareOwnershipRepository
	distRepo      *repository.RevenueDistributionRepository
	outboxRepo    *repository.OutboxRepository
	locks         *SongLocks
	defaultFeePct decimal.Decimal
}

// NewDistributionService creates a new DistributionService with the provided repository dependencies.
func NewDistributionService(
	db *sql.DB,
	songRepo *repository.FractionalSongRepository,
	ownershipRepo *repository.ShareOwnershipRepository,
	distRepo *repository.RevenueDistributionRepository,
	outboxRepo *repository.OutboxRepository,
	locks *SongLocks,
	defaultFeePct decimal.Decimal,
) *DistributionService {
	return &DistributionService{
		db:            db,
		songRepo:      songRepo,
		ownershipRepo: ownershipRepo,
		distRepo:      distRepo,
		outboxRepo:    outboxRepo,
		locks:         locks,
		defaultFeePct: defaultFeePct,
	}
}

// DistributeRevenue distributes one revenue period across a song's current
// shareholders. Per (song, period) the event runs exactly once; repeats fail
// with ErrDuplicateDistribution. The payout rows sum to the distributable
// pot exactly.
func (s *DistributionService) DistributeRevenue(ctx context.Context, contractID string, req request.DistributeRevenueRequest) (*model.DistributionResult, error) {
	if req.PeriodID == "" {
		return nil, fmt.Errorf("%w: period ID", apperrors.ErrMissingRequiredField)
	}

	totalRevenue, err := model.ParseRevenueAmount(req.TotalRevenue)
	if err != nil {
		return nil, err
	}
	if totalRevenue.IsZero() {
		return nil, apperrors.ErrInvalidAmount
	}

	feePct, err := s.resolveFeePct(req.PlatformFeePct)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(contractID)
	defer unlock()

	now := time.Now().UTC()
	var result model.DistributionResult

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		song, err := s.songRepo.WithTx(tx).GetByID(contractID)
		if err != nil {
			return err
		}

		holders, err := s.ownershipRepo.WithTx(tx).GetBySong(song.ID)
		if err != nil {
			return err
		}
		if len(holders) == 0 {
			return apperrors.ErrNoShareholders
		}

		distributable := distributableAmount(totalRevenue, feePct)
		if !distributable.IsPositive() {
			return fmt.Errorf("%w: revenue too small to distribute after fees", apperrors.ErrBusinessRuleViolation)
		}

		distribution := newDistribution(song, req.PeriodID, totalRevenue, feePct, distributable, len(holders), now)
		payouts, err := allocatePayouts(distribution.ID, song, holders, distributable)
		if err != nil {
			return err
		}

		distRepo := s.distRepo.WithTx(tx)
		if err := distRepo.InsertDistribution(ctx, distribution); err != nil {
			return err
		}
		if err := distRepo.InsertPayouts(ctx, payouts); err != nil {
			return err
		}

		ownershipRepo := s.ownershipRepo.WithTx(tx)
		for _, payout := range payouts {
			if payout.IsArtistResidual || !payout.PayoutAmount.IsPositive() {
				continue
			}
			for _, holder := range holders {
				if holder.UserID != payout.UserID {
					continue
				}
				newTotal := holder.TotalEarnings.Add(payout.PayoutAmount)
				if err := ownershipRepo.SetEarnings(ctx, holder.ID, newTotal, now); err != nil {
					return err
				}
				break
			}
		}

		err = s.outboxRepo.WithTx(tx).Insert(ctx, model.EventRevenueDistributed, song.ID, model.RevenueDistributedEvent{
			DistributionID:    distribution.ID,
			FractionalSongID:  song.ID,
			PeriodID:          distribution.PeriodID,
			TotalRevenue:      distribution.TotalRevenue,
			Distributable:     distribution.Distributable,
			ShareholdersCount: distribution.ShareholdersCount,
		}, now)
		if err != nil {
			return err
		}

		result = model.DistributionResult{Distribution: distribution, Payouts: payouts}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetDistributions returns a song's distribution events, newest first.
func (s *DistributionService) GetDistributions(contractID string) ([]model.RevenueDistribution, error) {
	if _, err := s.songRepo.GetByID(contractID); err != nil {
		return nil, err
	}
	return s.distRepo.ListBySong(contractID)
}

// GetPayouts returns the payout rows of one distribution event.
func (s *DistributionService) GetPayouts(distributionID string) (*model.DistributionResult, error) {
	distribution, err := s.distRepo.GetByID(distributionID)
	if err != nil {
		return nil, err
	}

	payouts, err := s.distRepo.GetPayoutsByDistribution(distribution.ID)
	if err != nil {
		return nil, err
	}

	return &model.DistributionResult{Distribution: distribution, Payouts: payouts}, nil
}

// GetUserEarnings summarises one user's earnings from one song.
func (s *DistributionService) GetUserEarnings(userID, contractID string) (*model.UserEarnings, error) {
	earnings, err := s.distRepo.GetUserEarnings(userID, contractID)
	if err != nil {
		return nil, err
	}
	return &earnings, nil
}

// resolveFeePct parses the request fee or falls back to the configured
// default. A fee must sit in [0, 1); a 100% fee would leave nothing to
// distribute.
func (s *DistributionService) resolveFeePct(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return s.defaultFeePct, nil
	}

	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.ErrInvalidPercentage
	}
	if fee.IsNegative() || fee.GreaterThanOrEqual(one) {
		return decimal.Zero, apperrors.ErrInvalidPercentage
	}
	return fee, nil
}
