package service

import (
	"context"
	"time"

	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
)

const snapshotPageSize = 200

// PricingService records the daily share price snapshots that back the
// catalog price charts. Prices themselves only change administratively.
type PricingService struct {
	songRepo  *repository.FractionalSongRepository
	priceRepo *repository.PriceHistoryRepository
}

// NewPricingService creates a new PricingService with the provided repository dependencies.
func NewPricingService(
	songRepo *repository.FractionalSongRepository,
	priceRepo *repository.PriceHistoryRepository,
) *PricingService {
	return &PricingService{
		songRepo:  songRepo,
		priceRepo: priceRepo,
	}
}

// SnapshotPrices writes one price point per contract. Returns the number of
// contracts snapshotted.
func (s *PricingService) SnapshotPrices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	count := 0

	for offset := 0; ; offset += snapshotPageSize {
		songs, err := s.songRepo.List(snapshotPageSize, offset)
		if err != nil {
			return count, err
		}
		if len(songs) == 0 {
			return count, nil
		}

		for _, song := range songs {
			if err := s.priceRepo.Insert(ctx, song.ID, song.CurrentPricePerShare, model.PriceReasonSnapshot, now); err != nil {
				return count, err
			}
			count++
		}

		if len(songs) < snapshotPageSize {
			return count, nil
		}
	}
}
