package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogService serves read-side views of the contract catalog: paginated
// browsing, artist listings and price charts.
type CatalogService struct {
	songRepo      *repository.FractionalSongRepository
	ownershipRepo *repository.ShareOwnershipRepository
	priceRepo     *repository.PriceHistoryRepository
}

// NewCatalogService creates a new CatalogService with the provided repository dependencies.
func NewCatalogService(
	songRepo *repository.FractionalSongRepository,
	ownershipRepo *repository.ShareOwnershipRepository,
	priceRepo *repository.PriceHistoryRepository,
) *CatalogService {
	return &CatalogService{
		songRepo:      songRepo,
		ownershipRepo: ownershipRepo,
		priceRepo:     priceRepo,
	}
}

// GetCatalog returns one page of contracts with holder counts and market
// value. Holder counts are fanned out per contract.
func (s *CatalogService) GetCatalog(ctx context.Context, page, pageSize int) (*model.CatalogPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	songs, err := s.songRepo.List(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	total, err := s.songRepo.Count()
	if err != nil {
		return nil, err
	}

	entries, err := s.buildEntries(ctx, songs)
	if err != nil {
		return nil, err
	}

	return &model.CatalogPage{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// GetArtistContracts returns every contract issued by one artist.
func (s *CatalogService) GetArtistContracts(ctx context.Context, artistID string) ([]model.CatalogEntry, error) {
	songs, err := s.songRepo.ListByArtist(artistID)
	if err != nil {
		return nil, err
	}
	return s.buildEntries(ctx, songs)
}

// GetPriceHistory returns a song's recorded price points, oldest first.
func (s *CatalogService) GetPriceHistory(contractID string, from, to *time.Time) ([]model.PricePoint, error) {
	if _, err := s.songRepo.GetByID(contractID); err != nil {
		return nil, err
	}
	return s.priceRepo.ListBySong(contractID, from, to)
}

func (s *CatalogService) buildEntries(ctx context.Context, songs []model.FractionalSong) ([]model.CatalogEntry, error) {
	entries := make([]model.CatalogEntry, len(songs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, song := range songs {
		i, song := i, song
		g.Go(func() error {
			holders, err := s.ownershipRepo.CountBySong(song.ID)
			if err != nil {
				return err
			}
			entries[i] = model.CatalogEntry{
				FractionalSong: song,
				SaleStatus:     song.SaleStatus(),
				SoldShares:     song.SoldShares(),
				HoldersCount:   holders,
				MarketValue:    song.MarketValue(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
