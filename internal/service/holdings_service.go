package service

import (
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
)

// HoldingsService serves the cross-song ownership views for one user.
type HoldingsService struct {
	ownershipRepo *repository.ShareOwnershipRepository
}

// NewHoldingsService creates a new HoldingsService with the provided repository dependencies.
func NewHoldingsService(ownershipRepo *repository.ShareOwnershipRepository) *HoldingsService {
	return &HoldingsService{ownershipRepo: ownershipRepo}
}

// GetUserHoldings returns everything a user holds, valued at current prices.
func (s *HoldingsService) GetUserHoldings(userID string) ([]model.Holding, error) {
	return s.ownershipRepo.GetHoldingsByUser(userID)
}
