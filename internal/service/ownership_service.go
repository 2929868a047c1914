package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tunevest/songshare-ledger/internal/api/request"
	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/database"
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/repository"
)

// OwnershipService handles contract issue, share purchases and transfers.
// Every mutation runs inside one database transaction, serialised per song
// by the shared lock manager.
type OwnershipService struct {
	db              *sql.DB
	songRepo        *repository.FractionalSongRepository
	ownershipRepo   *repository.ShareOwnershipRepository
	transactionRepo *repository.ShareTransactionRepository
	priceRepo       *repository.PriceHistoryRepository
	outboxRepo      *repository.OutboxRepository
	locks           *SongLocks
}

// NewOwnershipService creates a new OwnershipService with the provided repository dependencies.
func NewOwnershipService(
	db *sql.DB,
	songRepo *repository.FractionalSongRepository,
	ownershipRepo *repository.ShareOwnershipRepository,
	transactionRepo *repository.ShareTransactionRepository,
	priceRepo *repository.PriceHistoryRepository,
	outboxRepo *repository.OutboxRepository,
	locks *SongLocks,
) *OwnershipService {
	return &OwnershipService{
		db:              db,
		songRepo:        songRepo,
		ownershipRepo:   ownershipRepo,
		transactionRepo: transactionRepo,
		priceRepo:       priceRepo,
		outboxRepo:      outboxRepo,
		locks:           locks,
	}
}

// IssueContract creates the ownership contract for a song. One contract per
// song; the fan pool starts fully available.
func (s *OwnershipService) IssueContract(ctx context.Context, req request.IssueContractRequest) (*model.FractionalSong, error) {
	price, err := model.ParseSharePrice(req.PricePerShare)
	if err != nil {
		return nil, err
	}
	revenuePct, err := model.ParseOwnershipPercentage(req.ArtistRevenuePercentage)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	song, err := NewContract(req.SongID, req.ArtistID, req.Title,
		req.TotalShares, req.ArtistReservedShares, price, revenuePct, now)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.songRepo.WithTx(tx).Insert(ctx, song); err != nil {
			return err
		}
		if err := s.priceRepo.WithTx(tx).Insert(ctx, song.ID, song.CurrentPricePerShare, model.PriceReasonIssued, now); err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Insert(ctx, model.EventContractIssued, song.ID, model.ContractIssuedEvent{
			FractionalSongID:   song.ID,
			SongID:             song.SongID,
			ArtistID:           song.ArtistID,
			TotalShares:        song.TotalShares,
			FanAvailableShares: song.FanAvailableShares,
			PricePerShare:      song.CurrentPricePerShare,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	return &song, nil
}

// GetContract returns one contract with its holder breakdown.
func (s *OwnershipService) GetContract(contractID string) (*model.ContractDetail, error) {
	song, err := s.songRepo.GetByID(contractID)
	if err != nil {
		return nil, err
	}

	holders, err := s.ownershipRepo.GetBySong(contractID)
	if err != nil {
		return nil, err
	}

	return &model.ContractDetail{
		FractionalSong: song,
		SaleStatus:     song.SaleStatus(),
		SoldShares:     song.SoldShares(),
		Holders:        holders,
	}, nil
}

// PurchaseShares sells shares from the pool to a buyer. A repeated
// idempotency key returns the originally completed transaction without
// applying anything twice.
func (s *OwnershipService) PurchaseShares(ctx context.Context, contractID string, req request.PurchaseSharesRequest) (*model.ShareTransaction, error) {
	maxPrice, err := model.ParseSharePrice(req.MaxPricePerShare)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(contractID)
	defer unlock()

	if req.IdempotencyKey != "" {
		existing, err := s.replayedTransaction(req.IdempotencyKey, contractID, model.TransactionTypePurchase)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	now := time.Now().UTC()
	var result model.ShareTransaction

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		agg, err := s.loadAggregate(tx, contractID)
		if err != nil {
			return err
		}

		transaction, ownership, err := agg.Purchase(req.BuyerID, req.SharesQuantity, maxPrice, now)
		if err != nil {
			return err
		}
		transaction.IdempotencyKey = req.IdempotencyKey

		transactionRepo := s.transactionRepo.WithTx(tx)
		if err := transactionRepo.Insert(ctx, transaction); err != nil {
			return err
		}
		if err := s.songRepo.WithTx(tx).UpdatePool(ctx, agg.Song.ID, agg.Song.AvailableShares, now); err != nil {
			return err
		}
		if err := s.ownershipRepo.WithTx(tx).Upsert(ctx, ownership); err != nil {
			return err
		}
		if err := transactionRepo.MarkCompleted(ctx, transaction.ID, now); err != nil {
			return err
		}

		err = s.outboxRepo.WithTx(tx).Insert(ctx, model.EventSharesPurchased, agg.Song.ID, model.SharesPurchasedEvent{
			TransactionID:    transaction.ID,
			FractionalSongID: agg.Song.ID,
			BuyerID:          transaction.BuyerID,
			SharesQuantity:   transaction.SharesQuantity,
			PricePerShare:    transaction.PricePerShare,
			TotalAmount:      transaction.TotalAmount,
			AvailableShares:  agg.Song.AvailableShares,
		}, now)
		if err != nil {
			return err
		}

		transaction.Status = model.TransactionStatusCompleted
		transaction.CompletedAt = &now
		result = transaction
		return nil
	})
	if err != nil {
		s.recordFailedAttempt(ctx, contractID, model.TransactionTypePurchase, req.BuyerID, "", req.SharesQuantity, err)
		return nil, err
	}

	return &result, nil
}

// TransferShares moves shares between two users at an agreed price. The pool
// is not touched; the contract's sale state cannot change here.
func (s *OwnershipService) TransferShares(ctx context.Context, contractID string, req request.TransferSharesRequest) (*model.ShareTransaction, error) {
	price, err := model.ParseSharePrice(req.PricePerShare)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(contractID)
	defer unlock()

	if req.IdempotencyKey != "" {
		existing, err := s.replayedTransaction(req.IdempotencyKey, contractID, model.TransactionTypeTransfer)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	now := time.Now().UTC()
	var result model.ShareTransaction

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		agg, err := s.loadAggregate(tx, contractID)
		if err != nil {
			return err
		}

		transaction, seller, buyer, sellerDrained, err := agg.Transfer(req.SellerID, req.BuyerID, req.SharesQuantity, price, now)
		if err != nil {
			return err
		}
		transaction.IdempotencyKey = req.IdempotencyKey

		transactionRepo := s.transactionRepo.WithTx(tx)
		ownershipRepo := s.ownershipRepo.WithTx(tx)

		if err := transactionRepo.Insert(ctx, transaction); err != nil {
			return err
		}
		if sellerDrained {
			if err := ownershipRepo.Delete(ctx, seller.UserID, agg.Song.ID); err != nil {
				return err
			}
		} else {
			if err := ownershipRepo.Upsert(ctx, seller); err != nil {
				return err
			}
		}
		if err := ownershipRepo.Upsert(ctx, buyer); err != nil {
			return err
		}
		if err := transactionRepo.MarkCompleted(ctx, transaction.ID, now); err != nil {
			return err
		}

		err = s.outboxRepo.WithTx(tx).Insert(ctx, model.EventSharesTransferred, agg.Song.ID, model.SharesTransferredEvent{
			TransactionID:    transaction.ID,
			FractionalSongID: agg.Song.ID,
			SellerID:         transaction.SellerID,
			BuyerID:          transaction.BuyerID,
			SharesQuantity:   transaction.SharesQuantity,
			PricePerShare:    transaction.PricePerShare,
			TotalAmount:      transaction.TotalAmount,
		}, now)
		if err != nil {
			return err
		}

		transaction.Status = model.TransactionStatusCompleted
		transaction.CompletedAt = &now
		result = transaction
		return nil
	})
	if err != nil {
		s.recordFailedAttempt(ctx, contractID, model.TransactionTypeTransfer, req.BuyerID, req.SellerID, req.SharesQuantity, err)
		return nil, err
	}

	return &result, nil
}

// SetPrice records an administrative price change and its history point.
func (s *OwnershipService) SetPrice(ctx context.Context, contractID string, req request.UpdatePriceRequest) (*model.FractionalSong, error) {
	price, err := model.ParseSharePrice(req.PricePerShare)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(contractID)
	defer unlock()

	now := time.Now().UTC()
	var updated model.FractionalSong

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		songRepo := s.songRepo.WithTx(tx)

		song, err := songRepo.GetByID(contractID)
		if err != nil {
			return err
		}

		if err := songRepo.UpdatePrice(ctx, song.ID, price.Decimal(), now); err != nil {
			return err
		}
		if err := s.priceRepo.WithTx(tx).Insert(ctx, song.ID, price.Decimal(), model.PriceReasonAdminUpdate, now); err != nil {
			return err
		}

		song.CurrentPricePerShare = price.Decimal()
		song.UpdatedAt = now
		updated = song
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Teardown deletes a contract and its cascading history. Refused while any
// shareholder still holds shares.
func (s *OwnershipService) Teardown(ctx context.Context, contractID string) error {
	unlock := s.locks.Lock(contractID)
	defer unlock()

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		songRepo := s.songRepo.WithTx(tx)

		song, err := songRepo.GetByID(contractID)
		if err != nil {
			return err
		}

		holders, err := s.ownershipRepo.WithTx(tx).CountBySong(song.ID)
		if err != nil {
			return err
		}
		if holders > 0 {
			return apperrors.ErrContractInUse
		}

		return songRepo.Delete(ctx, song.ID)
	})
}

// GetTransactionsBySong returns a song's transaction history, newest first.
func (s *OwnershipService) GetTransactionsBySong(contractID string) ([]model.ShareTransaction, error) {
	if _, err := s.songRepo.GetByID(contractID); err != nil {
		return nil, err
	}
	return s.transactionRepo.ListBySong(contractID)
}

// GetTransactionsByUser returns every transaction a user took part in.
func (s *OwnershipService) GetTransactionsByUser(userID string) ([]model.ShareTransaction, error) {
	return s.transactionRepo.ListByUser(userID)
}

// loadAggregate reconstructs the consistency boundary for one song inside
// the current transaction and refuses to hand out corrupt state.
func (s *OwnershipService) loadAggregate(tx *sql.Tx, contractID string) (*OwnershipAggregate, error) {
	song, err := s.songRepo.WithTx(tx).GetByID(contractID)
	if err != nil {
		return nil, err
	}

	ownerships, err := s.ownershipRepo.WithTx(tx).GetBySong(song.ID)
	if err != nil {
		return nil, err
	}

	agg := &OwnershipAggregate{Song: song, Ownerships: ownerships}
	if err := agg.VerifyIntegrity(); err != nil {
		return nil, err
	}
	return agg, nil
}

// replayedTransaction resolves an idempotency key seen before. Completed
// transactions are returned as-is; a key bound to a different song or
// operation type is a caller bug.
func (s *OwnershipService) replayedTransaction(key, contractID, transactionType string) (*model.ShareTransaction, error) {
	existing, err := s.transactionRepo.GetByIdempotencyKey(key)
	if errors.Is(err, apperrors.ErrTransactionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if existing.FractionalSongID != contractID || existing.Type != transactionType {
		return nil, fmt.Errorf("%w: idempotency key already used by another operation", apperrors.ErrDuplicateEntry)
	}
	if existing.Status != model.TransactionStatusCompleted {
		return nil, fmt.Errorf("%w: idempotency key already used by another operation", apperrors.ErrDuplicateEntry)
	}
	return &existing, nil
}

// recordFailedAttempt appends a failed transaction for audit after the
// mutation rolled back. Only business rejections are recorded; the aggregate
// state itself is untouched. Failed records never carry the caller's
// idempotency key, so a retry executes fresh.
func (s *OwnershipService) recordFailedAttempt(ctx context.Context, contractID, transactionType, buyerID, sellerID string, quantity int64, cause error) {
	if !errors.Is(cause, apperrors.ErrInsufficientShares) && !errors.Is(cause, apperrors.ErrPriceExceeded) {
		return
	}

	song, err := s.songRepo.GetByID(contractID)
	if err != nil {
		log.Printf("failed to record failed %s attempt: %v", transactionType, err)
		return
	}

	price, err := model.NewSharePrice(song.CurrentPricePerShare)
	if err != nil {
		log.Printf("failed to record failed %s attempt: %v", transactionType, err)
		return
	}

	failed := model.ShareTransaction{
		ID:               uuid.New().String(),
		Type:             transactionType,
		FractionalSongID: contractID,
		BuyerID:          buyerID,
		SellerID:         sellerID,
		SharesQuantity:   quantity,
		PricePerShare:    price.Decimal(),
		TotalAmount:      price.MulQuantity(quantity),
		Status:           model.TransactionStatusFailed,
		FailureReason:    cause.Error(),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.transactionRepo.Insert(ctx, failed); err != nil {
		log.Printf("failed to record failed %s attempt: %v", transactionType, err)
	}
}
