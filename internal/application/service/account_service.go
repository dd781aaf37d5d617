package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/enum"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/utils"
)

// AccountService removes store accounts
type AccountService struct {
	userRepo        repository.UserRepository
	itemRepo        repository.ItemRepository
	receiptRepo     repository.ReceiptRepository
	draftRepo       repository.DraftRepository
	idempotencyRepo repository.IdempotencyRepository
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo repository.UserRepository,
	itemRepo repository.ItemRepository,
	receiptRepo repository.ReceiptRepository,
	draftRepo repository.DraftRepository,
	idempotencyRepo repository.IdempotencyRepository,
) *AccountService {
	return &AccountService{
		userRepo:        userRepo,
		itemRepo:        itemRepo,
		receiptRepo:     receiptRepo,
		draftRepo:       draftRepo,
		idempotencyRepo: idempotencyRepo,
	}
}

// DeleteAccountInput represents the delete account input. Password is
// required for accounts that sign in with one.
type DeleteAccountInput struct {
	UserID   uuid.UUID
	Password string
}

// DeleteAccount removes the account with its receipts, items and drafts.
// A failure part way leaves the account in place so the call can be retried.
func (s *AccountService) DeleteAccount(ctx context.Context, input *DeleteAccountInput) error {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return unavailable("get account", err)
	}
	if user == nil {
		return apperror.ErrNotFound
	}
	if user.Provider == enum.AuthProviderLocal && !utils.CheckPasswordHash(input.Password, user.Password) {
		return apperror.ErrInvalidCredentials
	}

	if err := s.receiptRepo.DeleteByOwner(ctx, user.ID); err != nil {
		return unavailable("delete receipts", err)
	}
	if err := s.itemRepo.DeleteByOwner(ctx, user.ID); err != nil {
		return unavailable("delete items", err)
	}
	if err := s.draftRepo.DeleteByOwner(ctx, user.ID); err != nil {
		return unavailable("delete drafts", err)
	}
	if err := s.idempotencyRepo.DeleteByUser(ctx, user.ID); err != nil {
		return unavailable("delete idempotency keys", err)
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return unavailable("delete account", err)
	}
	return nil
}
