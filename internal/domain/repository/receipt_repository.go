package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/pagination"
)

// ReceiptRepository defines the interface for receipt storage. Receipts are
// never updated; they go away only with the owning account.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Receipt, error)
	// List returns receipts ordered by (created_at DESC, id DESC), strictly
	// after params.After when it is set.
	List(ctx context.Context, params *ReceiptFilterParams) ([]entity.Receipt, error)
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}

// ReceiptFilterParams contains the keyset and date filters for receipts
type ReceiptFilterParams struct {
	OwnerID uuid.UUID
	After   *pagination.Cursor
	Limit   int    // zero means no limit
	From    *int64 // inclusive, epoch ms
	To      *int64 // inclusive, epoch ms
}
