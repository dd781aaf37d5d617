package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
)

// DraftRepository keeps receipts that are still being built. Drafts expire
// when left untouched for the store's TTL.
type DraftRepository interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Draft, error)
	Save(ctx context.Context, draft *entity.Draft) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}
