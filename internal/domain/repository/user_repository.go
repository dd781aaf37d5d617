package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
)

// UserRepository stores store accounts. Lookups return nil, nil when no
// account matches.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*entity.User, error)
	// UpdateStore replaces the store name and receipt settings.
	UpdateStore(ctx context.Context, id uuid.UUID, storeName string, config entity.StoreConfig) error
	// LinkProvider attaches an external sign-in id to an existing account.
	LinkProvider(ctx context.Context, id uuid.UUID, providerID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
