package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
)

// IdempotencyRepository stores the first successful response to a retried
// write, keyed per owner.
type IdempotencyRepository interface {
	// GetByKey returns nil, nil for an unknown key.
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	// Reserve inserts a pending key and reports false, without error, when
	// the owner already holds that key.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error)
	// Complete stores the response of a reserved key.
	Complete(ctx context.Context, id uuid.UUID, code int, body string) error
	// Release drops a reservation whose request did not succeed.
	Release(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes keys that expired before the given epoch ms and
	// reports how many went.
	DeleteExpired(ctx context.Context, before int64) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
