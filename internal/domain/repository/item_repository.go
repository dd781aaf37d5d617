package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/pagination"
)

// ItemRepository defines the interface for inventory item operations.
// Every lookup is scoped to the owning store.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Item, error)
	// GetByIDs retrieves several items of one owner in a single query
	GetByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]entity.Item, error)
	GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
	// List returns up to params.Limit items, newest first, after params.After.
	List(ctx context.Context, params *ItemFilterParams) ([]entity.Item, error)
}

// ItemFilterParams contains the keyset filter for item listings
type ItemFilterParams struct {
	OwnerID uuid.UUID
	After   *pagination.Cursor
	Limit   int
	Search  string // case-insensitive substring of the item name
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a search term into a LIKE pattern matching it as a
// literal substring. Queries using it must declare ESCAPE '\'.
func (p *ItemFilterParams) ContainsPattern() string {
	return "%" + likeEscaper.Replace(p.Search) + "%"
}
