package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
)

const itemColumns = `id, owner_id, email, item_name, item_price, barcode, created_at, updated_at`

type itemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a SQLite-backed item repository
func NewItemRepository(db *sqlx.DB) domainRepo.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	item.Prepare(time.Now())
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO items(`+itemColumns+`)
		VALUES(:id, :owner_id, :email, :item_name, :item_price, :barcode, :created_at, :updated_at)`, item)
	return err
}

func (r *itemRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Item, error) {
	var item entity.Item
	err := r.db.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return nil, noRows(err)
	}
	return &item, nil
}

func (r *itemRepository) GetByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]entity.Item, error) {
	if len(ids) == 0 {
		return []entity.Item{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? AND id IN (?)`, ownerID, ids)
	if err != nil {
		return nil, err
	}
	var items []entity.Item
	err = r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...)
	return items, err
}

func (r *itemRepository) GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? AND barcode = ?`, ownerID, barcode)
	if err != nil {
		return nil, noRows(err)
	}
	return &item, nil
}

func (r *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	item.UpdatedAt = time.Now().UnixMilli()
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE items SET item_name = :item_name, item_price = :item_price,
		  barcode = :barcode, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`, item)
	return err
}

func (r *itemRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE owner_id = ? AND id = ?`, ownerID, id)
	return err
}

func (r *itemRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE owner_id = ?`, ownerID)
	return err
}

func (r *itemRepository) List(ctx context.Context, params *domainRepo.ItemFilterParams) ([]entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ?`
	args := []interface{}{params.OwnerID}

	if params.Search != "" {
		query += ` AND LOWER(item_name) LIKE LOWER(?) ESCAPE '\'`
		args = append(args, params.ContainsPattern())
	}
	query, args = keyset(query, args, params.After)
	if params.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, params.Limit)
	}

	items := []entity.Item{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}
