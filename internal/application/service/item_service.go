package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ItemService handles inventory item operations
type ItemService struct {
	itemRepo repository.ItemRepository
}

// NewItemService creates a new item service
func NewItemService(itemRepo repository.ItemRepository) *ItemService {
	return &ItemService{itemRepo: itemRepo}
}

// CreateItemInput represents the create item input
type CreateItemInput struct {
	OwnerID   uuid.UUID
	Email     string
	ItemName  string
	ItemPrice decimal.Decimal
	Barcode   string
}

func validateItem(name string, price decimal.Decimal) error {
	var fieldErrors []apperror.FieldError
	if name == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "itemName", Message: "Item name is required"})
	}
	if price.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "itemPrice", Message: "Price cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// ensureBarcodeFree fails when another item of the owner uses barcode.
func (s *ItemService) ensureBarcodeFree(ctx context.Context, ownerID uuid.UUID, barcode string, self uuid.UUID) error {
	if barcode == "" {
		return nil
	}
	existing, err := s.itemRepo.GetByBarcode(ctx, ownerID, barcode)
	if err != nil {
		return unavailable("item barcode lookup", err)
	}
	if existing != nil && existing.ID != self {
		return apperror.NewConflictError("An item with this barcode already exists")
	}
	return nil
}

// CreateItem adds an item to the owner's inventory
func (s *ItemService) CreateItem(ctx context.Context, input *CreateItemInput) (*entity.Item, error) {
	name := strings.TrimSpace(input.ItemName)
	barcode := strings.TrimSpace(input.Barcode)
	if err := validateItem(name, input.ItemPrice); err != nil {
		return nil, err
	}
	if err := s.ensureBarcodeFree(ctx, input.OwnerID, barcode, uuid.Nil); err != nil {
		return nil, err
	}

	item := &entity.Item{
		OwnerID:   input.OwnerID,
		Email:     input.Email,
		ItemName:  name,
		ItemPrice: entity.RoundMoney(input.ItemPrice),
		Barcode:   barcode,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, unavailable("create item", err)
	}
	return item, nil
}

// GetItem retrieves one of the owner's items
func (s *ItemService) GetItem(ctx context.Context, ownerID, id uuid.UUID) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, unavailable("get item", err)
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Item")
	}
	return item, nil
}

// GetItemByBarcode looks up an item by its scanned code
func (s *ItemService) GetItemByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*entity.Item, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperror.NewFieldError("barcode", "Barcode is required")
	}
	item, err := s.itemRepo.GetByBarcode(ctx, ownerID, barcode)
	if err != nil {
		return nil, unavailable("get item by barcode", err)
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Item with this barcode")
	}
	return item, nil
}

// ListItemsInput holds the cursor and search for an item listing
type ListItemsInput struct {
	OwnerID uuid.UUID
	Cursor  pagination.CursorParams
	Search  string
}

// ListItems lists the owner's items newest first
func (s *ItemService) ListItems(ctx context.Context, input *ListItemsInput) (*pagination.CursorPaginatedResult[entity.Item], error) {
	input.Cursor.Validate()
	after, err := input.Cursor.DecodeCursor()
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid cursor")
	}

	items, err := s.itemRepo.List(ctx, &repository.ItemFilterParams{
		OwnerID: input.OwnerID,
		After:   after,
		Limit:   input.Cursor.Limit + 1,
		Search:  strings.TrimSpace(input.Search),
	})
	if err != nil {
		return nil, unavailable("list items", err)
	}

	pag, page := pagination.NewCursorPagination(items, input.Cursor.Limit, entity.Item.Cursor)
	return pagination.NewCursorPaginatedResult(page, pag), nil
}

// UpdateItemInput represents the update item input. Nil fields are left as they are.
type UpdateItemInput struct {
	OwnerID   uuid.UUID
	ItemID    uuid.UUID
	ItemName  *string
	ItemPrice *decimal.Decimal
	Barcode   *string
}

// UpdateItem edits an item. Receipts already written keep their snapshot.
func (s *ItemService) UpdateItem(ctx context.Context, input *UpdateItemInput) (*entity.Item, error) {
	item, err := s.GetItem(ctx, input.OwnerID, input.ItemID)
	if err != nil {
		return nil, err
	}

	if input.ItemName != nil {
		item.ItemName = strings.TrimSpace(*input.ItemName)
	}
	if input.ItemPrice != nil {
		item.ItemPrice = entity.RoundMoney(*input.ItemPrice)
	}
	if err := validateItem(item.ItemName, item.ItemPrice); err != nil {
		return nil, err
	}
	if input.Barcode != nil {
		barcode := strings.TrimSpace(*input.Barcode)
		if err := s.ensureBarcodeFree(ctx, input.OwnerID, barcode, item.ID); err != nil {
			return nil, err
		}
		item.Barcode = barcode
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, unavailable("update item", err)
	}
	return item, nil
}

// DeleteItem removes an item from the inventory
func (s *ItemService) DeleteItem(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.GetItem(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.itemRepo.Delete(ctx, ownerID, id); err != nil {
		return unavailable("delete item", err)
	}
	return nil
}
