package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is an inventory entry a store can put on receipts. A non-empty
// barcode is unique per owner.
type Item struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id" db:"id"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_items_owner_barcode,where:barcode <> ''" json:"-" db:"owner_id"`
	Email     string          `gorm:"size:255;not null" json:"email" db:"email"`
	ItemName  string          `gorm:"size:255;not null" json:"itemName" db:"item_name"`
	ItemPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"itemPrice" db:"item_price"`
	Barcode   string          `gorm:"size:128;uniqueIndex:idx_items_owner_barcode,where:barcode <> ''" json:"barcode" db:"barcode"`
	CreatedAt int64           `gorm:"autoCreateTime:milli;index" json:"createdAt" db:"created_at"`
	UpdatedAt int64           `gorm:"autoUpdateTime:milli" json:"-" db:"updated_at"`
}

// Prepare assigns the id and timestamps a new row needs.
func (i *Item) Prepare(now time.Time) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt == 0 {
		i.CreatedAt = now.UnixMilli()
	}
	i.UpdatedAt = now.UnixMilli()
}

// BeforeCreate generates a UUID before creating a new item
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	i.Prepare(time.Now())
	return nil
}

// Cursor is the keyset position of the item in a newest-first listing.
func (i Item) Cursor() pagination.Cursor {
	return pagination.Cursor{ID: i.ID.String(), CreatedAt: i.CreatedAt}
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}
