package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LineItem is one selected item in a receipt being built: a snapshot of the
// item at selection time plus a quantity of at least 1.
type LineItem struct {
	ItemID    uuid.UUID       `json:"itemId"`
	ItemName  string          `json:"itemName"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
	Barcode   string          `json:"barcode"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.ItemPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ReceiptLine is the frozen copy of a line stored on a receipt.
type ReceiptLine struct {
	ItemName  string          `json:"itemName"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
	Barcode   string          `json:"barcode"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (l ReceiptLine) Subtotal() decimal.Decimal {
	return l.ItemPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Receipt is an immutable sale record. Lines are snapshots, so later item
// edits never change it.
type Receipt struct {
	ID             uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id" db:"id"`
	OwnerID        uuid.UUID                        `gorm:"type:uuid;not null;index:idx_receipts_owner_created,priority:1" json:"-" db:"owner_id"`
	Email          string                           `gorm:"size:255;not null" json:"email" db:"email"`
	CustomerName   string                           `gorm:"size:255;not null" json:"customerName" db:"customer_name"`
	CustomerMobile string                           `gorm:"size:32" json:"customerMobile" db:"customer_mobile"`
	Items          datatypes.JSONSlice[ReceiptLine] `gorm:"not null" json:"items" db:"items"`
	Total          decimal.Decimal                  `gorm:"type:numeric(14,2);not null" json:"total" db:"total"`
	CreatedAt      int64                            `gorm:"autoCreateTime:milli;index:idx_receipts_owner_created,priority:2" json:"createdAt" db:"created_at"`
}

// Prepare assigns the id and creation time a new receipt needs. Receipt ids
// are UUIDv7 so they also sort by time.
func (r *Receipt) Prepare(now time.Time) error {
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = now.UnixMilli()
	}
	if r.Items == nil {
		r.Items = datatypes.JSONSlice[ReceiptLine]{}
	}
	return nil
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	return r.Prepare(time.Now())
}

// Cursor is the keyset position of the receipt in a newest-first listing.
func (r Receipt) Cursor() pagination.Cursor {
	return pagination.Cursor{ID: r.ID.String(), CreatedAt: r.CreatedAt}
}

// ItemCount is the sum of line quantities.
func (r Receipt) ItemCount() int {
	n := 0
	for _, l := range r.Items {
		n += l.Quantity
	}
	return n
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// Draft is a receipt being built. Its lines are the ledger state.
type Draft struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	Lines     []LineItem `json:"lines"`
	UpdatedAt int64      `json:"updatedAt"`
}
