package request

import "github.com/google/uuid"

// ReceiptLineRequest selects an item and quantity
type ReceiptLineRequest struct {
	ItemID   uuid.UUID `json:"itemId" binding:"required"`
	Quantity int       `json:"quantity" binding:"max=100000"`
}

// CreateReceiptRequest represents a direct receipt creation request
type CreateReceiptRequest struct {
	CustomerName   string               `json:"customerName"`
	CustomerMobile string               `json:"customerMobile" binding:"omitempty,max=32"`
	Items          []ReceiptLineRequest `json:"items"`
}

// CommitDraftRequest names the customer of a draft
type CommitDraftRequest struct {
	CustomerName   string `json:"customerName"`
	CustomerMobile string `json:"customerMobile" binding:"omitempty,max=32"`
}

// ReceiptFilterRequest represents receipt listing parameters
type ReceiptFilterRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"`
	From   *int64 `form:"from"`
	To     *int64 `form:"to"`
}

// DraftItemRequest adds an item to a draft
type DraftItemRequest struct {
	ItemID uuid.UUID `json:"itemId" binding:"required"`
}

// ScanRequest adds an item to a draft by barcode
type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// ChangeQuantityRequest moves a line's quantity
type ChangeQuantityRequest struct {
	Delta int `json:"delta" binding:"required,min=-100000,max=100000"`
}

// UpdateSettingsRequest represents a store settings update
type UpdateSettingsRequest struct {
	StoreName      *string `json:"storeName"`
	CurrencySymbol *string `json:"currencySymbol"`
	MobilePrefix   *string `json:"mobilePrefix"`
	ReceiptNote    *string `json:"receiptNote"`
}

// DashboardRequest is the date range of the dashboard
type DashboardRequest struct {
	From *int64 `form:"from"`
	To   *int64 `form:"to"`
}
