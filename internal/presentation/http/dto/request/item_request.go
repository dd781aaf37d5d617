package request

import "github.com/shopspring/decimal"

// CreateItemRequest represents an item creation request
type CreateItemRequest struct {
	ItemName  string          `json:"itemName" binding:"required,max=255"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
	Barcode   string          `json:"barcode" binding:"omitempty,max=128"`
}

// UpdateItemRequest represents an item update request
type UpdateItemRequest struct {
	ItemName  *string          `json:"itemName" binding:"omitempty,max=255"`
	ItemPrice *decimal.Decimal `json:"itemPrice"`
	Barcode   *string          `json:"barcode" binding:"omitempty,max=128"`
}

// ItemFilterRequest represents item listing parameters
type ItemFilterRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"`
	Search string `form:"q"`
}
