package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillbook-api/internal/application/service"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillbook-api/pkg/pagination"
)

// ItemHandler handles inventory HTTP requests
type ItemHandler struct {
	itemService *service.ItemService
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// List handles listing items newest first with an optional name search
func (h *ItemHandler) List(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	var filter request.ItemFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.itemService.ListItems(c.Request.Context(), &service.ListItemsInput{
		OwnerID: identity.UserID,
		Cursor:  pagination.CursorParams{Cursor: filter.Cursor, Limit: filter.Limit},
		Search:  filter.Search,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithCursor(c, "Items retrieved successfully", result)
}

// Create handles creating an item
func (h *ItemHandler) Create(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	var req request.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), &service.CreateItemInput{
		OwnerID:   identity.UserID,
		Email:     identity.Email,
		ItemName:  req.ItemName,
		ItemPrice: req.ItemPrice,
		Barcode:   req.Barcode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Item created successfully", item)
}

// Get handles fetching an item
func (h *ItemHandler) Get(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(c.Request.Context(), identity.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item retrieved successfully", item)
}

// GetByBarcode handles looking up an item by barcode
func (h *ItemHandler) GetByBarcode(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	item, err := h.itemService.GetItemByBarcode(c.Request.Context(), identity.UserID, c.Param("barcode"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item retrieved successfully", item)
}

// Update handles editing an item
func (h *ItemHandler) Update(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req request.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), &service.UpdateItemInput{
		OwnerID:   identity.UserID,
		ItemID:    id,
		ItemName:  req.ItemName,
		ItemPrice: req.ItemPrice,
		Barcode:   req.Barcode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item updated successfully", item)
}

// Delete handles removing an item
func (h *ItemHandler) Delete(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.itemService.DeleteItem(c.Request.Context(), identity.UserID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item deleted successfully", nil)
}
