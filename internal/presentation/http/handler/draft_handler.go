package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillbook-api/internal/application/service"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/response"
)

// DraftHandler handles HTTP requests for receipts being built
type DraftHandler struct {
	draftService *service.DraftService
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(draftService *service.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

// Open handles starting an empty draft
func (h *DraftHandler) Open(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	draft, err := h.draftService.OpenDraft(c.Request.Context(), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Draft opened", draft)
}

// Get handles viewing a draft
func (h *DraftHandler) Get(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.GetDraft(c.Request.Context(), identity.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Draft retrieved successfully", draft)
}

// Discard handles deleting a draft
func (h *DraftHandler) Discard(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.draftService.DiscardDraft(c.Request.Context(), identity.UserID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Draft discarded", nil)
}

// AddItem handles selecting an item by id
func (h *DraftHandler) AddItem(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req request.DraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	draft, err := h.draftService.AddItem(c.Request.Context(), identity.UserID, id, req.ItemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added", draft)
}

// Scan handles selecting an item by barcode
func (h *DraftHandler) Scan(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req request.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	draft, err := h.draftService.ScanItem(c.Request.Context(), identity.UserID, id, req.Barcode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added", draft)
}

// ChangeQuantity handles moving a line's quantity by a delta
func (h *DraftHandler) ChangeQuantity(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}

	var req request.ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	draft, err := h.draftService.ChangeQuantity(c.Request.Context(), identity.UserID, id, itemID, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quantity updated", draft)
}

// RemoveItem handles dropping a line
func (h *DraftHandler) RemoveItem(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}

	draft, err := h.draftService.RemoveItem(c.Request.Context(), identity.UserID, id, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item removed", draft)
}

// Reset handles clearing every line
func (h *DraftHandler) Reset(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.ResetDraft(c.Request.Context(), identity.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Draft cleared", draft)
}

// Commit handles turning a draft into a receipt
func (h *DraftHandler) Commit(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req request.CommitDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	receipt, err := h.draftService.CommitDraft(c.Request.Context(), &service.CommitDraftInput{
		OwnerID:        identity.UserID,
		Email:          identity.Email,
		DraftID:        id,
		CustomerName:   req.CustomerName,
		CustomerMobile: req.CustomerMobile,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt created successfully", receipt)
}
