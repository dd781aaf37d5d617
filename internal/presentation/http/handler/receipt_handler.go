package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillbook-api/internal/application/service"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillbook-api/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReceiptHandler handles receipt HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
	exportService  *service.ExportService
	printerService *service.PrinterService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(
	receiptService *service.ReceiptService,
	exportService *service.ExportService,
	printerService *service.PrinterService,
) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		exportService:  exportService,
		printerService: printerService,
	}
}

// List handles listing receipts newest first
func (h *ReceiptHandler) List(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	var filter request.ReceiptFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.receiptService.ListReceipts(c.Request.Context(), &service.ListReceiptsInput{
		OwnerID: identity.UserID,
		Cursor:  pagination.CursorParams{Cursor: filter.Cursor, Limit: filter.Limit},
		From:    filter.From,
		To:      filter.To,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithCursor(c, "Receipts retrieved successfully", result)
}

// Create handles creating a receipt straight from item ids and quantities
func (h *ReceiptHandler) Create(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	var req request.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	lines := make([]service.ReceiptLineInput, 0, len(req.Items))
	for _, l := range req.Items {
		lines = append(lines, service.ReceiptLineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), &service.CreateReceiptInput{
		OwnerID:        identity.UserID,
		Email:          identity.Email,
		CustomerName:   req.CustomerName,
		CustomerMobile: req.CustomerMobile,
		Lines:          lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt created successfully", receipt)
}

// Get handles fetching a receipt
func (h *ReceiptHandler) Get(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), identity.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// Share handles building the share text and links of a receipt
func (h *ReceiptHandler) Share(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	share, err := h.receiptService.ShareReceipt(c.Request.Context(), identity.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt share content generated", share)
}

// Email handles sending a receipt to a customer
func (h *ReceiptHandler) Email(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req request.EmailReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.receiptService.EmailReceipt(c.Request.Context(), identity.UserID, id, req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt sent", nil)
}

// Print handles printing a receipt on the thermal printer
func (h *ReceiptHandler) Print(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.printerService.PrintReceipt(c.Request.Context(), identity.UserID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt printed successfully", nil)
}

// Export handles downloading every receipt as a spreadsheet
func (h *ReceiptHandler) Export(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	data, err := h.exportService.ExportReceipts(c.Request.Context(), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("receipts-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, xlsxContentType, data)
}
