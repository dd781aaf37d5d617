package request

// EmailReceiptRequest is the request body for e-mailing a receipt.
type EmailReceiptRequest struct {
	Email string `json:"email" binding:"required"`
}
