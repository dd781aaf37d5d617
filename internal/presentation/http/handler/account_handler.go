package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillbook-api/internal/application/service"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/response"
)

// AccountHandler handles account removal
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Delete removes the signed-in account and all of its data
func (h *AccountHandler) Delete(c *gin.Context) {
	identity := GetIdentity(c)
	if identity == nil {
		return
	}

	var req request.DeleteAccountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), &service.DeleteAccountInput{
		UserID:   identity.UserID,
		Password: req.Password,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Account deleted", nil)
}
