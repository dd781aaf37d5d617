package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillbook-api/internal/presentation/http/middleware"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/session"
)

// GetIdentity returns the signed-in store owner. When there is none it
// writes a 401 and returns nil.
func GetIdentity(c *gin.Context) *session.Identity {
	if v, ok := c.Get(middleware.IdentityKey); ok {
		if id, ok := v.(*session.Identity); ok && id != nil {
			return id
		}
	}
	response.Error(c, apperror.ErrSignedOut)
	return nil
}

// paramID parses a UUID path parameter. It writes a 400 on failure.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
