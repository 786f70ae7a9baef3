package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/law4percent/checkme-api/internal/middleware"
	"github.com/law4percent/checkme-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// ownerID resolves the acting teacher's account ID from the request claims.
func ownerID(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
