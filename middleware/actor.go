package middleware

import (
	"net/http"

	"courses-backend/access"
	"courses-backend/models"

	"github.com/gin-gonic/gin"
)

// CurrentActor reads the identity stored by JWTAuth.
func CurrentActor(c *gin.Context) (access.Actor, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		return access.Actor{}, false
	}
	return access.Actor{ID: userID, Role: models.Role(c.GetString("role"))}, true
}

// RequireActor answers 401 when the request carries no identity.
func RequireActor(c *gin.Context) (access.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return access.Actor{}, false
	}
	return actor, true
}
