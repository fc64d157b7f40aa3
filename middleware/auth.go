package middleware

import (
	"net/http"
	"strings"

	"courses-backend/models"
	"courses-backend/utils"

	"github.com/gin-gonic/gin"
)

func extractIdentity(c *gin.Context, secret []byte) (utils.Identity, bool) {
	authHeader := c.GetHeader("Authorization")

	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
		c.Abort()
		return utils.Identity{}, false
	}

	authHeader = strings.Trim(authHeader, "\"' ")

	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		authHeader = "Bearer " + authHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format, expected: Bearer <token>"})
		c.Abort()
		return utils.Identity{}, false
	}

	tokenString := strings.Trim(parts[1], "\"' ")

	identity, err := utils.DecodeJWT(tokenString, secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
		c.Abort()
		return utils.Identity{}, false
	}

	return identity, true
}

// JWTAuth vérifie le token et expose user_id et role dans le contexte gin
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := extractIdentity(c, secret)
		if !ok {
			return
		}

		role := models.Role(strings.ToUpper(identity.Role))
		if role != models.ModeratorRole {
			role = models.StudentRole
		}

		c.Set("user_id", identity.UserID)
		c.Set("role", string(role))
		c.Next()
	}
}
