package routes

import (
	"courses-backend/handlers/users"

	"github.com/gin-gonic/gin"
)

func UsersRoutes(r *gin.Engine, h *users.Handler, auth gin.HandlerFunc) {
	userRoutes := r.Group("/users")
	userRoutes.Use(auth)
	{
		userRoutes.GET("/me", h.GetMe)
		userRoutes.GET("/:id", h.GetUser)
		userRoutes.PATCH("/:id", h.UpdateUser)
	}
}
