package routes

import (
	"courses-backend/handlers/ping"

	"github.com/gin-gonic/gin"
)

func PingRoutes(r *gin.Engine, h *ping.Handler) {
	r.GET("/ping", h.HandlePing)
	r.GET("/health", h.HandleHealth)
}
