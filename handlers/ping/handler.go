package ping

import (
	"net/http"

	"courses-backend/db"
	"courses-backend/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

// HandlePing gère la logique de l'endpoint ping
// @Summary Ping test
// @Description Endpoint de test qui répond pong
// @Tags test
// @Produce json
// @Success 200 {object} utils.Response
// @Router /ping [get]
func (h *Handler) HandlePing(c *gin.Context) {
	utils.SendSuccess(c, http.StatusOK, "Ping successful", gin.H{
		"message": "pong",
	})
}

// HandleHealth vérifie la connexion à la base
// @Summary Health check
// @Description Reports whether the database answers
// @Tags test
// @Produce json
// @Success 200 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /health [get]
func (h *Handler) HandleHealth(c *gin.Context) {
	if db.DB == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "database not initialized")
		return
	}
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		utils.LogError(err, "Health check failed")
		utils.SendError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Healthy", gin.H{"database": "up"})
}
