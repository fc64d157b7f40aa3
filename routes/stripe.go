package routes

import (
	"courses-backend/handlers/stripe"

	"github.com/gin-gonic/gin"
)

func StripeRoutes(r *gin.Engine, h *stripe.Handler, auth, limit gin.HandlerFunc) {
	r.POST("/checkout-sessions", auth, limit, h.CreateCheckoutSession)
	r.POST("/stripe/webhook", h.StripeWebhookHandler)
}
