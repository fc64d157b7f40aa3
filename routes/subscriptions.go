package routes

import (
	"courses-backend/handlers/subscriptions"

	"github.com/gin-gonic/gin"
)

func SubscriptionsRoutes(r *gin.Engine, h *subscriptions.Handler, auth gin.HandlerFunc) {
	subscriptionRoutes := r.Group("/subscriptions")
	subscriptionRoutes.Use(auth)
	{
		subscriptionRoutes.POST("", h.CreateSubscription)
		subscriptionRoutes.GET("", h.ListSubscriptions)
		subscriptionRoutes.GET("/:id", h.GetSubscription)
		subscriptionRoutes.PATCH("/:id", h.UpdateSubscription)
		subscriptionRoutes.PUT("/:id", h.UpdateSubscription)
		subscriptionRoutes.DELETE("/:id", h.DeleteSubscription)
	}
}
