package routes

import (
	"courses-backend/handlers/payments"

	"github.com/gin-gonic/gin"
)

func PaymentsRoutes(r *gin.Engine, h *payments.Handler, auth gin.HandlerFunc) {
	paymentRoutes := r.Group("/payments")
	paymentRoutes.Use(auth)
	{
		paymentRoutes.POST("", h.CreatePayment)
		paymentRoutes.GET("", h.ListPayments)
		paymentRoutes.GET("/:id", h.GetPayment)
		paymentRoutes.PATCH("/:id", h.UpdatePayment)
		paymentRoutes.PUT("/:id", h.UpdatePayment)
		paymentRoutes.DELETE("/:id", h.DeletePayment)
	}
}
