package stripe

import (
	"errors"
	"net/http"

	"courses-backend/db"
	"courses-backend/middleware"
	"courses-backend/models"
	"courses-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CheckoutCreate body of a checkout request
type CheckoutCreate struct {
	CourseID string `json:"course_id" binding:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// CreateCheckoutSession starts a Stripe payment for a course. The session id
// and hosted page URL are returned to the frontend.
// @Summary Create a Stripe Checkout session for a course
// @Description Start a one-off Stripe payment for a course, priced from the course cost
// @Tags payments
// @Accept json
// @Produce json
// @Param checkout body CheckoutCreate true "Course to buy"
// @Security BearerAuth
// @Success 200 {object} utils.CheckoutSession
// @Failure 400 {object} map[string]string "error: Invalid input or free course"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Failure 429 {object} map[string]string "error: Too many requests"
// @Failure 502 {object} map[string]string "error: Payment gateway error"
// @Failure 503 {object} map[string]string "error: Payments are not configured"
// @Router /checkout-sessions [post]
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var checkoutCreate CheckoutCreate
	if err := c.ShouldBindJSON(&checkoutCreate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if h.checkout == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	}

	var course models.Course
	if err := db.DB.First(&course, "id = ?", checkoutCreate.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, utils.NotFound("Course"))
			return
		}
		utils.RespondError(c, err)
		return
	}

	// cost is stored in major units, Stripe expects minor units
	unitAmount := course.Cost.Shift(2).Round(0).IntPart()
	if unitAmount <= 0 {
		utils.RespondError(c, &utils.ValidationFailed{Field: "course_id", Rule: "course has no price"})
		return
	}

	session, err := h.checkout.CreateSession(c.Request.Context(), utils.CheckoutRequest{
		Currency:          h.cfg.Currency,
		UnitAmount:        unitAmount,
		ProductName:       course.Name,
		Metadata:          map[string]string{"product_id": course.ID},
		ClientReferenceID: actor.ID,
		SuccessURL:        h.cfg.SuccessURL,
		CancelURL:         h.cfg.CancelURL,
	})
	if err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la création de la session Stripe dans CreateCheckoutSession")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Checkout session created: "+session.ID)
	c.JSON(http.StatusOK, session)
}
