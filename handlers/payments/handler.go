package payments

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"courses-backend/access"
	"courses-backend/db"
	"courses-backend/middleware"
	"courses-backend/models"
	"courses-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	engine *access.Engine
	now    func() time.Time
}

func New(engine *access.Engine) *Handler {
	return &Handler{engine: engine, now: time.Now}
}

// orderings accepted by the list endpoint
var orderings = map[string]string{
	"date":          "date ASC",
	"-date":         "date DESC",
	"payment_date":  "date ASC",
	"-payment_date": "date DESC",
}

// @Summary Record a payment
// @Description Records a payment for exactly one course or lesson. The authenticated user becomes the owner and, unless given, the payer.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body models.PaymentCreate true "Payment information"
// @Security BearerAuth
// @Success 201 {object} models.Payment
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Router /payments [post]
func (h *Handler) CreatePayment(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var paymentCreate models.PaymentCreate
	if err := c.ShouldBindJSON(&paymentCreate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if (paymentCreate.CourseID == nil) == (paymentCreate.LessonID == nil) {
		utils.RespondError(c, &utils.ValidationFailed{Field: "course", Rule: "exactly one of course or lesson must be set"})
		return
	}

	if err := referenceExists(paymentCreate.CourseID, paymentCreate.LessonID); err != nil {
		utils.RespondError(c, err)
		return
	}

	payment := models.Payment{
		UserID:   paymentCreate.UserID,
		CourseID: paymentCreate.CourseID,
		LessonID: paymentCreate.LessonID,
		Amount:   paymentCreate.Amount,
		Method:   paymentCreate.Method,
		Date:     h.now(),
	}
	if paymentCreate.Date != nil {
		payment.Date = *paymentCreate.Date
	}

	if err := h.engine.AuthorizePaymentCreate(actor, &payment); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := db.DB.Create(&payment).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de l'enregistrement du paiement dans CreatePayment")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Payment recorded: "+payment.ID)
	c.JSON(http.StatusCreated, payment)
}

func referenceExists(courseID, lessonID *string) error {
	var count int64
	if courseID != nil {
		if err := db.DB.Model(&models.Course{}).Where("id = ?", *courseID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFound("Course")
		}
	}
	if lessonID != nil {
		if err := db.DB.Model(&models.Lesson{}).Where("id = ?", *lessonID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFound("Lesson")
		}
	}
	return nil
}

// @Summary List payments
// @Description Moderators see every payment, other users the payments they own
// @Tags payments
// @Produce json
// @Param course query string false "Filter by course ID"
// @Param lesson query string false "Filter by lesson ID"
// @Param owner query string false "Filter by owner ID"
// @Param method query string false "Filter by method (CASH, TRANSFER)"
// @Param ordering query string false "date, -date (payment_date accepted)"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 200)"
// @Security BearerAuth
// @Success 200 {object} utils.Page
// @Failure 400 {object} map[string]string "error: Invalid filter"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	pagination, err := utils.Paginate(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	query := db.DB.Model(&models.Payment{}).Scopes(access.ScopeOwned(actor))

	for _, filter := range []struct{ param, column string }{
		{"course", "course_id"},
		{"lesson", "lesson_id"},
		{"owner", "owner_id"},
	} {
		value := c.Query(filter.param)
		if value == "" {
			continue
		}
		if _, err := uuid.Parse(value); err != nil {
			utils.RespondError(c, &utils.ValidationFailed{Field: filter.param, Rule: "invalid id"})
			return
		}
		query = query.Where(filter.column+" = ?", value)
	}

	if method := strings.ToUpper(c.Query("method")); method != "" {
		if method != string(models.PaymentCash) && method != string(models.PaymentTransfer) {
			utils.RespondError(c, &utils.ValidationFailed{Field: "method", Rule: "method must be CASH or TRANSFER"})
			return
		}
		query = query.Where("method = ?", method)
	}

	order := "date DESC"
	if raw := c.Query("ordering"); raw != "" {
		var known bool
		if order, known = orderings[raw]; !known {
			utils.RespondError(c, &utils.ValidationFailed{Field: "ordering", Rule: "unknown ordering"})
			return
		}
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	payments := []models.Payment{}
	err = query.Session(&gorm.Session{}).
		Order(order).
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Find(&payments).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(c, pagination, count, payments))
}

// @Summary Get a payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Security BearerAuth
// @Success 200 {object} models.Payment
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Payment not found"
// @Router /payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Payment")
	if !ok {
		return
	}

	var payment models.Payment
	if err := db.DB.Scopes(access.ScopeOwned(actor)).First(&payment, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// @Summary Correct a payment
// @Description Moderators and the payment owner can correct date, amount and method
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payment body models.PaymentUpdate true "Fields to correct"
// @Security BearerAuth
// @Success 200 {object} models.Payment
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You are not the owner of this payment"
// @Failure 404 {object} map[string]string "error: Payment not found"
// @Router /payments/{id} [patch]
func (h *Handler) UpdatePayment(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Payment")
	if !ok {
		return
	}

	var paymentUpdate models.PaymentUpdate
	if err := c.ShouldBindJSON(&paymentUpdate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var payment models.Payment
	if err := db.DB.First(&payment, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if err := h.engine.AuthorizePaymentUpdate(actor, &payment); err != nil {
		utils.RespondError(c, err)
		return
	}

	if paymentUpdate.Date != nil {
		payment.Date = *paymentUpdate.Date
	}
	if paymentUpdate.Amount != nil {
		payment.Amount = *paymentUpdate.Amount
	}
	if paymentUpdate.Method != nil {
		payment.Method = *paymentUpdate.Method
	}

	if err := db.DB.Save(&payment).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise à jour du paiement dans UpdatePayment")
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// @Summary Delete a payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You are not the owner of this payment"
// @Failure 404 {object} map[string]string "error: Payment not found"
// @Router /payments/{id} [delete]
func (h *Handler) DeletePayment(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Payment")
	if !ok {
		return
	}

	var payment models.Payment
	if err := db.DB.First(&payment, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if err := h.engine.AuthorizePaymentDelete(actor, &payment); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := db.DB.Delete(&payment).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la suppression du paiement dans DeletePayment")
		utils.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, utils.NotFound("Payment"))
		return
	}
	utils.RespondError(c, err)
}
