package subscriptions

import (
	"errors"
	"net/http"

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
}

func New(engine *access.Engine) *Handler {
	return &Handler{engine: engine}
}

// @Summary Subscribe to a course
// @Description Creates the authenticated user's subscription to a course. Only one subscription per course and user.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body models.SubscriptionCreate true "Course to subscribe to"
// @Security BearerAuth
// @Success 201 {object} models.Subscription
// @Failure 400 {object} map[string]string "error: Already subscribed to this course"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Router /subscriptions [post]
func (h *Handler) CreateSubscription(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var subscriptionCreate models.SubscriptionCreate
	if err := c.ShouldBindJSON(&subscriptionCreate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var courses int64
	if err := db.DB.Model(&models.Course{}).Where("id = ?", subscriptionCreate.CourseID).Count(&courses).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if courses == 0 {
		utils.RespondError(c, utils.NotFound("Course"))
		return
	}

	courseID := subscriptionCreate.CourseID
	subscription := models.Subscription{CourseID: &courseID}
	if subscriptionCreate.IsSubscribed != nil {
		subscription.IsSubscribed = *subscriptionCreate.IsSubscribed
	}
	if err := h.engine.AuthorizeSubscriptionCreate(actor, &subscription); err != nil {
		utils.RespondError(c, err)
		return
	}

	var existing int64
	err := db.DB.Model(&models.Subscription{}).
		Where("user_id = ? AND course_id = ?", subscription.UserID, courseID).
		Count(&existing).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if existing > 0 {
		utils.RespondError(c, &utils.ValidationFailed{Field: "course", Rule: "already subscribed to this course"})
		return
	}

	if err := db.DB.Create(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, &utils.ValidationFailed{Field: "course", Rule: "already subscribed to this course"})
			return
		}
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la création de l'abonnement dans CreateSubscription")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Subscription created for course "+courseID)
	c.JSON(http.StatusCreated, subscription)
}

// @Summary List subscriptions
// @Description Moderators see every subscription, other users their own
// @Tags subscriptions
// @Produce json
// @Param course query string false "Filter by course ID"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 200)"
// @Security BearerAuth
// @Success 200 {object} utils.Page
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /subscriptions [get]
func (h *Handler) ListSubscriptions(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	pagination, err := utils.Paginate(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	query := db.DB.Model(&models.Subscription{}).Scopes(access.ScopeSubscriptions(actor))
	if courseID := c.Query("course"); courseID != "" {
		if _, err := uuid.Parse(courseID); err != nil {
			utils.RespondError(c, &utils.ValidationFailed{Field: "course", Rule: "invalid course id"})
			return
		}
		query = query.Where("course_id = ?", courseID)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	subscriptions := []models.Subscription{}
	err = query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Find(&subscriptions).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(c, pagination, count, subscriptions))
}

// @Summary Get a subscription
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Security BearerAuth
// @Success 200 {object} models.Subscription
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Router /subscriptions/{id} [get]
func (h *Handler) GetSubscription(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Subscription")
	if !ok {
		return
	}

	var subscription models.Subscription
	if err := db.DB.Scopes(access.ScopeSubscriptions(actor)).First(&subscription, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// @Summary Toggle a subscription
// @Description Only the subscriber can turn notifications on or off
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param subscription body models.SubscriptionUpdate true "New state"
// @Security BearerAuth
// @Success 200 {object} models.Subscription
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You cannot modify another user's subscription"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Router /subscriptions/{id} [patch]
func (h *Handler) UpdateSubscription(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Subscription")
	if !ok {
		return
	}

	var subscriptionUpdate models.SubscriptionUpdate
	if err := c.ShouldBindJSON(&subscriptionUpdate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var subscription models.Subscription
	if err := db.DB.First(&subscription, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if err := h.engine.AuthorizeSubscriptionUpdate(actor, &subscription); err != nil {
		utils.RespondError(c, err)
		return
	}

	subscription.IsSubscribed = *subscriptionUpdate.IsSubscribed
	if err := db.DB.Save(&subscription).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise à jour de l'abonnement dans UpdateSubscription")
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// @Summary Delete a subscription
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You cannot modify another user's subscription"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Router /subscriptions/{id} [delete]
func (h *Handler) DeleteSubscription(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Subscription")
	if !ok {
		return
	}

	var subscription models.Subscription
	if err := db.DB.First(&subscription, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if err := h.engine.AuthorizeSubscriptionDelete(actor, &subscription); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := db.DB.Delete(&subscription).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la suppression de l'abonnement dans DeleteSubscription")
		utils.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, utils.NotFound("Subscription"))
		return
	}
	utils.RespondError(c, err)
}
