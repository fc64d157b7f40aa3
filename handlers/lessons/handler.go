package lessons

import (
	"errors"
	"net/http"
	"time"

	"courses-backend/access"
	"courses-backend/db"
	"courses-backend/middleware"
	"courses-backend/models"
	"courses-backend/notifications"
	"courses-backend/utils"
	"courses-backend/validators"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct {
	engine   *access.Engine
	links    *validators.LinksValidator
	tasks    notifications.Enqueuer
	uploader utils.ImageUploader
	now      func() time.Time
}

func New(engine *access.Engine, links *validators.LinksValidator, tasks notifications.Enqueuer, uploader utils.ImageUploader) *Handler {
	return &Handler{
		engine:   engine,
		links:    links,
		tasks:    tasks,
		uploader: uploader,
		now:      time.Now,
	}
}

// @Summary Create a lesson
// @Description Create a lesson inside an existing course, owned by the authenticated user. Moderators cannot create lessons.
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body models.LessonCreate true "Lesson information"
// @Security BearerAuth
// @Success 201 {object} models.Lesson
// @Failure 400 {object} map[string]string "error: Invalid input or forbidden link"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Moderators cannot create lessons"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Router /lessons [post]
func (h *Handler) CreateLesson(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var lessonCreate models.LessonCreate
	if err := c.ShouldBindJSON(&lessonCreate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	fields := map[string]string{"description": lessonCreate.Description}
	if lessonCreate.VideoURL != nil {
		fields["video_url"] = *lessonCreate.VideoURL
	}
	if err := h.links.Validate(fields); err != nil {
		utils.RespondError(c, err)
		return
	}

	lesson := models.Lesson{
		CourseID:    lessonCreate.CourseID,
		Name:        lessonCreate.Name,
		Description: lessonCreate.Description,
		VideoURL:    lessonCreate.VideoURL,
	}
	if err := h.engine.AuthorizeLessonCreate(actor, &lesson); err != nil {
		utils.RespondError(c, err)
		return
	}

	var course models.Course
	if err := db.DB.Select("id").First(&course, "id = ?", lesson.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, utils.NotFound("Course"))
			return
		}
		utils.RespondError(c, err)
		return
	}

	if err := db.DB.Create(&lesson).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la création de la leçon dans CreateLesson")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Lesson created: "+lesson.ID)
	c.JSON(http.StatusCreated, lesson)
}

// @Summary List lessons
// @Description Moderators see every lesson, other users the lessons they own
// @Tags lessons
// @Produce json
// @Param course query string false "Filter by course ID"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 200)"
// @Security BearerAuth
// @Success 200 {object} utils.Page
// @Failure 400 {object} map[string]string "error: Invalid page"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /lessons [get]
func (h *Handler) ListLessons(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	pagination, err := utils.Paginate(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	query := db.DB.Model(&models.Lesson{}).Scopes(access.ScopeOwned(actor))
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

	lessons := []models.Lesson{}
	err = query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Find(&lessons).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(c, pagination, count, lessons))
}

// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Security BearerAuth
// @Success 200 {object} models.Lesson
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Lesson not found"
// @Router /lessons/{id} [get]
func (h *Handler) GetLesson(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Lesson")
	if !ok {
		return
	}

	var lesson models.Lesson
	if err := db.DB.Scopes(access.ScopeOwned(actor)).First(&lesson, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// load reads a lesson with its course, ignoring read scoping
func load(c *gin.Context, id string) (*models.Lesson, bool) {
	var lesson models.Lesson
	if err := db.DB.Preload("Course").First(&lesson, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return nil, false
	}
	return &lesson, true
}

// @Summary Update a lesson
// @Description Partial update. Allowed for moderators, the lesson owner, the course owner and owners of another lesson of the same course. Subscribers of the course are notified unless the lesson changed less than a minute ago.
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param lesson body models.LessonUpdate true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} models.Lesson
// @Failure 400 {object} map[string]string "error: Invalid input or forbidden link"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You do not own this lesson or its course"
// @Failure 404 {object} map[string]string "error: Lesson not found"
// @Router /lessons/{id} [patch]
func (h *Handler) UpdateLesson(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Lesson")
	if !ok {
		return
	}

	var lessonUpdate models.LessonUpdate
	if err := c.ShouldBindJSON(&lessonUpdate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	fields := map[string]string{}
	if lessonUpdate.Description != nil {
		fields["description"] = *lessonUpdate.Description
	}
	if lessonUpdate.VideoURL != nil {
		fields["video_url"] = *lessonUpdate.VideoURL
	}
	if err := h.links.Validate(fields); err != nil {
		utils.RespondError(c, err)
		return
	}

	lesson, ok := load(c, id)
	if !ok {
		return
	}
	if err := h.engine.AuthorizeLessonUpdate(c.Request.Context(), actor, lesson); err != nil {
		utils.RespondError(c, err)
		return
	}

	if lessonUpdate.Name != nil {
		lesson.Name = *lessonUpdate.Name
	}
	if lessonUpdate.Description != nil {
		lesson.Description = *lessonUpdate.Description
	}
	if lessonUpdate.VideoURL != nil {
		lesson.VideoURL = lessonUpdate.VideoURL
	}

	if err := h.save(c, actor, lesson); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) save(c *gin.Context, actor access.Actor, lesson *models.Lesson) error {
	previousUpdate := lesson.UpdatedAt

	// the preloaded course must not be written back
	if err := db.DB.Omit(clause.Associations).Save(lesson).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise à jour de la leçon "+lesson.ID)
		return err
	}

	now := h.now()
	if notifications.IsRecent(previousUpdate, now) {
		return nil
	}
	if err := h.tasks.Enqueue(c.Request.Context(), notifications.NewLessonTask(lesson.ID, now)); err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise en file de la notification de la leçon "+lesson.ID)
	}
	return nil
}

// @Summary Delete a lesson
// @Description Payments keep their record with the lesson reference cleared. Moderators cannot delete lessons.
// @Tags lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Moderators cannot delete lessons"
// @Failure 404 {object} map[string]string "error: Lesson not found"
// @Router /lessons/{id} [delete]
func (h *Handler) DeleteLesson(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Lesson")
	if !ok {
		return
	}

	lesson, ok := load(c, id)
	if !ok {
		return
	}
	if err := h.engine.AuthorizeLessonDelete(c.Request.Context(), actor, lesson); err != nil {
		utils.RespondError(c, err)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payment{}).Where("lesson_id = ?", lesson.ID).Update("lesson_id", nil).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Delete(&models.Lesson{ID: lesson.ID}).Error
	})
	if err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la suppression de la leçon dans DeleteLesson")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Lesson deleted: "+lesson.ID)
	c.Status(http.StatusNoContent)
}

// @Summary Upload a lesson preview
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Lesson ID"
// @Param preview formData file true "Preview image"
// @Security BearerAuth
// @Success 200 {object} models.Lesson
// @Failure 400 {object} map[string]string "error: Invalid image"
// @Failure 403 {object} map[string]string "error: You do not own this lesson or its course"
// @Failure 404 {object} map[string]string "error: Lesson not found"
// @Failure 503 {object} map[string]string "error: Image upload is not configured"
// @Router /lessons/{id}/preview [post]
func (h *Handler) UploadPreview(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Lesson")
	if !ok {
		return
	}

	file, err := c.FormFile("preview")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: preview file is required"})
		return
	}
	if err := utils.ValidatePreview(file); err != nil {
		utils.RespondError(c, err)
		return
	}

	lesson, ok := load(c, id)
	if !ok {
		return
	}
	if err := h.engine.AuthorizeLessonUpdate(c.Request.Context(), actor, lesson); err != nil {
		utils.RespondError(c, err)
		return
	}

	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image upload is not configured"})
		return
	}
	url, err := h.uploader.Upload(c.Request.Context(), file, "lessons")
	if err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de l'upload de l'image dans UploadPreview")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed"})
		return
	}
	lesson.Preview = &url

	if err := h.save(c, actor, lesson); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, utils.NotFound("Lesson"))
		return
	}
	utils.RespondError(c, err)
}
