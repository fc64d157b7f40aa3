package courses

import (
	"context"
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
	"gorm.io/gorm"
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

// CourseDetail is a course with its lessons
type CourseDetail struct {
	models.Course
	Lessons []models.Lesson `json:"lessons"`
}

// @Summary Create a course
// @Description Create a course owned by the authenticated user. Moderators cannot create courses.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body models.CourseCreate true "Course information"
// @Security BearerAuth
// @Success 201 {object} models.Course
// @Failure 400 {object} map[string]string "error: Invalid input or forbidden link"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Moderators cannot create courses"
// @Failure 500 {object} map[string]string "error: Internal server error"
// @Router /courses [post]
func (h *Handler) CreateCourse(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var courseCreate models.CourseCreate
	if err := c.ShouldBindJSON(&courseCreate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if err := h.links.Validate(map[string]string{"description": courseCreate.Description}); err != nil {
		utils.RespondError(c, err)
		return
	}

	course := models.Course{
		Name:        courseCreate.Name,
		Description: courseCreate.Description,
	}
	if courseCreate.Cost != nil {
		if courseCreate.Cost.IsNegative() {
			utils.RespondError(c, &utils.ValidationFailed{Field: "cost", Rule: "cost cannot be negative"})
			return
		}
		course.Cost = courseCreate.Cost.Round(2)
	}

	if err := h.engine.AuthorizeCourseCreate(actor, &course); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := db.DB.Create(&course).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la création du cours dans CreateCourse")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Course created: "+course.ID)
	c.JSON(http.StatusCreated, course)
}

// @Summary List courses
// @Description Moderators see every course, other users only the courses they own
// @Tags courses
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 200)"
// @Security BearerAuth
// @Success 200 {object} utils.Page
// @Failure 400 {object} map[string]string "error: Invalid page"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /courses [get]
func (h *Handler) ListCourses(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	pagination, err := utils.Paginate(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var count int64
	if err := db.DB.Model(&models.Course{}).Scopes(access.ScopeOwned(actor)).Count(&count).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	courses := []models.Course{}
	err = db.DB.Scopes(access.ScopeOwned(actor)).
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Find(&courses).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := attachLessonCounts(c.Request.Context(), courses); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(c, pagination, count, courses))
}

func attachLessonCounts(ctx context.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	ids := make([]string, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
	}

	var rows []struct {
		CourseID string
		Total    int64
	}
	err := db.DB.WithContext(ctx).
		Model(&models.Lesson{}).
		Select("course_id, count(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	totals := make(map[string]int64, len(rows))
	for _, r := range rows {
		totals[r.CourseID] = r.Total
	}
	for i := range courses {
		n := totals[courses[i].ID]
		courses[i].LessonsCount = &n
	}
	return nil
}

// @Summary Get a course
// @Description Course with its lessons, restricted to visible courses
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Security BearerAuth
// @Success 200 {object} CourseDetail
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Router /courses/{id} [get]
func (h *Handler) GetCourse(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Course")
	if !ok {
		return
	}

	var course models.Course
	if err := db.DB.Scopes(access.ScopeOwned(actor)).First(&course, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	lessons := []models.Lesson{}
	if err := db.DB.Where("course_id = ?", course.ID).Order("created_at ASC").Find(&lessons).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	total := int64(len(lessons))
	course.LessonsCount = &total

	c.JSON(http.StatusOK, CourseDetail{Course: course, Lessons: lessons})
}

// @Summary Update a course
// @Description Partial update. Allowed for moderators and the course owner. Subscribers are notified unless the course changed less than a minute ago.
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param course body models.CourseUpdate true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string "error: Invalid input or forbidden link"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You are not the owner of this course"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Router /courses/{id} [patch]
func (h *Handler) UpdateCourse(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Course")
	if !ok {
		return
	}

	var courseUpdate models.CourseUpdate
	if err := c.ShouldBindJSON(&courseUpdate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if courseUpdate.Description != nil {
		if err := h.links.Validate(map[string]string{"description": *courseUpdate.Description}); err != nil {
			utils.RespondError(c, err)
			return
		}
	}
	if courseUpdate.Cost != nil && courseUpdate.Cost.IsNegative() {
		utils.RespondError(c, &utils.ValidationFailed{Field: "cost", Rule: "cost cannot be negative"})
		return
	}

	var course models.Course
	if err := db.DB.First(&course, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if err := h.engine.AuthorizeCourseUpdate(actor, &course); err != nil {
		utils.RespondError(c, err)
		return
	}

	if courseUpdate.Name != nil {
		course.Name = *courseUpdate.Name
	}
	if courseUpdate.Description != nil {
		course.Description = *courseUpdate.Description
	}
	if courseUpdate.Cost != nil {
		course.Cost = courseUpdate.Cost.Round(2)
	}

	if err := h.save(c, actor, &course); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// save persists the course then enqueues a notification unless the previous
// save is inside the debounce window.
func (h *Handler) save(c *gin.Context, actor access.Actor, course *models.Course) error {
	previousUpdate := course.UpdatedAt

	if err := db.DB.Save(course).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise à jour du cours dans UpdateCourse")
		return err
	}

	now := h.now()
	if notifications.IsRecent(previousUpdate, now) {
		return nil
	}
	if err := h.tasks.Enqueue(c.Request.Context(), notifications.NewCourseTask(course.ID, now)); err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise en file de la notification du cours "+course.ID)
	}
	return nil
}

// @Summary Delete a course
// @Description Deletes the course with its lessons and subscriptions. Payments keep their record with the reference cleared. Moderators cannot delete courses.
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Moderators cannot delete courses"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Router /courses/{id} [delete]
func (h *Handler) DeleteCourse(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Course")
	if !ok {
		return
	}

	var course models.Course
	if err := db.DB.First(&course, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if err := h.engine.AuthorizeCourseDelete(actor, &course); err != nil {
		utils.RespondError(c, err)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payment{}).Where("course_id = ?", course.ID).Update("course_id", nil).Error; err != nil {
			return err
		}
		courseLessons := tx.Model(&models.Lesson{}).Select("id").Where("course_id = ?", course.ID)
		if err := tx.Model(&models.Payment{}).Where("lesson_id IN (?)", courseLessons).Update("lesson_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&course).Error
	})
	if err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la suppression du cours dans DeleteCourse")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Course deleted: "+course.ID)
	c.Status(http.StatusNoContent)
}

// @Summary Upload a course preview
// @Description Uploads the preview image to Cloudinary. Same rules as an update.
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param preview formData file true "Preview image"
// @Security BearerAuth
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string "error: Invalid image"
// @Failure 403 {object} map[string]string "error: You are not the owner of this course"
// @Failure 404 {object} map[string]string "error: Course not found"
// @Failure 503 {object} map[string]string "error: Image upload is not configured"
// @Router /courses/{id}/preview [post]
func (h *Handler) UploadPreview(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "Course")
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

	var course models.Course
	if err := db.DB.First(&course, "id = ?", id).Error; err != nil {
		respondLookupError(c, err)
		return
	}
	if err := h.engine.AuthorizeCourseUpdate(actor, &course); err != nil {
		utils.RespondError(c, err)
		return
	}

	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image upload is not configured"})
		return
	}
	url, err := h.uploader.Upload(c.Request.Context(), file, "courses")
	if err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de l'upload de l'image dans UploadPreview")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed"})
		return
	}
	course.Preview = &url

	if err := h.save(c, actor, &course); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, utils.NotFound("Course"))
		return
	}
	utils.RespondError(c, err)
}
