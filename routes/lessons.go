package routes

import (
	"courses-backend/handlers/lessons"

	"github.com/gin-gonic/gin"
)

func LessonsRoutes(r *gin.Engine, h *lessons.Handler, auth gin.HandlerFunc) {
	lessonRoutes := r.Group("/lessons")
	lessonRoutes.Use(auth)
	{
		lessonRoutes.POST("", h.CreateLesson)
		lessonRoutes.GET("", h.ListLessons)
		lessonRoutes.GET("/:id", h.GetLesson)
		lessonRoutes.PATCH("/:id", h.UpdateLesson)
		lessonRoutes.PUT("/:id", h.UpdateLesson)
		lessonRoutes.DELETE("/:id", h.DeleteLesson)
		lessonRoutes.POST("/:id/preview", h.UploadPreview)
	}
}
