package routes

import (
	"courses-backend/handlers/courses"

	"github.com/gin-gonic/gin"
)

func CoursesRoutes(r *gin.Engine, h *courses.Handler, auth gin.HandlerFunc) {
	courseRoutes := r.Group("/courses")
	courseRoutes.Use(auth)
	{
		courseRoutes.POST("", h.CreateCourse)
		courseRoutes.GET("", h.ListCourses)
		courseRoutes.GET("/:id", h.GetCourse)
		courseRoutes.PATCH("/:id", h.UpdateCourse)
		courseRoutes.PUT("/:id", h.UpdateCourse)
		courseRoutes.DELETE("/:id", h.DeleteCourse)
		courseRoutes.POST("/:id/preview", h.UploadPreview)
	}
}
