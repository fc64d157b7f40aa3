package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PathID returns the :id parameter when it is a valid UUID. Anything else
// cannot match a row, so it is answered as not found.
func PathID(c *gin.Context, resource string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondError(c, NotFound(resource))
		return "", false
	}
	return id, true
}
