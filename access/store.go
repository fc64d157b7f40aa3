package access

import (
	"context"

	"courses-backend/db"
	"courses-backend/models"
)

// GormLessonStore reads lesson ownership from the shared database handle.
type GormLessonStore struct{}

func (GormLessonStore) OwnsLessonInCourse(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := db.DB.WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ? AND owner_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
