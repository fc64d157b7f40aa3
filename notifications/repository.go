package notifications

import (
	"context"

	"courses-backend/db"
	"courses-backend/models"
)

// Repository is what the dispatcher needs from the record store.
type Repository interface {
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	FindLesson(ctx context.Context, id string) (*models.Lesson, error)
	SubscriberEmails(ctx context.Context, courseID string) ([]string, error)
}

type GormRepository struct{}

func (GormRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := db.DB.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (GormRepository) FindLesson(ctx context.Context, id string) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := db.DB.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

// SubscriberEmails lists addresses of users with an active subscription to the course.
func (GormRepository) SubscriberEmails(ctx context.Context, courseID string) ([]string, error) {
	var emails []string
	err := db.DB.WithContext(ctx).
		Table("subscriptions").
		Joins("JOIN users ON users.id = subscriptions.user_id").
		Where("subscriptions.course_id = ? AND subscriptions.is_subscribed = ?", courseID, true).
		Where("users.email IS NOT NULL AND users.email <> ''").
		Pluck("users.email", &emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}
