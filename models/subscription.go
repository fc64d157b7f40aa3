package models

import (
	"time"
)

// Subscription records whether a user wants update notifications for a course.
// A user holds at most one subscription row per course.
type Subscription struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID       string    `json:"user" gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_user_course"`
	CourseID     *string   `json:"course" gorm:"type:uuid;uniqueIndex:idx_subscriptions_user_course"`
	IsSubscribed bool      `json:"is_subscribed" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// SubscriptionCreate model for subscribing to a course
// @Description model for subscribing the authenticated user to a course
type SubscriptionCreate struct {
	CourseID     string `json:"course" binding:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	IsSubscribed *bool  `json:"is_subscribed" example:"true"`
}

// SubscriptionUpdate model for toggling notifications
// @Description model for toggling course update notifications
type SubscriptionUpdate struct {
	IsSubscribed *bool `json:"is_subscribed" binding:"required" example:"false"`
}
