package models

import (
	"time"
)

// Lesson belongs to exactly one course; its owner may differ from the course owner.
type Lesson struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CourseID    string    `json:"course_id" gorm:"type:uuid;not null;index"`
	Course      *Course   `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Preview     *string   `json:"preview"`
	VideoURL    *string   `json:"video_url" gorm:"column:video_url"`
	OwnerID     *string   `json:"owner" gorm:"type:uuid;index"`
	Payments    []Payment `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonCreate model for creating a lesson
// @Description model for creating a lesson inside a course
type LessonCreate struct {
	CourseID    string  `json:"course_id" binding:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name        string  `json:"name" binding:"required" example:"Newton's laws"`
	Description string  `json:"description" example:"Three laws of motion"`
	VideoURL    *string `json:"video_url" binding:"omitempty,url" example:"https://youtube.com/watch?v=abc"`
}

// LessonUpdate model for partially updating a lesson
// @Description model for partially updating a lesson
type LessonUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1" example:"Newton's laws (revised)"`
	Description *string `json:"description" example:"Three laws of motion, with exercises"`
	VideoURL    *string `json:"video_url" binding:"omitempty,url" example:"https://youtube.com/watch?v=def"`
}
