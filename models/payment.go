package models

import (
	"time"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

// Payment records money received for a course or a lesson.
// Course and lesson references are cleared when the referenced row is deleted.
type Payment struct {
	ID              string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID          *string       `json:"user" gorm:"type:uuid;index"`
	Date            time.Time     `json:"date" gorm:"not null"`
	CourseID        *string       `json:"course" gorm:"type:uuid;index"`
	LessonID        *string       `json:"lesson" gorm:"type:uuid;index"`
	Amount          int64         `json:"amount" gorm:"not null;check:amount > 0"`
	Method          PaymentMethod `json:"method" gorm:"type:varchar(40);not null"`
	OwnerID         *string       `json:"owner" gorm:"type:uuid;index"`
	StripeSessionID *string       `json:"-" gorm:"uniqueIndex"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentCreate model for recording a payment
// @Description model for recording a payment for a course or a lesson
type PaymentCreate struct {
	UserID   *string       `json:"user" binding:"omitempty,uuid"`
	Date     *time.Time    `json:"date"`
	CourseID *string       `json:"course" binding:"omitempty,uuid"`
	LessonID *string       `json:"lesson" binding:"omitempty,uuid"`
	Amount   int64         `json:"amount" binding:"required,gt=0" example:"4990"`
	Method   PaymentMethod `json:"method" binding:"required,oneof=CASH TRANSFER" example:"TRANSFER"`
}

// PaymentUpdate model for correcting a payment
// @Description model for correcting an existing payment
type PaymentUpdate struct {
	Date   *time.Time     `json:"date"`
	Amount *int64         `json:"amount" binding:"omitempty,gt=0" example:"5990"`
	Method *PaymentMethod `json:"method" binding:"omitempty,oneof=CASH TRANSFER" example:"CASH"`
}
