package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course représente un cours de la plateforme
// @Description Course with its owner and price
type Course struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name          string          `json:"name" gorm:"not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Preview       *string         `json:"preview"`
	OwnerID       *string         `json:"owner" gorm:"type:uuid;index"`
	Cost          decimal.Decimal `json:"cost" gorm:"type:numeric(10,2);not null;default:0"`
	Lessons       []Lesson        `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Subscriptions []Subscription  `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Payments      []Payment       `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL"`
	LessonsCount  *int64          `json:"lessons_count,omitempty" gorm:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseCreate modèle pour créer un cours
// @Description model for creating a course
type CourseCreate struct {
	Name        string           `json:"name" binding:"required" example:"Physics 101"`
	Description string           `json:"description" example:"Introduction to mechanics"`
	Cost        *decimal.Decimal `json:"cost" swaggertype:"string" example:"49.90"`
}

// CourseUpdate modèle pour modifier un cours, seuls les champs présents sont appliqués
// @Description model for partially updating a course
type CourseUpdate struct {
	Name        *string          `json:"name" binding:"omitempty,min=1" example:"Physics 102"`
	Description *string          `json:"description" example:"Waves and optics"`
	Cost        *decimal.Decimal `json:"cost" swaggertype:"string" example:"59.90"`
}
