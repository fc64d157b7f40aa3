package models

import (
	"time"
)

type Role string

const (
	ModeratorRole Role = "MODERATOR"
	StudentRole   Role = "STUDENT"
)

// User mirrors an identity from the identity provider. The role is read from
// the token and never written through the API.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Email     *string   `json:"email" gorm:"uniqueIndex"` // NULL until the user sets one
	UserName  string    `json:"username" gorm:"column:user_name"`
	FirstName string    `json:"first_name" gorm:"column:first_name"`
	Role      Role      `json:"role" gorm:"type:varchar(20);default:'STUDENT'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is the view of a user exposed to other accounts
type PublicUser struct {
	ID        string `json:"id"`
	UserName  string `json:"username"`
	FirstName string `json:"first_name"`
	Role      Role   `json:"role"`
}

// UserUpdate modèle pour mettre à jour son propre profil
// @Description model for updating the authenticated user's profile
type UserUpdate struct {
	Email     *string `json:"email" binding:"omitempty,email" example:"jean.dupont@exemple.com"`
	UserName  *string `json:"username" example:"jdupont"`
	FirstName *string `json:"first_name" example:"Jean"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		Role:      u.Role,
	}
}
