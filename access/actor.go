package access

import "courses-backend/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role models.Role
}

func (a Actor) IsModerator() bool {
	return a.Role == models.ModeratorRole
}

func (a Actor) owns(ownerID *string) bool {
	return ownerID != nil && a.ID != "" && *ownerID == a.ID
}
