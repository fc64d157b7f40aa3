package users

import (
	"errors"
	"net/http"

	"courses-backend/access"
	"courses-backend/db"
	"courses-backend/middleware"
	"courses-backend/models"
	"courses-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct {
	engine *access.Engine
}

func New(engine *access.Engine) *Handler {
	return &Handler{engine: engine}
}

// Profile is the authenticated user's own view
type Profile struct {
	User     models.User      `json:"user"`
	Payments []models.Payment `json:"payments"`
}

// @Summary Get the authenticated user's profile
// @Description Returns the caller's profile and the payments made for them
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Profile
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 500 {object} map[string]string "error: Internal server error"
// @Router /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var user models.User
	err := db.DB.First(&user, "id = ?", actor.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// the identity provider knows the user, the profile is not stored yet
		user = models.User{ID: actor.ID, Role: actor.Role}
	case err != nil:
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la récupération du profil dans GetMe")
		utils.RespondError(c, err)
		return
	}
	user.Role = actor.Role

	payments := []models.Payment{}
	if err := db.DB.Where("user_id = ?", actor.ID).Order("date DESC").Find(&payments).Error; err != nil {
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la récupération des paiements dans GetMe")
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Profile{User: user, Payments: payments})
}

// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} models.PublicUser
// @Failure 404 {object} map[string]string "error: User not found"
// @Router /users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := utils.PathID(c, "User")
	if !ok {
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, utils.NotFound("User"))
			return
		}
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// @Summary Update the authenticated user's profile
// @Description Only the caller's own profile can be edited. The role always comes from the token.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body models.UserUpdate true "Fields to change"
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 403 {object} map[string]string "error: You cannot edit another user"
// @Router /users/{id} [patch]
func (h *Handler) UpdateUser(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := utils.PathID(c, "User")
	if !ok {
		return
	}
	if err := h.engine.AuthorizeUserUpdate(actor, id); err != nil {
		utils.RespondError(c, err)
		return
	}

	var userUpdate models.UserUpdate
	if err := c.ShouldBindJSON(&userUpdate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, err)
			return
		}
		user = models.User{ID: id}
	}

	if userUpdate.Email != nil {
		user.Email = userUpdate.Email
	}
	if userUpdate.UserName != nil {
		user.UserName = *userUpdate.UserName
	}
	if userUpdate.FirstName != nil {
		user.FirstName = *userUpdate.FirstName
	}
	user.Role = actor.Role

	if err := db.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, &utils.ValidationFailed{Field: "email", Rule: "email already in use"})
			return
		}
		utils.LogErrorWithUser(actor.ID, err, "Erreur lors de la mise à jour du profil dans UpdateUser")
		utils.RespondError(c, err)
		return
	}

	utils.LogSuccessWithUser(actor.ID, "Profile updated")
	c.JSON(http.StatusOK, user)
}
