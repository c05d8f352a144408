package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/service"
	apperrors "steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
)

// AdminController handles the operational settings and user moderation
// endpoints. All routes require an admin session.
type AdminController struct {
	settings *service.SettingsService
	users    *service.UserService
	log      *logger.Logger
}

// NewAdminController creates a new admin controller
func NewAdminController(settings *service.SettingsService, users *service.UserService, log *logger.Logger) *AdminController {
	return &AdminController{settings: settings, users: users, log: log}
}

// RegisterRoutes registers the admin routes on an admin-gated group
func (ac *AdminController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/settings", ac.GetSettings)
	group.PATCH("/settings", ac.UpdateSettings)
	group.GET("/users", ac.ListUsers)
	group.POST("/users/:steamID/ban", ac.SetBan)
}

// GetSettings returns the active operational limits
func (ac *AdminController) GetSettings(c *gin.Context) {
	settings := ac.settings.Current(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings applies a partial update, validated as a whole
func (ac *AdminController) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
		return
	}

	updated, err := ac.settings.Update(c.Request.Context(), patch)
	if err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_SETTINGS", err.Error()))
		return
	}

	ac.log.Info("settings updated", "by", c.GetString("steamID"))
	c.JSON(http.StatusOK, gin.H{"settings": updated})
}

// ListUsers returns all known accounts
func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.users.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"users": responses})
}

// SetBan toggles the ban flag for an identity
func (ac *AdminController) SetBan(c *gin.Context) {
	steamID := c.Param("steamID")

	var body struct {
		Banned bool `json:"banned"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ban payload"})
		return
	}

	if err := ac.users.SetBanned(c.Request.Context(), steamID, body.Banned); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.Error(apperrors.NewNotFoundError(apperrors.CodeNotFound, "User not found"))
			return
		}
		c.Error(err)
		return
	}

	ac.log.Info("ban flag changed", "steam_id", steamID, "banned", body.Banned, "by", c.GetString("steamID"))
	c.JSON(http.StatusOK, gin.H{"steam_id64": steamID, "banned": body.Banned})
}
