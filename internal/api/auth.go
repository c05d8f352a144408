package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-soundboard/backend/internal/service"
	"steam-soundboard/backend/pkg/jwt"
	"steam-soundboard/backend/pkg/logger"
)

// AuthHandler mints session tokens for identities that completed the
// Steam OpenID exchange upstream. The exchange itself is not part of
// this service.
type AuthHandler struct {
	users *service.UserService
	jwt   *jwt.Service
	log   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService, jwtService *jwt.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwtService, log: log}
}

// SessionRequest carries the verified identity from the exchange
type SessionRequest struct {
	SteamID64 string `json:"steam_id64" binding:"required"`
	Username  string `json:"username" binding:"required"`
}

// CreateSession upserts the user record and returns a session token
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "steam_id64 and username are required"})
		return
	}

	user, err := h.users.EnsureUser(c.Request.Context(), req.SteamID64, req.Username)
	if err != nil {
		c.Error(err)
		return
	}

	if user.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is banned"})
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.SteamID64, user.Username, user.Admin)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.Info("session created", "steam_id", user.SteamID64)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.ToResponse(),
	})
}

// Me returns the authenticated caller's account
func (h *AuthHandler) Me(c *gin.Context) {
	steamID := c.GetString("steamID")

	user, err := h.users.GetBySteamIDWithSounds(c.Request.Context(), steamID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}
