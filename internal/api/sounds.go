package api

import (
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/service"
	apperrors "steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
)

// SoundController handles the sound CRUD and streaming endpoints
type SoundController struct {
	sounds *service.SoundService
	log    *logger.Logger
}

// NewSoundController creates a new sound controller
func NewSoundController(sounds *service.SoundService, log *logger.Logger) *SoundController {
	return &SoundController{sounds: sounds, log: log}
}

// RegisterRoutes registers the sound routes on an authenticated group.
// uploadLimiter runs only on the upload route.
func (sc *SoundController) RegisterRoutes(group *gin.RouterGroup, uploadLimiter gin.HandlerFunc) {
	group.GET("/sounds", sc.List)
	group.POST("/sounds", uploadLimiter, sc.Upload)
	group.GET("/sounds/:id/stream", sc.Stream)
	group.PATCH("/sounds/:id", sc.Rename)
	group.DELETE("/sounds/:id", sc.Delete)
}

// List returns the caller's sounds, newest first
func (sc *SoundController) List(c *gin.Context) {
	steamID := c.GetString("steamID")

	sounds, err := sc.sounds.List(c.Request.Context(), steamID)
	if err != nil {
		c.Error(err)
		return
	}

	responses := make([]models.SoundResponse, 0, len(sounds))
	for i := range sounds {
		responses = append(responses, sounds[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"sounds": responses})
}

// Upload accepts a multipart upload (field "audio" plus form field
// "name") and runs it through the pipeline.
func (sc *SoundController) Upload(c *gin.Context) {
	steamID := c.GetString("steamID")

	name := c.PostForm("name")

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.Error(apperrors.NewBadRequestError(apperrors.CodeInvalidFileType, "Form field 'audio' is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.Error(err)
		return
	}

	sound, err := sc.sounds.SubmitUpload(c.Request.Context(), steamID, name, raw)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sound": sound.ToResponse()})
}

// Stream serves the transcoded audio file for playback in the browser
func (sc *SoundController) Stream(c *gin.Context) {
	steamID := c.GetString("steamID")

	id, ok := parseID(c)
	if !ok {
		return
	}

	sound, err := sc.sounds.Get(c.Request.Context(), steamID, id)
	if err != nil {
		c.Error(err)
		return
	}

	path := sc.sounds.FilePath(sound)
	if _, err := os.Stat(path); err != nil {
		// Record without a file: report, don't crash
		sc.log.Warn("sound file missing on stream", "sound_id", id, "path", path)
		c.Error(apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to read sound file"))
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}

// Rename updates a sound's display name
func (sc *SoundController) Rename(c *gin.Context) {
	steamID := c.GetString("steamID")

	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.NewBadRequestError(apperrors.CodeNameTooShort, "Field 'name' is required"))
		return
	}

	sound, err := sc.sounds.Rename(c.Request.Context(), steamID, id, body.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sound": sound.ToResponse()})
}

// Delete removes a sound record and its file
func (sc *SoundController) Delete(c *gin.Context) {
	steamID := c.GetString("steamID")

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := sc.sounds.Delete(c.Request.Context(), steamID, id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// parseID reads the :id path parameter; on failure it reports the error
// and returns ok=false
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(apperrors.NewBadRequestError(apperrors.CodeNotFound, "Invalid sound id"))
		return 0, false
	}
	return uint(id), true
}
