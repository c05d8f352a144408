package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"steam-soundboard/backend/internal/media"
	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/repository"
	apperrors "steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/observability"
)

// Sound name length limits (trimmed, in runes)
const (
	minNameLength = 1
	maxNameLength = 32
)

// ChangeNotifier pushes the updated sound list to a connected plugin
// session. Calls are fire-and-forget: they run after the mutation is
// committed and their failures are only logged.
type ChangeNotifier interface {
	NotifySoundsChanged(steamID string)
}

// SoundService owns the upload pipeline and the read/rename/delete
// paths for sound records and their files.
type SoundService struct {
	repo       repository.SoundRepository
	settings   *SettingsService
	quota      *QuotaCache
	prober     media.Prober
	transcoder media.Transcoder
	notifier   ChangeNotifier
	metrics    *observability.Metrics
	root       string
	log        *logger.Logger
}

// NewSoundService creates the sound service. notifier and metrics may be
// nil (tests, early startup).
func NewSoundService(
	repo repository.SoundRepository,
	settings *SettingsService,
	quota *QuotaCache,
	prober media.Prober,
	transcoder media.Transcoder,
	root string,
	log *logger.Logger,
) *SoundService {
	return &SoundService{
		repo:       repo,
		settings:   settings,
		quota:      quota,
		prober:     prober,
		transcoder: transcoder,
		root:       root,
		log:        log,
	}
}

// SetNotifier wires the push notifier; called once during startup after
// the socket gateway exists.
func (s *SoundService) SetNotifier(notifier ChangeNotifier) {
	s.notifier = notifier
}

// SetMetrics wires the prometheus collectors
func (s *SoundService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// List returns the identity's sounds, newest first
func (s *SoundService) List(ctx context.Context, steamID string) ([]models.Sound, error) {
	return s.repo.ListByOwner(ctx, steamID)
}

// ListEntries returns the socket metadata form of the identity's sounds
func (s *SoundService) ListEntries(ctx context.Context, steamID string) ([]models.SoundListEntry, error) {
	sounds, err := s.repo.ListByOwner(ctx, steamID)
	if err != nil {
		return nil, err
	}
	return models.ListEntries(sounds), nil
}

// SubmitUpload runs the upload pipeline: validate name, check quota,
// stage, validate content, transcode, commit, invalidate. Every step is
// a hard gate; any failure after staging removes the files written
// during this call before returning.
func (s *SoundService) SubmitUpload(ctx context.Context, steamID, name string, raw []byte) (*models.Sound, error) {
	sound, err := s.submitUpload(ctx, steamID, name, raw)
	s.countUpload(err)
	if err != nil {
		return nil, err
	}

	s.quota.Invalidate(ctx, steamID)
	s.notifyAsync(steamID)
	return sound, nil
}

func (s *SoundService) submitUpload(ctx context.Context, steamID, name string, raw []byte) (*models.Sound, error) {
	// Step 1: name validation
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, apperrors.NewBadRequestError(apperrors.CodeNameTooShort, "Sound name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, apperrors.NewBadRequestError(apperrors.CodeNameTooLong,
			fmt.Sprintf("Sound name must be at most %d characters", maxNameLength))
	}

	// Step 2: quota check against current settings
	settings := s.settings.Current(ctx)
	count, err := s.countForOwner(ctx, steamID)
	if err != nil {
		s.log.LogError(err, "quota count failed", "steam_id", steamID)
		return nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to check sound quota")
	}
	if count >= int64(settings.MaxSoundsPerUser) {
		return nil, apperrors.NewBadRequestError(apperrors.CodeQuotaExceeded,
			fmt.Sprintf("You have reached the maximum of %d sounds", settings.MaxSoundsPerUser))
	}

	// Step 3: stage raw bytes in the owner's directory
	ownerDir := filepath.Join(s.root, steamID)
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		s.log.LogError(err, "failed to create owner directory", "dir", ownerDir)
		return nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to store upload")
	}

	tempPath := filepath.Join(ownerDir, "upload-"+uuid.New().String()+".tmp")
	if err := os.WriteFile(tempPath, raw, 0o644); err != nil {
		s.log.LogError(err, "failed to stage upload", "path", tempPath)
		return nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to store upload")
	}

	// From here on, every failure path must remove the staged file
	// (and the output, once produced).

	// Step 4: content validation
	if int64(len(raw)) > settings.MaxFileSize {
		s.removeFile(tempPath)
		return nil, apperrors.NewBadRequestError(apperrors.CodeFileTooLarge,
			fmt.Sprintf("File exceeds the maximum size of %d bytes", settings.MaxFileSize))
	}

	// Sniff the real content type from the bytes; the client-supplied
	// filename and Content-Type are never trusted.
	detected := mimetype.Detect(raw)
	if !settings.FormatAllowed(detected.String()) {
		s.removeFile(tempPath)
		if strings.HasPrefix(detected.String(), "audio/") {
			return nil, apperrors.NewBadRequestError(apperrors.CodeInvalidAudioFormat,
				fmt.Sprintf("Audio format %s is not allowed", detected.String()))
		}
		return nil, apperrors.NewBadRequestError(apperrors.CodeInvalidFileType,
			"Uploaded file is not a supported audio file")
	}

	duration, err := s.prober.Duration(ctx, tempPath)
	if err != nil {
		s.removeFile(tempPath)
		s.log.Warn("upload failed duration probe", "steam_id", steamID, "error", err.Error())
		return nil, apperrors.NewBadRequestError(apperrors.CodeInvalidAudio,
			"Uploaded file could not be read as audio")
	}
	if duration > settings.MaxDuration {
		s.removeFile(tempPath)
		return nil, apperrors.NewBadRequestError(apperrors.CodeDurationTooLong,
			fmt.Sprintf("Audio exceeds the maximum duration of %.0f seconds", settings.MaxDuration))
	}

	// Step 5: transcode to the fixed output format
	outputName := uuid.New().String() + media.OutputExtension
	outputPath := filepath.Join(ownerDir, outputName)
	if err := s.transcoder.Transcode(ctx, tempPath, outputPath); err != nil {
		s.removeFile(tempPath)
		s.removeFile(outputPath)
		s.log.LogError(err, "transcode failed", "steam_id", steamID)
		return nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to process audio")
	}

	// Step 6: drop the staged file; failure here is logged, not fatal
	s.removeFile(tempPath)

	// Step 7: commit the record
	info, err := os.Stat(outputPath)
	if err != nil {
		s.removeFile(outputPath)
		s.log.LogError(err, "transcoded file missing", "path", outputPath)
		return nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to process audio")
	}

	sound := &models.Sound{
		OwnerSteamID: steamID,
		Name:         name,
		Filename:     outputName,
		Duration:     duration,
		Size:         info.Size(),
	}
	if err := s.repo.Create(ctx, sound); err != nil {
		// No record may reference a file, so the file goes too
		s.removeFile(outputPath)
		s.log.LogError(err, "failed to persist sound record", "steam_id", steamID)
		return nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to save sound")
	}

	s.log.Info("sound uploaded",
		"steam_id", steamID,
		"sound_id", sound.ID,
		"duration", duration,
		"size", info.Size(),
	)
	return sound, nil
}

// Rename changes a sound's display name, with the same validation as upload
func (s *SoundService) Rename(ctx context.Context, steamID string, id uint, name string) (*models.Sound, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, apperrors.NewBadRequestError(apperrors.CodeNameTooShort, "Sound name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, apperrors.NewBadRequestError(apperrors.CodeNameTooLong,
			fmt.Sprintf("Sound name must be at most %d characters", maxNameLength))
	}

	if err := s.repo.UpdateName(ctx, id, steamID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Sound not found")
		}
		return nil, err
	}

	s.notifyAsync(steamID)
	return s.repo.GetOwned(ctx, id, steamID)
}

// Delete removes the record and then the file. A missing file is
// tolerated: the record still goes and the call reports success.
// Deleting an already-deleted id yields NOT_FOUND, never a crash.
func (s *SoundService) Delete(ctx context.Context, steamID string, id uint) error {
	sound, err := s.repo.GetOwned(ctx, id, steamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError(apperrors.CodeNotFound, "Sound not found")
		}
		return err
	}

	if err := s.repo.Delete(ctx, id, steamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError(apperrors.CodeNotFound, "Sound not found")
		}
		return err
	}

	path := s.FilePath(sound)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Ghost file with no record; tolerated, cleaned up out of band
		s.log.Warn("failed to remove sound file", "path", path, "error", err.Error())
	}

	s.quota.Invalidate(ctx, steamID)
	s.notifyAsync(steamID)
	return nil
}

// Get returns one sound scoped to the owning identity
func (s *SoundService) Get(ctx context.Context, steamID string, id uint) (*models.Sound, error) {
	sound, err := s.repo.GetOwned(ctx, id, steamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Sound not found")
		}
		return nil, err
	}
	return sound, nil
}

// ReadAudio returns the sound record and its file bytes, scoped to the
// owning identity.
func (s *SoundService) ReadAudio(ctx context.Context, steamID string, id uint) (*models.Sound, []byte, error) {
	sound, err := s.repo.GetOwned(ctx, id, steamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Sound not found")
		}
		return nil, nil, err
	}

	data, err := os.ReadFile(s.FilePath(sound))
	if err != nil {
		// A ghost record surfaces as a read failure, not a crash
		s.log.Warn("sound file unreadable", "sound_id", id, "error", err.Error())
		return sound, nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to read sound file")
	}

	return sound, data, nil
}

// FilePath returns the on-disk location for a sound's transcoded file
func (s *SoundService) FilePath(sound *models.Sound) string {
	return filepath.Join(s.root, sound.OwnerSteamID, sound.Filename)
}

// countForOwner resolves the identity's sound count through the quota
// cache, falling through to the repository on a miss.
func (s *SoundService) countForOwner(ctx context.Context, steamID string) (int64, error) {
	if count, ok := s.quota.Get(ctx, steamID); ok {
		return count, nil
	}

	count, err := s.repo.CountByOwner(ctx, steamID)
	if err != nil {
		return 0, err
	}

	s.quota.Set(ctx, steamID, count)
	return count, nil
}

// notifyAsync pushes the updated list to a connected plugin session.
// Never awaited, never able to roll back the mutation it follows.
func (s *SoundService) notifyAsync(steamID string) {
	if s.notifier == nil {
		return
	}
	go s.notifier.NotifySoundsChanged(steamID)
}

func (s *SoundService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("cleanup failed", "path", path, "error", err.Error())
	}
}

func (s *SoundService) countUpload(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = apperrors.GetErrorCode(err)
	}
	s.metrics.UploadsTotal.WithLabelValues(outcome).Inc()
}
