package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/repository"
	"steam-soundboard/backend/pkg/cache"
	"steam-soundboard/backend/pkg/logger"
)

const settingsCacheKey = "settings"

// settingsProvider is one tier of the fallback chain: it returns a
// settings snapshot or ok=false to hand off to the next tier.
type settingsProvider func(ctx context.Context) (models.Settings, bool)

// SettingsService reads the operational limits through an ordered
// cache, store, hardcoded-default chain and applies validated partial
// updates.
type SettingsService struct {
	repo repository.SettingsRepository
	kv   cache.KV
	ttl  time.Duration
	log  *logger.Logger

	chain []settingsProvider
}

// NewSettingsService creates a settings service with the given cache TTL
func NewSettingsService(repo repository.SettingsRepository, kv cache.KV, ttl time.Duration, log *logger.Logger) *SettingsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &SettingsService{
		repo: repo,
		kv:   kv,
		ttl:  ttl,
		log:  log,
	}
	s.chain = []settingsProvider{
		s.fromCache,
		s.fromStore,
		s.fromDefaults,
	}
	return s
}

// Current resolves the active settings. The defaults tier always
// succeeds, so infra failures never surface to the caller.
func (s *SettingsService) Current(ctx context.Context) models.Settings {
	for _, provider := range s.chain {
		if settings, ok := provider(ctx); ok {
			return settings
		}
	}
	// Unreachable: fromDefaults never declines
	return models.DefaultSettings()
}

// Update merges a partial patch over the authoritative settings,
// re-validates the whole row, commits and invalidates the cache.
func (s *SettingsService) Update(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return models.Settings{}, err
		}
		defaults := models.DefaultSettings()
		current = &defaults
	}

	next := patch.Apply(*current)
	if err := next.Validate(); err != nil {
		return models.Settings{}, err
	}

	if err := s.repo.Save(ctx, &next); err != nil {
		return models.Settings{}, err
	}

	s.kv.Delete(ctx, settingsCacheKey)
	return next, nil
}

func (s *SettingsService) fromCache(ctx context.Context) (models.Settings, bool) {
	raw, ok := s.kv.Get(ctx, settingsCacheKey)
	if !ok {
		return models.Settings{}, false
	}

	var settings models.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		// Deserialization failure reads as a miss
		s.log.Warn("cached settings unreadable", "error", err.Error())
		return models.Settings{}, false
	}
	return settings, true
}

func (s *SettingsService) fromStore(ctx context.Context) (models.Settings, bool) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("settings store unavailable, using defaults", "error", err.Error())
		}
		return models.Settings{}, false
	}

	if encoded, err := json.Marshal(settings); err == nil {
		s.kv.Set(ctx, settingsCacheKey, string(encoded), s.ttl)
	}
	return *settings, true
}

func (s *SettingsService) fromDefaults(_ context.Context) (models.Settings, bool) {
	return models.DefaultSettings(), true
}
