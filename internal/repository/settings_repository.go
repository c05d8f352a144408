package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"steam-soundboard/backend/internal/models"
)

// SettingsRepository is the persistence contract for the settings row
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

// GormSettingsRepository implements SettingsRepository on gorm
type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

func (r *GormSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).First(&settings, 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (r *GormSettingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	settings.ID = 1
	return r.db.WithContext(ctx).Save(settings).Error
}
