package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"steam-soundboard/backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// SoundRepository is the persistence contract for sound records
type SoundRepository interface {
	Create(ctx context.Context, sound *models.Sound) error
	GetOwned(ctx context.Context, id uint, steamID string) (*models.Sound, error)
	ListByOwner(ctx context.Context, steamID string) ([]models.Sound, error)
	CountByOwner(ctx context.Context, steamID string) (int64, error)
	UpdateName(ctx context.Context, id uint, steamID, name string) error
	Delete(ctx context.Context, id uint, steamID string) error
}

// GormSoundRepository implements SoundRepository on gorm
type GormSoundRepository struct {
	db *gorm.DB
}

func NewGormSoundRepository(db *gorm.DB) *GormSoundRepository {
	return &GormSoundRepository{db: db}
}

func (r *GormSoundRepository) Create(ctx context.Context, sound *models.Sound) error {
	return r.db.WithContext(ctx).Create(sound).Error
}

func (r *GormSoundRepository) GetOwned(ctx context.Context, id uint, steamID string) (*models.Sound, error) {
	var sound models.Sound
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_steam_id = ?", id, steamID).
		First(&sound).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sound, nil
}

func (r *GormSoundRepository) ListByOwner(ctx context.Context, steamID string) ([]models.Sound, error) {
	var sounds []models.Sound
	err := r.db.WithContext(ctx).
		Where("owner_steam_id = ?", steamID).
		Order("created_at DESC").
		Find(&sounds).Error
	return sounds, err
}

func (r *GormSoundRepository) CountByOwner(ctx context.Context, steamID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sound{}).
		Where("owner_steam_id = ?", steamID).
		Count(&count).Error
	return count, err
}

func (r *GormSoundRepository) UpdateName(ctx context.Context, id uint, steamID, name string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Sound{}).
		Where("id = ? AND owner_steam_id = ?", id, steamID).
		Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSoundRepository) Delete(ctx context.Context, id uint, steamID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_steam_id = ?", id, steamID).
		Delete(&models.Sound{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
