package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"steam-soundboard/backend/internal/models"
)

// UserRepository is the persistence contract for user records. Writes
// happen only through the identity exchange and the admin ban endpoint.
type UserRepository interface {
	GetBySteamID(ctx context.Context, steamID string) (*models.User, error)
	GetBySteamIDWithSounds(ctx context.Context, steamID string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	SetBanned(ctx context.Context, steamID string, banned bool) error
}

// GormUserRepository implements UserRepository on gorm
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetBySteamID(ctx context.Context, steamID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("steam_id64 = ?", steamID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetBySteamIDWithSounds(ctx context.Context, steamID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Sounds", func(db *gorm.DB) *gorm.DB {
			return db.Order("sounds.created_at DESC")
		}).
		Where("steam_id64 = ?", steamID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "steam_id64"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
		}).
		Create(user).Error
}

func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *GormUserRepository) SetBanned(ctx context.Context, steamID string, banned bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("steam_id64 = ?", steamID).
		Update("banned", banned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
