package service

import (
	"context"
	"errors"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/repository"
)

// ErrUserNotFound is returned when no user exists for a steam id
var ErrUserNotFound = errors.New("user not found")

// UserService reads user records. Accounts are created by the identity
// exchange; the core treats them as read-only apart from the admin
// ban toggle.
type UserService struct {
	repo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetBySteamID returns the user for a steam id
func (s *UserService) GetBySteamID(ctx context.Context, steamID string) (*models.User, error) {
	user, err := s.repo.GetBySteamID(ctx, steamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetBySteamIDWithSounds returns the user and their sounds, newest first
func (s *UserService) GetBySteamIDWithSounds(ctx context.Context, steamID string) (*models.User, error) {
	user, err := s.repo.GetBySteamIDWithSounds(ctx, steamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureUser upserts the record for an identity that just completed the
// Steam exchange, refreshing the display name.
func (s *UserService) EnsureUser(ctx context.Context, steamID, username string) (*models.User, error) {
	user := &models.User{
		SteamID64: steamID,
		Username:  username,
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	// Re-read so counters and flags reflect the stored row
	return s.GetBySteamID(ctx, steamID)
}

// IsBanned reports whether the identity is banned. Unknown users are
// not banned; they simply have no account yet.
func (s *UserService) IsBanned(ctx context.Context, steamID string) (bool, error) {
	user, err := s.repo.GetBySteamID(ctx, steamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Banned, nil
}

// List returns all users for the admin panel
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// SetBanned toggles the ban flag for an identity
func (s *UserService) SetBanned(ctx context.Context, steamID string, banned bool) error {
	err := s.repo.SetBanned(ctx, steamID, banned)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
