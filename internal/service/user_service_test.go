package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/repository"
)

type memUserRepo struct {
	users  map[string]*models.User
	nextID uint
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User), nextID: 1}
}

func (r *memUserRepo) GetBySteamID(_ context.Context, steamID string) (*models.User, error) {
	user, ok := r.users[steamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetBySteamIDWithSounds(ctx context.Context, steamID string) (*models.User, error) {
	return r.GetBySteamID(ctx, steamID)
}

func (r *memUserRepo) Upsert(_ context.Context, user *models.User) error {
	if existing, ok := r.users[user.SteamID64]; ok {
		existing.Username = user.Username
		return nil
	}
	copied := *user
	copied.ID = r.nextID
	r.nextID++
	r.users[user.SteamID64] = &copied
	return nil
}

func (r *memUserRepo) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memUserRepo) SetBanned(_ context.Context, steamID string, banned bool) error {
	user, ok := r.users[steamID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Banned = banned
	return nil
}

func TestEnsureUserCreatesAndRefreshes(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.EnsureUser(ctx, "765611", "player1")
	require.NoError(t, err)
	assert.Equal(t, "player1", user.Username)
	assert.NotZero(t, user.ID)

	// A later login refreshes the display name but keeps the row
	again, err := svc.EnsureUser(ctx, "765611", "renamed")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "renamed", again.Username)
}

func TestEnsureUserKeepsBanFlag(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.EnsureUser(ctx, "765611", "player1")
	require.NoError(t, err)
	require.NoError(t, svc.SetBanned(ctx, "765611", true))

	// Logging in again does not lift the ban
	user, err := svc.EnsureUser(ctx, "765611", "player1")
	require.NoError(t, err)
	assert.True(t, user.Banned)
}

func TestGetBySteamIDNotFound(t *testing.T) {
	svc := NewUserService(newMemUserRepo())

	_, err := svc.GetBySteamID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestIsBanned(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()

	// Unknown identities are not banned
	banned, err := svc.IsBanned(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, banned)

	_, err = svc.EnsureUser(ctx, "765611", "player1")
	require.NoError(t, err)

	banned, err = svc.IsBanned(ctx, "765611")
	require.NoError(t, err)
	assert.False(t, banned)

	require.NoError(t, svc.SetBanned(ctx, "765611", true))
	banned, err = svc.IsBanned(ctx, "765611")
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestSetBannedUnknownUser(t *testing.T) {
	svc := NewUserService(newMemUserRepo())

	err := svc.SetBanned(context.Background(), "nobody", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
