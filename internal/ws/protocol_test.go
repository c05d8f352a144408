package ws

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/service"
	apperrors "steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
)

type fakeDirectory struct {
	users map[string]*models.User
	err   error
}

func (f *fakeDirectory) GetBySteamIDWithSounds(_ context.Context, steamID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[steamID]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return user, nil
}

type fakeLibrary struct {
	entries map[string][]models.SoundListEntry
	sounds  map[uint]*models.Sound
	audio   map[uint][]byte
	// soundIDs whose file reads fail
	unreadable map[uint]bool
}

func (f *fakeLibrary) ListEntries(_ context.Context, steamID string) ([]models.SoundListEntry, error) {
	return f.entries[steamID], nil
}

func (f *fakeLibrary) ReadAudio(_ context.Context, steamID string, id uint) (*models.Sound, []byte, error) {
	sound, ok := f.sounds[id]
	if !ok || sound.OwnerSteamID != steamID {
		return nil, nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Sound not found")
	}
	if f.unreadable[id] {
		return sound, nil, apperrors.NewInternalServerError(apperrors.CodeInternal, "Failed to read sound file")
	}
	return sound, f.audio[id], nil
}

func testMachine() (*Machine, *fakeDirectory, *fakeLibrary) {
	dir := &fakeDirectory{users: make(map[string]*models.User)}
	lib := &fakeLibrary{
		entries:    make(map[string][]models.SoundListEntry),
		sounds:     make(map[uint]*models.Sound),
		audio:      make(map[uint][]byte),
		unreadable: make(map[uint]bool),
	}
	log := logger.New(logger.Config{Level: "error"})
	return NewMachine(dir, lib, log), dir, lib
}

func TestParseInbound(t *testing.T) {
	in := ParseInbound([]byte(`{"type":"auth","steamId64":"765611"}`))
	assert.False(t, in.Malformed)
	assert.Equal(t, "auth", in.Type)
	assert.Equal(t, "765611", in.SteamID)

	in = ParseInbound([]byte(`{"type":"play_sound","soundId":7}`))
	assert.Equal(t, uint(7), in.SoundID)

	// Missing type
	assert.True(t, ParseInbound([]byte(`{"steamId64":"765611"}`)).Malformed)
	// Non-string type
	assert.True(t, ParseInbound([]byte(`{"type":42}`)).Malformed)
	// Not JSON at all
	assert.True(t, ParseInbound([]byte(`not json`)).Malformed)
}

func TestAuthSuccess(t *testing.T) {
	machine, dir, _ := testMachine()
	dir.users["765611"] = &models.User{
		ID:        3,
		SteamID64: "765611",
		Username:  "player1",
		Sounds: []models.Sound{
			{ID: 1, Name: "Alert", Duration: 3.0},
		},
	}

	res := machine.Handle(context.Background(), State{}, Inbound{Type: TypeAuth, SteamID: "765611"})

	assert.True(t, res.State.Authenticated)
	assert.Equal(t, "765611", res.State.SteamID)
	assert.Equal(t, uint(3), res.State.UserID)
	assert.True(t, res.Register)
	assert.False(t, res.Close)

	require.Len(t, res.Messages, 1)
	msg, ok := res.Messages[0].(AuthSuccessMessage)
	require.True(t, ok)
	assert.Equal(t, TypeAuthSuccess, msg.Type)
	assert.Equal(t, "player1", msg.Username)
	require.Len(t, msg.Sounds, 1)
	assert.Equal(t, "Alert", msg.Sounds[0].Name)
}

func TestAuthUnknownUserCloses(t *testing.T) {
	machine, _, _ := testMachine()

	res := machine.Handle(context.Background(), State{}, Inbound{Type: TypeAuth, SteamID: "nobody"})

	assert.False(t, res.State.Authenticated)
	assert.True(t, res.Close)
	require.Len(t, res.Messages, 1)
	msg := res.Messages[0].(AuthErrorMessage)
	assert.Equal(t, TypeAuthError, msg.Type)
	assert.Contains(t, msg.Error, "User not found")
}

func TestAuthStoreOutageHidesDetails(t *testing.T) {
	machine, dir, _ := testMachine()
	dir.err = assert.AnError

	res := machine.Handle(context.Background(), State{}, Inbound{Type: TypeAuth, SteamID: "765611"})

	assert.False(t, res.State.Authenticated)
	assert.True(t, res.Close)
	require.Len(t, res.Messages, 1)
	msg := res.Messages[0].(AuthErrorMessage)
	// An infra failure must not claim the account does not exist
	assert.NotContains(t, msg.Error, "User not found")
	assert.Contains(t, msg.Error, "Authentication failed")
}

func TestAuthBannedUserCloses(t *testing.T) {
	machine, dir, _ := testMachine()
	dir.users["765611"] = &models.User{SteamID64: "765611", Username: "player1", Banned: true}

	res := machine.Handle(context.Background(), State{}, Inbound{Type: TypeAuth, SteamID: "765611"})

	assert.False(t, res.State.Authenticated)
	assert.True(t, res.Close)
	msg := res.Messages[0].(AuthErrorMessage)
	assert.Contains(t, msg.Error, "banned")
}

func TestGetSoundsRequiresAuth(t *testing.T) {
	machine, _, _ := testMachine()

	res := machine.Handle(context.Background(), State{}, Inbound{Type: TypeGetSounds})

	assert.False(t, res.State.Authenticated)
	assert.False(t, res.Close)
	require.Len(t, res.Messages, 1)
	msg := res.Messages[0].(AuthErrorMessage)
	assert.Equal(t, "Not authenticated", msg.Error)
}

func TestGetSoundsAuthenticated(t *testing.T) {
	machine, _, lib := testMachine()
	lib.entries["765611"] = []models.SoundListEntry{
		{ID: 2, Name: "Newest", Duration: 2.5},
		{ID: 1, Name: "Oldest", Duration: 1.0},
	}

	state := State{Authenticated: true, SteamID: "765611"}
	res := machine.Handle(context.Background(), state, Inbound{Type: TypeGetSounds})

	assert.Equal(t, state, res.State)
	require.Len(t, res.Messages, 1)
	msg := res.Messages[0].(SoundsListMessage)
	assert.Equal(t, TypeSoundsList, msg.Type)
	require.Len(t, msg.Sounds, 2)
	assert.Equal(t, "Newest", msg.Sounds[0].Name)
}

func TestPlaySoundRequiresAuth(t *testing.T) {
	machine, _, _ := testMachine()

	res := machine.Handle(context.Background(), State{}, Inbound{Type: TypePlaySound, SoundID: 1})

	require.Len(t, res.Messages, 1)
	_, ok := res.Messages[0].(AuthErrorMessage)
	assert.True(t, ok)
}

func TestPlaySoundNotOwnedYieldsSoundError(t *testing.T) {
	machine, _, lib := testMachine()
	lib.sounds[9] = &models.Sound{ID: 9, OwnerSteamID: "someone-else", Name: "Theirs"}
	lib.audio[9] = []byte("secret")

	state := State{Authenticated: true, SteamID: "765611"}
	res := machine.Handle(context.Background(), state, Inbound{Type: TypePlaySound, SoundID: 9})

	assert.False(t, res.Close)
	require.Len(t, res.Messages, 1)
	msg, ok := res.Messages[0].(SoundErrorMessage)
	require.True(t, ok, "must not leak another owner's bytes")
	assert.Equal(t, uint(9), msg.SoundID)
	assert.Equal(t, "Sound not found", msg.Error)
}

func TestPlaySoundReadFailureKeepsConnection(t *testing.T) {
	machine, _, lib := testMachine()
	lib.sounds[4] = &models.Sound{ID: 4, OwnerSteamID: "765611", Name: "Ghost"}
	lib.unreadable[4] = true

	state := State{Authenticated: true, SteamID: "765611"}
	res := machine.Handle(context.Background(), state, Inbound{Type: TypePlaySound, SoundID: 4})

	assert.False(t, res.Close)
	assert.True(t, res.State.Authenticated)
	msg := res.Messages[0].(SoundErrorMessage)
	assert.Equal(t, "Failed to read sound file", msg.Error)
}

func TestPlaySoundReturnsBase64Audio(t *testing.T) {
	machine, _, lib := testMachine()
	audio := []byte{0x49, 0x44, 0x33, 0x01, 0x02}
	lib.sounds[5] = &models.Sound{ID: 5, OwnerSteamID: "765611", Name: "Alert", Duration: 3.0}
	lib.audio[5] = audio

	state := State{Authenticated: true, SteamID: "765611"}
	res := machine.Handle(context.Background(), state, Inbound{Type: TypePlaySound, SoundID: 5})

	require.Len(t, res.Messages, 1)
	msg := res.Messages[0].(SoundDataMessage)
	assert.Equal(t, TypeSoundData, msg.Type)
	assert.Equal(t, uint(5), msg.SoundID)
	assert.Equal(t, "Alert", msg.Name)
	assert.Equal(t, 3.0, msg.Duration)
	assert.Equal(t, base64.StdEncoding.EncodeToString(audio), msg.AudioBase64)
}

func TestMalformedMessageKeepsState(t *testing.T) {
	machine, _, _ := testMachine()

	state := State{Authenticated: true, SteamID: "765611"}
	res := machine.Handle(context.Background(), state, Inbound{Malformed: true})

	assert.Equal(t, state, res.State)
	assert.False(t, res.Close)
	msg := res.Messages[0].(ErrorMessage)
	assert.Equal(t, TypeError, msg.Type)
}

func TestUnknownMessageType(t *testing.T) {
	machine, _, _ := testMachine()

	res := machine.Handle(context.Background(), State{}, Inbound{Type: "dance"})

	assert.False(t, res.Close)
	msg := res.Messages[0].(ErrorMessage)
	assert.Contains(t, msg.Error, "Unknown message type")
}
