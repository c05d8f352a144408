package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/internal/service"
	apperrors "steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
)

// Client-to-server message types
const (
	TypeAuth      = "auth"
	TypeGetSounds = "get_sounds"
	TypePlaySound = "play_sound"
)

// Server-to-client message types
const (
	TypeAuthSuccess   = "auth_success"
	TypeAuthError     = "auth_error"
	TypeSoundsList    = "sounds_list"
	TypeSoundData     = "sound_data"
	TypeSoundError    = "sound_error"
	TypeSoundsUpdated = "sounds_updated"
	TypeError         = "error"
)

// Inbound is a decoded client message. Malformed marks payloads whose
// type field is missing or not a string.
type Inbound struct {
	Type      string
	SteamID   string
	SoundID   uint
	Malformed bool
}

// ParseInbound decodes a raw client frame
func ParseInbound(data []byte) Inbound {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{Malformed: true}
	}

	rawType, ok := raw["type"]
	if !ok {
		return Inbound{Malformed: true}
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return Inbound{Malformed: true}
	}

	in := Inbound{Type: typ}
	if v, ok := raw["steamId64"]; ok {
		_ = json.Unmarshal(v, &in.SteamID)
	}
	if v, ok := raw["soundId"]; ok {
		_ = json.Unmarshal(v, &in.SoundID)
	}
	return in
}

// AuthSuccessMessage acknowledges authentication with the current catalog
type AuthSuccessMessage struct {
	Type     string                  `json:"type"`
	Username string                  `json:"username"`
	Sounds   []models.SoundListEntry `json:"sounds"`
}

// AuthErrorMessage reports an authentication failure or displacement
type AuthErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// SoundsListMessage carries the catalog metadata, never audio bytes
type SoundsListMessage struct {
	Type   string                  `json:"type"`
	Sounds []models.SoundListEntry `json:"sounds"`
}

// SoundDataMessage carries one sound's audio, base64-encoded
type SoundDataMessage struct {
	Type        string  `json:"type"`
	SoundID     uint    `json:"soundId"`
	Name        string  `json:"name"`
	Duration    float64 `json:"duration"`
	AudioBase64 string  `json:"audioBase64"`
}

// SoundErrorMessage reports a per-sound failure without closing the connection
type SoundErrorMessage struct {
	Type    string `json:"type"`
	SoundID uint   `json:"soundId"`
	Error   string `json:"error"`
}

// SoundsUpdatedMessage is pushed when the owner's catalog changes
type SoundsUpdatedMessage struct {
	Type   string                  `json:"type"`
	Sounds []models.SoundListEntry `json:"sounds"`
}

// ErrorMessage reports a protocol-level problem
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func authSuccess(username string, sounds []models.SoundListEntry) AuthSuccessMessage {
	if sounds == nil {
		sounds = []models.SoundListEntry{}
	}
	return AuthSuccessMessage{Type: TypeAuthSuccess, Username: username, Sounds: sounds}
}

func authError(reason string) AuthErrorMessage {
	return AuthErrorMessage{Type: TypeAuthError, Error: reason}
}

func soundsList(msgType string, sounds []models.SoundListEntry) SoundsListMessage {
	if sounds == nil {
		sounds = []models.SoundListEntry{}
	}
	return SoundsListMessage{Type: msgType, Sounds: sounds}
}

func soundError(id uint, reason string) SoundErrorMessage {
	return SoundErrorMessage{Type: TypeSoundError, SoundID: id, Error: reason}
}

func protocolError(reason string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Error: reason}
}

// encodeAudio base64-encodes file bytes for the sound_data payload
func encodeAudio(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// State is the per-connection authentication state. The zero value is
// the unauthenticated state a connection starts in.
type State struct {
	Authenticated bool
	SteamID       string
	Username      string
	UserID        uint
}

// Directory looks up accounts for authentication
type Directory interface {
	GetBySteamIDWithSounds(ctx context.Context, steamID string) (*models.User, error)
}

// Library reads sound metadata and audio for authenticated identities
type Library interface {
	ListEntries(ctx context.Context, steamID string) ([]models.SoundListEntry, error)
	ReadAudio(ctx context.Context, steamID string, id uint) (*models.Sound, []byte, error)
}

// Result is the outcome of one protocol step
type Result struct {
	// State is the connection state after the step
	State State
	// Messages are emitted on the same connection, in order
	Messages []any
	// Close forcibly ends the connection after the messages are flushed
	Close bool
	// Register tells the gateway to bind State.SteamID in the registry
	Register bool
}

// Machine evaluates protocol transitions. It holds no per-connection
// state, so one instance serves every connection and transitions are
// testable without a live socket.
type Machine struct {
	directory Directory
	library   Library
	log       *logger.Logger
}

// NewMachine creates the protocol state machine
func NewMachine(directory Directory, library Library, log *logger.Logger) *Machine {
	return &Machine{
		directory: directory,
		library:   library,
		log:       log,
	}
}

// Handle computes (new state, outgoing messages) for one inbound message
func (m *Machine) Handle(ctx context.Context, state State, in Inbound) Result {
	if in.Malformed {
		return Result{State: state, Messages: []any{protocolError("Invalid message")}}
	}

	switch in.Type {
	case TypeAuth:
		return m.handleAuth(ctx, in)
	case TypeGetSounds:
		return m.handleGetSounds(ctx, state)
	case TypePlaySound:
		return m.handlePlaySound(ctx, state, in)
	default:
		return Result{State: state, Messages: []any{protocolError("Unknown message type")}}
	}
}

// handleAuth authenticates the connection. Re-authentication on an
// already-authenticated connection is allowed and rebinds the identity.
func (m *Machine) handleAuth(ctx context.Context, in Inbound) Result {
	user, err := m.directory.GetBySteamIDWithSounds(ctx, in.SteamID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			m.log.Warn("plugin auth failed", "steam_id", in.SteamID)
			return Result{
				Messages: []any{authError("User not found. Please log in on the website first.")},
				Close:    true,
			}
		}
		// Store outage; the details stay in the logs
		m.log.LogError(err, "auth lookup failed", "steam_id", in.SteamID)
		return Result{
			Messages: []any{authError("Authentication failed. Please try again later.")},
			Close:    true,
		}
	}

	if user.Banned {
		return Result{
			Messages: []any{authError("Your account is banned")},
			Close:    true,
		}
	}

	next := State{
		Authenticated: true,
		SteamID:       user.SteamID64,
		Username:      user.Username,
		UserID:        user.ID,
	}
	return Result{
		State:    next,
		Register: true,
		Messages: []any{authSuccess(user.Username, models.ListEntries(user.Sounds))},
	}
}

func (m *Machine) handleGetSounds(ctx context.Context, state State) Result {
	if !state.Authenticated {
		return Result{State: state, Messages: []any{authError("Not authenticated")}}
	}

	entries, err := m.library.ListEntries(ctx, state.SteamID)
	if err != nil {
		m.log.LogError(err, "failed to list sounds", "steam_id", state.SteamID)
		return Result{State: state, Messages: []any{protocolError("Failed to load sounds")}}
	}

	return Result{State: state, Messages: []any{soundsList(TypeSoundsList, entries)}}
}

func (m *Machine) handlePlaySound(ctx context.Context, state State, in Inbound) Result {
	if !state.Authenticated {
		return Result{State: state, Messages: []any{authError("Not authenticated")}}
	}

	sound, data, err := m.library.ReadAudio(ctx, state.SteamID, in.SoundID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return Result{State: state, Messages: []any{soundError(in.SoundID, "Sound not found")}}
		}
		// Ghost record: the row exists but the file does not
		return Result{State: state, Messages: []any{soundError(in.SoundID, "Failed to read sound file")}}
	}

	return Result{State: state, Messages: []any{SoundDataMessage{
		Type:        TypeSoundData,
		SoundID:     sound.ID,
		Name:        sound.Name,
		Duration:    sound.Duration,
		AudioBase64: encodeAudio(data),
	}}}
}
