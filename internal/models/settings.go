package models

import (
	"fmt"
	"strings"
	"time"
)

// Validation ranges for operational settings
const (
	MinSoundsPerUser = 1
	MaxSoundsPerUser = 100

	MinFileSize = 100 * 1024       // 100 KiB
	MaxFileSize = 50 * 1024 * 1024 // 50 MiB

	MinDuration = 1.0
	MaxDuration = 60.0

	MinCooldown = 0
	MaxCooldown = 300
)

// Settings is the single-row table of mutable operational limits.
// It is read through the cache-store-default chain on every quota check.
type Settings struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	MaxSoundsPerUser int       `json:"max_sounds_per_user"`
	MaxFileSize      int64     `json:"max_file_size"`
	MaxDuration      float64   `json:"max_duration"`
	CooldownSeconds  int       `json:"cooldown_seconds"`
	AllowedFormats   string    `json:"allowed_formats"` // comma-separated MIME types
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Settings) TableName() string {
	return "settings"
}

// DefaultSettings is the hardcoded last tier of the fallback chain.
func DefaultSettings() Settings {
	return Settings{
		ID:               1,
		MaxSoundsPerUser: 25,
		MaxFileSize:      5 * 1024 * 1024,
		MaxDuration:      10,
		CooldownSeconds:  0,
		AllowedFormats:   "audio/mpeg,audio/wav,audio/x-wav,audio/ogg,audio/mp4,audio/webm,audio/flac",
	}
}

// Formats returns the allowed MIME list as a slice
func (s Settings) Formats() []string {
	parts := strings.Split(s.AllowedFormats, ",")
	formats := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			formats = append(formats, trimmed)
		}
	}
	return formats
}

// FormatAllowed reports whether the sniffed MIME type is acceptable
func (s Settings) FormatAllowed(mime string) bool {
	for _, f := range s.Formats() {
		if strings.EqualFold(f, mime) {
			return true
		}
	}
	return false
}

// Validate checks every field against its permitted range. The whole
// settings row is re-validated after any partial update.
func (s Settings) Validate() error {
	if s.MaxSoundsPerUser < MinSoundsPerUser || s.MaxSoundsPerUser > MaxSoundsPerUser {
		return fmt.Errorf("max_sounds_per_user must be between %d and %d", MinSoundsPerUser, MaxSoundsPerUser)
	}
	if s.MaxFileSize < MinFileSize || s.MaxFileSize > MaxFileSize {
		return fmt.Errorf("max_file_size must be between %d and %d bytes", MinFileSize, MaxFileSize)
	}
	if s.MaxDuration < MinDuration || s.MaxDuration > MaxDuration {
		return fmt.Errorf("max_duration must be between %v and %v seconds", MinDuration, MaxDuration)
	}
	if s.CooldownSeconds < MinCooldown || s.CooldownSeconds > MaxCooldown {
		return fmt.Errorf("cooldown_seconds must be between %d and %d", MinCooldown, MaxCooldown)
	}
	if len(s.Formats()) == 0 {
		return fmt.Errorf("allowed_formats must not be empty")
	}
	return nil
}

// SettingsPatch is a partial update request; nil fields keep current values
type SettingsPatch struct {
	MaxSoundsPerUser *int     `json:"max_sounds_per_user,omitempty"`
	MaxFileSize      *int64   `json:"max_file_size,omitempty"`
	MaxDuration      *float64 `json:"max_duration,omitempty"`
	CooldownSeconds  *int     `json:"cooldown_seconds,omitempty"`
	AllowedFormats   []string `json:"allowed_formats,omitempty"`
}

// Apply merges the patch over the current settings
func (p SettingsPatch) Apply(current Settings) Settings {
	next := current
	if p.MaxSoundsPerUser != nil {
		next.MaxSoundsPerUser = *p.MaxSoundsPerUser
	}
	if p.MaxFileSize != nil {
		next.MaxFileSize = *p.MaxFileSize
	}
	if p.MaxDuration != nil {
		next.MaxDuration = *p.MaxDuration
	}
	if p.CooldownSeconds != nil {
		next.CooldownSeconds = *p.CooldownSeconds
	}
	if p.AllowedFormats != nil {
		next.AllowedFormats = strings.Join(p.AllowedFormats, ",")
	}
	return next
}
