package models

import (
	"time"
)

// Sound represents one uploaded and transcoded clip. Filename is always
// generated by the upload pipeline, never user supplied, and addresses a
// file under the owner's storage directory. A row exists if and only if
// the file was written; the pipeline's failure path maintains this.
type Sound struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerSteamID string    `gorm:"index;size:32" json:"owner_steam_id"`
	Name         string    `gorm:"size:32" json:"name"`
	Filename     string    `gorm:"uniqueIndex" json:"-"`
	Duration     float64   `json:"duration"` // seconds
	Size         int64     `json:"size"`     // bytes of the transcoded file
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Sound) TableName() string {
	return "sounds"
}

// SoundResponse is the API representation of a sound
type SoundResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Duration  float64   `json:"duration"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a Sound to its API representation
func (s *Sound) ToResponse() SoundResponse {
	return SoundResponse{
		ID:        s.ID,
		Name:      s.Name,
		Duration:  s.Duration,
		Size:      s.Size,
		CreatedAt: s.CreatedAt,
	}
}

// SoundListEntry is the metadata pushed over the plugin socket:
// id, name and duration only, never audio bytes.
type SoundListEntry struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
}

// ToListEntry converts a Sound to its socket metadata form
func (s *Sound) ToListEntry() SoundListEntry {
	return SoundListEntry{
		ID:       s.ID,
		Name:     s.Name,
		Duration: s.Duration,
	}
}

// ListEntries maps a slice of sounds to socket metadata
func ListEntries(sounds []Sound) []SoundListEntry {
	entries := make([]SoundListEntry, 0, len(sounds))
	for i := range sounds {
		entries = append(entries, sounds[i].ToListEntry())
	}
	return entries
}
