package models

import (
	"time"
)

// User represents a Steam account known to the soundboard. Records are
// created and refreshed by the identity exchange; the core only reads them.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SteamID64 string    `gorm:"uniqueIndex;size:32" json:"steam_id64"`
	Username  string    `json:"username"`
	Banned    bool      `gorm:"default:false" json:"banned"`
	Admin     bool      `gorm:"default:false" json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sounds []Sound `gorm:"foreignKey:OwnerSteamID;references:SteamID64" json:"sounds,omitempty"`
}

// UserResponse is the response structure for user data
type UserResponse struct {
	ID         uint      `json:"id"`
	SteamID64  string    `json:"steam_id64"`
	Username   string    `json:"username"`
	Banned     bool      `json:"banned"`
	Admin      bool      `json:"admin"`
	SoundCount int       `json:"sound_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts a User to its API representation
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		SteamID64:  u.SteamID64,
		Username:   u.Username,
		Banned:     u.Banned,
		Admin:      u.Admin,
		SoundCount: len(u.Sounds),
		CreatedAt:  u.CreatedAt,
	}
}
