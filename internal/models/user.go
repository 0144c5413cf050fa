package models

import (
	"time"
)

// User represents the public profile returned to clients.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
	IsActive    bool      `json:"is_active"`
	IsOnline    bool      `json:"is_online"`

	// Internal only - never returned in JSON
	PasswordHash string `json:"-"`
}

// UserSettings holds per-user privacy preferences. ShowOnlineStatus=false
// suppresses all presence broadcasts for that user's transitions.
type UserSettings struct {
	UserID           string    `json:"user_id"`
	ShowOnlineStatus bool      `json:"show_online_status"`
	ReadReceipts     bool      `json:"read_receipts"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Group is a named multi-user conversation.
type Group struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedBy   string    `json:"created_by"`
	MemberCount int       `json:"member_count"`
}

// GroupMember is a membership row.
type GroupMember struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}
