package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/models"
)

// GetUsernameByID retrieves username by user ID
func GetUsernameByID(userID string) (string, error) {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return "", err
	}

	var username string
	err = database.PostgresDB.QueryRow(`
		SELECT username FROM users WHERE id = $1 AND is_active = TRUE
	`, parsedID).Scan(&username)

	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // User not found or inactive
		}
		return "", err
	}

	return username, nil
}

// GetUserIDByUsername retrieves user ID by username
func GetUserIDByUsername(username string) (string, error) {
	var userID uuid.UUID
	err := database.PostgresDB.QueryRow(`
		SELECT id FROM users WHERE LOWER(username) = LOWER($1) AND is_active = TRUE
	`, strings.TrimSpace(username)).Scan(&userID)

	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}

	return userID.String(), nil
}

// GetUserByID loads a user's public profile. Online state comes from the
// cross-instance presence cache, and is masked when the user hides it.
func GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, username, display_name, COALESCE(avatar_url, ''), created_at, last_seen, is_active
		FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.CreatedAt, &u.LastSeen, &u.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	social := NewSocialService()
	visible, err := social.ShowsOnlineStatus(ctx, userID)
	if err == nil && visible {
		u.IsOnline = IsUserOnline(ctx, userID)
	}
	return &u, nil
}

// SearchUsers matches active users by username prefix, excluding the
// requesting user. Capped at 20 rows.
func SearchUsers(ctx context.Context, selfID, query string) ([]models.User, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, nil
	}

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, username, display_name, COALESCE(avatar_url, ''), created_at, last_seen
		FROM users
		WHERE LOWER(username) LIKE $1 || '%' AND is_active = TRUE AND id != $2
		ORDER BY username
		LIMIT 20
	`, query, selfID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// UpdateProfile updates display name and avatar for a user.
func UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE users SET display_name = $2, avatar_url = NULLIF($3, '') WHERE id = $1
	`, userID, strings.TrimSpace(displayName), strings.TrimSpace(avatarURL))
	return err
}
