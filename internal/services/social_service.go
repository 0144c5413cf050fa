package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/models"
)

// SocialService answers relationship questions over PostgreSQL: blocks,
// mutes, privacy settings, group membership. It satisfies the realtime
// coordinator's SocialStore interface and backs the blocking/mute REST
// endpoints.
type SocialService struct{}

func NewSocialService() *SocialService {
	return &SocialService{}
}

// HasBlockRelationship reports whether a block exists between the two users
// in either direction. Either row suppresses relay both ways.
func (s *SocialService) HasBlockRelationship(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`, a, b).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ShowsOnlineStatus returns the user's presence visibility preference.
// Users without a settings row default to visible.
func (s *SocialService) ShowsOnlineStatus(ctx context.Context, userID string) (bool, error) {
	var show bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT show_online_status FROM user_settings WHERE user_id = $1
	`, userID).Scan(&show)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return show, nil
}

// GroupMemberIDs returns the user ids of a group's members.
func (s *SocialService) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT user_id FROM group_members WHERE group_id = $1
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TouchLastSeen stamps the user's last_seen; called on disconnect.
func (s *SocialService) TouchLastSeen(ctx context.Context, userID string) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE users SET last_seen = NOW() WHERE id = $1
	`, userID)
	return err
}

// BlockUser records a directed block. Already-blocked is a no-op.
func (s *SocialService) BlockUser(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return fmt.Errorf("cannot block yourself")
	}
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO user_blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`, blockerID, blockedID)
	return err
}

// UnblockUser removes the directed block, if present.
func (s *SocialService) UnblockUser(ctx context.Context, blockerID, blockedID string) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2
	`, blockerID, blockedID)
	return err
}

// BlockedUsers lists users the given user has blocked.
func (s *SocialService) BlockedUsers(ctx context.Context, blockerID string) ([]models.User, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT u.id, u.username, u.display_name, COALESCE(u.avatar_url, ''), u.created_at, u.last_seen
		FROM user_blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = $1
		ORDER BY b.created_at DESC
	`, blockerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// MuteUser records a mute. The muter still receives messages; clients use
// the mute list to silence notifications.
func (s *SocialService) MuteUser(ctx context.Context, muterID, mutedID string) error {
	if muterID == mutedID {
		return fmt.Errorf("cannot mute yourself")
	}
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO user_mutes (muter_id, muted_id)
		VALUES ($1, $2)
		ON CONFLICT (muter_id, muted_id) DO NOTHING
	`, muterID, mutedID)
	return err
}

// UnmuteUser removes a mute, if present.
func (s *SocialService) UnmuteUser(ctx context.Context, muterID, mutedID string) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM user_mutes WHERE muter_id = $1 AND muted_id = $2
	`, muterID, mutedID)
	return err
}

// MutedUserIDs lists the ids the given user has muted.
func (s *SocialService) MutedUserIDs(ctx context.Context, muterID string) ([]string, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT muted_id FROM user_mutes WHERE muter_id = $1
	`, muterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetSettings returns the user's privacy settings, defaulting when no row
// exists yet.
func (s *SocialService) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings := &models.UserSettings{
		UserID:           userID,
		ShowOnlineStatus: true,
		ReadReceipts:     true,
	}
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT show_online_status, read_receipts, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID).Scan(&settings.ShowOnlineStatus, &settings.ReadReceipts, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		settings.UpdatedAt = time.Now().UTC()
		return settings, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings upserts the user's privacy settings.
func (s *SocialService) UpdateSettings(ctx context.Context, userID string, showOnlineStatus, readReceipts bool) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, show_online_status, read_receipts, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET show_online_status = $2, read_receipts = $3, updated_at = NOW()
	`, userID, showOnlineStatus, readReceipts)
	return err
}

// AddContact records a one-directional contact entry.
func (s *SocialService) AddContact(ctx context.Context, userID, contactID string) error {
	if userID == contactID {
		return fmt.Errorf("cannot add yourself as a contact")
	}
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO contacts (user_id, contact_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, contact_id) DO NOTHING
	`, userID, contactID)
	return err
}

// Contacts lists the user's contacts.
func (s *SocialService) Contacts(ctx context.Context, userID string) ([]models.User, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT u.id, u.username, u.display_name, COALESCE(u.avatar_url, ''), u.created_at, u.last_seen
		FROM contacts c
		JOIN users u ON u.id = c.contact_id
		WHERE c.user_id = $1 AND u.is_active = TRUE
		ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.CreatedAt, &u.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
