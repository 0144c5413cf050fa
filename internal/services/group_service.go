package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/models"
)

// CreateGroup creates a group and enrolls the creator as its admin.
func CreateGroup(ctx context.Context, creatorID, name, description string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}

	tx, err := database.PostgresDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var g models.Group
	err = tx.QueryRowContext(ctx, `
		INSERT INTO groups (name, description, created_by)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING id, created_at, updated_at, name, COALESCE(description, ''), created_by, member_count
	`, name, strings.TrimSpace(description), creatorID).Scan(
		&g.ID, &g.CreatedAt, &g.UpdatedAt, &g.Name, &g.Description, &g.CreatedBy, &g.MemberCount)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, is_admin) VALUES ($1, $2, TRUE)
	`, g.ID, creatorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &g, nil
}

// JoinGroup adds a user to a group; already-joined is a no-op.
func JoinGroup(ctx context.Context, groupID, userID string) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		_, err = database.PostgresDB.ExecContext(ctx, `
			UPDATE groups SET member_count = member_count + 1, updated_at = NOW() WHERE id = $1
		`, groupID)
	}
	return err
}

// LeaveGroup removes a user from a group.
func LeaveGroup(ctx context.Context, groupID, userID string) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2
	`, groupID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		_, err = database.PostgresDB.ExecContext(ctx, `
			UPDATE groups SET member_count = GREATEST(member_count - 1, 0), updated_at = NOW() WHERE id = $1
		`, groupID)
	}
	return err
}

// IsGroupMember checks membership.
func IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&exists)
	return exists, err
}

// GroupsForUser lists groups the user belongs to.
func GroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT g.id, g.created_at, g.updated_at, g.name, COALESCE(g.description, ''),
		       COALESCE(g.avatar_url, ''), g.created_by, g.member_count
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt, &g.Name, &g.Description,
			&g.AvatarURL, &g.CreatedBy, &g.MemberCount); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GroupMembers lists a group's members with usernames.
func GroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT m.group_id, m.user_id, u.username, m.is_admin, m.joined_at
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Username, &m.IsAdmin, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetGroup fetches one group.
func GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var g models.Group
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, name, COALESCE(description, ''),
		       COALESCE(avatar_url, ''), created_by, member_count
		FROM groups WHERE id = $1
	`, groupID).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt, &g.Name, &g.Description,
		&g.AvatarURL, &g.CreatedBy, &g.MemberCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
