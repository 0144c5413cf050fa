package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(20) NOT NULL UNIQUE,
			display_name VARCHAR(50) NOT NULL DEFAULT '',
			avatar_url TEXT,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			last_seen TIMESTAMP NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Per-user privacy settings (presence visibility, read receipts)
		`CREATE TABLE IF NOT EXISTS user_settings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			show_online_status BOOLEAN NOT NULL DEFAULT TRUE,
			read_receipts BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(user_id)
		)`,

		// Block list: directed pair, but relay suppression applies in both
		// directions when either row exists
		`CREATE TABLE IF NOT EXISTS user_blocks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			blocker_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			blocked_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(blocker_id, blocked_id)
		)`,

		// Mutes: muter still receives messages, client suppresses notifications
		`CREATE TABLE IF NOT EXISTS user_mutes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			muter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			muted_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(muter_id, muted_id)
		)`,

		// Contacts (one row per direction)
		`CREATE TABLE IF NOT EXISTS contacts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			contact_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(user_id, contact_id)
		)`,

		// Group conversations
		`CREATE TABLE IF NOT EXISTS groups (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(255) NOT NULL,
			description TEXT,
			avatar_url TEXT,
			created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			member_count INTEGER NOT NULL DEFAULT 1
		)`,

		// Group members table (many-to-many relationship)
		`CREATE TABLE IF NOT EXISTS group_members (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(group_id, user_id)
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_user_settings_user_id ON user_settings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_blocks_blocker_id ON user_blocks(blocker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_blocks_blocked_id ON user_blocks(blocked_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_mutes_muter_id ON user_mutes(muter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_created_by ON groups(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
