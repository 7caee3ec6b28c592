package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotTracked is returned when removing an entity that is not monitored.
var ErrNotTracked = errors.New("not in the monitoring list")

// ErrAlreadyTracked is returned when adding an entity that is already monitored.
var ErrAlreadyTracked = errors.New("already being monitored")

// Store handles all guild configuration persistence
type Store struct {
	db *sql.DB
}

// New creates a new store backed by SQLite
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}

	// Run migrations
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id VARCHAR(20) PRIMARY KEY,
			channel_id VARCHAR(20) NOT NULL DEFAULT '',
			live_role_id VARCHAR(20) NOT NULL DEFAULT '',
			twitch_message TEXT NOT NULL,
			youtube_message TEXT NOT NULL,
			tiktok_message TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS twitch_streamers (
			guild_id VARCHAR(20) NOT NULL,
			username VARCHAR(25) NOT NULL,
			custom_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (guild_id, username)
		)`,
		`CREATE TABLE IF NOT EXISTS youtube_channels (
			guild_id VARCHAR(20) NOT NULL,
			channel_id VARCHAR(24) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (guild_id, channel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tiktok_accounts (
			guild_id VARCHAR(20) NOT NULL,
			username VARCHAR(24) NOT NULL,
			custom_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (guild_id, username)
		)`,
		`CREATE TABLE IF NOT EXISTS linked_accounts (
			guild_id VARCHAR(20) NOT NULL,
			discord_user_id VARCHAR(20) NOT NULL,
			twitch_username VARCHAR(25) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (guild_id, discord_user_id)
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// GetOrCreateGuildConfig returns the configuration for a guild, creating a
// default row with the stock templates on first access.
func (s *Store) GetOrCreateGuildConfig(guildID string) (*GuildConfig, error) {
	_, err := s.db.Exec(
		`INSERT INTO guild_settings (guild_id, twitch_message, youtube_message, tiktok_message)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(guild_id) DO NOTHING`,
		guildID, DefaultTwitchMessage, DefaultYouTubeMessage, DefaultTikTokMessage,
	)
	if err != nil {
		return nil, err
	}
	return s.loadGuildConfig(guildID)
}

// GuildConfigs returns the configuration of every known guild. Monitors call
// this at the start of each poll tick.
func (s *Store) GuildConfigs() ([]*GuildConfig, error) {
	rows, err := s.db.Query(`SELECT guild_id FROM guild_settings`)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	configs := make([]*GuildConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.loadGuildConfig(id)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// DeleteGuildConfig removes a guild and everything attached to it in one
// transaction. Returns whether the guild was known.
func (s *Store) DeleteGuildConfig(guildID string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM guild_settings WHERE guild_id = ?`, guildID)
	if err != nil {
		return false, err
	}
	for _, table := range []string{"twitch_streamers", "youtube_channels", "tiktok_accounts", "linked_accounts"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE guild_id = ?`, guildID); err != nil {
			return false, err
		}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) loadGuildConfig(guildID string) (*GuildConfig, error) {
	cfg := &GuildConfig{GuildID: guildID}
	err := s.db.QueryRow(
		`SELECT channel_id, live_role_id, twitch_message, youtube_message, tiktok_message
		 FROM guild_settings WHERE guild_id = ?`,
		guildID,
	).Scan(&cfg.ChannelID, &cfg.LiveRoleID, &cfg.Twitch.Message, &cfg.YouTube.Message, &cfg.TikTok.Message)
	if err != nil {
		return nil, err
	}

	cfg.Twitch.CustomMessages = make(map[string]string)
	cfg.Twitch.LinkedAccounts = make(map[string]string)
	cfg.TikTok.CustomMessages = make(map[string]string)

	rows, err := s.db.Query(
		`SELECT username, custom_message FROM twitch_streamers WHERE guild_id = ? ORDER BY username`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var username, custom string
		if err := rows.Scan(&username, &custom); err != nil {
			return nil, err
		}
		cfg.Twitch.Usernames = append(cfg.Twitch.Usernames, username)
		if custom != "" {
			cfg.Twitch.CustomMessages[username] = custom
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ytRows, err := s.db.Query(
		`SELECT channel_id FROM youtube_channels WHERE guild_id = ? ORDER BY channel_id`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer ytRows.Close()
	for ytRows.Next() {
		var id string
		if err := ytRows.Scan(&id); err != nil {
			return nil, err
		}
		cfg.YouTube.ChannelIDs = append(cfg.YouTube.ChannelIDs, id)
	}
	if err := ytRows.Err(); err != nil {
		return nil, err
	}

	ttRows, err := s.db.Query(
		`SELECT username, custom_message FROM tiktok_accounts WHERE guild_id = ? ORDER BY username`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer ttRows.Close()
	for ttRows.Next() {
		var username, custom string
		if err := ttRows.Scan(&username, &custom); err != nil {
			return nil, err
		}
		cfg.TikTok.Usernames = append(cfg.TikTok.Usernames, username)
		if custom != "" {
			cfg.TikTok.CustomMessages[username] = custom
		}
	}
	if err := ttRows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := s.db.Query(
		`SELECT discord_user_id, twitch_username FROM linked_accounts WHERE guild_id = ?`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var userID, login string
		if err := linkRows.Scan(&userID, &login); err != nil {
			return nil, err
		}
		cfg.Twitch.LinkedAccounts[userID] = login
	}
	return cfg, linkRows.Err()
}

// Guild settings mutations

// SetChannel sets the notification channel for a guild
func (s *Store) SetChannel(guildID, channelID string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE guild_settings SET channel_id = ? WHERE guild_id = ?`,
		channelID, guildID,
	)
	return err
}

// SetLiveRole sets or clears (empty roleID) the live role for a guild
func (s *Store) SetLiveRole(guildID, roleID string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE guild_settings SET live_role_id = ? WHERE guild_id = ?`,
		roleID, guildID,
	)
	return err
}

// SetTemplate updates a guild's default template for one platform.
// Platform must be one of "twitch", "youtube", "tiktok".
func (s *Store) SetTemplate(guildID, platform, message string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	var column string
	switch platform {
	case "twitch":
		column = "twitch_message"
	case "youtube":
		column = "youtube_message"
	case "tiktok":
		column = "tiktok_message"
	default:
		return fmt.Errorf("unknown platform: %s", platform)
	}
	_, err := s.db.Exec(
		`UPDATE guild_settings SET `+column+` = ? WHERE guild_id = ?`,
		message, guildID,
	)
	return err
}

// Twitch streamer mutations

// AddStreamer adds a Twitch streamer to a guild's monitoring list. The
// username is lowercased before the membership check.
func (s *Store) AddStreamer(guildID, username, customMessage string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	username = NormalizeUsername(username)
	res, err := s.db.Exec(
		`INSERT INTO twitch_streamers (guild_id, username, custom_message) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id, username) DO NOTHING`,
		guildID, username, customMessage,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyTracked
	}
	return nil
}

// RemoveStreamer removes a Twitch streamer from a guild's monitoring list
func (s *Store) RemoveStreamer(guildID, username string) error {
	res, err := s.db.Exec(
		`DELETE FROM twitch_streamers WHERE guild_id = ? AND username = ?`,
		guildID, NormalizeUsername(username),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotTracked
	}
	return nil
}

// SetStreamerMessage sets or clears a per-streamer template override
func (s *Store) SetStreamerMessage(guildID, username, message string) error {
	res, err := s.db.Exec(
		`UPDATE twitch_streamers SET custom_message = ? WHERE guild_id = ? AND username = ?`,
		message, guildID, NormalizeUsername(username),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotTracked
	}
	return nil
}

// YouTube channel mutations

// AddChannel adds a YouTube channel ID to a guild's monitoring list
func (s *Store) AddChannel(guildID, channelID string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	res, err := s.db.Exec(
		`INSERT INTO youtube_channels (guild_id, channel_id) VALUES (?, ?)
		 ON CONFLICT(guild_id, channel_id) DO NOTHING`,
		guildID, channelID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyTracked
	}
	return nil
}

// RemoveChannel removes a YouTube channel from a guild's monitoring list
func (s *Store) RemoveChannel(guildID, channelID string) error {
	res, err := s.db.Exec(
		`DELETE FROM youtube_channels WHERE guild_id = ? AND channel_id = ?`,
		guildID, channelID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotTracked
	}
	return nil
}

// TikTok account mutations

// AddTikTok adds a TikTok account to a guild's monitoring list
func (s *Store) AddTikTok(guildID, username, customMessage string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	res, err := s.db.Exec(
		`INSERT INTO tiktok_accounts (guild_id, username, custom_message) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id, username) DO NOTHING`,
		guildID, NormalizeUsername(username), customMessage,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyTracked
	}
	return nil
}

// RemoveTikTok removes a TikTok account from a guild's monitoring list
func (s *Store) RemoveTikTok(guildID, username string) error {
	res, err := s.db.Exec(
		`DELETE FROM tiktok_accounts WHERE guild_id = ? AND username = ?`,
		guildID, NormalizeUsername(username),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotTracked
	}
	return nil
}

// Linked account mutations

// LinkAccount maps a Discord member to their Twitch username, replacing any
// previous link for that member.
func (s *Store) LinkAccount(guildID, discordUserID, twitchUsername string) error {
	if _, err := s.GetOrCreateGuildConfig(guildID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO linked_accounts (guild_id, discord_user_id, twitch_username) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id, discord_user_id) DO UPDATE SET twitch_username = excluded.twitch_username`,
		guildID, discordUserID, NormalizeUsername(twitchUsername),
	)
	return err
}

// UnlinkAccount removes a member's Twitch link. Returns whether a link existed.
func (s *Store) UnlinkAccount(guildID, discordUserID string) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM linked_accounts WHERE guild_id = ? AND discord_user_id = ?`,
		guildID, discordUserID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NormalizeUsername lowercases and trims an identifier so membership checks
// and storage always see the canonical form.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
