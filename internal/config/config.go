package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string

	// Twitch API
	TwitchClientID     string
	TwitchClientSecret string

	// YouTube Data API
	YouTubeAPIKey string

	// Database
	DatabasePath string

	// Polling intervals
	TwitchPollSeconds  int
	YouTubePollSeconds int
	TikTokPollSeconds  int

	// Metrics listener address; metrics are disabled when empty
	MetricsAddr string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", "./data/bot.db"),
		MetricsAddr:        os.Getenv("METRICS_ADDR"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.TwitchPollSeconds, err = getEnvInt("TWITCH_POLL_SECONDS", 60); err != nil {
		return nil, err
	}
	if cfg.YouTubePollSeconds, err = getEnvInt("YOUTUBE_POLL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.TikTokPollSeconds, err = getEnvInt("TIKTOK_POLL_SECONDS", 300); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.TwitchClientID == "" || cfg.TwitchClientSecret == "" {
		return nil, fmt.Errorf("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET are required")
	}
	if cfg.YouTubeAPIKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
