package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from lookup. DB_NAME and PORT are required.
func FromEnv(lookup LookupFunc) (Config, error) {
	var missing []string
	required := func(key string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		missing = append(missing, key)
		return ""
	}
	optional := func(key, fallback string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		DBName:        required("DB_NAME"),
		MigrationsDir: optional("MIGRATIONS_DIR", "./migrations"),
		Port:          required("PORT"),
		Slack: SlackConfig{
			Token:     optional("SLACK_BOT_TOKEN", ""),
			ChannelID: optional("SLACK_CHANNEL_ID", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: optional("TURSO_PRIMARY_URL", ""),
			AuthToken:  optional("TURSO_AUTH_TOKEN", ""),
		},
		Redis: RedisConfig{
			Addr:     optional("REDIS_ADDR", ""),
			Password: optional("REDIS_PASSWORD", ""),
			Channel:  optional("REDIS_SCOREBOARD_CHANNEL", "scoreboard_updates"),
		},
		PubSub: PubSubConfig{
			ProjectID: optional("GCP_PROJECT", ""),
			Topic:     optional("PUBSUB_TOPIC", "openplay-club-events"),
		},
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %v", missing)
	}

	dryRun, err := strconv.ParseBool(optional("SLACK_DRY_RUN", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SLACK_DRY_RUN: %w", err)
	}
	cfg.Slack.DryRun = dryRun
	return cfg, nil
}
