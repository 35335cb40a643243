// Package config loads environment variables and provides a typed Config used across the service.
// Required identifiers (bot token, creator channel) are validated up front so
// the process fails fast instead of running half-configured.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/onnwee/voicesmith/discordapi"
)

type Config struct {
	// Discord
	BotToken         string
	CreatorChannelID discordapi.Snowflake
	// WaitingRoomID enables the hardened permission overlay when set.
	WaitingRoomID discordapi.Snowflake

	// Lifecycle
	GracePeriod       time.Duration
	ReconcileInterval time.Duration

	// Journal (optional; empty disables the Postgres journal)
	DBDsn string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. Required variables
// (DISCORD_TOKEN, CREATOR_CHANNEL_ID) produce an error when missing or
// malformed; optional variables disable features when unset.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.BotToken = os.Getenv("DISCORD_TOKEN")
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("missing DISCORD_TOKEN")
	}

	creator := os.Getenv("CREATOR_CHANNEL_ID")
	if creator == "" {
		return nil, fmt.Errorf("missing CREATOR_CHANNEL_ID")
	}
	id, err := discordapi.ParseSnowflake(creator)
	if err != nil {
		return nil, fmt.Errorf("invalid CREATOR_CHANNEL_ID: %w", err)
	}
	cfg.CreatorChannelID = id

	if v := os.Getenv("WAITING_ROOM_CHANNEL_ID"); v != "" {
		id, err := discordapi.ParseSnowflake(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WAITING_ROOM_CHANNEL_ID: %w", err)
		}
		cfg.WaitingRoomID = id
	}

	cfg.GracePeriod = 5 * time.Second
	if v := os.Getenv("GRACE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid GRACE_PERIOD %q", v)
		}
		cfg.GracePeriod = d
	}

	cfg.ReconcileInterval = 5 * time.Minute
	if v := os.Getenv("RECONCILE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid RECONCILE_INTERVAL %q", v)
		}
		cfg.ReconcileInterval = d
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// Hardened reports whether the least-privilege overlay variant is active.
func (c *Config) Hardened() bool { return !c.WaitingRoomID.IsZero() }
