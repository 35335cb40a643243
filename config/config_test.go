package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("CREATOR_CHANNEL_ID", "1146784985593058695")
}

func clearOptional(t *testing.T) {
	t.Helper()
	for _, k := range []string{"WAITING_ROOM_CHANNEL_ID", "GRACE_PERIOD", "RECONCILE_INTERVAL", "DB_DSN", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "test-token" {
		t.Errorf("BotToken = %q", cfg.BotToken)
	}
	if cfg.CreatorChannelID != "1146784985593058695" {
		t.Errorf("CreatorChannelID = %q", cfg.CreatorChannelID)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", cfg.GracePeriod)
	}
	if cfg.ReconcileInterval != 5*time.Minute {
		t.Errorf("ReconcileInterval = %v, want 5m", cfg.ReconcileInterval)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Hardened() {
		t.Error("hardened overlay must be off without WAITING_ROOM_CHANNEL_ID")
	}
	if cfg.DBDsn != "" {
		t.Errorf("DBDsn = %q, want empty", cfg.DBDsn)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	clearOptional(t)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("CREATOR_CHANNEL_ID", "1146784985593058695")
	if _, err := Load(); err == nil {
		t.Error("expected error without DISCORD_TOKEN")
	}

	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("CREATOR_CHANNEL_ID", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without CREATOR_CHANNEL_ID")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := []struct{ key, val string }{
		{"CREATOR_CHANNEL_ID", "not-a-snowflake"},
		{"WAITING_ROOM_CHANNEL_ID", "abc"},
		{"GRACE_PERIOD", "soon"},
		{"GRACE_PERIOD", "-3s"},
		{"GRACE_PERIOD", "0s"},
		{"RECONCILE_INTERVAL", "often"},
		{"RECONCILE_INTERVAL", "-1m"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			setRequired(t)
			clearOptional(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("WAITING_ROOM_CHANNEL_ID", "1146784985593058696")
	t.Setenv("GRACE_PERIOD", "30s")
	t.Setenv("RECONCILE_INTERVAL", "0s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DSN", "postgres://localhost/voicesmith")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Hardened() {
		t.Error("waiting room id must enable the hardened overlay")
	}
	if cfg.GracePeriod != 30*time.Second {
		t.Errorf("GracePeriod = %v", cfg.GracePeriod)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("ReconcileInterval = %v, want sweep disabled", cfg.ReconcileInterval)
	}
	if cfg.HTTPAddr != ":9090" || cfg.DBDsn == "" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}
