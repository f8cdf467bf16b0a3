//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("should read yaml and let env override it", func(t *testing.T) {
		path := writeConfig(t, `
bot:
  token: file-token
  admin_ids: [42, 43]
database:
  url: postgres://file
dashboard:
  port: 9000
`)
		t.Setenv("BOT_TOKEN", "env-token")
		t.Setenv("REDIS_URL", "redis:6379")

		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Bot.Token != "env-token" {
			t.Errorf("expected env token to win, got %q", cfg.Bot.Token)
		}
		if len(cfg.Bot.AdminIDs) != 2 || cfg.Bot.AdminIDs[0] != 42 {
			t.Errorf("expected admin ids from file, got %v", cfg.Bot.AdminIDs)
		}
		if cfg.Redis.URL != "redis:6379" {
			t.Errorf("expected redis url from env, got %q", cfg.Redis.URL)
		}
		if cfg.Dashboard.Port != 9000 {
			t.Errorf("expected dashboard port 9000, got %d", cfg.Dashboard.Port)
		}
	})

	t.Run("should fill defaults when the file is missing", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "t")
		t.Setenv("DATABASE_URL", "postgres://env")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Database.URL != "postgres://env" {
			t.Errorf("expected database url from env, got %q", cfg.Database.URL)
		}
		if cfg.Dashboard.Port != 8888 {
			t.Errorf("expected default dashboard port 8888, got %d", cfg.Dashboard.Port)
		}
		if cfg.Broadcast.SendInterval != 40*time.Millisecond {
			t.Errorf("expected default send interval 40ms, got %v", cfg.Broadcast.SendInterval)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
		if cfg.Bot.ParseMode != "Markdown" {
			t.Errorf("expected Markdown parse mode by default, got %q", cfg.Bot.ParseMode)
		}
	})

	t.Run("should require a token outside dev mode", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")
		t.Setenv("DATABASE_URL", "postgres://env")

		if _, err := LoadConfig("", false); err == nil {
			t.Fatal("expected an error for a missing token")
		}
		cfg, err := LoadConfig("", true)
		if err != nil {
			t.Fatalf("dev mode should not require a token: %v", err)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected Runtime.Dev to be set")
		}
	})

	t.Run("should reject malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "bot: [unclosed")
		if _, err := LoadConfig(path, true); err == nil {
			t.Fatal("expected a parse error")
		}
	})
}
