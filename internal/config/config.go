// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token     string  `yaml:"token" env:"BOT_TOKEN"`
	Mode      string  `yaml:"mode" env:"BOT_MODE" env-default:"polling"` // polling | webhook (future)
	Workers   int     `yaml:"workers" env:"BOT_WORKERS" env-default:"4"`
	Language  string  `yaml:"language" env:"BOT_LANGUAGE" env-default:"uz"`
	ParseMode string  `yaml:"parse_mode" env:"BOT_PARSE_MODE" env-default:"Markdown"` // Markdown, MarkdownV2, HTML or plain
	AdminIDs  []int64 `yaml:"admin_ids" env:"BOT_ADMIN_IDS" env-default:"6220854815,6426346196,1617370561"`
}

// WelcomeConfig holds the media sent around the opt-in button. Each value may be a
// Telegram file ID, an URL or a local file path; empty disables that message.
type WelcomeConfig struct {
	Photo      string `yaml:"photo" env:"WELCOME_PHOTO"`
	VideoNote  string `yaml:"video_note" env:"WELCOME_VIDEO_NOTE"`
	ChannelURL string `yaml:"channel_url" env:"WELCOME_CHANNEL_URL"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // json|console
	Sampling bool   `yaml:"sampling" env:"LOG_SAMPLING"`               // enable sampling in prod
}

type DashboardConfig struct {
	Host     string        `yaml:"host" env:"DASHBOARD_HOST" env-default:"0.0.0.0"`
	Port     int           `yaml:"port" env:"DASHBOARD_PORT" env-default:"8888"`
	User     string        `yaml:"user" env:"DASHBOARD_USER"`
	Password string        `yaml:"password" env:"DASHBOARD_PASSWORD"`
	Timeout  time.Duration `yaml:"timeout" env:"DASHBOARD_TIMEOUT" env-default:"10s"`
}

func (d DashboardConfig) Address() string { return fmt.Sprintf("%s:%d", d.Host, d.Port) }

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS" env-default:"10"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"1h"` // user cache entries
}

type BroadcastConfig struct {
	SendInterval time.Duration `yaml:"send_interval" env:"BROADCAST_SEND_INTERVAL" env-default:"40ms"`
	LockTTL      time.Duration `yaml:"lock_ttl" env:"BROADCAST_LOCK_TTL" env-default:"30m"`
}

type RateLimitConfig struct {
	Commands  int           `yaml:"commands" env:"RATE_LIMIT_COMMANDS" env-default:"20"`
	Callbacks int           `yaml:"callbacks" env:"RATE_LIMIT_CALLBACKS" env-default:"30"`
	Window    time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Welcome   WelcomeConfig   `yaml:"welcome"`
	Log       LogConfig       `yaml:"log"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (optional), then lets environment
// variables override it and fills defaults for fields left empty.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only deployment
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the minimal set of settings needed to run.
func (c *Config) Validate() error {
	if c.Bot.Token == "" && !c.Runtime.Dev {
		return errors.New("bot.token is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if len(c.Bot.AdminIDs) == 0 {
		return errors.New("bot.admin_ids must list at least one admin")
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Broadcast.SendInterval < 0 {
		c.Broadcast.SendInterval = 0
	}
	return nil
}
