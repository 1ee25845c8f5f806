// Package config loads the client configuration from an optional YAML
// file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the hosting shell supplies at construction
// time; the client core itself reads no environment of its own.
type Config struct {
	// ServerURL is the chat server origin, e.g. wss://chat.example.com.
	ServerURL string `yaml:"server_url"`
	// Room is the room to join on start.
	Room string `yaml:"room"`
	// Username is the local display name.
	Username string `yaml:"username"`

	// NotifyURL is the base of the notification endpoints. Optional.
	NotifyURL string `yaml:"notify_url"`
	// NotifyToken is the CSRF-style token sent with every action.
	NotifyToken string `yaml:"notify_token"`

	// RedisAddr enables the history cache when set.
	RedisAddr string `yaml:"redis_addr"`
	// CacheSize bounds the cached history page.
	CacheSize int `yaml:"cache_size"`

	// StatusAddr serves /healthz and /status when set.
	StatusAddr string `yaml:"status_addr"`

	// HistoryPage is the page requested on every connect.
	HistoryPage int `yaml:"history_page"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		CacheSize:   50,
		HistoryPage: 1,
	}
}

// Load reads the configuration: defaults, then the YAML file at path
// (if non-empty), then PARLEY_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.ServerURL, "PARLEY_SERVER_URL")
	setString(&cfg.Room, "PARLEY_ROOM")
	setString(&cfg.Username, "PARLEY_USERNAME")
	setString(&cfg.NotifyURL, "PARLEY_NOTIFY_URL")
	setString(&cfg.NotifyToken, "PARLEY_NOTIFY_TOKEN")
	setString(&cfg.RedisAddr, "PARLEY_REDIS_ADDR")
	setString(&cfg.StatusAddr, "PARLEY_STATUS_ADDR")

	if v := os.Getenv("PARLEY_HISTORY_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryPage = n
		}
	}
}

// Validate checks the fields the client cannot run without.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("config: server_url is required")
	}
	if c.Room == "" {
		return errors.New("config: room is required")
	}
	if c.Username == "" {
		return errors.New("config: username is required")
	}
	return nil
}

// RoomURL returns the room-scoped socket endpoint.
func (c Config) RoomURL() string {
	return strings.TrimRight(c.ServerURL, "/") + "/ws/chat/" + c.Room + "/"
}
