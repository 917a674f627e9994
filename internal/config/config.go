// Package config loads the bot configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Config holds the full daemon configuration.
type Config struct {
	// Identity
	Name   string   `json:"name"`   // display name, "vorte"
	Prefix string   `json:"prefix"` // command prefix, "."
	Owners []string `json:"owners"` // user IDs with owner commands

	// Session holds the connection credentials and paths.
	Session SessionConfig `json:"session"`

	// HTTP surfaces
	HTTP HTTPConfig `json:"http"`

	// AI replies (.gpt and mentions)
	AI AIConfig `json:"ai"`

	// External lookups (.yt, .movie)
	Lookup LookupConfig `json:"lookup"`
}

// SessionConfig holds credential and state paths.
type SessionConfig struct {
	Dir          string `json:"dir"`           // live session directory
	Token        string `json:"token"`         // portable session token, can be "$VORTE_SESSION"
	SettingsPath string `json:"settings_path"` // group settings JSON
	StatsPath    string `json:"stats_path"`    // sqlite usage ledger
	TmpDir       string `json:"tmp_dir"`       // throwaway dirs for pairing attempts
}

// HTTPConfig holds listen addresses for the two API surfaces.
type HTTPConfig struct {
	BotAddr     string `json:"bot_addr"`     // bot status API, e.g. ":8080"
	SessionAddr string `json:"session_addr"` // session server, e.g. ":3000"
}

// AIConfig holds the chat-completion provider settings.
type AIConfig struct {
	APIKey string `json:"api_key"` // can use env var reference: "$ANTHROPIC_API_KEY"
	Model  string `json:"model"`

	ImageKey     string `json:"image_key"` // can be "$OPENAI_API_KEY"
	ImageBaseURL string `json:"image_base_url"`
}

// LookupConfig holds API keys for search commands.
type LookupConfig struct {
	YouTubeKey string `json:"youtube_key"` // can be "$YOUTUBE_API_KEY"
	OMDbKey    string `json:"omdb_key"`    // can be "$OMDB_API_KEY"
}

// Load reads config from a file path, or environment defaults when the
// path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Resolve env var references in all $-prefixed values
	cfg.Session.Token = resolveEnv(cfg.Session.Token)
	cfg.AI.APIKey = resolveEnv(cfg.AI.APIKey)
	cfg.AI.ImageKey = resolveEnv(cfg.AI.ImageKey)
	cfg.Lookup.YouTubeKey = resolveEnv(cfg.Lookup.YouTubeKey)
	cfg.Lookup.OMDbKey = resolveEnv(cfg.Lookup.OMDbKey)

	cfg.applyDefaults()
	return &cfg, nil
}

// resolveEnv replaces $ENV_VAR references with actual values.
func resolveEnv(s string) string {
	if len(s) > 1 && s[0] == '$' {
		if v := os.Getenv(s[1:]); v != "" {
			return v
		}
	}
	return s
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "vorte"
	}
	if c.Prefix == "" {
		c.Prefix = "."
	}
	if c.Session.Dir == "" {
		c.Session.Dir = "data/session"
	}
	if c.Session.SettingsPath == "" {
		c.Session.SettingsPath = "data/settings.json"
	}
	if c.Session.StatsPath == "" {
		c.Session.StatsPath = "data/stats.db"
	}
	if c.Session.TmpDir == "" {
		c.Session.TmpDir = "data/tmp-sessions"
	}
	if c.HTTP.BotAddr == "" {
		c.HTTP.BotAddr = ":8080"
	}
	if c.HTTP.SessionAddr == "" {
		c.HTTP.SessionAddr = ":3000"
	}
}

// defaultConfig returns a config built from environment variables,
// suitable for container deployment.
func defaultConfig() *Config {
	cfg := &Config{
		Name:   envOr("VORTE_NAME", "vorte"),
		Prefix: envOr("VORTE_PREFIX", "."),
		Session: SessionConfig{
			Dir:          envOr("VORTE_SESSION_DIR", "data/session"),
			Token:        os.Getenv("VORTE_SESSION"),
			SettingsPath: envOr("VORTE_SETTINGS_PATH", "data/settings.json"),
			StatsPath:    envOr("VORTE_STATS_PATH", "data/stats.db"),
			TmpDir:       envOr("VORTE_TMP_SESSIONS", "data/tmp-sessions"),
		},
		HTTP: HTTPConfig{
			BotAddr:     envOr("VORTE_HTTP_ADDR", ":8080"),
			SessionAddr: envOr("VORTE_SESSION_HTTP_ADDR", ":3000"),
		},
		AI: AIConfig{
			APIKey:       os.Getenv("ANTHROPIC_API_KEY"),
			Model:        envOr("VORTE_AI_MODEL", ""),
			ImageKey:     os.Getenv("OPENAI_API_KEY"),
			ImageBaseURL: os.Getenv("VORTE_IMAGE_BASE_URL"),
		},
		Lookup: LookupConfig{
			YouTubeKey: os.Getenv("YOUTUBE_API_KEY"),
			OMDbKey:    os.Getenv("OMDB_API_KEY"),
		},
	}
	if owners := os.Getenv("VORTE_OWNERS"); owners != "" {
		for _, o := range strings.Split(owners, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Owners = append(cfg.Owners, o)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
