// Package config handles configuration for streamchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/diogo/streamchat/internal/models"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// ServerURL is the WebSocket endpoint of the chat backend.
	ServerURL string `json:"server_url"`
	// FPS is the display refresh rate while a response streams. Fragments
	// arriving within one frame are shown together at the frame boundary.
	FPS int `json:"fps"`
	// Verbose enables debug logging.
	Verbose         bool   `json:"verbose"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
	TUITheme        string `json:"tui_theme,omitempty"` // TUI color theme
	// LogFile receives diagnostics while the TUI owns the terminal.
	LogFile string `json:"log_file,omitempty"`
	// ServeAddr is the listen address of the demo server.
	ServeAddr string `json:"serve_addr,omitempty"`
	// TokenRate is how many fragments per second the demo server emits.
	TokenRate float64        `json:"token_rate,omitempty"`
	Markdown  MarkdownConfig `json:"markdown,omitempty"`
}

// Environment variables that override the config file
const (
	EnvServerURL = "STREAMCHAT_URL"
	EnvConfigDir = "STREAMCHAT_HOME"
)

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "tokyo-night",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       models.DefaultServerURL,
		FPS:             30,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		ServeAddr:       "localhost:8000",
		TokenRate:       40,
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".streamchat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = DefaultConfig()
		applyEnv(&cfg)
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.normalize()
	applyEnv(&cfg)
	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func applyEnv(cfg *Config) {
	if url := os.Getenv(EnvServerURL); url != "" {
		cfg.ServerURL = url
	}
}

// normalize repairs zero values left by partial config files
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.ServerURL == "" {
		c.ServerURL = defaults.ServerURL
	}
	if c.FPS <= 0 {
		c.FPS = defaults.FPS
	}
	if c.TokenRate <= 0 {
		c.TokenRate = defaults.TokenRate
	}
	if c.ServeAddr == "" {
		c.ServeAddr = defaults.ServeAddr
	}
	if c.Markdown.Style == "" {
		c.Markdown.Style = defaults.Markdown.Style
	}
}

// setters maps dotted keys accepted by Set to their parsers
var setters = map[string]func(*Config, string) error{
	"server_url": func(c *Config, v string) error { c.ServerURL = v; return nil },
	"fps": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("fps must be a positive integer")
		}
		c.FPS = n
		return nil
	},
	"verbose":           boolSetter(func(c *Config, b bool) { c.Verbose = b }),
	"copy_to_clipboard": boolSetter(func(c *Config, b bool) { c.CopyToClipboard = b }),
	"tui_theme":         func(c *Config, v string) error { c.TUITheme = v; return nil },
	"log_file":          func(c *Config, v string) error { c.LogFile = v; return nil },
	"serve_addr":        func(c *Config, v string) error { c.ServeAddr = v; return nil },
	"token_rate": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("token_rate must be a positive number")
		}
		c.TokenRate = f
		return nil
	},
	"markdown.style":              func(c *Config, v string) error { c.Markdown.Style = v; return nil },
	"markdown.enable_emoji":       boolSetter(func(c *Config, b bool) { c.Markdown.EnableEmoji = b }),
	"markdown.preserve_newlines":  boolSetter(func(c *Config, b bool) { c.Markdown.PreserveNewLines = b }),
	"markdown.table_wrap":         boolSetter(func(c *Config, b bool) { c.Markdown.TableWrap = b }),
	"markdown.inline_table_links": boolSetter(func(c *Config, b bool) { c.Markdown.InlineTableLinks = b }),
}

func boolSetter(apply func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(c, b)
		return nil
	}
}

// Set updates one field addressed by its JSON key (dotted for markdown.*)
func (c *Config) Set(key, value string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
