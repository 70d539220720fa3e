// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragchat configuration.
type Config struct {
	// Backend connection
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Log file and level
	Logging LoggingConfig `toml:"logging" json:"logging"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig describes the RAG backend.
type BackendConfig struct {
	// URL is the backend origin, e.g. http://localhost:8000
	URL string `toml:"url" json:"url"`
	// StreamPath is the path of the streaming endpoint
	StreamPath string `toml:"stream_path" json:"stream_path"`
	// StaticPath is the path under URL where cited files are served
	StaticPath string `toml:"static_path" json:"static_path"`
	// StaticURL overrides URL+StaticPath when cited files live elsewhere
	StaticURL string `toml:"static_url" json:"static_url,omitempty"`
	// UserAgent is sent with every request
	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// File is the log file path (empty = ~/.ragchat/ragchat.log)
	File string `toml:"file" json:"file"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Title is shown in the header bar
	Title string `toml:"title" json:"title"`
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant answers as markdown once a turn closes
	Markdown bool `toml:"markdown" json:"markdown"`
	// Hyperlinks emits OSC 8 links for citations
	Hyperlinks bool `toml:"hyperlinks" json:"hyperlinks"`
	// RenderFPS caps redraws while a response is streaming
	RenderFPS int `toml:"render_fps" json:"render_fps"`
	// Mouse captures the mouse for wheel scrolling. Turn it off to keep
	// the terminal's own selection and link clicking.
	Mouse bool `toml:"mouse" json:"mouse"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default configuration values.
const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultStaticPath = "/rag/static/"
	DefaultTitle      = "RAG Assistant"
	DefaultRenderFPS  = 30
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:        DefaultBackendURL,
			StreamPath: rag.DefaultStreamPath,
			StaticPath: DefaultStaticPath,
			UserAgent:  rag.DefaultUserAgent,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Title:      DefaultTitle,
			Theme:      "auto",
			Markdown:   true,
			Hyperlinks: true,
			RenderFPS:  DefaultRenderFPS,
			Mouse:      true,
		},
	}
}

// StaticBase returns the URL prefix for citation links.
func (c *Config) StaticBase() string {
	return rag.StaticBase(c.Backend.URL, c.Backend.StaticPath, c.Backend.StaticURL)
}

// NewClient builds a stream client for the configured backend.
func (c *Config) NewClient() *rag.Client {
	return rag.NewClient(c.Backend.URL).
		WithStreamPath(c.Backend.StreamPath).
		WithUserAgent(c.Backend.UserAgent)
}

// LogFile returns the configured log path, falling back to the default.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ragchat.log")
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// ConfigPath returns the path to the default TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadFromPath loads configuration from path, then applies .env and
// environment overrides and validates the result. A missing file yields
// defaults plus overrides.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, statErr)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		logging.Warn("ignoring .env", "err", err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file on top of cfg. Unknown keys are rejected so
// typos surface instead of silently falling back to defaults.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads variables from a .env file into the process
// environment. Variables already set are left alone. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// SetDefaults fills zero values left by a partial file or override.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Backend.StreamPath == "" {
		c.Backend.StreamPath = d.Backend.StreamPath
	}
	if c.Backend.StaticPath == "" {
		c.Backend.StaticPath = d.Backend.StaticPath
	}
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = d.Backend.UserAgent
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.UI.Title == "" {
		c.UI.Title = d.UI.Title
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.RenderFPS == 0 {
		c.UI.RenderFPS = d.UI.RenderFPS
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path with 0600 permissions.
// SECURITY: the file may carry internal backend URLs; keep it owner-only.
// The write is atomic so a crash never leaves a half-written config.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# ragchat configuration file\n")
	buf.WriteString("# Environment variables RAGCHAT_* override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if msg := checkHTTPURL(c.Backend.URL); msg != "" {
		errs = append(errs, ValidationError{Field: "backend.url", Message: msg})
	}
	if c.Backend.StaticURL != "" {
		if msg := checkHTTPURL(c.Backend.StaticURL); msg != "" {
			errs = append(errs, ValidationError{Field: "backend.static_url", Message: msg})
		}
	}
	if !strings.HasPrefix(c.Backend.StreamPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "backend.stream_path",
			Message: fmt.Sprintf("'%s' must start with '/'", c.Backend.StreamPath),
		})
	}
	if !strings.HasPrefix(c.Backend.StaticPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "backend.static_path",
			Message: fmt.Sprintf("'%s' must start with '/'", c.Backend.StaticPath),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.RenderFPS < 1 || c.UI.RenderFPS > 120 {
		errs = append(errs, ValidationError{
			Field:   "ui.render_fps",
			Message: fmt.Sprintf("%d out of range 1-120", c.UI.RenderFPS),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// checkHTTPURL returns a problem description, or "" when raw is a usable
// http(s) origin.
func checkHTTPURL(raw string) string {
	if raw == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("scheme '%s' not supported, use http or https", u.Scheme)
	}
	if u.Host == "" {
		return "missing host"
	}
	return ""
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variable names.
const (
	EnvBackendURL = "RAGCHAT_BACKEND_URL"
	EnvStreamPath = "RAGCHAT_STREAM_PATH"
	EnvStaticURL  = "RAGCHAT_STATIC_URL"
	EnvLogLevel   = "RAGCHAT_LOG_LEVEL"
	EnvLogFile    = "RAGCHAT_LOG_FILE"
	EnvTheme      = "RAGCHAT_THEME"
	EnvTitle      = "RAGCHAT_TITLE"
	EnvMarkdown   = "RAGCHAT_MARKDOWN"
)

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RAGCHAT_BACKEND_URL: overrides backend.url
//   - RAGCHAT_STREAM_PATH: overrides backend.stream_path
//   - RAGCHAT_STATIC_URL: overrides backend.static_url
//   - RAGCHAT_LOG_LEVEL: overrides logging.level
//   - RAGCHAT_LOG_FILE: overrides logging.file
//   - RAGCHAT_THEME: overrides ui.theme
//   - RAGCHAT_TITLE: overrides ui.title
//   - RAGCHAT_MARKDOWN: "0"/"false" disables markdown rendering
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv(EnvStreamPath); v != "" {
		c.Backend.StreamPath = v
	}
	if v := os.Getenv(EnvStaticURL); v != "" {
		c.Backend.StaticURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv(EnvTitle); v != "" {
		c.UI.Title = v
	}
	if v := os.Getenv(EnvMarkdown); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UI.Markdown = b
		}
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// String returns an indented JSON rendering for `config show` and logs.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
