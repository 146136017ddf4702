// ABOUTME: Centralized configuration for the stash CLI and servers
// ABOUTME: Layers defaults, an optional YAML file, and environment variables, then validates
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/storage/sqlite"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for stash
type Config struct {
	// Storage settings
	DBPath     string `yaml:"db_path"`
	AppGroupID string `yaml:"app_group"`
	SharedDir  string `yaml:"shared_dir"`
	URLScheme  string `yaml:"url_scheme"`

	// OpenAI settings
	OpenAIKey      string        `yaml:"openai_api_key"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	ChatModel      string        `yaml:"chat_model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	AITimeout      time.Duration `yaml:"ai_timeout"`
	AIMaxRetries   int           `yaml:"ai_max_retries"`
	AIRetryDelay   time.Duration `yaml:"ai_retry_delay"`

	// Metadata fetcher
	MetadataTimeout time.Duration `yaml:"metadata_timeout"`

	// Servers and logging
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		AppGroupID:      "group.stash.shared",
		URLScheme:       "stash",
		ChatModel:       "gpt-4o-mini",
		EmbeddingModel:  "text-embedding-3-small",
		AITimeout:       30 * time.Second,
		AIMaxRetries:    0,
		AIRetryDelay:    2 * time.Second,
		MetadataTimeout: 4 * time.Second,
		HTTPAddr:        "127.0.0.1:7474",
		LogLevel:        "info",
	}
}

// Load reads defaults, then the config file if present, then environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if err := cfg.loadFile(Path()); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.fillDerived()

	return cfg, cfg.Validate()
}

// Path returns the config file location: $STASH_CONFIG, else
// $XDG_CONFIG_HOME/stash/config.yaml
func Path() string {
	if p := os.Getenv("STASH_CONFIG"); p != "" {
		return p
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "stash", "config.yaml")
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "stash", "config.yaml")
}

// loadFile overlays values from a YAML file. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv("STASH_DB_PATH", c.DBPath)
	c.AppGroupID = getEnv("STASH_APP_GROUP", c.AppGroupID)
	c.SharedDir = getEnv("STASH_SHARED_DIR", c.SharedDir)
	c.URLScheme = getEnv("STASH_URL_SCHEME", c.URLScheme)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ChatModel = getEnv("STASH_OPENAI_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("STASH_EMBEDDING_MODEL", c.EmbeddingModel)
	c.AITimeout = getEnvDuration("STASH_AI_TIMEOUT", c.AITimeout)
	c.AIMaxRetries = getEnvInt("STASH_AI_MAX_RETRIES", c.AIMaxRetries)
	c.AIRetryDelay = getEnvDuration("STASH_AI_RETRY_DELAY", c.AIRetryDelay)
	c.MetadataTimeout = getEnvDuration("STASH_METADATA_TIMEOUT", c.MetadataTimeout)
	c.HTTPAddr = getEnv("STASH_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnv("STASH_LOG_LEVEL", c.LogLevel)
}

// fillDerived sets paths that depend on other settings
func (c *Config) fillDerived() {
	if c.DBPath == "" {
		c.DBPath = sqlite.DefaultDBPath()
	}
	if c.SharedDir == "" {
		c.SharedDir = filepath.Join(sqlite.DefaultDataDir(), "shared", c.AppGroupID)
	}
}

func (c *Config) Validate() error {
	if c.AppGroupID == "" {
		return fmt.Errorf("STASH_APP_GROUP must not be empty")
	}
	if c.URLScheme == "" {
		return fmt.Errorf("STASH_URL_SCHEME must not be empty")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("STASH_AI_TIMEOUT must be positive, got %v", c.AITimeout)
	}
	if c.MetadataTimeout <= 0 {
		return fmt.Errorf("STASH_METADATA_TIMEOUT must be positive, got %v", c.MetadataTimeout)
	}
	if c.AIMaxRetries < 0 || c.AIMaxRetries > 10 {
		return fmt.Errorf("STASH_AI_MAX_RETRIES must be 0-10, got %d", c.AIMaxRetries)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("STASH_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// AIEnabled reports whether an OpenAI key is configured
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

// Level returns the configured log level, defaulting to info
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
