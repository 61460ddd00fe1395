// Package config loads service configuration from a YAML file, an optional
// .env file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v2"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverBigQuery = "bigquery"
)

// Config is the full service configuration.
type Config struct {
	Completion CompletionConfig `yaml:"completion"`
	Store      StoreConfig      `yaml:"store"`
	Backup     BackupConfig     `yaml:"backup"`
	Auth       AuthConfig       `yaml:"auth"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// CompletionConfig selects and configures the completion provider.
// An empty APIKey is allowed; extraction then fails with a missing credential.
type CompletionConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver    string `yaml:"driver"`
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	BoltPath  string `yaml:"bolt_path"`
}

// BackupConfig configures backup file storage.
type BackupConfig struct {
	Bucket string `yaml:"bucket"`
}

// AuthConfig configures bearer-token sessions. Tokens maps a token to the
// owner id it authenticates.
type AuthConfig struct {
	SessionTimeout time.Duration     `yaml:"session_timeout"`
	Tokens         map[string]string `yaml:"tokens"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Completion: CompletionConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Driver:   DriverMemory,
			Dataset:  "mahjong",
			BoltPath: "mahjong.db",
		},
		Auth: AuthConfig{
			SessionTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), a .env file in the working directory if present and the
// process environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("Load: reading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("Load: reading %s: %w", path, err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Load: %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the values already in cfg.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with non-empty environment values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Completion.Provider, "MAHJONG_COMPLETION_PROVIDER")
	set(&c.Completion.Model, "MAHJONG_COMPLETION_MODEL")
	set(&c.Completion.BaseURL, "MAHJONG_COMPLETION_BASE_URL")
	set(&c.Completion.APIKey, "MAHJONG_COMPLETION_API_KEY")
	if c.Completion.APIKey == "" {
		set(&c.Completion.APIKey, providerKeyEnv(c.Completion.Provider)...)
	}
	if v := getenv("MAHJONG_COMPLETION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Completion.Timeout = d
		}
	}

	set(&c.Store.Driver, "MAHJONG_STORE_DRIVER")
	set(&c.Store.ProjectID, "GCP_PROJECT")
	set(&c.Store.Dataset, "BQ_DATASET")
	set(&c.Store.BoltPath, "MAHJONG_BOLT_PATH")
	set(&c.Backup.Bucket, "GCS_BUCKET")
	set(&c.Server.Port, "PORT")
	set(&c.Log.Level, "LOG_LEVEL")

	c.Completion.Provider = strings.ToLower(c.Completion.Provider)
	c.Store.Driver = strings.ToLower(c.Store.Driver)
}

func providerKeyEnv(provider string) []string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return []string{"ANTHROPIC_API_KEY"}
	case "openai":
		return []string{"OPENAI_API_KEY"}
	default:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
}

// Validate checks that the selected backends are known and configured.
func (c Config) Validate() error {
	switch c.Completion.Provider {
	case "gemini", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown completion provider %q", c.Completion.Provider)
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion timeout must be positive, got %s", c.Completion.Timeout)
	}
	if c.Auth.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %s", c.Auth.SessionTimeout)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Store.BoltPath == "" {
			return errors.New("store.bolt_path is required for the bolt driver")
		}
	case DriverBigQuery:
		if c.Store.ProjectID == "" || c.Store.Dataset == "" {
			return errors.New("store.project_id and store.dataset are required for the bigquery driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}
