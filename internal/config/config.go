// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.claude-interface/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModel indicates the model name is empty or malformed.
	ErrInvalidModel = errors.New("invalid model name")

	// ErrInvalidDatabasePath indicates the database path is unusable.
	ErrInvalidDatabasePath = errors.New("invalid database path")

	// ErrInvalidAPIBaseURL indicates the API base URL is missing or malformed.
	ErrInvalidAPIBaseURL = errors.New("invalid API base URL")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Models selectable for response generation, in display order.
var Models = []string{
	"claude-sonnet-4",
	"claude-opus-4",
	"claude-3-7-sonnet",
	"claude-3-5-sonnet",
	"gpt-4o",
	"gpt-4o-mini",
	"o1",
	"o1-mini",
	"deepseek-chat",
	"deepseek-reasoner",
	"gemini-2.0-flash",
	"mistral-large-latest",
	"grok-beta",
}

// DefaultModel is used when no model is configured or selected.
const DefaultModel = "claude-sonnet-4"

// Config stores application configuration.
// SECURITY: APIKey is sensitive; it is masked in LogValue and must never
// be written to the config file by this program.
type Config struct {
	// Database
	DatabasePath string `mapstructure:"database_path"`

	// AI model and transport
	Model      string `mapstructure:"model"`
	APIBaseURL string `mapstructure:"api_base_url"`
	APIKey     string `mapstructure:"api_key"` // SENSITIVE: masked in LogValue

	// Identity attached to created chats
	UserID string `mapstructure:"user_id"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
	LogFile  string `mapstructure:"log_file"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".claude-interface")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("database_path", filepath.Join(configDir, "chats.db"))
	v.SetDefault("model", DefaultModel)
	v.SetDefault("api_base_url", "https://api.puter.com/drivers/ai")
	v.SetDefault("user_id", "default_user")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("log_file", "")
}

// bindEnvVariables binds environment overrides explicitly. The API key
// is env-only; it never round-trips through the config file.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "CLAUDE_INTERFACE_API_KEY")
	mustBind("api_base_url", "CLAUDE_INTERFACE_API_URL")
	mustBind("model", "CLAUDE_INTERFACE_MODEL")
	mustBind("database_path", "CLAUDE_INTERFACE_DB")
	mustBind("log_level", "CLAUDE_INTERFACE_LOG_LEVEL")
}

// Validate checks the configuration for obvious misconfiguration.
// Called by Load; exported for callers that build a Config by hand.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidModel)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("%w: database path must not be empty", ErrInvalidDatabasePath)
	}
	base := strings.TrimSpace(c.APIBaseURL)
	if base == "" || !(strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://")) {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBaseURL, c.APIBaseURL)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// LogValue implements slog.LogValuer so a Config can be logged without
// leaking the API key.
func (c *Config) LogValue() slog.Value {
	key := ""
	if c.APIKey != "" {
		key = maskedValue
	}
	return slog.GroupValue(
		slog.String("database_path", c.DatabasePath),
		slog.String("model", c.Model),
		slog.String("api_base_url", c.APIBaseURL),
		slog.String("api_key", key),
		slog.String("user_id", c.UserID),
		slog.String("log_level", c.LogLevel),
	)
}
