// Package config handles configuration loading and management for Foundry.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/state"
)

// ProjectConfigName is the per-directory override file.
const ProjectConfigName = ".foundry.yaml"

// Config holds all configuration for Foundry.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Log       LogConfig       `mapstructure:"log"`
}

// AnthropicConfig holds generation backend settings.
type AnthropicConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	UseBedrock        bool    `mapstructure:"use_bedrock"`
	AWSRegion         string  `mapstructure:"aws_region"`
	AWSProfile        string  `mapstructure:"aws_profile"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BaseURL           string  `mapstructure:"base_url"`
}

// DatabaseConfig holds the sqlite location.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AssistantConfig holds the project assistant's mutation policy.
type AssistantConfig struct {
	// EnforceStatusGuard makes update_task_status respect incomplete dependencies.
	EnforceStatusGuard bool `mapstructure:"enforce_status_guard"`
	// SerializeProjectMutations allows one in-flight chat turn per project.
	SerializeProjectMutations bool `mapstructure:"serialize_project_mutations"`
	// HistoryLimit is how many prior chat messages are sent with each turn.
	HistoryLimit int `mapstructure:"history_limit"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Logging converts to the logging package's config.
func (l LogConfig) Logging() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format}
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, FOUNDRY_<SECTION>_<KEY>)
// 2. Project config (.foundry.yaml in current directory or parent)
// 3. User config (~/.config/foundry/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return decode(v)
}

// LoadFromPath loads defaults, the given file and environment overrides.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return decode(v)
}

// decode applies environment overrides, unmarshals and validates.
func decode(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("FOUNDRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", "FOUNDRY_ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Database.Path = expandEnv(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Anthropic.MaxTokens <= 0 {
		return fmt.Errorf("anthropic.max_tokens must be positive, got %d", c.Anthropic.MaxTokens)
	}
	if c.Anthropic.RequestsPerSecond < 0 {
		return fmt.Errorf("anthropic.requests_per_second must not be negative")
	}
	if c.Assistant.HistoryLimit < 0 {
		return fmt.Errorf("assistant.history_limit must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format %q: must be console or json", c.Log.Format)
	}
	return nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveToPath(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveToPath writes the configuration to path as YAML.
func SaveToPath(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("anthropic.requests_per_second", cfg.Anthropic.RequestsPerSecond)
	v.Set("anthropic.base_url", cfg.Anthropic.BaseURL)
	v.Set("database.path", cfg.Database.Path)
	v.Set("server.host", cfg.Server.Host)
	v.Set("server.port", cfg.Server.Port)
	v.Set("server.shutdown_timeout", cfg.Server.ShutdownTimeout.String())
	v.Set("assistant.enforce_status_guard", cfg.Assistant.EnforceStatusGuard)
	v.Set("assistant.serialize_project_mutations", cfg.Assistant.SerializeProjectMutations)
	v.Set("assistant.history_limit", cfg.Assistant.HistoryLimit)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// ActivePath returns the file whose changes should be watched: the project
// config when present, otherwise the user config.
func ActivePath() string {
	if p := findProjectConfig(); p != "" {
		return p
	}
	return GetUserConfigPath()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.max_tokens", d.Anthropic.MaxTokens)
	v.SetDefault("anthropic.use_bedrock", d.Anthropic.UseBedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)
	v.SetDefault("anthropic.requests_per_second", d.Anthropic.RequestsPerSecond)
	v.SetDefault("anthropic.base_url", d.Anthropic.BaseURL)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())

	v.SetDefault("assistant.enforce_status_guard", d.Assistant.EnforceStatusGuard)
	v.SetDefault("assistant.serialize_project_mutations", d.Assistant.SerializeProjectMutations)
	v.SetDefault("assistant.history_limit", d.Assistant.HistoryLimit)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// getUserConfigDir returns the XDG config directory for Foundry.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "foundry")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "foundry")
	}
	return filepath.Join(home, ".config", "foundry")
}

// findProjectConfig searches for .foundry.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Database: DatabaseConfig{
			Path: state.DefaultDBPath(),
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Assistant: AssistantConfig{
			EnforceStatusGuard:        false,
			SerializeProjectMutations: true,
			HistoryLimit:              50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
