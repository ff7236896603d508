package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// GetAPIKey returns the Anthropic API key from the configuration.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}

	if key := configKey(cfg); key != "" {
		return key, nil
	}

	return "", ErrNoAPIKey
}

// RequireCredentials checks that generation can be attempted. Bedrock
// resolves credentials through the AWS chain, so only a region is needed.
func RequireCredentials(cfg *Config) error {
	if cfg != nil && cfg.Anthropic.UseBedrock {
		return nil
	}
	_, err := GetAPIKey(cfg)
	return err
}

// ValidateAPIKey performs basic validation on an API key.
// It checks format but does not verify the key with Anthropic's API.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}
	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters (sk-ant-) and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 15 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where generation credentials come from.
type KeySource string

const (
	KeySourceEnv     KeySource = "environment"
	KeySourceConfig  KeySource = "config_file"
	KeySourceBedrock KeySource = "aws_bedrock"
	KeySourceNone    KeySource = "none"
)

// GetAPIKeySource returns where the credentials were sourced from.
func GetAPIKeySource(cfg *Config) KeySource {
	if cfg != nil && cfg.Anthropic.UseBedrock {
		return KeySourceBedrock
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return KeySourceEnv
	}
	if configKey(cfg) != "" {
		return KeySourceConfig
	}
	return KeySourceNone
}

// configKey expands the configured key, treating unresolved references as unset.
func configKey(cfg *Config) string {
	if cfg == nil || cfg.Anthropic.APIKey == "" {
		return ""
	}
	key := os.ExpandEnv(cfg.Anthropic.APIKey)
	if strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}
