// Package config handles configuration loading and management for sot.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for sot.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Bedrock    BedrockConfig    `mapstructure:"bedrock"`
	Generation GenerationConfig `mapstructure:"generation"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	History    HistoryConfig    `mapstructure:"history"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// BedrockConfig selects AWS Bedrock as the completion backend.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// GenerationConfig holds sampling parameters shared by all requests.
type GenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens bounds each point elaboration and normal-mode answer.
	MaxTokens int64 `mapstructure:"max_tokens"`
	// SkeletonMaxTokens bounds the decomposition request.
	SkeletonMaxTokens int64 `mapstructure:"skeleton_max_tokens"`
}

// TimeoutsConfig holds per-request time budgets.
type TimeoutsConfig struct {
	Skeleton time.Duration `mapstructure:"skeleton"`
	Point    time.Duration `mapstructure:"point"`
}

// DispatchConfig bounds the load placed on the backend.
type DispatchConfig struct {
	// Concurrency is the maximum number of point requests in flight (0 = one per point).
	Concurrency int `mapstructure:"concurrency"`
	// RequestsPerSecond throttles request starts (0 = unlimited).
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Burst is the token bucket size used with RequestsPerSecond.
	Burst int `mapstructure:"burst"`
}

// HistoryConfig controls the local job history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SOT_*)
// 2. Project config (.sot.yaml in current directory or parent)
// 3. User config (~/.config/sot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

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

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// LoadUser loads built-in defaults and the user config file only. Project
// overrides, environment variables and ${VAR} references are left out, so
// the result can be edited and written back with Save.
func LoadUser() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path := GetUserConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}
	return decode(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.History.Path = expandEnv(cfg.History.Path)
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv maps environment variables onto config keys.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SOT")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
}

// Validate checks that numeric settings are in range.
func (c *Config) Validate() error {
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 1 {
		return fmt.Errorf("generation.temperature must be between 0 and 1, got %v", c.Generation.Temperature)
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation.max_tokens must be positive, got %d", c.Generation.MaxTokens)
	}
	if c.Generation.SkeletonMaxTokens <= 0 {
		return fmt.Errorf("generation.skeleton_max_tokens must be positive, got %d", c.Generation.SkeletonMaxTokens)
	}
	if c.Timeouts.Skeleton < 0 {
		return errors.New("timeouts.skeleton must not be negative")
	}
	if c.Timeouts.Point <= 0 {
		return fmt.Errorf("timeouts.point must be positive, got %s", c.Timeouts.Point)
	}
	if c.Dispatch.Concurrency < 0 {
		return fmt.Errorf("dispatch.concurrency must not be negative, got %d", c.Dispatch.Concurrency)
	}
	if c.Dispatch.RequestsPerSecond < 0 {
		return fmt.Errorf("dispatch.requests_per_second must not be negative, got %v", c.Dispatch.RequestsPerSecond)
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

// SaveToPath writes the configuration to path.
func SaveToPath(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.base_url", cfg.Anthropic.BaseURL)
	v.Set("anthropic.max_retries", cfg.Anthropic.MaxRetries)
	v.Set("bedrock.enabled", cfg.Bedrock.Enabled)
	v.Set("bedrock.region", cfg.Bedrock.Region)
	v.Set("bedrock.profile", cfg.Bedrock.Profile)
	v.Set("generation.temperature", cfg.Generation.Temperature)
	v.Set("generation.max_tokens", cfg.Generation.MaxTokens)
	v.Set("generation.skeleton_max_tokens", cfg.Generation.SkeletonMaxTokens)
	v.Set("timeouts.skeleton", cfg.Timeouts.Skeleton.String())
	v.Set("timeouts.point", cfg.Timeouts.Point.String())
	v.Set("dispatch.concurrency", cfg.Dispatch.Concurrency)
	v.Set("dispatch.requests_per_second", cfg.Dispatch.RequestsPerSecond)
	v.Set("dispatch.burst", cfg.Dispatch.Burst)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)

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

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.base_url", d.Anthropic.BaseURL)
	v.SetDefault("anthropic.max_retries", d.Anthropic.MaxRetries)

	v.SetDefault("bedrock.enabled", d.Bedrock.Enabled)
	v.SetDefault("bedrock.region", d.Bedrock.Region)
	v.SetDefault("bedrock.profile", d.Bedrock.Profile)

	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.skeleton_max_tokens", d.Generation.SkeletonMaxTokens)

	v.SetDefault("timeouts.skeleton", d.Timeouts.Skeleton.String())
	v.SetDefault("timeouts.point", d.Timeouts.Point.String())

	v.SetDefault("dispatch.concurrency", d.Dispatch.Concurrency)
	v.SetDefault("dispatch.requests_per_second", d.Dispatch.RequestsPerSecond)
	v.SetDefault("dispatch.burst", d.Dispatch.Burst)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
}

// getUserConfigDir returns the XDG config directory for sot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "sot")
	}
	return filepath.Join(home, ".config", "sot")
}

// DefaultHistoryPath returns the XDG data path of the job history database.
func DefaultHistoryPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".sot", "history.db")
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "sot", "history.db")
}

// findProjectConfig searches for .sot.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".sot.yaml")
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
			Model:      "claude-sonnet-4-20250514",
			MaxRetries: 2,
		},
		Generation: GenerationConfig{
			Temperature:       0.7,
			MaxTokens:         1024,
			SkeletonMaxTokens: 400,
		},
		Timeouts: TimeoutsConfig{
			Skeleton: 60 * time.Second,
			Point:    90 * time.Second,
		},
		Dispatch: DispatchConfig{
			Concurrency: 8,
			Burst:       4,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
	}
}
