package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify sot configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/sot/config.yaml
Project-specific overrides can be placed in .sot.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if len(args) == 2 {
			return setConfigKey(w, args[0], args[1])
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		switch len(args) {
		case 0:
			displayAllConfig(w, cfg)
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, value)
		}
		return nil
	},
}

// configKeys lists the keys shown by `sot config`, in display order.
var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.base_url",
	"anthropic.max_retries",
	"bedrock.enabled",
	"bedrock.region",
	"bedrock.profile",
	"generation.temperature",
	"generation.max_tokens",
	"generation.skeleton_max_tokens",
	"timeouts.skeleton",
	"timeouts.point",
	"dispatch.concurrency",
	"dispatch.requests_per_second",
	"dispatch.burst",
	"history.enabled",
	"history.path",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
}

// setConfigKey sets a value in the user config file. Only that layer is
// rewritten; project overrides and environment variables are not persisted.
func setConfigKey(w io.Writer, key, value string) error {
	isAPIKey := strings.EqualFold(key, "anthropic.api_key")
	// ${VAR} references are resolved at load time.
	if isAPIKey && !strings.Contains(value, "${") {
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
	}

	cfg, err := config.LoadUser()
	if err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	shown := value
	if isAPIKey {
		shown = config.MaskAPIKey(value)
	}
	fmt.Fprintf(w, "Set %s = %s\n", key, shown)
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.base_url":
		return cfg.Anthropic.BaseURL, nil
	case "anthropic.max_retries":
		return strconv.Itoa(cfg.Anthropic.MaxRetries), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "bedrock.profile":
		return cfg.Bedrock.Profile, nil
	case "generation.temperature":
		return strconv.FormatFloat(cfg.Generation.Temperature, 'g', -1, 64), nil
	case "generation.max_tokens":
		return strconv.FormatInt(cfg.Generation.MaxTokens, 10), nil
	case "generation.skeleton_max_tokens":
		return strconv.FormatInt(cfg.Generation.SkeletonMaxTokens, 10), nil
	case "timeouts.skeleton":
		return cfg.Timeouts.Skeleton.String(), nil
	case "timeouts.point":
		return cfg.Timeouts.Point.String(), nil
	case "dispatch.concurrency":
		return strconv.Itoa(cfg.Dispatch.Concurrency), nil
	case "dispatch.requests_per_second":
		return strconv.FormatFloat(cfg.Dispatch.RequestsPerSecond, 'g', -1, 64), nil
	case "dispatch.burst":
		return strconv.Itoa(cfg.Dispatch.Burst), nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.base_url":
		cfg.Anthropic.BaseURL = value
	case "anthropic.max_retries":
		cfg.Anthropic.MaxRetries, err = parseInt(key, value)
	case "bedrock.enabled":
		cfg.Bedrock.Enabled, err = parseBool(key, value)
	case "bedrock.region":
		cfg.Bedrock.Region = value
	case "bedrock.profile":
		cfg.Bedrock.Profile = value
	case "generation.temperature":
		cfg.Generation.Temperature, err = parseFloat(key, value)
	case "generation.max_tokens":
		cfg.Generation.MaxTokens, err = parseInt64(key, value)
	case "generation.skeleton_max_tokens":
		cfg.Generation.SkeletonMaxTokens, err = parseInt64(key, value)
	case "timeouts.skeleton":
		cfg.Timeouts.Skeleton, err = parseDuration(key, value)
	case "timeouts.point":
		cfg.Timeouts.Point, err = parseDuration(key, value)
	case "dispatch.concurrency":
		cfg.Dispatch.Concurrency, err = parseInt(key, value)
	case "dispatch.requests_per_second":
		cfg.Dispatch.RequestsPerSecond, err = parseFloat(key, value)
	case "dispatch.burst":
		cfg.Dispatch.Burst, err = parseInt(key, value)
	case "history.enabled":
		cfg.History.Enabled, err = parseBool(key, value)
	case "history.path":
		cfg.History.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func parseInt64(key, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %w", key, err)
	}
	return f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
