package main

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/internal/config"
)

// newCompletionClient builds the configured backend, throttled by
// dispatch.requests_per_second.
func newCompletionClient(ctx context.Context, cfg *config.Config) (completion.Client, error) {
	acfg := completion.AnthropicConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		BaseURL:       cfg.Anthropic.BaseURL,
		MaxRetries:    cfg.Anthropic.MaxRetries,
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
	}
	if !cfg.Bedrock.Enabled {
		key, _, err := config.ResolveAPIKey(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w (set ANTHROPIC_API_KEY or run 'sot config anthropic.api_key <key>')", err)
		}
		acfg.APIKey = key
	}

	client, err := completion.NewAnthropicClient(ctx, acfg)
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}
	return completion.NewRateLimited(client, cfg.Dispatch.RequestsPerSecond, cfg.Dispatch.Burst), nil
}
