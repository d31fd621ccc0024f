package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/ShayCichocki/sot/pkg/models"
)

// AnthropicClient implements Client on top of the Anthropic Messages API.
type AnthropicClient struct {
	inner   anthropic.Client
	model   anthropic.Model
	bedrock bool
}

// AnthropicConfig contains configuration for creating a new AnthropicClient.
// All values are injected by the caller; the client reads no process-wide state.
type AnthropicConfig struct {
	// Model is the Claude model to use (e.g., anthropic.ModelClaudeSonnet4_20250514).
	Model anthropic.Model
	// APIKey is the Anthropic API key. Required unless UseAWSBedrock is set.
	APIKey string
	// BaseURL overrides the API endpoint.
	BaseURL string
	// MaxRetries is the SDK-level retry count for transient HTTP failures.
	MaxRetries int
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// ErrNoAPIKey is returned when the direct API path has no key configured.
var ErrNoAPIKey = errors.New("anthropic API key is not configured")

// NewAnthropicClient creates a new Anthropic-backed completion client.
func NewAnthropicClient(ctx context.Context, cfg AnthropicConfig) (*AnthropicClient, error) {
	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &AnthropicClient{
		inner:   anthropic.NewClient(opts...),
		model:   model,
		bedrock: cfg.UseAWSBedrock,
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// Complete sends prompt as a single user message and returns the concatenated text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, params Params) (*Response, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	model := c.model
	if params.Model != "" {
		model = anthropic.Model(params.Model)
		if c.bedrock {
			model = translateModelForBedrock(model)
		}
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(params.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, classifyAnthropicError(ctx, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &Failure{
			Kind:    models.ErrorKindMalformed,
			Message: fmt.Sprintf("response contained no text (stop reason %q)", resp.StopReason),
		}
	}

	return &Response{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// classifyAnthropicError maps SDK errors onto the completion error taxonomy.
func classifyAnthropicError(ctx context.Context, err error) *Failure {
	if f := contextFailure(ctx, err); f != nil {
		return f
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return Classify(err)
	}
	return NewFailure(kindForStatus(apiErr.StatusCode), err)
}

// kindForStatus maps an HTTP status code from the API onto an error kind.
func kindForStatus(code int) models.ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return models.ErrorKindAuth
	case code == http.StatusTooManyRequests:
		return models.ErrorKindRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return models.ErrorKindTimeout
	case code >= 400 && code < 500:
		return models.ErrorKindMalformed
	default:
		return models.ErrorKindTransport
	}
}
