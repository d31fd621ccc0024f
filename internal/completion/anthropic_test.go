package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewAnthropicClient_WithAPIKey(t *testing.T) {
	client, err := NewAnthropicClient(context.Background(), AnthropicConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	})
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}

	if client.model != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("model = %q, want %q", client.model, anthropic.ModelClaudeSonnet4_20250514)
	}
}

func TestNewAnthropicClient_NoAPIKey(t *testing.T) {
	_, err := NewAnthropicClient(context.Background(), AnthropicConfig{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestNewAnthropicClient_DefaultModel(t *testing.T) {
	client, err := NewAnthropicClient(context.Background(), AnthropicConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}
	if client.model != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("model = %q, want default sonnet", client.model)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	if got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("translate = %q", got)
	}

	custom := anthropic.Model("us.anthropic.custom-v1:0")
	if translateModelForBedrock(custom) != custom {
		t.Error("unknown models should pass through unchanged")
	}
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(1000, 500)
	tr.Add(2000, 1500)

	in, out := tr.Total()
	if in != 3000 || out != 2000 {
		t.Errorf("Total() = (%d, %d), want (3000, 2000)", in, out)
	}

	want := 3000.0/1_000_000*3.0 + 2000.0/1_000_000*15.0
	if got := tr.Cost(DefaultPricing); got != want {
		t.Errorf("Cost() = %f, want %f", got, want)
	}
	if got := tr.Cost(Pricing{}); got != 0 {
		t.Errorf("Cost(zero pricing) = %f, want 0", got)
	}
}
