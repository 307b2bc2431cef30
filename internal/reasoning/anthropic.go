package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/akmatori/incident-analyst/internal/models"
)

// DefaultAnthropicModel is used when no model is configured
const DefaultAnthropicModel = "claude-sonnet-4-5"

const anthropicMaxTokens = 1024

// AnthropicAdapter asks the Anthropic Messages API for an analysis
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAdapter creates an Anthropic adapter. baseURL may be empty.
// Retries are disabled; the Analyzer's deadline and fallback decide instead.
func NewAnthropicAdapter(apiKey, baseURL, model string) *AnthropicAdapter {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &AnthropicAdapter{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Name implements Adapter
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Analyze implements Adapter
func (a *AnthropicAdapter) Analyze(ctx context.Context, req Request) (models.Analysis, error) {
	system, user := BuildPrompt(req)

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("%w: anthropic API call failed: %v", ErrAdapter, err)
	}

	var text strings.Builder
	for i := range resp.Content {
		if block := &resp.Content[i]; block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return ParseAnalysis(text.String())
}
