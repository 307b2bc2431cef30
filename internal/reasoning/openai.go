package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/akmatori/incident-analyst/internal/models"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIAdapter asks an OpenAI-compatible chat completions API for an analysis
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// NewOpenAIAdapter creates an OpenAI adapter. baseURL may point at any
// compatible endpoint and may be empty.
func NewOpenAIAdapter(apiKey, baseURL, model string) *OpenAIAdapter {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &OpenAIAdapter{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Name implements Adapter
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Analyze implements Adapter
func (a *OpenAIAdapter) Analyze(ctx context.Context, req Request) (models.Analysis, error) {
	system, user := BuildPrompt(req)

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("%w: openai API call failed: %v", ErrAdapter, err)
	}
	if len(resp.Choices) == 0 {
		return models.Analysis{}, fmt.Errorf("%w: no choices in response", ErrInvalidResponse)
	}
	return ParseAnalysis(resp.Choices[0].Message.Content)
}
