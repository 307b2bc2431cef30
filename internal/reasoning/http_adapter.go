package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akmatori/incident-analyst/internal/models"
)

// DefaultChatEndpoint is the chat endpoint used when none is configured
const DefaultChatEndpoint = "https://api.you.com/v1/chat"

const maxAnswerBytes = 1 << 20

// HTTPAdapter talks to a generic chat endpoint that accepts a single query and
// returns a free-text answer
type HTTPAdapter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// chat request/response structures
type chatRequest struct {
	Query    string `json:"query"`
	ChatMode string `json:"chat_mode"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// NewHTTPAdapter creates a chat adapter. The request deadline comes from the
// caller's context; the client timeout is a backstop.
func NewHTTPAdapter(endpoint, apiKey string) *HTTPAdapter {
	if endpoint == "" {
		endpoint = DefaultChatEndpoint
	}
	return &HTTPAdapter{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Name implements Adapter
func (a *HTTPAdapter) Name() string {
	return "http"
}

// Analyze implements Adapter
func (a *HTTPAdapter) Analyze(ctx context.Context, req Request) (models.Analysis, error) {
	system, user := BuildPrompt(req)

	body, err := json.Marshal(chatRequest{Query: system + "\n\n" + user, ChatMode: "default"})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("%w: %v", ErrAdapter, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes))
	if err != nil {
		return models.Analysis{}, fmt.Errorf("%w: failed to read response: %v", ErrAdapter, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Analysis{}, fmt.Errorf("%w: unexpected status %d", ErrAdapter, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return models.Analysis{}, fmt.Errorf("%w: failed to parse response: %v", ErrInvalidResponse, err)
	}
	return ParseAnalysis(chatResp.Answer)
}
