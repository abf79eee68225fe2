package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// anthropicClient is the concrete TextModel backed by the Anthropic Messages
// API. The whole prompt travels in a single user message; there is no system
// turn and no multi-turn state.
type anthropicClient struct {
	apiKey     string
	model      string
	profile    string // inference-profile reference; overrides model when set
	httpClient *http.Client
}

// NewAnthropicClient returns a TextModel that calls the Anthropic API.
//   - apiKey:  your ANTHROPIC_API_KEY
//   - model:   e.g. "claude-sonnet-4-5"
//   - profile: optional inference-profile reference; takes precedence over
//     model when non-empty
func NewAnthropicClient(apiKey, model, profile string) TextModel {
	return &anthropicClient{
		apiKey:  apiKey,
		model:   model,
		profile: profile,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// ─── ANTHROPIC API SHAPES ─────────────────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// Generate sends one single-turn request and returns the text of the first
// text content block. A reply with no text block is a gateway failure.
func (c *anthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     modelRef(c.model, c.profile),
		MaxTokens: 2048,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", gatewayErr("anthropic", "marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.anthropic.com/v1/messages",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", gatewayErr("anthropic", "build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", gatewayErr("anthropic", "http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB cap
	if err != nil {
		return "", gatewayErr("anthropic", "read response body: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", gatewayErr("anthropic", "unmarshal response: %w", err)
	}

	if parsed.Error != nil {
		return "", gatewayErr("anthropic", "API error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", gatewayErr("anthropic", "unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", gatewayErr("anthropic", "no text content in response")
}
