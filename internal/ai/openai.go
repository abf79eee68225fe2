package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// openAIClient is a TextModel for any endpoint speaking the OpenAI
// /v1/chat/completions dialect (OpenAI itself, DeepSeek, most self-hosted
// gateways). Used as the secondary provider behind the fallback wrapper.
type openAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	profile    string
	httpClient *http.Client
}

// NewOpenAIClient returns a TextModel for an OpenAI-compatible endpoint.
// baseURL is the API root, e.g. "https://api.deepseek.com".
func NewOpenAIClient(baseURL, apiKey, model, profile string) TextModel {
	return &openAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		profile: profile,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// ─── OPENAI-COMPATIBLE API SHAPES ────────────────────────────────────────────

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// Generate sends one single-turn chat request and returns the first choice's
// content. An empty choice list or empty content is a gateway failure.
func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIRequest{
		Model:     modelRef(c.model, c.profile),
		MaxTokens: 2048,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", gatewayErr("openai", "marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", gatewayErr("openai", "build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", gatewayErr("openai", "http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", gatewayErr("openai", "read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", gatewayErr("openai", "unmarshal response: %w", err)
	}

	if parsed.Error != nil {
		return "", gatewayErr("openai", "API error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", gatewayErr("openai", "unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", gatewayErr("openai", "no text content in response")
	}

	return parsed.Choices[0].Message.Content, nil
}
