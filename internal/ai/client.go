package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	applog "cosmatiqa/internal/log"
)

const (
	defaultModel         = "gpt-4.1-mini"
	defaultFallbackModel = "gpt-4o-mini"
	defaultBaseURL       = "https://api.openai.com/v1"
	defaultTemperature   = 0.2
	defaultTimeout       = 90 * time.Second
)

// Config describes how the advisory client should be initialised.
type Config struct {
	APIKey        string
	Model         string
	FallbackModel string
	BaseURL       string
	Temperature   float64
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client offers a thin wrapper around an OpenAI-compatible Chat Completions
// API. Transport failures on the primary model are retried once against the
// fallback model.
type Client struct {
	apiKey        string
	model         string
	fallbackModel string
	baseURL       string
	temperature   float64
	httpClient    *http.Client
}

// NewClient builds a Client that can query the advisory model.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("ai: api key must not be empty")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	fallback := strings.TrimSpace(cfg.FallbackModel)
	if fallback == "" {
		fallback = defaultFallbackModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	temp := cfg.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		apiKey:        apiKey,
		model:         model,
		fallbackModel: fallback,
		baseURL:       strings.TrimRight(baseURL, "/"),
		temperature:   temp,
		httpClient:    httpClient,
	}, nil
}

type chatRequest struct {
	systemPrompt string
	userPrompt   string
	maxTokens    int
}

// completeWithFallback performs the chat completion against the primary model
// and retries once with the fallback model on transport failure.
func (c *Client) completeWithFallback(ctx context.Context, req chatRequest) (string, error) {
	content, err := c.performChatCompletion(ctx, c.model, req)
	if err == nil {
		return content, nil
	}

	applog.Debug(ctx, "primary advisory model failed, retrying with fallback",
		"model", c.model, "fallback", c.fallbackModel, "error", err)

	content, fallbackErr := c.performChatCompletion(ctx, c.fallbackModel, req)
	if fallbackErr != nil {
		return "", fmt.Errorf("ai: advisory unavailable (primary: %v): %w", err, fallbackErr)
	}
	return content, nil
}

func (c *Client) performChatCompletion(ctx context.Context, model string, req chatRequest) (string, error) {
	payload := map[string]any{
		"model":       model,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": req.systemPrompt,
			},
			{
				"role":    "user",
				"content": req.userPrompt,
			},
		},
	}
	if req.maxTokens > 0 {
		payload["max_tokens"] = req.maxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ai: call advisory model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("ai: advisory model returned status %s", resp.Status)
	}

	var responseData struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&responseData); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}

	if len(responseData.Choices) == 0 {
		return "", errors.New("ai: advisory model returned no choices")
	}

	return strings.TrimSpace(responseData.Choices[0].Message.Content), nil
}

// stripCodeFence removes a leading/trailing markdown code fence (``` or
// ```json) around the payload, plus stray backticks.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.Index(trimmed, "\n"); idx >= 0 {
			head := strings.TrimSpace(trimmed[:idx])
			if head == "" || isFenceLanguage(head) {
				trimmed = trimmed[idx+1:]
			}
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	trimmed = strings.Trim(strings.TrimSpace(trimmed), "`")
	return strings.TrimSpace(trimmed)
}

func isFenceLanguage(value string) bool {
	switch strings.ToLower(value) {
	case "json", "javascript", "js", "text":
		return true
	default:
		return false
	}
}
