package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medialink/internal/config"
	"medialink/internal/services"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient builds a client from the analyser configuration.
func NewClient(cfg config.LLM) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a single-turn completion and returns the assistant text.
// Transport failures, 429 responses, and 5xx responses are classified
// transient; other non-2xx responses are permanent.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "llm complete"

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", services.WrapError(services.KindInternal, op, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", services.WrapError(services.KindInternal, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.WrapError(services.KindAnalyserTransient, op, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.WrapError(services.KindAnalyserTransient, op, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := services.KindAnalyserPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = services.KindAnalyserTransient
		}
		return "", services.NewError(kind, op, fmt.Sprintf("status %d: %s", resp.StatusCode, summarize(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.WrapError(services.KindAnalyserTransient, op, "decode response", err)
	}
	if parsed.Error != nil {
		return "", services.NewError(services.KindAnalyserPermanent, op, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", services.NewError(services.KindAnalyserTransient, op, "response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func summarize(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
