package distractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TextGenerator produces free text for a prompt. Implementations may call
// an LLM or return canned results (for tests).
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ChatClient calls an OpenAI-compatible chat-completions endpoint
// (Ollama, LM Studio, vLLM, etc.).
type ChatClient struct {
	url    string       // e.g. "http://localhost:1234"
	model  string       // e.g. "qwen3-8b"
	client *http.Client // reused across calls
}

// Compile-time check: *ChatClient satisfies TextGenerator.
var _ TextGenerator = (*ChatClient)(nil)

// GenerateError is returned when a generation call fails so the caller can
// distinguish "LLM produced unusable text" from "LLM was unreachable."
type GenerateError struct {
	Reason  string
	Wrapped error
}

func (e *GenerateError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

func (e *GenerateError) Unwrap() error {
	return e.Wrapped
}

// NewChatClient creates a client for the given LLM endpoint.
func NewChatClient(url, model string) *ChatClient {
	return &ChatClient{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText sends a single request to the LLM and returns the raw text
// response. Distractor prompts want some variety, so temperature is not
// pinned to zero.
func (c *ChatClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := llmRequest{
		Model: c.model,
		Messages: []llmMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &GenerateError{Reason: "LLM request failed", Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &GenerateError{Reason: fmt.Sprintf("LLM returned status %d", resp.StatusCode)}
	}

	var llmResp llmResponse
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", &GenerateError{Reason: "failed to decode LLM response", Wrapped: err}
	}

	if len(llmResp.Choices) == 0 {
		return "", &GenerateError{Reason: "LLM returned no choices"}
	}

	content := llmResp.Choices[0].Message.Content
	if content == "" {
		return "", &GenerateError{Reason: "LLM returned empty content"}
	}

	return content, nil
}
