package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"avatar-relay/internal/models"
)

// maxErrorBody bounds how much of a failed provider response is kept.
const maxErrorBody = 64 * 1024

// ChatStreamer opens a streaming chat completion.
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []models.ChatMessage) (*Stream, error)
}

// LLMClient talks to an OpenAI-compatible /chat/completions endpoint.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type completionRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

// NewLLMClient builds a client. headerTimeout bounds the wait for response
// headers only; zero means wait forever. The body stream is never cut short.
func NewLLMClient(baseURL, apiKey, model string, headerTimeout time.Duration) *LLMClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout

	return &LLMClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Transport: transport},
	}
}

func (c *LLMClient) Model() string { return c.model }

// StreamChat sends messages with stream=true and returns once the provider has
// answered with 200. Any other status, or a transport failure, is a *ProviderError.
func (c *LLMClient) StreamChat(ctx context.Context, messages []models.ChatMessage) (*Stream, error) {
	payload, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, &InternalError{Cause: fmt.Errorf("failed to marshal completion request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &InternalError{Cause: fmt.Errorf("failed to create provider request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return newStream(ctx, resp.Body), nil
}
