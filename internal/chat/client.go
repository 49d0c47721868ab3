// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/echo-history/internal/model"
)

// Completer turns a prompt and the preceding history into an assistant
// reply.
type Completer interface {
	Complete(ctx context.Context, history []model.Message, prompt string, settings model.Settings) (string, error)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: http://127.0.0.1:11434)
	// Explicit IPv4 avoids IPv6 resolution of localhost on Windows
	BaseURL string

	// Timeout for a single completion (default: 2m)
	Timeout time.Duration

	// RateLimit is the sustained request rate per second (default: 1)
	RateLimit float64

	// Burst is the number of requests allowed at once (default: 3)
	Burst int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:   "http://127.0.0.1:11434",
		Timeout:   2 * time.Minute,
		RateLimit: 1,
		Burst:     3,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// OllamaClient is a Completer backed by the Ollama /api/chat endpoint.
// It is safe for concurrent use.
type OllamaClient struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOllamaClient creates a client, filling zero config fields with defaults.
func NewOllamaClient(config ClientConfig) *OllamaClient {
	d := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = d.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = d.Timeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = d.RateLimit
	}
	if config.Burst <= 0 {
		config.Burst = d.Burst
	}

	return &OllamaClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
	}
}

// Config returns the effective configuration.
func (c *OllamaClient) Config() ClientConfig {
	return c.config
}

// CheckRunning verifies that the server is reachable.
func (c *OllamaClient) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from server: " + resp.Status,
		}
	}
	return nil
}

// ListModels retrieves all available models.
func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "failed to list models: " + resp.Status,
		}
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return result.Models, nil
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete implements Completer with a non-streaming chat request.
func (c *OllamaClient) Complete(ctx context.Context, history []model.Message, prompt string, settings model.Settings) (string, error) {
	settings = settings.WithDefaults()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", transportError(ctx.Err())
		}
		// Wait fails early when the deadline would pass before a token
		return "", &ClientError{Type: ErrTypeRateLimited, Message: "too many requests", Cause: err}
	}

	reqBody := ChatRequest{
		Model:    settings.Model,
		Messages: BuildMessages(history, prompt, settings.Personality),
		Stream:   false,
		Options:  &Options{Temperature: temperatureFor(settings.Personality)},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", &ClientError{Type: ErrTypeModelNotFound, Message: "model not found: " + settings.Model}
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	default:
		// Try to read error message
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return "", &ClientError{Type: ErrTypeInvalidResponse, Message: apiErr.Error}
		}
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "chat request failed: " + resp.Status}
	}

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	if strings.TrimSpace(result.Message.Content) == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "empty reply from model"}
	}
	return result.Message.Content, nil
}

// BuildMessages converts stored history into a request: a system prompt for
// the personality, the prior turns, then the new user prompt.
func BuildMessages(history []model.Message, prompt string, p model.Personality) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: p.SystemPrompt()})
	for _, m := range history {
		content := m.Content()
		if img, ok := m.(model.ImageMessage); ok {
			content = strings.TrimSpace(content + "\n[image: " + img.ImagePrompt() + "]")
		}
		msgs = append(msgs, Message{Role: string(m.Role()), Content: content})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})
	return msgs
}

func temperatureFor(p model.Personality) float64 {
	switch p {
	case model.PersonalityCreative:
		return 1.0
	case model.PersonalityProfessional:
		return 0.5
	case model.PersonalityConcise:
		return 0.3
	default:
		return 0.7
	}
}

// transportError classifies an error returned by http.Client.Do.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: "chat server is not running", Cause: err}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
