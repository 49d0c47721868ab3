// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/echo-history/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllamaClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, RateLimit: 100, Burst: 100})
}

func TestComplete_SendsHistoryAndPersonality(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ChatResponse{Model: got.Model, Message: Message{Role: "assistant", Content: "Sure!"}, Done: true})
	})

	img, err := model.NewImageMessage(model.RoleAssistant, "", "https://img.example/a.png", "a beach")
	require.NoError(t, err)
	history := []model.Message{model.UserText("hi"), model.AssistantText("hello"), img}

	reply, err := client.Complete(context.Background(), history, "Plan a trip", model.Settings{Model: "mistral", Personality: model.PersonalityConcise})
	require.NoError(t, err)
	assert.Equal(t, "Sure!", reply)

	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 5)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, model.PersonalityConcise.SystemPrompt(), got.Messages[0].Content)
	assert.Equal(t, Message{Role: "user", Content: "hi"}, got.Messages[1])
	assert.Equal(t, "[image: a beach]", got.Messages[3].Content)
	assert.Equal(t, Message{Role: "user", Content: "Plan a trip"}, got.Messages[4])
	require.NotNil(t, got.Options)
	assert.Equal(t, 0.3, got.Options.Temperature)
}

func TestComplete_DefaultsSettings(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(ChatResponse{Message: Message{Role: "assistant", Content: "ok"}})
	})

	_, err := client.Complete(context.Background(), nil, "x", model.Settings{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModel, got.Model)
	assert.Equal(t, model.PersonalityFriendly.SystemPrompt(), got.Messages[0].Content)
}

func TestComplete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorType
	}{
		{"model not found", http.StatusNotFound, `{"error":"model 'x' not found"}`, ErrTypeModelNotFound},
		{"rate limited", http.StatusTooManyRequests, ``, ErrTypeRateLimited},
		{"server error with body", http.StatusInternalServerError, `{"error":"out of memory"}`, ErrTypeInvalidResponse},
		{"server error without body", http.StatusBadGateway, `nope`, ErrTypeInvalidResponse},
		{"empty reply", http.StatusOK, `{"message":{"role":"assistant","content":"  "}}`, ErrTypeInvalidResponse},
		{"garbage", http.StatusOK, `not json`, ErrTypeInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), nil, "x", model.DefaultSettings())
			require.Error(t, err)
			assert.Equal(t, tt.want, ErrorTypeOf(err), err.Error())
		})
	}
}

func TestComplete_ServerMessageSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"out of memory"}`))
	})

	_, err := client.Complete(context.Background(), nil, "x", model.DefaultSettings())
	assert.EqualError(t, err, "out of memory")
}

func TestComplete_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewOllamaClient(ClientConfig{BaseURL: url})
	_, err := client.Complete(context.Background(), nil, "x", model.DefaultSettings())
	assert.True(t, errors.Is(err, ErrNotRunning), "got %v", err)
	assert.Error(t, client.CheckRunning(context.Background()))
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewOllamaClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), nil, "x", model.DefaultSettings())
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestComplete_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Message: Message{Role: "assistant", Content: "ok"}})
	}))
	defer srv.Close()

	// One token, refilled once a minute.
	client := NewOllamaClient(ClientConfig{BaseURL: srv.URL, RateLimit: 1.0 / 60, Burst: 1})

	_, err := client.Complete(context.Background(), nil, "first", model.DefaultSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, nil, "second", model.DefaultSettings())
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3.2","size":42}]}`))
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "llama3.2", models[0].Name)
}

func TestNewOllamaClient_Defaults(t *testing.T) {
	c := NewOllamaClient(ClientConfig{BaseURL: "http://example.test/"})
	cfg := c.Config()
	assert.Equal(t, "http://example.test", cfg.BaseURL)
	assert.Equal(t, DefaultConfig().Timeout, cfg.Timeout)
	assert.Equal(t, DefaultConfig().Burst, cfg.Burst)
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "rate-limited", ErrTypeRateLimited.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
	assert.Equal(t, ErrTypeUnknown, ErrorTypeOf(errors.New("plain")))
}
