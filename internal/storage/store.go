// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jeranaias/echo-history/internal/model"
)

// blobVersion is the layout version written by Save.
const blobVersion = 1

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository loads and saves the whole conversation collection.
type Repository interface {
	// Load returns every persisted conversation, ordered by UpdatedAt
	// descending. Missing or malformed data yields an empty collection.
	Load() []model.Conversation

	// Save replaces the persisted collection.
	Save(convs []model.Conversation) error

	// Close releases the underlying backend.
	Close() error
}

// blob is the persisted layout.
type blob struct {
	Version       int               `json:"version"`
	Conversations []json.RawMessage `json:"conversations"`
}

// Store is the Repository implementation over a Backend.
type Store struct {
	backend Backend
	key     string
	logger  *slog.Logger
}

// NewStore creates a store that keeps the collection under key.
// An empty key selects DefaultKey; a nil logger discards log output.
func NewStore(backend Backend, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		backend: backend,
		key:     key,
		logger:  logger.With("component", "storage", "backend", backend.Name()),
	}
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Load implements Repository.
func (s *Store) Load() []model.Conversation {
	data, err := s.backend.Read(s.key)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			s.logger.Warn("failed to read conversations, starting empty", "error", err)
		}
		return []model.Conversation{}
	}

	records, err := decodeRecords(data)
	if err != nil {
		s.logger.Warn("malformed conversation data, starting empty", "error", err)
		return []model.Conversation{}
	}

	convs := make([]model.Conversation, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, raw := range records {
		var conv model.Conversation
		if err := json.Unmarshal(raw, &conv); err != nil {
			// Skip malformed entries instead of failing the whole load
			s.logger.Warn("skipping malformed conversation", "index", i, "error", err)
			continue
		}
		if conv.ID == "" {
			s.logger.Warn("skipping conversation without id", "index", i)
			continue
		}
		if seen[conv.ID] {
			s.logger.Warn("skipping duplicate conversation id", "id", conv.ID)
			continue
		}
		seen[conv.ID] = true
		if conv.Messages == nil {
			conv.Messages = model.MessageList{}
		}
		if conv.Tags == nil {
			conv.Tags = []string{}
		}
		convs = append(convs, conv)
	}

	SortByRecent(convs)
	return convs
}

// decodeRecords accepts the versioned envelope or a bare legacy array.
func decodeRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty blob")
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var b blob
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return nil, err
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("unsupported layout version %d", b.Version)
	}
	return b.Conversations, nil
}

// Save implements Repository.
func (s *Store) Save(convs []model.Conversation) error {
	records := make([]json.RawMessage, 0, len(convs))
	for _, conv := range convs {
		raw, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("encode conversation %s: %w", conv.ID, err)
		}
		records = append(records, raw)
	}

	data, err := json.Marshal(blob{Version: blobVersion, Conversations: records})
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}

	if err := s.backend.Write(s.key, data); err != nil {
		return fmt.Errorf("write conversations: %w", err)
	}
	return nil
}

// Close implements Repository.
func (s *Store) Close() error {
	return s.backend.Close()
}

// SortByRecent orders conversations by UpdatedAt descending, ties by ID.
func SortByRecent(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		a, b := convs[i], convs[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}
