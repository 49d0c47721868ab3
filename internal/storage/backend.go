// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultKey is the fixed storage key of the conversation collection.
const DefaultKey = "echo.conversations.v1"

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend persists opaque blobs by key.
type Backend interface {
	// Read returns the blob stored under key, or ErrNotExist.
	Read(key string) ([]byte, error)

	// Write replaces the blob stored under key. Readers must observe either
	// the old or the new blob, never a mix.
	Write(key string, data []byte) error

	// Name identifies the backend in logs.
	Name() string

	// Close releases resources held by the backend.
	Close() error
}

// =============================================================================
// BACKEND SELECTION
// =============================================================================

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists every backend name accepted by Open.
var Backends = []string{BackendFile, BackendBolt, BackendSQLite, BackendMemory}

// Config selects and locates a backend.
type Config struct {
	// Backend is one of Backends. Default: "file".
	Backend string

	// Dir is the data directory. Ignored by the memory backend.
	Dir string
}

// Open creates the backend described by cfg.
func Open(cfg Config) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = BackendFile
	}

	switch name {
	case BackendFile:
		return NewFileBackend(cfg.Dir)
	case BackendBolt:
		return OpenBolt(filepath.Join(cfg.Dir, "echo.bolt"))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(cfg.Dir, "echo.db"))
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of: %s)", cfg.Backend, strings.Join(Backends, ", "))
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotExist is returned by Backend.Read when nothing is stored under a key.
// Use errors.Is(err, ErrNotExist) to check for this error.
var ErrNotExist = &StorageError{Message: "stored value not found"}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
