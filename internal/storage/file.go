// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/echo-history/internal/util"
)

// FileBackend stores each key as <Dir>/<key>.json.
type FileBackend struct {
	Dir string
}

// NewFileBackend creates a file backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("file backend requires a data directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileBackend{Dir: dir}, nil
}

// Path returns the file holding key.
func (b *FileBackend) Path(key string) string {
	return filepath.Join(b.Dir, key+".json")
}

// Read implements Backend.
func (b *FileBackend) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

// Write implements Backend.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func (b *FileBackend) Write(key string, data []byte) error {
	return util.AtomicWriteFile(b.Path(key), data, 0600)
}

// Name implements Backend.
func (b *FileBackend) Name() string { return BackendFile }

// Close implements Backend.
func (b *FileBackend) Close() error { return nil }
