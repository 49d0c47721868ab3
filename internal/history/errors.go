// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import "errors"

var (
	// ErrNotFound is returned by operations that require an existing
	// conversation. Use errors.Is(err, ErrNotFound).
	ErrNotFound = errors.New("conversation not found")

	// ErrAmbiguousID is returned by ResolveID when a prefix matches more
	// than one conversation.
	ErrAmbiguousID = errors.New("ambiguous conversation id")

	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("history manager is closed")
)

// PersistError reports that a mutation was applied in memory but could not
// be saved. The state stays dirty until a later save succeeds.
type PersistError struct {
	Err error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return "conversation changes not saved: " + e.Err.Error()
}

// Unwrap returns the underlying storage error.
func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistError reports whether err is (or wraps) a *PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
