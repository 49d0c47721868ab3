// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation collection.
//
// The whole collection is stored as one JSON blob under a fixed key, not as
// one entry per conversation. A Backend only moves opaque bytes; the Store on
// top of it owns encoding and recovery.
//
// # Key Types
//
//   - Repository: load() -> collection, save(collection) -> error
//   - Store: the Repository implementation over a Backend
//   - Backend: blob persistence (FileBackend, BoltBackend, SQLiteBackend, MemoryBackend)
//
// # Usage
//
//	backend, err := storage.Open(storage.Config{Backend: "file", Dir: dataDir})
//	store := storage.NewStore(backend, storage.DefaultKey, logger)
//	convs := store.Load() // never fails; corrupt data loads as empty
//	err = store.Save(convs)
//
// # Consistency
//
// Writes replace the blob atomically. Several processes sharing one store
// are not coordinated: the last write wins and no change notification is
// sent to other readers.
package storage
