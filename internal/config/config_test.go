// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/storage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, storage.DefaultKey, cfg.Storage.Key)
	assert.Equal(t, model.DefaultSettings(), cfg.Settings())
	assert.True(t, cfg.Export.IncludeMetadata)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 2*time.Minute, cfg.ChatTimeout())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Chat, cfg.Chat)
}

func TestLoad_File(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
[storage]
backend = "bolt"
data_dir = "`+filepath.ToSlash(dataDir)+`"

[chat]
model = "mistral"
personality = "Creative"

[export]
include_metadata = false
default_format = "txt"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, storage.BackendBolt, cfg.Storage.Backend)
	assert.Equal(t, filepath.ToSlash(dataDir), cfg.Storage.DataDir)
	assert.Equal(t, model.Settings{Model: "mistral", Personality: model.PersonalityCreative}, cfg.Settings())
	assert.False(t, cfg.Export.IncludeMetadata)
	// Unset sections keep defaults.
	assert.Equal(t, Default().Chat.URL, cfg.Chat.URL)
	assert.Equal(t, storage.Config{Backend: "bolt", Dir: filepath.ToSlash(dataDir)}, cfg.StorageOptions())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[chat]
model = "mistral"
`)
	t.Setenv("ECHO_MODEL", "phi3")
	t.Setenv("ECHO_STORAGE_BACKEND", "SQLite")
	t.Setenv("ECHO_EXPORT_METADATA", "false")
	t.Setenv("ECHO_SESSION_TIMEOUT_MINUTES", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "phi3", cfg.Chat.Model)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.False(t, cfg.Export.IncludeMetadata)
	assert.Zero(t, cfg.SessionTimeout())
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("ECHO_CHAT_BURST", "many")
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, `
[chat]
modle = "typo"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.modle")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, `[chat`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "redis"
	cfg.Chat.URL = "ftp://x"
	cfg.Chat.Personality = "grumpy"
	cfg.Export.DefaultFormat = "pdf"
	cfg.Log.Level = "loud"
	cfg.Session.TimeoutMinutes = -1

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"storage.backend",
		"chat.url",
		"chat.personality",
		"export.default_format",
		"log.level",
		"session.timeout_minutes",
	}, fields)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Chat.Model = "gemma"
	cfg.Storage.DataDir = t.TempDir()

	require.NoError(t, Save(cfg, path))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("chat.model", "qwen"))
	require.NoError(t, cfg.Set("chat.burst", "7"))
	require.NoError(t, cfg.Set("chat.rate_limit", "0.5"))
	require.NoError(t, cfg.Set("export.include_metadata", "no"))

	v, err := cfg.Get("chat.model")
	require.NoError(t, err)
	assert.Equal(t, "qwen", v)
	assert.Equal(t, 7, cfg.Chat.Burst)
	assert.Equal(t, 0.5, cfg.Chat.RateLimit)
	assert.False(t, cfg.Export.IncludeMetadata)

	assert.Error(t, cfg.Set("chat.burst", "x"))
	assert.Error(t, cfg.Set("export.include_metadata", "maybe"))
	assert.Error(t, cfg.Set("nope.model", "x"))
	assert.Error(t, cfg.Set("chat.nope", "x"))
	_, err = cfg.Get("chat")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "storage.backend")
	assert.Contains(t, keys, "chat.personality")
	assert.Contains(t, keys, "log.file")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs"), expandHome("~/logs"))
	assert.Equal(t, "/abs", expandHome("/abs"))
}
