// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/storage"
	"github.com/jeranaias/echo-history/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete echo-history configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Chat    ChatConfig    `toml:"chat"`
	Export  ExportConfig  `toml:"export"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects where conversations are persisted.
type StorageConfig struct {
	// Backend is one of: file, bolt, sqlite, memory
	Backend string `toml:"backend" env:"ECHO_STORAGE_BACKEND"`

	// DataDir holds the backend's files (default: ~/.echo/data)
	DataDir string `toml:"data_dir" env:"ECHO_DATA_DIR"`

	// Key is the storage key of the conversation blob
	Key string `toml:"key" env:"ECHO_STORAGE_KEY"`
}

// ChatConfig configures the completion backend and the settings new
// conversations start with.
type ChatConfig struct {
	URL         string  `toml:"url" env:"ECHO_CHAT_URL"`
	Model       string  `toml:"model" env:"ECHO_MODEL"`
	Personality string  `toml:"personality" env:"ECHO_PERSONALITY"`
	TimeoutSecs int     `toml:"timeout_secs" env:"ECHO_CHAT_TIMEOUT_SECS"`
	RateLimit   float64 `toml:"rate_limit" env:"ECHO_CHAT_RATE_LIMIT"`
	Burst       int     `toml:"burst" env:"ECHO_CHAT_BURST"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Dir             string `toml:"dir" env:"ECHO_EXPORT_DIR"`
	IncludeMetadata bool   `toml:"include_metadata" env:"ECHO_EXPORT_METADATA"`
	DefaultFormat   string `toml:"default_format" env:"ECHO_EXPORT_FORMAT"`
}

// SessionConfig controls the session lifecycle of the TUI.
type SessionConfig struct {
	// TimeoutMinutes ends an idle session; 0 disables the timeout
	TimeoutMinutes int `toml:"timeout_minutes" env:"ECHO_SESSION_TIMEOUT_MINUTES"`

	// AutoSaveSecs is how often unsaved changes are retried
	AutoSaveSecs int `toml:"autosave_secs" env:"ECHO_AUTOSAVE_SECS"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of: debug, info, warn, error
	Level string `toml:"level" env:"ECHO_LOG_LEVEL"`

	// File additionally receives JSON logs when set
	File string `toml:"file" env:"ECHO_LOG_FILE"`
}

// Default returns the default configuration.
func Default() *Config {
	dataDir := filepath.Join(".echo", "data")
	if dir, err := ConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "data")
	}

	return &Config{
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			DataDir: dataDir,
			Key:     storage.DefaultKey,
		},
		Chat: ChatConfig{
			URL:         "http://127.0.0.1:11434",
			Model:       model.DefaultModel,
			Personality: string(model.PersonalityFriendly),
			TimeoutSecs: 120,
			RateLimit:   1,
			Burst:       3,
		},
		Export: ExportConfig{
			Dir:             ".",
			IncludeMetadata: true,
			DefaultFormat:   string(export.FormatMarkdown),
		},
		Session: SessionConfig{
			TimeoutMinutes: 30,
			AutoSaveSecs:   30,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the echo configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".echo"), nil
}

// ConfigPath returns the path to the TOML config file. ECHO_CONFIG
// overrides the default location.
func ConfigPath() (string, error) {
	if p := os.Getenv("ECHO_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path (the default location when empty),
// applies environment overrides, fills defaults and validates. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Not fatal; permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides overrides fields from ECHO_* environment variables.
// Unset variables leave the current value alone.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// SetDefaults fills empty fields with defaults and normalizes values.
func (c *Config) SetDefaults() {
	d := Default()

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = d.Storage.DataDir
	}
	c.Storage.DataDir = expandHome(c.Storage.DataDir)
	if c.Storage.Key == "" {
		c.Storage.Key = d.Storage.Key
	}

	if c.Chat.URL == "" {
		c.Chat.URL = d.Chat.URL
	}
	if c.Chat.Model == "" {
		c.Chat.Model = d.Chat.Model
	}
	c.Chat.Personality = strings.ToLower(strings.TrimSpace(c.Chat.Personality))
	if c.Chat.Personality == "" {
		c.Chat.Personality = d.Chat.Personality
	}
	if c.Chat.TimeoutSecs == 0 {
		c.Chat.TimeoutSecs = d.Chat.TimeoutSecs
	}
	if c.Chat.RateLimit == 0 {
		c.Chat.RateLimit = d.Chat.RateLimit
	}
	if c.Chat.Burst == 0 {
		c.Chat.Burst = d.Chat.Burst
	}

	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
	c.Export.Dir = expandHome(c.Export.Dir)
	if c.Export.DefaultFormat == "" {
		c.Export.DefaultFormat = d.Export.DefaultFormat
	}

	if c.Session.AutoSaveSecs == 0 {
		c.Session.AutoSaveSecs = d.Session.AutoSaveSecs
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	c.Log.File = expandHome(c.Log.File)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to path (the default location when empty).
// SECURITY: Config files are written 0600 (owner read/write only).
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# echo-history configuration file\n")
	buf.WriteString("# Environment variables (ECHO_*) override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	validBackend := false
	for _, b := range storage.Backends {
		if c.Storage.Backend == b {
			validBackend = true
		}
	}
	if !validBackend {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: %s", c.Storage.Backend, strings.Join(storage.Backends, ", ")),
		})
	}
	if c.Storage.Backend != storage.BackendMemory && strings.TrimSpace(c.Storage.DataDir) == "" {
		errs = append(errs, ValidationError{Field: "storage.data_dir", Message: "must not be empty"})
	}
	if strings.ContainsAny(c.Storage.Key, `/\`) {
		errs = append(errs, ValidationError{Field: "storage.key", Message: "must not contain path separators"})
	}

	if u, err := url.Parse(c.Chat.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "chat.url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Chat.URL),
		})
	}
	if strings.TrimSpace(c.Chat.Model) == "" {
		errs = append(errs, ValidationError{Field: "chat.model", Message: "must not be empty"})
	}
	if _, err := model.ParsePersonality(c.Chat.Personality); err != nil {
		errs = append(errs, ValidationError{Field: "chat.personality", Message: err.Error()})
	}
	if c.Chat.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "chat.timeout_secs", Message: "must not be negative"})
	}
	if c.Chat.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "chat.rate_limit", Message: "must not be negative"})
	}
	if c.Chat.Burst < 0 {
		errs = append(errs, ValidationError{Field: "chat.burst", Message: "must not be negative"})
	}

	if _, err := export.ParseFormat(c.Export.DefaultFormat); err != nil {
		errs = append(errs, ValidationError{Field: "export.default_format", Message: err.Error()})
	}

	if c.Session.TimeoutMinutes < 0 {
		errs = append(errs, ValidationError{Field: "session.timeout_minutes", Message: "must not be negative"})
	}
	if c.Session.AutoSaveSecs < 0 {
		errs = append(errs, ValidationError{Field: "session.autosave_secs", Message: "must not be negative"})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Settings returns the settings new conversations start with.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Model:       c.Chat.Model,
		Personality: model.Personality(c.Chat.Personality),
	}.WithDefaults()
}

// StorageOptions returns the backend selection for storage.Open.
func (c *Config) StorageOptions() storage.Config {
	return storage.Config{Backend: c.Storage.Backend, Dir: c.Storage.DataDir}
}

// ChatTimeout returns the completion timeout.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.Chat.TimeoutSecs) * time.Second
}

// SessionTimeout returns the idle timeout; zero disables it.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

// AutoSaveInterval returns the autosave interval.
func (c *Config) AutoSaveInterval() time.Duration {
	return time.Duration(c.Session.AutoSaveSecs) * time.Second
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its TOML key path (e.g., "chat.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value by its TOML key path. String values are
// converted to the field's type. The result is not validated.
func (c *Config) Set(key string, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	return setFieldValue(field, value)
}

// lookup resolves "section.key" against the toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return reflect.Value{}, fmt.Errorf("invalid key %q, want section.name", key)
	}

	section, ok := fieldByTag(reflect.ValueOf(c).Elem(), parts[0])
	if !ok || section.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("unknown section: %s", parts[0])
	}
	field, ok := fieldByTag(section, parts[1])
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown field: %s", key)
	}
	return field, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Tag.Get("toml"), name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string with type conversion.
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %v", err)
		}
		field.SetInt(intVal)
	case reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %v", err)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			lower := strings.ToLower(value)
			boolVal = lower == "yes" || lower == "on"
			if !boolVal && lower != "no" && lower != "off" {
				return fmt.Errorf("invalid boolean value: %q", value)
			}
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("cannot set field of type %s", field.Type())
	}
	return nil
}

// Keys returns every configuration key in dot notation.
func Keys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("error encoding config: %v", err)
	}
	return buf.String()
}
