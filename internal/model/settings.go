// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "llama3.2"

// =============================================================================
// PERSONALITY
// =============================================================================

// Personality selects the assistant persona a conversation was started with.
type Personality string

const (
	PersonalityFriendly     Personality = "friendly"
	PersonalityProfessional Personality = "professional"
	PersonalityCreative     Personality = "creative"
	PersonalityConcise      Personality = "concise"
)

// Personalities lists every supported personality in display order.
var Personalities = []Personality{
	PersonalityFriendly,
	PersonalityProfessional,
	PersonalityCreative,
	PersonalityConcise,
}

// Valid reports whether p is a known personality.
func (p Personality) Valid() bool {
	for _, known := range Personalities {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePersonality parses a personality name case-insensitively.
func ParsePersonality(s string) (Personality, error) {
	p := Personality(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown personality %q (want one of: friendly, professional, creative, concise)", s)
	}
	return p, nil
}

// SystemPrompt returns the system instruction sent with chat requests.
func (p Personality) SystemPrompt() string {
	switch p {
	case PersonalityProfessional:
		return "You are Echo, a precise and professional assistant. Answer clearly and formally."
	case PersonalityCreative:
		return "You are Echo, an imaginative assistant. Offer original ideas and vivid language."
	case PersonalityConcise:
		return "You are Echo. Answer in as few words as possible while staying correct."
	default:
		return "You are Echo, a friendly and helpful assistant."
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings are the generation settings active when a conversation starts.
// They are copied into the conversation and never change afterwards; new
// settings start a new conversation.
type Settings struct {
	// Model is the chat model identifier. Default: DefaultModel.
	Model string `toml:"model" json:"model"`

	// Personality is the assistant persona. Default: PersonalityFriendly.
	Personality Personality `toml:"personality" json:"personality"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Model:       DefaultModel,
		Personality: PersonalityFriendly,
	}
}

// WithDefaults fills zero fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if strings.TrimSpace(s.Model) == "" {
		s.Model = d.Model
	}
	if s.Personality == "" {
		s.Personality = d.Personality
	}
	return s
}

// Validate checks that every field holds a supported value.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	if !s.Personality.Valid() {
		return fmt.Errorf("unknown personality %q", s.Personality)
	}
	return nil
}
