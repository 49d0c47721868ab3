// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/echo-history/internal/util"
)

const (
	// DefaultTitle is used until the first user message provides one.
	DefaultTitle = "New Chat"

	// SummaryLength is the rune limit of the first-user-message summary.
	SummaryLength = 100

	// autoTitleLength is the rune limit of titles derived from a message.
	autoTitleLength = 50
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a titled, ordered sequence of messages with metadata.
// ID, Model, Personality and CreatedAt are fixed at creation.
type Conversation struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Messages     MessageList `json:"messages"`
	Model        string      `json:"model"`
	Personality  Personality `json:"personality"`
	Tags         []string    `json:"tags"`
	IsBookmarked bool        `json:"isBookmarked"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// NewConversation creates a conversation with a fresh UUID. An empty title
// becomes DefaultTitle.
func NewConversation(settings Settings, title string, now time.Time) *Conversation {
	settings = settings.WithDefaults()
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	return &Conversation{
		ID:          uuid.NewString(),
		Title:       title,
		Messages:    MessageList{},
		Model:       settings.Model,
		Personality: settings.Personality,
		Tags:        []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Settings returns the settings the conversation was created with.
func (c *Conversation) Settings() Settings {
	return Settings{Model: c.Model, Personality: c.Personality}
}

// Clone returns a deep copy. Messages are immutable values, so copying the
// slice is enough.
func (c *Conversation) Clone() Conversation {
	out := *c
	out.Messages = append(MessageList{}, c.Messages...)
	out.Tags = append([]string{}, c.Tags...)
	return out
}

// Touch advances UpdatedAt to now. UpdatedAt is strictly increasing: a
// mutation within the same clock tick still moves it forward.
func (c *Conversation) Touch(now time.Time) {
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Nanosecond)
	}
	c.UpdatedAt = now
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message at the end. The first user message replaces a
// default title with one derived from its content.
func (c *Conversation) Append(msg Message, now time.Time) {
	if msg.Role() == RoleUser && c.Title == DefaultTitle && c.firstUserMessage() == nil {
		if title := util.TruncateRunes(util.SingleLine(msg.Content()), autoTitleLength); title != "" {
			c.Title = title
		}
	}
	c.Messages = append(c.Messages, msg)
	c.Touch(now)
}

// ClearMessages truncates the message list.
func (c *Conversation) ClearMessages(now time.Time) {
	c.Messages = MessageList{}
	c.Touch(now)
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

func (c *Conversation) firstUserMessage() Message {
	for _, m := range c.Messages {
		if m.Role() == RoleUser {
			return m
		}
	}
	return nil
}

// Summary is the first user message on one line, truncated to SummaryLength
// runes. It is empty when the user has not written anything yet.
func (c *Conversation) Summary() string {
	m := c.firstUserMessage()
	if m == nil {
		return ""
	}
	return util.TruncateRunes(util.SingleLine(m.Content()), SummaryLength)
}

// SearchText is the first user message on one line, cut to its first
// SummaryLength runes with no truncation marker.
func (c *Conversation) SearchText() string {
	m := c.firstUserMessage()
	if m == nil {
		return ""
	}
	r := []rune(util.SingleLine(m.Content()))
	return string(r[:min(len(r), SummaryLength)])
}

// =============================================================================
// TAGS
// =============================================================================

func normalizeTag(tag string) string {
	return strings.TrimSpace(tag)
}

// HasTag reports whether the tag is present (case-insensitive).
func (c *Conversation) HasTag(tag string) bool {
	return c.tagIndex(normalizeTag(tag)) >= 0
}

func (c *Conversation) tagIndex(tag string) int {
	for i, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return i
		}
	}
	return -1
}

// AddTag inserts a tag. Blank and duplicate tags are ignored; the return
// value reports whether the set changed.
func (c *Conversation) AddTag(tag string, now time.Time) bool {
	tag = normalizeTag(tag)
	if tag == "" || c.tagIndex(tag) >= 0 {
		return false
	}
	c.Tags = append(c.Tags, tag)
	c.Touch(now)
	return true
}

// RemoveTag deletes a tag; it reports whether the set changed.
func (c *Conversation) RemoveTag(tag string, now time.Time) bool {
	i := c.tagIndex(normalizeTag(tag))
	if i < 0 {
		return false
	}
	c.Tags = append(c.Tags[:i:i], c.Tags[i+1:]...)
	c.Touch(now)
	return true
}

// Rename sets the title; a blank title resets to DefaultTitle.
func (c *Conversation) Rename(title string, now time.Time) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	c.Title = title
	c.Touch(now)
}

// ToggleBookmark flips the bookmark flag and returns the new value.
func (c *Conversation) ToggleBookmark(now time.Time) bool {
	c.IsBookmarked = !c.IsBookmarked
	c.Touch(now)
	return c.IsBookmarked
}
