// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns the label used in exports and the sidebar.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "AI Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE VARIANT
// =============================================================================

// MessageKind discriminates the Message variants.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

// ErrInvalidMessage is returned when a message cannot be constructed or
// decoded into a valid variant.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a single turn in a conversation. It is implemented only by
// TextMessage and ImageMessage.
type Message interface {
	Role() Role
	Content() string
	Kind() MessageKind

	wire() wireMessage
}

// TextMessage is a plain text turn.
type TextMessage struct {
	role    Role
	content string
}

// NewTextMessage creates a text message, validating the role.
func NewTextMessage(role Role, content string) (TextMessage, error) {
	if !role.Valid() {
		return TextMessage{}, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, role)
	}
	return TextMessage{role: role, content: content}, nil
}

// UserText creates a text message authored by the user.
func UserText(content string) TextMessage {
	return TextMessage{role: RoleUser, content: content}
}

// AssistantText creates a text message authored by the assistant.
func AssistantText(content string) TextMessage {
	return TextMessage{role: RoleAssistant, content: content}
}

func (m TextMessage) Role() Role        { return m.role }
func (m TextMessage) Content() string   { return m.content }
func (m TextMessage) Kind() MessageKind { return KindText }

func (m TextMessage) wire() wireMessage {
	return wireMessage{Role: m.role, Content: m.content}
}

// MarshalJSON encodes the message in its persisted form.
func (m TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.wire())
}

// ImageMessage is a turn carrying a generated or attached image. The image
// URL is mandatory; the prompt is optional.
type ImageMessage struct {
	role     Role
	content  string
	imageURL string
	prompt   string
}

// NewImageMessage creates an image message. An empty URL is rejected, which
// makes a prompt without an image unrepresentable.
func NewImageMessage(role Role, content, imageURL, prompt string) (ImageMessage, error) {
	if !role.Valid() {
		return ImageMessage{}, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, role)
	}
	if strings.TrimSpace(imageURL) == "" {
		return ImageMessage{}, fmt.Errorf("%w: image message requires an image URL", ErrInvalidMessage)
	}
	return ImageMessage{role: role, content: content, imageURL: imageURL, prompt: prompt}, nil
}

func (m ImageMessage) Role() Role          { return m.role }
func (m ImageMessage) Content() string     { return m.content }
func (m ImageMessage) Kind() MessageKind   { return KindImage }
func (m ImageMessage) ImageURL() string    { return m.imageURL }
func (m ImageMessage) ImagePrompt() string { return m.prompt }

func (m ImageMessage) wire() wireMessage {
	return wireMessage{
		Role:        m.role,
		Content:     m.content,
		Type:        string(KindImage),
		ImageURL:    m.imageURL,
		ImagePrompt: m.prompt,
	}
}

// MarshalJSON encodes the message in its persisted form.
func (m ImageMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.wire())
}

// =============================================================================
// WIRE FORM
// =============================================================================

// wireMessage is the persisted shape shared by all variants.
type wireMessage struct {
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ImagePrompt string `json:"image_prompt,omitempty"`
}

func (w wireMessage) decode() (Message, error) {
	isImage := w.Type == string(KindImage) || w.ImageURL != "" || w.ImagePrompt != ""
	if isImage {
		return NewImageMessage(w.Role, w.Content, w.ImageURL, w.ImagePrompt)
	}
	if w.Type != "" && w.Type != string(KindText) {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidMessage, w.Type)
	}
	return NewTextMessage(w.Role, w.Content)
}

// MessageList is an ordered sequence of messages that knows how to encode
// and decode its variants.
type MessageList []Message

// MarshalJSON encodes the list; a nil list encodes as [].
func (l MessageList) MarshalJSON() ([]byte, error) {
	out := make([]wireMessage, 0, len(l))
	for _, m := range l {
		out = append(out, m.wire())
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes each element into its variant.
func (l *MessageList) UnmarshalJSON(data []byte) error {
	var raw []wireMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list := make(MessageList, 0, len(raw))
	for i, w := range raw {
		m, err := w.decode()
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		list = append(list, m)
	}
	*l = list
	return nil
}
