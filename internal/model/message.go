// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/unirag-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn in a conversation. The JSON shape is the browser
// client's storage format, so state exported from it loads unchanged.
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	NextTopics []string  `json:"nextTopics,omitempty"`
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(text string, now time.Time) Message {
	return Message{
		ID:        util.NewID("user"),
		Role:      RoleUser,
		Text:      text,
		CreatedAt: now,
	}
}

// NewBotMessage creates a bot-authored message with optional follow-up topics.
func NewBotMessage(text string, nextTopics []string, now time.Time) Message {
	msg := Message{
		ID:        util.NewID("bot"),
		Role:      RoleBot,
		Text:      text,
		CreatedAt: now,
	}
	if len(nextTopics) > 0 {
		msg.NextTopics = append([]string(nil), nextTopics...)
	}
	return msg
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsBot reports whether the message was written by the assistant.
func (m Message) IsBot() bool {
	return m.Role == RoleBot
}

// clone returns a copy that shares no slices with m.
func (m Message) clone() Message {
	if m.NextTopics != nil {
		m.NextTopics = append([]string(nil), m.NextTopics...)
	}
	return m
}
