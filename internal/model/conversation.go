// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/unirag-tui/internal/util"
)

// DefaultTitle is the placeholder title of a conversation nobody has spoken in.
const DefaultTitle = "แชทใหม่"

// MaxTitleLength is the title length in grapheme clusters.
const MaxTitleLength = 40

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a titled, ordered thread of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// NewConversation creates a conversation seeded with a single welcome message.
func NewConversation(id string, welcome Message, now time.Time) *Conversation {
	return &Conversation{
		ID:        id,
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{welcome},
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds msg to the end of the thread and refreshes UpdatedAt. UpdatedAt
// never moves backwards even if the wall clock does. The first user message of
// a conversation still carrying DefaultTitle becomes its title.
func (c *Conversation) Append(msg Message, now time.Time) {
	c.Messages = append(c.Messages, msg.clone())
	if now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
	if msg.IsUser() && c.Title == DefaultTitle {
		if title := DeriveTitle(msg.Text); title != "" {
			c.Title = title
		}
	}
}

// DeriveTitle turns a user question into a conversation title.
func DeriveTitle(text string) string {
	return util.TruncateGraphemes(util.SingleLine(text), MaxTitleLength)
}

// HasUserMessage reports whether anyone besides the bot has spoken.
func (c *Conversation) HasUserMessage() bool {
	for _, m := range c.Messages {
		if m.IsUser() {
			return true
		}
	}
	return false
}

// LastUserMessage returns the most recent user message, if any.
func (c *Conversation) LastUserMessage() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsUser() {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// MessageByID returns the message with the given id.
func (c *Conversation) MessageByID(id string) (Message, int, bool) {
	for i, m := range c.Messages {
		if m.ID == id {
			return m, i, true
		}
	}
	return Message{}, -1, false
}

// QuestionFor returns the user message that precedes the message at index i,
// which is the question a bot answer responds to.
func (c *Conversation) QuestionFor(i int) (Message, bool) {
	if i <= 0 || i > len(c.Messages) {
		return Message{}, false
	}
	for j := i - 1; j >= 0; j-- {
		if c.Messages[j].IsUser() {
			return c.Messages[j], true
		}
	}
	return Message{}, false
}

// Snippet is the one-line preview shown in history lists.
func (c *Conversation) Snippet() string {
	if m, ok := c.LastUserMessage(); ok {
		return util.SingleLine(m.Text)
	}
	return ""
}

// DisplayTitle returns the title, falling back to DefaultTitle.
func (c *Conversation) DisplayTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.clone()
	}
	return &out
}
