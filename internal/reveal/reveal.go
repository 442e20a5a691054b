// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal animates a finished answer word by word.
//
// A Reveal is pure state. The caller's event loop calls Advance on each tick.
package reveal

import (
	"strings"
	"sync"
	"time"
)

// DefaultInterval is the delay between words.
const DefaultInterval = 50 * time.Millisecond

// Reveal tracks how much of a message is visible.
type Reveal struct {
	mu        sync.Mutex
	messageID string
	words     []string
	shown     int
	cancelled bool
}

// New starts a reveal of text for messageID. Words are separated by single
// spaces; runs of spaces and newlines inside words are preserved.
func New(messageID, text string) *Reveal {
	return &Reveal{
		messageID: messageID,
		words:     strings.Split(text, " "),
	}
}

// MessageID returns the message being revealed.
func (r *Reveal) MessageID() string {
	return r.messageID
}

// Advance shows one more word and reports whether anything changed.
func (r *Reveal) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.shown >= len(r.words) {
		return false
	}
	r.shown++
	return true
}

// Text returns the visible prefix.
func (r *Reveal) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.words[:r.shown], " ")
}

// Done reports whether the whole text is visible or the reveal was cancelled.
func (r *Reveal) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled || r.shown >= len(r.words)
}

// Cancel stops the reveal where it is.
func (r *Reveal) Cancel() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()
}

// Finish makes the whole text visible at once.
func (r *Reveal) Finish() {
	r.mu.Lock()
	if !r.cancelled {
		r.shown = len(r.words)
	}
	r.mu.Unlock()
}
