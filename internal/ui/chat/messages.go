// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types and the commands that
// produce them.
package chat

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/unirag-tui/internal/chat"
	"github.com/jeranaias/unirag-tui/internal/conversation"
)

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// SendResultMsg carries the outcome of a question.
type SendResultMsg struct {
	Result chat.Result
}

// RevealTickMsg advances the typing reveal of MessageID.
type RevealTickMsg struct {
	MessageID string
}

// StoreChangedMsg reports that the conversation store was mutated.
type StoreChangedMsg struct{}

// FeedbackSentMsg reports the local outcome of a rating.
type FeedbackSentMsg struct {
	MessageID string
	Helpful   bool
	Err       error
}

// CopyResultMsg reports a clipboard write.
type CopyResultMsg struct {
	Err error
}

// StatusClearMsg clears the status line if it still shows Seq.
type StatusClearMsg struct {
	Seq int
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd asks the question off the update loop.
func sendCmd(ctx context.Context, c *chat.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return SendResultMsg{Result: c.Send(ctx, text)}
	}
}

// revealTickCmd schedules the next reveal frame.
func revealTickCmd(messageID string, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return RevealTickMsg{MessageID: messageID}
	})
}

// feedbackCmd submits a rating. The request itself runs in the background.
func feedbackCmd(ctx context.Context, c *chat.Controller, messageID string, helpful bool, comment string) tea.Cmd {
	return func() tea.Msg {
		err := c.SubmitFeedback(ctx, messageID, helpful, comment)
		return FeedbackSentMsg{MessageID: messageID, Helpful: helpful, Err: err}
	}
}

// copyCmd writes text to the clipboard.
func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return CopyResultMsg{Err: write(text)}
	}
}

// statusClearCmd clears a transient status after a delay.
func statusClearCmd(seq int) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return StatusClearMsg{Seq: seq}
	})
}

// =============================================================================
// STORE WATCHER
// =============================================================================

// storeWatcher turns store notifications into StoreChangedMsg. Update mutates
// the store on the event loop, so the subscriber must never block: it only
// marks a pending change, and bursts collapse into one message.
type storeWatcher struct {
	changes     chan struct{}
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func newStoreWatcher(store *conversation.Store) *storeWatcher {
	w := &storeWatcher{
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.unsubscribe = store.Subscribe(w.notify)
	return w
}

func (w *storeWatcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// wait blocks until the next change. It returns nil once the watcher is
// closed.
func (w *storeWatcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.changes:
			return StoreChangedMsg{}
		case <-w.done:
			return nil
		}
	}
}

func (w *storeWatcher) close() {
	w.once.Do(func() {
		w.unsubscribe()
		close(w.done)
	})
}
