// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/conversation"
	"github.com/jeranaias/unirag-tui/internal/logging"
	"github.com/jeranaias/unirag-tui/internal/model"
)

// ErrorPrefix starts every bot message that reports a failed request.
const ErrorPrefix = "❌ เกิดข้อผิดพลาด: "

// DefaultUserID identifies this client to the chat endpoint.
const DefaultUserID = "web"

// feedbackTimeout bounds a background feedback submission.
const feedbackTimeout = 30 * time.Second

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrFeedbackAlreadySent is returned when a message was already rated.
	ErrFeedbackAlreadySent = errors.New("feedback already sent for this message")

	// ErrMessageNotFound is returned when no conversation holds the message.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotBotMessage is returned when rating a user message.
	ErrNotBotMessage = errors.New("only answers can be rated")
)

// =============================================================================
// TYPES
// =============================================================================

// Backend is the subset of the API the chat session needs.
type Backend interface {
	Chat(ctx context.Context, question, userID string) (*model.ChatResponse, error)
	SubmitFeedback(ctx context.Context, fb model.FeedbackInput) error
}

// State is the outcome of a Send.
type State int

const (
	// StateSkipped means nothing happened: blank input or a send in flight.
	StateSkipped State = iota
	// StateSucceeded means the answer was appended.
	StateSucceeded
	// StateFailed means an error message was appended.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSkipped:
		return "skipped"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what a Send did.
type Result struct {
	State          State
	ConversationID string

	// UserMessage and BotMessage are nil when skipped. BotMessage is also
	// nil when the conversation was deleted before the reply arrived.
	UserMessage *model.Message
	BotMessage  *model.Message

	// Err is the request failure behind StateFailed.
	Err error
}

// Options configures a Controller.
type Options struct {
	// UserID is sent with every question. Default: "web".
	UserID string
}

// Controller runs chat sends against a conversation store.
type Controller struct {
	store   *conversation.Store
	backend Backend
	userID  string
	logger  zerolog.Logger

	sending atomic.Bool

	mu           sync.Mutex
	draft        string
	feedbackSent map[string]bool
	pending      sync.WaitGroup
}

// NewController creates a chat controller. The store must be initialized.
func NewController(store *conversation.Store, backend Backend, opts Options) *Controller {
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		userID = DefaultUserID
	}
	return &Controller{
		store:        store,
		backend:      backend,
		userID:       userID,
		logger:       logging.Component("chat"),
		feedbackSent: make(map[string]bool),
	}
}

// Store returns the underlying conversation store.
func (c *Controller) Store() *conversation.Store {
	return c.store
}

// Busy reports whether a send is in flight.
func (c *Controller) Busy() bool {
	return c.sending.Load()
}

// =============================================================================
// SEND
// =============================================================================

// Send asks text in the active conversation, creating one if needed. Blank
// text or a send already in flight yields StateSkipped with no side effects.
func (c *Controller) Send(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{State: StateSkipped}
	}
	if !c.sending.CompareAndSwap(false, true) {
		c.logger.Debug().Msg("Send skipped: request in flight")
		return Result{State: StateSkipped}
	}
	defer c.sending.Store(false)

	convID := c.store.EnsureActive()
	userMsg := model.NewUserMessage(text, time.Now().UTC().Round(0))
	if err := c.store.AppendMessage(convID, userMsg); err != nil {
		c.logger.Warn().Err(err).Str("conversation", convID).Msg("Cannot append question")
		return Result{State: StateSkipped}
	}
	c.SetDraft("")

	res := Result{ConversationID: convID, UserMessage: &userMsg}

	var botMsg model.Message
	resp, err := c.backend.Chat(ctx, text, c.userID)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("conversation", convID).Msg("Chat request failed")
		res.State = StateFailed
		res.Err = err
		botMsg = model.NewBotMessage(ErrorPrefix+api.Message(err), nil, time.Now().UTC().Round(0))
	} else {
		res.State = StateSucceeded
		botMsg = model.NewBotMessage(resp.Answer, resp.NextTopics, time.Now().UTC().Round(0))
	}

	if err := c.store.AppendMessage(convID, botMsg); err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			c.logger.Debug().Str("conversation", convID).Msg("Conversation deleted before reply; dropping it")
		}
		return res
	}
	res.BotMessage = &botMsg
	return res
}

// =============================================================================
// DRAFT & NAVIGATION
// =============================================================================

// Draft returns the pending input text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the pending input text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// UseSuggestion copies a preset prompt into the draft.
func (c *Controller) UseSuggestion(s Suggestion) {
	c.SetDraft(s.Prompt)
}

// NewConversation starts a fresh conversation and clears the draft.
func (c *Controller) NewConversation() *model.Conversation {
	conv := c.store.CreateConversation()
	c.SetDraft("")
	return conv
}

// SelectConversation switches to id and clears the draft.
func (c *Controller) SelectConversation(id string) bool {
	ok := c.store.SelectConversation(id)
	if ok {
		c.SetDraft("")
	}
	return ok
}

// DeleteConversation removes id.
func (c *Controller) DeleteConversation(id string) bool {
	return c.store.DeleteConversation(id)
}

// =============================================================================
// FEEDBACK
// =============================================================================

// QuestionFor returns the user question that botMessageID answers.
func (c *Controller) QuestionFor(conversationID, botMessageID string) (string, bool) {
	conv, ok := c.store.Get(conversationID)
	if !ok {
		return "", false
	}
	_, idx, ok := conv.MessageByID(botMessageID)
	if !ok {
		return "", false
	}
	q, ok := conv.QuestionFor(idx)
	if !ok {
		return "", false
	}
	return q.Text, true
}

// FeedbackSent reports whether messageID was already rated.
func (c *Controller) FeedbackSent(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedbackSent[messageID]
}

// SubmitFeedback rates a bot answer. The request runs in the background and
// its failure is only logged. A comment is sent only with a negative rating.
func (c *Controller) SubmitFeedback(ctx context.Context, botMessageID string, helpful bool, comment string) error {
	conv, msg, idx, ok := c.findMessage(botMessageID)
	if !ok {
		return ErrMessageNotFound
	}
	if !msg.IsBot() {
		return ErrNotBotMessage
	}

	c.mu.Lock()
	if c.feedbackSent[botMessageID] {
		c.mu.Unlock()
		return ErrFeedbackAlreadySent
	}
	c.feedbackSent[botMessageID] = true
	c.mu.Unlock()

	input := model.FeedbackInput{Answer: msg.Text, IsHelpful: helpful}
	if q, ok := conv.QuestionFor(idx); ok {
		input.Question = q.Text
	}
	if comment = strings.TrimSpace(comment); !helpful && comment != "" {
		input.Comment = &comment
	}

	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), feedbackTimeout)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer cancel()
		if err := c.backend.SubmitFeedback(bgCtx, input); err != nil {
			c.logger.Warn().Err(err).Str("message", botMessageID).Msg("Feedback submission failed")
			return
		}
		c.logger.Debug().Str("message", botMessageID).Bool("helpful", helpful).Msg("Feedback submitted")
	}()
	return nil
}

// Wait blocks until background feedback submissions finish.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// findMessage looks in the active conversation first, then everywhere.
func (c *Controller) findMessage(id string) (*model.Conversation, model.Message, int, bool) {
	if conv, ok := c.store.Active(); ok {
		if msg, idx, ok := conv.MessageByID(id); ok {
			return conv, msg, idx, true
		}
	}
	for _, conv := range c.store.Conversations() {
		if msg, idx, ok := conv.MessageByID(id); ok {
			return conv, msg, idx, true
		}
	}
	return nil, model.Message{}, -1, false
}
