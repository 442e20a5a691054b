// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the device-local conversation collection and
// its active pointer, persisted through a storage.KV.
package conversation

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/unirag-tui/internal/logging"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/storage"
	"github.com/jeranaias/unirag-tui/internal/util"
)

// WelcomeText seeds every new conversation.
const WelcomeText = "สวัสดีครับ ผมเป็นผู้ช่วย AI สำหรับนักศึกษา มหาวิทยาลัยแม่ฟ้าหลวง (MFU)\n\n" +
	"ผมสามารถช่วยตอบคำถามเกี่ยวกับ:\n" +
	"- ระเบียบการเรียนและการลงทะเบียน\n" +
	"- ข้อมูลหอพักและทุนการศึกษา\n" +
	"- กฎระเบียบและการแต่งกาย\n" +
	"- ข้อมูลทั่วไปของมหาวิทยาลัย\n\n" +
	"มีอะไรให้ผมช่วยไหมครับ?"

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// PERSISTED STATE
// =============================================================================

// persistedState is the blob written under storage.KeyConversations.
type persistedState struct {
	Conversations []*model.Conversation `json:"conversations"`
	ActiveID      *string               `json:"activeId"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is the conversation collection plus the active pointer.
// All methods are safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	kv            storage.KV
	conversations []*model.Conversation // newest created first
	activeID      string

	initOnce    sync.Once
	now         func() time.Time
	newID       func() string
	subscribers map[int]func()
	nextSubID   int
	logger      zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides conversation id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a store backed by kv. Call Initialize before use.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		now:         func() time.Time { return time.Now().UTC().Round(0) },
		newID:       func() string { return util.NewID("conv") },
		subscribers: make(map[int]func()),
		logger:      logging.Component("conversation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize rehydrates the collection from storage. It runs once; later
// calls are no-ops. Missing, empty, or unreadable state yields a single fresh
// conversation that becomes active.
func (s *Store) Initialize() {
	s.initOnce.Do(func() {
		s.mu.Lock()
		if !s.load() {
			conv := s.newConversation()
			s.conversations = []*model.Conversation{conv}
			s.activeID = conv.ID
			s.persist()
		}
		s.mu.Unlock()
		s.notify()
	})
}

// load reads persisted state. It reports false when a fresh conversation
// must be synthesized.
func (s *Store) load() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Msg("Discarding unreadable conversation state")
			s.conversations = nil
			s.activeID = ""
			ok = false
		}
	}()

	data, err := s.kv.Get(storage.KeyConversations)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn().Err(err).Msg("Cannot read conversation state")
		}
		return false
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn().Err(err).Msg("Cannot parse conversation state")
		return false
	}

	convs := make([]*model.Conversation, 0, len(state.Conversations))
	for _, c := range state.Conversations {
		if c == nil || c.ID == "" {
			continue
		}
		if len(c.Messages) == 0 {
			c.Messages = []model.Message{s.welcome(c.CreatedAt)}
		}
		if c.Title == "" {
			c.Title = model.DefaultTitle
		}
		convs = append(convs, c)
	}
	if len(convs) == 0 {
		return false
	}

	s.conversations = convs
	s.activeID = convs[0].ID
	if state.ActiveID != nil && s.indexOf(*state.ActiveID) >= 0 {
		s.activeID = *state.ActiveID
	}
	s.logger.Debug().Int("count", len(convs)).Str("active", s.activeID).Msg("Loaded conversations")
	return true
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateConversation adds a fresh conversation at the front and makes it
// active.
func (s *Store) CreateConversation() *model.Conversation {
	s.mu.Lock()
	conv := s.newConversation()
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	s.persist()
	out := conv.Clone()
	s.mu.Unlock()

	s.notify()
	return out
}

// SelectConversation makes id active. Unknown ids are ignored.
func (s *Store) SelectConversation(id string) bool {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.activeID = id
	s.persist()
	s.mu.Unlock()

	s.notify()
	return true
}

// AppendMessage appends msg to the conversation and refreshes its updatedAt.
// It returns ErrConversationNotFound when the conversation is gone.
func (s *Store) AppendMessage(conversationID string, msg model.Message) error {
	s.mu.Lock()
	i := s.indexOf(conversationID)
	if i < 0 {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	s.conversations[i].Append(msg, s.now())
	s.persist()
	s.mu.Unlock()

	s.notify()
	return nil
}

// DeleteConversation removes id. When it was active, the most recently
// updated survivor becomes active, or the pointer is cleared.
func (s *Store) DeleteConversation(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
		var latest *model.Conversation
		for _, c := range s.conversations {
			if latest == nil || c.UpdatedAt.After(latest.UpdatedAt) {
				latest = c
			}
		}
		if latest != nil {
			s.activeID = latest.ID
		}
	}
	s.persist()
	s.mu.Unlock()

	s.notify()
	return true
}

// EnsureActive returns the active conversation id, creating a conversation
// if there is none.
func (s *Store) EnsureActive() string {
	s.mu.Lock()
	if s.activeID != "" {
		id := s.activeID
		s.mu.Unlock()
		return id
	}
	s.mu.Unlock()
	return s.CreateConversation().ID
}

// =============================================================================
// QUERIES
// =============================================================================

// ActiveID returns the active conversation id or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation.
func (s *Store) Active() (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(s.activeID); i >= 0 {
		return s.conversations[i].Clone(), true
	}
	return nil, false
}

// Get returns a copy of the conversation with the given id.
func (s *Store) Get(id string) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.conversations[i].Clone(), true
	}
	return nil, false
}

// Conversations returns copies of every conversation in collection order.
func (s *Store) Conversations() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// History returns conversations with at least one user message, most
// recently updated first.
func (s *Store) History() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if c.HasUserMessage() {
			out = append(out, c.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to run after every mutation. fn runs synchronously
// on the mutating goroutine and must not block. The returned function removes
// the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) newConversation() *model.Conversation {
	now := s.now()
	return model.NewConversation(s.newID(), s.welcome(now), now)
}

func (s *Store) welcome(now time.Time) model.Message {
	return model.NewBotMessage(WelcomeText, nil, now)
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole collection. Failures are logged, not returned.
// Caller must hold s.mu.
func (s *Store) persist() {
	state := persistedState{Conversations: s.conversations}
	if s.activeID != "" {
		id := s.activeID
		state.ActiveID = &id
	}
	if state.Conversations == nil {
		state.Conversations = []*model.Conversation{}
	}

	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cannot encode conversation state")
		return
	}
	if err := s.kv.Set(storage.KeyConversations, data); err != nil {
		s.logger.Warn().Err(err).Msg("Cannot persist conversation state")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
