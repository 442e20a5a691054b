// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/conversation"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeBackend records calls and answers with configurable results.
type fakeBackend struct {
	mu        sync.Mutex
	questions []string
	userIDs   []string
	feedback  []model.FeedbackInput

	answer     *model.ChatResponse
	chatErr    error
	block      chan struct{}
	started    chan struct{}
	feedbackCh chan struct{}
	chatCalls  atomic.Int32
}

func (f *fakeBackend) Chat(ctx context.Context, question, userID string) (*model.ChatResponse, error) {
	f.chatCalls.Add(1)
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.userIDs = append(f.userIDs, userID)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.answer, nil
}

func (f *fakeBackend) SubmitFeedback(ctx context.Context, fb model.FeedbackInput) error {
	f.mu.Lock()
	f.feedback = append(f.feedback, fb)
	f.mu.Unlock()
	if f.feedbackCh != nil {
		f.feedbackCh <- struct{}{}
	}
	return nil
}

func newStore(t *testing.T) *conversation.Store {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := conversation.NewStore(kv)
	s.Initialize()
	return s
}

func newController(t *testing.T, backend Backend) *Controller {
	t.Helper()
	return NewController(newStore(t), backend, Options{})
}

// =============================================================================
// SEND
// =============================================================================

// Scenario: a successful question appends the question and the answer.
func TestSend_Success(t *testing.T) {
	backend := &fakeBackend{answer: &model.ChatResponse{
		Answer:     "ลงทะเบียนได้ตั้งแต่วันที่ 1",
		NextTopics: []string{"ค่าธรรมเนียม", "การเพิ่มถอน"},
	}}
	ctrl := newController(t, backend)
	ctrl.SetDraft("  กำหนดการลงทะเบียน  ")

	res := ctrl.Send(context.Background(), ctrl.Draft())
	require.Equal(t, StateSucceeded, res.State)
	require.NotNil(t, res.BotMessage)
	assert.Equal(t, "", ctrl.Draft())
	assert.False(t, ctrl.Busy())

	assert.Equal(t, []string{"กำหนดการลงทะเบียน"}, backend.questions)
	assert.Equal(t, []string{DefaultUserID}, backend.userIDs)

	conv, ok := ctrl.Store().Get(res.ConversationID)
	require.True(t, ok)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, model.RoleUser, conv.Messages[1].Role)
	assert.Equal(t, "กำหนดการลงทะเบียน", conv.Messages[1].Text)
	assert.Equal(t, model.RoleBot, conv.Messages[2].Role)
	assert.Equal(t, "ลงทะเบียนได้ตั้งแต่วันที่ 1", conv.Messages[2].Text)
	assert.Equal(t, []string{"ค่าธรรมเนียม", "การเพิ่มถอน"}, conv.Messages[2].NextTopics)
	assert.Equal(t, "กำหนดการลงทะเบียน", conv.Title)
	assert.Len(t, ctrl.Store().History(), 1)
}

func TestSend_BlankIsSkipped(t *testing.T) {
	backend := &fakeBackend{answer: &model.ChatResponse{Answer: "x"}}
	ctrl := newController(t, backend)

	for _, text := range []string{"", "   ", "\n\t"} {
		res := ctrl.Send(context.Background(), text)
		assert.Equal(t, StateSkipped, res.State)
		assert.Nil(t, res.UserMessage)
	}
	assert.Zero(t, backend.chatCalls.Load())
	conv, _ := ctrl.Store().Active()
	assert.Len(t, conv.Messages, 1)
}

// Scenario: a backend failure becomes a bot message carrying the detail.
func TestSend_ServerErrorBecomesBotMessage(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"Multi-agent pipeline error"}`))
	}))
	defer server.Close()

	ctrl := newController(t, api.NewClient(server.URL))
	res := ctrl.Send(context.Background(), "hello")

	require.Equal(t, StateFailed, res.State)
	require.Error(t, res.Err)
	require.NotNil(t, res.BotMessage)
	assert.Equal(t, ErrorPrefix+"Multi-agent pipeline error", res.BotMessage.Text)
	assert.Empty(t, res.BotMessage.NextTopics)
	assert.Equal(t, int32(1), calls.Load(), "chat must not be retried")

	conv, _ := ctrl.Store().Get(res.ConversationID)
	assert.Len(t, conv.Messages, 3)
	assert.True(t, strings.HasPrefix(conv.Messages[2].Text, ErrorPrefix))
}

func TestSend_TransportErrorBecomesBotMessage(t *testing.T) {
	backend := &fakeBackend{chatErr: errors.New("connection refused")}
	ctrl := newController(t, backend)

	res := ctrl.Send(context.Background(), "hello")
	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, ErrorPrefix+"connection refused", res.BotMessage.Text)
}

func TestSend_BusyRejectsSecondSend(t *testing.T) {
	backend := &fakeBackend{
		answer:  &model.ChatResponse{Answer: "done"},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	ctrl := newController(t, backend)

	done := make(chan Result, 1)
	go func() { done <- ctrl.Send(context.Background(), "first") }()
	<-backend.started

	assert.True(t, ctrl.Busy())
	second := ctrl.Send(context.Background(), "second")
	assert.Equal(t, StateSkipped, second.State)

	close(backend.block)
	first := <-done
	assert.Equal(t, StateSucceeded, first.State)
	assert.False(t, ctrl.Busy())
	assert.Equal(t, int32(1), backend.chatCalls.Load())
}

func TestSend_CreatesConversationWhenNoneActive(t *testing.T) {
	backend := &fakeBackend{answer: &model.ChatResponse{Answer: "ok"}}
	ctrl := newController(t, backend)
	ctrl.DeleteConversation(ctrl.Store().ActiveID())
	require.Empty(t, ctrl.Store().ActiveID())

	res := ctrl.Send(context.Background(), "hi")
	require.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, res.ConversationID, ctrl.Store().ActiveID())
}

func TestSend_ConversationDeletedWhilePending(t *testing.T) {
	backend := &fakeBackend{
		answer:  &model.ChatResponse{Answer: "late"},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	ctrl := newController(t, backend)
	other := ctrl.Store().ActiveID()
	target := ctrl.NewConversation().ID

	done := make(chan Result, 1)
	go func() { done <- ctrl.Send(context.Background(), "question") }()
	<-backend.started

	require.True(t, ctrl.DeleteConversation(target))
	close(backend.block)

	res := <-done
	assert.Equal(t, StateSucceeded, res.State)
	assert.Nil(t, res.BotMessage)
	_, ok := ctrl.Store().Get(target)
	assert.False(t, ok)

	conv, _ := ctrl.Store().Get(other)
	assert.Len(t, conv.Messages, 1, "reply must not land in another conversation")
}

// =============================================================================
// DRAFT & NAVIGATION
// =============================================================================

func TestNavigationClearsDraft(t *testing.T) {
	ctrl := newController(t, &fakeBackend{})
	first := ctrl.Store().ActiveID()

	ctrl.SetDraft("typing...")
	ctrl.NewConversation()
	assert.Equal(t, "", ctrl.Draft())

	ctrl.SetDraft("more typing")
	assert.True(t, ctrl.SelectConversation(first))
	assert.Equal(t, "", ctrl.Draft())

	ctrl.SetDraft("kept")
	assert.False(t, ctrl.SelectConversation("unknown"))
	assert.Equal(t, "kept", ctrl.Draft())
}

func TestUseSuggestion(t *testing.T) {
	ctrl := newController(t, &fakeBackend{})
	s := Suggestions()
	require.Len(t, s, 4)

	ctrl.UseSuggestion(s[2])
	assert.Equal(t, s[2].Prompt, ctrl.Draft())
}

// =============================================================================
// FEEDBACK
// =============================================================================

func TestSubmitFeedback_OncePerMessage(t *testing.T) {
	backend := &fakeBackend{answer: &model.ChatResponse{Answer: "answer text"}}
	ctrl := newController(t, backend)
	res := ctrl.Send(context.Background(), "the question")
	require.NotNil(t, res.BotMessage)
	botID := res.BotMessage.ID

	q, ok := ctrl.QuestionFor(res.ConversationID, botID)
	require.True(t, ok)
	assert.Equal(t, "the question", q)

	require.NoError(t, ctrl.SubmitFeedback(context.Background(), botID, false, "  out of date  "))
	err := ctrl.SubmitFeedback(context.Background(), botID, true, "")
	assert.True(t, errors.Is(err, ErrFeedbackAlreadySent))
	assert.True(t, ctrl.FeedbackSent(botID))

	ctrl.Wait()
	require.Len(t, backend.feedback, 1)
	fb := backend.feedback[0]
	assert.Equal(t, "the question", fb.Question)
	assert.Equal(t, "answer text", fb.Answer)
	assert.False(t, fb.IsHelpful)
	require.NotNil(t, fb.Comment)
	assert.Equal(t, "out of date", *fb.Comment)
}

func TestSubmitFeedback_PositiveDropsComment(t *testing.T) {
	backend := &fakeBackend{answer: &model.ChatResponse{Answer: "a"}}
	ctrl := newController(t, backend)
	res := ctrl.Send(context.Background(), "q")

	require.NoError(t, ctrl.SubmitFeedback(context.Background(), res.BotMessage.ID, true, "great"))
	ctrl.Wait()
	require.Len(t, backend.feedback, 1)
	assert.True(t, backend.feedback[0].IsHelpful)
	assert.Nil(t, backend.feedback[0].Comment)
}

func TestSubmitFeedback_DoesNotBlockCaller(t *testing.T) {
	backend := &fakeBackend{
		answer:     &model.ChatResponse{Answer: "a"},
		feedbackCh: make(chan struct{}),
	}
	ctrl := newController(t, backend)
	res := ctrl.Send(context.Background(), "q")

	returned := make(chan error, 1)
	go func() { returned <- ctrl.SubmitFeedback(context.Background(), res.BotMessage.ID, true, "") }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SubmitFeedback blocked on the request")
	}
	<-backend.feedbackCh
	ctrl.Wait()
}

func TestSubmitFeedback_Errors(t *testing.T) {
	backend := &fakeBackend{answer: &model.ChatResponse{Answer: "a"}}
	ctrl := newController(t, backend)
	res := ctrl.Send(context.Background(), "q")

	assert.True(t, errors.Is(ctrl.SubmitFeedback(context.Background(), "missing", true, ""), ErrMessageNotFound))
	assert.True(t, errors.Is(ctrl.SubmitFeedback(context.Background(), res.UserMessage.ID, true, ""), ErrNotBotMessage))
}
