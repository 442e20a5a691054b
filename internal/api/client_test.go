// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/unirag-tui/internal/model"
)

// newTestClient returns a client pointed at handler with instant retries.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(server.URL + "/")
	c.backoff = time.Millisecond
	return c, server
}

// =============================================================================
// CHAT & FEEDBACK
// =============================================================================

func TestChat_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get(HeaderAPIKey), "chat is a public endpoint")

		var req model.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ทุนการศึกษา", req.Question)
		assert.Equal(t, "web", req.UserID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"มีหลายประเภท","next_topics":["ทุนเรียนดี","ทุนกู้ยืม"]}`))
	})
	c.SetToken("secret")

	resp, err := c.Chat(context.Background(), "ทุนการศึกษา", "web")
	require.NoError(t, err)
	assert.Equal(t, "มีหลายประเภท", resp.Answer)
	assert.Equal(t, []string{"ทุนเรียนดี", "ทุนกู้ยืม"}, resp.NextTopics)
}

func TestChat_ServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"Multi-agent pipeline error"}`))
	})

	_, err := c.Chat(context.Background(), "q", "web")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Multi-agent pipeline error", Message(err))
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
}

func TestSubmitFeedback_Body(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feedback", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "q", body["question"])
		assert.Equal(t, "a", body["answer"])
		assert.Equal(t, false, body["is_helpful"])
		assert.Equal(t, "wrong dates", body["comment"])
		w.Write([]byte(`{"message":"Feedback received","id":3}`))
	})

	comment := "wrong dates"
	err := c.SubmitFeedback(context.Background(), model.FeedbackInput{
		Question: "q", Answer: "a", IsHelpful: false, Comment: &comment,
	})
	require.NoError(t, err)
}

// =============================================================================
// ERROR NORMALIZATION
// =============================================================================

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", http.StatusForbidden, `{"detail":"Not authorized as admin"}`, "Not authorized as admin"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","title"]}]}`, `[{"loc":["body","title"]}]`},
		{"raw body", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"json without detail", http.StatusBadRequest, `{"error":"x"}`, `{"error":"x"}`},
		{"empty body", http.StatusNotFound, ``, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			c.WithMaxRetries(0)

			_, err := c.ListDocuments(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err))

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	c.WithMaxRetries(0).WithTimeout(time.Second)

	_, err := c.Chat(context.Background(), "q", "web")
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, Message(err), "POST /chat")
}

// =============================================================================
// RETRIES
// =============================================================================

func TestGET_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id":1,"title":"Doc","created_at":"2025-01-01T00:00:00","updated_at":"2025-01-01T00:00:00"}]`))
	})

	docs, err := c.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGET_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.WithMaxRetries(1)

	_, err := c.StatsSummary(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
}

func TestGET_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListFeedback(context.Background(), 100)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCalculateBackoff(t *testing.T) {
	c := NewClient("")
	assert.Equal(t, retryBaseDelay, c.calculateBackoff(1))
	assert.Equal(t, 2*retryBaseDelay, c.calculateBackoff(2))
	assert.Equal(t, retryMaxDelay, c.calculateBackoff(20))
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdminCallsCarryToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get(HeaderAPIKey))
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/admin/documents/5":
			var in model.DocumentInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "admin", in.UpdatedBy)
			w.Write([]byte(`{"id":5,"title":"T","current_content":"C","created_at":"2025-01-01T00:00:00","updated_at":"2025-01-02T00:00:00","revisions":[]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/admin/documents/5":
			w.Write([]byte(`{"detail":"Deleted"}`))
		case r.URL.Path == "/admin/feedback":
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			w.Write([]byte(`[]`))
		case r.URL.Path == "/admin/stats/top-questions":
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			w.Write([]byte(`[{"question":"q","count":4}]`))
		case r.URL.Path == "/admin/stats/intents":
			w.Write([]byte(`[{"intent":"faq","count":2}]`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c.WithToken("  secret  ")
	ctx := context.Background()

	doc, err := c.UpdateDocument(ctx, 5, model.DocumentInput{Title: "T", Content: "C", UpdatedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "C", doc.CurrentContent)

	require.NoError(t, c.DeleteDocument(ctx, 5))

	fb, err := c.ListFeedback(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, fb)

	top, err := c.TopQuestions(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []model.TopQuestion{{Question: "q", Count: 4}}, top)

	intents, err := c.IntentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.IntentCount{{Intent: "faq", Count: 2}}, intents)
}

func TestUploadPDF_Multipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/upload_pdf", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "handbook.pdf", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4 fake", string(data))

		w.Write([]byte(`{"id":42,"title":"[PDF] handbook","filename":"handbook.pdf","pages":3,"chars":1234}`))
	})
	c.SetToken("secret")

	res, err := c.UploadPDF(context.Background(), "/tmp/dir/handbook.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, 42, res.ID)
	assert.Equal(t, 1234, res.Chars)
	assert.Equal(t, 3, res.Pages)
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
}

func TestRateLimit_Throttles(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	c.WithRateLimit(20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Health(context.Background())
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Health(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
